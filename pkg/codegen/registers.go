package codegen

import (
	"fmt"
	"strconv"
	"strings"
)

// RegisterBank tracks which symbolic registers are occupied. Indices outside
// [poolStart, poolEnd] are only handed out on request, for the calling convention
type RegisterBank struct {
	used      []bool
	poolStart int
	poolEnd   int
}

func NewRegisterBank(size, poolStart, poolEnd int) *RegisterBank {
	return &RegisterBank{used: make([]bool, size), poolStart: poolStart, poolEnd: poolEnd}
}

func RegisterName(i int) string { return fmt.Sprintf("r%d", i) }

// ParseRegister returns the index named by "r<n>"
func ParseRegister(name string) (int, bool) {
	if !strings.HasPrefix(name, "r") || len(name) < 2 {
		return 0, false
	}
	i, err := strconv.Atoi(name[1:])
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// Acquire reserves register i if it is free
func (b *RegisterBank) Acquire(i int) (string, bool) {
	if i < 0 || i >= len(b.used) || b.used[i] {
		return "", false
	}
	b.used[i] = true
	return RegisterName(i), true
}

// AcquireAny reserves the lowest free register of the general pool
func (b *RegisterBank) AcquireAny() (string, bool) {
	for i := b.poolStart; i <= b.poolEnd && i < len(b.used); i++ {
		if !b.used[i] {
			b.used[i] = true
			return RegisterName(i), true
		}
	}
	return "", false
}

// Release frees the register called name. Names that are not registers are ignored
func (b *RegisterBank) Release(name string) {
	if i, ok := ParseRegister(name); ok && i < len(b.used) {
		b.used[i] = false
	}
}

func (b *RegisterBank) ReleaseAll() {
	for i := range b.used {
		b.used[i] = false
	}
}

func (b *RegisterBank) IsUsed(i int) bool { return i >= 0 && i < len(b.used) && b.used[i] }

// Live lists the occupied general-pool registers in ascending order
func (b *RegisterBank) Live() []int {
	var live []int
	for i := b.poolStart; i <= b.poolEnd && i < len(b.used); i++ {
		if b.used[i] {
			live = append(live, i)
		}
	}
	return live
}

// InUse counts every occupied register, reserved ones included
func (b *RegisterBank) InUse() int {
	n := 0
	for _, u := range b.used {
		if u {
			n++
		}
	}
	return n
}
