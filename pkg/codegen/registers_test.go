package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xplshn/cminus/pkg/config"
)

func TestRegisterBank(t *testing.T) {
	b := NewRegisterBank(32, 6, 27)

	r, ok := b.AcquireAny()
	assert.True(t, ok)
	assert.Equal(t, "r6", r)
	r, _ = b.AcquireAny()
	assert.Equal(t, "r7", r)

	b.Release("r6")
	r, _ = b.AcquireAny()
	assert.Equal(t, "r6", r, "lowest free register is reused first")

	r, ok = b.Acquire(2)
	assert.True(t, ok)
	assert.Equal(t, "r2", r)
	_, ok = b.Acquire(2)
	assert.False(t, ok, "busy register is never handed out twice")

	assert.Equal(t, []int{6, 7}, b.Live(), "reserved registers are not part of the spill set")
	assert.Equal(t, 3, b.InUse())

	b.ReleaseAll()
	assert.Zero(t, b.InUse())
	assert.Nil(t, b.Live())
}

func TestRegisterBankExhaustion(t *testing.T) {
	b := NewRegisterBank(8, 6, 7)
	b.AcquireAny()
	b.AcquireAny()
	_, ok := b.AcquireAny()
	assert.False(t, ok)
	assert.False(t, b.IsUsed(5), "pool scan never leaves its range")
}

func TestReleaseIgnoresNonRegisters(t *testing.T) {
	b := NewRegisterBank(32, 6, 27)
	b.AcquireAny()
	for _, name := range []string{"x", "r", "rx", "l3", "r99", "main"} {
		b.Release(name)
	}
	assert.True(t, b.IsUsed(6))
	b.Release("r6")
	b.Release("r6")
	assert.False(t, b.IsUsed(6))
}

func TestConventionFor(t *testing.T) {
	assert.Equal(t, Convention{Return: 2}, ConventionFor("gcd"))
	assert.Equal(t, Convention{Return: 3}, ConventionFor("input"))
	assert.Equal(t, Convention{Return: 4, NoSpill: true}, ConventionFor("loadHD"))
	assert.True(t, ConventionFor("LCDwrite").NoSpill)
}

func TestConventionsUseReservedReturnRegisters(t *testing.T) {
	assert.Contains(t, config.ReturnRegisters, ReturnRegister)
	for name, c := range Conventions {
		assert.Contains(t, config.ReturnRegisters, c.Return, name)
	}
}

func TestPoolOverlappingReturnRegisterIsRejected(t *testing.T) {
	cfg := config.NewConfig()
	cfg.PoolStart = 2
	assert.ErrorContains(t, cfg.Validate(), "overlaps return register r2")
}
