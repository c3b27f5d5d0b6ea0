package ir

import (
	"fmt"
	"io"
	"strconv"
)

type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpOr
	OpAnd
	OpLshift
	OpRshift
	OpSGT
	OpSLT
	OpSGET
	OpSLET
	OpSET
	OpSDT
	OpAllocVAR
	OpAllocARRAY
	OpStoreVAR
	OpStoreARRAY
	OpLoadVAR
	OpLoadARRAY
	OpIFfalse
	OpLabel
	OpJump
	OpFunBGN
	OpFunEND
	OpParam
	OpCall
	OpMove
	OpReturn
	OpPush
	OpPop
	OpHalt
)

var opNames = [...]string{
	"Add", "Sub", "Mul", "Div",
	"Or", "And",
	"Lshift", "Rshift",
	"SGT", "SLT", "SGET", "SLET", "SET", "SDT",
	"AllocVAR", "AllocARRAY", "StoreVAR", "StoreARRAY", "LoadVAR", "LoadARRAY",
	"IFfalse", "Label", "Jump",
	"FunBGN", "FunEND", "Param", "Call", "Move", "Return",
	"Push", "Pop", "Halt",
}

func (o Op) String() string {
	if o >= 0 && int(o) < len(opNames) {
		return opNames[o]
	}
	return "Op(" + strconv.Itoa(int(o)) + ")"
}

// ParseOp maps a mnemonic back to its Op
func ParseOp(name string) (Op, bool) {
	for i, n := range opNames {
		if n == name {
			return Op(i), true
		}
	}
	return 0, false
}

// IsArith reports whether o is an arithmetic, bitwise or relational operation
func (o Op) IsArith() bool { return o >= OpAdd && o <= OpSDT }

// IsStore reports whether o writes a value to memory
func (o Op) IsStore() bool { return o == OpStoreVAR || o == OpStoreARRAY }

type AddrKind int

const (
	AddrVoid AddrKind = iota
	AddrConst
	AddrName
)

// VoidToken renders an unused operand
const VoidToken = "---"

// Address is a quadruple operand: void, an integer constant, or a symbolic name
// (register, label, variable or scope)
type Address struct {
	Kind  AddrKind
	Value int
	Name  string
}

var Empty = Address{Kind: AddrVoid}

func Const(v int) Address       { return Address{Kind: AddrConst, Value: v} }
func Name(s string) Address     { return Address{Kind: AddrName, Name: s} }
func (a Address) IsVoid() bool  { return a.Kind == AddrVoid }
func (a Address) IsConst() bool { return a.Kind == AddrConst }
func (a Address) IsName() bool  { return a.Kind == AddrName }

func (a Address) String() string {
	switch a.Kind {
	case AddrConst:
		return strconv.Itoa(a.Value)
	case AddrName:
		return a.Name
	}
	return VoidToken
}

// ParseAddress is the inverse of Address.String
func ParseAddress(s string) Address {
	if s == VoidToken || s == "" {
		return Empty
	}
	if v, err := strconv.Atoi(s); err == nil {
		return Const(v)
	}
	return Name(s)
}

// Quad is one three-address instruction
type Quad struct {
	Op            Op
	Src, Tgt, Dst Address
}

func (q Quad) String() string {
	return fmt.Sprintf("%s|%s|%s|%s", q.Op, q.Src, q.Tgt, q.Dst)
}

// Program is the append-only quadruple list of one compilation unit
type Program struct {
	Source string
	Quads  []Quad
}

func NewProgram(source string) *Program { return &Program{Source: source} }

func (p *Program) Append(q Quad) { p.Quads = append(p.Quads, q) }
func (p *Program) Len() int      { return len(p.Quads) }

// Count returns how many quadruples carry op
func (p *Program) Count(op Op) int {
	n := 0
	for _, q := range p.Quads {
		if q.Op == op {
			n++
		}
	}
	return n
}

// WriteMidcode writes the backend artifact: the source path, then one Op|src|tgt|dst line per quad
func (p *Program) WriteMidcode(w io.Writer) error {
	if _, err := fmt.Fprintln(w, p.Source); err != nil {
		return err
	}
	for _, q := range p.Quads {
		if _, err := fmt.Fprintln(w, q.String()); err != nil {
			return err
		}
	}
	return nil
}

// WriteTrace writes the human-readable listing; void operands are omitted
func (p *Program) WriteTrace(w io.Writer) {
	for i, q := range p.Quads {
		fmt.Fprintf(w, "\t> %d:\t%-10s →   ", i, q.Op)
		for _, a := range []Address{q.Src, q.Tgt, q.Dst} {
			if !a.IsVoid() {
				fmt.Fprintf(w, "%-6s ", a)
			}
		}
		fmt.Fprintln(w)
	}
}
