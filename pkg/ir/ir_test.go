package ir

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressString(t *testing.T) {
	assert.Equal(t, VoidToken, Empty.String())
	assert.Equal(t, "42", Const(42).String())
	assert.Equal(t, "-3", Const(-3).String())
	assert.Equal(t, "r6", Name("r6").String())
}

func TestParseAddress(t *testing.T) {
	assert.Equal(t, Empty, ParseAddress("---"))
	assert.Equal(t, Const(7), ParseAddress("7"))
	assert.Equal(t, Name("global"), ParseAddress("global"))
}

func TestOpClasses(t *testing.T) {
	for _, op := range []Op{OpAdd, OpSub, OpMul, OpDiv, OpOr, OpAnd, OpLshift, OpRshift, OpSGT, OpSDT} {
		assert.True(t, op.IsArith(), op.String())
	}
	for _, op := range []Op{OpMove, OpStoreVAR, OpLoadVAR, OpCall, OpHalt} {
		assert.False(t, op.IsArith(), op.String())
	}
	assert.True(t, OpStoreARRAY.IsStore())
	assert.False(t, OpLoadARRAY.IsStore())
	assert.Equal(t, "Op(99)", Op(99).String())
}

func TestMidcodeRoundTrip(t *testing.T) {
	prog := NewProgram("inputs/a.cm")
	prog.Append(Quad{OpAllocVAR, Name("global"), Name("x"), Empty})
	prog.Append(Quad{OpAdd, Const(1), Const(2), Name("r6")})
	prog.Append(Quad{OpStoreVAR, Name("r6"), Name("global"), Name("x")})
	prog.Append(Quad{OpHalt, Empty, Empty, Empty})

	var buf bytes.Buffer
	require.NoError(t, prog.WriteMidcode(&buf))
	assert.Equal(t, "inputs/a.cm\nAllocVAR|global|x|---\nAdd|1|2|r6\nStoreVAR|r6|global|x\nHalt|---|---|---\n", buf.String())

	back, err := ReadMidcode(&buf)
	require.NoError(t, err)
	assert.Equal(t, prog, back)
}

func TestReadMidcodeErrors(t *testing.T) {
	_, err := ReadMidcode(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ReadMidcode(strings.NewReader("src\nAdd|1|2\n"))
	assert.ErrorContains(t, err, "expected 4 fields")

	_, err = ReadMidcode(strings.NewReader("src\nFrob|1|2|3\n"))
	assert.ErrorContains(t, err, "unknown operation")
}

func TestWriteTraceSkipsVoidOperands(t *testing.T) {
	prog := NewProgram("x")
	prog.Append(Quad{OpReturn, Empty, Empty, Empty})
	prog.Append(Quad{OpCall, Name("f"), Const(1), Empty})
	var buf bytes.Buffer
	prog.WriteTrace(&buf)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.NotContains(t, lines[0], VoidToken)
	assert.Contains(t, lines[1], "f")
	assert.Equal(t, 1, prog.Count(OpCall))
}
