package codegen

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xplshn/cminus/pkg/ast"
	"github.com/xplshn/cminus/pkg/config"
	"github.com/xplshn/cminus/pkg/ir"
	"github.com/xplshn/cminus/pkg/parser"
	"github.com/xplshn/cminus/pkg/semantic"
	"github.com/xplshn/cminus/pkg/symtab"
)

func analyzed(t *testing.T, src string) *ast.Node {
	t.Helper()
	root, err := parser.ParseSource(src)
	require.NoError(t, err)
	semantic.New(config.NewConfig(), symtab.New(), nil).Analyze(root)
	return root
}

func generate(t *testing.T, cfg *config.Config, src string) (*ir.Program, error) {
	t.Helper()
	return NewContext(cfg, "test.cm").GenerateIR(analyzed(t, src))
}

func quads(prog *ir.Program, keep ...ir.Op) []string {
	var out []string
	for _, q := range prog.Quads {
		if len(keep) > 0 && !containsOp(keep, q.Op) {
			continue
		}
		out = append(out, q.String())
	}
	return out
}

func containsOp(ops []ir.Op, op ir.Op) bool {
	for _, o := range ops {
		if o == op {
			return true
		}
	}
	return false
}

func assertQuads(t *testing.T, src string, expected []string) {
	t.Helper()
	prog, err := generate(t, config.NewConfig(), src)
	require.NoError(t, err)
	if diff := cmp.Diff(expected, quads(prog)); diff != "" {
		t.Errorf("quadruples mismatch (-want +got):\n%s", diff)
	}
}

func TestConstantAssignment(t *testing.T) {
	assertQuads(t, "int x; void main(void) { x = 1 + 2; }", []string{
		"AllocVAR|global|x|---",
		"FunBGN|main|void|---",
		"Add|1|2|r6",
		"StoreVAR|r6|main|x",
		"Return|---|---|---",
		"FunEND|main|void|---",
		"Halt|---|---|---",
	})
}

func TestCallWithConstantArgument(t *testing.T) {
	assertQuads(t, "int f(int a) { return a; } void main(void) { int y; y = f(3); }", []string{
		"FunBGN|f|int|---",
		"AllocVAR|f|a|---",
		"LoadVAR|f|a|r6",
		"Move|r6|r2|---",
		"Return|r2|---|---",
		"FunEND|f|int|---",
		"FunBGN|main|void|---",
		"AllocVAR|main|y|---",
		"Move|3|r6|---",
		"Param|r6|---|---",
		"Call|f|1|---",
		"Move|r2|r6|---",
		"StoreVAR|r6|main|y",
		"Return|---|---|---",
		"FunEND|main|void|---",
		"Halt|---|---|---",
	})
}

func TestControlFlowLabels(t *testing.T) {
	src := "void main(void) { int i; while (i < 3) { if (i == 1) i = 2; else i = 3; } }"
	assertQuads(t, src, []string{
		"FunBGN|main|void|---",
		"AllocVAR|main|i|---",
		"Label|l0|---|---",
		"LoadVAR|main|i|r6",
		"SLT|r6|3|r7",
		"IFfalse|r7|l1|---",
		"LoadVAR|main|i|r6",
		"SET|r6|1|r7",
		"IFfalse|r7|l2|---",
		"StoreVAR|2|main|i",
		"Jump|l3|---|---",
		"Label|l2|---|---",
		"StoreVAR|3|main|i",
		"Label|l3|---|---",
		"Jump|l0|---|---",
		"Label|l1|---|---",
		"Return|---|---|---",
		"FunEND|main|void|---",
		"Halt|---|---|---",
	})
}

func TestArrayAccess(t *testing.T) {
	src := "void main(void) { int v[4]; int i; v[i] = v[2] + 1; }"
	assertQuads(t, src, []string{
		"FunBGN|main|void|---",
		"AllocARRAY|main|v|4",
		"AllocVAR|main|i|---",
		"LoadVAR|main|v|r6",
		"Add|r6|2|r7",
		"LoadARRAY|main|r7|r6",
		"Add|r6|1|r7",
		"LoadVAR|main|v|r6",
		"LoadVAR|main|i|r8",
		"Add|r6|r8|r9",
		"StoreARRAY|r7|main|r9",
		"Return|---|---|---",
		"FunEND|main|void|---",
		"Halt|---|---|---",
	})
}

func TestArrayParameter(t *testing.T) {
	prog, err := generate(t, config.NewConfig(), "void f(int v[], int n) { } void main(void) { }")
	require.NoError(t, err)
	assert.Equal(t, []string{"AllocARRAY|f|v|0", "AllocVAR|f|n|---"}, quads(prog, ir.OpAllocVAR, ir.OpAllocARRAY))
}

func TestCallSpill(t *testing.T) {
	testDatas := []struct {
		name     string
		src      string
		expected []string
	}{
		{
			name:     "one live",
			src:      "int f(int a) { return a; } void main(void) { int a; int b; int x; x = a + (b + f(3)); }",
			expected: []string{"Push|r6|---|---", "Call|f|1|---", "Pop|r6|---|---"},
		},
		{
			name: "two live",
			src:  "int f(int a) { return a; } void main(void) { int a; int b; int c; int x; x = a + (b + (c + f(1))); }",
			expected: []string{
				"Push|r6|---|---", "Push|r7|---|---",
				"Call|f|1|---",
				"Pop|r7|---|---", "Pop|r6|---|---",
			},
		},
		{
			name:     "none live",
			src:      "int f(int a) { return a; } void main(void) { int x; x = f(1) + 2; }",
			expected: []string{"Call|f|1|---"},
		},
		{
			name:     "platform routine",
			src:      "void main(void) { int a; int b; int x; x = a + (b + loadHD(1, 2)); }",
			expected: []string{"Call|loadHD|2|---"},
		},
		{
			name:     "input spills",
			src:      "void main(void) { int a; int b; int x; x = a + (b + input()); }",
			expected: []string{"Push|r6|---|---", "Call|input|0|---", "Pop|r6|---|---"},
		},
	}

	for _, td := range testDatas {
		t.Run(td.name, func(t *testing.T) {
			prog, err := generate(t, config.NewConfig(), td.src)
			require.NoError(t, err)
			got := quads(prog, ir.OpPush, ir.OpCall, ir.OpPop)
			if diff := cmp.Diff(td.expected, got); diff != "" {
				t.Errorf("spill mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReturnRegisters(t *testing.T) {
	prog, err := generate(t, config.NewConfig(), "void main(void) { int x; x = input(); x = loadHD(x, 1); }")
	require.NoError(t, err)
	assert.Equal(t, []string{"Move|r3|r6|---", "Move|1|r7|---", "Move|r4|r6|---"}, quads(prog, ir.OpMove))
}

func TestRegisterDiscipline(t *testing.T) {
	src := `int f(int a, int b) { return a; }
void main(void) {
	int v[8]; int a; int b;
	a = 1;
	a = a + b * 2;
	a = v[a + 1] - f(a, 3 << b);
	a = (a < b) | (f(1, 2) >= v[0]);
	a = f(f(1, a), f(b, 2));
}`
	root := analyzed(t, src)
	ctx := NewContext(config.NewConfig(), "test.cm")

	main := root.Sibling
	stmt := main.Child[1].Child[1]
	for ; stmt != nil; stmt = stmt.Sibling {
		require.True(t, stmt.IsStmt(ast.StmtAssign))
		before := ctx.Registers().InUse()
		ctx.codegenExpr(stmt.Child[1])
		held := 0
		if ctx.current.IsName() {
			held = 1
		}
		assert.Equal(t, before+held, ctx.Registers().InUse(), "line %d", stmt.Line)
		ctx.release(ctx.current)
		assert.Equal(t, before, ctx.Registers().InUse(), "line %d", stmt.Line)
	}
}

func TestExpressionStatementReleasesValue(t *testing.T) {
	root := analyzed(t, "void main(void) { input(); input(); }")
	ctx := NewContext(config.NewConfig(), "test.cm")
	ctx.codegenList(root.Child[1].Child[1])
	assert.Zero(t, ctx.Registers().InUse())
	assert.Equal(t, []string{"Move|r3|r6|---", "Move|r3|r6|---"}, quads(ctx.prog, ir.OpMove))
}

func TestRegisterExhaustion(t *testing.T) {
	cfg := config.NewConfig()
	cfg.PoolStart, cfg.PoolEnd = 6, 7

	prog, err := generate(t, cfg, "void main(void) { int a; int b; int c; a = a + (b + (c + a)); }")
	var ierr *InternalError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, 1, ierr.Line)
	assert.Contains(t, err.Error(), "register pool exhausted")
	assert.NotNil(t, prog)
}

func TestImplicitReturn(t *testing.T) {
	src := "int f(void) { return 1; } void g(void) { if (1) return; } void main(void) { }"

	prog, err := generate(t, config.NewConfig(), src)
	require.NoError(t, err)
	assert.Equal(t, 4, prog.Count(ir.OpReturn))

	cfg := config.NewConfig()
	cfg.SetFeature(config.FeatImplicitReturn, false)
	prog, err = generate(t, cfg, src)
	require.NoError(t, err)
	assert.Equal(t, 2, prog.Count(ir.OpReturn))
}

func TestRedeclaredGlobalStillGenerates(t *testing.T) {
	prog, err := generate(t, config.NewConfig(), "int x; int x;")
	require.NoError(t, err)
	assert.Equal(t, []string{"AllocVAR|global|x|---"}, quads(prog))
	assert.Equal(t, 0, prog.Count(ir.OpHalt))
	assert.True(t, strings.HasPrefix(prog.Source, "test"))
}

func TestRedeclarationsAllocateOnce(t *testing.T) {
	src := "int x; int x; int v[2]; int v[3];\nvoid f(int a) { int a; int x; }\nvoid main(void) { int x; }"
	prog, err := generate(t, config.NewConfig(), src)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"AllocVAR|global|x|---",
		"AllocARRAY|global|v|2",
		"AllocVAR|f|a|---",
		"AllocVAR|f|x|---",
		"AllocVAR|main|x|---",
	}, quads(prog, ir.OpAllocVAR, ir.OpAllocARRAY))
}
