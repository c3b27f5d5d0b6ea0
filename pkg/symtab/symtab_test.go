package symtab

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xplshn/cminus/pkg/ast"
)

func TestInsertAppendsUseLines(t *testing.T) {
	st := New()
	decl := ast.NewVariable(1, "f", "x", ast.Integer)
	st.Insert(decl, "f")

	for _, line := range []int{4, 7, 7} {
		st.Insert(ast.NewIdentifier(line, "f", "x", nil), "f")
	}

	e := st.Lookup(ast.NewIdentifier(9, "f", "x", nil))
	require.NotNil(t, e)
	assert.Same(t, decl, e.Node)
	assert.Equal(t, []int{1, 4, 7, 7}, e.Lines)
	assert.Equal(t, 1, st.Len())
}

func TestLookupFallsBackToGlobal(t *testing.T) {
	testDatas := []struct {
		name     string
		node     *ast.Node
		expected bool
	}{
		{"identifier", ast.NewIdentifier(3, "main", "g", nil), true},
		{"call", ast.NewCall(3, "main", "g", nil), true},
		{"declaration", ast.NewVariable(3, "main", "g", ast.Integer), false},
		{"missing", ast.NewIdentifier(3, "main", "h", nil), false},
	}

	st := New()
	st.Insert(ast.NewVariable(1, ast.GlobalScope, "g", ast.Integer), ast.GlobalScope)

	for _, td := range testDatas {
		t.Run(td.name, func(t *testing.T) {
			e := st.Lookup(td.node)
			if td.expected {
				require.NotNil(t, e)
				assert.Equal(t, ast.GlobalScope, e.Scope)
			} else {
				assert.Nil(t, e)
			}
		})
	}
}

func TestLocalShadowsGlobal(t *testing.T) {
	st := New()
	global := ast.NewVariable(1, ast.GlobalScope, "x", ast.Integer)
	local := ast.NewVariable(3, "f", "x", ast.Integer)
	st.Insert(global, ast.GlobalScope)
	st.Insert(local, "f")

	assert.Same(t, local, st.Lookup(ast.NewIdentifier(4, "f", "x", nil)).Node)
	assert.Same(t, global, st.Lookup(ast.NewIdentifier(9, "main", "x", nil)).Node)
	assert.Same(t, global, st.Lookup(ast.NewIdentifier(9, ast.GlobalScope, "x", nil)).Node)
	assert.Equal(t, 2, st.Len())
}

func TestSameNameDifferentScopes(t *testing.T) {
	st := New()
	for i, scope := range []string{"a", "b", "c", ast.GlobalScope} {
		st.Insert(ast.NewVariable(i+1, scope, "n", ast.Integer), scope)
	}
	assert.Equal(t, 4, st.Len())
	for i, scope := range []string{"a", "b", "c", ast.GlobalScope} {
		e := st.LookupName("n", scope)
		require.NotNil(t, e, scope)
		assert.Equal(t, []int{i + 1}, e.Lines)
	}
	assert.Len(t, st.Entries(), 4)
}

func TestPrint(t *testing.T) {
	st := New()
	st.Insert(ast.NewArray(2, ast.GlobalScope, "v", ast.Integer, 10), ast.GlobalScope)
	st.Insert(ast.NewIdentifier(5, "main", "v", ast.NewConstant(5, "main", 1)), ast.GlobalScope)

	var buf bytes.Buffer
	st.Print(&buf)
	out := buf.String()
	assert.Contains(t, out, "Array[10]")
	assert.Contains(t, out, "~2, 5")
	assert.Contains(t, out, "global")
}
