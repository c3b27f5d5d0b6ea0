package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xplshn/cminus/pkg/token"
)

func types(toks []token.Token) []token.Type {
	out := make([]token.Type, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func TestTokenize(t *testing.T) {
	testDatas := []struct {
		src      string
		expected []token.Type
	}{
		{"int x;", []token.Type{token.Int, token.Ident, token.Semi, token.EOF}},
		{"a<=b>=c==d!=e<f>g", []token.Type{
			token.Ident, token.Lte, token.Ident, token.Gte, token.Ident, token.EqEq, token.Ident,
			token.Neq, token.Ident, token.Lt, token.Ident, token.Gt, token.Ident, token.EOF,
		}},
		{"a << 2 >> b", []token.Type{token.Ident, token.Shl, token.Number, token.Shr, token.Ident, token.EOF}},
		{"x = y & z | w", []token.Type{token.Ident, token.Assign, token.Ident, token.And, token.Ident, token.Or, token.Ident, token.EOF}},
		{"/* c */ void // tail\nreturn", []token.Type{token.Void, token.Return, token.EOF}},
		{"v[10]", []token.Type{token.Ident, token.LBracket, token.Number, token.RBracket, token.EOF}},
		{"@", []token.Type{token.Illegal, token.EOF}},
		{"/* open", []token.Type{token.Illegal, token.EOF}},
	}

	for _, td := range testDatas {
		toks := Tokenize([]rune(td.src))
		assert.Equal(t, td.expected, types(toks), td.src)
	}
}

func TestPositions(t *testing.T) {
	toks := Tokenize([]rune("int\n  main"))
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, 1, toks[0].Column)
	assert.Equal(t, 3, toks[0].Len)
	assert.Equal(t, 2, toks[1].Line)
	assert.Equal(t, 3, toks[1].Column)
	assert.Equal(t, "main", toks[1].Value)
}
