package util

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xplshn/cminus/pkg/config"
	"github.com/xplshn/cminus/pkg/token"
)

func capture(t *testing.T) (*bytes.Buffer, *int) {
	t.Helper()
	var buf bytes.Buffer
	code := -1
	oldErr, oldExit := Stderr, exit
	Stderr, exit = &buf, func(c int) { code = c }
	t.Cleanup(func() { Stderr, exit = oldErr, oldExit })
	return &buf, &code
}

func TestErrorPrintsCaret(t *testing.T) {
	buf, code := capture(t)
	SetSourceFile(SourceFileRecord{Name: "a.cm", Content: []rune("int x;\nint $y;\n")})

	Error(token.Token{Line: 2, Column: 5, Len: 2}, "unexpected character '%c'", '$')

	assert.Equal(t, 1, *code)
	assert.Equal(t, "a.cm:2:5: error: unexpected character '$'\n  int $y;\n      ^~\n", buf.String())
}

func TestWarnRespectsConfig(t *testing.T) {
	buf, _ := capture(t)
	SetSourceFile(SourceFileRecord{Name: "b.cm"})
	cfg := config.NewConfig()

	Warn(cfg, config.WarnCodegenErrors, token.Token{}, "%d error(s)", 2)
	assert.Contains(t, buf.String(), "warning: 2 error(s) [-Wcodegen-errors]")

	buf.Reset()
	cfg.SetWarning(config.WarnCodegenErrors, false)
	Warn(cfg, config.WarnCodegenErrors, token.Token{}, "hidden")
	assert.Empty(t, buf.String())
}

func TestSourceLineBounds(t *testing.T) {
	SetSourceFile(SourceFileRecord{Name: "c.cm", Content: []rune("a\r\nb")})
	assert.Equal(t, "a", SourceLine(1))
	assert.Equal(t, "b", SourceLine(2))
	assert.Equal(t, "", SourceLine(0))
	assert.Equal(t, "", SourceLine(3))
}
