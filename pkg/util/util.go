package util

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xplshn/cminus/pkg/config"
	"github.com/xplshn/cminus/pkg/token"
	"golang.org/x/term"
)

// SourceFileRecord tracks the name and content of the file being compiled
type SourceFileRecord struct {
	Name    string
	Content []rune
}

var sourceFile SourceFileRecord

// Stderr is where Error and Warn write; tests may swap it
var Stderr io.Writer = os.Stderr

// exit terminates the process after Error; tests may swap it
var exit = os.Exit

// SetSourceFile stores the source code for rich error messages
func SetSourceFile(file SourceFileRecord) {
	sourceFile = file
}

func colorize(code, s string) string {
	if f, ok := Stderr.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "\033[" + code + "m" + s + "\033[0m"
	}
	return s
}

// SourceLine returns the 1-based line of the current source file, or "" when out of range
func SourceLine(line int) string {
	if line <= 0 {
		return ""
	}
	lines := strings.Split(string(sourceFile.Content), "\n")
	if line > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[line-1], "\r")
}

// printErrorLine prints the source line and a caret indicating the error position
func printErrorLine(w io.Writer, tok token.Token) {
	text := SourceLine(tok.Line)
	if text == "" {
		return
	}
	fmt.Fprintf(w, "  %s\n", text)
	if tok.Column < 1 {
		return
	}
	marker := "^"
	if tok.Len > 1 {
		marker += strings.Repeat("~", tok.Len-1)
	}
	fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", tok.Column-1), colorize("32", marker))
}

func location(tok token.Token) string {
	name := sourceFile.Name
	if name == "" {
		name = "unknown"
	}
	return fmt.Sprintf("%s:%d:%d", name, tok.Line, tok.Column)
}

// Error prints a formatted error message and exits the program
func Error(tok token.Token, format string, args ...interface{}) {
	fmt.Fprintf(Stderr, "%s: %s ", location(tok), colorize("31", "error:"))
	fmt.Fprintf(Stderr, format, args...)
	fmt.Fprintln(Stderr)
	printErrorLine(Stderr, tok)
	exit(1)
}

// Warn prints a formatted warning message if the corresponding warning is enabled
func Warn(cfg *config.Config, wt config.Warning, tok token.Token, format string, args ...interface{}) {
	if !cfg.IsWarningEnabled(wt) {
		return
	}
	fmt.Fprintf(Stderr, "%s: %s ", location(tok), colorize("33", "warning:"))
	fmt.Fprintf(Stderr, format, args...)
	fmt.Fprintf(Stderr, " [-W%s]\n", cfg.Warnings[wt].Name)
	printErrorLine(Stderr, tok)
}
