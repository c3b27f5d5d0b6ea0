// Package scenario reads end-to-end compiler tests written as Markdown. Each
// "Test: <name>" heading starts a case holding one cminus fence with the program
// and any number of assertion fences
package scenario

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// InputFence is the fence language of the program under test
const InputFence = "cminus"

type AssertionType string

const (
	AssertQuads         AssertionType = "quads"
	AssertDiagnostics   AssertionType = "diagnostics"
	AssertSymtab        AssertionType = "symtab"
	AssertInternalError AssertionType = "internal-error"
)

type Assertion struct {
	Type    AssertionType
	Content string
	Line    int
}

// Lines splits the assertion body into non-empty trimmed lines
func (a Assertion) Lines() []string {
	var out []string
	for _, l := range strings.Split(a.Content, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

type Case struct {
	Name       string
	Input      string
	Assertions []Assertion
}

func isAssertion(lang string) bool {
	switch AssertionType(lang) {
	case AssertQuads, AssertDiagnostics, AssertSymtab, AssertInternalError:
		return true
	}
	return false
}

// Extract parses a Markdown document into its test cases
func Extract(markdown string) ([]Case, error) {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var cases []Case
	var cur *Case
	flush := func() error {
		if cur == nil {
			return nil
		}
		if cur.Input == "" {
			return fmt.Errorf("test '%s' has no %s fence", cur.Name, InputFence)
		}
		if len(cur.Assertions) == 0 {
			return fmt.Errorf("test '%s' has no assertion fences", cur.Name)
		}
		cases = append(cases, *cur)
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Heading:
			heading := nodeText(n, source)
			if !strings.HasPrefix(heading, "Test: ") {
				return ast.WalkContinue, nil
			}
			if err := flush(); err != nil {
				return ast.WalkStop, err
			}
			cur = &Case{Name: strings.TrimPrefix(heading, "Test: ")}
		case *ast.FencedCodeBlock:
			lang := string(n.Language(source))
			line := lineOf(n, source)
			switch {
			case lang == "":
				return ast.WalkContinue, nil
			case cur == nil:
				return ast.WalkStop, fmt.Errorf("line %d: %s fence found outside of a test", line, lang)
			case lang == InputFence:
				if cur.Input != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple %s fences in test '%s'", line, InputFence, cur.Name)
				}
				cur.Input = strings.TrimRight(blockText(n, source), "\n")
			case isAssertion(lang):
				cur.Assertions = append(cur.Assertions, Assertion{
					Type:    AssertionType(lang),
					Content: strings.TrimRight(blockText(n, source), "\n"),
					Line:    line,
				})
			default:
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", line, lang, cur.Name)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading scenarios: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return cases, nil
}

func nodeText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func blockText(block *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

func lineOf(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	return bytes.Count(source[:node.Lines().At(0).Start], []byte("\n")) + 1
}
