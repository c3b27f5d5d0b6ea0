// Package symtab implements the whole-program symbol table: a hash table keyed by
// (name, scope) whose entries point back at their declaring AST nodes
package symtab

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cespare/xxhash/v2"
	"github.com/xplshn/cminus/pkg/ast"
)

// HashSize is the number of buckets
const HashSize = 211

// Entry is one declared identifier. Lines starts with the declaration line,
// followed by every recorded use
type Entry struct {
	Name  string
	Scope string
	Node  *ast.Node
	Lines []int
	next  *Entry
}

type Table struct {
	buckets [HashSize]*Entry
	count   int
}

func New() *Table { return &Table{} }

func hash(name, scope string) int {
	d := xxhash.New()
	d.WriteString(name)
	d.Write([]byte{0})
	d.WriteString(scope)
	return int(d.Sum64() % HashSize)
}

// Insert records node under (node.Name, scope). A known key gets node's line
// appended; an unknown key gets a fresh entry pointing at node
func (t *Table) Insert(node *ast.Node, scope string) *Entry {
	h := hash(node.Name, scope)
	if e := t.find(h, node.Name, scope); e != nil {
		e.Lines = append(e.Lines, node.Line)
		return e
	}
	e := &Entry{Name: node.Name, Scope: scope, Node: node, Lines: []int{node.Line}, next: t.buckets[h]}
	t.buckets[h] = e
	t.count++
	return e
}

// Lookup resolves node in its own scope. Identifiers and calls fall back to the global scope
func (t *Table) Lookup(node *ast.Node) *Entry {
	if e := t.LookupName(node.Name, node.Scope); e != nil {
		return e
	}
	if node.IsExp(ast.ExpIdentifier) || node.IsExp(ast.ExpCall) {
		return t.LookupName(node.Name, ast.GlobalScope)
	}
	return nil
}

// LookupName resolves an exact (name, scope) key
func (t *Table) LookupName(name, scope string) *Entry {
	return t.find(hash(name, scope), name, scope)
}

func (t *Table) find(h int, name, scope string) *Entry {
	for e := t.buckets[h]; e != nil; e = e.next {
		if e.Name == name && e.Scope == scope {
			return e
		}
	}
	return nil
}

func (t *Table) Len() int { return t.count }

// Entries lists every entry in bucket order
func (t *Table) Entries() []*Entry {
	entries := make([]*Entry, 0, t.count)
	for _, head := range t.buckets {
		for e := head; e != nil; e = e.next {
			entries = append(entries, e)
		}
	}
	return entries
}

// Kind renders the declaration kind, with the size for arrays
func (e *Entry) Kind() string {
	n := e.Node
	if n.Kind != ast.Declaration {
		return n.Kind.String()
	}
	if n.Decl == ast.DeclArray {
		return fmt.Sprintf("%s[%d]", n.Decl, n.Size)
	}
	return n.Decl.String()
}

// Print dumps the table; the declaration line is marked with '~'
func (t *Table) Print(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "Kind\tType\tName\tScope\tAt line(s)")
	for _, e := range t.Entries() {
		lines := make([]string, len(e.Lines))
		for i, l := range e.Lines {
			lines[i] = fmt.Sprint(l)
		}
		lines[0] = "~" + lines[0]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Kind(), e.Node.Type, e.Name, e.Scope, strings.Join(lines, ", "))
	}
	tw.Flush()
	fmt.Fprintln(w, "*[~line]: \"line\" = declaration line.")
}
