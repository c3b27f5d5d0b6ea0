// Package semantic resolves declarations against the symbol table and checks
// the types of assignments and returns. Every problem is reported and the walk
// carries on; nothing here stops compilation
package semantic

import (
	"fmt"
	"io"

	"github.com/xplshn/cminus/pkg/ast"
	"github.com/xplshn/cminus/pkg/config"
	"github.com/xplshn/cminus/pkg/symtab"
	"github.com/xplshn/cminus/pkg/token"
	"github.com/xplshn/cminus/pkg/util"
)

type Category string

const (
	InvalidDeclaration   Category = "Invalid Declaration"
	Redeclaration        Category = "Redeclaration"
	NotDeclared          Category = "Not Declared"
	IncompleteAssignment Category = "Incomplete Assignment"
	MismatchType         Category = "Mismatch Type"
	InvalidReturn        Category = "Invalid Return"
	Conflict             Category = "Conflict"
	MainMissing          Category = "Main Missing"
)

// Diagnostic is one reported semantic error. Line is 0 for whole-program errors
type Diagnostic struct {
	Category Category
	Line     int
	Message  string
}

func (d Diagnostic) String() string {
	if d.Line == 0 {
		return fmt.Sprintf("Semantic Error\n %s: %s.\n", d.Category, d.Message)
	}
	return fmt.Sprintf("Semantic Error\n Line %d - %s: %s.\n", d.Line, d.Category, d.Message)
}

type Analyzer struct {
	cfg          *config.Config
	table        *symtab.Table
	out          io.Writer
	diagnostics  []Diagnostic
	mainDeclared bool
	lastFunction *ast.Node
}

// New creates an analyzer that fills table and writes diagnostics to out (nil discards them)
func New(cfg *config.Config, table *symtab.Table, out io.Writer) *Analyzer {
	if out == nil {
		out = io.Discard
	}
	return &Analyzer{cfg: cfg, table: table, out: out}
}

// Analyze walks the whole declaration list rooted at root. Call nodes get the
// return type of the function they resolve to
func (a *Analyzer) Analyze(root *ast.Node) []Diagnostic {
	a.declareBuiltins()
	a.traverse(root)
	if !a.mainDeclared {
		a.report(MainMissing, 0, "function 'main' was not declared")
	}
	return a.diagnostics
}

func (a *Analyzer) Diagnostics() []Diagnostic { return a.diagnostics }
func (a *Analyzer) ErrorCount() int           { return len(a.diagnostics) }

func (a *Analyzer) report(cat Category, line int, format string, args ...interface{}) {
	d := Diagnostic{Category: cat, Line: line, Message: fmt.Sprintf(format, args...)}
	a.diagnostics = append(a.diagnostics, d)
	fmt.Fprint(a.out, d.String())
}

// traverse inserts n, visits its children, checks n, then moves on to the sibling.
// A declaration is therefore visible to later siblings only
func (a *Analyzer) traverse(n *ast.Node) {
	for ; n != nil; n = n.Sibling {
		a.insert(n)
		for _, c := range n.Child {
			a.traverse(c)
		}
		a.check(n)
	}
}

func (a *Analyzer) insert(n *ast.Node) {
	if n.Kind != ast.Declaration {
		return
	}
	switch n.Decl {
	case ast.DeclVariable:
		if n.Type == ast.Void {
			a.report(InvalidDeclaration, n.Line, "variable '%s' cannot be of type 'void'", n.Name)
			return
		}
		if a.table.Lookup(n) != nil {
			a.report(Redeclaration, n.Line, "variable '%s' was already declared", n.Name)
			return
		}
		a.table.Insert(n, n.Scope)
	case ast.DeclFunction:
		if n.Name == "main" {
			a.mainDeclared = true
		}
		if a.table.Lookup(n) != nil {
			a.report(Redeclaration, n.Line, "function '%s' was already declared", n.Name)
			return
		}
		a.table.Insert(n, n.Scope)
		a.lastFunction = n
	case ast.DeclParameter:
		a.insertUnique(n, "parameter")
	case ast.DeclArray:
		a.insertUnique(n, "array")
	}
}

func (a *Analyzer) insertUnique(n *ast.Node, what string) {
	if a.table.Lookup(n) != nil {
		a.report(Redeclaration, n.Line, "%s '%s' was already declared", what, n.Name)
		return
	}
	a.table.Insert(n, n.Scope)
}

func (a *Analyzer) check(n *ast.Node) {
	switch {
	case n.IsExp(ast.ExpIdentifier):
		e := a.table.Lookup(n)
		if e == nil {
			a.report(NotDeclared, n.Line, "variable '%s' was not declared", n.Name)
			return
		}
		a.table.Insert(n, e.Scope)
	case n.IsExp(ast.ExpCall):
		e := a.table.Lookup(n)
		if e == nil {
			a.report(NotDeclared, n.Line, "function '%s' was not declared", n.Name)
			return
		}
		n.Type = e.Node.Type
		a.table.Insert(n, e.Scope)
		a.checkArgCount(n, e.Node)
	case n.IsStmt(ast.StmtAssign):
		lhs, rhs := n.Child[0], n.Child[1]
		if lhs == nil || rhs == nil {
			a.report(IncompleteAssignment, n.Line, "missing operand(s)")
			return
		}
		if lhs.Type != rhs.Type {
			a.report(MismatchType, n.Line, "'%s → %s' and '%s → %s' types do not match",
				ast.DisplayName(lhs), lhs.Type, ast.DisplayName(rhs), rhs.Type)
		}
	case n.IsStmt(ast.StmtReturn):
		a.checkReturn(n)
	case n.IsDecl(ast.DeclVariable):
		a.checkConflict(n)
	}
}

func (a *Analyzer) checkReturn(n *ast.Node) {
	fn := a.lastFunction
	if fn == nil {
		a.report(InvalidReturn, n.Line, "function was not declared")
		return
	}
	switch {
	case fn.Type == ast.Void && n.Child[0] != nil:
		a.report(InvalidReturn, n.Line, "cannot return a value from a void function")
	case fn.Type != ast.Void && n.Child[0] == nil:
		a.report(InvalidReturn, n.Line, "function with return type '%s' must return a value", fn.Type)
	}
}

// checkConflict only looks at the declaring scope, so a local variable may
// share its name with a global function
func (a *Analyzer) checkConflict(n *ast.Node) {
	if e := a.table.LookupName(n.Name, n.Scope); e != nil && e.Node.IsDecl(ast.DeclFunction) {
		a.report(Conflict, n.Line, "variable '%s' collided with a function with same name", n.Name)
	}
}

func (a *Analyzer) checkArgCount(call, decl *ast.Node) {
	if !decl.IsDecl(ast.DeclFunction) {
		return
	}
	want, got := ast.Len(decl.Child[0]), ast.Len(call.Child[0])
	if want != got {
		util.Warn(a.cfg, config.WarnArgCount, token.Token{Line: call.Line}, "function '%s' expects %d argument(s), got %d", call.Name, want, got)
	}
}
