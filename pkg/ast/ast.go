// Package ast defines the types used to represent the Abstract Syntax Tree (AST)
// handed to the middle end by the parser
package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xplshn/cminus/pkg/token"
)

// MaxChildren is the fixed arity of every node; lists hang off Sibling
const MaxChildren = 3

// GlobalScope names the top-level scope
const GlobalScope = "global"

// Kind is the top-level tag of a node
type Kind int

const (
	Declaration Kind = iota
	Statement
	Expression
)

type DeclKind int

const (
	DeclFunction DeclKind = iota
	DeclParameter
	DeclVariable
	DeclArray
)

type StmtKind int

const (
	StmtAssign StmtKind = iota
	StmtCompound
	StmtIf
	StmtWhile
	StmtReturn
)

type ExpKind int

const (
	ExpOperator ExpKind = iota
	ExpConstant
	ExpIdentifier
	ExpCall
)

// ExpType is the resolved type of a declaration or expression
type ExpType int

const (
	Void ExpType = iota
	Integer
	Boolean
)

func (k Kind) String() string {
	switch k {
	case Declaration: return "Declaration"
	case Statement: return "Statement"
	case Expression: return "Expression"
	}
	return "Unknown"
}

func (d DeclKind) String() string {
	switch d {
	case DeclFunction: return "Function"
	case DeclParameter: return "Parameter"
	case DeclVariable: return "Variable"
	case DeclArray: return "Array"
	}
	return "Unknown"
}

func (s StmtKind) String() string {
	switch s {
	case StmtAssign: return "Assign"
	case StmtCompound: return "Compound"
	case StmtIf: return "If"
	case StmtWhile: return "While"
	case StmtReturn: return "Return"
	}
	return "Unknown"
}

func (e ExpKind) String() string {
	switch e {
	case ExpOperator: return "Operator"
	case ExpConstant: return "Constant"
	case ExpIdentifier: return "Identifier"
	case ExpCall: return "Call"
	}
	return "Unknown"
}

func (t ExpType) String() string {
	switch t {
	case Void: return "void"
	case Integer: return "int"
	case Boolean: return "bool"
	}
	return "unknown"
}

// Node represents a node in the Abstract Syntax Tree
type Node struct {
	Kind Kind
	Decl DeclKind
	Stmt StmtKind
	Exp  ExpKind

	Child   [MaxChildren]*Node
	Sibling *Node

	Line    int
	Scope   string  // Enclosing function name, or GlobalScope
	Type    ExpType // Filled in for calls by the semantic analyzer
	IsArray bool

	Name  string     // Identifier, call, function, parameter, variable or array name
	Value int        // Constant value
	Op    token.Type // Operator code
	Size  int        // Declared array size
}

func (n *Node) IsDecl(k DeclKind) bool { return n != nil && n.Kind == Declaration && n.Decl == k }
func (n *Node) IsStmt(k StmtKind) bool { return n != nil && n.Kind == Statement && n.Stmt == k }
func (n *Node) IsExp(k ExpKind) bool   { return n != nil && n.Kind == Expression && n.Exp == k }

// --- Node Constructors ---

func newDecl(line int, kind DeclKind, scope, name string, typ ExpType) *Node {
	return &Node{Kind: Declaration, Decl: kind, Line: line, Scope: scope, Name: name, Type: typ}
}

func newStmt(line int, kind StmtKind, scope string, children ...*Node) *Node {
	n := &Node{Kind: Statement, Stmt: kind, Line: line, Scope: scope}
	copy(n.Child[:], children)
	return n
}

func newExp(line int, kind ExpKind, scope string, typ ExpType) *Node {
	return &Node{Kind: Expression, Exp: kind, Line: line, Scope: scope, Type: typ}
}

// NewFunction builds a function declaration; params and body become children 0 and 1
func NewFunction(line int, name string, returnType ExpType, params, body *Node) *Node {
	n := newDecl(line, DeclFunction, GlobalScope, name, returnType)
	n.Child[0], n.Child[1] = params, body
	return n
}

func NewParameter(line int, scope, name string, typ ExpType, isArray bool) *Node {
	n := newDecl(line, DeclParameter, scope, name, typ)
	n.IsArray = isArray
	return n
}

func NewVariable(line int, scope, name string, typ ExpType) *Node {
	return newDecl(line, DeclVariable, scope, name, typ)
}

func NewArray(line int, scope, name string, typ ExpType, size int) *Node {
	n := newDecl(line, DeclArray, scope, name, typ)
	n.IsArray, n.Size = true, size
	return n
}

func NewAssign(line int, scope string, lhs, rhs *Node) *Node {
	return newStmt(line, StmtAssign, scope, lhs, rhs)
}

// NewCompound builds a block; local declarations and statements are sibling lists
func NewCompound(line int, scope string, decls, stmts *Node) *Node {
	return newStmt(line, StmtCompound, scope, decls, stmts)
}

func NewIf(line int, scope string, cond, then, els *Node) *Node {
	return newStmt(line, StmtIf, scope, cond, then, els)
}

func NewWhile(line int, scope string, cond, body *Node) *Node {
	return newStmt(line, StmtWhile, scope, cond, body)
}

func NewReturn(line int, scope string, expr *Node) *Node {
	return newStmt(line, StmtReturn, scope, expr)
}

// NewOperator builds a binary operator; relational operators yield Boolean
func NewOperator(line int, scope string, op token.Type, left, right *Node) *Node {
	typ := Integer
	if op.IsRelational() {
		typ = Boolean
	}
	n := newExp(line, ExpOperator, scope, typ)
	n.Op = op
	n.Child[0], n.Child[1] = left, right
	return n
}

func NewConstant(line int, scope string, value int) *Node {
	n := newExp(line, ExpConstant, scope, Integer)
	n.Value = value
	return n
}

// NewIdentifier builds a variable reference, or an array element access when index is non-nil
func NewIdentifier(line int, scope, name string, index *Node) *Node {
	n := newExp(line, ExpIdentifier, scope, Integer)
	n.Name = name
	if index != nil {
		n.IsArray = true
		n.Child[0] = index
	}
	return n
}

// NewCall builds a call; its type stays Void until the analyzer resolves the callee
func NewCall(line int, scope, name string, args *Node) *Node {
	n := newExp(line, ExpCall, scope, Void)
	n.Name = name
	n.Child[0] = args
	return n
}

// AddSibling appends sibling to the end of list and returns the list head
func AddSibling(list, sibling *Node) *Node {
	if list == nil {
		return sibling
	}
	t := list
	for t.Sibling != nil {
		t = t.Sibling
	}
	t.Sibling = sibling
	return list
}

// Len counts n and its siblings
func Len(n *Node) int {
	count := 0
	for ; n != nil; n = n.Sibling {
		count++
	}
	return count
}

// DisplayName renders an expression for diagnostics
func DisplayName(n *Node) string {
	if n == nil {
		return "<nil>"
	}
	switch {
	case n.IsExp(ExpConstant):
		return strconv.Itoa(n.Value)
	case n.IsExp(ExpOperator):
		return n.Op.String()
	}
	return n.Name
}

// Fprint writes an indented dump of the tree rooted at n, siblings included
func Fprint(w io.Writer, n *Node) {
	fprint(w, n, 0)
}

func fprint(w io.Writer, n *Node, depth int) {
	for ; n != nil; n = n.Sibling {
		indent := strings.Repeat("    ", depth)
		switch n.Kind {
		case Declaration:
			label := n.Name
			if n.Decl == DeclArray || (n.Decl == DeclParameter && n.IsArray) {
				label = fmt.Sprintf("%s[%d]", n.Name, n.Size)
			}
			fmt.Fprintf(w, "%s%s: %s %s (line %d, scope %s)\n", indent, n.Decl, n.Type, label, n.Line, n.Scope)
		case Statement:
			fmt.Fprintf(w, "%s%s (line %d)\n", indent, n.Stmt, n.Line)
		case Expression:
			fmt.Fprintf(w, "%s%s: %s (line %d, %s)\n", indent, n.Exp, DisplayName(n), n.Line, n.Type)
		}
		for _, c := range n.Child {
			fprint(w, c, depth+1)
		}
	}
}
