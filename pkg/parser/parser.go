package parser

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/xplshn/cminus/pkg/ast"
	"github.com/xplshn/cminus/pkg/lexer"
	"github.com/xplshn/cminus/pkg/token"
)

// Error is a syntax error at a token
type Error struct {
	Tok token.Token
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Tok.Line, e.Tok.Column, e.Msg)
}

// Parser holds the state for the parsing process
type Parser struct {
	tokens   []token.Token
	pos      int
	current  token.Token
	previous token.Token
	scope    string
}

// NewParser creates and initializes a new Parser from a token stream ending in EOF
func NewParser(tokens []token.Token) *Parser {
	if len(tokens) == 0 {
		tokens = []token.Token{{Type: token.EOF}}
	}
	return &Parser{tokens: tokens, current: tokens[0], scope: ast.GlobalScope}
}

// ParseSource tokenizes and parses a whole program
func ParseSource(src string) (*ast.Node, error) {
	return NewParser(lexer.Tokenize([]rune(src))).Parse()
}

// Parse builds the declaration list of a program. Every node carries the name of
// its enclosing function (or "global") in Scope
func (p *Parser) Parse() (root *ast.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			var perr *Error
			if e, ok := r.(error); ok && errors.As(e, &perr) {
				root, err = nil, perr
				return
			}
			panic(r)
		}
	}()

	for !p.check(token.EOF) {
		root = ast.AddSibling(root, p.parseDeclaration())
	}
	return root, nil
}

// Parser helpers
func (p *Parser) advance() {
	if p.pos < len(p.tokens)-1 {
		p.previous = p.current
		p.pos++
		p.current = p.tokens[p.pos]
	}
}

func (p *Parser) peek() token.Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) check(tokType token.Type) bool {
	return p.current.Type == tokType
}

func (p *Parser) match(tokType token.Type) bool {
	if !p.check(tokType) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expect(tokType token.Type, message string) token.Token {
	if p.check(tokType) {
		p.advance()
		return p.previous
	}
	p.fail("%s", message)
	return token.Token{}
}

func (p *Parser) fail(format string, args ...interface{}) {
	if p.check(token.Illegal) {
		panic(&Error{Tok: p.current, Msg: fmt.Sprintf("Unexpected character: '%s'", p.current.Value)})
	}
	panic(&Error{Tok: p.current, Msg: fmt.Sprintf(format, args...)})
}

func (p *Parser) parseType() ast.ExpType {
	switch {
	case p.match(token.Int):
		return ast.Integer
	case p.match(token.Void):
		return ast.Void
	}
	p.fail("Expected a type ('int' or 'void').")
	return ast.Void
}

func (p *Parser) parseNumber() int {
	tok := p.expect(token.Number, "Expected a number.")
	val, err := strconv.Atoi(tok.Value)
	if err != nil {
		panic(&Error{Tok: tok, Msg: fmt.Sprintf("Integer constant '%s' is out of range.", tok.Value)})
	}
	return val
}

// Declaration Parsing
func (p *Parser) parseDeclaration() *ast.Node {
	typ := p.parseType()
	nameTok := p.expect(token.Ident, "Expected identifier in declaration.")

	if p.match(token.LParen) {
		p.scope = nameTok.Value
		params := p.parseParams()
		p.expect(token.RParen, "Expected ')' after parameters.")
		body := p.parseCompoundStmt()
		p.scope = ast.GlobalScope
		return ast.NewFunction(nameTok.Line, nameTok.Value, typ, params, body)
	}
	return p.parseVarRest(typ, nameTok)
}

func (p *Parser) parseVarRest(typ ast.ExpType, nameTok token.Token) *ast.Node {
	var decl *ast.Node
	if p.match(token.LBracket) {
		size := p.parseNumber()
		p.expect(token.RBracket, "Expected ']' after array size.")
		decl = ast.NewArray(nameTok.Line, p.scope, nameTok.Value, typ, size)
	} else {
		decl = ast.NewVariable(nameTok.Line, p.scope, nameTok.Value, typ)
	}
	p.expect(token.Semi, "Expected ';' after declaration.")
	return decl
}

func (p *Parser) parseParams() *ast.Node {
	if p.check(token.RParen) {
		return nil
	}
	if p.check(token.Void) && p.peek().Type == token.RParen {
		p.advance()
		return nil
	}
	var params *ast.Node
	for {
		typ := p.parseType()
		nameTok := p.expect(token.Ident, "Expected parameter name.")
		isArray := false
		if p.match(token.LBracket) {
			p.expect(token.RBracket, "Expected ']' after array parameter.")
			isArray = true
		}
		params = ast.AddSibling(params, ast.NewParameter(nameTok.Line, p.scope, nameTok.Value, typ, isArray))
		if !p.match(token.Comma) {
			return params
		}
	}
}

// Statement Parsing
func (p *Parser) parseCompoundStmt() *ast.Node {
	tok := p.expect(token.LBrace, "Expected '{' to start a block.")
	var decls, stmts *ast.Node
	for p.check(token.Int) || p.check(token.Void) {
		typ := p.parseType()
		nameTok := p.expect(token.Ident, "Expected identifier in declaration.")
		decls = ast.AddSibling(decls, p.parseVarRest(typ, nameTok))
	}
	for !p.check(token.RBrace) && !p.check(token.EOF) {
		if stmt := p.parseStmt(); stmt != nil {
			stmts = ast.AddSibling(stmts, stmt)
		}
	}
	p.expect(token.RBrace, "Expected '}' after block.")
	return ast.NewCompound(tok.Line, p.scope, decls, stmts)
}

func (p *Parser) parseStmt() *ast.Node {
	tok := p.current
	switch {
	case p.check(token.LBrace):
		return p.parseCompoundStmt()
	case p.match(token.Semi):
		return nil
	case p.match(token.If):
		p.expect(token.LParen, "Expected '(' after 'if'.")
		cond := p.parseExpr()
		p.expect(token.RParen, "Expected ')' after if condition.")
		thenBody := p.parseStmt()
		var elseBody *ast.Node
		if p.match(token.Else) {
			elseBody = p.parseStmt()
		}
		return ast.NewIf(tok.Line, p.scope, cond, thenBody, elseBody)
	case p.match(token.While):
		p.expect(token.LParen, "Expected '(' after 'while'.")
		cond := p.parseExpr()
		p.expect(token.RParen, "Expected ')' after while condition.")
		body := p.parseStmt()
		return ast.NewWhile(tok.Line, p.scope, cond, body)
	case p.match(token.Return):
		var expr *ast.Node
		if !p.check(token.Semi) {
			expr = p.parseExpr()
		}
		p.expect(token.Semi, "Expected ';' after return.")
		return ast.NewReturn(tok.Line, p.scope, expr)
	}

	expr := p.parseExpr()
	if p.match(token.Assign) {
		if !expr.IsExp(ast.ExpIdentifier) {
			panic(&Error{Tok: p.previous, Msg: "Invalid target for assignment."})
		}
		rhs := p.parseExpr()
		p.expect(token.Semi, "Expected ';' after assignment.")
		return ast.NewAssign(expr.Line, p.scope, expr, rhs)
	}
	p.expect(token.Semi, "Expected ';' after expression.")
	return expr
}

// Expression Parsing
func getBinaryOpPrecedence(op token.Type) int {
	switch op {
	case token.Star, token.Slash:
		return 13
	case token.Plus, token.Minus:
		return 12
	case token.Shl, token.Shr:
		return 11
	case token.Lt, token.Gt, token.Lte, token.Gte:
		return 10
	case token.EqEq, token.Neq:
		return 9
	case token.And:
		return 8
	case token.Or:
		return 6
	default:
		return -1
	}
}

func (p *Parser) parseExpr() *ast.Node {
	return p.parseBinaryExpr(0)
}

func (p *Parser) parseBinaryExpr(minPrec int) *ast.Node {
	left := p.parseFactor()
	for {
		op := p.current.Type
		prec := getBinaryOpPrecedence(op)
		if prec < minPrec {
			break
		}
		opTok := p.current
		p.advance()
		right := p.parseBinaryExpr(prec + 1)
		left = ast.NewOperator(opTok.Line, p.scope, op, left, right)
	}
	return left
}

func (p *Parser) parseFactor() *ast.Node {
	tok := p.current
	switch {
	case p.check(token.Number):
		return ast.NewConstant(tok.Line, p.scope, p.parseNumber())
	case p.match(token.LParen):
		expr := p.parseExpr()
		p.expect(token.RParen, "Expected ')' after expression.")
		return expr
	case p.match(token.Ident):
		if p.match(token.LParen) {
			var args *ast.Node
			if !p.check(token.RParen) {
				for {
					args = ast.AddSibling(args, p.parseExpr())
					if !p.match(token.Comma) {
						break
					}
				}
			}
			p.expect(token.RParen, "Expected ')' after function arguments.")
			return ast.NewCall(tok.Line, p.scope, tok.Value, args)
		}
		var index *ast.Node
		if p.match(token.LBracket) {
			index = p.parseExpr()
			p.expect(token.RBracket, "Expected ']' after array index.")
		}
		return ast.NewIdentifier(tok.Line, p.scope, tok.Value, index)
	}
	p.fail("Expected an expression.")
	return nil
}
