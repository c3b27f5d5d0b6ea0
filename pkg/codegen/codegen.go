// Package codegen lowers an analyzed syntax tree into a quadruple list, simulating
// a bank of machine registers along the way
package codegen

import (
	"errors"
	"fmt"

	"github.com/xplshn/cminus/pkg/ast"
	"github.com/xplshn/cminus/pkg/config"
	"github.com/xplshn/cminus/pkg/ir"
)

// InternalError is a compiler fault such as running out of registers. It is
// never caused by a semantic problem in the program itself
type InternalError struct {
	Line int
	Msg  string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal compiler error near line %d: %s", e.Line, e.Msg)
}

type Context struct {
	prog           *ir.Program
	regs           *RegisterBank
	labelCount     int
	current        ir.Address
	line           int
	implicitReturn bool
	allocated      map[allocKey]bool
}

type allocKey struct{ scope, name string }

func NewContext(cfg *config.Config, source string) *Context {
	return &Context{
		prog:           ir.NewProgram(source),
		regs:           NewRegisterBank(cfg.RegisterCount, cfg.PoolStart, cfg.PoolEnd),
		implicitReturn: cfg.IsFeatureEnabled(config.FeatImplicitReturn),
		allocated:      make(map[allocKey]bool),
	}
}

func (ctx *Context) Registers() *RegisterBank { return ctx.regs }

// GenerateIR emits the quadruples for the declaration list rooted at root.
// Internal errors abort generation and are returned with the partial program
func (ctx *Context) GenerateIR(root *ast.Node) (prog *ir.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			var ierr *InternalError
			if e, ok := r.(error); ok && errors.As(e, &ierr) {
				prog, err = ctx.prog, ierr
				return
			}
			panic(r)
		}
	}()

	ctx.regs.ReleaseAll()
	ctx.codegenList(root)
	return ctx.prog, nil
}

func (ctx *Context) fail(format string, args ...interface{}) {
	panic(&InternalError{Line: ctx.line, Msg: fmt.Sprintf(format, args...)})
}

func (ctx *Context) newLabel() ir.Address {
	l := ir.Name(fmt.Sprintf("l%d", ctx.labelCount))
	ctx.labelCount++
	return l
}

func (ctx *Context) newReg() ir.Address {
	name, ok := ctx.regs.AcquireAny()
	if !ok {
		ctx.fail("register pool exhausted")
	}
	return ir.Name(name)
}

func (ctx *Context) fixedReg(i int) ir.Address {
	name, ok := ctx.regs.Acquire(i)
	if !ok {
		ctx.fail("register %s is already in use", RegisterName(i))
	}
	return ir.Name(name)
}

func (ctx *Context) release(a ir.Address) {
	if a.IsName() {
		ctx.regs.Release(a.Name)
	}
}

// addInstr appends a quadruple. Operators spend both of their operands and
// stores spend the stored value
func (ctx *Context) addInstr(op ir.Op, src, tgt, dst ir.Address) {
	ctx.prog.Append(ir.Quad{Op: op, Src: src, Tgt: tgt, Dst: dst})
	switch {
	case op.IsArith():
		ctx.release(src)
		ctx.release(tgt)
	case op.IsStore():
		ctx.release(src)
	}
}

// codegenList generates n and every sibling after it
func (ctx *Context) codegenList(n *ast.Node) {
	for ; n != nil; n = n.Sibling {
		ctx.codegenNode(n)
	}
}

func (ctx *Context) codegenNode(n *ast.Node) {
	ctx.line = n.Line
	switch n.Kind {
	case ast.Declaration:
		ctx.codegenDecl(n)
	case ast.Statement:
		ctx.codegenStmt(n)
	case ast.Expression:
		// Expression statement: its value is dropped
		ctx.codegenExpr(n)
		ctx.release(ctx.current)
		ctx.current = ir.Empty
	}
}

func (ctx *Context) codegenDecl(n *ast.Node) {
	scope := ir.Name(n.Scope)
	switch n.Decl {
	case ast.DeclFunction:
		ctx.codegenFuncDecl(n)
	case ast.DeclParameter, ast.DeclVariable, ast.DeclArray:
		// A redeclared name keeps the storage of its first declaration
		key := allocKey{n.Scope, n.Name}
		if ctx.allocated[key] {
			return
		}
		ctx.allocated[key] = true
		if n.IsArray {
			ctx.addInstr(ir.OpAllocARRAY, scope, ir.Name(n.Name), ir.Const(n.Size))
		} else {
			ctx.addInstr(ir.OpAllocVAR, scope, ir.Name(n.Name), ir.Empty)
		}
	}
}

func (ctx *Context) codegenFuncDecl(n *ast.Node) {
	name, typ := ir.Name(n.Name), ir.Name(n.Type.String())
	ctx.regs.ReleaseAll()

	ctx.addInstr(ir.OpFunBGN, name, typ, ir.Empty)
	ctx.codegenList(n.Child[0])
	ctx.codegenList(n.Child[1])
	if ctx.implicitReturn && !endsWithReturn(n.Child[1]) {
		ctx.addInstr(ir.OpReturn, ir.Empty, ir.Empty, ir.Empty)
	}
	ctx.addInstr(ir.OpFunEND, name, typ, ir.Empty)
	if n.Name == "main" {
		ctx.addInstr(ir.OpHalt, ir.Empty, ir.Empty, ir.Empty)
	}

	ctx.regs.ReleaseAll()
}

func endsWithReturn(body *ast.Node) bool {
	if !body.IsStmt(ast.StmtCompound) {
		return body.IsStmt(ast.StmtReturn)
	}
	last := body.Child[1]
	if last == nil {
		return false
	}
	for last.Sibling != nil {
		last = last.Sibling
	}
	return endsWithReturn(last)
}

func (ctx *Context) codegenStmt(n *ast.Node) {
	switch n.Stmt {
	case ast.StmtAssign:
		ctx.codegenAssign(n)
	case ast.StmtCompound:
		ctx.codegenList(n.Child[0])
		ctx.codegenList(n.Child[1])
	case ast.StmtIf:
		ctx.codegenIf(n)
	case ast.StmtWhile:
		ctx.codegenWhile(n)
	case ast.StmtReturn:
		ctx.codegenReturn(n)
	}
}

// codegenExpr leaves the value of n in ctx.current
func (ctx *Context) codegenExpr(n *ast.Node) {
	if n == nil {
		ctx.current = ir.Empty
		return
	}
	ctx.line = n.Line
	switch n.Exp {
	case ast.ExpOperator:
		ctx.codegenBinaryOp(n)
	case ast.ExpConstant:
		ctx.current = ir.Const(n.Value)
	case ast.ExpIdentifier:
		ctx.codegenIdent(n)
	case ast.ExpCall:
		ctx.codegenFuncCall(n)
	}
}
