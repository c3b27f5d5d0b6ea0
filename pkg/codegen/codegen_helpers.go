package codegen

import (
	"github.com/xplshn/cminus/pkg/ast"
	"github.com/xplshn/cminus/pkg/ir"
	"github.com/xplshn/cminus/pkg/token"
)

var binaryOps = map[token.Type]ir.Op{
	token.Plus: ir.OpAdd, token.Minus: ir.OpSub, token.Star: ir.OpMul, token.Slash: ir.OpDiv,
	token.Or: ir.OpOr, token.And: ir.OpAnd, token.Shl: ir.OpLshift, token.Shr: ir.OpRshift,
	token.Gt: ir.OpSGT, token.Lt: ir.OpSLT, token.Gte: ir.OpSGET, token.Lte: ir.OpSLET,
	token.EqEq: ir.OpSET, token.Neq: ir.OpSDT,
}

func (ctx *Context) codegenBinaryOp(n *ast.Node) {
	op, ok := binaryOps[n.Op]
	if !ok {
		ctx.fail("unsupported operator '%s'", n.Op)
	}

	// A call operand goes first so fewer temporaries are live across it
	var left, right ir.Address
	if !n.Child[0].IsExp(ast.ExpCall) && n.Child[1].IsExp(ast.ExpCall) {
		ctx.codegenExpr(n.Child[1])
		right = ctx.current
		ctx.codegenExpr(n.Child[0])
		left = ctx.current
	} else {
		ctx.codegenExpr(n.Child[0])
		left = ctx.current
		ctx.codegenExpr(n.Child[1])
		right = ctx.current
	}

	ctx.current = ctx.newReg()
	ctx.addInstr(op, left, right, ctx.current)
}

// codegenElementAddr loads the base of array n and adds the index to it,
// returning the register that holds the element address
func (ctx *Context) codegenElementAddr(n *ast.Node) ir.Address {
	base := ctx.newReg()
	ctx.addInstr(ir.OpLoadVAR, ir.Name(n.Scope), ir.Name(n.Name), base)

	ctx.codegenExpr(n.Child[0])
	addr := ctx.newReg()
	ctx.addInstr(ir.OpAdd, base, ctx.current, addr)
	return addr
}

func (ctx *Context) codegenIdent(n *ast.Node) {
	if !n.IsArray {
		ctx.current = ctx.newReg()
		ctx.addInstr(ir.OpLoadVAR, ir.Name(n.Scope), ir.Name(n.Name), ctx.current)
		return
	}

	addr := ctx.codegenElementAddr(n)
	ctx.current = ctx.newReg()
	ctx.addInstr(ir.OpLoadARRAY, ir.Name(n.Scope), addr, ctx.current)
	ctx.release(addr)
}

func (ctx *Context) codegenAssign(n *ast.Node) {
	lhs := n.Child[0]
	ctx.codegenExpr(n.Child[1])
	value := ctx.current
	if lhs == nil {
		ctx.release(value)
		return
	}

	if lhs.IsArray {
		addr := ctx.codegenElementAddr(lhs)
		ctx.addInstr(ir.OpStoreARRAY, value, ir.Name(lhs.Scope), addr)
		ctx.release(addr)
	} else {
		ctx.addInstr(ir.OpStoreVAR, value, ir.Name(lhs.Scope), ir.Name(lhs.Name))
	}
	ctx.current = ir.Empty
}

// codegenFuncCall passes every argument with Param, then saves the registers
// that were live before the call with Push and restores them with Pop
func (ctx *Context) codegenFuncCall(n *ast.Node) {
	conv := ConventionFor(n.Name)
	live := ctx.regs.Live()

	var args []ir.Address
	for arg := n.Child[0]; arg != nil; arg = arg.Sibling {
		ctx.codegenExpr(arg)
		val := ctx.current
		if !val.IsName() {
			reg := ctx.newReg()
			ctx.addInstr(ir.OpMove, val, reg, ir.Empty)
			val = reg
		}
		ctx.addInstr(ir.OpParam, val, ir.Empty, ir.Empty)
		args = append(args, val)
	}
	ctx.line = n.Line

	if !conv.NoSpill {
		for _, r := range live {
			ctx.addInstr(ir.OpPush, ir.Name(RegisterName(r)), ir.Empty, ir.Empty)
		}
	}
	ctx.addInstr(ir.OpCall, ir.Name(n.Name), ir.Const(len(args)), ir.Empty)
	if !conv.NoSpill {
		for i := len(live) - 1; i >= 0; i-- {
			ctx.addInstr(ir.OpPop, ir.Name(RegisterName(live[i])), ir.Empty, ir.Empty)
		}
	}
	for _, a := range args {
		ctx.release(a)
	}

	if n.Type == ast.Void {
		ctx.current = ir.Empty
		return
	}
	ret := ctx.fixedReg(conv.Return)
	ctx.current = ctx.newReg()
	ctx.addInstr(ir.OpMove, ret, ctx.current, ir.Empty)
	ctx.release(ret)
}

func (ctx *Context) codegenReturn(n *ast.Node) {
	if n.Child[0] == nil {
		ctx.addInstr(ir.OpReturn, ir.Empty, ir.Empty, ir.Empty)
		return
	}
	ctx.codegenExpr(n.Child[0])
	ret := ctx.fixedReg(ReturnRegister)
	ctx.addInstr(ir.OpMove, ctx.current, ret, ir.Empty)
	ctx.addInstr(ir.OpReturn, ret, ir.Empty, ir.Empty)
	ctx.release(ctx.current)
	ctx.release(ret)
	ctx.current = ir.Empty
}

// codegenCond evaluates a branch condition and jumps to falseL when it is zero
func (ctx *Context) codegenCond(cond *ast.Node, falseL ir.Address) {
	ctx.codegenExpr(cond)
	ctx.addInstr(ir.OpIFfalse, ctx.current, falseL, ir.Empty)
	ctx.release(ctx.current)
	ctx.current = ir.Empty
}

func (ctx *Context) codegenIf(n *ast.Node) {
	elseL := ctx.newLabel()
	ctx.codegenCond(n.Child[0], elseL)
	ctx.codegenList(n.Child[1])

	if n.Child[2] == nil {
		ctx.addInstr(ir.OpLabel, elseL, ir.Empty, ir.Empty)
		return
	}
	endL := ctx.newLabel()
	ctx.addInstr(ir.OpJump, endL, ir.Empty, ir.Empty)
	ctx.addInstr(ir.OpLabel, elseL, ir.Empty, ir.Empty)
	ctx.codegenList(n.Child[2])
	ctx.addInstr(ir.OpLabel, endL, ir.Empty, ir.Empty)
}

func (ctx *Context) codegenWhile(n *ast.Node) {
	startL, endL := ctx.newLabel(), ctx.newLabel()
	ctx.addInstr(ir.OpLabel, startL, ir.Empty, ir.Empty)
	ctx.codegenCond(n.Child[0], endL)
	ctx.codegenList(n.Child[1])
	ctx.addInstr(ir.OpJump, startL, ir.Empty, ir.Empty)
	ctx.addInstr(ir.OpLabel, endL, ir.Empty, ir.Empty)
}
