package sema

import (
	"github.com/arnm-lang/arnm/internal/ast"
	"github.com/arnm-lang/arnm/internal/symtab"
	"github.com/arnm-lang/arnm/internal/types"
)

func (a *Analyzer) checkBlock(n *ast.Node) {
	a.syms.Push()
	defer a.syms.Pop()
	for _, s := range n.Items {
		a.checkStmt(s)
	}
}

func (a *Analyzer) checkStmt(n *ast.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.LetStmt:
		var t *types.Type
		if n.X != nil {
			t = a.inferExpr(n.X)
		} else {
			t = a.arena.NewVar()
		}
		if n.RetType != nil {
			annotated := a.resolveTypeAnnotation(n.RetType)
			types.Unify(annotated, t)
			t = annotated
		}
		if _, dup := a.syms.LookupCurrent(n.Name); dup {
			a.errorf(n.Span, "duplicate definition of %q", n.Name)
		}
		a.syms.Define(n.Name, &symtab.Symbol{Name: n.Name, Type: t, Mutable: n.Mutable})
		n.ResolvedType = t
	case ast.ExprStmt:
		a.inferExpr(n.X)
	case ast.ReturnStmt:
		var t *types.Type = types.UnitT
		if n.X != nil {
			t = a.inferExpr(n.X)
		}
		if a.expectRet != nil {
			types.Unify(a.expectRet, t)
		}
	case ast.IfStmt:
		cond := a.inferExpr(n.Cond)
		types.Unify(cond, types.BoolT)
		a.checkBlock(n.Body)
		if n.Else != nil {
			if n.Else.Kind == ast.IfStmt {
				a.checkStmt(n.Else)
			} else {
				a.checkBlock(n.Else)
			}
		}
	case ast.WhileStmt:
		cond := a.inferExpr(n.Cond)
		types.Unify(cond, types.BoolT)
		prev := a.inLoop
		a.inLoop = true
		a.checkBlock(n.Body)
		a.inLoop = prev
	case ast.ForStmt:
		iter := a.inferExpr(n.Cond)
		elem := a.arena.NewVar()
		arr := a.arena.NewArray(elem)
		types.Unify(iter, arr)
		a.syms.Push()
		a.syms.Define(n.Name, &symtab.Symbol{Name: n.Name, Type: elem})
		prev := a.inLoop
		a.inLoop = true
		for _, s := range n.Body.Items {
			a.checkStmt(s)
		}
		a.inLoop = prev
		a.syms.Pop()
	case ast.LoopStmt:
		prev := a.inLoop
		a.inLoop = true
		a.checkBlock(n.Body)
		a.inLoop = prev
	case ast.BreakStmt, ast.ContinueStmt:
		if !a.inLoop {
			a.errorf(n.Span, "break/continue outside loop")
		}
	case ast.SpawnStmt:
		a.inferExpr(n.X)
	case ast.ReceiveStmt:
		for _, arm := range n.Items {
			a.syms.Push()
			if arm.Pattern != nil && arm.Pattern.Kind == ast.IdentExpr {
				a.syms.Define(arm.Pattern.Name, &symtab.Symbol{Name: arm.Pattern.Name, Type: a.arena.NewVar()})
			}
			a.checkBlock(arm.Body)
			a.syms.Pop()
		}
	case ast.BlockStmt:
		a.checkBlock(n)
	}
}

// inferExpr computes and caches (n.ResolvedType) the type of an
// expression per spec §4.5's expression-inference rules.
func (a *Analyzer) inferExpr(n *ast.Node) *types.Type {
	if n == nil {
		return types.UnitT
	}
	t := a.inferExprRaw(n)
	n.ResolvedType = t
	return t
}

func (a *Analyzer) inferExprRaw(n *ast.Node) *types.Type {
	switch n.Kind {
	case ast.IntLit:
		return types.I32T
	case ast.FloatLit:
		return types.F64T
	case ast.StringLit:
		return types.StringT
	case ast.CharLit:
		return types.CharT
	case ast.BoolLit:
		return types.BoolT
	case ast.NilLit:
		return types.UnitT
	case ast.SelfExpr:
		if !a.inActor {
			a.errorf(n.Span, "'self' used outside an actor")
			return types.ErrorT
		}
		return a.curActor
	case ast.IdentExpr:
		if a.inActor && fieldNamed(a.curActor, n.Name) {
			a.errorf(n.Span, "actor field access requires 'self.' prefix")
			return types.ErrorT
		}
		if sym, ok := a.syms.Lookup(n.Name); ok {
			return sym.Type
		}
		a.errorf(n.Span, "undefined identifier %q", n.Name)
		return types.ErrorT
	case ast.GroupExpr:
		return a.inferExpr(n.X)
	case ast.UnaryExpr:
		operand := a.inferExpr(n.X)
		if n.Name == "!" {
			types.Unify(operand, types.BoolT)
			return types.BoolT
		}
		return operand
	case ast.BinaryExpr:
		return a.inferBinary(n)
	case ast.AssignExpr:
		return a.inferAssign(n)
	case ast.SendExpr:
		target := a.inferExpr(n.X)
		a.inferExpr(n.Y)
		if target.Kind != types.Process && target.Kind != types.Var && target.Kind != types.Error {
			a.errorf(n.Span, "message send target must be a process")
		}
		return types.UnitT
	case ast.SpawnExpr:
		return a.inferSpawn(n)
	case ast.CallExpr:
		return a.inferCall(n)
	case ast.FieldExpr:
		return a.inferField(n)
	case ast.IndexExpr:
		base := a.inferExpr(n.X)
		a.inferExpr(n.Y)
		rb := types.Resolve(base)
		if rb.Kind == types.Array {
			return rb.Elem
		}
		return a.arena.NewVar()
	}
	return types.ErrorT
}

func fieldNamed(actor *types.Type, name string) bool {
	if actor == nil {
		return false
	}
	for _, f := range actor.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func (a *Analyzer) inferBinary(n *ast.Node) *types.Type {
	lhs := a.inferExpr(n.X)
	rhs := a.inferExpr(n.Y)
	switch n.Name {
	case "==", "!=", "<", "<=", ">", ">=":
		types.Unify(lhs, rhs)
		return types.BoolT
	case "&&", "||":
		types.Unify(lhs, types.BoolT)
		types.Unify(rhs, types.BoolT)
		return types.BoolT
	default: // + - * / %
		types.Unify(lhs, rhs)
		return lhs
	}
}

func (a *Analyzer) inferAssign(n *ast.Node) *types.Type {
	value := a.inferExpr(n.Y)
	switch n.X.Kind {
	case ast.IdentExpr:
		if sym, ok := a.syms.Lookup(n.X.Name); ok {
			if !sym.Mutable {
				a.errorf(n.Span, "cannot assign to immutable %q", n.X.Name)
			}
			types.Unify(sym.Type, value)
		} else {
			a.errorf(n.X.Span, "undefined identifier %q", n.X.Name)
		}
	case ast.FieldExpr:
		a.inferExpr(n.X)
	case ast.IndexExpr:
		a.inferExpr(n.X)
	default:
		a.errorf(n.X.Span, "invalid assignment target")
	}
	return types.UnitT
}

func (a *Analyzer) inferSpawn(n *ast.Node) *types.Type {
	a.inferCallee(n.X)
	return a.arena.NewProcess(nil)
}

// inferCallee handles the callee position for both CallExpr and
// SpawnExpr without duplicating the constructor/fn/free-var logic.
func (a *Analyzer) inferCallee(callee *ast.Node) *types.Type {
	return a.inferExpr(callee)
}

func (a *Analyzer) inferCall(n *ast.Node) *types.Type {
	calleeType := a.inferCallee(n.X)
	r := types.Resolve(calleeType)
	switch r.Kind {
	case types.Actor:
		initSym, hasInit := a.syms.Lookup(r.Name + "_init")
		if hasInit {
			fn := types.Resolve(initSym.Type)
			a.checkArgs(n, fn)
		} else if len(n.Items) != 0 {
			a.errorf(n.Span, "%s takes no arguments (no init method)", r.Name)
		}
		return a.arena.NewProcess(r)
	case types.Fn:
		a.checkArgs(n, r)
		return r.Return
	case types.Var:
		params := make([]*types.Type, len(n.Items))
		for i, arg := range n.Items {
			params[i] = a.inferExpr(arg)
		}
		ret := a.arena.NewVar()
		types.Unify(r, a.arena.NewFn(params, ret))
		return ret
	default:
		a.errorf(n.Span, "cannot call non-function value")
		for _, arg := range n.Items {
			a.inferExpr(arg)
		}
		return types.ErrorT
	}
}

func (a *Analyzer) checkArgs(call *ast.Node, fn *types.Type) {
	if len(call.Items) != len(fn.Params) {
		a.errorf(call.Span, "argument count mismatch: expected %d, got %d", len(fn.Params), len(call.Items))
	}
	for i, arg := range call.Items {
		at := a.inferExpr(arg)
		if i < len(fn.Params) {
			types.Unify(fn.Params[i], at)
		}
	}
}

func (a *Analyzer) inferField(n *ast.Node) *types.Type {
	base := a.inferExpr(n.X)
	r := types.Resolve(base)
	switch r.Kind {
	case types.Actor:
		for _, f := range r.Fields {
			if f.Name == n.Name {
				return f.Type
			}
		}
		if sym, ok := a.syms.Lookup(r.Name + "_" + n.Name); ok {
			return sym.Type
		}
		a.errorf(n.Span, "actor %s has no field or method %q", r.Name, n.Name)
		return types.ErrorT
	case types.Struct:
		for _, f := range r.Fields {
			if f.Name == n.Name {
				return f.Type
			}
		}
		a.errorf(n.Span, "struct %s has no field %q", r.Name, n.Name)
		return types.ErrorT
	default:
		return a.arena.NewVar()
	}
}
