// Package irgen lowers a checked AST into ir.Module (spec §4.6, C9):
// one IR function per top-level function and per actor method (mangled
// "<Actor>_<method>"), with synthesized "<Actor>_behavior" loops,
// actor-primitive lowering for spawn/send/receive/self, and structured
// control flow for if/while/for/loop/break/continue. Grounded in the
// teacher's statement-by-statement lowering dispatch
// (std/compiler/backend_ir.go), generalized from the teacher's flat
// instruction-append-to-current-function model to block-aware lowering
// (the teacher never branches; every teacher function is straight-line
// code run through a simple stack VM).
package irgen

import (
	"strconv"

	"github.com/arnm-lang/arnm/internal/ast"
	"github.com/arnm-lang/arnm/internal/ir"
	"github.com/arnm-lang/arnm/internal/types"
)

const wordSize = 8

// slot records a let-bound or parameter local: the alloca'd pointer
// value and the element type stored there.
type slot struct {
	ptr  ir.Value
	elem *types.Type
}

type loopFrame struct {
	condOrExit *ir.Block // continue target
	exit       *ir.Block // break target
}

// Generator lowers one Program into a Module.
type Generator struct {
	module *ir.Module

	fn      *ir.Func
	block   *ir.Block
	locals  map[string]slot
	loops   []loopFrame

	// actorFields maps actor name -> field name -> index, used by
	// self.field lowering (field_ptr index) and by spawn's state-size
	// computation.
	actorFields map[string]map[string]int
	actorOrder  map[string][]string
}

// New creates an empty Generator.
func New() *Generator {
	return &Generator{
		module:      ir.NewModule(),
		actorFields: make(map[string]map[string]int),
		actorOrder:  make(map[string][]string),
	}
}

// Module returns the module built so far.
func (g *Generator) Module() *ir.Module { return g.module }

// Lower lowers a fully checked Program.
func (g *Generator) Lower(prog *ast.Node) {
	for _, decl := range prog.Items {
		if decl.Kind == ast.ActorDecl {
			g.recordActorFields(decl)
		}
	}
	for _, decl := range prog.Items {
		switch decl.Kind {
		case ast.FuncDecl:
			g.lowerFunc(decl, "", decl.Name)
		case ast.ActorDecl:
			g.lowerActor(decl)
		}
	}
}

func (g *Generator) recordActorFields(decl *ast.Node) {
	fields := make(map[string]int)
	var order []string
	for _, item := range decl.Items {
		if item.Kind == ast.FieldDecl {
			fields[item.Name] = len(order)
			order = append(order, item.Name)
		}
	}
	g.actorFields[decl.Name] = fields
	g.actorOrder[decl.Name] = order
}

func (g *Generator) lowerActor(decl *ast.Node) {
	var receiveStmt *ast.Node
	hasInit := false
	for _, item := range decl.Items {
		switch item.Kind {
		case ast.FuncDecl:
			g.lowerFunc(item, decl.Name+"_", item.Name)
			if item.Name == "init" {
				hasInit = true
			}
		case ast.ReceiveStmt:
			receiveStmt = item
		}
	}
	// Every actor needs an entry point for arnm_spawn (spec §4.8) even
	// when it declares no explicit init method; synthesize a trivial
	// one so Worker_behavior still gets tail-called below.
	if !hasInit {
		g.lowerDefaultInit(decl.Name)
	}
	if receiveStmt != nil {
		g.lowerBehavior(decl.Name, receiveStmt)
		g.appendBehaviorTailCall(decl.Name)
	}
}

// lowerDefaultInit synthesizes a no-op "<Actor>_init" for actors that
// declare no explicit init method: fields are already zeroed by the
// runtime's actor-state allocation (runtime/process.go's newProcess).
func (g *Generator) lowerDefaultInit(actorName string) {
	f := ir.NewFunc(actorName+"_init", nil, types.UnitT)
	g.fn = f
	g.locals = make(map[string]slot)
	g.loops = nil
	g.block = f.NewBlock("entry")
	g.emit(ir.Inst{Op: ir.OpRet})
	g.module.AddFunc(f)
}

// lowerBehavior synthesizes "<Actor>_behavior": an infinite loop whose
// body is the receive statement's lowering (spec §4.6).
func (g *Generator) lowerBehavior(actorName string, recv *ast.Node) {
	name := actorName + "_behavior"
	f := ir.NewFunc(name, nil, types.UnitT)
	g.fn = f
	g.locals = make(map[string]slot)
	g.loops = nil

	loop := f.NewBlock("loop")
	exit := f.NewBlock("exit")
	g.jmpTo(loop)
	g.block = loop
	g.loops = append(g.loops, loopFrame{condOrExit: loop, exit: exit})
	g.lowerReceive(recv)
	g.jmpTo(loop)
	g.loops = g.loops[:len(g.loops)-1]
	g.block = exit
	g.emit(ir.Inst{Op: ir.OpRet})
	g.module.AddFunc(f)
}

// appendBehaviorTailCall makes "<Actor>_init" (if present) call
// "<Actor>_behavior" before its final ret, per spec §4.6.
func (g *Generator) appendBehaviorTailCall(actorName string) {
	initFn := g.module.Lookup(actorName + "_init")
	if initFn == nil {
		return
	}
	for _, b := range initFn.Blocks {
		for i, inst := range b.Insts {
			if inst.Op == ir.OpRet {
				call := ir.Inst{Op: ir.OpCall, Callee: actorName + "_behavior"}
				b.Insts = append(b.Insts[:i], append([]ir.Inst{call}, b.Insts[i:]...)...)
				return
			}
		}
	}
}

func (g *Generator) lowerFunc(decl *ast.Node, mangledPrefix, plainName string) {
	rt := decl.ResolvedType
	var paramTypes []*types.Type
	var retType *types.Type = types.UnitT
	if rt != nil {
		r := types.Resolve(rt)
		paramTypes = r.Params
		if r.Return != nil {
			retType = r.Return
		}
	}
	name := mangledPrefix + plainName
	f := ir.NewFunc(name, paramTypes, retType)
	g.fn = f
	g.locals = make(map[string]slot)
	g.loops = nil

	entry := f.NewBlock("entry")
	g.block = entry
	for i, p := range decl.Params {
		pt := paramTypes[i]
		ptr := f.NewValue(pt)
		g.emit(ir.Inst{Op: ir.OpAlloca, Result: ptr})
		g.emit(ir.Inst{Op: ir.OpStore, A: ptr, B: f.ParamValue(i)})
		g.locals[p.Name] = slot{ptr: ptr, elem: pt}
	}

	g.lowerBlock(decl.Body)
	if !blockTerminated(g.block) {
		g.emit(ir.Inst{Op: ir.OpRet})
	}
	g.module.AddFunc(f)
}

func blockTerminated(b *ir.Block) bool {
	if len(b.Insts) == 0 {
		return false
	}
	switch b.Insts[len(b.Insts)-1].Op {
	case ir.OpRet, ir.OpJmp, ir.OpBr:
		return true
	}
	return false
}

func (g *Generator) emit(i ir.Inst) { g.block.Insts = append(g.block.Insts, i) }

func (g *Generator) jmpTo(b *ir.Block) {
	if !blockTerminated(g.block) {
		g.emit(ir.Inst{Op: ir.OpJmp, Then: b.ID, Else: -1})
	}
}

func (g *Generator) lowerBlock(n *ast.Node) {
	for _, s := range n.Items {
		g.lowerStmt(s)
	}
}

func (g *Generator) lowerStmt(n *ast.Node) {
	switch n.Kind {
	case ast.LetStmt:
		var val ir.Value
		t := n.ResolvedType
		if n.X != nil {
			val = g.lowerExpr(n.X)
		} else {
			val = ir.Undef(t)
		}
		ptr := g.fn.NewValue(t)
		g.emit(ir.Inst{Op: ir.OpAlloca, Result: ptr})
		g.emit(ir.Inst{Op: ir.OpStore, A: ptr, B: val})
		g.locals[n.Name] = slot{ptr: ptr, elem: t}
	case ast.ExprStmt:
		g.lowerExpr(n.X)
	case ast.ReturnStmt:
		if n.X != nil {
			v := g.lowerExpr(n.X)
			g.emit(ir.Inst{Op: ir.OpRet, A: v})
		} else {
			g.emit(ir.Inst{Op: ir.OpRet})
		}
	case ast.IfStmt:
		g.lowerIf(n)
	case ast.WhileStmt:
		g.lowerWhile(n)
	case ast.ForStmt:
		g.lowerFor(n)
	case ast.LoopStmt:
		g.lowerLoop(n)
	case ast.BreakStmt:
		if len(g.loops) > 0 {
			g.jmpTo(g.loops[len(g.loops)-1].exit)
		}
	case ast.ContinueStmt:
		if len(g.loops) > 0 {
			g.jmpTo(g.loops[len(g.loops)-1].condOrExit)
		}
	case ast.SpawnStmt:
		g.lowerExpr(n.X)
	case ast.ReceiveStmt:
		g.lowerReceive(n)
	case ast.BlockStmt:
		g.lowerBlock(n)
	}
}

func (g *Generator) lowerIf(n *ast.Node) {
	cond := g.lowerExpr(n.Cond)
	thenB := g.fn.NewBlock("then")
	var elseB *ir.Block
	merge := g.fn.NewBlock("merge")
	if n.Else != nil {
		elseB = g.fn.NewBlock("else")
	} else {
		elseB = merge
	}
	g.emit(ir.Inst{Op: ir.OpBr, A: cond, Then: thenB.ID, Else: elseB.ID})

	g.block = thenB
	g.lowerBlock(n.Body)
	g.jmpTo(merge)

	if n.Else != nil {
		g.block = elseB
		if n.Else.Kind == ast.IfStmt {
			g.lowerStmt(n.Else)
		} else {
			g.lowerBlock(n.Else)
		}
		g.jmpTo(merge)
	}
	g.block = merge
}

func (g *Generator) lowerWhile(n *ast.Node) {
	cond := g.fn.NewBlock("cond")
	body := g.fn.NewBlock("body")
	exit := g.fn.NewBlock("exit")
	g.jmpTo(cond)

	g.block = cond
	c := g.lowerExpr(n.Cond)
	g.emit(ir.Inst{Op: ir.OpBr, A: c, Then: body.ID, Else: exit.ID})

	g.block = body
	g.loops = append(g.loops, loopFrame{condOrExit: cond, exit: exit})
	g.lowerBlock(n.Body)
	g.loops = g.loops[:len(g.loops)-1]
	g.jmpTo(cond)

	g.block = exit
}

func (g *Generator) lowerFor(n *ast.Node) {
	// Desugar `for x in arr { body }` into index-based iteration over
	// the array's backing storage, reusing the while-loop shape.
	iter := g.lowerExpr(n.Cond)
	idxPtr := g.fn.NewValue(types.I32T)
	g.emit(ir.Inst{Op: ir.OpAlloca, Result: idxPtr})
	g.emit(ir.Inst{Op: ir.OpStore, A: idxPtr, B: ir.ConstInt(0, types.I32T)})

	cond := g.fn.NewBlock("for_cond")
	body := g.fn.NewBlock("for_body")
	exit := g.fn.NewBlock("for_exit")
	g.jmpTo(cond)

	g.block = cond
	idxVal := g.fn.NewValue(types.I32T)
	g.emit(ir.Inst{Op: ir.OpLoad, Result: idxVal, A: idxPtr})
	lenVal := g.fn.NewValue(types.I32T)
	g.emit(ir.Inst{Op: ir.OpCall, Result: lenVal, Callee: "arnm_array_len", Args: []ir.Value{iter}})
	cmp := g.fn.NewValue(types.BoolT)
	g.emit(ir.Inst{Op: ir.OpLt, Result: cmp, A: idxVal, B: lenVal})
	g.emit(ir.Inst{Op: ir.OpBr, A: cmp, Then: body.ID, Else: exit.ID})

	g.block = body
	elemPtr := g.fn.NewValue(n.ResolvedType)
	g.emit(ir.Inst{Op: ir.OpFieldPtr, Result: elemPtr, A: iter, B: idxVal})
	elemPtr2 := g.fn.NewValue(elemPtr.Type)
	g.emit(ir.Inst{Op: ir.OpAlloca, Result: elemPtr2})
	loaded := g.fn.NewValue(elemPtr.Type)
	g.emit(ir.Inst{Op: ir.OpLoad, Result: loaded, A: elemPtr})
	g.emit(ir.Inst{Op: ir.OpStore, A: elemPtr2, B: loaded})
	g.locals[n.Name] = slot{ptr: elemPtr2, elem: elemPtr.Type}

	g.loops = append(g.loops, loopFrame{condOrExit: cond, exit: exit})
	g.lowerBlock(n.Body)
	g.loops = g.loops[:len(g.loops)-1]

	next := g.fn.NewValue(types.I32T)
	g.emit(ir.Inst{Op: ir.OpAdd, Result: next, A: idxVal, B: ir.ConstInt(1, types.I32T)})
	g.emit(ir.Inst{Op: ir.OpStore, A: idxPtr, B: next})
	g.jmpTo(cond)

	g.block = exit
}

func (g *Generator) lowerLoop(n *ast.Node) {
	body := g.fn.NewBlock("loop")
	exit := g.fn.NewBlock("loop_exit")
	g.jmpTo(body)
	g.block = body
	g.loops = append(g.loops, loopFrame{condOrExit: body, exit: exit})
	g.lowerBlock(n.Body)
	g.loops = g.loops[:len(g.loops)-1]
	g.jmpTo(body)
	g.block = exit
}

// lowerReceive implements spec §4.6: call arnm_receive, load the tag
// from offset 0, and dispatch. The open question on multi-arm
// semantics is resolved per §9: dispatch by integer-literal equality on
// the tag, with a single identifier arm serving as the catch-all
// (tried last, after every integer-literal arm has been tested).
func (g *Generator) lowerReceive(n *ast.Node) {
	msgPtr := g.fn.NewValue(types.I64T)
	g.emit(ir.Inst{Op: ir.OpReceive, Result: msgPtr})
	tagPtr := g.fn.NewValue(types.I64T)
	g.emit(ir.Inst{Op: ir.OpFieldPtr, Result: tagPtr, A: msgPtr, B: ir.ConstInt(0, types.I32T)})
	tag := g.fn.NewValue(types.I32T)
	g.emit(ir.Inst{Op: ir.OpLoad, Result: tag, A: tagPtr})

	var intArms, identArms []*ast.Node
	for _, arm := range n.Items {
		if arm.Pattern != nil && arm.Pattern.Kind == ast.IntLit {
			intArms = append(intArms, arm)
		} else {
			identArms = append(identArms, arm)
		}
	}

	merge := g.fn.NewBlock("recv_merge")
	for _, arm := range intArms {
		val, _ := strconv.ParseInt(arm.Pattern.Name, 0, 64)
		eq := g.fn.NewValue(types.BoolT)
		g.emit(ir.Inst{Op: ir.OpEq, Result: eq, A: tag, B: ir.ConstInt(val, types.I32T)})
		matchB := g.fn.NewBlock("recv_arm")
		nextB := g.fn.NewBlock("recv_next")
		g.emit(ir.Inst{Op: ir.OpBr, A: eq, Then: matchB.ID, Else: nextB.ID})
		g.block = matchB
		g.lowerBlock(arm.Body)
		g.jmpTo(merge)
		g.block = nextB
	}
	if len(identArms) > 0 {
		arm := identArms[0]
		if arm.Pattern != nil {
			payloadPtr := g.fn.NewValue(types.I32T)
			g.emit(ir.Inst{Op: ir.OpAlloca, Result: payloadPtr})
			g.emit(ir.Inst{Op: ir.OpStore, A: payloadPtr, B: tag})
			g.locals[arm.Pattern.Name] = slot{ptr: payloadPtr, elem: types.I32T}
		}
		g.lowerBlock(arm.Body)
	}
	g.jmpTo(merge)
	g.block = merge
}

func (g *Generator) lowerExpr(n *ast.Node) ir.Value {
	switch n.Kind {
	case ast.IntLit:
		v, _ := strconv.ParseInt(n.Name, 0, 64)
		return ir.ConstInt(v, types.I32T)
	case ast.FloatLit:
		return ir.Value{Kind: ir.ValConstFloat, Type: types.F64T}
	case ast.BoolLit:
		return ir.ConstBool(n.Name == "true", types.BoolT)
	case ast.StringLit, ast.CharLit:
		return ir.Global(n.Name, n.ResolvedType)
	case ast.NilLit:
		return ir.Undef(types.UnitT)
	case ast.GroupExpr:
		return g.lowerExpr(n.X)
	case ast.IdentExpr:
		if s, ok := g.locals[n.Name]; ok {
			res := g.fn.NewValue(s.elem)
			g.emit(ir.Inst{Op: ir.OpLoad, Result: res, A: s.ptr})
			return res
		}
		return ir.Global(n.Name, n.ResolvedType)
	case ast.SelfExpr:
		res := g.fn.NewValue(n.ResolvedType)
		g.emit(ir.Inst{Op: ir.OpSelf, Result: res})
		return res
	case ast.UnaryExpr:
		return g.lowerUnary(n)
	case ast.BinaryExpr:
		return g.lowerBinary(n)
	case ast.AssignExpr:
		return g.lowerAssign(n)
	case ast.SendExpr:
		return g.lowerSend(n)
	case ast.SpawnExpr:
		return g.lowerSpawn(n)
	case ast.CallExpr:
		return g.lowerCall(n)
	case ast.FieldExpr:
		return g.lowerFieldRead(n)
	case ast.IndexExpr:
		base := g.lowerExpr(n.X)
		idx := g.lowerExpr(n.Y)
		ptr := g.fn.NewValue(n.ResolvedType)
		g.emit(ir.Inst{Op: ir.OpFieldPtr, Result: ptr, A: base, B: idx})
		res := g.fn.NewValue(n.ResolvedType)
		g.emit(ir.Inst{Op: ir.OpLoad, Result: res, A: ptr})
		return res
	}
	return ir.Undef(types.ErrorT)
}

func (g *Generator) lowerUnary(n *ast.Node) ir.Value {
	x := g.lowerExpr(n.X)
	switch n.Name {
	case "-":
		res := g.fn.NewValue(x.Type)
		g.emit(ir.Inst{Op: ir.OpSub, Result: res, A: ir.ConstInt(0, x.Type), B: x})
		return res
	case "!":
		res := g.fn.NewValue(types.BoolT)
		g.emit(ir.Inst{Op: ir.OpEq, Result: res, A: x, B: ir.ConstBool(false, types.BoolT)})
		return res
	default: // ~
		res := g.fn.NewValue(x.Type)
		g.emit(ir.Inst{Op: ir.OpSub, Result: res, A: ir.ConstInt(-1, x.Type), B: x})
		return res
	}
}

var binOp = map[string]ir.Op{
	"+": ir.OpAdd, "-": ir.OpSub, "*": ir.OpMul, "/": ir.OpDiv, "%": ir.OpMod,
	"==": ir.OpEq, "!=": ir.OpNe, "<": ir.OpLt, "<=": ir.OpLe, ">": ir.OpGt, ">=": ir.OpGe,
	"&&": ir.OpAnd, "||": ir.OpOr,
}

func (g *Generator) lowerBinary(n *ast.Node) ir.Value {
	lhs := g.lowerExpr(n.X)
	rhs := g.lowerExpr(n.Y)
	op := binOp[n.Name]
	t := n.ResolvedType
	res := g.fn.NewValue(t)
	g.emit(ir.Inst{Op: op, Result: res, A: lhs, B: rhs})
	return res
}

func (g *Generator) lowerAssign(n *ast.Node) ir.Value {
	val := g.lowerExpr(n.Y)
	switch n.X.Kind {
	case ast.IdentExpr:
		if s, ok := g.locals[n.X.Name]; ok {
			g.emit(ir.Inst{Op: ir.OpStore, A: s.ptr, B: val})
		}
	case ast.FieldExpr:
		ptr := g.fieldPtr(n.X)
		g.emit(ir.Inst{Op: ir.OpStore, A: ptr, B: val})
	case ast.IndexExpr:
		base := g.lowerExpr(n.X.X)
		idx := g.lowerExpr(n.X.Y)
		ptr := g.fn.NewValue(n.X.ResolvedType)
		g.emit(ir.Inst{Op: ir.OpFieldPtr, Result: ptr, A: base, B: idx})
		g.emit(ir.Inst{Op: ir.OpStore, A: ptr, B: val})
	}
	return ir.Undef(types.UnitT)
}

// fieldPtr lowers `self.field` or `actor.field` into a field_ptr off
// the actor state pointer, per spec §4.6's assignment-to-self.field rule.
func (g *Generator) fieldPtr(n *ast.Node) ir.Value {
	base := g.lowerExpr(n.X)
	idx := 0
	actorName := ""
	if n.X.ResolvedType != nil {
		r := types.Resolve(n.X.ResolvedType)
		actorName = r.Name
	}
	if fields, ok := g.actorFields[actorName]; ok {
		idx = fields[n.Name]
	}
	ptr := g.fn.NewValue(n.ResolvedType)
	g.emit(ir.Inst{Op: ir.OpFieldPtr, Result: ptr, A: base, B: ir.ConstInt(int64(idx), types.I32T)})
	return ptr
}

func (g *Generator) lowerFieldRead(n *ast.Node) ir.Value {
	ptr := g.fieldPtr(n)
	res := g.fn.NewValue(n.ResolvedType)
	g.emit(ir.Inst{Op: ir.OpLoad, Result: res, A: ptr})
	return res
}

// lowerSend implements `target ! message` (spec §4.6): integer
// messages pass via tag=value, data=null, size=0 in MVP.
func (g *Generator) lowerSend(n *ast.Node) ir.Value {
	target := g.lowerExpr(n.X)
	msg := g.lowerExpr(n.Y)
	g.emit(ir.Inst{Op: ir.OpSend, A: target, B: msg})
	return ir.Undef(types.UnitT)
}

// lowerSpawn implements `spawn Foo()` / `spawn Foo.init(args...)`
// (spec §4.6): the entry function pointer is the constructor's global
// symbol, state size is field count * word size.
func (g *Generator) lowerSpawn(n *ast.Node) ir.Value {
	return g.emitSpawnCall(n.X, n.ResolvedType)
}

func (g *Generator) emitSpawnCall(callee *ast.Node, resultType *types.Type) ir.Value {
	var entry string
	var stateSize int64
	var args []ir.Value
	switch callee.Kind {
	case ast.CallExpr:
		switch callee.X.Kind {
		case ast.IdentExpr:
			actor := callee.X.Name
			entry = actor + "_init"
			stateSize = int64(len(g.actorOrder[actor])) * wordSize
		case ast.FieldExpr:
			actor := callee.X.X.Name
			entry = actor + "_" + callee.X.Name
			stateSize = int64(len(g.actorOrder[actor])) * wordSize
		}
		for _, a := range callee.Items {
			args = append(args, g.lowerExpr(a))
		}
	case ast.IdentExpr:
		entry = callee.Name + "_init"
		stateSize = int64(len(g.actorOrder[callee.Name])) * wordSize
	}
	res := g.fn.NewValue(resultType)
	g.emit(ir.Inst{
		Op: ir.OpSpawn, Result: res,
		A: ir.Global(entry, types.UnknownT), B: ir.ConstInt(stateSize, types.I64T),
		Args: args,
	})
	return res
}

// calleeName recovers a plain callee symbol name from an identifier or
// field-expression call target (e.g. `print` or `Foo_bar` for
// `foo.bar(...)` where foo : actor Foo).
func calleeName(callee *ast.Node) string {
	switch callee.Kind {
	case ast.IdentExpr:
		return callee.Name
	case ast.FieldExpr:
		if callee.X.ResolvedType != nil {
			r := types.Resolve(callee.X.ResolvedType)
			if r.Kind == types.Actor {
				return r.Name + "_" + callee.Name
			}
		}
		return callee.Name
	}
	return ""
}

// lowerCall implements call resolution (spec §4.6): actor callee ==
// constructor (spawn-free direct construction is not part of MVP
// semantics — constructing an actor always implies a process, so
// CallExpr on an actor type lowers identically to spawn of its init).
func (g *Generator) lowerCall(n *ast.Node) ir.Value {
	if n.X.ResolvedType != nil && types.Resolve(n.X.ResolvedType).Kind == types.Actor {
		return g.emitSpawnCall(n, n.ResolvedType)
	}
	callee := calleeName(n.X)
	var args []ir.Value
	for _, a := range n.Items {
		args = append(args, g.lowerExpr(a))
	}
	res := g.fn.NewValue(n.ResolvedType)
	op := ir.OpCall
	if callee == "print" {
		g.emit(ir.Inst{Op: op, Result: res, Callee: "arnm_print_int", Args: args})
		return res
	}
	g.emit(ir.Inst{Op: op, Result: res, Callee: callee, Args: args})
	return res
}
