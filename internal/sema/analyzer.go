// Package sema implements ARNm's two-pass semantic analyzer (spec
// §4.5, C7): forward declaration followed by checking, with an
// actor-aware scope/permission model built on internal/symtab and
// internal/types. Grounded in the teacher's two-pass package resolution
// (std/compiler/frontend.go: collectSymbols then a second walk that
// resolves references), generalized from the teacher's untyped,
// scope-less symbol map into a typed, HM-unification-driven checker
// with nested lexical scopes.
package sema

import (
	"fmt"

	"github.com/arnm-lang/arnm/internal/ast"
	"github.com/arnm-lang/arnm/internal/diag"
	"github.com/arnm-lang/arnm/internal/symtab"
	"github.com/arnm-lang/arnm/internal/token"
	"github.com/arnm-lang/arnm/internal/types"
)

// Analyzer runs the two-pass check over a parsed Program.
type Analyzer struct {
	arena  *types.Arena
	syms   *symtab.Table
	errors diag.Bag

	inActor  bool
	curActor *types.Type
	inLoop   bool
	expectRet *types.Type
}

// New creates an Analyzer with a fresh type arena and global scope
// pre-seeded with the built-in intrinsics (spec §4.5 pass 1:
// `print: fn(i32) -> unit`).
func New() *Analyzer {
	a := &Analyzer{arena: types.NewArena(), syms: symtab.New()}
	a.syms.DefineGlobal("print", &symtab.Symbol{
		Name: "print",
		Type: a.arena.NewFn([]*types.Type{types.I32T}, types.UnitT),
	})
	return a
}

// Diagnostics returns accumulated diagnostics sorted by position.
func (a *Analyzer) Diagnostics() []diag.Diagnostic { return a.errors.Sorted() }

// HadError reports whether any diagnostic was recorded. Per spec §4.5,
// "Analysis succeeds iff no error was reported."
func (a *Analyzer) HadError() bool { return a.errors.HasErrors() }

// TypeArena exposes the analyzer's type arena to later stages. The IR
// generator does not call it; it reads the ResolvedType fields directly.
func (a *Analyzer) TypeArena() *types.Arena { return a.arena }

func (a *Analyzer) errorf(span token.Span, format string, args ...any) {
	a.errors.Add(fmt.Sprintf(format, args...), span)
}

// Check runs both passes over prog.
func (a *Analyzer) Check(prog *ast.Node) {
	a.pass1(prog)
	a.pass2(prog)
}

// pass1: forward-declare every top-level declaration with a fresh
// type variable (or, for actors/structs, a fresh actor/struct type).
func (a *Analyzer) pass1(prog *ast.Node) {
	for _, decl := range prog.Items {
		switch decl.Kind {
		case ast.FuncDecl:
			a.syms.DefineGlobal(decl.Name, &symtab.Symbol{Name: decl.Name, Type: a.arena.NewVar()})
		case ast.ActorDecl:
			a.syms.DefineGlobal(decl.Name, &symtab.Symbol{Name: decl.Name, Type: a.arena.NewActor(decl.Name)})
		case ast.StructDecl:
			a.syms.DefineGlobal(decl.Name, &symtab.Symbol{Name: decl.Name, Type: a.arena.NewStruct(decl.Name)})
		}
	}
}

func (a *Analyzer) pass2(prog *ast.Node) {
	for _, decl := range prog.Items {
		switch decl.Kind {
		case ast.FuncDecl:
			a.checkFunc(decl, "")
		case ast.ActorDecl:
			a.checkActor(decl)
		case ast.StructDecl:
			a.checkStruct(decl)
		}
	}
}

// checkFunc type-checks a top-level function or an actor method
// (mangledPrefix is "<Actor>_" for methods, "" for free functions).
func (a *Analyzer) checkFunc(decl *ast.Node, mangledPrefix string) {
	a.syms.Push()
	defer a.syms.Pop()

	paramTypes := make([]*types.Type, len(decl.Params))
	for i, p := range decl.Params {
		pt := a.resolveTypeAnnotation(p.Type)
		paramTypes[i] = pt
		a.syms.Define(p.Name, &symtab.Symbol{Name: p.Name, Type: pt, Mutable: p.Mutable})
	}

	var retType *types.Type
	if decl.RetType != nil {
		retType = a.resolveTypeAnnotation(decl.RetType)
	} else {
		retType = types.UnitT
	}

	prevRet := a.expectRet
	prevLoop := a.inLoop
	a.expectRet = retType
	a.inLoop = false
	a.checkBlock(decl.Body)
	a.expectRet = prevRet
	a.inLoop = prevLoop

	fnType := a.arena.NewFn(paramTypes, retType)
	key := mangledPrefix + decl.Name
	if sym, ok := a.syms.Lookup(key); ok {
		types.Unify(sym.Type, fnType)
		decl.ResolvedType = sym.Type
	} else {
		// Actor methods are not forward-declared in pass 1 (only the
		// actor itself is); define them now under the mangled key.
		a.syms.DefineGlobal(key, &symtab.Symbol{Name: key, Type: fnType})
		decl.ResolvedType = fnType
	}
}

func (a *Analyzer) checkActor(decl *ast.Node) {
	sym, _ := a.syms.Lookup(decl.Name)
	actorType := sym.Type
	if actorType.Kind != types.Actor {
		actorType = a.arena.NewActor(decl.Name)
		sym.Type = actorType
	}

	prevActor := a.curActor
	prevInActor := a.inActor
	a.curActor = actorType
	a.inActor = true
	defer func() { a.curActor = prevActor; a.inActor = prevInActor }()

	// Fields first, so methods see the complete field table.
	for _, item := range decl.Items {
		if item.Kind != ast.FieldDecl {
			continue
		}
		ft := a.fieldType(item)
		actorType.Fields = append(actorType.Fields, types.Field{Name: item.Name, Type: ft})
		item.ResolvedType = ft
	}

	hasReceive := false
	for _, item := range decl.Items {
		switch item.Kind {
		case ast.FuncDecl:
			a.checkFunc(item, decl.Name+"_")
		case ast.ReceiveStmt:
			hasReceive = true
			a.checkStmt(item)
		}
	}
	_ = hasReceive
}

func (a *Analyzer) checkStruct(decl *ast.Node) {
	sym, _ := a.syms.Lookup(decl.Name)
	structType := sym.Type
	for _, item := range decl.Items {
		ft := a.fieldType(item)
		structType.Fields = append(structType.Fields, types.Field{Name: item.Name, Type: ft})
		item.ResolvedType = ft
	}
}

// fieldType derives a field's type per spec §4.5: from the annotation
// if resolvable, else from the initializer if present, else i32.
func (a *Analyzer) fieldType(field *ast.Node) *types.Type {
	if field.RetType != nil {
		if t := a.resolveTypeAnnotation(field.RetType); t.Kind != types.Var {
			return t
		}
	}
	if field.X != nil {
		return a.inferExpr(field.X)
	}
	return types.I32T
}

func (a *Analyzer) resolveTypeAnnotation(t *ast.Node) *types.Type {
	if t == nil {
		return a.arena.NewVar()
	}
	var base *types.Type
	if t.Name == "fn" {
		params := make([]*types.Type, len(t.Items))
		for i, p := range t.Items {
			params[i] = a.resolveTypeAnnotation(p)
		}
		var ret *types.Type = types.UnitT
		if t.RetType != nil {
			ret = a.resolveTypeAnnotation(t.RetType)
		}
		return a.arena.NewFn(params, ret)
	}
	switch t.Name {
	case "i8":
		base = types.I8T
	case "i16":
		base = types.I16T
	case "i32":
		base = types.I32T
	case "i64":
		base = types.I64T
	case "f32":
		base = types.F32T
	case "f64":
		base = types.F64T
	case "bool":
		base = types.BoolT
	case "string":
		base = types.StringT
	case "char":
		base = types.CharT
	case "unit":
		base = types.UnitT
	default:
		if sym, ok := a.syms.Lookup(t.Name); ok {
			base = sym.Type
		} else {
			base = a.arena.NewVar()
		}
	}
	if t.IsArray {
		return a.arena.NewArray(base)
	}
	if t.IsOption {
		return a.arena.NewOptional(base)
	}
	return base
}
