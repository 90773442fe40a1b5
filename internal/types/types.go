// Package types implements ARNm's type representation: interned
// primitive singletons, arena-allocated compound types, and
// Hindley–Milner-flavored type variables with union-find path
// compression, per spec §3/§4.3. The teacher compiler (std/compiler/ir.go
// in the retrieved corpus) resolves types structurally with no
// variables or unification at all — ARNm's HM-flavored checker is new
// and has no teacher analogue; it's grounded instead in the general
// textbook Algorithm-W shape (Robinson unification, occurs check,
// union-find `instance` pointers) implemented the way the teacher
// implements everything else: plain structs, explicit loops, no
// generics-heavy abstraction.
package types

import "fmt"

// Kind discriminates the type variants in spec §3.
type Kind int

const (
	Unknown Kind = iota
	Var
	Unit
	Bool
	I8
	I16
	I32
	I64
	F32
	F64
	String
	Char
	Fn
	Actor
	Struct
	Array
	Optional
	Process
	Error
)

func (k Kind) String() string {
	switch k {
	case Unknown:
		return "unknown"
	case Var:
		return "var"
	case Unit:
		return "unit"
	case Bool:
		return "bool"
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case String:
		return "string"
	case Char:
		return "char"
	case Fn:
		return "fn"
	case Actor:
		return "actor"
	case Struct:
		return "struct"
	case Array:
		return "array"
	case Optional:
		return "optional"
	case Process:
		return "process"
	case Error:
		return "error"
	}
	return "?"
}

// Permission is the compile-time permission tag of spec §3. Only
// fn→Immutable and process→Unique are actually assigned by the MVP
// checker; the rest is informational scaffolding for a future checker.
type Permission int

const (
	PermUnknown Permission = iota
	PermUnique
	PermShared
	PermImmutable
)

// Field describes a named, typed member of an actor or struct.
type Field struct {
	Name string
	Type *Type
}

// Type is the universal type representation. Primitive kinds are
// interned singletons (see UnitT, BoolT, I32T, ... below); compound
// kinds are allocated fresh per occurrence via the New* constructors.
type Type struct {
	Kind Kind
	Perm Permission

	// Var
	id       int
	instance *Type // union-find binding; nil until bound

	// Actor / Struct
	Name   string
	Fields []Field

	// Fn
	Params []*Type
	Return *Type

	// Array / Optional / Process
	Elem *Type // Array element, Optional inner, Process actor type (nilable)
}

// Interned primitive singletons.
var (
	UnitT   = &Type{Kind: Unit}
	BoolT   = &Type{Kind: Bool}
	I8T     = &Type{Kind: I8}
	I16T    = &Type{Kind: I16}
	I32T    = &Type{Kind: I32}
	I64T    = &Type{Kind: I64}
	F32T    = &Type{Kind: F32}
	F64T    = &Type{Kind: F64}
	StringT = &Type{Kind: String}
	CharT   = &Type{Kind: Char}
	ErrorT  = &Type{Kind: Error, Perm: PermImmutable}
	UnknownT = &Type{Kind: Unknown}
)

// Arena mints fresh type variables and compound types. Its only real
// job (per spec §4.3/§9: "the semantic analyzer owns the type arena")
// is handing out unique variable ids; compound types need no arena
// bookkeeping beyond ordinary allocation since they form a tree, not a
// graph, until a var inside them gets unified with something else.
type Arena struct {
	nextVarID int
}

// NewArena creates an empty type arena.
func NewArena() *Arena { return &Arena{} }

// NewVar mints a fresh, unbound type variable.
func (a *Arena) NewVar() *Type {
	a.nextVarID++
	return &Type{Kind: Var, id: a.nextVarID}
}

// NewFn allocates a function type with immutable permission (spec §3:
// "fn→immutable... set").
func (a *Arena) NewFn(params []*Type, ret *Type) *Type {
	return &Type{Kind: Fn, Params: params, Return: ret, Perm: PermImmutable}
}

// NewActor allocates a fresh actor type with the declared name and no
// fields/methods populated yet (filled in by the analyzer's pass 2).
func (a *Arena) NewActor(name string) *Type {
	return &Type{Kind: Actor, Name: name}
}

// NewStruct allocates a fresh struct type.
func (a *Arena) NewStruct(name string) *Type {
	return &Type{Kind: Struct, Name: name}
}

// NewArray allocates an array-of-elem type.
func (a *Arena) NewArray(elem *Type) *Type {
	return &Type{Kind: Array, Elem: elem}
}

// NewOptional allocates an optional-of-inner type.
func (a *Arena) NewOptional(inner *Type) *Type {
	return &Type{Kind: Optional, Elem: inner}
}

// NewProcess allocates a process type, optionally tied to a specific
// actor type (nil means "process of unknown actor"). Processes are
// unique by spec §3.
func (a *Arena) NewProcess(actor *Type) *Type {
	return &Type{Kind: Process, Elem: actor, Perm: PermUnique}
}

// Resolve walks the instance chain of a type variable with a depth cap
// to break accidental cycles (spec §4.3). Non-variable types resolve
// to themselves.
func Resolve(t *Type) *Type {
	const maxDepth = 10000
	depth := 0
	for t != nil && t.Kind == Var && t.instance != nil {
		t = t.instance
		depth++
		if depth > maxDepth {
			return ErrorT
		}
	}
	return t
}

// WithPerm clones t with a new permission tag. Primitives are returned
// unchanged if the tag already matches, matching spec's
// `type_with_perm` (avoids needless allocation for the common case).
func WithPerm(t *Type, perm Permission) *Type {
	r := Resolve(t)
	if r.Perm == perm {
		return r
	}
	clone := *r
	clone.Perm = perm
	return &clone
}

func (t *Type) String() string {
	r := Resolve(t)
	switch r.Kind {
	case Fn:
		s := "fn("
		for i, p := range r.Params {
			if i > 0 {
				s += ", "
			}
			s += p.String()
		}
		s += ")"
		if r.Return != nil && Resolve(r.Return).Kind != Unit {
			s += " -> " + r.Return.String()
		}
		return s
	case Actor:
		return "actor " + r.Name
	case Struct:
		return "struct " + r.Name
	case Array:
		return "[]" + r.Elem.String()
	case Optional:
		return r.Elem.String() + "?"
	case Process:
		if r.Elem != nil {
			return fmt.Sprintf("process<%s>", r.Elem.String())
		}
		return "process"
	case Var:
		return fmt.Sprintf("'t%d", r.id)
	default:
		return r.Kind.String()
	}
}
