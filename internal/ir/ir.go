// Package ir defines ARNm's block-structured IR (spec §4.6, C8): a
// module is an ordered list of functions, each an ordered slice of
// blocks, each block an ordered slice of instructions with up to two
// operands, an optional call/spawn argument list, and up to two branch
// targets. Grounded in the teacher compiler's intermediate
// representation (std/compiler/ir.go), whose IRFunc is a flat
// slice-of-Inst stack machine with no blocks; ARNm needs the
// block/branch-target shape the spec names, so this is a structural
// rewrite of the teacher's Opcode/Inst pair into a CFG, keeping the
// teacher's "opcode plus up to two operands" instruction shape and its
// plain-struct, no-interface style.
package ir

import (
	"fmt"
	"strings"

	"github.com/arnm-lang/arnm/internal/types"
)

// Op is an IR opcode.
type Op int

const (
	OpAlloca Op = iota
	OpLoad
	OpStore
	OpFieldPtr

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod

	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	OpAnd
	OpOr

	OpRet
	OpBr
	OpJmp
	OpCall

	OpSpawn
	OpSend
	OpReceive
	OpSelf

	OpMov
)

func (o Op) String() string {
	names := [...]string{
		"alloca", "load", "store", "field_ptr",
		"add", "sub", "mul", "div", "mod",
		"eq", "ne", "lt", "le", "gt", "ge",
		"and", "or",
		"ret", "br", "jmp", "call",
		"spawn", "send", "receive", "self",
		"mov",
	}
	if int(o) < len(names) {
		return names[o]
	}
	return "?"
}

// ValueKind discriminates an operand/result value.
type ValueKind int

const (
	ValNone ValueKind = iota
	ValVariable
	ValConstInt
	ValConstFloat
	ValConstBool
	ValGlobal
	ValUndef
)

// Value is an IR operand or result.
type Value struct {
	Kind  ValueKind
	ID    int // ValVariable: unique id within the owning function
	Int   int64
	Float float64
	Bool  bool
	Name  string // ValGlobal: symbol name
	Type  *types.Type
}

func ConstInt(v int64, t *types.Type) Value { return Value{Kind: ValConstInt, Int: v, Type: t} }
func ConstBool(v bool, t *types.Type) Value { return Value{Kind: ValConstBool, Bool: v, Type: t} }
func Global(name string, t *types.Type) Value {
	return Value{Kind: ValGlobal, Name: name, Type: t}
}
func Undef(t *types.Type) Value { return Value{Kind: ValUndef, Type: t} }

// Inst is one IR instruction. Result is the ValVariable produced (if
// any); A and B are scalar operands; Args holds variable-length
// call/spawn arguments; Then/Else are branch targets (block ids), read
// only for OpBr (Then and Else) and OpJmp (Then).
type Inst struct {
	Op     Op
	Result Value
	A, B   Value
	Args   []Value
	Callee string // OpCall target symbol name
	Then   int
	Else   int
}

// Block is a sequence of instructions with an id and optional debug
// label (spec: "doubly-linked list of instructions" — a slice serves
// the same ordered-sequence role without the teacher's Go-GC-friendly
// pointer chaining).
type Block struct {
	ID    int
	Label string
	Insts []Inst
}

func (b *Block) emit(i Inst) {
	b.Insts = append(b.Insts, i)
}

// Func is one lowered function (post actor-method mangling).
type Func struct {
	Name       string
	ParamTypes []*types.Type
	RetType    *types.Type
	Blocks     []*Block
	nextValID  int
	nextBlkID  int
}

// NewFunc creates an empty function; the first len(paramTypes) value
// ids are reserved for parameters per spec §4.6's ABI convention.
func NewFunc(name string, paramTypes []*types.Type, ret *types.Type) *Func {
	f := &Func{Name: name, ParamTypes: paramTypes, RetType: ret}
	f.nextValID = len(paramTypes)
	return f
}

// NewBlock allocates and appends a fresh block.
func (f *Func) NewBlock(label string) *Block {
	b := &Block{ID: f.nextBlkID, Label: label}
	f.nextBlkID++
	f.Blocks = append(f.Blocks, b)
	return b
}

// NewValue mints a fresh result value of type t.
func (f *Func) NewValue(t *types.Type) Value {
	v := Value{Kind: ValVariable, ID: f.nextValID, Type: t}
	f.nextValID++
	return v
}

// ParamValue returns the value representing parameter i (ids 0..N-1).
func (f *Func) ParamValue(i int) Value {
	return Value{Kind: ValVariable, ID: i, Type: f.ParamTypes[i]}
}

// Module is an ordered list of lowered functions.
type Module struct {
	Funcs []*Func
}

func NewModule() *Module { return &Module{} }

func (m *Module) AddFunc(f *Func) { m.Funcs = append(m.Funcs, f) }

func (m *Module) Lookup(name string) *Func {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (v Value) String() string {
	switch v.Kind {
	case ValConstInt:
		return fmt.Sprintf("%d", v.Int)
	case ValConstFloat:
		return fmt.Sprintf("%g", v.Float)
	case ValConstBool:
		return fmt.Sprintf("%t", v.Bool)
	case ValGlobal:
		return "@" + v.Name
	case ValUndef:
		return "undef"
	case ValVariable:
		return fmt.Sprintf("%%%d", v.ID)
	default:
		return "-"
	}
}

func (i Inst) String() string {
	var b strings.Builder
	if i.Result.Kind != ValNone {
		fmt.Fprintf(&b, "%s = ", i.Result)
	}
	fmt.Fprintf(&b, "%s", i.Op)
	if i.Callee != "" {
		fmt.Fprintf(&b, " %s", i.Callee)
	}
	if i.A.Kind != ValNone {
		fmt.Fprintf(&b, " %s", i.A)
	}
	if i.B.Kind != ValNone {
		fmt.Fprintf(&b, ", %s", i.B)
	}
	for _, a := range i.Args {
		fmt.Fprintf(&b, ", %s", a)
	}
	if i.Op == OpBr {
		fmt.Fprintf(&b, " then bb%d else bb%d", i.Then, i.Else)
	}
	if i.Op == OpJmp {
		fmt.Fprintf(&b, " bb%d", i.Then)
	}
	return b.String()
}

// String renders f as a flat, human-readable listing (debug tooling
// only, spec §6's --emit-ir; no wire format is implied).
func (f *Func) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "func %s:\n", f.Name)
	for _, blk := range f.Blocks {
		fmt.Fprintf(&b, "bb%d %s:\n", blk.ID, blk.Label)
		for _, inst := range blk.Insts {
			fmt.Fprintf(&b, "  %s\n", inst)
		}
	}
	return b.String()
}

// String renders every function in m, in declaration order.
func (m *Module) String() string {
	var b strings.Builder
	for _, f := range m.Funcs {
		b.WriteString(f.String())
	}
	return b.String()
}
