package ast

import (
	"github.com/arnm-lang/arnm/internal/token"
	"github.com/arnm-lang/arnm/internal/types"
)

// Kind discriminates the tagged union of declarations, statements, and
// expressions that make up an ARNm AST.
type Kind int

const (
	// Declarations
	Program Kind = iota
	FuncDecl
	ActorDecl
	StructDecl
	FieldDecl

	// Statements
	LetStmt
	ExprStmt
	ReturnStmt
	IfStmt
	WhileStmt
	ForStmt
	LoopStmt
	BreakStmt
	ContinueStmt
	SpawnStmt
	ReceiveStmt
	ReceiveArm
	BlockStmt

	// Expressions
	IdentExpr
	IntLit
	FloatLit
	StringLit
	CharLit
	BoolLit
	NilLit
	UnaryExpr
	BinaryExpr
	CallExpr
	IndexExpr
	FieldExpr
	SendExpr
	SpawnExpr
	SelfExpr
	GroupExpr
	AssignExpr

	// Types (as syntax, pre-resolution)
	TypeName
)

var kindNames = [...]string{
	"Program", "FuncDecl", "ActorDecl", "StructDecl", "FieldDecl",
	"LetStmt", "ExprStmt", "ReturnStmt", "IfStmt", "WhileStmt", "ForStmt",
	"LoopStmt", "BreakStmt", "ContinueStmt", "SpawnStmt", "ReceiveStmt",
	"ReceiveArm", "BlockStmt",
	"IdentExpr", "IntLit", "FloatLit", "StringLit", "CharLit", "BoolLit",
	"NilLit", "UnaryExpr", "BinaryExpr", "CallExpr", "IndexExpr",
	"FieldExpr", "SendExpr", "SpawnExpr", "SelfExpr", "GroupExpr",
	"AssignExpr", "TypeName",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "?"
}

// Param describes a function or method parameter.
type Param struct {
	Name    string
	Mutable bool
	Type    *Node // a TypeName node, or nil if unannotated
	Span    token.Span
}

// Node is the universal AST node. Every node carries its span and a
// nullable resolved-type slot filled by the semantic analyzer; which
// fields are meaningful depends on Kind (documented per constructor
// helper below, mirroring the teacher's single-struct-many-kinds style
// with shared child slots such as Body, X and Y reused across kinds).
type Node struct {
	Kind Kind
	Span token.Span

	// ResolvedType is filled in by the semantic analyzer (C7); nil
	// until then.
	ResolvedType *types.Type

	Name    string  // identifier, field name, actor/struct name, operator lexeme
	Params  []Param // FuncDecl/method params
	RetType *Node   // FuncDecl declared return type (TypeName), or nil

	// Children, reused across kinds:
	Body  *Node   // block body, loop body, then-branch
	Else  *Node   // else branch (IfStmt): *Node of IfStmt or BlockStmt
	Cond  *Node   // condition expression
	Init  *Node   // for-loop init statement
	Post  *Node   // for-loop post statement
	X, Y  *Node   // operands: unary operand / binary lhs+rhs / assign target+value / index base+index / field base / call callee / send target+message
	Items []*Node // block statements, program decls, struct/actor members, call args, receive arms, case patterns

	Mutable  bool // LetStmt / FieldDecl / Param mutability
	IsArray  bool // TypeName: `T[]`
	IsOption bool // TypeName: `T?`

	// ReceiveArm: Pattern is either an IdentExpr (catch-all bind) or an
	// IntLit (exact match); spec §4.2.
	Pattern *Node
}

// NewProgram creates the Program root.
func (a *Arena) NewProgram(span token.Span, decls []*Node) *Node {
	n := a.New(Program, span)
	n.Items = decls
	return n
}

// NewFuncDecl creates a function or actor-method declaration.
func (a *Arena) NewFuncDecl(span token.Span, name string, params []Param, ret *Node, body *Node) *Node {
	n := a.New(FuncDecl, span)
	n.Name = name
	n.Params = params
	n.RetType = ret
	n.Body = body
	return n
}

// NewActorDecl creates an actor declaration; items holds a mix of
// FieldDecl, FuncDecl, and ReceiveStmt nodes (spec §4.2 actor_item).
func (a *Arena) NewActorDecl(span token.Span, name string, items []*Node) *Node {
	n := a.New(ActorDecl, span)
	n.Name = name
	n.Items = items
	return n
}

// NewStructDecl creates a struct declaration; items holds FieldDecl nodes.
func (a *Arena) NewStructDecl(span token.Span, name string, items []*Node) *Node {
	n := a.New(StructDecl, span)
	n.Name = name
	n.Items = items
	return n
}

// NewFieldDecl creates a `let`-field (actor) or bare field (struct) decl.
func (a *Arena) NewFieldDecl(span token.Span, name string, mutable bool, typ *Node, init *Node) *Node {
	n := a.New(FieldDecl, span)
	n.Name = name
	n.Mutable = mutable
	n.RetType = typ // reused: the declared type annotation
	n.X = init      // reused: optional initializer expression
	return n
}

// NewTypeName creates a TypeName syntax node: Name is the base
// identifier (or "fn" for a function type, whose Params/RetType carry
// the parameter/return TypeNames), IsArray/IsOption are the `[]`/`?`
// suffixes.
func (a *Arena) NewTypeName(span token.Span, name string, isArray, isOption bool) *Node {
	n := a.New(TypeName, span)
	n.Name = name
	n.IsArray = isArray
	n.IsOption = isOption
	return n
}

// NewFnTypeName creates a `fn(type,...) [-> type]` TypeName node.
func (a *Arena) NewFnTypeName(span token.Span, params []*Node, ret *Node) *Node {
	n := a.New(TypeName, span)
	n.Name = "fn"
	for _, p := range params {
		n.Items = append(n.Items, p)
	}
	n.RetType = ret
	return n
}

// NewBlockStmt creates a `{ stmt* }` block.
func (a *Arena) NewBlockStmt(span token.Span, stmts []*Node) *Node {
	n := a.New(BlockStmt, span)
	n.Items = stmts
	return n
}

// NewLetStmt creates a `let [mut] name [: type] [= expr];`.
func (a *Arena) NewLetStmt(span token.Span, name string, mutable bool, typ *Node, init *Node) *Node {
	n := a.New(LetStmt, span)
	n.Name = name
	n.Mutable = mutable
	n.RetType = typ
	n.X = init
	return n
}

// NewExprStmt wraps a bare expression statement.
func (a *Arena) NewExprStmt(span token.Span, e *Node) *Node {
	n := a.New(ExprStmt, span)
	n.X = e
	return n
}

// NewReturnStmt creates `return [expr];`; value may be nil.
func (a *Arena) NewReturnStmt(span token.Span, value *Node) *Node {
	n := a.New(ReturnStmt, span)
	n.X = value
	return n
}

// NewIfStmt creates `if cond block [else ...]`; elseBranch may be an
// IfStmt (else-if) or BlockStmt, or nil.
func (a *Arena) NewIfStmt(span token.Span, cond, thenBlock, elseBranch *Node) *Node {
	n := a.New(IfStmt, span)
	n.Cond = cond
	n.Body = thenBlock
	n.Else = elseBranch
	return n
}

// NewWhileStmt creates `while cond block`.
func (a *Arena) NewWhileStmt(span token.Span, cond, body *Node) *Node {
	n := a.New(WhileStmt, span)
	n.Cond = cond
	n.Body = body
	return n
}

// NewForStmt creates `for ident in expr block`; Name is the bound
// identifier and Cond holds the iterable expression.
func (a *Arena) NewForStmt(span token.Span, name string, iterable, body *Node) *Node {
	n := a.New(ForStmt, span)
	n.Name = name
	n.Cond = iterable
	n.Body = body
	return n
}

// NewLoopStmt creates `loop block`.
func (a *Arena) NewLoopStmt(span token.Span, body *Node) *Node {
	n := a.New(LoopStmt, span)
	n.Body = body
	return n
}

// NewBreakStmt creates `break;`.
func (a *Arena) NewBreakStmt(span token.Span) *Node { return a.New(BreakStmt, span) }

// NewContinueStmt creates `continue;`.
func (a *Arena) NewContinueStmt(span token.Span) *Node { return a.New(ContinueStmt, span) }

// NewSpawnStmt creates `spawn expr;`.
func (a *Arena) NewSpawnStmt(span token.Span, e *Node) *Node {
	n := a.New(SpawnStmt, span)
	n.X = e
	return n
}

// NewReceiveStmt creates `receive { arm* }`.
func (a *Arena) NewReceiveStmt(span token.Span, arms []*Node) *Node {
	n := a.New(ReceiveStmt, span)
	n.Items = arms
	return n
}

// NewReceiveArm creates one `pattern => block` arm; pattern is an
// IdentExpr (catch-all bind) or IntLit (exact match), per spec §4.2.
func (a *Arena) NewReceiveArm(span token.Span, pattern, body *Node) *Node {
	n := a.New(ReceiveArm, span)
	n.Pattern = pattern
	n.Body = body
	return n
}

// NewIdentExpr creates a bare identifier reference.
func (a *Arena) NewIdentExpr(span token.Span, name string) *Node {
	n := a.New(IdentExpr, span)
	n.Name = name
	return n
}

// NewIntLit creates an integer literal; the textual lexeme is kept in
// Name for later parsing into a machine value by the IR generator.
func (a *Arena) NewIntLit(span token.Span, lexeme string) *Node {
	n := a.New(IntLit, span)
	n.Name = lexeme
	return n
}

// NewFloatLit creates a float literal.
func (a *Arena) NewFloatLit(span token.Span, lexeme string) *Node {
	n := a.New(FloatLit, span)
	n.Name = lexeme
	return n
}

// NewStringLit creates a string literal; Name holds the decoded value.
func (a *Arena) NewStringLit(span token.Span, value string) *Node {
	n := a.New(StringLit, span)
	n.Name = value
	return n
}

// NewCharLit creates a char literal; Name holds the single decoded byte.
func (a *Arena) NewCharLit(span token.Span, value string) *Node {
	n := a.New(CharLit, span)
	n.Name = value
	return n
}

// NewBoolLit creates `true`/`false`.
func (a *Arena) NewBoolLit(span token.Span, value bool) *Node {
	n := a.New(BoolLit, span)
	if value {
		n.Name = "true"
	} else {
		n.Name = "false"
	}
	return n
}

// NewNilLit creates `nil`.
func (a *Arena) NewNilLit(span token.Span) *Node { return a.New(NilLit, span) }

// NewSelfExpr creates `self`.
func (a *Arena) NewSelfExpr(span token.Span) *Node { return a.New(SelfExpr, span) }

// NewUnaryExpr creates a prefix unary expression (`- ! ~`); Name holds
// the operator lexeme.
func (a *Arena) NewUnaryExpr(span token.Span, op string, operand *Node) *Node {
	n := a.New(UnaryExpr, span)
	n.Name = op
	n.X = operand
	return n
}

// NewBinaryExpr creates an infix binary expression; Name holds the
// operator lexeme.
func (a *Arena) NewBinaryExpr(span token.Span, op string, lhs, rhs *Node) *Node {
	n := a.New(BinaryExpr, span)
	n.Name = op
	n.X = lhs
	n.Y = rhs
	return n
}

// NewAssignExpr creates `target = value` (and compound-assign forms,
// Name holding the operator).
func (a *Arena) NewAssignExpr(span token.Span, op string, target, value *Node) *Node {
	n := a.New(AssignExpr, span)
	n.Name = op
	n.X = target
	n.Y = value
	return n
}

// NewSendExpr creates `target ! message`, the infix message-send.
func (a *Arena) NewSendExpr(span token.Span, target, message *Node) *Node {
	n := a.New(SendExpr, span)
	n.X = target
	n.Y = message
	return n
}

// NewSpawnExpr creates the `spawn expr` expression form (used inside
// SpawnStmt, and anywhere an expression position accepts it).
func (a *Arena) NewSpawnExpr(span token.Span, callee *Node) *Node {
	n := a.New(SpawnExpr, span)
	n.X = callee
	return n
}

// NewCallExpr creates `callee(args...)`.
func (a *Arena) NewCallExpr(span token.Span, callee *Node, args []*Node) *Node {
	n := a.New(CallExpr, span)
	n.X = callee
	n.Items = args
	return n
}

// NewIndexExpr creates `base[index]`.
func (a *Arena) NewIndexExpr(span token.Span, base, index *Node) *Node {
	n := a.New(IndexExpr, span)
	n.X = base
	n.Y = index
	return n
}

// NewFieldExpr creates `base.field`; Name holds the field identifier.
func (a *Arena) NewFieldExpr(span token.Span, base *Node, field string) *Node {
	n := a.New(FieldExpr, span)
	n.X = base
	n.Name = field
	return n
}

// NewGroupExpr creates a parenthesized expression `(expr)`.
func (a *Arena) NewGroupExpr(span token.Span, inner *Node) *Node {
	n := a.New(GroupExpr, span)
	n.X = inner
	return n
}
