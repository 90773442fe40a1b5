// Package ast defines the ARNm abstract syntax tree: a single tagged
// Node type over the declaration/statement/expression families,
// bump-allocated from an Arena so the whole tree can be freed together.
// Modeled on the teacher compiler's universal *Node (std/compiler/parser.go
// in the retrieved corpus), generalized with an explicit arena owner (the
// teacher relies on the Go GC and never frees), a Span on every node, and
// a resolved-type slot filled in by the semantic analyzer.
package ast

import "github.com/arnm-lang/arnm/internal/token"

// Arena owns every Node allocated through it. Nodes are single-assignment:
// once returned by New, a Node's Kind never changes. The arena is freed
// as a unit; nothing inside may outlive it.
type Arena struct {
	nodes []*Node
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// New allocates a fresh zero-value Node of the given kind owned by a.
func (a *Arena) New(kind Kind, span token.Span) *Node {
	n := &Node{Kind: kind, Span: span}
	a.nodes = append(a.nodes, n)
	return n
}

// Len returns the number of nodes allocated in this arena so far.
func (a *Arena) Len() int { return len(a.nodes) }
