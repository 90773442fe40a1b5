// Package diag defines the shared diagnostic type threaded through
// every compiler stage (spec §7): lexer, parser, and semantic analyzer
// all accumulate the same (message, span) shape, capped and sorted by
// source position before the driver prints them. Grounded in the
// teacher's flat p.errors []string (std/compiler/parser.go) generalized
// with a span and a shared cap/sort policy the teacher never needed
// (its toy compiler just appends and prints in encounter order).
package diag

import (
	"fmt"
	"sort"

	"github.com/arnm-lang/arnm/internal/token"
)

// Cap bounds how many diagnostics a single compile accumulates across
// all stages, per spec §7 ("accumulated up to a fixed cap").
const Cap = 64

// Diagnostic is one compiler-reported problem. It implements ARNmError
// so callers that want a plain Go error value carrying a source span
// don't need to know about Bag at all.
type Diagnostic struct {
	Message string
	Pos     token.Span
}

// ARNmError is the interface every diagnostic satisfies: a normal Go
// error plus the span it was reported against.
type ARNmError interface {
	error
	Span() token.Span
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s", d.Pos.Line, d.Pos.Column, d.Message)
}

func (d Diagnostic) Error() string { return d.String() }

func (d Diagnostic) Span() token.Span { return d.Pos }

var _ ARNmError = Diagnostic{}

// Bag accumulates diagnostics up to Cap, then silently drops further
// reports (the cap itself is never exceeded, and callers that only
// check Len()/Full() can tell when reports started being dropped).
type Bag struct {
	items []Diagnostic
}

// Add reports a diagnostic if the bag isn't already full.
func (b *Bag) Add(message string, span token.Span) {
	if len(b.items) >= Cap {
		return
	}
	b.items = append(b.items, Diagnostic{Message: message, Pos: span})
}

// Full reports whether the cap has been reached.
func (b *Bag) Full() bool { return len(b.items) >= Cap }

// Len returns the number of accumulated diagnostics.
func (b *Bag) Len() int { return len(b.items) }

// HasErrors reports whether any diagnostic was recorded.
func (b *Bag) HasErrors() bool { return len(b.items) > 0 }

// Sorted returns the diagnostics ordered by (line, column), stable
// across equal positions (spec §7: "sorted by source position").
func (b *Bag) Sorted() []Diagnostic {
	out := make([]Diagnostic, len(b.items))
	copy(out, b.items)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pos.Line != out[j].Pos.Line {
			return out[i].Pos.Line < out[j].Pos.Line
		}
		return out[i].Pos.Column < out[j].Pos.Column
	})
	return out
}
