package diag_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnm-lang/arnm/internal/diag"
	"github.com/arnm-lang/arnm/internal/token"
)

func TestDiagnosticSatisfiesARNmErrorInterface(t *testing.T) {
	var b diag.Bag
	b.Add("bad thing", token.Span{Line: 3, Column: 5})

	var err error = b.Sorted()[0]
	var arnmErr diag.ARNmError
	require.ErrorAs(t, err, &arnmErr)
	assert.Equal(t, 3, arnmErr.Span().Line)
	assert.Contains(t, arnmErr.Error(), "bad thing")
}

func TestBagCapsAndSortsBySourcePosition(t *testing.T) {
	var b diag.Bag
	b.Add("second", token.Span{Line: 2, Column: 1})
	b.Add("first", token.Span{Line: 1, Column: 9})
	assert.False(t, b.Full())

	sorted := b.Sorted()
	require.Len(t, sorted, 2)
	assert.Equal(t, "first", sorted[0].Message)
	assert.Equal(t, "second", sorted[1].Message)

	for i := 0; i < diag.Cap+5; i++ {
		b.Add("overflow", token.Span{})
	}
	assert.True(t, b.Full())
	assert.Equal(t, diag.Cap, b.Len())
}
