package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnm-lang/arnm/internal/lexer"
	"github.com/arnm-lang/arnm/internal/token"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	l := lexer.New([]byte(src))
	var toks []token.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks
}

func TestLexemeRoundTrip(t *testing.T) {
	src := "let mut x: i32 = 42;"
	toks := scanAll(t, src)
	for _, tok := range toks {
		if tok.Kind == token.EOF {
			continue
		}
		require.True(t, tok.Span.End >= tok.Span.Start)
		assert.Equal(t, src[tok.Span.Start:tok.Span.End], string(tok.Lexeme))
	}
}

func TestKeywordsVsIdentifiers(t *testing.T) {
	toks := scanAll(t, "actor receive spawn self fooBar")
	kinds := make([]token.Kind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []token.Kind{
		token.ACTOR, token.RECEIVE, token.SPAWN, token.SELF, token.IDENT, token.EOF,
	}, kinds)
}

func TestNumberLiterals(t *testing.T) {
	cases := []struct {
		src  string
		kind token.Kind
	}{
		{"0xFF", token.INT},
		{"0b1010", token.INT},
		{"0o17", token.INT},
		{"123", token.INT},
		{"1.5", token.FLOAT},
		{"1e10", token.FLOAT},
		{"1.5e-3", token.FLOAT},
	}
	for _, c := range cases {
		toks := scanAll(t, c.src)
		require.Len(t, toks, 2, c.src)
		assert.Equal(t, c.kind, toks[0].Kind, c.src)
		assert.Equal(t, c.src, string(toks[0].Lexeme), c.src)
	}
}

func TestBangDisambiguationIsLexicalOnly(t *testing.T) {
	// The lexer always emits a single BANG token for `!`; whether it
	// means prefix not or infix send is a parser-level decision.
	toks := scanAll(t, "!x")
	require.Len(t, toks, 3)
	assert.Equal(t, token.BANG, toks[0].Kind)
}

func TestNestedBlockComments(t *testing.T) {
	toks := scanAll(t, "/* outer /* inner */ still outer */ x")
	require.Len(t, toks, 2)
	assert.Equal(t, token.IDENT, toks[0].Kind)
	assert.Equal(t, "x", string(toks[0].Lexeme))
}

func TestUnterminatedStringProducesErrorToken(t *testing.T) {
	toks := scanAll(t, `"abc`)
	require.Len(t, toks, 2)
	assert.Equal(t, token.ERROR, toks[0].Kind)
	assert.NotEmpty(t, toks[0].Msg)
}

func TestLineColumnTracking(t *testing.T) {
	toks := scanAll(t, "let\nx")
	require.Len(t, toks, 3)
	assert.Equal(t, 1, toks[0].Span.Line)
	assert.Equal(t, 2, toks[1].Span.Line)
	assert.Equal(t, 1, toks[1].Span.Column)
}

func TestPeekDoesNotConsume(t *testing.T) {
	l := lexer.New([]byte("let x"))
	first := l.Peek()
	second := l.Peek()
	assert.Equal(t, first, second)
	next := l.Next()
	assert.Equal(t, first.Kind, next.Kind)
	assert.Equal(t, token.IDENT, l.Peek().Kind)
}
