package redact

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, src string) []Token {
	t.Helper()
	l := NewLexer(src)
	var toks []Token
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		if tok.Kind == EOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

func TestLexerKinds(t *testing.T) {
	src := `SELECT E'a\'b\n', $1, "Col""x", $tag$it's$tag$, 1.5e3, X'1F' -- trailing
	/* outer /* inner */ still comment */ ;`
	toks := lexAll(t, src)

	want := []struct {
		kind  Kind
		value string
	}{
		{Keyword, "select"},
		{String, "a'b\n"},
		{Punct, ","},
		{Param, "$1"},
		{Punct, ","},
		{QuotedIdent, `Col"x`},
		{Punct, ","},
		{String, "it's"},
		{Punct, ","},
		{Number, "1.5e3"},
		{Punct, ","},
		{String, "1F"},
		{Punct, ";"},
	}
	require.Len(t, toks, len(want))
	for i, w := range want {
		assert.Equal(t, w.kind, toks[i].Kind, "token %d", i)
		assert.Equal(t, w.value, toks[i].Value, "token %d", i)
	}
	assert.Equal(t, QuoteEscape, toks[1].Quote)
	assert.Equal(t, QuoteDollar, toks[7].Quote)
	assert.Equal(t, QuoteHex, toks[11].Quote)
}

func TestLexerSpans(t *testing.T) {
	src := `password 'it''s'`
	toks := lexAll(t, src)
	require.Len(t, toks, 2)

	str := toks[1]
	assert.Equal(t, `'it''s'`, src[str.Pos:str.End])
	assert.Equal(t, `it''s`, src[str.Start:str.Stop])
	assert.Equal(t, "it's", str.Value)

	kw := toks[0]
	assert.Equal(t, kw.Pos, kw.Start)
	assert.Equal(t, kw.End, kw.Stop)
}

func TestLexerIdentifiers(t *testing.T) {
	toks := lexAll(t, `MyTable.col_1 a$b dblink_connect`)
	require.Len(t, toks, 5)
	assert.Equal(t, Ident, toks[0].Kind)
	assert.Equal(t, "mytable", toks[0].Value)
	assert.True(t, toks[1].is("."))
	assert.Equal(t, "col_1", toks[2].Value)
	assert.Equal(t, "a$b", toks[3].Value)
	assert.Equal(t, "dblink_connect", toks[4].Value)
}

func TestLexerOperators(t *testing.T) {
	toks := lexAll(t, "a<>b--c\nd*/*e*/f")
	var words []string
	for _, tok := range toks {
		words = append(words, tok.Value)
	}
	assert.Equal(t, []string{"a", "<>", "b", "d", "*", "f"}, words)
}

func TestLexerErrors(t *testing.T) {
	cases := map[string]string{
		"string":     `SELECT 'abc`,
		"escape":     `SELECT E'abc\`,
		"identifier": `SELECT "abc`,
		"comment":    `SELECT /* /* */`,
		"dollar":     `SELECT $x$abc$y$`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			l := NewLexer(src)
			var err error
			for err == nil {
				var tok Token
				tok, err = l.Next()
				if tok.Kind == EOF && err == nil {
					t.Fatalf("reached end of %q without an error", src)
				}
			}
			var lexErr *LexError
			require.True(t, errors.As(err, &lexErr))
			assert.Contains(t, lexErr.Error(), "unterminated")
		})
	}
}

func TestLexerEOFRepeats(t *testing.T) {
	l := NewLexer("  ")
	for i := 0; i < 3; i++ {
		tok, err := l.Next()
		require.NoError(t, err)
		assert.Equal(t, EOF, tok.Kind)
	}
}
