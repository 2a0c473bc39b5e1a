package lex

import (
	"testing"

	"github.com/dhamidi/ambig/ebnf/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const queryGrammar = `
	query = "SELECT" NAME "FROM" NAME [ "WHERE" NAME op value ] .
	op = "=" | "<" | "<=" | "<>" .
	value = NAME | NUMBER | STRING .
	NAME = ( _letter | "_" ) { _letter | _digit | "_" } .
	NUMBER = _digit { _digit } [ "." _digit { _digit } ] .
	STRING = "'" { _char } "'" .
	COMMENT = "#" { _char | "'" } .
	_letter = "a" … "z" | "A" … "Z" .
	_digit = "0" … "9" .
	_char = " " … "&" | "(" … "~" .
`

func mustGrammar(t *testing.T, src string) *grammar.Grammar {
	t.Helper()
	g, err := grammar.ParseString("test", src, "")
	require.NoError(t, err)
	return g
}

type kl struct{ kind, literal string }

func kinds(tokens []Token) []kl {
	out := make([]kl, len(tokens))
	for i, tok := range tokens {
		out[i] = kl{tok.Kind, tok.Literal}
	}
	return out
}

func TestLexer_Tokenize(t *testing.T) {
	t.Parallel()
	g := mustGrammar(t, queryGrammar)

	tests := []struct {
		name  string
		input string
		want  []kl
	}{
		{
			name:  "keywords and names",
			input: "SELECT a FROM users",
			want:  []kl{{"SELECT", "SELECT"}, {"NAME", "a"}, {"FROM", "FROM"}, {"NAME", "users"}},
		},
		{
			name:  "keyword prefix is a name",
			input: "SELECT SELECTED FROM FROMAGE",
			want:  []kl{{"SELECT", "SELECT"}, {"NAME", "SELECTED"}, {"FROM", "FROM"}, {"NAME", "FROMAGE"}},
		},
		{
			name:  "longest operator first",
			input: "a <= 1 <> 2 < 3",
			want:  []kl{{"NAME", "a"}, {"<=", "<="}, {"NUMBER", "1"}, {"<>", "<>"}, {"NUMBER", "2"}, {"<", "<"}, {"NUMBER", "3"}},
		},
		{
			name:  "numbers with optional fraction",
			input: "18 3.25 7",
			want:  []kl{{"NUMBER", "18"}, {"NUMBER", "3.25"}, {"NUMBER", "7"}},
		},
		{
			name:  "strings",
			input: "'hello world' ''",
			want:  []kl{{"STRING", "'hello world'"}, {"STRING", "''"}},
		},
		{
			name:  "underscores",
			input: "_id user_name2",
			want:  []kl{{"NAME", "_id"}, {"NAME", "user_name2"}},
		},
		{
			name:  "whitespace only",
			input: " \t\n ",
			want:  []kl{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tokens, err := Tokenize(g, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, kinds(tokens))
		})
	}
}

func TestLexer_EmptyInput(t *testing.T) {
	t.Parallel()
	g := mustGrammar(t, queryGrammar)

	tokens, err := Tokenize(g, "")
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestLexer_Anonymous(t *testing.T) {
	t.Parallel()
	g := mustGrammar(t, queryGrammar)

	tokens, err := Tokenize(g, "SELECT x FROM y WHERE x = 1")
	require.NoError(t, err)

	anonymous := make([]bool, len(tokens))
	for i, tok := range tokens {
		anonymous[i] = tok.Anonymous
	}
	assert.Equal(t, []bool{true, false, true, false, true, false, true, false}, anonymous)
}

func TestLexer_Positions(t *testing.T) {
	t.Parallel()
	g := mustGrammar(t, queryGrammar)

	l := NewLexer(g, []byte("SELECT a\n  FROM  b"), "q.sql")
	tokens, err := l.Tokenize()
	require.NoError(t, err)
	require.Len(t, tokens, 4)

	assert.Equal(t, Position{Filename: "q.sql", Offset: 0, Line: 1, Column: 1}, tokens[0].Position)
	assert.Equal(t, Position{Filename: "q.sql", Offset: 7, Line: 1, Column: 8}, tokens[1].Position)
	assert.Equal(t, Position{Filename: "q.sql", Offset: 11, Line: 2, Column: 3}, tokens[2].Position)
	assert.Equal(t, Position{Filename: "q.sql", Offset: 17, Line: 2, Column: 9}, tokens[3].Position)
	assert.Equal(t, 18, tokens[3].End())
	assert.Equal(t, "q.sql:2:3", tokens[2].Position.String())
	assert.Equal(t, "2:3", Position{Line: 2, Column: 3}.String())
}

func TestLexer_UnexpectedCharacter(t *testing.T) {
	t.Parallel()
	g := mustGrammar(t, queryGrammar)

	tokens, err := Tokenize(g, "SELECT a\nFROM b $")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedCharacter)
	assert.Len(t, tokens, 4, "tokens before the error are returned")

	var le *Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, '$', le.Char)
	assert.Equal(t, 16, le.Pos.Offset)
	assert.Equal(t, 2, le.Pos.Line)
	assert.Equal(t, 8, le.Pos.Column)
	assert.Equal(t, `2:8: unexpected character '$'`, err.Error())
}

func TestLexer_SkipKinds(t *testing.T) {
	t.Parallel()
	g := mustGrammar(t, queryGrammar)

	tokens, err := Tokenize(g, "SELECT a # all of it\nFROM b", WithSkipKinds("COMMENT"))
	require.NoError(t, err)
	assert.Equal(t, []kl{{"SELECT", "SELECT"}, {"NAME", "a"}, {"FROM", "FROM"}, {"NAME", "b"}}, kinds(tokens))

	tokens, err = Tokenize(g, "SELECT a # all of it\nFROM b")
	require.NoError(t, err)
	assert.Len(t, tokens, 5)
	assert.Equal(t, "COMMENT", tokens[2].Kind)
}

func TestLexer_Next(t *testing.T) {
	t.Parallel()
	g := mustGrammar(t, queryGrammar)

	l := NewLexer(g, []byte("SELECT a"), "")
	tok, ok, err := l.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "SELECT", tok.Literal)
	assert.Equal(t, 6, l.Position().Offset)

	tok, ok, err = l.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", tok.Literal)

	_, ok, err = l.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}
