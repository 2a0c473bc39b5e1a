package query

import (
	"math/big"
	"testing"

	"github.com/dhamidi/ambig/ebnf/lex"
	"github.com/dhamidi/ambig/ebnf/parse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator()
	require.NoError(t, err)
	return v
}

func TestValidator_Validate(t *testing.T) {
	t.Parallel()
	v := mustValidator(t)

	tests := []struct {
		name     string
		text     string
		valid    bool
		messages []string
	}{
		{name: "star", text: "SELECT * FROM users", valid: true},
		{name: "columns and order", text: "SELECT name, age FROM users ORDER BY name DESC", valid: true},
		{name: "where clause", text: "SELECT id FROM orders WHERE NOT (status = 'cancelled' OR status = 'refunded') AND total > 1000", valid: true},
		{name: "lowercase identifiers", text: "SELECT name FROM users WHERE role = 'admin'", valid: true},
		{name: "empty", text: "   ", messages: []string{MsgEmptyQuery}},
		{
			name:     "duplicate columns",
			text:     "SELECT b, a, b, a, c FROM t",
			messages: []string{MsgDuplicateColumns + ": a, b"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := v.Validate(tt.text)
			assert.Equal(t, tt.text, r.Query)
			assert.Equal(t, tt.valid, r.Valid)
			assert.Equal(t, tt.messages, r.Messages)
		})
	}
}

func TestValidator_SyntaxError(t *testing.T) {
	t.Parallel()
	v := mustValidator(t)

	for _, text := range Examples(CategoryInvalid) {
		r := v.Validate(text)
		assert.False(t, r.Valid, text)
		assert.Nil(t, r.Forest, text)
		require.Len(t, r.Messages, 1, text)
		assert.Contains(t, r.Messages[0], "syntax error: ", text)
	}

	r := v.Validate("SELECT * users")
	assert.Contains(t, r.Messages[0], `unexpected "users", expected "FROM"`)
}

func TestValidator_UsesPrecedenceGrammar(t *testing.T) {
	t.Parallel()
	v := mustValidator(t)

	for _, text := range Examples(CategoryAmbiguous) {
		r := v.Validate(text)
		require.True(t, r.Valid, text)
		require.NotNil(t, r.Forest)
		assert.False(t, r.Forest.IsAmbiguous(), text)
		assert.NotNil(t, r.Tree)
	}
}

func TestSemanticErrors(t *testing.T) {
	t.Parallel()

	tree := parse.NewNonTerminal("query")
	assert.Equal(t, []string{MsgNoColumns, MsgNoTable}, semanticErrors(tree))

	columns := parse.NewNonTerminal("columns")
	columns.AddChild(parse.NewTerminal(lex.Token{Kind: "*", Literal: "*", Anonymous: true}))
	tree.AddChild(columns)
	assert.Equal(t, []string{MsgNoTable}, semanticErrors(tree))

	table := parse.NewNonTerminal("table")
	table.AddChild(parse.NewTerminal(lex.Token{Kind: "CNAME", Literal: "users"}))
	tree.AddChild(table)
	assert.Empty(t, semanticErrors(tree))
}

func TestDuplicates(t *testing.T) {
	t.Parallel()
	assert.Nil(t, duplicates(nil))
	assert.Nil(t, duplicates([]string{"a", "b", "c"}))
	assert.Equal(t, []string{"a", "b"}, duplicates([]string{"b", "a", "b", "a", "c"}))
	assert.Equal(t, []string{"x"}, duplicates([]string{"x", "x", "x"}))
}

func TestValidator_ValidateBatch(t *testing.T) {
	t.Parallel()
	v := mustValidator(t)

	texts := AllExamples()
	results := v.ValidateBatch(texts)
	require.Len(t, results, len(texts))

	invalid := make(map[string]bool)
	for _, text := range Examples(CategoryInvalid) {
		invalid[text] = true
	}
	for i, r := range results {
		assert.Equal(t, texts[i], r.Query)
		assert.Equal(t, !invalid[r.Query], r.Valid, r.Query)
	}
}

func TestValidator_CheckAmbiguity(t *testing.T) {
	t.Parallel()
	v := mustValidator(t)

	tests := []struct {
		text      string
		ambiguous bool
		count     int64
	}{
		{text: "SELECT * FROM users WHERE a = 1 AND b = 2 OR c = 3", ambiguous: true, count: 2},
		{text: "SELECT * FROM users WHERE a = 1 AND b = 2 AND c = 3 OR d = 4", ambiguous: true, count: 5},
		{text: "SELECT * FROM users WHERE (a = 1 AND b = 2) OR c = 3", count: 1},
		{text: "SELECT name FROM users", count: 1},
	}

	for _, tt := range tests {
		ambiguous, count, err := v.CheckAmbiguity(tt.text)
		require.NoError(t, err, tt.text)
		assert.Equal(t, tt.ambiguous, ambiguous, tt.text)
		assert.Equal(t, big.NewInt(tt.count), count, tt.text)
	}

	ambiguous, count, err := v.CheckAmbiguity("SELECT * users")
	assert.True(t, parse.IsSyntaxError(err))
	assert.False(t, ambiguous)
	assert.Equal(t, 0, count.Sign())
}

func TestExamples(t *testing.T) {
	t.Parallel()

	total := 0
	for _, c := range Categories {
		got, err := ParseCategory(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
		assert.NotEmpty(t, Examples(c))
		total += len(Examples(c))
	}
	assert.Len(t, AllExamples(), total)

	_, err := ParseCategory("style")
	assert.Error(t, err)

	ex := Examples(CategoryValid)
	ex[0] = "changed"
	assert.NotEqual(t, "changed", Examples(CategoryValid)[0])

	assert.Equal(t, []string{
		"SELECT * FROM users WHERE a = 1 AND b = 2 AND c = 3 OR d = 4",
		"SELECT * FROM users WHERE NOT status = 'banned' AND age > 18",
		"SELECT * FROM users WHERE price > 100 OR category = 'electronics' AND stock > 0",
	}, Examples(CategoryAmbiguous))
}
