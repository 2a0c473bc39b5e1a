package parse

import (
	"errors"
	"testing"

	"github.com/dhamidi/ambig/ebnf/grammar"
	"github.com/dhamidi/ambig/ebnf/lex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustGrammar(t *testing.T, src string) *grammar.Grammar {
	t.Helper()
	g, err := grammar.ParseString("test", src, "")
	require.NoError(t, err)
	return g
}

const sumGrammar = `
	expr = expr "+" expr | NUM .
	NUM = _digit { _digit } .
	_digit = "0" … "9" .
`

func TestEarleyParser_AlternativeItems(t *testing.T) {
	t.Parallel()
	g := mustGrammar(t, `
		classModifier = annotation | "public" | "private" .
		annotation = "@" Identifier .
		Identifier = _letter { _letter } .
		_letter = "a" … "z" .
	`)

	tokens := []lex.Token{
		{Kind: "Identifier", Literal: "public"},
	}

	parser := NewEarleyParser(g, tokens)
	_, err := parser.Parse()
	require.NoError(t, err)

	chart := parser.Chart()
	require.Len(t, chart, 2)

	publicID, ok := g.SymbolID(grammar.Lit("public"))
	require.True(t, ok)

	found := false
	for _, item := range chart[0].Items() {
		if len(item.Prod.RHS) == 1 && item.Prod.RHS[0] == publicID {
			found = true
		}
	}
	assert.True(t, found, "expected the \"public\" alternative to be predicted in chart[0]")
}

func TestEarleyParser_MultipleRepetitions(t *testing.T) {
	t.Parallel()
	g := mustGrammar(t, `
		methodDeclaration = { methodModifier } result methodDeclarator .
		methodModifier = "public" | "static" | "final" .
		result = "void" | "int" .
		methodDeclarator = Identifier "(" ")" .
		Identifier = _letter { _letter } .
		_letter = "a" … "z" .
	`)

	f, err := ParseString(g, "public static void main()")
	require.NoError(t, err)
	assert.False(t, f.IsAmbiguous())

	tree, err := f.Derivation(0)
	require.NoError(t, err)
	assert.Equal(t, "methodDeclaration", tree.Kind)

	kinds := make([]string, 0, len(tree.Children))
	for _, c := range tree.Children {
		kinds = append(kinds, c.Kind)
	}
	assert.Equal(t, []string{"methodModifier", "methodModifier", "result", "methodDeclarator"}, kinds)
}

func TestItemSetDeduplication(t *testing.T) {
	t.Parallel()
	g := mustGrammar(t, sumGrammar)

	p := NewEarleyParser(g, mustTokens(t, g, "1+2+3"))
	_, err := p.Parse()
	require.NoError(t, err)

	for _, set := range p.Chart() {
		seen := make(map[itemKey]bool)
		for _, item := range set.Items() {
			key := itemKey{prod: item.Prod.ID, dot: item.Dot, origin: item.Origin}
			assert.False(t, seen[key], "duplicate item %s in set %d", item, set.Position())
			seen[key] = true
		}
	}

	set := newItemSet(0)
	prod := g.Production(0)
	first, added := set.Add(&Item{Prod: prod})
	assert.True(t, added)
	second, added := set.Add(&Item{Prod: prod})
	assert.False(t, added)
	assert.Same(t, first, second)
	assert.Len(t, set.Items(), 1)
}

func mustTokens(t *testing.T, g *grammar.Grammar, input string) []lex.Token {
	t.Helper()
	tokens, err := lex.Tokenize(g, input)
	require.NoError(t, err)
	return tokens
}

func TestEarleyParser_EmptyInput(t *testing.T) {
	t.Parallel()
	g := mustGrammar(t, `s = [ "a" ] .`)

	for _, input := range []string{"", "   \n\t"} {
		_, err := ParseString(g, input)
		assert.ErrorIs(t, err, ErrEmptyInput, "input %q", input)
	}

	p := NewEarleyParser(g, nil)
	_, err := p.Parse()
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Nil(t, p.Chart(), "the chart must not be built for empty input")
}

func TestEarleyParser_UnknownStart(t *testing.T) {
	t.Parallel()
	g := mustGrammar(t, sumGrammar)

	_, err := NewEarleyParser(g, mustTokens(t, g, "1")).ParseStart("statement")
	assert.ErrorIs(t, err, ErrUnknownStart)
}

func TestEarleyParser_ParseStart(t *testing.T) {
	t.Parallel()
	g := mustGrammar(t, `
		pair = item "," item .
		item = NAME .
		NAME = "a" … "z" { "a" … "z" } .
	`)
	tokens := mustTokens(t, g, "alpha")

	_, err := NewEarleyParser(g, tokens).Parse()
	assert.True(t, IsSyntaxError(err))

	f, err := NewEarleyParser(g, tokens).ParseStart("item")
	require.NoError(t, err)
	assert.Equal(t, "item", f.Root.Symbol)
}

func TestEarleyParser_SyntaxError(t *testing.T) {
	t.Parallel()
	g := mustGrammar(t, `s = "a" "b" [ "c" ] .`)

	tests := []struct {
		name     string
		input    string
		furthest int
		offset   int
		found    string
		expected []string
	}{
		{name: "unexpected token", input: "a a", furthest: 1, offset: 2, found: "a", expected: []string{`"b"`}},
		{name: "end of input", input: "a", furthest: 1, offset: 1, expected: []string{`"b"`}},
		{name: "trailing token", input: "a b c c", furthest: 3, offset: 6, found: "c"},
		{name: "first token", input: "b", furthest: 0, offset: 0, found: "b", expected: []string{`"a"`}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseString(g, tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNoDerivation)

			var se *SyntaxError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.furthest, se.Furthest)
			assert.Equal(t, tt.offset, se.Offset)
			assert.Equal(t, tt.expected, se.Expected)
			if tt.found == "" {
				assert.Nil(t, se.Found)
			} else {
				require.NotNil(t, se.Found)
				assert.Equal(t, tt.found, se.Found.Literal)
			}
		})
	}
}

func TestEarleyParser_LexError(t *testing.T) {
	t.Parallel()
	g := mustGrammar(t, sumGrammar)

	_, err := ParseString(g, "1 + #")
	assert.ErrorIs(t, err, lex.ErrUnexpectedCharacter)
	assert.False(t, IsSyntaxError(err))
}

func TestEarleyParser_Nullable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		grammar string
		input   string
		want    string
	}{
		{
			name:    "leading optional",
			grammar: `s = [ "a" ] "b" .`,
			input:   "b",
			want:    "s\n  b \"b\"\n",
		},
		{
			name:    "optional present",
			grammar: `s = [ "a" ] "b" .`,
			input:   "a b",
			want:    "s\n  a \"a\"\n  b \"b\"\n",
		},
		{
			name:    "nullable rule in the middle",
			grammar: `s = "x" opt "y" . opt = [ "a" ] .`,
			input:   "x y",
			want:    "s\n  x \"x\"\n  opt\n  y \"y\"\n",
		},
		{
			name:    "repetition",
			grammar: `s = { "a" } "b" .`,
			input:   "a a a b",
			want:    "s\n  a \"a\"\n  a \"a\"\n  a \"a\"\n  b \"b\"\n",
		},
		{
			name:    "chained nullable rules",
			grammar: `s = p q "z" . p = [ "p" ] . q = { "q" } .`,
			input:   "q z",
			want:    "s\n  p\n  q\n    q \"q\"\n  z \"z\"\n",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := mustGrammar(t, tt.grammar)
			f, err := ParseString(g, tt.input)
			require.NoError(t, err)
			assert.Equal(t, int64(1), f.DerivationCount().Int64())

			tree, err := f.Derivation(0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tree.String())
		})
	}
}

func TestEarleyParser_LeftAndRightRecursion(t *testing.T) {
	t.Parallel()
	g := mustGrammar(t, `
		list = left ";" right .
		left = left "," NUM | NUM .
		right = NUM "," right | NUM .
		NUM = "0" … "9" .
	`)

	f, err := ParseString(g, "1,2,3 ; 4,5,6")
	require.NoError(t, err)
	assert.False(t, f.IsAmbiguous())

	tree, err := f.Derivation(0)
	require.NoError(t, err)
	values, ok := tree.Extract("left")
	require.True(t, ok)
	assert.Equal(t, []string{"1", "2", "3"}, values)
	values, ok = tree.Extract("right")
	require.True(t, ok)
	assert.Equal(t, []string{"4", "5", "6"}, values)
}

func TestEarleyParser_CyclicGrammar(t *testing.T) {
	t.Parallel()
	g := mustGrammar(t, `s = s | "a" .`)

	f, err := ParseString(g, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.DerivationCount().Int64())
	assert.False(t, f.IsAmbiguous())
}
