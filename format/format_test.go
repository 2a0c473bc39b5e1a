package format

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/dhamidi/ambig/ebnf/grammar"
	"github.com/dhamidi/ambig/ebnf/lex"
	"github.com/dhamidi/ambig/ebnf/parse"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func token(kind, literal string, offset int, anonymous bool) lex.Token {
	return lex.Token{
		Kind:      kind,
		Literal:   literal,
		Position:  lex.Position{Offset: offset, Line: 1, Column: offset + 1},
		Anonymous: anonymous,
	}
}

// sampleTree is the tree of `SELECT 'it''s'`.
func sampleTree() *parse.Node {
	value := parse.NewNonTerminal("value")
	value.AddChild(parse.NewTerminal(token("STRING", `'it''s'`, 7, false)))

	root := parse.NewNonTerminal("query")
	root.AddChild(parse.NewTerminal(token("SELECT", "SELECT", 0, true)))
	root.AddChild(value)
	return root
}

func TestTreeJSONEncoder(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, NewTreeJSONEncoder(&buf).Encode(sampleTree()))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, "tree", got["type"])
	assert.Equal(t, "query", got["name"])
	assert.NotContains(t, got, "value")

	children := got["children"].([]any)
	require.Len(t, children, 2)

	kw := children[0].(map[string]any)
	assert.Equal(t, "token", kw["type"])
	assert.Equal(t, "SELECT", kw["name"])
	assert.Equal(t, "SELECT", kw["value"])

	value := children[1].(map[string]any)
	leaf := value["children"].([]any)[0].(map[string]any)
	assert.Equal(t, `'it''s'`, leaf["value"], "literal text is preserved exactly")

	span := value["span"].(map[string]any)
	assert.Equal(t, map[string]any{"offset": float64(7), "line": float64(1), "column": float64(8)}, span["start"])
	assert.Equal(t, map[string]any{"offset": float64(14), "line": float64(1), "column": float64(15)}, span["end"])
}

func TestTreeTextEncoder(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, NewTreeTextEncoder(&buf, termenv.Ascii).Encode(sampleTree()))
	assert.Equal(t, `query
  SELECT "SELECT"
  value
    STRING "'it''s'"
`, buf.String())

	buf.Reset()
	require.NoError(t, NewTreeTextEncoder(&buf, termenv.Ascii).WithPositions(true).Encode(sampleTree()))
	assert.Equal(t, `query @1:1
  SELECT "SELECT" @1:1
  value @1:8
    STRING "'it''s'" @1:8
`, buf.String())

	text, err := NewTreeTextEncoder(&buf, termenv.Ascii).MarshalText()
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestTreeTextEncoder_Colors(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, NewTreeTextEncoder(&buf, termenv.ANSI).Encode(sampleTree()))
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "query")
}

func TestNewTreeEncoder(t *testing.T) {
	t.Parallel()
	for _, name := range append([]string{"text"}, Formats...) {
		enc, err := NewTreeEncoder(name, &bytes.Buffer{}, termenv.Ascii)
		require.NoError(t, err, name)
		assert.NotNil(t, enc)
	}

	_, err := NewTreeEncoder("xml", &bytes.Buffer{}, termenv.Ascii)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestReportJSONEncoder(t *testing.T) {
	t.Parallel()
	g, err := grammar.ParseString("sum", `expr = expr "+" expr | NUM . NUM = "0" … "9" .`, "")
	require.NoError(t, err)
	f, err := parse.ParseString(g, "1+2+3")
	require.NoError(t, err)

	trees := f.Derivations(2)
	require.Len(t, trees, 2)

	var buf bytes.Buffer
	require.NoError(t, NewReportJSONEncoder(&buf).Encode(Report{Query: "1+2+3", Forest: f, Index: 0, Tree: trees[0]}))

	var one map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &one))
	assert.Equal(t, "1+2+3", one["query"])
	assert.Equal(t, true, one["is_ambiguous"])
	assert.Equal(t, float64(2), one["derivation_count"])
	assert.Equal(t, float64(0), one["index"])
	assert.Equal(t, "expr", one["tree"].(map[string]any)["name"])

	buf.Reset()
	require.NoError(t, NewReportJSONEncoder(&buf).Encode(
		Report{Query: "1+2+3", Forest: f, Index: 0, Tree: trees[0]},
		Report{Query: "1+2+3", Forest: f, Index: 1, Tree: trees[1]},
	))
	var many []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &many))
	require.Len(t, many, 2)
	assert.Equal(t, float64(1), many[1]["index"])
	assert.NotEqual(t, many[0]["tree"], many[1]["tree"])
}

func TestLineEncoder(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	tokens := []lex.Token{
		token("SELECT", "SELECT", 0, true),
		token("STRING", `'a\b'`, 7, false),
	}
	require.NoError(t, NewLineEncoder(&buf).Encode(tokens))
	assert.Equal(t, "1:1\tliteral\t\"SELECT\"\n1:8\tSTRING\t\"'a\\\\b'\"\n", buf.String())
}
