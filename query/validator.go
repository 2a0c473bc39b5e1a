package query

import (
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/dhamidi/ambig/ebnf/parse"
)

// Messages reported by the validator.
const (
	MsgEmptyQuery       = "empty query"
	MsgNoColumns        = "SELECT must name at least one column"
	MsgNoTable          = "FROM must name a table"
	MsgDuplicateColumns = "duplicate columns in SELECT"
)

// Result is the outcome of validating one query.
type Result struct {
	Query    string
	Valid    bool
	Messages []string
	// Forest is nil when the query has no derivation.
	Forest *parse.Forest
	// Tree is the derivation the semantic checks ran on.
	Tree *parse.Node
}

// Validator checks queries for syntax and for the semantic rules every
// SELECT must satisfy. Syntax and semantics are checked against the
// precedence grammar; ambiguity is measured against the ambiguous one.
type Validator struct {
	parser    *Parser
	ambiguous *Parser
}

// NewValidator returns a validator over the embedded grammars.
func NewValidator() (*Validator, error) {
	p, err := NewParser(Precedence)
	if err != nil {
		return nil, err
	}
	a, err := NewParser(Ambiguous)
	if err != nil {
		return nil, err
	}
	return &Validator{parser: p, ambiguous: a}, nil
}

// Validate checks one query. Semantic checks run on derivation 0.
func (v *Validator) Validate(text string) Result {
	r := Result{Query: text}
	if strings.TrimSpace(text) == "" {
		r.Messages = []string{MsgEmptyQuery}
		return r
	}

	f, err := v.parser.Parse(text)
	if err != nil {
		r.Messages = []string{fmt.Sprintf("syntax error: %s", err)}
		return r
	}
	r.Forest = f

	tree, err := f.Derivation(0)
	if err != nil {
		r.Messages = []string{err.Error()}
		return r
	}
	r.Tree = tree
	r.Messages = semanticErrors(tree)
	r.Valid = len(r.Messages) == 0
	if !r.Valid {
		log.Debugf("invalid query %q: %s", text, strings.Join(r.Messages, "; "))
	}
	return r
}

func semanticErrors(tree *parse.Node) []string {
	var msgs []string

	columns := Columns(tree)
	if len(columns) == 0 && !SelectsAll(tree) {
		msgs = append(msgs, MsgNoColumns)
	}
	if Table(tree) == "" {
		msgs = append(msgs, MsgNoTable)
	}
	if dups := duplicates(columns); len(dups) > 0 {
		msgs = append(msgs, fmt.Sprintf("%s: %s", MsgDuplicateColumns, strings.Join(dups, ", ")))
	}
	return msgs
}

// duplicates returns the names occurring more than once, sorted.
func duplicates(names []string) []string {
	seen := make(map[string]bool, len(names))
	repeated := make(map[string]bool)
	for _, name := range names {
		if seen[name] {
			repeated[name] = true
		}
		seen[name] = true
	}
	if len(repeated) == 0 {
		return nil
	}
	dups := maps.Keys(repeated)
	slices.Sort(dups)
	return dups
}

// ValidateBatch validates every query independently, in order.
func (v *Validator) ValidateBatch(texts []string) []Result {
	results := make([]Result, len(texts))
	for i, text := range texts {
		results[i] = v.Validate(text)
	}
	return results
}

// CheckAmbiguity parses text with the ambiguous grammar and reports whether
// it has more than one derivation, and how many it has. A query without a
// derivation yields false, 0 and the parse error.
func (v *Validator) CheckAmbiguity(text string) (bool, *big.Int, error) {
	f, err := v.ambiguous.Parse(text)
	if err != nil {
		log.Debugf("no derivation for %q: %s", text, err)
		return false, new(big.Int), err
	}
	return f.IsAmbiguous(), f.DerivationCount(), nil
}
