package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dhamidi/ambig/ebnf/grammar"
	"github.com/dhamidi/ambig/ebnf/lex"
	"github.com/dhamidi/ambig/ebnf/parse"
)

// ErrEmptyQuery is returned for a query that is empty or only whitespace.
var ErrEmptyQuery = errors.New("empty query")

// Parser parses queries with one compiled grammar. A Parser is safe for
// concurrent use.
type Parser struct {
	grammar *grammar.Grammar
	start   string
}

// NewParser returns a parser for an embedded grammar variant.
func NewParser(v Variant) (*Parser, error) {
	g, err := Grammar(v)
	if err != nil {
		return nil, fmt.Errorf("load %s grammar: %w", v, err)
	}
	log.Debugf("parser created (grammar=%s)", v)
	return NewParserFromGrammar(g), nil
}

// NewParserFromGrammar returns a parser for g, starting from g's start rule.
func NewParserFromGrammar(g *grammar.Grammar) *Parser {
	return &Parser{grammar: g, start: g.Start()}
}

// WithStart returns a copy of p that parses from the rule start.
func (p *Parser) WithStart(start string) *Parser {
	return &Parser{grammar: p.grammar, start: start}
}

// Grammar returns the compiled grammar.
func (p *Parser) Grammar() *grammar.Grammar {
	return p.grammar
}

// Parse returns the derivation forest of text.
func (p *Parser) Parse(text string) (*parse.Forest, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyQuery
	}
	tokens, err := lex.Tokenize(p.grammar, text)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	ep := parse.NewEarleyParser(p.grammar, tokens)
	ep.SetInput(text)
	f, err := ep.ParseStart(p.start)
	if err != nil {
		log.Debugf("parse failed: %s", err)
		return nil, err
	}
	return f, nil
}

// CheckSyntax reports whether text has at least one derivation.
func (p *Parser) CheckSyntax(text string) error {
	_, err := p.Parse(text)
	return err
}

// ParseResult is the outcome of parsing one query of a batch.
type ParseResult struct {
	Query  string
	Forest *parse.Forest
	Err    error
}

// ParseMultiple parses every text independently, in order.
func (p *Parser) ParseMultiple(texts []string) []ParseResult {
	results := make([]ParseResult, len(texts))
	for i, text := range texts {
		f, err := p.Parse(text)
		results[i] = ParseResult{Query: text, Forest: f, Err: err}
	}
	return results
}

// Columns returns the projected column names of a query tree. It is empty,
// not nil, for SELECT *.
func Columns(tree *parse.Node) []string {
	columns, ok := tree.Extract("columns", "order_clause")
	if !ok {
		return []string{}
	}
	return columns
}

// Table returns the table name of a query tree, or "" when there is none.
func Table(tree *parse.Node) string {
	table, ok := tree.Extract("table", "order_clause")
	if !ok || len(table) == 0 {
		return ""
	}
	return table[0]
}

// SelectsAll reports whether the projection of a query tree is *.
func SelectsAll(tree *parse.Node) bool {
	columns := tree.Find("columns")
	if columns == nil {
		return false
	}
	for _, c := range columns.Children {
		if c.IsTerminal() && c.Token.Literal == "*" {
			return true
		}
	}
	return false
}
