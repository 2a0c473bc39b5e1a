package parse

import (
	"errors"
	"fmt"

	"github.com/dhamidi/ambig/ebnf/grammar"
	"github.com/dhamidi/ambig/ebnf/lex"
)

// ParseTokens parses tokens with g from its start rule.
func ParseTokens(g *grammar.Grammar, tokens []lex.Token) (*Forest, error) {
	return NewEarleyParser(g, tokens).Parse()
}

// ParseString tokenizes and parses input.
func ParseString(g *grammar.Grammar, input string, opts ...lex.Option) (*Forest, error) {
	return ParseFile(g, []byte(input), "", opts...)
}

// ParseFile tokenizes and parses input, reporting positions in filename.
func ParseFile(g *grammar.Grammar, input []byte, filename string, opts ...lex.Option) (*Forest, error) {
	tokens, err := lex.NewLexer(g, input, filename, opts...).Tokenize()
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	p := NewEarleyParser(g, tokens)
	p.SetInput(string(input))
	return p.Parse()
}

// IsSyntaxError reports whether err is a failed derivation rather than a
// lexical or usage error.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}
