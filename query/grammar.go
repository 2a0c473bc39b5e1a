// Package query implements the SELECT query language on top of the
// grammar-driven parser: the embedded grammar variants, a parser facade,
// semantic validation and an example corpus.
package query

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/dhamidi/ambig/ebnf/grammar"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("ambig.query")

//go:embed grammars/*.ebnf
var grammars embed.FS

// ErrUnknownVariant is returned for a grammar variant name that is not defined.
var ErrUnknownVariant = errors.New("unknown grammar variant")

// Variant selects one of the embedded query grammars.
type Variant int

const (
	// Precedence layers OR below AND below NOT; every query has at most one
	// derivation.
	Precedence Variant = iota
	// Ambiguous gives AND and OR no precedence.
	Ambiguous
)

// Start is the start rule of both variants.
const Start = "query"

// Variants lists every variant in a stable order.
var Variants = []Variant{Precedence, Ambiguous}

func (v Variant) String() string {
	switch v {
	case Precedence:
		return "precedence"
	case Ambiguous:
		return "ambiguous"
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// ParseVariant returns the variant called name, ignoring case.
func ParseVariant(name string) (Variant, error) {
	for _, v := range Variants {
		if strings.EqualFold(v.String(), name) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
}

// Source returns the EBNF text of a variant.
func Source(v Variant) (string, error) {
	data, err := grammars.ReadFile("grammars/" + v.String() + ".ebnf")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnknownVariant, v)
	}
	return string(data), nil
}

var cache = grammar.NewCache()

// Grammar returns the compiled grammar of a variant. Compiled grammars are
// shared by every caller.
func Grammar(v Variant) (*grammar.Grammar, error) {
	src, err := Source(v)
	if err != nil {
		return nil, err
	}
	return LoadGrammar(src, Start)
}

// LoadGrammar compiles grammar text through the package grammar cache.
func LoadGrammar(text, start string) (*grammar.Grammar, error) {
	return cache.Load(text, start)
}
