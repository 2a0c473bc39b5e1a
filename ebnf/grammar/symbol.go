package grammar

import (
	"strconv"
	"text/scanner"
)

// SymbolKind distinguishes rule references from the two kinds of terminals.
type SymbolKind int

const (
	// NonTerminal refers to a rule by name.
	NonTerminal SymbolKind = iota
	// TokenKind matches any token produced by the named token class.
	TokenKind
	// Literal matches a token whose text is exactly the symbol name.
	Literal
)

func (k SymbolKind) String() string {
	switch k {
	case NonTerminal:
		return "NonTerminal"
	case TokenKind:
		return "TokenKind"
	case Literal:
		return "Literal"
	}
	return "Unknown"
}

// Symbol is an immutable grammar symbol. Two symbols are the same symbol
// iff they compare equal.
type Symbol struct {
	Kind SymbolKind
	Name string
}

// Ref returns a reference to the rule called name.
func Ref(name string) Symbol { return Symbol{Kind: NonTerminal, Name: name} }

// Tok returns a terminal matching tokens of the given class.
func Tok(kind string) Symbol { return Symbol{Kind: TokenKind, Name: kind} }

// Lit returns a terminal matching the exact text.
func Lit(text string) Symbol { return Symbol{Kind: Literal, Name: text} }

func (s Symbol) IsTerminal() bool {
	return s.Kind != NonTerminal
}

func (s Symbol) String() string {
	if s.Kind == Literal {
		return strconv.Quote(s.Name)
	}
	return s.Name
}

// Term is one element of a right-hand side: either a single symbol or a
// parenthesized group of alternatives, possibly optional or repeated.
type Term struct {
	Symbol   Symbol
	Group    []Alternative
	Optional bool // [ x ]
	Repeat   bool // { x }, zero or more
	Pos      scanner.Position
}

// Alternative is an ordered sequence of terms.
type Alternative []Term

// Rule pairs a non-terminal with its alternatives.
type Rule struct {
	Name         string
	Alternatives []Alternative
	Pos          scanner.Position
}

// Sym wraps a symbol into a plain term.
func Sym(s Symbol) Term { return Term{Symbol: s} }

// Seq builds an alternative from terms.
func Seq(terms ...Term) Alternative { return Alternative(terms) }

// Group builds a parenthesized term.
func Group(alts ...Alternative) Term { return Term{Group: alts} }

// Opt builds an optional term.
func Opt(alts ...Alternative) Term {
	t := simplify(alts)
	t.Optional = true
	return t
}

// Rep builds a term repeated zero or more times.
func Rep(alts ...Alternative) Term {
	t := simplify(alts)
	t.Repeat = true
	return t
}

// simplify collapses a group holding a single plain term into that term.
func simplify(alts []Alternative) Term {
	if len(alts) == 1 && len(alts[0]) == 1 {
		t := alts[0][0]
		if t.Group == nil && !t.Optional && !t.Repeat {
			return t
		}
	}
	pos := scanner.Position{}
	if len(alts) > 0 && len(alts[0]) > 0 {
		pos = alts[0][0].Pos
	}
	return Term{Group: alts, Pos: pos}
}

func (t Term) isGroup() bool {
	return t.Group != nil
}
