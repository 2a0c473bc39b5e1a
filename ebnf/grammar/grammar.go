// Package grammar holds context-free grammars for the Earley parser.
//
// A grammar is built either programmatically with a Builder or from Go-style
// EBNF text with Parse. Compiled grammars are immutable and may be shared by
// any number of concurrent parses.
package grammar

import (
	"fmt"
	"strings"

	"golang.org/x/exp/ebnf"
)

// Production is one lowered BNF production. Hidden productions stand for
// the groups, options and repetitions of the source rules.
type Production struct {
	ID     int
	LHS    int
	RHS    []int
	Hidden bool
}

// TokenDef defines a lexical class by an EBNF expression over characters.
type TokenDef struct {
	Name string
	Expr ebnf.Expression
}

// Grammar is a compiled grammar.
type Grammar struct {
	start     string
	startID   int
	rules     []Rule
	ruleIndex map[string]int
	tokens    []TokenDef
	fragments map[string]ebnf.Expression
	literals  []string

	symbols  []Symbol
	ids      map[Symbol]int
	hidden   []bool
	prods    []Production
	byLHS    [][]int
	nullable []bool
}

// Start returns the name of the start rule.
func (g *Grammar) Start() string { return g.start }

// StartID returns the symbol id of the start rule.
func (g *Grammar) StartID() int { return g.startID }

// Rules returns the source rules in definition order.
func (g *Grammar) Rules() []Rule { return g.rules }

// Rule returns the rule called name, or nil.
func (g *Grammar) Rule(name string) *Rule {
	i, ok := g.ruleIndex[name]
	if !ok {
		return nil
	}
	return &g.rules[i]
}

// Has reports whether name is a rule or a token class.
func (g *Grammar) Has(name string) bool {
	if _, ok := g.ruleIndex[name]; ok {
		return true
	}
	for _, t := range g.tokens {
		if t.Name == name {
			return true
		}
	}
	return false
}

// Tokens returns the token classes in declaration order.
func (g *Grammar) Tokens() []TokenDef { return g.tokens }

// Fragment returns the lexical fragment called name, or nil.
func (g *Grammar) Fragment(name string) ebnf.Expression { return g.fragments[name] }

// Literals returns every literal terminal used by the rules, in first-use order.
func (g *Grammar) Literals() []string { return g.literals }

// NumSymbols returns the number of interned symbols.
func (g *Grammar) NumSymbols() int { return len(g.symbols) }

// Symbol returns the symbol with the given id.
func (g *Grammar) Symbol(id int) Symbol { return g.symbols[id] }

// SymbolID returns the id of s.
func (g *Grammar) SymbolID(s Symbol) (int, bool) {
	id, ok := g.ids[s]
	return id, ok
}

// IsHidden reports whether the symbol was introduced by lowering.
func (g *Grammar) IsHidden(id int) bool { return g.hidden[id] }

// Nullable reports whether the symbol derives the empty string.
func (g *Grammar) Nullable(id int) bool { return g.nullable[id] }

// Productions returns all lowered productions.
func (g *Grammar) Productions() []Production { return g.prods }

// ProductionsFor returns the productions whose left-hand side is id.
func (g *Grammar) ProductionsFor(id int) []Production {
	out := make([]Production, 0, len(g.byLHS[id]))
	for _, p := range g.byLHS[id] {
		out = append(out, g.prods[p])
	}
	return out
}

// ProductionIDs returns the ids of the productions whose left-hand side is id.
// The returned slice must not be modified.
func (g *Grammar) ProductionIDs(id int) []int { return g.byLHS[id] }

// Production returns the production with the given id.
func (g *Grammar) Production(id int) Production { return g.prods[id] }

// String renders the grammar as EBNF.
func (g *Grammar) String() string {
	var sb strings.Builder
	for _, r := range g.rules {
		fmt.Fprintf(&sb, "%s = %s .\n", r.Name, alternativesString(r.Alternatives))
	}
	for _, t := range g.tokens {
		fmt.Fprintf(&sb, "%s = %s .\n", t.Name, ExprString(t.Expr))
	}
	for _, name := range sortedKeys(g.fragments) {
		fmt.Fprintf(&sb, "%s = %s .\n", name, ExprString(g.fragments[name]))
	}
	return sb.String()
}

func alternativesString(alts []Alternative) string {
	parts := make([]string, len(alts))
	for i, alt := range alts {
		terms := make([]string, len(alt))
		for j, t := range alt {
			terms[j] = t.String()
		}
		parts[i] = strings.Join(terms, " ")
	}
	return strings.Join(parts, " | ")
}

func (t Term) String() string {
	var body string
	if t.isGroup() {
		body = alternativesString(t.Group)
	} else {
		body = t.Symbol.String()
	}
	switch {
	case t.Repeat:
		return "{ " + body + " }"
	case t.Optional:
		return "[ " + body + " ]"
	case t.isGroup():
		return "( " + body + " )"
	}
	return body
}

// ExprString renders an EBNF expression.
func ExprString(x ebnf.Expression) string {
	switch x := x.(type) {
	case nil:
		return ""
	case ebnf.Alternative:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = ExprString(e)
		}
		return strings.Join(parts, " | ")
	case ebnf.Sequence:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = ExprString(e)
		}
		return strings.Join(parts, " ")
	case *ebnf.Name:
		return x.String
	case *ebnf.Token:
		return fmt.Sprintf("%q", x.String)
	case *ebnf.Range:
		return fmt.Sprintf("%q … %q", x.Begin.String, x.End.String)
	case *ebnf.Group:
		return "( " + ExprString(x.Body) + " )"
	case *ebnf.Option:
		return "[ " + ExprString(x.Body) + " ]"
	case *ebnf.Repetition:
		return "{ " + ExprString(x.Body) + " }"
	}
	return "?"
}
