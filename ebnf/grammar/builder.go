package grammar

import (
	"errors"
	"fmt"
	"text/scanner"

	"golang.org/x/exp/ebnf"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Builder collects rule and token definitions for Compile.
type Builder struct {
	start     string
	rules     []Rule
	tokens    []TokenDef
	fragments []TokenDef
	errs      []error
	defined   map[string]bool
}

// NewBuilder returns a builder for a grammar whose start rule is start.
func NewBuilder(start string) *Builder {
	return &Builder{
		start:   start,
		defined: make(map[string]bool),
	}
}

// Define adds a rule. Defining the same name twice is reported by Compile.
func (b *Builder) Define(name string, alts ...Alternative) *Builder {
	return b.defineAt(name, scanner.Position{}, alts)
}

func (b *Builder) defineAt(name string, pos scanner.Position, alts []Alternative) *Builder {
	if !b.declare(name, pos) {
		return b
	}
	b.rules = append(b.rules, Rule{Name: name, Alternatives: alts, Pos: pos})
	return b
}

// DefineToken adds a token class matched by expr.
func (b *Builder) DefineToken(name string, expr ebnf.Expression) *Builder {
	if !b.declare(name, exprPos(expr)) {
		return b
	}
	b.tokens = append(b.tokens, TokenDef{Name: name, Expr: expr})
	return b
}

// DefineFragment adds a lexical fragment that token classes may reference
// but which never produces tokens itself.
func (b *Builder) DefineFragment(name string, expr ebnf.Expression) *Builder {
	if !b.declare(name, exprPos(expr)) {
		return b
	}
	b.fragments = append(b.fragments, TokenDef{Name: name, Expr: expr})
	return b
}

func (b *Builder) declare(name string, pos scanner.Position) bool {
	if b.defined[name] {
		b.errs = append(b.errs, &Error{Err: ErrDuplicate, Symbol: name, Pos: pos})
		return false
	}
	b.defined[name] = true
	return true
}

func exprPos(x ebnf.Expression) scanner.Position {
	if x == nil {
		return scanner.Position{}
	}
	return x.Pos()
}

// Compile validates the definitions and lowers them into BNF productions.
// Every problem found is reported; the returned error joins them.
func (b *Builder) Compile() (*Grammar, error) {
	errs := append([]error(nil), b.errs...)
	errs = append(errs, b.validate()...)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	g := &Grammar{
		start:     b.start,
		rules:     slices.Clone(b.rules),
		ruleIndex: make(map[string]int, len(b.rules)),
		tokens:    slices.Clone(b.tokens),
		fragments: make(map[string]ebnf.Expression, len(b.fragments)),
		ids:       make(map[Symbol]int),
	}
	for i, r := range b.rules {
		g.ruleIndex[r.Name] = i
	}
	for _, f := range b.fragments {
		g.fragments[f.Name] = f.Expr
	}

	l := &lowering{g: g, seenLiteral: make(map[string]bool)}
	for _, r := range b.rules {
		l.intern(Ref(r.Name), false)
	}
	for _, r := range b.rules {
		lhs := g.ids[Ref(r.Name)]
		l.rule = r.Name
		l.counter = 0
		for _, alt := range r.Alternatives {
			l.add(lhs, l.sequence(alt))
		}
	}
	g.startID = g.ids[Ref(b.start)]
	g.computeNullable()
	return g, nil
}

func (b *Builder) validate() []error {
	var errs []error
	rules := make(map[string]bool, len(b.rules))
	for _, r := range b.rules {
		rules[r.Name] = true
	}
	tokens := make(map[string]bool, len(b.tokens))
	for _, t := range b.tokens {
		tokens[t.Name] = true
	}
	lexical := make(map[string]bool, len(b.tokens)+len(b.fragments))
	for _, t := range b.tokens {
		lexical[t.Name] = true
	}
	for _, f := range b.fragments {
		lexical[f.Name] = true
	}

	if !rules[b.start] {
		errs = append(errs, &Error{Err: ErrMissingStart, Symbol: b.start})
	}

	var checkTerms func(rule string, alts []Alternative)
	checkTerms = func(rule string, alts []Alternative) {
		for _, alt := range alts {
			for _, t := range alt {
				if t.isGroup() {
					checkTerms(rule, t.Group)
					continue
				}
				switch t.Symbol.Kind {
				case NonTerminal:
					if !rules[t.Symbol.Name] {
						errs = append(errs, &Error{Err: ErrUndefinedSymbol, Symbol: t.Symbol.Name, Rule: rule, Pos: t.Pos})
					}
				case TokenKind:
					if !tokens[t.Symbol.Name] {
						errs = append(errs, &Error{Err: ErrUndefinedSymbol, Symbol: t.Symbol.Name, Rule: rule, Pos: t.Pos})
					}
				}
			}
		}
	}
	for _, r := range b.rules {
		if len(r.Alternatives) == 0 {
			errs = append(errs, &Error{Err: ErrEmptyRule, Symbol: r.Name, Pos: r.Pos})
			continue
		}
		checkTerms(r.Name, r.Alternatives)
	}

	for _, t := range append(append([]TokenDef(nil), b.tokens...), b.fragments...) {
		if t.Expr == nil {
			errs = append(errs, &Error{Err: ErrEmptyRule, Symbol: t.Name})
			continue
		}
		for _, ref := range exprNames(t.Expr) {
			if !lexical[ref.String] {
				errs = append(errs, &Error{Err: ErrUndefinedSymbol, Symbol: ref.String, Rule: t.Name, Pos: ref.StringPos})
			}
		}
	}
	return errs
}

func exprNames(x ebnf.Expression) []*ebnf.Name {
	var out []*ebnf.Name
	var walk func(ebnf.Expression)
	walk = func(x ebnf.Expression) {
		switch x := x.(type) {
		case ebnf.Alternative:
			for _, e := range x {
				walk(e)
			}
		case ebnf.Sequence:
			for _, e := range x {
				walk(e)
			}
		case *ebnf.Name:
			out = append(out, x)
		case *ebnf.Group:
			walk(x.Body)
		case *ebnf.Option:
			walk(x.Body)
		case *ebnf.Repetition:
			walk(x.Body)
		}
	}
	walk(x)
	return out
}

type lowering struct {
	g           *Grammar
	rule        string
	counter     int
	seenLiteral map[string]bool
}

func (l *lowering) intern(s Symbol, hidden bool) int {
	if id, ok := l.g.ids[s]; ok {
		return id
	}
	id := len(l.g.symbols)
	l.g.symbols = append(l.g.symbols, s)
	l.g.hidden = append(l.g.hidden, hidden)
	l.g.byLHS = append(l.g.byLHS, nil)
	l.g.ids[s] = id
	if s.Kind == Literal && !l.seenLiteral[s.Name] {
		l.seenLiteral[s.Name] = true
		l.g.literals = append(l.g.literals, s.Name)
	}
	return id
}

func (l *lowering) fresh() int {
	l.counter++
	return l.intern(Ref(fmt.Sprintf("%s~%d", l.rule, l.counter)), true)
}

func (l *lowering) add(lhs int, rhs []int) {
	p := Production{ID: len(l.g.prods), LHS: lhs, RHS: rhs, Hidden: l.g.hidden[lhs]}
	l.g.prods = append(l.g.prods, p)
	l.g.byLHS[lhs] = append(l.g.byLHS[lhs], p.ID)
}

func (l *lowering) sequence(alt Alternative) []int {
	rhs := make([]int, 0, len(alt))
	for _, t := range alt {
		rhs = append(rhs, l.term(t))
	}
	return rhs
}

// term lowers one term:
//
//	( A | B )  =>  H = A | B .
//	[ X ]      =>  H = X | ε .
//	{ X }      =>  H = H X | ε .
func (l *lowering) term(t Term) int {
	var base int
	if t.isGroup() {
		base = l.fresh()
		for _, alt := range t.Group {
			l.add(base, l.sequence(alt))
		}
	} else {
		base = l.intern(t.Symbol, false)
	}
	switch {
	case t.Repeat:
		h := l.fresh()
		l.add(h, []int{h, base})
		l.add(h, nil)
		return h
	case t.Optional:
		h := l.fresh()
		l.add(h, []int{base})
		l.add(h, nil)
		return h
	}
	return base
}

func (g *Grammar) computeNullable() {
	g.nullable = make([]bool, len(g.symbols))
	for changed := true; changed; {
		changed = false
		for _, p := range g.prods {
			if g.nullable[p.LHS] {
				continue
			}
			all := true
			for _, s := range p.RHS {
				if !g.nullable[s] {
					all = false
					break
				}
			}
			if all {
				g.nullable[p.LHS] = true
				changed = true
			}
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
