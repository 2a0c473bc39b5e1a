package grammar

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/exp/ebnf"
	"golang.org/x/exp/slices"
)

// Parse reads Go-style EBNF productions from src and compiles them.
//
// Names starting with an upper-case letter are token classes, names
// starting with an underscore are lexical fragments, all other names are
// rules. Quoted strings inside rules are literal terminals. When start is
// empty, the first rule in the source is the start rule.
func Parse(filename string, src io.Reader, start string) (*Grammar, error) {
	prods, err := ebnf.Parse(filename, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	ordered := make([]*ebnf.Production, 0, len(prods))
	for _, p := range prods {
		ordered = append(ordered, p)
	}
	slices.SortFunc(ordered, func(a, b *ebnf.Production) int {
		return a.Pos().Offset - b.Pos().Offset
	})

	b := NewBuilder(start)
	var errs []error
	for _, p := range ordered {
		name := p.Name.String
		switch {
		case isFragmentName(name):
			b.DefineFragment(name, p.Expr)
		case isTokenName(name):
			b.DefineToken(name, p.Expr)
		default:
			if b.start == "" {
				b.start = name
			}
			alts, err := convertAlternatives(p.Expr)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			b.defineAt(name, p.Pos(), alts)
		}
	}
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return b.Compile()
}

// ParseString is Parse over a string.
func ParseString(filename, src, start string) (*Grammar, error) {
	return Parse(filename, strings.NewReader(src), start)
}

// LoadGrammar reads and compiles a grammar file.
func LoadGrammar(filename, start string) (*Grammar, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open grammar: %w", err)
	}
	defer f.Close()

	return Parse(filename, f, start)
}

func isTokenName(name string) bool {
	ch, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(ch)
}

func isFragmentName(name string) bool {
	return strings.HasPrefix(name, "_")
}

func convertAlternatives(x ebnf.Expression) ([]Alternative, error) {
	switch x := x.(type) {
	case nil:
		return nil, nil
	case ebnf.Alternative:
		alts := make([]Alternative, 0, len(x))
		for _, e := range x {
			alt, err := convertSequence(e)
			if err != nil {
				return nil, err
			}
			alts = append(alts, alt)
		}
		return alts, nil
	}
	alt, err := convertSequence(x)
	if err != nil {
		return nil, err
	}
	return []Alternative{alt}, nil
}

func convertSequence(x ebnf.Expression) (Alternative, error) {
	seq, ok := x.(ebnf.Sequence)
	if !ok {
		seq = ebnf.Sequence{x}
	}
	alt := make(Alternative, 0, len(seq))
	for _, e := range seq {
		t, err := convertTerm(e)
		if err != nil {
			return nil, err
		}
		alt = append(alt, t)
	}
	return alt, nil
}

func convertTerm(x ebnf.Expression) (Term, error) {
	switch x := x.(type) {
	case *ebnf.Name:
		sym := Ref(x.String)
		if isTokenName(x.String) {
			sym = Tok(x.String)
		}
		return Term{Symbol: sym, Pos: x.Pos()}, nil
	case *ebnf.Token:
		return Term{Symbol: Lit(x.String), Pos: x.Pos()}, nil
	case *ebnf.Group:
		alts, err := convertAlternatives(x.Body)
		if err != nil {
			return Term{}, err
		}
		t := simplify(alts)
		t.Pos = x.Pos()
		return t, nil
	case *ebnf.Option:
		alts, err := convertAlternatives(x.Body)
		if err != nil {
			return Term{}, err
		}
		t := Opt(alts...)
		t.Pos = x.Pos()
		return t, nil
	case *ebnf.Repetition:
		alts, err := convertAlternatives(x.Body)
		if err != nil {
			return Term{}, err
		}
		t := Rep(alts...)
		t.Pos = x.Pos()
		return t, nil
	case *ebnf.Range:
		return Term{}, &Error{Err: ErrSyntax, Msg: "character range outside a token class", Pos: x.Pos()}
	}
	return Term{}, &Error{Err: ErrSyntax, Msg: fmt.Sprintf("unexpected expression %T", x), Pos: exprPos(x)}
}
