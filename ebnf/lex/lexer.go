// Package lex tokenizes input using the literals and token classes of a
// compiled grammar.
package lex

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/dhamidi/ambig/ebnf/grammar"
	"golang.org/x/exp/ebnf"
	"golang.org/x/exp/slices"
)

// ErrUnexpectedCharacter is returned when no token starts at a position.
var ErrUnexpectedCharacter = errors.New("unexpected character")

// Position represents a location in source code.
type Position struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token represents a lexical token with its position.
// Anonymous tokens were matched by a literal of the grammar (keywords and
// punctuation); their Kind is their text.
type Token struct {
	Kind      string
	Literal   string
	Position  Position
	Anonymous bool
}

// End returns the byte offset just past the token.
func (t Token) End() int {
	return t.Position.Offset + len(t.Literal)
}

func (t Token) String() string {
	return fmt.Sprintf("%s %s %q", t.Position, t.Kind, t.Literal)
}

// Error reports input that no token pattern matches.
type Error struct {
	Pos  Position
	Char rune
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v %q", e.Pos, ErrUnexpectedCharacter, e.Char)
}

func (e *Error) Unwrap() error {
	return ErrUnexpectedCharacter
}

// memoKey is used for memoization of match results.
type memoKey struct {
	name   string
	offset int
}

// Option configures a Lexer.
type Option func(*Lexer)

// WithSkipKinds drops tokens of the given classes from the output.
func WithSkipKinds(kinds ...string) Option {
	return func(l *Lexer) {
		for _, k := range kinds {
			l.skipKinds[k] = true
		}
	}
}

// Lexer tokenizes input based on a grammar.
type Lexer struct {
	grammar   *grammar.Grammar
	input     []byte
	filename  string
	pos       int
	line      int
	column    int
	keywords  []string
	operators []string
	skipKinds map[string]bool
	memo      map[memoKey]int  // match length per production and offset, -1 = no match
	visiting  map[memoKey]bool // cycle detection
}

// NewLexer creates a lexer for the given grammar and input.
func NewLexer(g *grammar.Grammar, input []byte, filename string, opts ...Option) *Lexer {
	l := &Lexer{
		grammar:   g,
		input:     input,
		filename:  filename,
		line:      1,
		column:    1,
		skipKinds: make(map[string]bool),
		memo:      make(map[memoKey]int),
		visiting:  make(map[memoKey]bool),
	}
	for _, lit := range g.Literals() {
		if lit == "" {
			continue
		}
		if isWord(lit) {
			l.keywords = append(l.keywords, lit)
		} else {
			l.operators = append(l.operators, lit)
		}
	}
	longestFirst := func(a, b string) int { return len(b) - len(a) }
	slices.SortStableFunc(l.keywords, longestFirst)
	slices.SortStableFunc(l.operators, longestFirst)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Tokenize tokenizes input with g.
func Tokenize(g *grammar.Grammar, input string, opts ...Option) ([]Token, error) {
	return NewLexer(g, []byte(input), "", opts...).Tokenize()
}

// Position returns the current position in the input.
func (l *Lexer) Position() Position {
	return Position{
		Filename: l.filename,
		Offset:   l.pos,
		Line:     l.line,
		Column:   l.column,
	}
}

func (l *Lexer) advance() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	ch, size := utf8.DecodeRune(l.input[l.pos:])
	l.pos += size
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

func (l *Lexer) skipSpace() {
	for l.pos < len(l.input) {
		ch, _ := utf8.DecodeRune(l.input[l.pos:])
		if !unicode.IsSpace(ch) {
			return
		}
		l.advance()
	}
}

// Next returns the next token. ok is false at the end of the input.
//
// Patterns are tried in priority order: keywords (at a word boundary), then
// operators, both longest first, then token classes in declaration order.
// The first pattern that matches wins.
func (l *Lexer) Next() (tok Token, ok bool, err error) {
	l.skipSpace()
	if l.pos >= len(l.input) {
		return Token{}, false, nil
	}

	start := l.Position()
	kind, n, anonymous := l.match(l.pos)
	if n == 0 {
		ch, _ := utf8.DecodeRune(l.input[l.pos:])
		return Token{}, false, &Error{Pos: start, Char: ch}
	}

	literal := string(l.input[l.pos : l.pos+n])
	for end := l.pos + n; l.pos < end; {
		l.advance()
	}

	return Token{
		Kind:      kind,
		Literal:   literal,
		Position:  start,
		Anonymous: anonymous,
	}, true, nil
}

func (l *Lexer) match(offset int) (kind string, n int, anonymous bool) {
	rest := l.input[offset:]
	for _, kw := range l.keywords {
		if hasPrefix(rest, kw) && !isWordByteAt(l.input, offset+len(kw)) {
			return kw, len(kw), true
		}
	}
	for _, op := range l.operators {
		if hasPrefix(rest, op) {
			return op, len(op), true
		}
	}

	// Clear memoization cache for each new token (positions change)
	l.memo = make(map[memoKey]int)
	for _, def := range l.grammar.Tokens() {
		l.visiting = make(map[memoKey]bool)
		if n := l.tryMatch(def.Expr, offset); n > 0 {
			return def.Name, n, false
		}
	}
	return "", 0, false
}

// Tokenize reads all tokens from input.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, ok, err := l.Next()
		if err != nil {
			return tokens, err
		}
		if !ok {
			return tokens, nil
		}
		if l.skipKinds[tok.Kind] && !tok.Anonymous {
			continue
		}
		tokens = append(tokens, tok)
	}
}

// tryMatch attempts to match an expression at the given offset.
// Returns the length of the match, or 0 if no match.
func (l *Lexer) tryMatch(expr ebnf.Expression, offset int) int {
	switch e := expr.(type) {
	case *ebnf.Token:
		return l.tryMatchToken(e.String, offset)

	case *ebnf.Range:
		return l.tryMatchRange(e.Begin.String, e.End.String, offset)

	case ebnf.Sequence:
		total := 0
		pos := offset
		for _, item := range e {
			n := l.tryMatch(item, pos)
			if n == 0 && !l.matchesEmpty(item) {
				return 0
			}
			total += n
			pos += n
		}
		return total

	case ebnf.Alternative:
		best := 0
		for _, alt := range e {
			n := l.tryMatch(alt, offset)
			if n > best {
				best = n
			}
		}
		return best

	case *ebnf.Repetition:
		total := 0
		pos := offset
		for {
			n := l.tryMatch(e.Body, pos)
			if n == 0 {
				break
			}
			total += n
			pos += n
		}
		return total

	case *ebnf.Option:
		return l.tryMatch(e.Body, offset)

	case *ebnf.Group:
		return l.tryMatch(e.Body, offset)

	case *ebnf.Name:
		return l.tryMatchName(e.String, offset)
	}
	return 0
}

// matchesEmpty reports whether a zero-length match of expr is a success.
func (l *Lexer) matchesEmpty(expr ebnf.Expression) bool {
	switch e := expr.(type) {
	case *ebnf.Repetition, *ebnf.Option:
		return true
	case *ebnf.Group:
		return l.matchesEmpty(e.Body)
	}
	return false
}

// tryMatchName matches a named token class or fragment with memoization
// and cycle detection.
func (l *Lexer) tryMatchName(name string, offset int) int {
	key := memoKey{name: name, offset: offset}

	if result, ok := l.memo[key]; ok {
		if result == -1 {
			return 0
		}
		return result
	}

	// Left recursion: break the cycle.
	if l.visiting[key] {
		return 0
	}

	expr := l.lookup(name)
	if expr == nil {
		l.memo[key] = -1
		return 0
	}

	l.visiting[key] = true
	result := l.tryMatch(expr, offset)
	delete(l.visiting, key)

	if result == 0 {
		l.memo[key] = -1
	} else {
		l.memo[key] = result
	}
	return result
}

func (l *Lexer) lookup(name string) ebnf.Expression {
	if expr := l.grammar.Fragment(name); expr != nil {
		return expr
	}
	for _, def := range l.grammar.Tokens() {
		if def.Name == name {
			return def.Expr
		}
	}
	return nil
}

// tryMatchToken matches a literal string.
func (l *Lexer) tryMatchToken(s string, offset int) int {
	if hasPrefix(l.input[offset:], s) {
		return len(s)
	}
	return 0
}

// tryMatchRange matches one character between begin and end inclusive.
func (l *Lexer) tryMatchRange(begin, end string, offset int) int {
	if offset >= len(l.input) {
		return 0
	}
	lo, _ := utf8.DecodeRuneInString(begin)
	hi, _ := utf8.DecodeRuneInString(end)
	ch, size := utf8.DecodeRune(l.input[offset:])
	if ch == utf8.RuneError && size <= 1 {
		return 0
	}
	if ch >= lo && ch <= hi {
		return size
	}
	return 0
}

func hasPrefix(b []byte, s string) bool {
	return len(b) >= len(s) && string(b[:len(s)]) == s
}

func isWord(s string) bool {
	for _, r := range s {
		if !isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isWordByteAt(b []byte, offset int) bool {
	if offset >= len(b) {
		return false
	}
	r, _ := utf8.DecodeRune(b[offset:])
	return isWordRune(r)
}
