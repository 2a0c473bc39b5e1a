package grammar

import (
	"errors"
	"fmt"
	"text/scanner"
)

var (
	// ErrUndefinedSymbol is returned when a rule references a symbol that
	// has no definition.
	ErrUndefinedSymbol = errors.New("undefined symbol")
	// ErrMissingStart is returned when the start rule is not defined.
	ErrMissingStart = errors.New("missing start symbol")
	// ErrEmptyRule is returned for a rule without alternatives.
	ErrEmptyRule = errors.New("empty rule")
	// ErrDuplicate is returned when a name is defined more than once.
	ErrDuplicate = errors.New("duplicate definition")
	// ErrSyntax wraps errors in grammar source text.
	ErrSyntax = errors.New("grammar syntax")
)

// Error describes one problem found while building a grammar.
type Error struct {
	Err    error
	Symbol string
	Rule   string // the rule containing the reference, if any
	Msg    string
	Pos    scanner.Position
}

func (e *Error) Error() string {
	prefix := ""
	if e.Pos.IsValid() {
		prefix = e.Pos.String() + ": "
	}
	switch {
	case e.Msg != "":
		return fmt.Sprintf("%s%v: %s", prefix, e.Err, e.Msg)
	case e.Err == ErrUndefinedSymbol && e.Rule != "":
		return fmt.Sprintf("%s%v %s in %s", prefix, e.Err, e.Symbol, e.Rule)
	case e.Symbol != "":
		return fmt.Sprintf("%s%v %s", prefix, e.Err, e.Symbol)
	}
	return prefix + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
