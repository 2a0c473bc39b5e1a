package parse

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dhamidi/ambig/ebnf/lex"
)

var (
	// ErrEmptyInput is returned for a token sequence of length zero.
	ErrEmptyInput = errors.New("empty input")
	// ErrNoDerivation is returned when the start symbol does not derive the input.
	ErrNoDerivation = errors.New("no derivation")
	// ErrUnknownStart is returned when parsing from a symbol that is not a rule.
	ErrUnknownStart = errors.New("unknown start symbol")
	// ErrIndexOutOfRange is returned when selecting a derivation that does not exist.
	ErrIndexOutOfRange = errors.New("derivation index out of range")
)

// SyntaxError reports where the parse stopped making progress.
type SyntaxError struct {
	Furthest int // index of the furthest token reached
	Offset   int // byte offset of that token, or of the end of input
	Pos      lex.Position
	Found    *lex.Token // nil at end of input
	Expected []string
}

func (e *SyntaxError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %v", e.Pos, ErrNoDerivation)
	if e.Found != nil {
		fmt.Fprintf(&sb, ": unexpected %q", e.Found.Literal)
	} else {
		sb.WriteString(": unexpected end of input")
	}
	if len(e.Expected) > 0 {
		fmt.Fprintf(&sb, ", expected %s", strings.Join(e.Expected, ", "))
	}
	return sb.String()
}

func (e *SyntaxError) Unwrap() error {
	return ErrNoDerivation
}

// IndexError reports a derivation index outside [0, Count).
type IndexError struct {
	Index string
	Count string
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%v: %s (derivations: %s)", ErrIndexOutOfRange, e.Index, e.Count)
}

func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}
