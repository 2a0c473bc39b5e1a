package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/ambig/ebnf/lex"
)

// LineEncoder writes one token per line: position, kind and quoted text,
// separated by tabs.
type LineEncoder struct {
	w      io.Writer
	tokens []lex.Token
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(tokens []lex.Token) error {
	e.tokens = tokens
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	for _, tok := range e.tokens {
		kind := tok.Kind
		if tok.Anonymous {
			kind = "literal"
		}
		fmt.Fprintf(&sb, "%d:%d\t%s\t%q\n", tok.Position.Line, tok.Position.Column, kind, tok.Literal)
	}
	return []byte(sb.String()), nil
}
