// Package format encodes derivation trees, parse reports and token streams.
package format

import (
	"encoding"
	"errors"
	"fmt"
	"io"

	"github.com/dhamidi/ambig/ebnf/parse"
	"github.com/muesli/termenv"
)

// ErrUnknownFormat is returned by NewTreeEncoder for an unsupported name.
var ErrUnknownFormat = errors.New("unknown format")

// Formats lists the names accepted by NewTreeEncoder.
var Formats = []string{"tree", "json"}

type TreeEncoder interface {
	encoding.TextMarshaler
	Encode(node *parse.Node) error
}

// NewTreeEncoder returns the encoder called name writing to w. The profile
// only affects the "tree" format.
func NewTreeEncoder(name string, w io.Writer, profile termenv.Profile) (TreeEncoder, error) {
	switch name {
	case "tree", "text":
		return NewTreeTextEncoder(w, profile), nil
	case "json":
		return NewTreeJSONEncoder(w), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
}
