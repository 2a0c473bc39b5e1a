package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/ambig/ebnf/parse"
	"github.com/muesli/termenv"
)

// TreeTextEncoder writes a derivation tree indented by two spaces per level,
// one node per line. Rule names are bold, keywords and punctuation magenta,
// named tokens cyan with their text in green, when the profile has colors.
type TreeTextEncoder struct {
	w         io.Writer
	out       *termenv.Output
	node      *parse.Node
	positions bool
}

func NewTreeTextEncoder(w io.Writer, profile termenv.Profile) *TreeTextEncoder {
	return &TreeTextEncoder{
		w:   w,
		out: termenv.NewOutput(w, termenv.WithProfile(profile)),
	}
}

// WithPositions appends the start position of every node.
func (e *TreeTextEncoder) WithPositions(on bool) *TreeTextEncoder {
	e.positions = on
	return e
}

func (e *TreeTextEncoder) Encode(node *parse.Node) error {
	e.node = node
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *TreeTextEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	if e.node != nil {
		e.write(&sb, e.node, 0)
	}
	return []byte(sb.String()), nil
}

func (e *TreeTextEncoder) write(sb *strings.Builder, n *parse.Node, indent int) {
	sb.WriteString(strings.Repeat("  ", indent))
	switch {
	case n.Token == nil:
		sb.WriteString(e.out.String(n.Kind).Bold().String())
	case n.Token.Anonymous:
		sb.WriteString(e.out.String(n.Kind).Foreground(e.out.Color("5")).String())
		fmt.Fprintf(sb, " %q", n.Token.Literal)
	default:
		sb.WriteString(e.out.String(n.Kind).Foreground(e.out.Color("6")).String())
		sb.WriteByte(' ')
		sb.WriteString(e.out.String(fmt.Sprintf("%q", n.Token.Literal)).Foreground(e.out.Color("2")).String())
	}
	if e.positions {
		fmt.Fprintf(sb, " @%d:%d", n.Span.Start.Line, n.Span.Start.Column)
	}
	sb.WriteByte('\n')
	for _, c := range n.Children {
		e.write(sb, c, indent+1)
	}
}
