// Package parse implements an Earley parser over compiled grammars. It
// produces a shared forest of every derivation of the input and concrete
// syntax trees for individual derivations.
package parse

import (
	"fmt"
	"strings"

	"github.com/dhamidi/ambig/ebnf/lex"
	"golang.org/x/exp/slices"
)

// Span represents a range in source code.
type Span struct {
	Start lex.Position
	End   lex.Position
}

// Node represents a node in the concrete syntax tree of one derivation.
// Leaf nodes have a non-nil Token; interior nodes have Children.
type Node struct {
	Kind     string     // Rule name or token kind
	Children []*Node    // Child nodes (nil for terminals)
	Token    *lex.Token // The token (non-nil for terminals)
	Span     Span       // Source span covering this node
}

// IsTerminal returns true if this is a leaf node (token).
func (n *Node) IsTerminal() bool {
	return n.Token != nil
}

// Text returns the source text of this node.
// For terminals, returns the token literal.
// For non-terminals, returns empty string (caller should use span to extract text).
func (n *Node) Text() string {
	if n.Token != nil {
		return n.Token.Literal
	}
	return ""
}

// AddChild appends a child node and updates the span.
func (n *Node) AddChild(child *Node) {
	if child == nil {
		return
	}
	n.Children = append(n.Children, child)
	// Update span
	if len(n.Children) == 1 {
		n.Span.Start = child.Span.Start
	}
	n.Span.End = child.Span.End
}

// NewTerminal creates a terminal node from a token.
func NewTerminal(tok lex.Token) *Node {
	return &Node{
		Kind:  tok.Kind,
		Token: &tok,
		Span: Span{
			Start: tok.Position,
			End: lex.Position{
				Filename: tok.Position.Filename,
				Offset:   tok.End(),
				Line:     tok.Position.Line,
				Column:   tok.Position.Column + len(tok.Literal),
			},
		},
	}
}

// NewNonTerminal creates a non-terminal node.
func NewNonTerminal(kind string) *Node {
	return &Node{
		Kind:     kind,
		Children: make([]*Node, 0),
	}
}

// Depth returns 0 for a leaf or a node without children, otherwise one more
// than the deepest child.
func (n *Node) Depth() int {
	if len(n.Children) == 0 {
		return 0
	}
	deepest := 0
	for _, c := range n.Children {
		if d := c.Depth(); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}

// Count returns the number of nodes in the tree, leaves included.
func (n *Node) Count() int {
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// Leaves returns the tokens of the tree in input order.
func (n *Node) Leaves() []lex.Token {
	var out []lex.Token
	n.walk(func(node *Node) bool {
		if node.Token != nil {
			out = append(out, *node.Token)
		}
		return true
	})
	return out
}

// walk visits the tree depth-first; fn returning false skips the children.
func (n *Node) walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn)
	}
}

// Find returns the first subtree labeled label in depth-first order without
// entering subtrees labeled with one of boundary.
func (n *Node) Find(label string, boundary ...string) *Node {
	var found *Node
	n.walk(func(node *Node) bool {
		if found != nil {
			return false
		}
		if node.Kind == label && node.Token == nil {
			found = node
			return false
		}
		return !slices.Contains(boundary, node.Kind)
	})
	return found
}

// Extract collects the text of the named tokens under the first subtree
// labeled label. Subtrees labeled with one of boundary are never entered,
// neither while searching nor while collecting. Keywords and punctuation are
// skipped. ok is false when there is no such subtree.
func (n *Node) Extract(label string, boundary ...string) (values []string, ok bool) {
	root := n.Find(label, boundary...)
	if root == nil {
		return nil, false
	}
	values = []string{}
	root.walk(func(node *Node) bool {
		if node != root && slices.Contains(boundary, node.Kind) {
			return false
		}
		if node.Token != nil && !node.Token.Anonymous {
			values = append(values, node.Token.Literal)
		}
		return true
	})
	return values, true
}

// String returns an indented representation of the tree, one line per node.
func (n *Node) String() string {
	var sb strings.Builder
	n.stringIndent(&sb, 0, false)
	return sb.String()
}

// StringWithPositions is String with the start position of every node.
func (n *Node) StringWithPositions() string {
	var sb strings.Builder
	n.stringIndent(&sb, 0, true)
	return sb.String()
}

func (n *Node) stringIndent(sb *strings.Builder, indent int, positions bool) {
	sb.WriteString(strings.Repeat("  ", indent))
	sb.WriteString(n.Kind)
	if n.Token != nil {
		fmt.Fprintf(sb, " %q", n.Token.Literal)
	}
	if positions {
		fmt.Fprintf(sb, " @%d:%d", n.Span.Start.Line, n.Span.Start.Column)
	}
	sb.WriteByte('\n')
	for _, c := range n.Children {
		c.stringIndent(sb, indent+1, positions)
	}
}
