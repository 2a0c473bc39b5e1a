package parse

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"sync"

	"github.com/dhamidi/ambig/ebnf/grammar"
	"github.com/dhamidi/ambig/ebnf/lex"
)

// NodeKind tags a forest node.
type NodeKind int

const (
	Leaf NodeKind = iota
	Internal
	Ambiguous
)

func (k NodeKind) String() string {
	switch k {
	case Leaf:
		return "Leaf"
	case Internal:
		return "Internal"
	case Ambiguous:
		return "Ambiguous"
	}
	return "Unknown"
}

// ForestNode is a node of the shared derivation forest. There is exactly one
// node per symbol and token span; every alternative that uses a sub-derivation
// points to the same node. Only cyclic grammars break this: a node built
// while one of its ancestors is incomplete is private to that ancestor.
//
// Hidden nodes stand for the helper rules of groups, options and
// repetitions. They are shared like any other node and spliced into their
// parent when a derivation is materialized.
type ForestNode struct {
	Kind         NodeKind
	Symbol       string          // rule name, or token kind for leaves
	Hidden       bool            // helper rule, never part of a Node tree
	Token        *lex.Token      // Leaf only
	Children     []*ForestNode   // Internal only
	Alternatives [][]*ForestNode // Ambiguous only, in discovery order
	Start, End   int             // token indices, End exclusive

	id    int
	count *big.Int
}

// Forest holds every derivation of one input.
type Forest struct {
	Root   *ForestNode
	Input  string
	Tokens []lex.Token

	ambiguous bool
	size      int
	countOnce sync.Once
}

// IsAmbiguous reports whether the input has more than one derivation.
func (f *Forest) IsAmbiguous() bool {
	return f.ambiguous
}

// Size returns the number of distinct forest nodes.
func (f *Forest) Size() int {
	return f.size
}

// DerivationCount returns the number of distinct derivations. The count is
// computed on first use and never enumerates derivations.
func (f *Forest) DerivationCount() *big.Int {
	f.countOnce.Do(func() {
		countNode(f.Root)
	})
	return new(big.Int).Set(f.Root.count)
}

func countNode(n *ForestNode) *big.Int {
	if n.count != nil {
		return n.count
	}
	switch n.Kind {
	case Leaf:
		n.count = big.NewInt(1)
	case Internal:
		n.count = countList(n.Children)
	case Ambiguous:
		total := new(big.Int)
		for _, alt := range n.Alternatives {
			total.Add(total, countList(alt))
		}
		n.count = total
	}
	return n.count
}

func countList(children []*ForestNode) *big.Int {
	product := big.NewInt(1)
	for _, c := range children {
		product.Mul(product, countNode(c))
	}
	return product
}

// Derivation materializes the i-th derivation. Index 0 is the derivation
// that takes the first alternative at every ambiguous node.
func (f *Forest) Derivation(i int) (*Node, error) {
	return f.DerivationBig(big.NewInt(int64(i)))
}

// DerivationBig is Derivation for indices beyond the int range.
//
// The index is decomposed as a mixed-radix number: an ambiguous node
// consumes it alternative by alternative, and within a child list the first
// child is the most significant digit.
func (f *Forest) DerivationBig(index *big.Int) (*Node, error) {
	total := f.DerivationCount()
	if index.Sign() < 0 || index.Cmp(total) >= 0 {
		return nil, &IndexError{Index: index.String(), Count: total.String()}
	}
	return f.resolve(f.Root, new(big.Int).Set(index)), nil
}

// Derivations returns the first limit derivations in index order.
func (f *Forest) Derivations(limit int) []*Node {
	total := f.DerivationCount()
	if limit <= 0 {
		return nil
	}
	if total.IsInt64() && total.Int64() < int64(limit) {
		limit = int(total.Int64())
	}
	out := make([]*Node, 0, limit)
	for i := 0; i < limit; i++ {
		n, err := f.Derivation(i)
		if err != nil {
			break
		}
		out = append(out, n)
	}
	return out
}

func (f *Forest) resolve(n *ForestNode, index *big.Int) *Node {
	if n.Kind == Leaf {
		return NewTerminal(*n.Token)
	}
	node := NewNonTerminal(n.Symbol)
	f.splice(node, n, index)
	if len(node.Children) == 0 {
		pos := f.position(n.Start)
		node.Span = Span{Start: pos, End: pos}
	}
	return node
}

// splice appends the children of the index-th derivation of n to parent.
// Hidden children are spliced recursively, each one a digit of the index.
func (f *Forest) splice(parent *Node, n *ForestNode, index *big.Int) {
	children := n.Children
	if n.Kind == Ambiguous {
		found := false
		for _, alt := range n.Alternatives {
			c := countList(alt)
			if index.Cmp(c) < 0 {
				children, found = alt, true
				break
			}
			index.Sub(index, c)
		}
		if !found {
			panic("parse: derivation index exceeds node count")
		}
	}

	// weights[j] is the product of the counts of children[j+1:]
	weights := make([]*big.Int, len(children))
	w := big.NewInt(1)
	for j := len(children) - 1; j >= 0; j-- {
		weights[j] = new(big.Int).Set(w)
		w.Mul(w, countNode(children[j]))
	}

	for j, c := range children {
		digit := new(big.Int)
		digit.QuoRem(index, weights[j], index)
		if c.Hidden {
			f.splice(parent, c, digit)
		} else {
			parent.AddChild(f.resolve(c, digit))
		}
	}
}

func (f *Forest) position(tokenIndex int) lex.Position {
	if tokenIndex < len(f.Tokens) {
		return f.Tokens[tokenIndex].Position
	}
	if len(f.Tokens) == 0 {
		return lex.Position{Line: 1, Column: 1}
	}
	last := f.Tokens[len(f.Tokens)-1]
	pos := last.Position
	pos.Offset = last.End()
	pos.Column += len(last.Literal)
	return pos
}

// String renders the forest with one line per node; ambiguous nodes list
// their alternatives under "_ambig" entries. Shared nodes are printed once
// per use.
func (f *Forest) String() string {
	var sb strings.Builder
	f.Root.write(&sb, 0)
	return sb.String()
}

func (n *ForestNode) write(sb *strings.Builder, indent int) {
	pad := strings.Repeat("  ", indent)
	switch n.Kind {
	case Leaf:
		fmt.Fprintf(sb, "%s%s %q\n", pad, n.Symbol, n.Token.Literal)
	case Internal:
		fmt.Fprintf(sb, "%s%s\n", pad, n.Symbol)
		for _, c := range n.Children {
			c.write(sb, indent+1)
		}
	case Ambiguous:
		fmt.Fprintf(sb, "%s_ambig %s\n", pad, n.Symbol)
		for i, alt := range n.Alternatives {
			fmt.Fprintf(sb, "%s  %s #%d\n", pad, n.Symbol, i)
			for _, c := range alt {
				c.write(sb, indent+2)
			}
		}
	}
}

type nodeKey struct {
	sym, start, end int
}

// forestBuilder reconstructs the forest from the links recorded in a
// finished chart. It is used once and discarded.
type forestBuilder struct {
	p *EarleyParser
	g *grammar.Grammar

	completed map[nodeKey][]*Item
	nodes     map[nodeKey]*ForestNode
	sequences map[*Item][][]child
	leaves    []*ForestNode
	nextID    int

	// inProgress maps the nodes under construction to their stack depth.
	// low is the shallowest of them reached by the current construction.
	inProgress map[nodeKey]int
	depth      int
	low        int
}

func newForestBuilder(p *EarleyParser) *forestBuilder {
	b := &forestBuilder{
		p:          p,
		g:          p.grammar,
		completed:  make(map[nodeKey][]*Item),
		nodes:      make(map[nodeKey]*ForestNode),
		sequences:  make(map[*Item][][]child),
		leaves:     make([]*ForestNode, len(p.tokens)),
		inProgress: make(map[nodeKey]int),
		low:        math.MaxInt,
	}
	for end, set := range p.chart {
		for _, item := range set.items {
			if item.Complete() {
				k := nodeKey{sym: item.Prod.LHS, start: item.Origin, end: end}
				b.completed[k] = append(b.completed[k], item)
			}
		}
	}
	return b
}

func (b *forestBuilder) build(startID, n int) *Forest {
	root := b.node(startID, 0, n)
	if root == nil {
		return nil
	}
	f := &Forest{
		Root:   root,
		Input:  b.p.input,
		Tokens: b.p.tokens,
	}
	seen := make(map[*ForestNode]bool)
	var walk func(n *ForestNode)
	walk = func(n *ForestNode) {
		if seen[n] {
			return
		}
		seen[n] = true
		f.size++
		if n.Kind == Ambiguous {
			f.ambiguous = true
		}
		for _, c := range n.Children {
			walk(c)
		}
		for _, alt := range n.Alternatives {
			for _, c := range alt {
				walk(c)
			}
		}
	}
	walk(root)
	return f
}

// node returns the node for sym over [start, end), or nil when every
// derivation of it would be cyclic.
//
// A derivation that reaches a node still under construction is dropped.
// The result is memoized only when nothing but the node itself was under
// construction below it; otherwise it lacks derivations that are valid
// from other paths and is rebuilt on the next visit.
func (b *forestBuilder) node(sym, start, end int) *ForestNode {
	key := nodeKey{sym: sym, start: start, end: end}
	if n, ok := b.nodes[key]; ok {
		return n
	}
	if d, ok := b.inProgress[key]; ok {
		b.low = min(b.low, d)
		return nil
	}

	b.depth++
	d := b.depth
	b.inProgress[key] = d
	outer := b.low
	b.low = math.MaxInt
	alts := b.expand(key)
	delete(b.inProgress, key)
	b.depth--

	var n *ForestNode
	switch len(alts) {
	case 0:
	case 1:
		n = &ForestNode{Kind: Internal, Children: alts[0]}
	default:
		n = &ForestNode{Kind: Ambiguous, Alternatives: alts}
	}
	if n != nil {
		n.Symbol = b.g.Symbol(sym).Name
		n.Hidden = b.g.IsHidden(sym)
		n.Start, n.End = start, end
		n.id = b.newID()
	}

	if b.low >= d {
		b.nodes[key] = n
		b.low = outer
	} else {
		b.low = min(outer, b.low)
	}
	return n
}

func (b *forestBuilder) leaf(i int) *ForestNode {
	if b.leaves[i] == nil {
		tok := b.p.tokens[i]
		b.leaves[i] = &ForestNode{
			Kind:   Leaf,
			Symbol: tok.Kind,
			Token:  &tok,
			Start:  i,
			End:    i + 1,
			id:     b.newID(),
		}
	}
	return b.leaves[i]
}

func (b *forestBuilder) newID() int {
	id := b.nextID
	b.nextID++
	return id
}

// expand lists the distinct child lists deriving key in the order the
// completed items were discovered.
func (b *forestBuilder) expand(key nodeKey) [][]*ForestNode {
	var out [][]*ForestNode
	seen := make(map[string]bool)
	for _, item := range b.completed[key] {
		for _, seq := range b.childSequences(item) {
			list, ok := b.resolveSequence(seq)
			if !ok {
				continue
			}
			k := listKey(list)
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, list)
		}
	}
	return out
}

// resolveSequence maps one sequence of chart children to forest nodes. ok
// is false when a child has only cyclic derivations.
func (b *forestBuilder) resolveSequence(seq []child) (list []*ForestNode, ok bool) {
	list = make([]*ForestNode, 0, len(seq))
	for _, c := range seq {
		var n *ForestNode
		if c.token >= 0 {
			n = b.leaf(c.token)
		} else {
			n = b.node(c.sym, c.start, c.end)
		}
		if n == nil {
			return nil, false
		}
		list = append(list, n)
	}
	return list, true
}

// childSequences follows the links of a completed item back to the start of
// its production and returns every sequence of children it was built from.
func (b *forestBuilder) childSequences(item *Item) [][]child {
	if seqs, ok := b.sequences[item]; ok {
		return seqs
	}
	var seqs [][]child
	if item.Dot == 0 {
		seqs = [][]child{{}}
	}
	for _, l := range item.links {
		for _, prefix := range b.childSequences(l.pred) {
			seq := make([]child, 0, len(prefix)+1)
			seq = append(seq, prefix...)
			seqs = append(seqs, append(seq, l.c))
		}
	}
	b.sequences[item] = seqs
	return seqs
}

func listKey(list []*ForestNode) string {
	var sb strings.Builder
	for i, n := range list {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(n.id))
	}
	return sb.String()
}
