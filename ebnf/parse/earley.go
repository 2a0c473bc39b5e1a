package parse

import (
	"fmt"

	"github.com/dhamidi/ambig/ebnf/grammar"
	"github.com/dhamidi/ambig/ebnf/lex"
	"github.com/tliron/commonlog"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var log = commonlog.GetLogger("ambig.parse")

// EarleyParser implements Earley parsing over a compiled grammar.
// It handles ambiguous grammars by keeping every way an item was reached
// and building a shared derivation forest from them.
type EarleyParser struct {
	grammar *grammar.Grammar
	tokens  []lex.Token
	input   string

	chart []*ItemSet
}

// Item represents an Earley item: a production with a dot position and origin.
type Item struct {
	Prod   grammar.Production
	Dot    int
	Origin int

	links   []link
	linkSet map[linkKey]bool
}

// child is what an item consumed when it advanced: either the token at
// index token, or a completed symbol over [start, end).
type child struct {
	token      int
	sym        int
	start, end int
}

// link records one way an item was reached: pred advanced over c.
type link struct {
	pred *Item
	c    child
}

type linkKey struct {
	pred *Item
	c    child
}

func (item *Item) String() string {
	return fmt.Sprintf("[%d → •%d, %d]", item.Prod.LHS, item.Dot, item.Origin)
}

// Complete reports whether the dot is at the end of the production.
func (item *Item) Complete() bool {
	return item.Dot >= len(item.Prod.RHS)
}

func (item *Item) next() (int, bool) {
	if item.Complete() {
		return 0, false
	}
	return item.Prod.RHS[item.Dot], true
}

func (item *Item) addLink(l link) {
	k := linkKey(l)
	if item.linkSet[k] {
		return
	}
	if item.linkSet == nil {
		item.linkSet = make(map[linkKey]bool)
	}
	item.linkSet[k] = true
	item.links = append(item.links, l)
}

type itemKey struct {
	prod, dot, origin int
}

// ItemSet is a set of Earley items at a particular chart position.
type ItemSet struct {
	items    []*Item
	itemSet  map[itemKey]*Item // for deduplication
	waiting  map[int][]*Item   // items whose next symbol is the key
	position int
}

func newItemSet(pos int) *ItemSet {
	return &ItemSet{
		items:    make([]*Item, 0),
		itemSet:  make(map[itemKey]*Item),
		waiting:  make(map[int][]*Item),
		position: pos,
	}
}

// Add inserts item unless an item with the same production, dot and origin
// is present. It returns the item held by the set and whether it was added.
func (s *ItemSet) Add(item *Item) (*Item, bool) {
	key := itemKey{prod: item.Prod.ID, dot: item.Dot, origin: item.Origin}
	if existing, ok := s.itemSet[key]; ok {
		return existing, false
	}
	s.itemSet[key] = item
	s.items = append(s.items, item)
	if sym, ok := item.next(); ok {
		s.waiting[sym] = append(s.waiting[sym], item)
	}
	return item, true
}

// Items returns the items in insertion order.
func (s *ItemSet) Items() []*Item {
	return s.items
}

// Position returns the chart position of the set.
func (s *ItemSet) Position() int {
	return s.position
}

// NewEarleyParser creates a new Earley parser.
func NewEarleyParser(g *grammar.Grammar, tokens []lex.Token) *EarleyParser {
	return &EarleyParser{
		grammar: g,
		tokens:  tokens,
	}
}

// SetInput records the text the tokens were read from; it is carried by the
// resulting forest.
func (p *EarleyParser) SetInput(input string) {
	p.input = input
}

// Chart returns the item sets of the last parse.
func (p *EarleyParser) Chart() []*ItemSet {
	return p.chart
}

// Parse parses the tokens from the grammar's start rule.
func (p *EarleyParser) Parse() (*Forest, error) {
	return p.ParseStart(p.grammar.Start())
}

// ParseStart parses starting from the given rule and returns the forest of
// all its derivations.
func (p *EarleyParser) ParseStart(start string) (*Forest, error) {
	if p.grammar.Rule(start) == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStart, start)
	}
	if len(p.tokens) == 0 {
		return nil, ErrEmptyInput
	}
	startID, _ := p.grammar.SymbolID(grammar.Ref(start))

	n := len(p.tokens)
	p.chart = make([]*ItemSet, n+1)
	for i := range p.chart {
		p.chart[i] = newItemSet(i)
	}

	for _, id := range p.grammar.ProductionIDs(startID) {
		p.chart[0].Add(&Item{Prod: p.grammar.Production(id), Origin: 0})
	}

	for i := 0; i <= n; i++ {
		set := p.chart[i]
		// items may be added during iteration
		for j := 0; j < len(set.items); j++ {
			item := set.items[j]
			next, ok := item.next()
			switch {
			case !ok:
				p.complete(i, item)
			case p.grammar.Symbol(next).IsTerminal():
				p.scan(i, item, next)
			default:
				p.predict(i, item, next)
			}
		}
	}

	var roots []*Item
	for _, item := range p.chart[n].items {
		if item.Prod.LHS == startID && item.Origin == 0 && item.Complete() {
			roots = append(roots, item)
		}
	}
	log.Debugf("chart built: %d tokens, %d items", n, p.itemCount())

	if len(roots) == 0 {
		return nil, p.syntaxError()
	}

	f := newForestBuilder(p).build(startID, n)
	if f == nil {
		return nil, p.syntaxError()
	}
	if f.IsAmbiguous() {
		log.Infof("ambiguity detected: %s derivations", f.DerivationCount())
	}
	return f, nil
}

// predict adds items for every production of a non-terminal. A nullable
// non-terminal is also skipped right away, since its empty completion at
// this position may already have been processed.
func (p *EarleyParser) predict(pos int, item *Item, next int) {
	for _, id := range p.grammar.ProductionIDs(next) {
		p.chart[pos].Add(&Item{Prod: p.grammar.Production(id), Origin: pos})
	}
	if p.grammar.Nullable(next) {
		p.advance(pos, item, child{token: -1, sym: next, start: pos, end: pos})
	}
}

// scan handles terminal matching.
func (p *EarleyParser) scan(pos int, item *Item, next int) {
	if pos >= len(p.tokens) {
		return
	}
	if matchTerminal(p.grammar.Symbol(next), p.tokens[pos]) {
		p.advance(pos+1, item, child{token: pos, sym: next, start: pos, end: pos + 1})
	}
}

// complete advances every item waiting at the origin for the completed symbol.
func (p *EarleyParser) complete(pos int, completed *Item) {
	origin := completed.Origin
	lhs := completed.Prod.LHS
	waiting := p.chart[origin].waiting[lhs]
	for _, item := range waiting {
		p.advance(pos, item, child{token: -1, sym: lhs, start: origin, end: pos})
	}
}

func (p *EarleyParser) advance(pos int, pred *Item, c child) {
	next, _ := p.chart[pos].Add(&Item{
		Prod:   pred.Prod,
		Dot:    pred.Dot + 1,
		Origin: pred.Origin,
	})
	next.addLink(link{pred: pred, c: c})
}

func matchTerminal(sym grammar.Symbol, tok lex.Token) bool {
	switch sym.Kind {
	case grammar.Literal:
		return tok.Literal == sym.Name
	case grammar.TokenKind:
		return !tok.Anonymous && tok.Kind == sym.Name
	}
	return false
}

func (p *EarleyParser) itemCount() int {
	total := 0
	for _, set := range p.chart {
		total += len(set.items)
	}
	return total
}

// syntaxError reports the furthest position the chart reached and the
// terminals expected there.
func (p *EarleyParser) syntaxError() error {
	furthest := 0
	for i := len(p.chart) - 1; i >= 0; i-- {
		if len(p.chart[i].items) > 0 {
			furthest = i
			break
		}
	}

	expected := make(map[string]bool)
	for _, item := range p.chart[furthest].items {
		if next, ok := item.next(); ok {
			if sym := p.grammar.Symbol(next); sym.IsTerminal() {
				expected[sym.String()] = true
			}
		}
	}
	var names []string
	if len(expected) > 0 {
		names = maps.Keys(expected)
		slices.Sort(names)
	}

	err := &SyntaxError{Furthest: furthest, Expected: names}
	if furthest < len(p.tokens) {
		tok := p.tokens[furthest]
		err.Found = &tok
		err.Offset = tok.Position.Offset
		err.Pos = tok.Position
	} else if len(p.tokens) > 0 {
		last := p.tokens[len(p.tokens)-1]
		err.Offset = last.End()
		err.Pos = last.Position
		err.Pos.Offset = last.End()
		err.Pos.Column += len(last.Literal)
	}
	return err
}
