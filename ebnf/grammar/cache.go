package grammar

import (
	"strings"
	"sync"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("ambig.grammar")

type cacheKey struct {
	start string
	text  string
}

type cacheEntry struct {
	once    sync.Once
	grammar *Grammar
	err     error
}

// Cache memoizes compiled grammars by their source text and start rule.
// Concurrent loads of the same content compile it once; every caller gets
// the same *Grammar.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]*cacheEntry
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]*cacheEntry)}
}

// Load returns the compiled grammar for text, compiling it on first use.
// Compilation errors are cached as well.
func (c *Cache) Load(text, start string) (*Grammar, error) {
	key := cacheKey{start: start, text: text}

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{}
		c.entries[key] = e
	}
	c.mu.Unlock()

	if ok {
		log.Debugf("grammar cache hit (start %q)", start)
	}
	e.once.Do(func() {
		e.grammar, e.err = Parse("grammar", strings.NewReader(text), start)
		if e.err != nil {
			log.Errorf("grammar: %s", e.err)
			return
		}
		log.Infof("grammar compiled (start symbol: %s, %d productions)", e.grammar.Start(), len(e.grammar.Productions()))
	})
	return e.grammar, e.err
}

// Len returns the number of cached grammars.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every cached grammar.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]*cacheEntry)
}
