package indexer

import (
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.trai.ch/stache/internal/core/domain"
	"go.trai.ch/stache/internal/engine/parser"
	"go.trai.ch/zerr"
)

// ParseCache memoises parse results by content hash, so a rebuild only
// rescans files whose bytes changed. Results are shared and must not be modified.
type ParseCache struct {
	entries *lru.Cache[uint64, parser.Result]
	hits    atomic.Uint64
	misses  atomic.Uint64
}

// NewParseCache creates a cache holding at most size results.
func NewParseCache(size int) (*ParseCache, error) {
	entries, err := lru.New[uint64, parser.Result](size)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create parse cache"), "size", size)
	}
	return &ParseCache{entries: entries}, nil
}

// Parse returns the cached result for contents under the parser markers,
// parsing on a miss.
func (c *ParseCache) Parse(p *parser.Parser, contents string) parser.Result {
	key := contentKey(p.Markers(), contents)
	if res, ok := c.entries.Get(key); ok {
		c.hits.Add(1)
		return res
	}
	c.misses.Add(1)
	res := p.Parse(contents)
	c.entries.Add(key, res)
	return res
}

// Stats returns the number of hits and misses so far.
func (c *ParseCache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of cached results.
func (c *ParseCache) Len() int {
	return c.entries.Len()
}

// Purge drops every cached result.
func (c *ParseCache) Purge() {
	c.entries.Purge()
}

func contentKey(m domain.Markers, contents string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(m.Open)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(m.Close)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(contents)
	return d.Sum64()
}
