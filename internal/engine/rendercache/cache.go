// Package rendercache holds the last rendered artifact of every root.
package rendercache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/stache/internal/core/domain"
	"go.trai.ch/stache/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// RenderFunc produces the bytes of one root.
type RenderFunc func(ctx context.Context) ([]byte, error)

// Entry is a point-in-time view of one cache entry.
type Entry struct {
	Artifact domain.Artifact
	// Valid is false after an invalidation until the next successful render.
	Valid bool
	// Rendered is false while the root has never rendered successfully.
	Rendered bool
}

type entry struct {
	artifact domain.Artifact
	rendered bool
	valid    bool
	// epoch is bumped by every invalidation. A render only marks the entry
	// valid when the epoch it started with is still current.
	epoch uint64
}

// Cache maps roots to their last artifact. GetOrRender runs at most one render
// per root at a time; callers arriving meanwhile block and share its result.
type Cache struct {
	mu      sync.Mutex
	entries map[domain.TemplateID]*entry
	gen     uint64
	group   singleflight.Group
	sink    ports.ArtifactStore
	now     func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithArtifactStore persists every successful render and removes the files of evicted roots.
func WithArtifactStore(s ports.ArtifactStore) Option {
	return func(c *Cache) {
		c.sink = s
	}
}

// WithClock overrides the time source used for Artifact.RenderedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates an empty Cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[domain.TemplateID]*entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Invalidate marks the entries of roots stale and returns how many existed.
// Roots without an entry are ignored.
func (c *Cache) Invalidate(roots []domain.TemplateID) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, r := range roots {
		if e, ok := c.entries[r]; ok {
			e.valid = false
			e.epoch++
			n++
		}
	}
	return n
}

// InvalidateAll marks every entry stale.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		e.valid = false
		e.epoch++
	}
}

// GetOrRender returns the cached artifact of root when it is valid and calls
// render otherwise. Failed renders are not cached; the error wraps
// domain.ErrRender and the next call retries.
func (c *Cache) GetOrRender(ctx context.Context, root domain.TemplateID, render RenderFunc) (domain.Artifact, error) {
	if a, ok := c.valid(root); ok {
		return a, nil
	}

	v, err, _ := c.group.Do(root.String(), func() (any, error) {
		return c.render(context.WithoutCancel(ctx), root, render)
	})
	if err != nil {
		return domain.Artifact{}, err
	}
	return v.(domain.Artifact), nil
}

func (c *Cache) valid(root domain.TemplateID) (domain.Artifact, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[root]; ok && e.valid {
		return e.artifact, true
	}
	return domain.Artifact{}, false
}

func (c *Cache) render(ctx context.Context, root domain.TemplateID, render RenderFunc) (domain.Artifact, error) {
	c.mu.Lock()
	e, ok := c.entries[root]
	if ok && e.valid {
		a := e.artifact
		c.mu.Unlock()
		return a, nil
	}
	if !ok {
		e = &entry{}
		c.entries[root] = e
	}
	epoch := e.epoch
	c.mu.Unlock()

	data, err := render(ctx)
	if err != nil {
		return domain.Artifact{}, zerr.With(errors.Join(domain.ErrRender, err), "root", root.String())
	}

	var path string
	if c.sink != nil {
		if path, err = c.sink.Put(root, data); err != nil {
			return domain.Artifact{}, zerr.With(zerr.Wrap(err, "failed to persist artifact"), "root", root.String())
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	a := domain.Artifact{
		Root:       root,
		Data:       data,
		Digest:     xxhash.Sum64(data),
		Generation: c.gen,
		Path:       path,
		RenderedAt: c.now(),
	}

	// The root was evicted while rendering; hand the result back without keeping it.
	if cur, ok := c.entries[root]; !ok || cur != e {
		return a, nil
	}

	e.artifact = a
	e.rendered = true
	e.valid = e.epoch == epoch
	return a, nil
}

// EvictMissing drops every entry whose root is not in current and returns the
// evicted roots. Persisted artifacts of evicted roots are removed.
func (c *Cache) EvictMissing(current []domain.TemplateID) ([]domain.TemplateID, error) {
	keep := make(map[domain.TemplateID]struct{}, len(current))
	for _, r := range current {
		keep[r] = struct{}{}
	}

	c.mu.Lock()
	var evicted []domain.TemplateID
	for r := range c.entries {
		if _, ok := keep[r]; !ok {
			delete(c.entries, r)
			evicted = append(evicted, r)
		}
	}
	c.mu.Unlock()

	evicted = domain.SortIDs(evicted)
	if c.sink == nil {
		return evicted, nil
	}

	var errs error
	for _, r := range evicted {
		if err := c.sink.Remove(r); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return evicted, errs
}

// Entry returns a view of the entry for root.
func (c *Cache) Entry(root domain.TemplateID) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[root]
	if !ok {
		return Entry{}, false
	}
	return Entry{Artifact: e.artifact, Valid: e.valid, Rendered: e.rendered}, true
}

// Len returns the number of entries, including roots whose first render is in flight.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
