// Package indexer builds include graph snapshots from a template store.
package indexer

import (
	"context"
	"errors"
	"runtime"

	"go.trai.ch/stache/internal/core/domain"
	"go.trai.ch/stache/internal/core/ports"
	"go.trai.ch/stache/internal/engine/parser"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Indexer scans a TemplateStore and assembles domain snapshots.
type Indexer struct {
	store   ports.TemplateStore
	cache   *ParseCache
	workers int
}

// New creates an Indexer reading from store and parsing through cache.
func New(store ports.TemplateStore, cache *ParseCache) *Indexer {
	return &Indexer{
		store:   store,
		cache:   cache,
		workers: runtime.NumCPU(),
	}
}

// Build lists every template of the configured scope, parses each one and
// returns the resulting snapshot. Unreadable files become parse diagnostics;
// files that vanish between listing and reading are left out. Only a failure
// to list the scope is returned as an error.
func (ix *Indexer) Build(ctx context.Context, cfg domain.Config, generation uint64) (*domain.Snapshot, error) {
	scope := cfg.Scope()
	ids, err := ix.store.List(ctx, scope)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to scan templates"), "root", scope.Root)
	}

	p := parser.New(cfg.Markers)
	sources := make([]domain.Source, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sources[i] = ix.source(gctx, p, scope, id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return domain.BuildSnapshot(generation, sources), nil
}

func (ix *Indexer) source(ctx context.Context, p *parser.Parser, scope domain.Scope, id domain.TemplateID) domain.Source {
	contents, err := ix.store.Read(ctx, scope, id)
	switch {
	case errors.Is(err, domain.ErrTemplateNotFound):
		return domain.Source{}
	case err != nil:
		return domain.Source{ID: id, Err: err}
	}

	res := ix.cache.Parse(p, contents)
	return domain.Source{ID: id, Includes: res.Includes, Err: res.Err}
}
