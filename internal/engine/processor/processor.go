// Package processor keeps the include graph, the root index and the render
// cache consistent with a stream of file system change batches.
package processor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.trai.ch/stache/internal/core/domain"
	"go.trai.ch/stache/internal/core/ports"
	"go.trai.ch/stache/internal/engine/indexer"
	"go.trai.ch/stache/internal/engine/rendercache"
	"go.trai.ch/zerr"
)

// Listener receives one notification per processed batch. Listeners run on
// the writing goroutine after the writer lock is released, in the order the
// writes happened, and must not call back into a writer.
type Listener func(domain.RootsAffected)

// Deps are the collaborators of a Processor.
type Deps struct {
	Store    ports.TemplateStore
	Renderer ports.Renderer
	// Artifacts persists rendered artifacts when set.
	Artifacts ports.ArtifactStoreFactory
	Logger    ports.Logger
	// Tracer defaults to a no-op tracer.
	Tracer ports.Tracer
}

// runtime is everything derived from one configuration. It is replaced as a
// whole on reconfiguration.
type runtime struct {
	cfg       domain.Config
	scope     domain.Scope
	indexer   *indexer.Indexer
	cache     *rendercache.Cache
	artifacts ports.ArtifactStore
}

// view pairs a snapshot with the runtime it was built under. Readers load
// both with one atomic read.
type view struct {
	rt   *runtime
	snap *domain.Snapshot
}

// Processor is the single writer of the snapshot and the render cache.
// Queries read the current snapshot without locking and never observe a
// partially built one.
type Processor struct {
	deps  Deps
	parse *indexer.ParseCache

	// mu serializes writers: Load, Process, Reconfigure and InvalidateAll.
	mu         sync.Mutex
	generation uint64
	// pmu is taken before mu is released and held while listeners run.
	pmu sync.Mutex

	cur atomic.Pointer[view]

	lmu       sync.RWMutex
	listeners map[uint64]Listener
	nextID    uint64
}

// New creates a Processor for cfg. The snapshot stays empty until Load.
func New(cfg domain.Config, deps Deps) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Tracer == nil {
		deps.Tracer = noopTracer{}
	}

	parse, err := indexer.NewParseCache(cfg.ParseCacheSize)
	if err != nil {
		return nil, err
	}

	p := &Processor{
		deps:      deps,
		parse:     parse,
		listeners: make(map[uint64]Listener),
	}

	rt, err := p.newRuntime(cfg)
	if err != nil {
		return nil, err
	}
	p.cur.Store(&view{rt: rt, snap: domain.EmptySnapshot()})
	return p, nil
}

func (p *Processor) newRuntime(cfg domain.Config) (*runtime, error) {
	rt := &runtime{
		cfg:     cfg,
		scope:   cfg.Scope(),
		indexer: indexer.New(p.deps.Store, p.parse),
	}

	var opts []rendercache.Option
	if p.deps.Artifacts != nil {
		store, err := p.deps.Artifacts.Open(cfg.ArtifactsPath, cfg.Format)
		if err != nil {
			return nil, err
		}
		rt.artifacts = store
		opts = append(opts, rendercache.WithArtifactStore(store))
	}
	rt.cache = rendercache.New(opts...)
	return rt, nil
}

// Load builds the first snapshot. Calling it again performs a full rescan
// without notifying listeners.
func (p *Processor) Load(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	rt := p.cur.Load().rt
	snap, err := p.rebuild(ctx, rt)
	if err != nil {
		return err
	}
	p.cur.Store(&view{rt: rt, snap: snap})
	p.evict(rt, snap)
	p.logSnapshot(snap)
	return nil
}

// rebuild scans the store and returns a new snapshot. Callers hold mu.
func (p *Processor) rebuild(ctx context.Context, rt *runtime) (*domain.Snapshot, error) {
	ctx, span := p.deps.Tracer.Start(ctx, "rebuild")
	defer span.End()

	p.generation++
	snap, err := rt.indexer.Build(ctx, rt.cfg, p.generation)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttribute("generation", snap.Generation())
	span.SetAttribute("templates", snap.Len())
	span.SetAttribute("roots", len(snap.Roots()))
	span.SetAttribute("diagnostics", len(snap.Diagnostics()))
	return snap, nil
}

// evict drops cache entries of roots that are gone from snap. Failures to
// remove persisted artifacts are logged and do not fail the batch.
func (p *Processor) evict(rt *runtime, snap *domain.Snapshot) []domain.TemplateID {
	evicted, err := rt.cache.EvictMissing(snap.Roots())
	if err != nil {
		p.deps.Logger.Error(zerr.Wrap(err, "failed to remove stale artifacts"))
	}
	return evicted
}

func (p *Processor) logSnapshot(snap *domain.Snapshot) {
	msg := fmt.Sprintf("indexed %d template(s), %d root(s)", snap.Len(), len(snap.Roots()))
	if n := len(snap.Diagnostics()); n > 0 {
		msg += fmt.Sprintf(", %d diagnostic(s)", n)
		p.deps.Logger.Warn(msg)
		return
	}
	p.deps.Logger.Info(msg)
}

// Reconfigure switches to cfg, rebuilds from scratch, drops every cached
// artifact and notifies listeners with a full invalidation. The previous
// configuration stays active when the new one is invalid or cannot be scanned.
func (p *Processor) Reconfigure(ctx context.Context, cfg domain.Config) (domain.RootsAffected, error) {
	if err := cfg.Validate(); err != nil {
		return domain.RootsAffected{}, err
	}

	p.mu.Lock()
	n, err := p.reconfigure(ctx, cfg)
	p.unlockAndPublish(n)
	return n, err
}

func (p *Processor) reconfigure(ctx context.Context, cfg domain.Config) (domain.RootsAffected, error) {
	prev := p.cur.Load().snap
	rt, err := p.newRuntime(cfg)
	if err != nil {
		return domain.RootsAffected{}, err
	}
	snap, err := p.rebuild(ctx, rt)
	if err != nil {
		return domain.RootsAffected{}, err
	}

	p.cur.Store(&view{rt: rt, snap: snap})
	p.removeStale(rt, prev, snap)
	p.logSnapshot(snap)

	p.deps.Logger.Info("configuration reloaded")
	return p.notification(snap, union(prev.Roots(), snap.Roots()), nil, true), nil
}

// removeStale deletes the persisted artifacts of roots that prev had and snap
// no longer has.
func (p *Processor) removeStale(rt *runtime, prev, snap *domain.Snapshot) {
	if rt.artifacts == nil {
		return
	}
	for _, root := range prev.Roots() {
		if snap.IsRoot(root) {
			continue
		}
		if err := rt.artifacts.Remove(root); err != nil {
			p.deps.Logger.Error(zerr.Wrap(err, "failed to remove stale artifact"))
		}
	}
}

// InvalidateAll marks every cached artifact stale and notifies listeners.
// origin may be the zero id.
func (p *Processor) InvalidateAll(_ context.Context, origin domain.TemplateID) domain.RootsAffected {
	p.mu.Lock()

	v := p.cur.Load()
	v.rt.cache.InvalidateAll()

	var origins []domain.TemplateID
	if !origin.IsZero() {
		origins = []domain.TemplateID{origin}
	}
	n := p.notification(v.snap, v.snap.Roots(), origins, true)
	p.unlockAndPublish(n)
	return n
}

// Subscribe registers fn and returns a function that removes it.
func (p *Processor) Subscribe(fn Listener) (cancel func()) {
	p.lmu.Lock()
	defer p.lmu.Unlock()

	id := p.nextID
	p.nextID++
	p.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			p.lmu.Lock()
			defer p.lmu.Unlock()
			delete(p.listeners, id)
		})
	}
}

// unlockAndPublish releases mu and hands n to the listeners. A notification
// without a batch id is not published.
func (p *Processor) unlockAndPublish(n domain.RootsAffected) {
	if n.BatchID == "" {
		p.mu.Unlock()
		return
	}
	p.pmu.Lock()
	p.mu.Unlock()
	defer p.pmu.Unlock()

	p.lmu.RLock()
	listeners := make([]Listener, 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.lmu.RUnlock()

	for _, fn := range listeners {
		fn(n)
	}
}

// Config returns the active configuration.
func (p *Processor) Config() domain.Config {
	return p.cur.Load().rt.cfg
}

// Snapshot returns the current snapshot.
func (p *Processor) Snapshot() *domain.Snapshot {
	return p.cur.Load().snap
}

// Artifacts returns the active artifact store, or nil when artifacts are not persisted.
func (p *Processor) Artifacts() ports.ArtifactStore {
	return p.cur.Load().rt.artifacts
}

// Entry returns the render cache entry of root.
func (p *Processor) Entry(root domain.TemplateID) (rendercache.Entry, bool) {
	return p.cur.Load().rt.cache.Entry(root)
}

// RootsOf returns the roots that include id, directly or transitively.
func (p *Processor) RootsOf(id domain.TemplateID) ([]domain.TemplateID, error) {
	return p.cur.Load().snap.RootsOf(id)
}

// RootsOfPath resolves path to a template, or to the root whose artifact
// file it is, and returns its roots.
func (p *Processor) RootsOfPath(path string) ([]domain.TemplateID, error) {
	v := p.cur.Load()
	if id, ok := v.rt.scope.IDOf(path); ok {
		return v.snap.RootsOf(id)
	}
	if v.rt.artifacts != nil {
		if root, ok := v.rt.artifacts.RootFor(path); ok {
			return v.snap.RootsOf(root)
		}
	}
	return nil, zerr.With(zerr.Wrap(domain.ErrOutOfScope, "path is not a template"), "path", path)
}

// Resolve maps a user supplied reference to an id known to the current
// snapshot. ref may be a template path, an artifact path (both absolute or
// relative to cwd) or a bare template name, optionally qualified with the
// configured prefix. An indexed template whose name starts with the prefix
// wins over the stripped name.
func (p *Processor) Resolve(cwd, ref string) (domain.TemplateID, error) {
	v := p.cur.Load()
	rt := v.rt
	if rt.artifacts != nil {
		path := ref
		if !filepath.IsAbs(path) {
			path = filepath.Join(cwd, path)
		}
		if root, ok := rt.artifacts.RootFor(path); ok {
			return root, nil
		}
	}

	id, ok := rt.scope.Resolve(cwd, ref)
	if !ok {
		return domain.TemplateID{}, zerr.With(zerr.Wrap(domain.ErrOutOfScope, "not a template"), "ref", ref)
	}
	if v.snap.Contains(id) {
		return id, nil
	}
	if bare, ok := rt.scope.Unqualify(id); ok && v.snap.Contains(bare) {
		return bare, nil
	}
	return domain.TemplateID{}, zerr.With(zerr.Wrap(domain.ErrUnknownTemplate, "template not indexed"), "template", id.String())
}

// GetOrRender returns the artifact of root, rendering it when the cached one
// is stale or missing. Concurrent calls for the same root share one render.
func (p *Processor) GetOrRender(ctx context.Context, root domain.TemplateID) (domain.Artifact, error) {
	v := p.cur.Load()
	rt, snap := v.rt, v.snap

	if !snap.IsRoot(root) {
		return domain.Artifact{}, zerr.With(zerr.Wrap(domain.ErrUnknownRoot, "not a root of the current snapshot"), "root", root.String())
	}
	if diags := snap.Blocking(root); len(diags) > 0 {
		return domain.Artifact{}, notRenderable(root, diags)
	}

	return rt.cache.GetOrRender(ctx, root, func(ctx context.Context) ([]byte, error) {
		return p.render(ctx, rt, root)
	})
}

func notRenderable(root domain.TemplateID, diags []domain.Diagnostic) error {
	causes := make([]error, 0, len(diags)+1)
	causes = append(causes, domain.ErrRootNotRenderable)
	details := make([]string, 0, len(diags))
	for _, d := range diags {
		causes = append(causes, d.Err)
		details = append(details, d.String())
	}
	err := zerr.With(errors.Join(causes...), "root", root.String())
	return zerr.With(err, "diagnostics", details)
}

func (p *Processor) render(ctx context.Context, rt *runtime, root domain.TemplateID) ([]byte, error) {
	ctx, span := p.deps.Tracer.Start(ctx, "render "+root.String())
	defer span.End()
	span.SetAttribute("root", root.String())

	contents, err := p.deps.Store.Read(ctx, rt.scope, root)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	data, err := p.deps.Renderer.Render(ctx, ports.RenderRequest{
		Root:     root,
		Contents: contents,
		Markers:  rt.cfg.Markers,
		Format:   rt.cfg.Format,
		Markdown: rt.cfg.Markdown,
		Partial: func(name string) (string, bool) {
			id := domain.NewTemplateID(name)
			if id.IsZero() {
				return "", false
			}
			c, err := p.deps.Store.Read(ctx, rt.scope, id)
			return c, err == nil
		},
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttribute("bytes", len(data))
	return data, nil
}

func union(a, b []domain.TemplateID) []domain.TemplateID {
	out := make([]domain.TemplateID, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return domain.SortIDs(out)
}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, ports.Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End()                     {}
func (noopSpan) RecordError(error)        {}
func (noopSpan) SetAttribute(string, any) {}
