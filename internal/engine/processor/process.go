package processor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.trai.ch/stache/internal/core/domain"
)

// classified is a change event together with its classification.
type classified struct {
	event domain.ChangeEvent
	kind  domain.EventKind
}

// Process applies one batch of change events.
//
// Roots of every prior path are looked up in the current snapshot and
// invalidated before the rebuild. Roots of every resulting path are looked up
// in the rebuilt snapshot and invalidated after it. The notification carries
// the union of both. A batch without relevant events returns a zero
// notification and does not rebuild.
func (p *Processor) Process(ctx context.Context, batch []domain.ChangeEvent) (domain.RootsAffected, error) {
	p.mu.Lock()
	n, err := p.process(ctx, batch)
	p.unlockAndPublish(n)
	return n, err
}

func (p *Processor) process(ctx context.Context, batch []domain.ChangeEvent) (domain.RootsAffected, error) {
	v := p.cur.Load()
	rt, prev := v.rt, v.snap

	var (
		events []classified
		assets bool
	)
	for _, e := range batch {
		if touchesAssets(rt.cfg, e) {
			assets = true
			continue
		}
		if kind := domain.Classify(rt.scope, e); kind.Relevant() {
			events = append(events, classified{event: e, kind: kind})
		}
	}
	if len(events) == 0 && !assets {
		return domain.RootsAffected{}, nil
	}

	ctx, span := p.deps.Tracer.Start(ctx, "process_batch")
	defer span.End()
	span.SetAttribute("events", len(batch))

	var affected, origins []domain.TemplateID

	for _, c := range events {
		if !c.kind.HasOld() {
			continue
		}
		oldPath, _ := c.event.Paths()
		ids := idsAt(rt.scope, prev, oldPath, c.event.IsDir)
		origins = append(origins, ids...)
		affected = append(affected, rootsIn(prev, ids)...)
	}
	affected = domain.SortIDs(affected)
	rt.cache.Invalidate(affected)

	next, err := p.rebuild(ctx, rt)
	if err != nil {
		span.RecordError(err)
		return domain.RootsAffected{}, err
	}
	p.cur.Store(&view{rt: rt, snap: next})

	var fresh []domain.TemplateID
	for _, c := range events {
		if !c.kind.HasNew() {
			continue
		}
		_, newPath := c.event.Paths()
		ids := idsAt(rt.scope, next, newPath, c.event.IsDir)
		origins = append(origins, ids...)
		fresh = append(fresh, rootsIn(next, ids)...)
	}
	fresh = domain.SortIDs(fresh)
	rt.cache.Invalidate(fresh)
	affected = union(affected, fresh)

	if assets {
		rt.cache.InvalidateAll()
		affected = union(prev.Roots(), next.Roots())
	}

	evicted := p.evict(rt, next)

	n := p.notification(next, affected, domain.SortIDs(origins), assets)
	span.SetAttribute("batch", n.BatchID)
	span.SetAttribute("affected", domain.IDStrings(n.Roots))

	msg := fmt.Sprintf("batch %s: %d event(s), %d root(s) affected", shortID(n.BatchID), len(events), len(n.Roots))
	if len(evicted) > 0 {
		msg += fmt.Sprintf(", %d evicted", len(evicted))
	}
	p.deps.Logger.Info(msg)
	if d := len(next.Diagnostics()); d > 0 && d != len(prev.Diagnostics()) {
		p.deps.Logger.Warn(fmt.Sprintf("%d diagnostic(s) in templates", d))
	}
	return n, nil
}

func (p *Processor) notification(snap *domain.Snapshot, roots, origins []domain.TemplateID, full bool) domain.RootsAffected {
	return domain.RootsAffected{
		BatchID:    uuid.NewString(),
		Roots:      domain.SortIDs(roots),
		Origins:    origins,
		Generation: snap.Generation(),
		Full:       full,
	}
}

// idsAt resolves a path to the template ids it stands for in snap. A
// directory stands for every template below it.
func idsAt(scope domain.Scope, snap *domain.Snapshot, path string, isDir bool) []domain.TemplateID {
	if path == "" {
		return nil
	}
	if isDir {
		rel, ok := scope.Rel(path)
		if !ok {
			return nil
		}
		if rel == "" {
			return snap.IDs()
		}
		return snap.Under(rel)
	}
	if id, ok := scope.IDOf(path); ok {
		return []domain.TemplateID{id}
	}
	return nil
}

// rootsIn collects the roots of ids in snap. Ids unknown to snap contribute nothing.
func rootsIn(snap *domain.Snapshot, ids []domain.TemplateID) []domain.TemplateID {
	var out []domain.TemplateID
	for _, id := range ids {
		roots, err := snap.RootsOf(id)
		if err != nil {
			continue
		}
		out = append(out, roots...)
	}
	return out
}

func touchesAssets(cfg domain.Config, e domain.ChangeEvent) bool {
	if cfg.AssetsPath == "" {
		return false
	}
	assets := domain.NewScope(cfg.AssetsPath, "")
	oldPath, newPath := e.Paths()
	return (oldPath != "" && assets.Under(oldPath)) || (newPath != "" && assets.Under(newPath))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
