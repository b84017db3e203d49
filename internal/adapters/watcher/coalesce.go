package watcher

import (
	"path/filepath"

	"go.trai.ch/stache/internal/core/domain"
	"go.trai.ch/stache/internal/core/ports"
)

// Coalescer turns a debounced batch of raw watch events into change events.
type Coalescer struct {
	tracker *ContentTracker
}

// NewCoalescer creates a Coalescer backed by tracker.
func NewCoalescer(tracker *ContentTracker) *Coalescer {
	return &Coalescer{tracker: tracker}
}

// Observe records the current contents of path, so that a later write leaving
// it unchanged is not reported as an edit.
func (c *Coalescer) Observe(path string) {
	c.tracker.Observe(path)
}

// Coalesce maps events onto change events, preserving order. A rename
// followed by a create is paired into a single move (or an in-place rename
// when both paths share a directory). An unpaired rename means the file left
// the watched tree and becomes a delete. Writes to a path created in the same
// batch are folded into the creation; repeated writes collapse into one.
func (c *Coalescer) Coalesce(events []ports.WatchEvent) []domain.ChangeEvent {
	out := make([]domain.ChangeEvent, 0, len(events))
	consumed := make([]bool, len(events))
	created := make(map[string]bool)
	written := make(map[string]bool)

	for i, ev := range events {
		if consumed[i] {
			continue
		}

		switch ev.Operation {
		case ports.OpRename:
			if j := nextCreate(events, consumed, i); j >= 0 {
				consumed[j] = true
				dst := events[j]
				kind := domain.ChangeMove
				if filepath.Dir(ev.Path) == filepath.Dir(dst.Path) {
					kind = domain.ChangeRename
				}
				c.tracker.Move(ev.Path, dst.Path)
				created[dst.Path] = true
				out = append(out, domain.ChangeEvent{
					OldPath: ev.Path,
					NewPath: dst.Path,
					Kind:    kind,
					IsDir:   ev.IsDir || dst.IsDir,
				})
				continue
			}
			c.tracker.Forget(ev.Path)
			out = append(out, domain.ChangeEvent{OldPath: ev.Path, Kind: domain.ChangeDelete, IsDir: ev.IsDir})

		case ports.OpRemove:
			c.tracker.Forget(ev.Path)
			delete(created, ev.Path)
			out = append(out, domain.ChangeEvent{OldPath: ev.Path, Kind: domain.ChangeDelete, IsDir: ev.IsDir})

		case ports.OpCreate:
			if !ev.IsDir {
				c.tracker.Observe(ev.Path)
			}
			created[ev.Path] = true
			out = append(out, domain.ChangeEvent{NewPath: ev.Path, Kind: domain.ChangeCreate, IsDir: ev.IsDir})

		case ports.OpWrite:
			if created[ev.Path] || written[ev.Path] {
				if created[ev.Path] {
					c.tracker.Observe(ev.Path)
				}
				continue
			}
			written[ev.Path] = true
			out = append(out, domain.ChangeEvent{
				OldPath:        ev.Path,
				NewPath:        ev.Path,
				Kind:           domain.ChangeContent,
				ContentChanged: c.tracker.Changed(ev.Path),
			})
		}
	}
	return out
}

func nextCreate(events []ports.WatchEvent, consumed []bool, from int) int {
	for j := from + 1; j < len(events); j++ {
		if consumed[j] {
			continue
		}
		switch events[j].Operation {
		case ports.OpCreate:
			return j
		case ports.OpRename:
			// A second rename before any create means ours left the tree.
			return -1
		}
	}
	return -1
}
