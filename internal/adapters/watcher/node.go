package watcher

import (
	"context"
	"time"

	"github.com/grindlemire/graft"
	"go.trai.ch/stache/internal/core/ports"
)

const (
	// FactoryNodeID is the unique identifier for the file watcher factory Graft node.
	FactoryNodeID graft.ID = "adapter.watcher"
	// CoalescerNodeID is the unique identifier for the event coalescer Graft node.
	CoalescerNodeID graft.ID = "adapter.coalescer"
)

// DefaultDebounceWindow is the default time window for debouncing file events.
const DefaultDebounceWindow = 50 * time.Millisecond

// Factory opens a watcher. Watchers hold OS resources, so they are created
// only by commands that watch.
type Factory func() (ports.Watcher, error)

// NewFactory returns a Factory producing fsnotify watchers.
func NewFactory() Factory {
	return func() (ports.Watcher, error) {
		w, err := NewWatcher()
		if err != nil {
			return nil, err
		}
		return w, nil
	}
}

func init() {
	graft.Register(graft.Node[Factory]{
		ID:        FactoryNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (Factory, error) {
			return NewFactory(), nil
		},
	})

	graft.Register(graft.Node[*Coalescer]{
		ID:        CoalescerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Coalescer, error) {
			return NewCoalescer(NewContentTracker()), nil
		},
	})
}
