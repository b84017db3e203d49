package linear

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stache/internal/adapters/detector"
	"go.trai.ch/stache/internal/core/ports"
)

// NodeID is the unique identifier for the reporter Graft node.
const NodeID graft.ID = "adapter.reporter"

func init() {
	graft.Register(graft.Node[ports.Reporter]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{detector.NodeID},
		Run: func(ctx context.Context) (ports.Reporter, error) {
			mode, err := graft.Dep[detector.OutputMode](ctx)
			if err != nil {
				return nil, err
			}
			return NewReporter(nil, ProfileFor(mode)), nil
		},
	})
}
