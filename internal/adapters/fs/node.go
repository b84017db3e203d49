package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stache/internal/core/ports"
)

// StoreNodeID is the unique identifier for the template store Graft node.
const StoreNodeID graft.ID = "adapter.template_store"

func init() {
	graft.Register(graft.Node[ports.TemplateStore]{
		ID:        StoreNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.TemplateStore, error) {
			return NewStore(), nil
		},
	})
}
