package artifacts

import (
	"go.trai.ch/stache/internal/core/domain"
	"go.trai.ch/stache/internal/core/ports"
)

var _ ports.ArtifactStoreFactory = Factory{}

// Factory opens a Store per configuration.
type Factory struct{}

// Open implements ports.ArtifactStoreFactory.
func (Factory) Open(dir string, format domain.RenderFormat) (ports.ArtifactStore, error) {
	s, err := NewStore(dir, format)
	if err != nil {
		return nil, err
	}
	return s, nil
}
