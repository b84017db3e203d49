package ports

import "go.trai.ch/stache/internal/core/domain"

// ArtifactStore persists rendered artifacts, one file per root.
//
//go:generate mockgen -source=artifact_store.go -destination=mocks/mock_artifact_store.go -package=mocks
type ArtifactStore interface {
	// Put writes data for root and returns the artifact path.
	Put(root domain.TemplateID, data []byte) (string, error)
	// Remove deletes the artifact of root. Missing artifacts are not an error.
	Remove(root domain.TemplateID) error
	// RootFor maps an artifact path back to its root.
	RootFor(path string) (domain.TemplateID, bool)
	// Clean removes every artifact.
	Clean() error
	// Dir returns the artifact directory.
	Dir() string
}

// ArtifactStoreFactory opens an ArtifactStore for a configuration.
type ArtifactStoreFactory interface {
	Open(dir string, format domain.RenderFormat) (ArtifactStore, error)
}
