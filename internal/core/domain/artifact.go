package domain

import (
	"slices"
	"time"
)

// Artifact is the rendered output of one root.
type Artifact struct {
	Root TemplateID
	Data []byte
	// Digest is the content hash of Data.
	Digest uint64
	// Generation is the render cache counter value assigned when Data was stored.
	Generation uint64
	// Path is the persisted artifact file, empty when artifacts are not persisted.
	Path       string
	RenderedAt time.Time
}

// RootsAffected is published once for every processed change batch.
type RootsAffected struct {
	// BatchID identifies the batch in logs.
	BatchID string
	// Roots are the invalidated roots, sorted.
	Roots []TemplateID
	// Origins are the templates named by the batch events, old and new ids alike.
	Origins []TemplateID
	// Generation is the generation of the snapshot built for the batch.
	Generation uint64
	// Full is set when every root was invalidated, after reconfiguration or an asset change.
	Full bool
}

// Origin returns the first originating template, or the zero id.
func (n RootsAffected) Origin() TemplateID {
	if len(n.Origins) == 0 {
		return TemplateID{}
	}
	return n.Origins[0]
}

// Affects reports whether root was invalidated.
func (n RootsAffected) Affects(root TemplateID) bool {
	_, found := slices.BinarySearchFunc(n.Roots, root, CompareIDs)
	return found
}

// IsOrigin reports whether id itself changed, as opposed to one of its includes.
func (n RootsAffected) IsOrigin(id TemplateID) bool {
	return slices.Contains(n.Origins, id)
}
