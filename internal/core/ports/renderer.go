package ports

import (
	"context"

	"go.trai.ch/stache/internal/core/domain"
)

// PartialFunc returns the contents of the template an include name refers to.
// The boolean is false when no such template exists.
type PartialFunc func(name string) (string, bool)

// RenderRequest carries everything a Renderer needs to turn a root into bytes.
type RenderRequest struct {
	Root     domain.TemplateID
	Contents string
	Markers  domain.Markers
	Format   domain.RenderFormat
	Markdown bool
	Partial  PartialFunc
}

// Renderer turns a root template into its preview artifact.
// Failures are returned as errors and are retried on the next request.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) ([]byte, error)
}
