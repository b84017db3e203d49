package ports

import (
	"context"

	"go.trai.ch/stache/internal/core/domain"
)

// TemplateStore is read-only access to the template files of a scope.
//
//go:generate mockgen -source=template_store.go -destination=mocks/mock_template_store.go -package=mocks
type TemplateStore interface {
	// List returns every template under the scope root carrying the scope suffix.
	List(ctx context.Context, scope domain.Scope) ([]domain.TemplateID, error)
	// Read returns the contents of a template. It returns domain.ErrTemplateNotFound
	// when the file does not exist.
	Read(ctx context.Context, scope domain.Scope, id domain.TemplateID) (string, error)
	// Exists reports whether the template file exists.
	Exists(scope domain.Scope, id domain.TemplateID) bool
}
