package fs

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"go.trai.ch/stache/internal/core/domain"
	"go.trai.ch/stache/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.TemplateStore = (*Store)(nil)

// Store implements ports.TemplateStore on top of an fs.FS per template root.
type Store struct {
	open    func(root string) fs.FS
	walker  *Walker
	ignores []string
}

// NewStore returns a Store reading the operating system file system.
func NewStore() *Store {
	return &Store{
		open:   func(root string) fs.FS { return os.DirFS(root) },
		walker: NewWalker(),
	}
}

// NewStoreFS returns a Store that serves every scope from fsys, whose root
// stands for the scope root.
func NewStoreFS(fsys fs.FS) *Store {
	return &Store{
		open:   func(string) fs.FS { return fsys },
		walker: NewWalker(),
	}
}

// WithIgnores excludes file and directory names matching any of the patterns.
func (s *Store) WithIgnores(patterns ...string) *Store {
	s.ignores = append(s.ignores, patterns...)
	return s
}

// List returns the ids of every template file under the scope root, sorted.
// A missing root yields no templates.
func (s *Store) List(ctx context.Context, scope domain.Scope) ([]domain.TemplateID, error) {
	fsys := s.open(scope.Root)

	info, err := fs.Stat(fsys, ".")
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, zerr.With(errors.Join(domain.ErrTemplateListFailed, err), "root", scope.Root)
	case !info.IsDir():
		return nil, zerr.With(zerr.Wrap(domain.ErrTemplateListFailed, "template root is not a directory"), "root", scope.Root)
	}

	var ids []domain.TemplateID
	for p := range s.walker.WalkFiles(fsys, ".", s.ignores) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if id, ok := scope.IDOf(filepath.Join(scope.Root, filepath.FromSlash(p))); ok {
			ids = append(ids, id)
		}
	}
	return domain.SortIDs(ids), nil
}

// Read returns the contents of the template id.
func (s *Store) Read(_ context.Context, scope domain.Scope, id domain.TemplateID) (string, error) {
	name, ok := fileName(scope, id)
	if !ok {
		return "", zerr.With(zerr.Wrap(domain.ErrTemplateNotFound, "invalid template name"), "template", id.String())
	}

	data, err := fs.ReadFile(s.open(scope.Root), name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", zerr.With(zerr.Wrap(domain.ErrTemplateNotFound, "template file is gone"), "template", id.String())
	case err != nil:
		return "", zerr.With(errors.Join(domain.ErrTemplateReadFailed, err), "template", id.String())
	}
	return string(data), nil
}

// Exists reports whether id names a regular template file.
func (s *Store) Exists(scope domain.Scope, id domain.TemplateID) bool {
	name, ok := fileName(scope, id)
	if !ok {
		return false
	}
	info, err := fs.Stat(s.open(scope.Root), name)
	return err == nil && !info.IsDir()
}

func fileName(scope domain.Scope, id domain.TemplateID) (string, bool) {
	if id.IsZero() {
		return "", false
	}
	name := path.Clean(id.String() + scope.Ext())
	return name, fs.ValidPath(name)
}
