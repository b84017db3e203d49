// Package fs provides the file system template store.
package fs

import (
	"io/fs"
	"iter"
	"path"

	"go.trai.ch/stache/internal/core/domain"
)

// Walker provides file walking functionality over an fs.FS.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields the slash-separated path of every file below root in fsys,
// skipping VCS metadata, the stache workspace directory and ignored names.
func (w *Walker) WalkFiles(fsys fs.FS, root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				// Unreadable entries are skipped; the root itself is checked by the caller.
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}

			if skip, action := w.shouldSkip(d, ignores); skip {
				return action
			}

			if d.IsDir() {
				return nil
			}

			if !yield(p) {
				return fs.SkipAll
			}
			return nil
		})
	}
}

// shouldSkip reports whether the entry is excluded from the walk and, for
// directories, returns fs.SkipDir so the walk does not descend into them.
func (w *Walker) shouldSkip(d fs.DirEntry, ignores []string) (bool, error) {
	name := d.Name()

	if d.IsDir() && (name == ".git" || name == ".jj" || name == domain.StacheDirName) {
		return true, fs.SkipDir
	}

	for _, ignore := range ignores {
		if matched, _ := path.Match(ignore, name); matched {
			if d.IsDir() {
				return true, fs.SkipDir
			}
			return true, nil
		}
	}

	return false, nil
}
