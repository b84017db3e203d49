package watcher

import (
	"os"
	"sync"
	"unique"

	"github.com/cespare/xxhash/v2"
)

// ContentTracker remembers a digest per file so that writes which leave the
// bytes unchanged can be told apart from real edits.
type ContentTracker struct {
	mu      sync.Mutex
	digests map[unique.Handle[string]]uint64
	read    func(path string) ([]byte, error)
}

// NewContentTracker creates an empty tracker reading from the OS file system.
func NewContentTracker() *ContentTracker {
	return &ContentTracker{
		digests: make(map[unique.Handle[string]]uint64),
		read:    os.ReadFile,
	}
}

// Changed rehashes path and reports whether its bytes differ from the last
// observation. Unknown or unreadable files count as changed.
func (t *ContentTracker) Changed(path string) bool {
	data, err := t.read(path)

	t.mu.Lock()
	defer t.mu.Unlock()

	key := unique.Make(path)
	if err != nil {
		delete(t.digests, key)
		return true
	}

	digest := xxhash.Sum64(data)
	prev, known := t.digests[key]
	t.digests[key] = digest
	return !known || prev != digest
}

// Observe records the current digest of path without reporting a change.
func (t *ContentTracker) Observe(path string) {
	_ = t.Changed(path)
}

// Move carries the digest of oldPath over to newPath.
func (t *ContentTracker) Move(oldPath, newPath string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	oldKey := unique.Make(oldPath)
	if digest, ok := t.digests[oldKey]; ok {
		t.digests[unique.Make(newPath)] = digest
		delete(t.digests, oldKey)
	}
}

// Forget drops path.
func (t *ContentTracker) Forget(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.digests, unique.Make(path))
}

// Len returns the number of tracked files.
func (t *ContentTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.digests)
}
