package watcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/stache/internal/core/domain"
	"go.trai.ch/stache/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

// shouldSkipDirectories are directories that should not be watched.
var shouldSkipDirectories = map[string]bool{
	".git":               true,
	".jj":                true,
	"node_modules":       true,
	domain.StacheDirName: true,
}

const eventChannelBuffer = 100

// Watcher implements file system watching using fsnotify.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	events    chan ports.WatchEvent
	errOut    io.Writer

	mu      sync.Mutex
	dirs    map[string]struct{}
	started bool
}

// NewWatcher creates a new file system watcher.
func NewWatcher() (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.With(errors.Join(domain.ErrWatcherStartFailed, err), "backend", "fsnotify")
	}
	return &Watcher{
		fsWatcher: watcher,
		events:    make(chan ports.WatchEvent, eventChannelBuffer),
		errOut:    os.Stderr,
		dirs:      make(map[string]struct{}),
	}, nil
}

// SetErrorOutput redirects backend error reports.
func (w *Watcher) SetErrorOutput(out io.Writer) {
	w.errOut = out
}

// Start begins watching every root directory recursively. Roots that do not
// exist yet are skipped.
func (w *Watcher) Start(ctx context.Context, roots ...string) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return zerr.Wrap(domain.ErrWatcherStartFailed, "watcher already started")
	}
	w.started = true
	w.mu.Unlock()

	for _, root := range roots {
		if err := w.addTree(root); err != nil {
			return zerr.With(errors.Join(domain.ErrWatcherStartFailed, err), "root", root)
		}
	}

	go w.processEvents(ctx)

	return nil
}

// WatchFile adds a single file. Events for siblings in the same directory are
// forwarded too; callers filter by path.
func (w *Watcher) WatchFile(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return zerr.With(zerr.Wrap(domain.ErrWatcherNotStarted, "cannot watch file"), "file", path)
	}

	dir := filepath.Dir(path)
	if _, ok := w.dirs[dir]; !ok {
		if err := w.fsWatcher.Add(dir); err != nil {
			return zerr.With(errors.Join(domain.ErrWatcherStartFailed, err), "file", path)
		}
	}
	w.dirs[dir] = struct{}{}
	return nil
}

// Stop stops the watcher and releases all resources.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// Events returns an iterator of file system events.
func (w *Watcher) Events() iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for event := range w.events {
			if !yield(event) {
				return
			}
		}
	}
}

// addTree watches root and every directory below it.
func (w *Watcher) addTree(root string) error {
	for dir := range w.watchRecursively(root) {
		if err := w.fsWatcher.Add(dir); err != nil {
			return err
		}
		w.mu.Lock()
		w.dirs[dir] = struct{}{}
		w.mu.Unlock()
	}
	return nil
}

// watchRecursively walks the directory tree and yields all directories.
func (w *Watcher) watchRecursively(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// Continue walking even if there's an error accessing a directory.
				return nil //nolint:nilerr // unreadable directories are skipped
			}
			if d.IsDir() {
				if path != root && w.shouldSkip(d.Name()) {
					return fs.SkipDir
				}
				if !yield(path) {
					return filepath.SkipAll
				}
			}
			return nil
		})
	}
}

// shouldSkip returns true if the directory should be skipped.
func (w *Watcher) shouldSkip(name string) bool {
	return shouldSkipDirectories[name]
}

// processEvents processes raw fsnotify events and converts them to ports.WatchEvent.
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			watchEvent := w.convertEvent(event)
			if watchEvent == nil {
				continue
			}

			select {
			case w.events <- *watchEvent:
			case <-ctx.Done():
				return
			}

			// New directories (created or moved in) are watched recursively.
			if watchEvent.Operation == ports.OpCreate && watchEvent.IsDir {
				_ = w.addTree(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			_, _ = fmt.Fprintf(w.errOut, "watcher: file system error: %v\n", err)
		}
	}
}

// convertEvent converts an fsnotify event to a ports.WatchEvent.
func (w *Watcher) convertEvent(event fsnotify.Event) *ports.WatchEvent {
	path := filepath.Clean(event.Name)

	switch {
	case event.Op.Has(fsnotify.Create):
		info, err := os.Lstat(path)
		isDir := err == nil && info.IsDir()
		if isDir && w.shouldSkip(info.Name()) {
			return nil
		}
		return &ports.WatchEvent{Path: path, Operation: ports.OpCreate, IsDir: isDir}
	case event.Op.Has(fsnotify.Write):
		return &ports.WatchEvent{Path: path, Operation: ports.OpWrite}
	case event.Op.Has(fsnotify.Remove):
		return &ports.WatchEvent{Path: path, Operation: ports.OpRemove, IsDir: w.forget(path)}
	case event.Op.Has(fsnotify.Rename):
		return &ports.WatchEvent{Path: path, Operation: ports.OpRename, IsDir: w.forget(path)}
	}

	return nil
}

// forget drops path and everything below it from the watched directory set
// and reports whether path itself was a watched directory.
func (w *Watcher) forget(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, wasDir := w.dirs[path]
	if !wasDir {
		return false
	}
	prefix := path + string(filepath.Separator)
	for dir := range w.dirs {
		if dir == path || len(dir) > len(prefix) && dir[:len(prefix)] == prefix {
			delete(w.dirs, dir)
		}
	}
	return true
}
