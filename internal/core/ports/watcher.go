package ports

import (
	"context"
	"iter"
)

// WatchOp is the raw kind of a file system notification, before it is paired
// and classified against the template scope.
type WatchOp uint8

const (
	// OpCreate is a new file or directory at Path.
	OpCreate WatchOp = iota
	// OpWrite is a content change of the file at Path.
	OpWrite
	// OpRemove is the deletion of Path.
	OpRemove
	// OpRename is Path moving away. The destination, if it is watched,
	// arrives as a separate OpCreate.
	OpRename
)

// WatchEvent is one raw notification.
type WatchEvent struct {
	Path      string
	Operation WatchOp
	// IsDir is set when Path is, or was before removal, a directory.
	IsDir bool
}

// Watcher streams file system changes below the template root and for
// individually watched files such as the configuration file.
//
//go:generate mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Start watches each root recursively until ctx is done or Stop is called.
	Start(ctx context.Context, roots ...string) error
	// WatchFile watches a single file through its parent directory.
	WatchFile(path string) error
	// Stop releases the underlying watches and ends Events.
	Stop() error
	// Events yields notifications until the watcher stops.
	Events() iter.Seq[WatchEvent]
}
