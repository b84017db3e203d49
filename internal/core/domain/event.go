package domain

import "fmt"

// ChangeKind is the raw kind of a file system change reported by the host.
type ChangeKind uint8

const (
	// ChangeCreate reports a new file or directory at NewPath.
	ChangeCreate ChangeKind = iota
	// ChangeDelete reports the removal of OldPath.
	ChangeDelete
	// ChangeMove reports a move from OldPath to NewPath.
	ChangeMove
	// ChangeRename reports a rename in place, from OldPath to NewPath.
	ChangeRename
	// ChangeContent reports a content change at NewPath (or OldPath).
	ChangeContent
	// ChangeCopy reports a copy whose destination is NewPath.
	ChangeCopy
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeCreate:
		return "create"
	case ChangeDelete:
		return "delete"
	case ChangeMove:
		return "move"
	case ChangeRename:
		return "rename"
	case ChangeContent:
		return "content"
	case ChangeCopy:
		return "copy"
	default:
		return fmt.Sprintf("ChangeKind(%d)", k)
	}
}

// ChangeEvent is one entry of a change batch.
type ChangeEvent struct {
	// OldPath is the path before the change; empty for creations and copies.
	OldPath string
	// NewPath is the path after the change; empty for deletions.
	NewPath string
	Kind    ChangeKind
	// ContentChanged is set when the file bytes differ after the change.
	ContentChanged bool
	// IsDir is set when the change concerns a directory.
	IsDir bool
}

// Paths returns the prior and resulting path. Content changes report the same
// path on both sides.
func (e ChangeEvent) Paths() (oldPath, newPath string) {
	oldPath, newPath = e.OldPath, e.NewPath
	if e.Kind == ChangeContent {
		if newPath == "" {
			newPath = oldPath
		}
		oldPath = newPath
	}
	return oldPath, newPath
}

// EventKind is the classification of a ChangeEvent against a Scope.
type EventKind uint8

const (
	// EventIgnored marks events that touch nothing inside the scope.
	EventIgnored EventKind = iota
	// EventCreate is a new template in scope.
	EventCreate
	// EventMoveIn is a template moved or renamed into scope from outside.
	EventMoveIn
	// EventDelete is a template removed from scope.
	EventDelete
	// EventMoveOut is a template moved or renamed out of scope.
	EventMoveOut
	// EventMoveWithinScope is a template moved between two paths in scope.
	EventMoveWithinScope
	// EventRenameProperty is a template renamed in place within scope.
	EventRenameProperty
	// EventContentChange is an edit to a template in scope.
	EventContentChange
	// EventCopy is a copy into scope. It is handled as a creation of the destination.
	EventCopy
)

func (k EventKind) String() string {
	switch k {
	case EventIgnored:
		return "ignored"
	case EventCreate:
		return "create"
	case EventMoveIn:
		return "move-in"
	case EventDelete:
		return "delete"
	case EventMoveOut:
		return "move-out"
	case EventMoveWithinScope:
		return "move-within-scope"
	case EventRenameProperty:
		return "rename"
	case EventContentChange:
		return "content-change"
	case EventCopy:
		return "copy"
	default:
		return fmt.Sprintf("EventKind(%d)", k)
	}
}

// Relevant reports whether the event requires a rebuild.
func (k EventKind) Relevant() bool {
	return k != EventIgnored
}

// HasOld reports whether the prior path names something inside the scope.
func (k EventKind) HasOld() bool {
	switch k {
	case EventDelete, EventMoveOut, EventMoveWithinScope, EventRenameProperty, EventContentChange:
		return true
	default:
		return false
	}
}

// HasNew reports whether the resulting path names something inside the scope.
func (k EventKind) HasNew() bool {
	switch k {
	case EventCreate, EventMoveIn, EventMoveWithinScope, EventRenameProperty, EventContentChange, EventCopy:
		return true
	default:
		return false
	}
}

// Classify maps a raw change onto an EventKind. Files must carry the scope
// suffix to be in scope; directories only need to lie under the root.
func Classify(scope Scope, e ChangeEvent) EventKind {
	in := func(p string) bool {
		if p == "" {
			return false
		}
		if e.IsDir {
			rel, ok := scope.Rel(p)
			return ok && rel != ""
		}
		return scope.Contains(p)
	}

	oldPath, newPath := e.Paths()
	oldIn, newIn := in(oldPath), in(newPath)

	switch e.Kind {
	case ChangeCopy:
		if newIn {
			return EventCopy
		}
	case ChangeCreate:
		if newIn {
			return EventCreate
		}
	case ChangeDelete:
		if oldIn {
			return EventDelete
		}
	case ChangeContent:
		if newIn && e.ContentChanged {
			return EventContentChange
		}
	case ChangeMove, ChangeRename:
		switch {
		case !oldIn && newIn:
			return EventMoveIn
		case oldIn && !newIn:
			return EventMoveOut
		case oldIn && newIn && oldPath != newPath:
			if e.Kind == ChangeRename {
				return EventRenameProperty
			}
			return EventMoveWithinScope
		case oldIn && newIn && e.ContentChanged:
			return EventContentChange
		}
	}
	return EventIgnored
}
