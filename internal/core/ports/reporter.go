package ports

import "time"

// Reporter presents the progress of engine work (rebuilds, renders) to the user.
//
//go:generate mockgen -source=reporter.go -destination=mocks/mock_reporter.go -package=mocks
type Reporter interface {
	// OnTaskStart is called when a unit of work begins.
	// spanID: unique identifier for this unit
	// parentID: spanID of the enclosing unit (empty at top level)
	// name: human-readable name
	OnTaskStart(spanID, parentID, name string, startTime time.Time)

	// OnTaskComplete is called when a unit of work finishes.
	// err: nil if successful, error otherwise
	OnTaskComplete(spanID string, endTime time.Time, err error)
}
