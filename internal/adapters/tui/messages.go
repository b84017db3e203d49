package tui

import "time"

// MsgSpanStart indicates a unit of engine work has started.
type MsgSpanStart struct {
	SpanID    string
	ParentID  string
	Name      string
	StartTime time.Time
}

// MsgSpanEnd indicates a unit of engine work has finished.
type MsgSpanEnd struct {
	SpanID  string
	EndTime time.Time
	Err     error
}
