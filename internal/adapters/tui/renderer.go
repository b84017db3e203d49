package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/stache/internal/core/ports"
)

var _ ports.Reporter = (*Dashboard)(nil)

// Dashboard runs the Bubble Tea model and feeds it engine progress as a ports.Reporter.
type Dashboard struct {
	program *tea.Program
	model   *Model
	errCh   chan error
}

// NewDashboard creates a new dashboard program for model.
func NewDashboard(model *Model, opts ...tea.ProgramOption) *Dashboard {
	return &Dashboard{
		program: tea.NewProgram(model, opts...),
		model:   model,
		errCh:   make(chan error, 1),
	}
}

// Start launches the program in a background goroutine. done is called
// when the program exits, whether the user quit or Stop was called.
func (d *Dashboard) Start(_ context.Context, done func()) error {
	go func() {
		_, err := d.program.Run()
		if done != nil {
			done()
		}
		d.errCh <- err
	}()
	return nil
}

// Stop signals the program to quit.
func (d *Dashboard) Stop() error {
	d.program.Quit()
	return nil
}

// Wait blocks until the program has terminated.
func (d *Dashboard) Wait() error {
	return <-d.errCh
}

// OnTaskStart forwards span starts to the model.
func (d *Dashboard) OnTaskStart(spanID, parentID, name string, startTime time.Time) {
	d.program.Send(MsgSpanStart{
		SpanID:    spanID,
		ParentID:  parentID,
		Name:      name,
		StartTime: startTime,
	})
}

// OnTaskComplete forwards span ends to the model.
func (d *Dashboard) OnTaskComplete(spanID string, endTime time.Time, err error) {
	d.program.Send(MsgSpanEnd{
		SpanID:  spanID,
		EndTime: endTime,
		Err:     err,
	})
}

// Program returns the underlying tea.Program for testing.
func (d *Dashboard) Program() *tea.Program {
	return d.program
}
