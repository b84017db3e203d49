// Package linear provides a line-oriented progress reporter for the watch loop.
package linear

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/stache/internal/adapters/detector"
	"go.trai.ch/stache/internal/ui/output"
	"go.trai.ch/stache/internal/ui/style"
)

// Reporter implements ports.Reporter by printing one line per finished unit of
// work. Top-level units also announce their start.
type Reporter struct {
	w      io.Writer
	output *termenv.Output

	mu    sync.Mutex
	tasks map[string]taskState // spanID -> task state
}

type taskState struct {
	name      string
	parentID  string
	startTime time.Time
}

// NewReporter creates a Reporter writing to w (stderr when nil). profile selects
// the colour profile; nil uses output.ColorProfileANSI.
func NewReporter(w io.Writer, profile func() termenv.Profile) *Reporter {
	if w == nil {
		w = os.Stderr
	}
	if profile == nil {
		profile = output.ColorProfileANSI
	}

	return &Reporter{
		w:      w,
		output: output.NewWithProfile(w, profile),
		tasks:  make(map[string]taskState),
	}
}

// OnTaskStart records the unit and prints a start line for top-level units.
func (r *Reporter) OnTaskStart(spanID, parentID, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks[spanID] = taskState{
		name:      name,
		parentID:  parentID,
		startTime: startTime,
	}

	if parentID != "" {
		return
	}
	_, _ = fmt.Fprintf(r.w, "%s Starting...\n", r.prefix(name))
}

// OnTaskComplete prints the outcome and duration of a unit.
func (r *Reporter) OnTaskComplete(spanID string, endTime time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[spanID]
	if !ok {
		return
	}
	delete(r.tasks, spanID)

	duration := endTime.Sub(task.startTime)
	indent := ""
	if task.parentID != "" {
		indent = "  "
	}

	if err != nil {
		symbol := r.output.String(style.Cross).Foreground(termenv.ANSIRed).String()
		_, _ = fmt.Fprintf(r.w, "%s%s %s Failed after %v: %v\n",
			indent, r.prefix(task.name), symbol, duration, err)
		return
	}

	symbol := r.output.String(style.Check).Foreground(termenv.ANSIGreen).String()
	_, _ = fmt.Fprintf(r.w, "%s%s %s Completed in %v\n",
		indent, r.prefix(task.name), symbol, duration)
}

// Pending reports how many units have started but not completed.
func (r *Reporter) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

func (r *Reporter) prefix(name string) string {
	return r.output.String(fmt.Sprintf("[%s]", name)).Faint().String()
}

// ProfileFor returns the colour profile selector for an output mode.
func ProfileFor(mode detector.OutputMode) func() termenv.Profile {
	if mode == detector.ModePretty {
		return output.ColorProfile
	}
	return output.ColorProfileANSI
}
