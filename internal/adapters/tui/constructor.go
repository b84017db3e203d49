// Package tui provides the interactive watch dashboard.
package tui

import (
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/stache/internal/ui/output"
)

// NewModel creates a new dashboard model whose colours follow w's terminal.
func NewModel(w io.Writer) Model {
	out := output.New(w)
	lipgloss.SetColorProfile(out.Profile)

	return Model{
		Rows:        make([]*RootRow, 0),
		RowMap:      make(map[string]*RootRow),
		SpanMap:     make(map[string]activeSpan),
		batchStarts: make(map[string]time.Time),
		rebuilds:    make(map[string]bool),
	}
}
