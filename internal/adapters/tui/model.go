package tui

import (
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Span names emitted by the engine.
const (
	spanBatch        = "process_batch"
	spanRebuild      = "rebuild"
	spanRenderPrefix = "render "
)

// RootStatus represents the current state of a root in the dashboard.
type RootStatus string

const (
	// StatusPending indicates the root has not been rendered yet.
	StatusPending RootStatus = "Pending"
	// StatusRendering indicates a render of the root is in flight.
	StatusRendering RootStatus = "Rendering"
	// StatusDone indicates the last render succeeded.
	StatusDone RootStatus = "Done"
	// StatusError indicates the last render failed.
	StatusError RootStatus = "Error"
)

// RootRow represents a single root in the dashboard list.
type RootRow struct {
	Name     string
	Status   RootStatus
	Renders  int
	Duration time.Duration
	Err      error
}

type activeSpan struct {
	row   *RootRow
	start time.Time
}

// Model represents the watch dashboard state.
type Model struct {
	Rows        []*RootRow
	RowMap      map[string]*RootRow
	SpanMap     map[string]activeSpan
	Batches     int
	LastBatch   time.Duration
	Rebuilding  bool
	SelectedIdx int
	ListOffset  int
	ListHeight  int
	Width       int

	batchStarts map[string]time.Time
	rebuilds    map[string]bool
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) ensureVisible() {
	if m.ListHeight <= 0 {
		return
	}
	if m.SelectedIdx < m.ListOffset {
		m.ListOffset = m.SelectedIdx
	} else if m.SelectedIdx >= m.ListOffset+m.ListHeight {
		m.ListOffset = m.SelectedIdx - m.ListHeight + 1
	}
}

// Selected returns the highlighted row, or nil when the list is empty.
func (m *Model) Selected() *RootRow {
	if m.SelectedIdx >= 0 && m.SelectedIdx < len(m.Rows) {
		return m.Rows[m.SelectedIdx]
	}
	return nil
}

// row returns the row of root, inserting it in name order when it is new.
func (m *Model) row(root string) *RootRow {
	if r, ok := m.RowMap[root]; ok {
		return r
	}
	r := &RootRow{Name: root, Status: StatusPending}
	i, _ := slices.BinarySearchFunc(m.Rows, root, func(row *RootRow, name string) int {
		return strings.Compare(row.Name, name)
	})
	m.Rows = slices.Insert(m.Rows, i, r)
	m.RowMap[root] = r
	if i <= m.SelectedIdx && len(m.Rows) > 1 {
		m.SelectedIdx++
	}
	return r
}

// Update handles incoming messages and updates the model state.
//
//nolint:cyclop // one case per message kind
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "k", "up":
			if m.SelectedIdx > 0 {
				m.SelectedIdx--
				m.ensureVisible()
			}
		case "j", "down":
			if m.SelectedIdx < len(m.Rows)-1 {
				m.SelectedIdx++
				m.ensureVisible()
			}
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		header := titleStyle.Render("ROOTS") + "\n\n"
		m.ListHeight = msg.Height - lipgloss.Height(header) - footerHeight
		m.ensureVisible()

	case MsgSpanStart:
		switch {
		case msg.Name == spanBatch:
			m.batchStarts[msg.SpanID] = msg.StartTime
		case msg.Name == spanRebuild:
			m.rebuilds[msg.SpanID] = true
			m.Rebuilding = true
		case strings.HasPrefix(msg.Name, spanRenderPrefix):
			r := m.row(strings.TrimPrefix(msg.Name, spanRenderPrefix))
			r.Status = StatusRendering
			m.SpanMap[msg.SpanID] = activeSpan{row: r, start: msg.StartTime}
		}

	case MsgSpanEnd:
		if start, ok := m.batchStarts[msg.SpanID]; ok {
			delete(m.batchStarts, msg.SpanID)
			m.Batches++
			m.LastBatch = msg.EndTime.Sub(start)
		}
		if m.rebuilds[msg.SpanID] {
			delete(m.rebuilds, msg.SpanID)
			m.Rebuilding = len(m.rebuilds) > 0
		}
		if span, ok := m.SpanMap[msg.SpanID]; ok {
			delete(m.SpanMap, msg.SpanID)
			span.row.Renders++
			span.row.Duration = msg.EndTime.Sub(span.start)
			span.row.Err = msg.Err
			if msg.Err != nil {
				span.row.Status = StatusError
			} else {
				span.row.Status = StatusDone
			}
		}
	}

	return m, nil
}
