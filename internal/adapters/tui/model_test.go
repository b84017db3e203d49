package tui_test

import (
	"errors"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stache/internal/adapters/tui"
)

func newModel(t *testing.T) *tui.Model {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	m := tui.NewModel(io.Discard)
	_, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	return &m
}

func render(m *tui.Model, spanID, root string, start time.Time, took time.Duration, err error) {
	_, _ = m.Update(tui.MsgSpanStart{SpanID: spanID, Name: "render " + root, StartTime: start})
	_, _ = m.Update(tui.MsgSpanEnd{SpanID: spanID, EndTime: start.Add(took), Err: err})
}

func TestModel_RenderSpans(t *testing.T) {
	m := newModel(t)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, _ = m.Update(tui.MsgSpanStart{SpanID: "s1", Name: "render index", StartTime: start})
	require.Len(t, m.Rows, 1)
	assert.Equal(t, tui.StatusRendering, m.Rows[0].Status)

	_, _ = m.Update(tui.MsgSpanEnd{SpanID: "s1", EndTime: start.Add(4 * time.Millisecond)})
	row := m.RowMap["index"]
	assert.Equal(t, tui.StatusDone, row.Status)
	assert.Equal(t, 4*time.Millisecond, row.Duration)
	assert.Equal(t, 1, row.Renders)
	assert.Empty(t, m.SpanMap)

	render(m, "s2", "index", start, time.Millisecond, errors.New("template is not renderable"))
	assert.Equal(t, tui.StatusError, row.Status)
	assert.Equal(t, 2, row.Renders)
	require.Error(t, row.Err)
}

func TestModel_RowsStaySorted(t *testing.T) {
	m := newModel(t)
	now := time.Now()

	render(m, "1", "page", now, time.Millisecond, nil)
	render(m, "2", "about", now, time.Millisecond, nil)
	render(m, "3", "index", now, time.Millisecond, nil)

	names := make([]string, 0, len(m.Rows))
	for _, r := range m.Rows {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"about", "index", "page"}, names)
	// Selection follows the first row that appeared.
	assert.Equal(t, "page", m.Selected().Name)
}

func TestModel_BatchAndRebuildSpans(t *testing.T) {
	m := newModel(t)
	start := time.Now()

	_, _ = m.Update(tui.MsgSpanStart{SpanID: "b", Name: "process_batch", StartTime: start})
	_, _ = m.Update(tui.MsgSpanStart{SpanID: "r", ParentID: "b", Name: "rebuild", StartTime: start})
	assert.True(t, m.Rebuilding)

	_, _ = m.Update(tui.MsgSpanEnd{SpanID: "r", EndTime: start.Add(time.Millisecond)})
	assert.False(t, m.Rebuilding)

	_, _ = m.Update(tui.MsgSpanEnd{SpanID: "b", EndTime: start.Add(7 * time.Millisecond)})
	assert.Equal(t, 1, m.Batches)
	assert.Equal(t, 7*time.Millisecond, m.LastBatch)
	assert.Empty(t, m.Rows)
}

func TestModel_UnknownSpanEndIgnored(t *testing.T) {
	m := newModel(t)
	require.NotPanics(t, func() {
		_, _ = m.Update(tui.MsgSpanEnd{SpanID: "ghost", EndTime: time.Now()})
	})
	assert.Zero(t, m.Batches)
}

func TestModel_Navigation(t *testing.T) {
	m := newModel(t)
	now := time.Now()
	for i, name := range []string{"a", "b", "c"} {
		render(m, string(rune('0'+i)), name, now, time.Millisecond, nil)
	}
	m.SelectedIdx = 0

	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.SelectedIdx)
	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	assert.Equal(t, 2, m.SelectedIdx)

	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, m.SelectedIdx)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_ScrollKeepsSelectionVisible(t *testing.T) {
	m := newModel(t)
	_, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 8})
	require.Equal(t, 2, m.ListHeight)

	now := time.Now()
	for i, name := range []string{"a", "b", "c", "d"} {
		render(m, string(rune('0'+i)), name, now, time.Millisecond, nil)
	}
	m.SelectedIdx = 0

	for range 3 {
		_, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, 3, m.SelectedIdx)
	assert.Equal(t, 2, m.ListOffset)
}

func TestModel_View(t *testing.T) {
	t.Run("before sizing", func(t *testing.T) {
		t.Setenv("NO_COLOR", "1")
		m := tui.NewModel(io.Discard)
		assert.Equal(t, "Initializing...", m.View())
	})

	t.Run("empty", func(t *testing.T) {
		m := newModel(t)
		view := m.View()
		assert.Contains(t, view, "ROOTS")
		assert.Contains(t, view, "waiting for renders")
		assert.Contains(t, view, "0 batch(es)")
	})

	t.Run("rows and status", func(t *testing.T) {
		m := newModel(t)
		now := time.Now()
		render(m, "1", "about", now, 3*time.Millisecond, nil)
		render(m, "2", "index", now, time.Millisecond, errors.New("include depth exceeded"))
		_, _ = m.Update(tui.MsgSpanStart{SpanID: "b", Name: "process_batch", StartTime: now})
		_, _ = m.Update(tui.MsgSpanEnd{SpanID: "b", EndTime: now.Add(12 * time.Millisecond)})

		view := m.View()
		assert.Contains(t, view, "> ✓ about  3ms ×1")
		assert.Contains(t, view, "  ✗ index  1ms ×1")
		assert.Contains(t, view, "1 batch(es), last took 12ms")
	})

	t.Run("selected failure shows the error", func(t *testing.T) {
		m := newModel(t)
		render(m, "1", "index", time.Now(), time.Millisecond, errors.New("include depth exceeded"))

		view := m.View()
		assert.Contains(t, view, "FAILED: index")
		assert.Contains(t, view, "include depth exceeded")
	})
}
