package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/stache/internal/ui/style"
)

// footerHeight is the number of lines below the root list.
const footerHeight = 3

// View renders the UI.
func (m *Model) View() string {
	if m.ListHeight == 0 {
		return "Initializing..."
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.rootList(),
		m.footer(),
	)
}

func (m *Model) rootList() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("ROOTS") + "\n\n")

	start := m.ListOffset
	end := min(m.ListOffset+m.ListHeight, len(m.Rows))
	start = min(start, end)

	if len(m.Rows) == 0 {
		s.WriteString(faintStyle.Render("  waiting for renders") + "\n")
	}
	for i := start; i < end; i++ {
		s.WriteString(m.renderRow(i, m.Rows[i]) + "\n")
	}

	return s.String()
}

func (m *Model) renderRow(index int, row *RootRow) string {
	icon := rootIcon(row)
	st := rootStyle(row)

	cursor := "  "
	if index == m.SelectedIdx {
		cursor = selectedStyle.Render("> ")
		if row.Status != StatusDone && row.Status != StatusError {
			st = selectedStyle
		}
	}

	content := fmt.Sprintf("%s %s", icon, row.Name)
	if row.Renders > 0 {
		content += faintStyle.Render(fmt.Sprintf("  %s ×%d", row.Duration.Round(time.Millisecond), row.Renders))
	}
	return cursor + st.Render(content)
}

func rootIcon(row *RootRow) string {
	switch row.Status {
	case StatusRendering:
		return style.Dot
	case StatusDone:
		return style.Check
	case StatusError:
		return style.Cross
	default:
		return style.Circle
	}
}

func rootStyle(row *RootRow) lipgloss.Style {
	switch row.Status {
	case StatusRendering:
		return rootRenderingStyle
	case StatusDone:
		return rootDoneStyle
	case StatusError:
		return rootErrorStyle
	default:
		return rootPendingStyle
	}
}

// footer shows the selected root's last error, or the watch status line.
func (m *Model) footer() string {
	if row := m.Selected(); row != nil && row.Err != nil {
		msg := row.Err.Error()
		if m.Width > 0 && len(msg) > m.Width {
			msg = msg[:m.Width]
		}
		return "\n" + failureTitleStyle.Render("FAILED: "+row.Name) + "\n" + msg
	}

	status := fmt.Sprintf("%d batch(es)", m.Batches)
	if m.Batches > 0 {
		status += fmt.Sprintf(", last took %s", m.LastBatch.Round(time.Millisecond))
	}
	if m.Rebuilding {
		status += ", indexing..."
	}
	return "\n" + faintStyle.Render(status) + "\n" + faintStyle.Render("q quit • ↑/↓ select")
}
