package tui

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/stache/internal/ui/style"
)

var (
	rootPendingStyle = lipgloss.NewStyle().
				Foreground(style.Slate)

	rootRenderingStyle = lipgloss.NewStyle().
				Foreground(style.Iris).
				Bold(true)

	rootDoneStyle = lipgloss.NewStyle().
			Foreground(style.Green)

	rootErrorStyle = lipgloss.NewStyle().
			Foreground(style.Red)

	selectedStyle = lipgloss.NewStyle().
			Foreground(style.Iris).
			Bold(true)

	faintStyle = lipgloss.NewStyle().
			Foreground(style.Slate).
			Faint(true)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Background(style.Iris).
			Foreground(style.White)

	failureTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Padding(0, 1).
				Background(style.Red).
				Foreground(style.White)
)
