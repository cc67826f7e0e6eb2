package cmd

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

const (
	colorMuted   = lipgloss.Color("#6B7280")
	colorSuccess = lipgloss.Color("#10B981")
	colorError   = lipgloss.Color("#EF4444")
	colorWarning = lipgloss.Color("#F59E0B")
	colorPath    = lipgloss.Color("#3B82F6")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	pathStyle    = lipgloss.NewStyle().Foreground(colorPath)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
)

// disableColor replaces every style with a plain one. NO_COLOR is set so
// the logger renders without color too.
func disableColor() {
	plain := lipgloss.NewStyle()
	titleStyle, successStyle, warningStyle = plain, plain, plain
	errorStyle, pathStyle, mutedStyle = plain, plain, plain
	_ = os.Setenv("NO_COLOR", "1")
}

// stateStyle picks the style for an entity or file state.
func stateStyle(state string) lipgloss.Style {
	switch state {
	case "fetched", "written", "removed":
		return successStyle
	case "drifted", "would-remove", "no-file":
		return warningStyle
	case "missing":
		return errorStyle
	default:
		return mutedStyle
	}
}
