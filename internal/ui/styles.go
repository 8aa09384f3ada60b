// Package ui provides the shared lipgloss styles used for console output:
// log lines, the progress bar and the end-of-run report.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme colors (Catppuccin Mocha inspired).
var (
	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#1e66f5", Dark: "#89b4fa"} // Blue
	ColorSecondary = lipgloss.AdaptiveColor{Light: "#7c3aed", Dark: "#cba6f7"} // Mauve
	ColorSuccess   = lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"} // Green
	ColorWarning   = lipgloss.AdaptiveColor{Light: "#df8e1d", Dark: "#f9e2af"} // Yellow
	ColorError     = lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"} // Red
	ColorMuted     = lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#6c7086"} // Overlay0
	ColorText      = lipgloss.AdaptiveColor{Light: "#4c4f69", Dark: "#cdd6f4"} // Text
)

// Styles contains reusable lipgloss styles for console output.
type Styles struct {
	// Headings
	Title  lipgloss.Style
	Header lipgloss.Style

	// Status styles
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	Muted   lipgloss.Style

	// Prompt
	Prompt lipgloss.Style
	Hint   lipgloss.Style

	// Progress
	ProgressFilled lipgloss.Style
	ProgressEmpty  lipgloss.Style
}

// DefaultStyles returns the default console styles.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary),

		Success: lipgloss.NewStyle().
			Foreground(ColorSuccess),

		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning),

		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError),

		Info: lipgloss.NewStyle().
			Foreground(ColorText),

		Muted: lipgloss.NewStyle().
			Foreground(ColorMuted),

		Prompt: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),

		Hint: lipgloss.NewStyle().
			Foreground(ColorMuted),

		ProgressFilled: lipgloss.NewStyle().
			Foreground(ColorPrimary),

		ProgressEmpty: lipgloss.NewStyle().
			Foreground(ColorMuted),
	}
}

// PlainStyles returns styles that render text unchanged.
// Used for log files, JSON output and tests.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Title:          plain,
		Header:         plain,
		Success:        plain,
		Warning:        plain,
		Error:          plain,
		Info:           plain,
		Muted:          plain,
		Prompt:         plain,
		Hint:           plain,
		ProgressFilled: plain,
		ProgressEmpty:  plain,
	}
}
