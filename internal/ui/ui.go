// Package ui provides styled terminal output for the erdgen CLI.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Theme is the single source of truth for CLI output styling.
type Theme struct {
	Primary lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
	Header  lipgloss.Style
}

// DefaultTheme returns the default color theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary: lipgloss.NewStyle().Foreground(lipgloss.Color("12")), // Blue
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")), // Green
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),  // Red
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")), // Yellow
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")), // Cyan
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),  // Gray
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
	}
}

// PlainTheme returns a theme with no styling, used when stdout is not a
// terminal or NO_COLOR is set.
func PlainTheme() *Theme {
	plain := lipgloss.NewStyle()
	return &Theme{
		Primary: plain, Success: plain, Error: plain,
		Warning: plain, Info: plain, Dim: plain, Header: plain,
	}
}

var theme = func() *Theme {
	if os.Getenv("NO_COLOR") != "" || !isatty.IsTerminal(os.Stdout.Fd()) {
		return PlainTheme()
	}
	return DefaultTheme()
}()

// SetTheme replaces the global theme.
func SetTheme(t *Theme) {
	theme = t
}

// Primary renders text in the primary color.
func Primary(text string) string { return theme.Primary.Render(text) }

// Info renders text in the info color.
func Info(text string) string { return theme.Info.Render(text) }

// Dim renders text in a dimmed color.
func Dim(text string) string { return theme.Dim.Render(text) }

// Header renders text as a bold header.
func Header(text string) string { return theme.Header.Render(text) }

// Success renders text with a success checkmark.
func Success(text string) string { return theme.Success.Render("✓ " + text) }

// Error renders text with an error cross.
func Error(text string) string { return theme.Error.Render("✗ " + text) }

// Warning renders text with a warning sign.
func Warning(text string) string { return theme.Warning.Render("⚠ " + text) }

// FilePath renders a file path in the primary color.
func FilePath(path string) string { return theme.Primary.Render(path) }

// FormatError renders an error message in the error style.
func FormatError(err error) string { return Error(err.Error()) }
