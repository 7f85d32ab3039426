// Package ux provides terminal output styling and value formatting for the
// kassolend CLI.
package ux

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	ColorSuccess = lipgloss.Color("#2E9E6A")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
	ColorMuted   = lipgloss.Color("#6B7B8C")
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title   lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorSuccess),
	Bold:    lipgloss.NewStyle().Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(ColorMuted),
	Success: lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	Error:   lipgloss.NewStyle().Foreground(ColorError),
}

// Success prints a line prefixed with a check mark
func Success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", Styles.Success.Render("✓"), fmt.Sprintf(format, args...))
}

// Warn prints a line prefixed with a warning sign
func Warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", Styles.Warning.Render("⚠"), fmt.Sprintf(format, args...))
}

// Title prints a heading followed by a blank line
func Title(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s\n\n", Styles.Title.Render(fmt.Sprintf(format, args...)))
}

// Status colors a loan or customer status for display
func Status(status string) string {
	switch status {
	case "ACTIVE", "DISBURSED", "PAID", "COMPLETED":
		return Styles.Success.Render(status)
	case "OVERDUE", "DEFAULTED", "REJECTED", "INACTIVE":
		return Styles.Error.Render(status)
	case "PENDING", "PARTIAL", "APPROVED":
		return Styles.Warning.Render(status)
	default:
		return status
	}
}
