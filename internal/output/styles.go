package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette. Never use inline lipgloss.Color literals elsewhere.
var (
	// ColorCyan is used for identifiable nouns: module IDs, chunk names, paths.
	ColorCyan = lipgloss.Color("14")

	// ColorGreen is used for the "written" artifact status.
	ColorGreen = lipgloss.Color("82")

	// ColorYellow is used for the "injected" artifact status.
	ColorYellow = lipgloss.Color("220")

	// ColorRed is used for removals in diffs.
	ColorRed = lipgloss.Color("196")

	// ColorBoldRed is used for the "failed" status (matches ERROR level).
	ColorBoldRed = lipgloss.Color("204")

	// ColorGreenCheck is used for the completion checkmark.
	ColorGreenCheck = lipgloss.Color("10")

	// ColorDimGray is used for borders and other structural chrome.
	ColorDimGray = lipgloss.Color("240")

	// ColorBlue is used for table headers.
	ColorBlue = lipgloss.Color("12")
)

// Semantic styles.
var (
	// StyleNoun styles identifiable nouns (module IDs, chunk names, paths).
	StyleNoun = lipgloss.NewStyle().Foreground(ColorCyan)

	// StyleAction styles action verbs (building, writing, cleaning).
	StyleAction = lipgloss.NewStyle().Bold(true)

	// StyleDim styles structural chrome (scope prefixes, separators).
	StyleDim = lipgloss.NewStyle().Faint(true)

	// StyleSummary styles completion and summary lines.
	StyleSummary = lipgloss.NewStyle().Bold(true)

	styleAdded    = lipgloss.NewStyle().Foreground(ColorGreen)
	styleRemoved  = lipgloss.NewStyle().Foreground(ColorRed)
	styleModified = lipgloss.NewStyle().Foreground(ColorYellow)
)

// Artifact status constants.
const (
	StatusWritten  = "written"
	StatusInjected = "injected"
	StatusFailed   = "failed"
)

// StatusStyle returns the style for an artifact status.
// Unknown statuses return an unstyled default.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case StatusWritten:
		return lipgloss.NewStyle().Foreground(ColorGreen)
	case StatusInjected:
		return lipgloss.NewStyle().Foreground(ColorYellow)
	case StatusFailed:
		return lipgloss.NewStyle().Bold(true).Foreground(ColorBoldRed)
	default:
		return lipgloss.NewStyle()
	}
}

// minArtifactColumnWidth keeps status words aligned across lines.
const minArtifactColumnWidth = 40

// FormatArtifactLine renders an artifact path with a right-aligned status.
//
// Format: a:<path>  <status>
func FormatArtifactLine(path, status string) string {
	padding := minArtifactColumnWidth - len(path)
	if padding < 2 {
		padding = 2
	}

	return StyleDim.Render("a:") +
		StyleNoun.Render(path) +
		strings.Repeat(" ", padding) +
		StatusStyle(status).Render(status)
}

// FormatCheckmark renders a green checkmark with a message.
func FormatCheckmark(msg string) string {
	check := lipgloss.NewStyle().Foreground(ColorGreenCheck).Render("✔")
	return check + " " + msg
}

// FormatBytes renders a byte count in human units.
func FormatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
