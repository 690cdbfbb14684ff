// Package layout renders the header and footer bars shared by terminal
// views.
package layout

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/diacheck/internal/ui/theme"
)

// DefaultWidth is used before the terminal reports its size.
const DefaultWidth = 72

// KeyHint represents a key binding hint shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

func bar(width int) lipgloss.Style {
	if width <= 0 {
		width = DefaultWidth
	}
	return lipgloss.NewStyle().
		Width(width).
		Background(theme.BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border)
}

// RenderHeader renders the application name, a title and a right-aligned
// status.
func RenderHeader(title, status string, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	left := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(" diacheck")
	center := lipgloss.NewStyle().Foreground(theme.Text).Render(title)
	right := lipgloss.NewStyle().Foreground(theme.Accent).Render(status)

	leftLen := lipgloss.Width(left)
	centerLen := lipgloss.Width(center)
	rightLen := lipgloss.Width(right)

	innerWidth := max(width-4, 0) // border and padding

	leftGap := max((innerWidth-centerLen)/2-leftLen, 1)
	rightGap := max(innerWidth-leftLen-leftGap-centerLen-rightLen, 1)

	content := left + strings.Repeat(" ", leftGap) + center + strings.Repeat(" ", rightGap) + right
	return bar(width).Render(content)
}

// RenderFooter renders the footer with key hints.
func RenderFooter(hints []KeyHint, width int) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		part := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(h.Key) +
			" " +
			lipgloss.NewStyle().Foreground(theme.TextDim).Render(h.Description)
		parts = append(parts, part)
	}
	return bar(width).Render(" " + strings.Join(parts, "   "))
}
