package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fueltank/fueltank/internal/tui/theme"
)

// RenderStatusBar renders the bottom bar: key hints on the left, a
// transient message in the middle and the data age on the right.
func RenderStatusBar(width int, hints, message, dataAge string) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	msgStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	left := base.Render(" " + hints)
	mid := ""
	if message != "" {
		mid = base.Render("  ") + msgStyle.Render(message)
	}
	right := ""
	if dataAge != "" {
		right = base.Render(dataAge + " ")
	}

	gap := max(0, width-lipgloss.Width(left)-lipgloss.Width(mid)-lipgloss.Width(right))
	return left + mid + base.Render(strings.Repeat(" ", gap)) + right
}
