package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/fueltank/fueltank/internal/cli"
	"github.com/fueltank/fueltank/internal/tui/components"
	"github.com/fueltank/fueltank/internal/tui/theme"
)

func (a App) renderAlertsTab(cw, h int) string {
	t := theme.Active
	notes := a.snap.notes
	if len(notes) == 0 {
		return components.ContentCard("Notifications", "All quiet.", cw)
	}

	inner := components.CardInnerWidth(cw)
	now := time.Now()
	rows := make([]string, len(notes))
	for i, n := range notes {
		marker := " "
		if !n.IsRead {
			marker = "●"
		}
		rows[i] = fmt.Sprintf("%s %-8s %-*s %s",
			marker,
			n.Priority,
			max(10, inner-30), truncStr(n.Title, max(10, inner-30)),
			cli.FormatAgo(n.CreatedAt, now))
	}

	list := selectable(rows, a.cursors[tabAlerts], inner, h-8)

	cur := notes[min(a.cursors[tabAlerts], len(notes)-1)]
	detail := lipgloss.NewStyle().Foreground(t.Priority(cur.Priority)).Background(t.Surface).Bold(true).Render(cur.Title) +
		"\n" + lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Width(inner).Render(cur.Message)

	title := fmt.Sprintf("Notifications (%d unread of %d)", a.unread(), len(notes))
	return components.ContentCard(title, list, cw) + "\n" + components.ContentCard("", detail, cw)
}
