package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fueltank/fueltank/internal/cli"
	"github.com/fueltank/fueltank/internal/model"
	"github.com/fueltank/fueltank/internal/tui/components"
	"github.com/fueltank/fueltank/internal/tui/theme"
)

func impactNote(s model.Suggestion) string {
	var parts []string
	if d := s.Impact.DaysGained; d != nil && *d > 0 {
		parts = append(parts, fmt.Sprintf("+%s", cli.FormatDays(*d)))
	}
	if m := s.Impact.MoneySaved; m != nil && *m > 0 {
		parts = append(parts, "saves "+cli.FormatMoneyShort(*m))
	}
	return strings.Join(parts, ", ")
}

func (a App) renderTipsTab(cw, h int) string {
	t := theme.Active
	tips := a.snap.suggestions
	if len(tips) == 0 {
		return components.ContentCard("Tips", "Nothing to suggest right now. Press G to ask for more.", cw)
	}

	inner := components.CardInnerWidth(cw)
	rows := make([]string, len(tips))
	for i, s := range tips {
		rows[i] = fmt.Sprintf("%-7s %-*s %s",
			s.Priority,
			max(10, inner-32), truncStr(s.Title, max(10, inner-32)),
			impactNote(s))
	}
	list := selectable(rows, a.cursors[tabTips], inner, h-9)

	cur := tips[min(a.cursors[tabTips], len(tips)-1)]
	src := cur.Source
	if src == "" {
		src = "rules"
	}
	detail := lipgloss.NewStyle().Foreground(t.Priority(cur.Priority)).Background(t.Surface).Bold(true).Render(cur.Title) +
		"\n" + lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Width(inner).Render(cur.Action) +
		"\n" + lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).
		Render(fmt.Sprintf("%s · %s · confidence %.0f%%", cur.Type, src, cur.Impact.ConfidenceScore*100))

	title := fmt.Sprintf("Tips (%d) · %d applied", len(tips), len(a.snap.history))
	return components.ContentCard(title, list, cw) + "\n" + components.ContentCard("", detail, cw)
}

func (a App) renderGoalsTab(cw int) string {
	t := theme.Active
	list := a.snap.achievements
	if len(list) == 0 {
		return ""
	}

	inner := components.CardInnerWidth(cw)
	labelW := 0
	for _, ach := range list {
		labelW = max(labelW, lipgloss.Width(ach.Title))
	}
	barW := max(10, inner-labelW-8)

	unlocked := 0
	var b strings.Builder
	for i, ach := range list {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(components.GoalBar(ach.Title, ach.Progress, labelW, barW))
		b.WriteString("\n")
		desc := ach.Description
		if ach.UnlockedAt != nil {
			unlocked++
			desc = "Unlocked " + cli.FormatDate(*ach.UnlockedAt)
		}
		b.WriteString(lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("  " + desc))
	}
	return components.ContentCard(fmt.Sprintf("Achievements (%d/%d)", unlocked, len(list)), b.String(), cw)
}
