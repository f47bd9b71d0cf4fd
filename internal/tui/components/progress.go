package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/fueltank/fueltank/internal/cli"
	"github.com/fueltank/fueltank/internal/model"
	"github.com/fueltank/fueltank/internal/tui/theme"
)

// FuelGauge renders the tank as a bar colored by its level, followed by the
// percentage and the level name.
func FuelGauge(st model.FuelStatus, barWidth int) string {
	t := theme.Active
	color := t.Level(st.Level)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(max(4, barWidth)),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	label := surface(color).Bold(true).
		Render(fmt.Sprintf("%s %s", cli.FormatPercent(st.Percentage), strings.ToUpper(string(st.Level))))
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	return surface(t.TextMuted).Render("E ") + bar.ViewAs(clamp01(st.Percentage/100)) +
		surface(t.TextMuted).Render(" F") + space + space + label
}

// GoalBar renders achievement progress as a labeled bar.
func GoalBar(label string, p model.Progress, labelW, barWidth int) string {
	t := theme.Active

	pct := 0.0
	if p.Target > 0 {
		pct = clamp01(p.Current / p.Target)
	}
	color := t.Accent
	if pct >= 1 {
		color = t.Green
	}

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(max(4, barWidth)),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")
	return surface(t.TextMuted).Render(fmt.Sprintf("%-*s", labelW, label)) + space +
		bar.ViewAs(pct) + space +
		surface(color).Bold(true).Render(fmt.Sprintf("%3d%%", p.Percentage))
}

func clamp01(v float64) float64 {
	return max(0, min(v, 1))
}
