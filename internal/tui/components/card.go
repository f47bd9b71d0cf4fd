// Package components provides reusable widgets for the fueltank dashboard.
package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/fueltank/fueltank/internal/tui/theme"
)

// LayoutRow distributes totalWidth into n widths that sum to exactly totalWidth.
// Leading items absorb the remainder.
func LayoutRow(totalWidth, n int) []int {
	if n <= 0 {
		return nil
	}
	base := totalWidth / n
	remainder := totalWidth % n
	widths := make([]int, n)
	for i := range widths {
		widths[i] = base
		if i < remainder {
			widths[i]++
		}
	}
	return widths
}

// Metric is one headline number on the dashboard.
type Metric struct {
	Label string
	Value string
	Note  string
	// Color overrides the value color when set.
	Color lipgloss.Color
}

// MetricCard renders a small card with a label, value and note.
// outerWidth includes the border.
func MetricCard(m Metric, outerWidth int) string {
	t := theme.Active

	valueColor := t.TextPrimary
	if m.Color != "" {
		valueColor = m.Color
	}

	content := surface(t.TextMuted).Render(m.Label) + "\n" +
		surface(valueColor).Bold(true).Render(m.Value)
	if m.Note != "" {
		content += "\n" + surface(t.TextDim).Render(m.Note)
	}
	return cardStyle(t.Border, outerWidth).Render(content)
}

// MetricCardRow renders metric cards side by side across totalWidth.
func MetricCardRow(metrics []Metric, totalWidth int) string {
	if len(metrics) == 0 {
		return ""
	}
	widths := LayoutRow(totalWidth, len(metrics))
	cards := make([]string, len(metrics))
	for i, m := range metrics {
		cards[i] = MetricCard(m, widths[i])
	}
	return CardRow(cards)
}

// ContentCard renders a bordered card with an optional title.
func ContentCard(title, body string, outerWidth int) string {
	t := theme.Active

	content := ""
	if title != "" {
		content = surface(t.TextMuted).Bold(true).Render(title) + "\n"
	}
	content += body
	return cardStyle(t.Border, outerWidth).Render(content)
}

// AlertCard is a ContentCard with an accent border, used for warnings.
func AlertCard(title, body string, color lipgloss.Color, outerWidth int) string {
	t := theme.Active
	content := surface(color).Bold(true).Render(title)
	if body != "" {
		content += "\n" + surface(t.TextPrimary).Render(body)
	}
	return cardStyle(color, outerWidth).Render(content)
}

// CardRow joins rendered cards horizontally. Shorter cards are padded with
// the surface color so the gap below them is not left unstyled.
func CardRow(cards []string) string {
	if len(cards) == 0 {
		return ""
	}
	tallest := 0
	for _, c := range cards {
		tallest = max(tallest, lipgloss.Height(c))
	}
	bg := lipgloss.NewStyle().Background(theme.Active.Background)
	padded := make([]string, len(cards))
	for i, c := range cards {
		padded[i] = bg.Width(lipgloss.Width(c)).Height(tallest).Render(c)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, padded...)
}

// CardInnerWidth returns the usable text width inside a card of outerWidth.
func CardInnerWidth(outerWidth int) int {
	return max(10, outerWidth-4) // border and padding
}

func cardStyle(border lipgloss.Color, outerWidth int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		BorderBackground(theme.Active.Background).
		Background(theme.Active.Surface).
		Width(max(10, outerWidth-2)).
		Padding(0, 1)
}

func surface(fg lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(fg).Background(theme.Active.Surface)
}
