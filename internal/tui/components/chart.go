package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fueltank/fueltank/internal/cli"
	"github.com/fueltank/fueltank/internal/tui/theme"
)

var eighths = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders a one-line unicode sparkline.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int(v / peak * 7)
		b.WriteRune(eighths[1+max(0, min(idx, 7))])
	}
	return surface(color).Render(b.String())
}

// BarChart renders values as vertical bars of the given height with a money
// axis on the left and labels underneath. Values are drawn left to right.
func BarChart(values []float64, labels []string, color lipgloss.Color, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	if width < 15 || height < 3 {
		return Sparkline(values, color)
	}
	t := theme.Active

	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}
	step := tickStep(peak)
	ceiling := math.Max(step, math.Ceil(peak/step)*step)

	top := cli.FormatMoneyShort(ceiling)
	axisW := lipgloss.Width(top) + 1

	n := len(values)
	barW := max(1, min(4, (width-axisW-1-(n-1))/n))

	axis := surface(t.TextDim)
	bar := surface(color)
	blank := surface(t.TextDim)

	var b strings.Builder
	for row := height; row >= 1; row-- {
		rowTop := ceiling * float64(row) / float64(height)
		rowBottom := ceiling * float64(row-1) / float64(height)

		label := ""
		switch row {
		case height:
			label = top
		case (height + 1) / 2:
			label = cli.FormatMoneyShort(ceiling / 2)
		}
		b.WriteString(axis.Render(fmt.Sprintf("%*s│", axisW, label)))

		for i, v := range values {
			if i > 0 {
				b.WriteString(blank.Render(" "))
			}
			switch {
			case v >= rowTop:
				b.WriteString(bar.Render(strings.Repeat("█", barW)))
			case v > rowBottom:
				idx := max(1, min(8, int((v-rowBottom)/(rowTop-rowBottom)*8)))
				b.WriteString(bar.Render(strings.Repeat(string(eighths[idx]), barW)))
			default:
				b.WriteString(blank.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}

	axisLen := n*barW + n - 1
	b.WriteString(axis.Render(fmt.Sprintf("%*s└%s", axisW, "0", strings.Repeat("─", axisLen))))

	if len(labels) == n {
		buf := []rune(strings.Repeat(" ", axisLen))
		next := 0
		for i, lbl := range labels {
			pos := i * (barW + 1)
			r := []rune(lbl)
			if pos < next || pos+len(r) > axisLen {
				continue
			}
			copy(buf[pos:], r)
			next = pos + len(r) + 1
		}
		b.WriteString("\n")
		b.WriteString(axis.Render(strings.Repeat(" ", axisW+1) + strings.TrimRight(string(buf), " ")))
	}
	return b.String()
}

// HBars renders one labeled horizontal bar per value, scaled to the largest.
func HBars(labels []string, values []float64, color lipgloss.Color, width int) string {
	if len(values) == 0 || len(labels) != len(values) {
		return ""
	}
	t := theme.Active

	labelW := 0
	peak := 0.0
	for i, l := range labels {
		labelW = max(labelW, lipgloss.Width(l))
		peak = max(peak, values[i])
	}
	amountW := 0
	amounts := make([]string, len(values))
	for i, v := range values {
		amounts[i] = cli.FormatMoney(v)
		amountW = max(amountW, lipgloss.Width(amounts[i]))
	}
	barMax := max(4, width-labelW-amountW-2)

	rows := make([]string, len(values))
	for i, v := range values {
		n := 0
		if peak > 0 {
			n = int(v / peak * float64(barMax))
		}
		rows[i] = surface(t.TextMuted).Render(fmt.Sprintf("%-*s ", labelW, labels[i])) +
			surface(color).Render(strings.Repeat("█", n)+strings.Repeat(" ", barMax-n)) +
			surface(t.TextPrimary).Render(fmt.Sprintf(" %*s", amountW, amounts[i]))
	}
	return strings.Join(rows, "\n")
}

// tickStep picks a round axis interval for peak.
func tickStep(peak float64) float64 {
	if peak <= 0 {
		return 1
	}
	rough := peak / 4
	base := math.Pow(10, math.Floor(math.Log10(rough)))
	switch frac := rough / base; {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}
