package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"

	"github.com/fueltank/fueltank/internal/model"
	"github.com/fueltank/fueltank/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests.
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRow(t *testing.T) {
	assert.Nil(t, LayoutRow(100, 0))
	assert.Equal(t, []int{34, 33, 33}, LayoutRow(100, 3))

	sum := 0
	for _, w := range LayoutRow(121, 4) {
		sum += w
	}
	assert.Equal(t, 121, sum)
}

func TestCardRowPadsShorterCards(t *testing.T) {
	theme.SetActive("flexoki-dark")

	short := ContentCard("Short", "Content", 22)
	tall := ContentCard("Tall", "1\n2\n3\n4\n5", 22)
	assert.Less(t, lipgloss.Height(short), lipgloss.Height(tall))

	joined := CardRow([]string{tall, short})
	lines := strings.Split(joined, "\n")
	assert.Len(t, lines, lipgloss.Height(tall))

	width := lipgloss.Width(lines[0])
	for i, line := range lines {
		assert.Equal(t, width, lipgloss.Width(line), "line %d", i)
		assert.Contains(t, line, "\x1b[", "line %d has no styling", i)
	}
}

func TestMetricCardRow(t *testing.T) {
	out := MetricCardRow([]Metric{
		{Label: "Balance", Value: "₹8,500.00"},
		{Label: "Runway", Value: "12 days", Note: "at current pace"},
	}, 60)
	assert.Contains(t, out, "Balance")
	assert.Contains(t, out, "at current pace")
	assert.Equal(t, 60, lipgloss.Width(strings.Split(out, "\n")[0]))
	assert.Empty(t, MetricCardRow(nil, 60))
}

func TestTabIdxByKey(t *testing.T) {
	assert.Equal(t, 0, TabIdxByKey('d'))
	assert.Equal(t, 3, TabIdxByKey('a'))
	assert.Equal(t, -1, TabIdxByKey('z'))
}

func TestRenderTabBarWidth(t *testing.T) {
	bar := RenderTabBar(1, 100, map[int]int{3: 2})
	assert.Equal(t, 100, lipgloss.Width(bar))
	assert.Contains(t, bar, "(2)")

	assert.Equal(t, 11, TabVisualWidth(Tabs[0], 0))
	assert.Equal(t, 15, TabVisualWidth(Tabs[0], 12))
}

func TestFuelGauge(t *testing.T) {
	out := FuelGauge(model.FuelStatus{Level: model.FuelLow, Percentage: 20}, 20)
	assert.Contains(t, out, "20% LOW")
	assert.Contains(t, out, "E ")
}

func TestGoalBar(t *testing.T) {
	out := GoalBar("Saver", model.Progress{Current: 5, Target: 10, Percentage: 50}, 8, 20)
	assert.Contains(t, out, "Saver")
	assert.Contains(t, out, "50%")
}

func TestBarChart(t *testing.T) {
	assert.Empty(t, BarChart(nil, nil, theme.Active.Blue, 40, 5))

	out := BarChart([]float64{100, 400, 250}, []string{"1", "2", "3"}, theme.Active.Blue, 40, 5)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 7) // rows, axis, labels

	// Too small for axes.
	assert.Equal(t, 1, len(strings.Split(BarChart([]float64{1, 2}, nil, theme.Active.Blue, 10, 5), "\n")))
}

func TestHBars(t *testing.T) {
	out := HBars([]string{"Food", "Transport"}, []float64{300, 150}, theme.Active.Accent, 50)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, lipgloss.Width(lines[0]), lipgloss.Width(lines[1]))
	assert.Empty(t, HBars([]string{"a"}, nil, theme.Active.Accent, 50))
}

func TestTickStep(t *testing.T) {
	assert.InDelta(t, 1, tickStep(0), 0)
	assert.InDelta(t, 100, tickStep(400), 0)
	assert.InDelta(t, 500, tickStep(1800), 0)
}
