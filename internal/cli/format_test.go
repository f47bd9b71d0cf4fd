package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/fueltank/fueltank/internal/metrics"
	"github.com/fueltank/fueltank/internal/model"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "₹0.00"},
		{42, "₹42.00"},
		{1500.5, "₹1,500.50"},
		{1234567.891, "₹1,234,567.89"},
		{-250, "-₹250.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMoney(tt.in), "FormatMoney(%v)", tt.in)
	}
}

func TestFormatMoneyShort(t *testing.T) {
	assert.Equal(t, "₹950", FormatMoneyShort(950))
	assert.Equal(t, "₹15K", FormatMoneyShort(15000))
	assert.Equal(t, "₹12.5K", FormatMoneyShort(12500))
	assert.Equal(t, "₹2.5M", FormatMoneyShort(2_500_000))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "999", FormatNumber(999))
	assert.Equal(t, "1,000", FormatNumber(1000))
	assert.Equal(t, "-12,345", FormatNumber(-12345))
}

func TestFormatDays(t *testing.T) {
	assert.Equal(t, "0 days", FormatDays(0))
	assert.Equal(t, "1 day", FormatDays(1))
	assert.Equal(t, "7 days", FormatDays(7))
	assert.Equal(t, "∞", FormatDays(metrics.RunwaySentinel))
}

func TestFormatChange(t *testing.T) {
	assert.Equal(t, "+25%", FormatChange(0.25))
	assert.Equal(t, "-10%", FormatChange(-0.1))
	assert.Equal(t, "+0%", FormatChange(0))
}

func TestFormatAgo(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "just now", FormatAgo(now.Add(-10*time.Second), now))
	assert.Equal(t, "5m ago", FormatAgo(now.Add(-5*time.Minute), now))
	assert.Equal(t, "2h ago", FormatAgo(now.Add(-2*time.Hour), now))
	assert.Equal(t, "3d ago", FormatAgo(now.AddDate(0, 0, -3), now))
	assert.Equal(t, "Jan 2, 2025", FormatAgo(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), now))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abc", ShortID("abc"))
	assert.Equal(t, "34567890", ShortID("lz1-1234567890"))
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Title:      "Expenses",
		Headers:    []string{"Category", "Amount"},
		Rows:       [][]string{{"Food", "₹1,500.00"}, {"---"}, {"Total", "₹1,500.00"}},
		RightAlign: []bool{false, true},
	})
	assert.Contains(t, out, "Expenses")
	assert.Contains(t, out, "Category")
	assert.Contains(t, out, "Total")

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// title, top, header, separator, 2 rows + separator, bottom
	assert.Len(t, lines, 8)
	width := lipgloss.Width(lines[1])
	for _, l := range lines[1:] {
		assert.Equal(t, width, lipgloss.Width(l))
	}

	assert.Empty(t, RenderTable(Table{}))
}

func TestRenderFuelGauge(t *testing.T) {
	out := RenderFuelGauge(model.FuelStatus{
		Level:          model.FuelLow,
		Percentage:     20,
		DaysRemaining:  4,
		WarningMessage: model.FuelLow.Warning(),
	}, 20)
	assert.Contains(t, out, "20% LOW")
	assert.Contains(t, out, "4 days left")
	assert.Contains(t, out, "Time to slow down")
}

func TestRenderSparkline(t *testing.T) {
	assert.Empty(t, RenderSparkline(nil))
	assert.Equal(t, "▁█", RenderSparkline([]float64{0, 10}))
	assert.Equal(t, "▁▁", RenderSparkline([]float64{0, 0}))
}

func TestRenderProgressBar(t *testing.T) {
	assert.Empty(t, RenderProgressBar(1, 0, 10))
	assert.Contains(t, RenderProgressBar(3, 5, 10), "3/5")
	assert.Contains(t, RenderProgressBar(9, 5, 10), "9/5")
}
