package tui

import (
	"fmt"
	"strings"

	"github.com/fueltank/fueltank/internal/cli"
	"github.com/fueltank/fueltank/internal/metrics"
	"github.com/fueltank/fueltank/internal/tui/components"
	"github.com/fueltank/fueltank/internal/tui/theme"
)

func (a App) renderDashboardTab(cw int) string {
	t := theme.Active
	m := a.snap.metrics
	fc := a.snap.context
	an := a.snap.analytics
	var b strings.Builder

	if a.snap.state.Salary == nil {
		b.WriteString(components.AlertCard("No salary set",
			"Run `fueltank salary set <amount>` or `fueltank setup` to fill the tank.", t.Orange, cw))
		b.WriteString("\n")
	}

	// Row 1: headline numbers
	salary := "not set"
	salaryNote := ""
	if s := a.snap.state.Salary; s != nil {
		salary = cli.FormatMoneyShort(s.Amount)
		salaryNote = string(s.Frequency) + ", next " + cli.FormatDate(s.NextCycleDate)
	}
	weekNote := "vs last week " + cli.FormatChange(an.WeekOverWeekChange)
	if an.Previous7Days == 0 {
		weekNote = "no spending last week"
	}
	cards := []components.Metric{
		{Label: "Balance", Value: cli.FormatMoney(m.Balance), Note: "bills " + cli.FormatMoneyShort(fc.RecurringBillsAmount), Color: t.Level(m.Fuel.Level)},
		{Label: "Daily burn", Value: cli.FormatMoney(m.AverageDailySpend), Note: weekNote},
		{Label: "Runway", Value: cli.FormatDays(m.DaysRemaining), Note: "at current pace"},
		{Label: "Salary", Value: salary, Note: salaryNote},
	}
	if a.isCompactLayout() {
		b.WriteString(components.MetricCardRow(cards[:2], cw))
		b.WriteString("\n")
		b.WriteString(components.MetricCardRow(cards[2:], cw))
	} else {
		b.WriteString(components.MetricCardRow(cards, cw))
	}
	b.WriteString("\n")

	// Row 2: the tank
	gauge := components.FuelGauge(m.Fuel, components.CardInnerWidth(cw)-20)
	if m.Fuel.WarningMessage != "" {
		b.WriteString(components.AlertCard("Fuel", gauge+"\n"+m.Fuel.WarningMessage, t.Level(m.Fuel.Level), cw))
	} else {
		b.WriteString(components.ContentCard("Fuel", gauge, cw))
	}
	b.WriteString("\n")

	// Row 3: daily spend and categories
	halves := components.LayoutRow(cw, 2)
	if a.isCompactLayout() {
		halves = []int{cw, cw}
	}
	daily := a.dailyCard(an, halves[0])
	cats := a.categoryCard(fc, halves[1])
	if a.isCompactLayout() {
		b.WriteString(daily)
		b.WriteString("\n")
		b.WriteString(cats)
	} else {
		b.WriteString(components.CardRow([]string{daily, cats}))
	}
	return b.String()
}

func (a App) dailyCard(an metrics.SpendingAnalytics, w int) string {
	t := theme.Active
	n := len(an.Daily)
	if n == 0 {
		return components.ContentCard("Daily Spend", "No expenses yet", w)
	}
	values := make([]float64, n)
	labels := make([]string, n)
	for i, d := range an.Daily {
		// oldest on the left
		values[n-1-i] = d.Total
		labels[n-1-i] = d.Date.Format("2")
	}
	title := fmt.Sprintf("Daily Spend (%dd) · 7d %s", n, cli.FormatMoneyShort(an.Last7Days))
	return components.ContentCard(title, components.BarChart(values, labels, t.Blue, components.CardInnerWidth(w), 8), w)
}

func (a App) categoryCard(fc metrics.FinancialContext, w int) string {
	t := theme.Active
	if len(fc.TopCategories) == 0 {
		return components.ContentCard("Top Categories", "No expenses yet", w)
	}
	labels := make([]string, len(fc.TopCategories))
	values := make([]float64, len(fc.TopCategories))
	for i, c := range fc.TopCategories {
		labels[i] = truncStr(c.Category.Label(), 16)
		values[i] = c.Amount
	}
	body := components.HBars(labels, values, t.Accent, components.CardInnerWidth(w))
	if an := a.snap.analytics; an.Largest != nil {
		body += "\n\nLargest: " + cli.FormatMoney(an.Largest.Amount) + " " + truncStr(an.Largest.Description, 30)
	}
	return components.ContentCard("Top Categories", body, w)
}
