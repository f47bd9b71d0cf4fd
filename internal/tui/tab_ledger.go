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

func (a App) renderExpensesTab(cw, h int) string {
	expenses := a.expenses()
	if len(expenses) == 0 {
		return components.ContentCard("Expenses", "No expenses yet. Press n to add one.", cw)
	}

	inner := components.CardInnerWidth(cw)
	descW := max(8, inner-48)
	rows := make([]string, len(expenses))
	total := 0.0
	for i, e := range expenses {
		total += e.Amount
		src := ""
		if e.Source != model.SourceManual {
			src = string(e.Source)
		}
		rows[i] = fmt.Sprintf("%-10s %-18s %-*s %12s  %s",
			cli.FormatDate(e.Date),
			truncStr(e.Category.Label(), 18),
			descW, truncStr(e.Description, descW),
			cli.FormatMoney(e.Amount),
			src)
	}

	title := fmt.Sprintf("Expenses (%d) · total %s", len(expenses), cli.FormatMoney(total))
	return components.ContentCard(title, selectable(rows, a.cursors[tabExpenses], inner, h-3), cw)
}

func (a App) renderBillsTab(cw, h int) string {
	t := theme.Active
	bills := a.snap.state.Bills
	if len(bills) == 0 {
		return components.ContentCard("Recurring Bills", "No recurring bills. Add one with `fueltank bill add`.", cw)
	}

	inner := components.CardInnerWidth(cw)
	rows := make([]string, len(bills))
	var deducted float64
	for i, b := range bills {
		flags := []string{}
		if b.AutoDeduct {
			flags = append(flags, "auto")
		}
		if !b.IsActive {
			flags = append(flags, "paused")
		}
		if b.Deducts() {
			deducted += b.Amount
		}
		rows[i] = fmt.Sprintf("%-20s %12s  %-9s due %-10s %s",
			truncStr(b.Name, 20),
			cli.FormatMoney(b.Amount),
			b.Frequency,
			cli.FormatDate(b.NextDueDate),
			strings.Join(flags, ","))
	}

	note := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).
		Render("Auto-deducted bills reduce the balance as soon as they are active.")
	body := selectable(rows, a.cursors[tabBills], inner, h-5) + "\n\n" + note
	title := fmt.Sprintf("Recurring Bills (%d) · auto-deducted %s", len(bills), cli.FormatMoney(deducted))
	return components.ContentCard(title, body, cw)
}
