package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fueltank/fueltank/internal/cli"
	"github.com/fueltank/fueltank/internal/engine"
	"github.com/fueltank/fueltank/internal/metrics"
	"github.com/fueltank/fueltank/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the fuel gauge, balance and runway",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type statusReport struct {
	Metrics     model.Metrics             `json:"metrics"`
	Context     metrics.FinancialContext  `json:"context"`
	Analytics   metrics.SpendingAnalytics `json:"analytics"`
	Unread      int                       `json:"unread_notifications"`
	Suggestions []model.Suggestion        `json:"suggestions"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	return withEngine(cmd, func(eng *engine.Engine) error {
		report := statusReport{
			Metrics:     eng.Refresh(),
			Context:     eng.FinancialContext(),
			Analytics:   eng.Analytics(),
			Unread:      eng.UnreadCount(),
			Suggestions: eng.Suggestions(),
		}
		if flagJSON {
			return printJSON(report)
		}
		printStatus(report)
		return nil
	})
}

func printStatus(r statusReport) {
	m := r.Metrics
	fmt.Println()
	fmt.Println(cli.RenderTitle("FUEL TANK"))
	fmt.Println()

	if r.Context.Salary == 0 {
		fmt.Println("  No salary set. Run `fueltank salary set <amount>` or `fueltank setup`.")
		fmt.Println()
		return
	}

	fmt.Println(cli.RenderFuelGauge(m.Fuel, 40))
	fmt.Println()

	rows := [][]string{
		{"Balance", cli.FormatMoney(m.Balance)},
		{"Salary", cli.FormatMoney(r.Context.Salary)},
		{"Spent", cli.FormatMoney(r.Context.TotalExpenses)},
		{"Recurring bills", cli.FormatMoney(r.Context.RecurringBillsAmount)},
		{"Avg daily spend", cli.FormatMoney(m.AverageDailySpend)},
		{"Runway", cli.FormatDays(m.DaysRemaining)},
	}
	if r.Analytics.Previous7Days > 0 {
		rows = append(rows, []string{"Week over week", cli.FormatChange(r.Analytics.WeekOverWeekChange)})
	}
	fmt.Println(cli.RenderTable(cli.Table{
		Headers:    []string{"Metric", "Value"},
		Rows:       rows,
		RightAlign: []bool{false, true},
	}))

	if len(r.Context.TopCategories) > 0 {
		fmt.Println()
		top := r.Context.TopCategories[0].Amount
		for _, c := range r.Context.TopCategories {
			fmt.Println(cli.RenderHorizontalBar(c.Category.Label(), c.Amount, top, 24))
		}
	}

	if len(r.Analytics.Daily) > 0 {
		values := make([]float64, len(r.Analytics.Daily))
		for i, d := range r.Analytics.Daily {
			// Daily is most recent first; the sparkline reads left to right.
			values[len(values)-1-i] = d.Total
		}
		fmt.Println()
		fmt.Printf("  Last 14 days  %s\n", cli.RenderSparkline(values))
	}

	fmt.Println()
	if r.Unread > 0 {
		fmt.Println(cli.Warn(fmt.Sprintf("  %d unread notification(s). Run `fueltank notifications`.", r.Unread)))
	}
	if len(r.Suggestions) > 0 {
		s := r.Suggestions[0]
		fmt.Printf("  Tip: %s %s\n", s.Title, cli.Muted("("+cli.ShortID(s.ID)+")"))
	}
	fmt.Println()
}
