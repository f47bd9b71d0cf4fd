package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/fueltank/fueltank/internal/cli"
	"github.com/fueltank/fueltank/internal/engine"
	"github.com/fueltank/fueltank/internal/ledger"
	"github.com/fueltank/fueltank/internal/model"
)

var (
	flagExpenseCategory    string
	flagExpenseDescription string
	flagExpenseDate        string
	flagExpenseAmount      string
	flagExpenseLimit       int
)

var expenseCmd = &cobra.Command{
	Use:     "expense",
	Aliases: []string{"expenses", "spend"},
	Short:   "Record and manage expenses",
	RunE:    runExpenseList,
}

var expenseAddCmd = &cobra.Command{
	Use:   "add <amount>",
	Short: "Record an expense",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpenseAdd,
}

var expenseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List expenses, newest first",
	RunE:  runExpenseList,
}

var expenseUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change fields of an expense",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpenseUpdate,
}

var expenseDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete an expense",
	Args:    cobra.ExactArgs(1),
	RunE:    runExpenseDelete,
}

func init() {
	categoryHelp := "Category (" + joinValues(model.Categories) + ")"

	expenseAddCmd.Flags().StringVarP(&flagExpenseCategory, "category", "C", "other", categoryHelp)
	expenseAddCmd.Flags().StringVarP(&flagExpenseDescription, "description", "d", "", "Description")
	expenseAddCmd.Flags().StringVar(&flagExpenseDate, "date", "", "Date as YYYY-MM-DD (default today)")

	expenseUpdateCmd.Flags().StringVar(&flagExpenseAmount, "amount", "", "New amount")
	expenseUpdateCmd.Flags().StringVarP(&flagExpenseCategory, "category", "C", "", categoryHelp)
	expenseUpdateCmd.Flags().StringVarP(&flagExpenseDescription, "description", "d", "", "New description")
	expenseUpdateCmd.Flags().StringVar(&flagExpenseDate, "date", "", "New date as YYYY-MM-DD")

	expenseListCmd.Flags().IntVarP(&flagExpenseLimit, "limit", "n", 20, "Max rows (0 for all)")
	expenseCmd.Flags().IntVarP(&flagExpenseLimit, "limit", "n", 20, "Max rows (0 for all)")

	expenseCmd.AddCommand(expenseAddCmd, expenseListCmd, expenseUpdateCmd, expenseDeleteCmd)
	rootCmd.AddCommand(expenseCmd)
}

func runExpenseAdd(cmd *cobra.Command, args []string) error {
	amount, err := parseAmount(args[0])
	if err != nil {
		return err
	}
	category, err := parseCategory(flagExpenseCategory)
	if err != nil {
		return err
	}
	date, err := parseDate(flagExpenseDate)
	if err != nil {
		return err
	}

	return withEngine(cmd, func(eng *engine.Engine) error {
		before := eng.Metrics()
		e, err := eng.AddExpense(ledger.ExpenseInput{
			Amount:      amount,
			Category:    category,
			Description: flagExpenseDescription,
			Date:        date,
			Source:      model.SourceManual,
		})
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(e)
		}
		after := eng.Metrics()
		fmt.Printf("  Added %s %s %s\n", cli.FormatMoney(e.Amount), e.Category.Label(), cli.Muted("("+cli.ShortID(e.ID)+")"))
		fmt.Printf("  Balance %s -> %s, runway %s\n",
			cli.FormatMoney(before.Balance), cli.FormatMoney(after.Balance), cli.FormatDays(after.DaysRemaining))
		return nil
	})
}

func runExpenseList(cmd *cobra.Command, _ []string) error {
	return withEngine(cmd, func(eng *engine.Engine) error {
		expenses := eng.State().Expenses
		sort.SliceStable(expenses, func(i, j int) bool {
			return expenses[i].Date.After(expenses[j].Date)
		})
		if flagExpenseLimit > 0 && len(expenses) > flagExpenseLimit {
			expenses = expenses[:flagExpenseLimit]
		}
		if flagJSON {
			return printJSON(expenses)
		}
		if len(expenses) == 0 {
			fmt.Println("  No expenses recorded.")
			return nil
		}

		rows := make([][]string, 0, len(expenses))
		var total float64
		for _, e := range expenses {
			total += e.Amount
			rows = append(rows, []string{
				cli.ShortID(e.ID),
				cli.FormatDate(e.Date),
				e.Category.Label(),
				e.Description,
				string(e.Source),
				cli.FormatMoney(e.Amount),
			})
		}
		rows = append(rows, []string{"---"}, []string{"", "", "", "", "Total", cli.FormatMoney(total)})

		fmt.Println(cli.RenderTable(cli.Table{
			Title:      "Expenses",
			Headers:    []string{"ID", "Date", "Category", "Description", "Source", "Amount"},
			Rows:       rows,
			RightAlign: []bool{false, false, false, false, false, true},
		}))
		return nil
	})
}

func runExpenseUpdate(cmd *cobra.Command, args []string) error {
	var patch ledger.ExpensePatch
	flags := cmd.Flags()
	if flags.Changed("amount") {
		v, err := parseAmount(flagExpenseAmount)
		if err != nil {
			return err
		}
		patch.Amount = &v
	}
	if flags.Changed("category") {
		c, err := parseCategory(flagExpenseCategory)
		if err != nil {
			return err
		}
		patch.Category = &c
	}
	if flags.Changed("description") {
		d := flagExpenseDescription
		patch.Description = &d
	}
	if flags.Changed("date") {
		t, err := parseDate(flagExpenseDate)
		if err != nil {
			return err
		}
		patch.Date = &t
	}

	return withEngine(cmd, func(eng *engine.Engine) error {
		id, err := resolveID(expenseIDs(eng), args[0])
		if err != nil {
			return err
		}
		if err := eng.UpdateExpense(id, patch); err != nil {
			return err
		}
		fmt.Printf("  Updated expense %s\n", cli.ShortID(id))
		return nil
	})
}

func runExpenseDelete(cmd *cobra.Command, args []string) error {
	return withEngine(cmd, func(eng *engine.Engine) error {
		id, err := resolveID(expenseIDs(eng), args[0])
		if err != nil {
			return err
		}
		eng.DeleteExpense(id)
		fmt.Printf("  Deleted expense %s\n", cli.ShortID(id))
		return nil
	})
}

func expenseIDs(eng *engine.Engine) []string {
	expenses := eng.State().Expenses
	ids := make([]string, len(expenses))
	for i, e := range expenses {
		ids[i] = e.ID
	}
	return ids
}
