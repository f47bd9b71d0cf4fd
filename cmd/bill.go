package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fueltank/fueltank/internal/cli"
	"github.com/fueltank/fueltank/internal/engine"
	"github.com/fueltank/fueltank/internal/ledger"
	"github.com/fueltank/fueltank/internal/model"
)

var (
	flagBillName       string
	flagBillAmount     string
	flagBillFrequency  string
	flagBillDue        string
	flagBillCategory   string
	flagBillAutoDeduct bool
	flagBillActive     bool
)

var billCmd = &cobra.Command{
	Use:     "bill",
	Aliases: []string{"bills"},
	Short:   "Manage recurring bills",
	RunE:    runBillList,
}

var billAddCmd = &cobra.Command{
	Use:   "add <name> <amount>",
	Short: "Add a recurring bill",
	Args:  cobra.ExactArgs(2),
	RunE:  runBillAdd,
}

var billListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recurring bills",
	RunE:  runBillList,
}

var billUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change fields of a bill",
	Args:  cobra.ExactArgs(1),
	RunE:  runBillUpdate,
}

var billDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a bill",
	Args:    cobra.ExactArgs(1),
	RunE:    runBillDelete,
}

var billProcessCmd = &cobra.Command{
	Use:   "process",
	Short: "Roll forward bills whose due date has passed",
	RunE:  runBillProcess,
}

func init() {
	freqHelp := "Frequency (" + joinValues(model.Frequencies) + ")"
	categoryHelp := "Category (" + joinValues(model.Categories) + ")"

	billAddCmd.Flags().StringVarP(&flagBillFrequency, "frequency", "f", string(model.FrequencyMonthly), freqHelp)
	billAddCmd.Flags().StringVar(&flagBillDue, "due", "", "Next due date as YYYY-MM-DD (default today)")
	billAddCmd.Flags().StringVarP(&flagBillCategory, "category", "C", "bills", categoryHelp)
	billAddCmd.Flags().BoolVar(&flagBillAutoDeduct, "auto-deduct", true, "Subtract from the balance while active")
	billAddCmd.Flags().BoolVar(&flagBillActive, "active", true, "Bill is active")

	billUpdateCmd.Flags().StringVar(&flagBillName, "name", "", "New name")
	billUpdateCmd.Flags().StringVar(&flagBillAmount, "amount", "", "New amount")
	billUpdateCmd.Flags().StringVarP(&flagBillFrequency, "frequency", "f", "", freqHelp)
	billUpdateCmd.Flags().StringVar(&flagBillDue, "due", "", "New due date as YYYY-MM-DD")
	billUpdateCmd.Flags().StringVarP(&flagBillCategory, "category", "C", "", categoryHelp)
	billUpdateCmd.Flags().BoolVar(&flagBillAutoDeduct, "auto-deduct", false, "Subtract from the balance while active")
	billUpdateCmd.Flags().BoolVar(&flagBillActive, "active", false, "Bill is active")

	billCmd.AddCommand(billAddCmd, billListCmd, billUpdateCmd, billDeleteCmd, billProcessCmd)
	rootCmd.AddCommand(billCmd)
}

func runBillAdd(cmd *cobra.Command, args []string) error {
	amount, err := parseAmount(args[1])
	if err != nil {
		return err
	}
	freq, err := parseFrequency(flagBillFrequency)
	if err != nil {
		return err
	}
	due, err := parseDate(flagBillDue)
	if err != nil {
		return err
	}
	category, err := parseCategory(flagBillCategory)
	if err != nil {
		return err
	}

	return withEngine(cmd, func(eng *engine.Engine) error {
		b, err := eng.AddRecurringBill(ledger.BillInput{
			Name:        args[0],
			Amount:      amount,
			Frequency:   freq,
			NextDueDate: due,
			Category:    category,
			AutoDeduct:  flagBillAutoDeduct,
			IsActive:    flagBillActive,
		})
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(b)
		}
		fmt.Printf("  Added %s: %s %s, due %s %s\n",
			b.Name, cli.FormatMoney(b.Amount), b.Frequency, cli.FormatDate(b.NextDueDate), cli.Muted("("+cli.ShortID(b.ID)+")"))
		return nil
	})
}

func runBillList(cmd *cobra.Command, _ []string) error {
	return withEngine(cmd, func(eng *engine.Engine) error {
		bills := eng.State().Bills
		if flagJSON {
			return printJSON(bills)
		}
		if len(bills) == 0 {
			fmt.Println("  No recurring bills.")
			return nil
		}
		fmt.Println(renderBills(bills))
		return nil
	})
}

func renderBills(bills []model.RecurringBill) string {
	rows := make([][]string, 0, len(bills))
	var deducted float64
	for _, b := range bills {
		var flags []string
		if b.AutoDeduct {
			flags = append(flags, "auto")
		}
		if !b.IsActive {
			flags = append(flags, "paused")
		}
		if b.Deducts() {
			deducted += b.Amount
		}
		rows = append(rows, []string{
			cli.ShortID(b.ID),
			b.Name,
			string(b.Frequency),
			cli.FormatDate(b.NextDueDate),
			strings.Join(flags, ","),
			cli.FormatMoney(b.Amount),
		})
	}
	rows = append(rows, []string{"---"}, []string{"", "", "", "", "Deducted", cli.FormatMoney(deducted)})
	return cli.RenderTable(cli.Table{
		Title:      "Recurring Bills",
		Headers:    []string{"ID", "Name", "Frequency", "Next due", "Flags", "Amount"},
		Rows:       rows,
		RightAlign: []bool{false, false, false, false, false, true},
	})
}

func runBillUpdate(cmd *cobra.Command, args []string) error {
	var patch ledger.BillPatch
	flags := cmd.Flags()
	if flags.Changed("name") {
		n := flagBillName
		patch.Name = &n
	}
	if flags.Changed("amount") {
		v, err := parseAmount(flagBillAmount)
		if err != nil {
			return err
		}
		patch.Amount = &v
	}
	if flags.Changed("frequency") {
		f, err := parseFrequency(flagBillFrequency)
		if err != nil {
			return err
		}
		patch.Frequency = &f
	}
	if flags.Changed("due") {
		t, err := parseDate(flagBillDue)
		if err != nil {
			return err
		}
		patch.NextDueDate = &t
	}
	if flags.Changed("category") {
		c, err := parseCategory(flagBillCategory)
		if err != nil {
			return err
		}
		patch.Category = &c
	}
	if flags.Changed("auto-deduct") {
		v := flagBillAutoDeduct
		patch.AutoDeduct = &v
	}
	if flags.Changed("active") {
		v := flagBillActive
		patch.IsActive = &v
	}

	return withEngine(cmd, func(eng *engine.Engine) error {
		id, err := resolveID(billIDs(eng), args[0])
		if err != nil {
			return err
		}
		if err := eng.UpdateRecurringBill(id, patch); err != nil {
			return err
		}
		fmt.Printf("  Updated bill %s\n", cli.ShortID(id))
		return nil
	})
}

func runBillDelete(cmd *cobra.Command, args []string) error {
	return withEngine(cmd, func(eng *engine.Engine) error {
		id, err := resolveID(billIDs(eng), args[0])
		if err != nil {
			return err
		}
		eng.DeleteRecurringBill(id)
		fmt.Printf("  Deleted bill %s\n", cli.ShortID(id))
		return nil
	})
}

func runBillProcess(cmd *cobra.Command, _ []string) error {
	return withEngine(cmd, func(eng *engine.Engine) error {
		due := eng.ProcessDueBills()
		if flagJSON {
			return printJSON(due)
		}
		if len(due) == 0 {
			fmt.Println("  No bills were due.")
			return nil
		}
		for _, b := range due {
			fmt.Printf("  Processed %s %s\n", b.Name, cli.FormatMoney(b.Amount))
		}
		return nil
	})
}

func billIDs(eng *engine.Engine) []string {
	bills := eng.State().Bills
	ids := make([]string, len(bills))
	for i, b := range bills {
		ids[i] = b.ID
	}
	return ids
}
