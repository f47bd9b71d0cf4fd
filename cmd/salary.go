package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fueltank/fueltank/internal/cli"
	"github.com/fueltank/fueltank/internal/engine"
	"github.com/fueltank/fueltank/internal/model"
)

var flagSalaryFrequency string

var salaryCmd = &cobra.Command{
	Use:   "salary",
	Short: "Show or set the salary that fills the tank",
	RunE:  runSalaryShow,
}

var salarySetCmd = &cobra.Command{
	Use:   "set <amount>",
	Short: "Set the salary and start a new cycle",
	Args:  cobra.ExactArgs(1),
	RunE:  runSalarySet,
}

func init() {
	salarySetCmd.Flags().StringVarP(&flagSalaryFrequency, "frequency", "f", string(model.FrequencyMonthly), "Pay frequency ("+joinValues(model.Frequencies)+")")
	salaryCmd.AddCommand(salarySetCmd)
	rootCmd.AddCommand(salaryCmd)
}

func runSalaryShow(cmd *cobra.Command, _ []string) error {
	return withEngine(cmd, func(eng *engine.Engine) error {
		salary := eng.State().Salary
		if flagJSON {
			return printJSON(salary)
		}
		if salary == nil {
			fmt.Println("  No salary set.")
			return nil
		}
		fmt.Printf("  %s %s, next cycle %s\n",
			cli.FormatMoney(salary.Amount), salary.Frequency, cli.FormatDate(salary.NextCycleDate))
		return nil
	})
}

func runSalarySet(cmd *cobra.Command, args []string) error {
	amount, err := parseAmount(args[0])
	if err != nil {
		return err
	}
	freq, err := parseFrequency(flagSalaryFrequency)
	if err != nil {
		return err
	}

	return withEngine(cmd, func(eng *engine.Engine) error {
		m, err := eng.SetSalary(amount, freq)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(m)
		}
		fmt.Printf("  Salary set to %s (%s)\n", cli.FormatMoney(amount), freq)
		fmt.Println(cli.RenderFuelGauge(m.Fuel, 40))
		return nil
	})
}
