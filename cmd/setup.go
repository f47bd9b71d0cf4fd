package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/fueltank/fueltank/internal/cli"
	"github.com/fueltank/fueltank/internal/config"
	"github.com/fueltank/fueltank/internal/engine"
	"github.com/fueltank/fueltank/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	values := tui.SetupValuesFrom(cfg)
	if err := tui.NewSetupForm(&values).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup canceled.")
			return nil
		}
		return err
	}

	salary, err := values.Apply(&cfg)
	if err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	cli.Currency = cfg.General.Currency

	err = withEngine(cmd, func(eng *engine.Engine) error {
		// Persisted settings win over the config file on load, so push the
		// answers into the engine as well.
		s := eng.Settings()
		s.DailyReminders = cfg.Notifications.DailyReminders
		s.QuietHours.Enabled = cfg.Notifications.QuietHours.Enabled
		if err := eng.UpdateSettings(s); err != nil {
			return err
		}
		if salary > 0 {
			m, err := eng.SetSalary(salary, values.Frequency)
			if err != nil {
				return err
			}
			fmt.Println()
			fmt.Println(cli.RenderFuelGauge(m.Fuel, 40))
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `fueltank setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
