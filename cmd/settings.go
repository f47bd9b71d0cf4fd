package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fueltank/fueltank/internal/engine"
	"github.com/fueltank/fueltank/internal/model"
)

var (
	flagFuelAlerts     bool
	flagBigSpendAlerts bool
	flagAchievements   bool
	flagBillReminders  bool
	flagDailyReminders bool
	flagQuietEnabled   bool
	flagQuietStart     string
	flagQuietEnd       string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change notification settings",
	Long: "Show notification settings. Pass any flag to change it, e.g.\n" +
		"  fueltank settings --quiet-hours --quiet-start 22:30 --quiet-end 06:30",
	RunE: runSettings,
}

func init() {
	f := settingsCmd.Flags()
	f.BoolVar(&flagFuelAlerts, "fuel-alerts", true, "Alert when the fuel level drops")
	f.BoolVar(&flagBigSpendAlerts, "big-spend-alerts", true, "Alert on large single expenses")
	f.BoolVar(&flagAchievements, "achievement-alerts", true, "Announce unlocked achievements")
	f.BoolVar(&flagBillReminders, "bill-reminders", true, "Remind before bills are due")
	f.BoolVar(&flagDailyReminders, "daily-reminders", false, "Daily check-in reminder")
	f.BoolVar(&flagQuietEnabled, "quiet-hours", false, "Suppress notifications during quiet hours")
	f.StringVar(&flagQuietStart, "quiet-start", "", "Quiet hours start, HH:MM")
	f.StringVar(&flagQuietEnd, "quiet-end", "", "Quiet hours end, HH:MM")
	rootCmd.AddCommand(settingsCmd)
}

func runSettings(cmd *cobra.Command, _ []string) error {
	return withEngine(cmd, func(eng *engine.Engine) error {
		s := eng.Settings()
		if localFlagsChanged(cmd) {
			applySettingsFlags(cmd, &s)
			if err := eng.UpdateSettings(s); err != nil {
				return err
			}
			s = eng.Settings()
		}
		if flagJSON {
			return printJSON(s)
		}
		printSettings(s)
		return nil
	})
}

func applySettingsFlags(cmd *cobra.Command, s *model.NotificationSettings) {
	f := cmd.Flags()
	set := func(name string, dst *bool, v bool) {
		if f.Changed(name) {
			*dst = v
		}
	}
	set("fuel-alerts", &s.FuelAlerts, flagFuelAlerts)
	set("big-spend-alerts", &s.BigSpendAlerts, flagBigSpendAlerts)
	set("achievement-alerts", &s.AchievementAlerts, flagAchievements)
	set("bill-reminders", &s.BillReminders, flagBillReminders)
	set("daily-reminders", &s.DailyReminders, flagDailyReminders)
	set("quiet-hours", &s.QuietHours.Enabled, flagQuietEnabled)
	if f.Changed("quiet-start") {
		s.QuietHours.StartTime = flagQuietStart
	}
	if f.Changed("quiet-end") {
		s.QuietHours.EndTime = flagQuietEnd
	}
}

func printSettings(s model.NotificationSettings) {
	onOff := func(v bool) string {
		if v {
			return "on"
		}
		return "off"
	}
	fmt.Println()
	fmt.Println("  [Notifications]")
	fmt.Printf("    Fuel alerts:        %s\n", onOff(s.FuelAlerts))
	fmt.Printf("    Big spend alerts:   %s\n", onOff(s.BigSpendAlerts))
	fmt.Printf("    Achievement alerts: %s\n", onOff(s.AchievementAlerts))
	fmt.Printf("    Bill reminders:     %s\n", onOff(s.BillReminders))
	fmt.Printf("    Daily reminders:    %s\n", onOff(s.DailyReminders))
	fmt.Printf("    Quiet hours:        %s (%s-%s)\n", onOff(s.QuietHours.Enabled), s.QuietHours.StartTime, s.QuietHours.EndTime)
	fmt.Println()
}

func localFlagsChanged(cmd *cobra.Command) bool {
	changed := false
	cmd.LocalNonPersistentFlags().VisitAll(func(f *pflag.Flag) {
		changed = changed || f.Changed
	})
	return changed
}
