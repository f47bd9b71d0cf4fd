package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fueltank/fueltank/internal/cli"
	"github.com/fueltank/fueltank/internal/engine"
)

var achievementsCmd = &cobra.Command{
	Use:     "achievements",
	Aliases: []string{"goals"},
	Short:   "Show achievement progress",
	RunE:    runAchievements,
}

var achievementsProgressCmd = &cobra.Command{
	Use:   "progress <id> <delta>",
	Short: "Add progress to an achievement",
	Args:  cobra.ExactArgs(2),
	RunE:  runAchievementsProgress,
}

func init() {
	achievementsCmd.AddCommand(achievementsProgressCmd)
	rootCmd.AddCommand(achievementsCmd)
}

func runAchievements(cmd *cobra.Command, _ []string) error {
	return withEngine(cmd, func(eng *engine.Engine) error {
		list := eng.Achievements()
		if flagJSON {
			return printJSON(list)
		}
		fmt.Println()
		for _, a := range list {
			status := cli.RenderProgressBar(a.Progress.Current, a.Progress.Target, 20)
			if a.UnlockedAt != nil {
				status = "unlocked " + cli.FormatDate(*a.UnlockedAt)
			}
			fmt.Printf("  %-22s %s\n", a.Title, status)
			fmt.Printf("  %s\n", cli.Muted(fmt.Sprintf("%-22s %s", a.ID, a.Description)))
		}
		fmt.Println()
		return nil
	})
}

func runAchievementsProgress(cmd *cobra.Command, args []string) error {
	delta, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid delta %q", args[1])
	}
	return withEngine(cmd, func(eng *engine.Engine) error {
		a, ok := eng.UpdateAchievement(args[0], delta)
		if !ok {
			return fmt.Errorf("no achievement %q", args[0])
		}
		if flagJSON {
			return printJSON(a)
		}
		fmt.Printf("  %s: %d%%\n", a.Title, a.Progress.Percentage)
		return nil
	})
}
