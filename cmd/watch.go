package cmd

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/fueltank/fueltank/internal/engine"
	"github.com/fueltank/fueltank/internal/notify"
	"github.com/fueltank/fueltank/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:     "tui",
	Aliases: []string{"watch", "dash"},
	Short:   "Launch the interactive dashboard",
	RunE:    runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Log lines would tear the alt screen; alerts show in the Alerts tab.
	logger.SetOutput(io.Discard)
	deliver := notify.Fanout{}
	if cfg.SMTP.Enabled {
		deliver = notifiers()[1:]
	}
	eng, _, closeAll, err := openEngine(cmd.Context(), engine.Options{Notifier: deliver})
	if err != nil {
		return err
	}
	defer closeAll()

	// Force TrueColor profile so all background styling produces ANSI codes
	lipgloss.SetColorProfile(termenv.TrueColor)

	p := tea.NewProgram(tui.NewApp(eng), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
