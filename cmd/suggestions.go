package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fueltank/fueltank/internal/cli"
	"github.com/fueltank/fueltank/internal/engine"
	"github.com/fueltank/fueltank/internal/model"
)

var (
	flagTipAction   string
	flagTipPriority string
	flagTipSaves    string
	flagTipDays     int
)

var suggestionsCmd = &cobra.Command{
	Use:     "suggestions",
	Aliases: []string{"tips"},
	Short:   "Show ranked saving suggestions",
	RunE:    runSuggestionsList,
}

var suggestionsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Regenerate suggestions, including the external generator if configured",
	RunE:  runSuggestionsGenerate,
}

var suggestionsApplyCmd = &cobra.Command{
	Use:   "apply <id>",
	Short: "Mark a suggestion as applied",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggestionsResolve(true),
}

var suggestionsDismissCmd = &cobra.Command{
	Use:   "dismiss <id>",
	Short: "Dismiss a suggestion",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggestionsResolve(false),
}

var suggestionsAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add your own suggestion",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSuggestionsAdd,
}

var suggestionsHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show applied and dismissed suggestions",
	RunE:  runSuggestionsHistory,
}

func init() {
	suggestionsAddCmd.Flags().StringVarP(&flagTipAction, "action", "a", "", "What to do")
	suggestionsAddCmd.Flags().StringVarP(&flagTipPriority, "priority", "p", string(model.PriorityNormal), "Priority (low, normal, high, urgent)")
	suggestionsAddCmd.Flags().StringVar(&flagTipSaves, "saves", "", "Estimated money saved")
	suggestionsAddCmd.Flags().IntVar(&flagTipDays, "days", 0, "Estimated days of runway gained")

	suggestionsCmd.AddCommand(suggestionsGenerateCmd, suggestionsApplyCmd, suggestionsDismissCmd,
		suggestionsAddCmd, suggestionsHistoryCmd)
	rootCmd.AddCommand(suggestionsCmd)
}

func runSuggestionsList(cmd *cobra.Command, _ []string) error {
	return withEngine(cmd, func(eng *engine.Engine) error {
		return printSuggestions(eng.Suggestions())
	})
}

func runSuggestionsGenerate(cmd *cobra.Command, _ []string) error {
	return withEngine(cmd, func(eng *engine.Engine) error {
		list, err := eng.GenerateSuggestions(cmd.Context())
		if errors.Is(err, engine.ErrStale) {
			fmt.Println(cli.Warn("  Ledger changed while generating; showing current suggestions."))
		} else if err != nil {
			return err
		}
		return printSuggestions(list)
	})
}

func runSuggestionsResolve(apply bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(eng *engine.Engine) error {
			id, err := resolveID(suggestionIDs(eng.Suggestions()), args[0])
			if err != nil {
				return err
			}
			var s model.Suggestion
			var ok bool
			verb := "Applied"
			if apply {
				s, ok = eng.ApplySuggestion(id)
			} else {
				s, ok = eng.DismissSuggestion(id)
				verb = "Dismissed"
			}
			if !ok {
				return fmt.Errorf("suggestion %s is no longer active", cli.ShortID(id))
			}
			fmt.Printf("  %s: %s\n", verb, s.Title)
			return nil
		})
	}
}

func runSuggestionsAdd(cmd *cobra.Command, args []string) error {
	s := model.Suggestion{
		Type:     model.SuggestGeneral,
		Title:    strings.Join(args, " "),
		Action:   flagTipAction,
		Priority: model.Priority(strings.ToLower(flagTipPriority)),
		Source:   "manual",
	}
	if s.Priority.Rank() < 0 {
		return fmt.Errorf("unknown priority %q", flagTipPriority)
	}
	if flagTipSaves != "" {
		v, err := parseAmount(flagTipSaves)
		if err != nil {
			return err
		}
		s.Impact.MoneySaved = &v
	}
	if flagTipDays > 0 {
		d := flagTipDays
		s.Impact.DaysGained = &d
	}

	return withEngine(cmd, func(eng *engine.Engine) error {
		added, ok := eng.AddSuggestion(s)
		if flagJSON {
			return printJSON(struct {
				Suggestion model.Suggestion `json:"suggestion"`
				Kept       bool             `json:"kept"`
			}{added, ok})
		}
		if !ok {
			fmt.Println(cli.Warn("  Not added: five higher-ranked suggestions are already active."))
			return nil
		}
		fmt.Printf("  Added suggestion %s\n", cli.Muted(cli.ShortID(added.ID)))
		return nil
	})
}

func runSuggestionsHistory(cmd *cobra.Command, _ []string) error {
	return withEngine(cmd, func(eng *engine.Engine) error {
		history := eng.SuggestionHistory()
		if flagJSON {
			return printJSON(history)
		}
		if len(history) == 0 {
			fmt.Println("  Nothing applied or dismissed yet.")
			return nil
		}
		rows := make([][]string, 0, len(history))
		for _, s := range history {
			state := "dismissed"
			if s.IsApplied {
				state = "applied"
			}
			when := ""
			if s.ResolvedAt != nil {
				when = cli.FormatDate(*s.ResolvedAt)
			}
			rows = append(rows, []string{when, state, s.Title})
		}
		fmt.Println(cli.RenderTable(cli.Table{
			Title:   "Suggestion History",
			Headers: []string{"Date", "Outcome", "Title"},
			Rows:    rows,
		}))
		return nil
	})
}

func printSuggestions(list []model.Suggestion) error {
	if flagJSON {
		return printJSON(list)
	}
	if len(list) == 0 {
		fmt.Println("  Nothing to suggest right now.")
		return nil
	}
	fmt.Println()
	for _, s := range list {
		fmt.Printf("  %s  %s %s\n",
			cli.PriorityStyle(s.Priority).Render(fmt.Sprintf("%-7s", s.Priority)),
			s.Title,
			cli.Muted("("+cli.ShortID(s.ID)+")"))
		if s.Action != "" {
			fmt.Printf("           %s\n", s.Action)
		}
		if note := impactNote(s.Impact); note != "" {
			fmt.Printf("           %s\n", cli.Muted(note))
		}
	}
	fmt.Println()
	return nil
}

func impactNote(i model.Impact) string {
	var parts []string
	if i.DaysGained != nil && *i.DaysGained > 0 {
		parts = append(parts, "+"+cli.FormatDays(*i.DaysGained))
	}
	if i.MoneySaved != nil && *i.MoneySaved > 0 {
		parts = append(parts, "saves "+cli.FormatMoney(*i.MoneySaved))
	}
	return strings.Join(parts, ", ")
}

func suggestionIDs(list []model.Suggestion) []string {
	ids := make([]string, len(list))
	for i, s := range list {
		ids[i] = s.ID
	}
	return ids
}
