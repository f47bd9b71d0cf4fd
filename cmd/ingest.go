package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fueltank/fueltank/internal/cli"
	"github.com/fueltank/fueltank/internal/engine"
	"github.com/fueltank/fueltank/internal/parser"
)

var flagIngestFormat string

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Import expenses from bank SMS text or a CSV export",
	Long: "Parse transaction messages or CSV rows and record each valid one as an expense.\n" +
		"Reads stdin when no file is given.",
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&flagIngestFormat, "format", "f", "sms", "Input format")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	var r io.Reader = os.Stdin
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	text, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	return withEngine(cmd, func(eng *engine.Engine) error {
		res, err := eng.IngestMessage(flagIngestFormat, string(text))
		if err != nil {
			return fmt.Errorf("%w (formats: %v)", err, parser.DefaultRegistry().Formats())
		}
		if flagJSON {
			return printJSON(res)
		}
		for _, e := range res.Added {
			fmt.Printf("  + %s %s %s\n", cli.FormatMoney(e.Amount), e.Category.Label(), e.Description)
		}
		for _, rej := range res.Rejected {
			fmt.Println(cli.Warn(fmt.Sprintf("  - %s %q: %s", rej.Candidate.Amount.StringFixed(2), rej.Candidate.Description, rej.Reason)))
		}
		fmt.Printf("  %d added, %d rejected\n", len(res.Added), len(res.Rejected))
		return nil
	})
}
