package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fueltank/fueltank/internal/engine"
	"github.com/fueltank/fueltank/internal/inbox"
)

var flagImportQuiet bool

var importCmd = &cobra.Command{
	Use:   "import [dir]",
	Short: "Import new statement exports from the inbox directory",
	Long: "Scan a directory for .csv, .sms and .txt statement exports and ingest every\n" +
		"file that is new or changed since the last import. Defaults to [inbox] dir.",
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVarP(&flagImportQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	dir := cfg.Inbox.Dir
	if len(args) == 1 {
		dir = args[0]
	}
	if dir == "" {
		return errors.New("no inbox directory: pass one or set [inbox] dir in the config")
	}

	eng, st, closeAll, err := openEngine(cmd.Context(), engine.Options{})
	if err != nil {
		return err
	}
	defer closeAll()

	progressFn := func(current, total int) {
		if flagImportQuiet || flagJSON {
			return
		}
		fmt.Fprintf(os.Stderr, "\r  Reading [%d/%d]", current, total)
	}

	res, err := inbox.New(dir, st, eng, logger).Run(cmd.Context(), progressFn)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(res)
	}
	if !flagImportQuiet && res.TotalFiles > res.Unchanged {
		fmt.Fprintln(os.Stderr)
	}

	fmt.Printf("  %d file(s) in %s: %d imported, %d unchanged\n", res.TotalFiles, dir, res.Imported, res.Unchanged)
	fmt.Printf("  %d expense(s) added, %d already imported, %d rejected\n", res.Added, res.Skipped, res.Rejected)
	for _, fe := range res.Errors {
		fmt.Fprintf(os.Stderr, "  ! %s: %s\n", fe.Path, fe.Err)
	}
	return nil
}
