package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"runlog/config"
	"runlog/storage"

	"github.com/spf13/cobra"
)

var (
	historyDBPath string
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded import runs from the SQLite mirror",
	Example: `
  # Last 20 import runs
  runlog history

  # Everything
  runlog history --limit 0
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		dbPath, err := resolveDatabasePath(historyDBPath, cfg.Paths.Database)
		if err != nil {
			return err
		}

		store, err := storage.OpenSQLite(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.ListImportRuns(commandContext(cmd), historyLimit)
		if err != nil {
			return err
		}
		return printImportRuns(os.Stdout, runs)
	},
}

func printImportRuns(out io.Writer, runs []storage.ImportRun) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(out, "No import runs recorded.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tMODE\tSOURCE\tFETCHED\tADDED\tSKIPPED\tIGNORED\tTOTAL\tWRITTEN\tDURATION")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%t\t%s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Mode,
			run.Source,
			run.Fetched,
			run.Normalized,
			run.Skipped,
			run.Ignored,
			run.Total,
			run.OutputWritten,
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond),
		)
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyDBPath, "db", "", "SQLite mirror (default: paths.database)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of runs to show, newest first (0 shows all)")
}
