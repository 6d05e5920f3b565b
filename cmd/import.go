package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"runlog/cache"
	"runlog/config"
	"runlog/importer"
	"runlog/internal/classify"
	"runlog/storage"
	"runlog/strava"

	"github.com/spf13/cobra"
)

var (
	importInputs         []string
	importFormat         string
	importOutput         string
	importCachePath      string
	importDBPath         string
	importAfter          string
	importMaxPages       int
	importNonInteractive bool
)

var (
	importPromptInput  io.Reader = os.Stdin
	importPromptOutput io.Writer = os.Stdout
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Build or extend the activity dataset from Strava",
	Long: `Normalize Strava activities into the versioned JSON dataset.

Bulk mode (one or more -i/--input files) reads the activities.csv or an Excel
copy of a Strava bulk export and rebuilds the output file from scratch.

Incremental mode (no --input) fetches activities started after the cutoff from
the Strava API and appends those whose id is not yet in the dataset. It needs
a saved token, see "runlog auth login".

Runs whose title or description look like a structured workout are shown for
classification. Decisions are cached, so each run is asked about once. Answer
"f" to stop prompting for the rest of the run.

When paths.database (or --db) is set, the dataset is mirrored into SQLite and
the run is recorded in the import history.`,
	Example: `
  # Rebuild the dataset from a bulk export
  runlog import -i export/activities.csv

  # Excel copy of the export, written to a custom output
  runlog import -i activities.xlsx --output ./runs.json

  # Fetch new activities from the API since a given day
  runlog import --after 2025-10-01

  # Scripted run without classification prompts
  runlog import --non-interactive
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := cache.Load(firstNonEmpty(importCachePath, cfg.Paths.Cache))
		if err != nil {
			return err
		}

		session := &classify.Session{NonInteractive: importNonInteractive || cfg.Classify.NonInteractive}
		classifier := classify.New(store, classify.NewConsole(importPromptInput, importPromptOutput), session, cfg.Classify.VersionTag)
		service := importer.NewService(importer.DefaultRegistry(classifier))

		if dbPath := firstNonEmpty(importDBPath, cfg.Paths.Database); dbPath != "" {
			mirror, err := storage.OpenSQLite(dbPath)
			if err != nil {
				return err
			}
			defer mirror.Close()
			service.Mirror = mirror
		}

		result, runErr := runImport(ctx, service, cfg)

		// Decisions made before a failure or an interrupt are kept.
		if err := store.Save(); err != nil {
			return errors.Join(runErr, err)
		}
		if runErr != nil {
			return runErr
		}

		printImportResult(os.Stdout, result)
		return nil
	},
}

func runImport(ctx context.Context, service *importer.Service, cfg *config.Config) (*importer.Result, error) {
	output := firstNonEmpty(importOutput, cfg.Paths.Output)

	if resolveImportMode(importInputs) == importer.ModeBulk {
		return service.RunBulk(ctx, importInputs, importer.BulkOptions{
			OutputPath: output,
			Format:     importFormat,
		})
	}

	cutoff, err := resolveCutoff(importAfter, cfg.Strava)
	if err != nil {
		return nil, err
	}
	source, err := newStravaSource(cfg)
	if err != nil {
		return nil, err
	}
	return service.RunIncremental(ctx, source, importer.IncrementalOptions{
		OutputPath: output,
		Cutoff:     cutoff,
		SourceName: "strava-api",
	})
}

func newStravaSource(cfg *config.Config) (*strava.Source, error) {
	tokenPath, err := resolveTokenPath("", cfg.Paths.TokenFile)
	if err != nil {
		return nil, err
	}
	tokens, err := strava.NewTokenSource(tokenPath, stravaCredentials(cfg))
	if err != nil {
		return nil, err
	}

	client, err := strava.NewClient(strava.ClientConfig{
		BaseURL:   cfg.Strava.BaseURL,
		Tokens:    tokens,
		UserAgent: "runlog-import/1.0",
		Logger:    slog.Default(),
	})
	if err != nil {
		return nil, err
	}

	maxPages := cfg.Strava.MaxPages
	if importMaxPages > 0 {
		maxPages = importMaxPages
	}
	return &strava.Source{Client: client, PerPage: cfg.Strava.PerPage, MaxPages: maxPages}, nil
}

func resolveImportMode(inputs []string) string {
	for _, input := range inputs {
		if strings.TrimSpace(input) != "" {
			return importer.ModeBulk
		}
	}
	return importer.ModeIncremental
}

// resolveCutoff lets --after override strava.cutoff using the same formats.
func resolveCutoff(flagValue string, settings config.StravaConfig) (time.Time, error) {
	if strings.TrimSpace(flagValue) != "" {
		settings.Cutoff = flagValue
	}
	return settings.CutoffTime()
}

func printImportResult(out io.Writer, result *importer.Result) {
	if result == nil {
		return
	}
	switch result.Mode {
	case importer.ModeBulk:
		fmt.Fprintf(out, "Import completed. Mode: bulk, Files: %d, Rows read: %d, Records written: %d, Rows ignored: %d\n",
			result.FilesProcessed,
			result.Fetched,
			result.Normalized,
			result.Ignored,
		)
	default:
		fmt.Fprintf(out, "Import completed. Mode: incremental, Existing: %d, Fetched: %d, Already present: %d, Added: %d, Ignored: %d, Total: %d\n",
			result.Existing,
			result.Fetched,
			result.Skipped,
			result.Normalized,
			result.Ignored,
			result.Total,
		)
		if !result.OutputWritten {
			fmt.Fprintln(out, "No new activities. Output file left unchanged.")
		}
	}
	if result.RunID != "" {
		fmt.Fprintf(out, "Import run recorded: %s\n", result.RunID)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringArrayVarP(&importInputs, "input", "i", nil, "Strava export file (repeatable); omit to fetch from the API")
	importCmd.Flags().StringVarP(&importFormat, "format", "f", "", "Input format: csv|excel (optional, inferred from extension when omitted)")
	importCmd.Flags().StringVarP(&importOutput, "output", "o", "", "Dataset file (default: paths.output)")
	importCmd.Flags().StringVar(&importCachePath, "cache", "", "Workout cache file (default: paths.cache)")
	importCmd.Flags().StringVar(&importDBPath, "db", "", "SQLite mirror (default: paths.database, empty disables)")
	importCmd.Flags().StringVar(&importAfter, "after", "", "Only fetch activities started after this RFC3339 time or YYYY-MM-DD (default: strava.cutoff)")
	importCmd.Flags().IntVar(&importMaxPages, "max-pages", 0, "Stop after this many API pages (default: strava.max_pages, 0 means no limit)")
	importCmd.Flags().BoolVar(&importNonInteractive, "non-interactive", false, "Never prompt; unknown workouts keep no intervals")
}
