package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"runlog/activity"
	"runlog/config"
	"runlog/internal/timeutil"
	"runlog/output"
	"runlog/storage"

	"github.com/spf13/cobra"
)

var (
	exportFormat  string
	exportMode    string
	exportOutput  string
	exportDBPath  string
	exportDataset string
	exportType    string
	exportFrom    string
	exportTo      string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export activities to CSV/Excel",
	Long: `Export activities from the SQLite mirror, or from the JSON dataset when no
mirror is configured.

Modes:
- raw: one row per activity (date, type, title, distance, moving time)
- daily: per-day and per-type aggregates (first/last start, count, distance, moving hours)

Filters narrow the export by type and by Eastern calendar day (--to is inclusive).
Output format can be selected explicitly via --format or inferred from --output extension.`,
	Example: `
  # Export raw rows to CSV
  runlog export --mode raw --output ./activities.csv

  # Export this season's runs to Excel
  runlog export --type run --from 2025-09-13 --output ./runs.xlsx

  # Export daily summary to CSV
  runlog export --mode daily --output ./daily-summary.csv

  # Read the JSON dataset directly
  runlog export --dataset ./activities.json --output ./activities.csv
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		format := exportFormat
		if strings.TrimSpace(format) == "" {
			format = detectExportFormat(exportOutput)
		}

		filter, err := buildActivityFilter(exportType, exportFrom, exportTo)
		if err != nil {
			return err
		}

		entries, err := loadExportActivities(commandContext(cmd), cfg, filter)
		if err != nil {
			return err
		}

		mode := strings.TrimSpace(strings.ToLower(exportMode))
		switch mode {
		case "", "raw":
			writer, writerErr := output.WriterForFormat(format)
			if writerErr != nil {
				return writerErr
			}
			if err := writer.Write(exportOutput, entries); err != nil {
				return err
			}
			fmt.Printf("Export completed. Rows: %d, Mode: raw, Format: %s, File: %s\n", len(entries), format, exportOutput)
		case "daily":
			summaries := output.BuildDailySummaries(entries)
			if err := output.WriteDailySummaries(exportOutput, format, summaries); err != nil {
				return err
			}
			fmt.Printf("Export completed. Days: %d, Mode: daily, Format: %s, File: %s\n", len(summaries), format, exportOutput)
		default:
			return fmt.Errorf("unsupported export mode: %s (supported: raw, daily)", exportMode)
		}
		return nil
	},
}

func loadExportActivities(ctx context.Context, cfg *config.Config, filter storage.ActivityFilter) ([]activity.Activity, error) {
	if strings.TrimSpace(exportDataset) == "" {
		if dbPath := firstNonEmpty(exportDBPath, cfg.Paths.Database); dbPath != "" {
			store, err := storage.OpenSQLite(dbPath)
			if err != nil {
				return nil, err
			}
			defer store.Close()
			return store.ListActivities(ctx, filter)
		}
	}

	entries, err := activity.LoadFile(firstNonEmpty(exportDataset, cfg.Paths.Output))
	if err != nil {
		return nil, err
	}
	return filterActivities(entries, filter), nil
}

// buildActivityFilter reads --from and --to as Eastern calendar days.
func buildActivityFilter(activityType, from, to string) (storage.ActivityFilter, error) {
	filter := storage.ActivityFilter{Type: activity.Type(strings.ToLower(strings.TrimSpace(activityType)))}

	if strings.TrimSpace(from) != "" {
		day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(from), timeutil.Eastern())
		if err != nil {
			return filter, fmt.Errorf("invalid --from %q: use YYYY-MM-DD", from)
		}
		filter.From = day
	}
	if strings.TrimSpace(to) != "" {
		day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(to), timeutil.Eastern())
		if err != nil {
			return filter, fmt.Errorf("invalid --to %q: use YYYY-MM-DD", to)
		}
		filter.To = day.AddDate(0, 0, 1)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.From.Before(filter.To) {
		return filter, fmt.Errorf("--from must not be after --to")
	}
	return filter, nil
}

// filterActivities applies filter to records read from the JSON dataset.
// Undated records only pass an unbounded filter.
func filterActivities(entries []activity.Activity, filter storage.ActivityFilter) []activity.Activity {
	out := make([]activity.Activity, 0, len(entries))
	for _, entry := range entries {
		if filter.Type != "" && entry.Type != filter.Type {
			continue
		}
		if !filter.From.IsZero() || !filter.To.IsZero() {
			started := entry.ParsedDate()
			if started.IsZero() {
				continue
			}
			if !filter.From.IsZero() && started.Before(filter.From) {
				continue
			}
			if !filter.To.IsZero() && !started.Before(filter.To) {
				continue
			}
		}
		out = append(out, entry)
	}
	return out
}

func detectExportFormat(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "csv":
		return "csv"
	case "xlsx", "xlsm", "xls":
		return "excel"
	default:
		return "csv"
	}
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportMode, "mode", "raw", "Export mode: raw|daily")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format: csv|excel (optional, inferred from output extension)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path")
	exportCmd.Flags().StringVar(&exportDBPath, "db", "", "SQLite mirror to read (default: paths.database)")
	exportCmd.Flags().StringVar(&exportDataset, "dataset", "", "Read this JSON dataset instead of the mirror")
	exportCmd.Flags().StringVar(&exportType, "type", "", "Only export this activity type (run, bike, row, elliptical, lift, ...)")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "First day to export (YYYY-MM-DD, Eastern time)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "Last day to export (YYYY-MM-DD, Eastern time)")

	_ = exportCmd.MarkFlagRequired("output")
}
