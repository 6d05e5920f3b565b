package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// runTimeLayout has a fixed width so stored timestamps sort as text.
const runTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ImportRun is one recorded execution of the import pipeline.
type ImportRun struct {
	ID            string
	Mode          string
	Source        string
	StartedAt     time.Time
	FinishedAt    time.Time
	Existing      int
	Fetched       int
	Skipped       int
	Normalized    int
	Ignored       int
	Total         int
	OutputWritten bool
}

// RecordImportRun stores run and returns its id. An empty ID is generated.
func (s *SQLiteStore) RecordImportRun(ctx context.Context, run ImportRun) (string, error) {
	if strings.TrimSpace(run.ID) == "" {
		run.ID = newRunID()
	}
	if strings.TrimSpace(run.Mode) == "" {
		return "", fmt.Errorf("import run mode is required")
	}

	const insertStmt = `
INSERT INTO import_runs (
	id,
	mode,
	source,
	started_at,
	finished_at,
	existing,
	fetched,
	skipped,
	normalized,
	ignored,
	total,
	output_written
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	written := 0
	if run.OutputWritten {
		written = 1
	}

	if _, err := s.db.ExecContext(
		ctx,
		insertStmt,
		run.ID,
		run.Mode,
		run.Source,
		run.StartedAt.UTC().Format(runTimeLayout),
		run.FinishedAt.UTC().Format(runTimeLayout),
		run.Existing,
		run.Fetched,
		run.Skipped,
		run.Normalized,
		run.Ignored,
		run.Total,
		written,
	); err != nil {
		return "", fmt.Errorf("insert import run: %w", err)
	}
	return run.ID, nil
}

// ListImportRuns returns the most recent runs first. limit <= 0 means no limit.
func (s *SQLiteStore) ListImportRuns(ctx context.Context, limit int) ([]ImportRun, error) {
	query := `
SELECT
	id,
	mode,
	source,
	started_at,
	finished_at,
	existing,
	fetched,
	skipped,
	normalized,
	ignored,
	total,
	output_written
FROM import_runs
ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += "\nLIMIT ?"
		args = append(args, limit)
	}
	query += ";"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query import runs: %w", err)
	}
	defer rows.Close()

	runs := make([]ImportRun, 0, 16)
	for rows.Next() {
		var (
			run         ImportRun
			startedRaw  string
			finishedRaw string
			written     int
		)
		if err := rows.Scan(
			&run.ID,
			&run.Mode,
			&run.Source,
			&startedRaw,
			&finishedRaw,
			&run.Existing,
			&run.Fetched,
			&run.Skipped,
			&run.Normalized,
			&run.Ignored,
			&run.Total,
			&written,
		); err != nil {
			return nil, fmt.Errorf("scan import run: %w", err)
		}

		run.StartedAt, err = time.Parse(runTimeLayout, startedRaw)
		if err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", startedRaw, err)
		}
		run.FinishedAt, err = time.Parse(runTimeLayout, finishedRaw)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at %q: %w", finishedRaw, err)
		}
		run.OutputWritten = written == 1
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate import runs: %w", err)
	}

	return runs, nil
}
