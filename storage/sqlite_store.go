package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"runlog/activity"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore mirrors the JSON dataset into a queryable database and keeps a
// log of import runs. The JSON file stays the source of truth.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS activities (
	position INTEGER PRIMARY KEY,
	strava_id TEXT,
	type TEXT NOT NULL,
	version INTEGER NOT NULL,
	date TEXT NOT NULL,
	started_at TEXT,
	title TEXT NOT NULL DEFAULT '',
	distance TEXT NOT NULL DEFAULT '',
	moving_time TEXT NOT NULL DEFAULT '',
	data_json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activities_strava_id ON activities(strava_id);
CREATE INDEX IF NOT EXISTS idx_activities_started_at ON activities(started_at);

CREATE TABLE IF NOT EXISTS import_runs (
	id TEXT PRIMARY KEY,
	mode TEXT NOT NULL,
	source TEXT NOT NULL DEFAULT '',
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	existing INTEGER NOT NULL DEFAULT 0,
	fetched INTEGER NOT NULL DEFAULT 0,
	skipped INTEGER NOT NULL DEFAULT 0,
	normalized INTEGER NOT NULL DEFAULT 0,
	ignored INTEGER NOT NULL DEFAULT 0,
	total INTEGER NOT NULL DEFAULT 0,
	output_written INTEGER NOT NULL DEFAULT 0
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// UpsertActivities replaces the mirrored dataset with activities, keeping their order.
func (s *SQLiteStore) UpsertActivities(ctx context.Context, activities []activity.Activity) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM activities;`); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("clear activities: %w", err)
	}

	const insertStmt = `
INSERT INTO activities (
	position,
	strava_id,
	type,
	version,
	date,
	started_at,
	title,
	distance,
	moving_time,
	data_json
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	stmt, err := tx.PrepareContext(ctx, insertStmt)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare insert statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i, item := range activities {
		data, err := item.DataJSON()
		if err != nil {
			_ = tx.Rollback()
			return inserted, err
		}
		summary := item.Summary()

		if _, err := stmt.ExecContext(
			ctx,
			i,
			nullableString(summary.StravaID),
			string(item.Type),
			item.Version,
			item.Date,
			nullableTime(item.ParsedDate()),
			summary.Title,
			summary.Distance,
			summary.MovingTime,
			string(data),
		); err != nil {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("insert activity %d: %w", i, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("commit transaction: %w", err)
	}

	return inserted, nil
}

// ActivityFilter narrows ListActivities. Zero values match everything.
type ActivityFilter struct {
	Type activity.Type
	From time.Time
	To   time.Time
}

// ListActivities returns mirrored activities in dataset order.
func (s *SQLiteStore) ListActivities(ctx context.Context, filter ActivityFilter) ([]activity.Activity, error) {
	query := `
SELECT
	version,
	type,
	date,
	data_json
FROM activities`

	conditions := make([]string, 0, 3)
	args := make([]any, 0, 3)
	if strings.TrimSpace(string(filter.Type)) != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, string(filter.Type))
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, "started_at >= ?")
		args = append(args, filter.From.UTC().Format(time.RFC3339))
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, "started_at < ?")
		args = append(args, filter.To.UTC().Format(time.RFC3339))
	}
	if len(conditions) > 0 {
		query += "\nWHERE " + strings.Join(conditions, " AND ")
	}
	query += "\nORDER BY position;"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	activities := make([]activity.Activity, 0, 256)
	for rows.Next() {
		var (
			item     activity.Activity
			itemType string
			data     string
		)
		if err := rows.Scan(&item.Version, &itemType, &item.Date, &data); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		item.Type = activity.Type(itemType)
		item.Data = activity.RawData(data)
		activities = append(activities, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}

	return activities, nil
}

// GetActivityByStravaID returns the mirrored record with the given remote id.
func (s *SQLiteStore) GetActivityByStravaID(ctx context.Context, stravaID string) (activity.Activity, bool, error) {
	const query = `
SELECT
	version,
	type,
	date,
	data_json
FROM activities
WHERE strava_id = ?
ORDER BY position
LIMIT 1;`

	var (
		item     activity.Activity
		itemType string
		data     string
	)
	err := s.db.QueryRowContext(ctx, query, strings.TrimSpace(stravaID)).Scan(&item.Version, &itemType, &item.Date, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return activity.Activity{}, false, nil
	}
	if err != nil {
		return activity.Activity{}, false, fmt.Errorf("query activity %s: %w", stravaID, err)
	}
	item.Type = activity.Type(itemType)
	item.Data = activity.RawData(data)
	return item, true, nil
}

func (s *SQLiteStore) CountActivities(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activities;`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count activities: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) DeleteAllActivities(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM activities;`)
	if err != nil {
		return 0, fmt.Errorf("delete activities: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read deleted row count: %w", err)
	}
	return rows, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableTime(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value.UTC().Format(time.RFC3339)
}

func newRunID() string {
	return uuid.NewString()
}
