package importer

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"runlog/activity"
	"runlog/storage"
)

const (
	ModeBulk        = "bulk"
	ModeIncremental = "incremental"
)

// Fetched is one activity as a source returned it. Raw is only called once
// ActivityID has passed the seen-id check, so a record already in the dataset
// never has to convert.
type Fetched interface {
	ActivityID() (int64, error)
	Raw() (RawActivity, error)
}

// Source supplies activities that started after a cutoff.
type Source interface {
	FetchActivities(ctx context.Context, after time.Time) ([]Fetched, error)
}

type SourceFunc func(ctx context.Context, after time.Time) ([]Fetched, error)

func (f SourceFunc) FetchActivities(ctx context.Context, after time.Time) ([]Fetched, error) {
	return f(ctx, after)
}

// Mirror receives the dataset after it was written.
type Mirror interface {
	UpsertActivities(ctx context.Context, activities []activity.Activity) (int, error)
	RecordImportRun(ctx context.Context, run storage.ImportRun) (string, error)
}

type Result struct {
	Mode           string
	RunID          string
	FilesProcessed int
	// Existing is the number of records in the output before the run.
	Existing int
	// Fetched counts raw activities read from the export or the API.
	Fetched int
	// Skipped counts raw activities whose id was already in the dataset.
	Skipped int
	// Normalized counts records added to the dataset.
	Normalized int
	// Ignored counts raw activities no normalizer accepted.
	Ignored       int
	Total         int
	OutputWritten bool
}

type BulkOptions struct {
	OutputPath string
	// Format overrides the reader chosen from each file's extension.
	Format string
}

type IncrementalOptions struct {
	OutputPath string
	Cutoff     time.Time
	SourceName string
}

type Service struct {
	Registry *Registry
	Mirror   Mirror
	Logger   *slog.Logger
	Now      func() time.Time
}

func NewService(registry *Registry) *Service {
	return &Service{Registry: registry, Logger: slog.Default(), Now: time.Now}
}

// RunBulk rebuilds the dataset from export files and overwrites the output.
func (s *Service) RunBulk(ctx context.Context, paths []string, options BulkOptions) (*Result, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("at least one input file is required")
	}
	if strings.TrimSpace(options.OutputPath) == "" {
		return nil, fmt.Errorf("output path is required")
	}

	startedAt := s.now()
	result := &Result{Mode: ModeBulk}

	raws := make([]RawActivity, 0, 512)
	for _, path := range paths {
		sourceFormat, err := inferFormat(path, options.Format)
		if err != nil {
			return nil, err
		}
		reader, err := ReaderForFormat(sourceFormat)
		if err != nil {
			return nil, err
		}

		records, err := reader.Read(path)
		if err != nil {
			return nil, err
		}
		fileRaws, err := RawActivitiesFromRecords(records)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		result.FilesProcessed++
		raws = append(raws, fileRaws...)
		s.logger().Debug("export file read", "path", path, "format", sourceFormat, "rows", len(fileRaws))
	}
	result.Fetched = len(raws)

	// The export lists newest first. Prompting runs oldest first reads naturally.
	slices.Reverse(raws)

	normalized, err := s.normalize(ctx, raws, map[string]struct{}{}, result)
	if err != nil {
		return nil, err
	}

	activity.SortByDateDesc(normalized)
	if err := activity.SaveFile(options.OutputPath, normalized); err != nil {
		return nil, err
	}
	result.OutputWritten = true
	result.Total = len(normalized)

	if err := s.mirror(ctx, normalized, result, strings.Join(paths, ","), startedAt); err != nil {
		return nil, err
	}
	return result, nil
}

// RunIncremental appends activities fetched after the cutoff to the existing
// dataset. Records already present by strava_id are never appended again.
func (s *Service) RunIncremental(ctx context.Context, source Source, options IncrementalOptions) (*Result, error) {
	if source == nil {
		return nil, fmt.Errorf("activity source is required")
	}
	if strings.TrimSpace(options.OutputPath) == "" {
		return nil, fmt.Errorf("output path is required")
	}

	startedAt := s.now()
	result := &Result{Mode: ModeIncremental}

	existing, err := activity.LoadFile(options.OutputPath)
	if err != nil {
		return nil, err
	}
	seen := activity.SeenIDs(existing)
	result.Existing = len(existing)
	s.logger().Debug("existing dataset loaded", "path", options.OutputPath, "records", len(existing), "with_strava_id", len(seen))

	fetched, err := source.FetchActivities(ctx, options.Cutoff)
	if err != nil {
		return nil, fmt.Errorf("fetch activities: %w", err)
	}
	result.Fetched = len(fetched)

	slices.Reverse(fetched)

	raws, err := convertUnseen(fetched, seen, result)
	if err != nil {
		return nil, err
	}

	added, err := s.normalize(ctx, raws, seen, result)
	if err != nil {
		return nil, err
	}

	combined := existing
	if len(added) > 0 {
		combined = append(slices.Clone(existing), added...)
		activity.SortByDateDesc(combined)
		if err := activity.SaveFile(options.OutputPath, combined); err != nil {
			return nil, err
		}
		result.OutputWritten = true
	}
	result.Total = len(combined)

	sourceName := options.SourceName
	if strings.TrimSpace(sourceName) == "" {
		sourceName = "api"
	}
	if err := s.mirror(ctx, combined, result, sourceName, startedAt); err != nil {
		return nil, err
	}
	return result, nil
}

// convertUnseen drops fetched items whose id is already in seen and converts
// the rest.
func convertUnseen(fetched []Fetched, seen map[string]struct{}, result *Result) ([]RawActivity, error) {
	raws := make([]RawActivity, 0, len(fetched))
	for _, item := range fetched {
		id, err := item.ActivityID()
		if err != nil {
			return nil, err
		}
		if _, ok := seen[fmt.Sprint(id)]; ok {
			result.Skipped++
			continue
		}
		raw, err := item.Raw()
		if err != nil {
			return nil, err
		}
		raws = append(raws, raw)
	}
	return raws, nil
}

// normalize converts raws in order. seen is extended with every accepted id so
// one batch cannot add the same activity twice.
func (s *Service) normalize(ctx context.Context, raws []RawActivity, seen map[string]struct{}, result *Result) ([]activity.Activity, error) {
	normalized := make([]activity.Activity, 0, len(raws))
	for _, raw := range raws {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		key := fmt.Sprint(raw.ID)
		if _, ok := seen[key]; ok {
			result.Skipped++
			continue
		}

		item, ok, err := s.Registry.Normalize(ctx, raw)
		if err != nil {
			return nil, err
		}
		if !ok || item == nil {
			result.Ignored++
			continue
		}

		seen[key] = struct{}{}
		normalized = append(normalized, *item)
		result.Normalized++
	}
	return normalized, nil
}

func (s *Service) mirror(ctx context.Context, activities []activity.Activity, result *Result, source string, startedAt time.Time) error {
	if s.Mirror == nil {
		return nil
	}

	if _, err := s.Mirror.UpsertActivities(ctx, activities); err != nil {
		return fmt.Errorf("mirror dataset: %w", err)
	}
	runID, err := s.Mirror.RecordImportRun(ctx, storage.ImportRun{
		Mode:          result.Mode,
		Source:        source,
		StartedAt:     startedAt,
		FinishedAt:    s.now(),
		Existing:      result.Existing,
		Fetched:       result.Fetched,
		Skipped:       result.Skipped,
		Normalized:    result.Normalized,
		Ignored:       result.Ignored,
		Total:         result.Total,
		OutputWritten: result.OutputWritten,
	})
	if err != nil {
		return fmt.Errorf("record import run: %w", err)
	}
	result.RunID = runID
	return nil
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
