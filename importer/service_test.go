package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"runlog/activity"
	"runlog/cache"
	"runlog/internal/classify"
	"runlog/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, store *cache.Cache, decider classify.Decider, session *classify.Session) *Service {
	t.Helper()
	classifier := classify.New(store, decider, session, classify.DefaultVersionTag)
	return NewService(DefaultRegistry(classifier))
}

func TestRunBulkEndToEnd(t *testing.T) {
	dir := t.TempDir()
	input := writeExportCSV(t, dir, `42,"Jan 1, 2024, 08:00:00 AM",Tempo run,Run,,,8.05,2400,2460,,,4,1,Pegasus`)
	output := filepath.Join(dir, "out", "activities.json")

	store := cache.New(filepath.Join(dir, "cache.json"))
	decider := &classify.Scripted{}
	service := newTestService(t, store, decider, &classify.Session{NonInteractive: true})

	result, err := service.RunBulk(context.Background(), []string{input}, BulkOptions{OutputPath: output})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Normalized)
	assert.Equal(t, 1, result.Total)
	assert.True(t, result.OutputWritten)
	assert.Empty(t, decider.Asked)

	content, err := os.ReadFile(output)
	require.NoError(t, err)

	var written []map[string]any
	require.NoError(t, json.Unmarshal(content, &written))
	require.Len(t, written, 1)
	assert.Equal(t, float64(2), written[0]["version"])
	assert.Equal(t, "run", written[0]["type"])
	assert.Equal(t, "Jan 1, 2024, 03:00:00 AM", written[0]["date"])

	data := written[0]["data"].(map[string]any)
	assert.Equal(t, float64(42), data["strava_id"])
	assert.Equal(t, "Tempo run", data["title"])
	assert.Equal(t, "Pegasus", data["shoe"])
	assert.NotContains(t, data, "intervals")
}

func TestRunBulkRowFilterAndSort(t *testing.T) {
	dir := t.TempDir()
	input := writeExportCSV(t, dir,
		`4,"Mar 3, 2024, 11:00:00 AM",Strength Circuit,Workout,,,0,1800,1800,,,,,`,
		`3,"Mar 2, 2024, 11:00:00 AM",Morning Erg,Workout,,,0,1800,1900,140,160,,,`,
		`2,"Mar 4, 2024, 11:00:00 AM",Commute,Ride,,,12.1,2400,2500,120,,,,`,
		`1,"Mar 1, 2024, 11:00:00 AM",Easy recovery jog,Run,,,5.0,1800,1800,,,,,`,
	)
	output := filepath.Join(dir, "activities.json")

	service := newTestService(t, cache.New(filepath.Join(dir, "cache.json")), &classify.Scripted{}, &classify.Session{})

	result, err := service.RunBulk(context.Background(), []string{input}, BulkOptions{OutputPath: output})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Fetched)
	assert.Equal(t, 3, result.Normalized)
	assert.Equal(t, 1, result.Ignored)

	items, err := activity.LoadFile(output)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, activity.TypeBike, items[0].Type)
	assert.Equal(t, activity.TypeRow, items[1].Type)
	assert.Equal(t, "Morning Erg", items[1].Summary().Title)
	assert.Equal(t, activity.TypeRun, items[2].Type)
	assert.True(t, activity.IsSortedByDateDesc(items))
}

func TestRunBulkPromptsFlaggedRunsOldestFirst(t *testing.T) {
	dir := t.TempDir()
	input := writeExportCSV(t, dir,
		`11,"Mar 2, 2024, 11:00:00 AM",Race day,Run,,,5.0,1200,1200,,,,,`,
		`10,"Mar 1, 2024, 11:00:00 AM",Tempo Tuesday,Run,,,8.0,2400,2400,,,,,`,
	)
	output := filepath.Join(dir, "activities.json")
	store := cache.New(filepath.Join(dir, "cache.json"))
	decider := &classify.Scripted{Decisions: []classify.Decision{
		classify.Accept(activity.Intervals{{Distance: "2 mile", Time: "12:40"}}),
		classify.NotWorkout(),
	}}
	service := newTestService(t, store, decider, &classify.Session{})

	_, err := service.RunBulk(context.Background(), []string{input}, BulkOptions{OutputPath: output})
	require.NoError(t, err)

	require.Len(t, decider.Asked, 2)
	assert.Equal(t, int64(10), decider.Asked[0].ID)
	assert.Equal(t, int64(11), decider.Asked[1].ID)

	items, err := activity.LoadFile(output)
	require.NoError(t, err)
	require.Len(t, items, 2)

	var race, tempo map[string]json.RawMessage
	raceData, err := items[0].DataJSON()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raceData, &race))
	tempoData, err := items[1].DataJSON()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(tempoData, &tempo))

	assert.NotContains(t, race, "intervals")
	assert.JSONEq(t, `[{"distance":"2 mile","time":"12:40"}]`, string(tempo["intervals"]))
}

func TestRunBulkMalformedRowAbortsBeforeWrite(t *testing.T) {
	dir := t.TempDir()
	input := writeExportCSV(t, dir,
		`1,"Mar 1, 2024, 11:00:00 AM",Easy,Run,,,5.0,1800,1800,,,,,`,
		`2,"not a date",Easy,Run,,,5.0,1800,1800,,,,,`,
	)
	output := filepath.Join(dir, "activities.json")
	require.NoError(t, os.WriteFile(output, []byte("[]\n"), 0o644))

	service := newTestService(t, cache.New(filepath.Join(dir, "cache.json")), nil, &classify.Session{})

	_, err := service.RunBulk(context.Background(), []string{input}, BulkOptions{OutputPath: output})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedInput))

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(content))
}

func staticSource(items ...Fetched) SourceFunc {
	return func(context.Context, time.Time) ([]Fetched, error) {
		return append([]Fetched(nil), items...), nil
	}
}

func TestRunIncrementalDedupAndIdempotence(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "activities.json")
	existing := []activity.Activity{
		{Version: 2, Type: activity.TypeRun, Date: "Sep 15, 2025, 03:00:00 AM", Data: activity.RawData(`{"title":"Old","strava_id":100}`)},
		{Version: 2, Type: activity.TypeLift, Date: "Sep 14, 2025, 06:00:00 PM", Data: activity.RawData(`{"duration":"40m","notes":"","exercises":[]}`)},
		{Version: 1, Type: activity.TypeBike, Date: "Sep 14, 2025, 03:00:00 AM", Data: activity.RawData(`{"title":"Spin","strava_id":"101"}`)},
	}
	require.NoError(t, activity.SaveFile(output, existing))

	source := staticSource(
		RawActivity{ID: 102, Type: SourceRun, Name: "Easy jog", Date: "Sep 16, 2025, 11:00:00 AM"},
		RawActivity{ID: 100, Type: SourceRun, Name: "Old", Date: "Sep 15, 2025, 07:00:00 AM"},
		RawActivity{ID: 101, Type: SourceRide, Name: "Spin", Date: "Sep 14, 2025, 07:00:00 AM"},
	)
	service := newTestService(t, cache.New(filepath.Join(dir, "cache.json")), nil, &classify.Session{NonInteractive: true})

	result, err := service.RunIncremental(context.Background(), source, IncrementalOptions{OutputPath: output})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Existing)
	assert.Equal(t, 3, result.Fetched)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, 1, result.Normalized)
	assert.Equal(t, 4, result.Total)
	assert.True(t, result.OutputWritten)

	first, err := os.ReadFile(output)
	require.NoError(t, err)

	items, err := activity.LoadFile(output)
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.True(t, activity.IsSortedByDateDesc(items))
	id, _ := items[0].StravaID()
	assert.Equal(t, "102", id)
	assert.Len(t, activity.SeenIDs(items), 3)

	again, err := service.RunIncremental(context.Background(), source, IncrementalOptions{OutputPath: output})
	require.NoError(t, err)
	assert.Equal(t, 0, again.Normalized)
	assert.Equal(t, 3, again.Skipped)
	assert.False(t, again.OutputWritten)

	second, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

type unconvertible struct {
	id        int64
	converted *bool
}

func (u unconvertible) ActivityID() (int64, error) { return u.id, nil }

func (u unconvertible) Raw() (RawActivity, error) {
	*u.converted = true
	return RawActivity{}, fmt.Errorf("activity %d: %w: missing start date", u.id, ErrMalformedInput)
}

func TestRunIncrementalSkipsSeenBeforeConverting(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "activities.json")
	require.NoError(t, activity.SaveFile(output, []activity.Activity{
		{Version: 2, Type: activity.TypeRun, Date: "Sep 15, 2025, 03:00:00 AM", Data: activity.RawData(`{"title":"Old","strava_id":100}`)},
	}))
	service := newTestService(t, cache.New(filepath.Join(dir, "cache.json")), nil, &classify.Session{NonInteractive: true})

	converted := false
	result, err := service.RunIncremental(context.Background(), staticSource(
		unconvertible{id: 100, converted: &converted},
		RawActivity{ID: 103, Type: SourceRun, Name: "Easy jog", Date: "Sep 16, 2025, 11:00:00 AM"},
	), IncrementalOptions{OutputPath: output})
	require.NoError(t, err)
	assert.False(t, converted)
	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Normalized)
	assert.Equal(t, 2, result.Total)

	// An unseen item that cannot convert still fails the run.
	_, err = service.RunIncremental(context.Background(), staticSource(
		unconvertible{id: 200, converted: &converted},
	), IncrementalOptions{OutputPath: output})
	require.Error(t, err)
	assert.True(t, converted)
	assert.True(t, errors.Is(err, ErrMalformedInput))
}

func TestRunIncrementalCreatesMissingOutput(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "nested", "activities.json")
	service := newTestService(t, cache.New(filepath.Join(dir, "cache.json")), nil, &classify.Session{})

	result, err := service.RunIncremental(context.Background(), staticSource(
		RawActivity{ID: 1, Type: SourceElliptical, Name: "Gym", Date: "Sep 16, 2025, 11:00:00 AM"},
	), IncrementalOptions{OutputPath: output})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Existing)
	assert.Equal(t, 1, result.Total)

	items, err := activity.LoadFile(output)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, activity.TypeElliptical, items[0].Type)
}

func TestRunIncrementalPassesCutoff(t *testing.T) {
	dir := t.TempDir()
	cutoff := time.Date(2025, 9, 13, 4, 0, 0, 0, time.UTC)
	var got time.Time
	source := SourceFunc(func(_ context.Context, after time.Time) ([]Fetched, error) {
		got = after
		return nil, nil
	})
	service := newTestService(t, cache.New(filepath.Join(dir, "cache.json")), nil, &classify.Session{})

	result, err := service.RunIncremental(context.Background(), source, IncrementalOptions{
		OutputPath: filepath.Join(dir, "activities.json"),
		Cutoff:     cutoff,
	})
	require.NoError(t, err)
	assert.True(t, got.Equal(cutoff))
	assert.False(t, result.OutputWritten)

	_, err = os.Stat(filepath.Join(dir, "activities.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRunIncrementalFetchErrorLeavesOutput(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "activities.json")
	require.NoError(t, os.WriteFile(output, []byte("[]\n"), 0o644))
	fetchErr := errors.New("daily limit")

	service := newTestService(t, cache.New(filepath.Join(dir, "cache.json")), nil, &classify.Session{})
	_, err := service.RunIncremental(context.Background(), SourceFunc(func(context.Context, time.Time) ([]Fetched, error) {
		return nil, fetchErr
	}), IncrementalOptions{OutputPath: output})
	require.Error(t, err)
	assert.True(t, errors.Is(err, fetchErr))

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(content))
}

func TestRunIncrementalSuppressedRunStaysWithoutIntervals(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "activities.json")
	store := cache.New(filepath.Join(dir, "cache.json"))
	require.NoError(t, store.Set(55, classify.DefaultVersionTag, nil))
	decider := &classify.Scripted{}
	service := newTestService(t, store, decider, &classify.Session{})

	_, err := service.RunIncremental(context.Background(), staticSource(
		RawActivity{ID: 55, Type: SourceRun, Name: "Tempo run", Date: "Sep 16, 2025, 11:00:00 AM"},
	), IncrementalOptions{OutputPath: output})
	require.NoError(t, err)
	assert.Empty(t, decider.Asked)

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "intervals")
}

func TestRunIncrementalMirrorsDataset(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "activities.json")
	mirror, err := storage.OpenSQLite(filepath.Join(dir, "runlog.db"))
	require.NoError(t, err)
	defer mirror.Close()

	service := newTestService(t, cache.New(filepath.Join(dir, "cache.json")), nil, &classify.Session{})
	service.Mirror = mirror
	service.Now = func() time.Time { return time.Date(2025, 9, 20, 8, 0, 0, 0, time.UTC) }

	result, err := service.RunIncremental(context.Background(), staticSource(
		RawActivity{ID: 1, Type: SourceRide, Name: "Spin", Date: "Sep 16, 2025, 11:00:00 AM"},
		RawActivity{ID: 2, Type: SourceRun, Name: "Jog", Date: "Sep 17, 2025, 11:00:00 AM"},
	), IncrementalOptions{OutputPath: output, SourceName: "strava"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)

	mirrored, err := mirror.ListActivities(context.Background(), storage.ActivityFilter{})
	require.NoError(t, err)
	require.Len(t, mirrored, 2)
	assert.Equal(t, "Jog", mirrored[0].Summary().Title)

	runs, err := mirror.ListImportRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, ModeIncremental, runs[0].Mode)
	assert.Equal(t, "strava", runs[0].Source)
	assert.Equal(t, 2, runs[0].Normalized)
}
