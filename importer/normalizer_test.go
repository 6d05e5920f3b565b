package importer

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"runlog/activity"
	"runlog/cache"
	"runlog/internal/classify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawRun(id int64, title string) RawActivity {
	return RawActivity{
		ID:                  id,
		Date:                "Jan 1, 2024, 08:00:00 AM",
		Name:                title,
		Type:                SourceRun,
		Distance:            "8.05",
		MovingTime:          "2400",
		ElapsedTime:         "2460",
		AverageTemperature:  "4",
		ApparentTemperature: "1",
		Gear:                "Pegasus 40",
	}
}

func TestRunNormalizer(t *testing.T) {
	normalizer := &RunNormalizer{}

	item, ok, err := normalizer.Normalize(context.Background(), rawRun(42, "Tempo run"))
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 2, item.Version)
	assert.Equal(t, activity.TypeRun, item.Type)
	assert.Equal(t, "Jan 1, 2024, 03:00:00 AM", item.Date)
	assert.Equal(t, activity.RunData{
		Title:       "Tempo run",
		Distance:    "8.05",
		MovingTime:  "2400",
		ElapsedTime: "2460",
		Temperature: "4",
		FeelsLike:   "1",
		Shoe:        "Pegasus 40",
		StravaID:    42,
	}, item.Data)
}

func TestRunNormalizerSkipsDeniedID(t *testing.T) {
	normalizer := &RunNormalizer{}

	item, ok, err := normalizer.Normalize(context.Background(), rawRun(DeniedRunID, "Broken watch"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, item)
}

func TestRunNormalizerAttachesCachedIntervals(t *testing.T) {
	store := cache.New("unused.json")
	require.NoError(t, store.Set(42, classify.DefaultVersionTag, activity.Intervals{{Distance: "800m", Time: "2:50"}}))
	classifier := classify.New(store, nil, &classify.Session{NonInteractive: true}, "")
	normalizer := &RunNormalizer{Classifier: classifier}

	item, ok, err := normalizer.Normalize(context.Background(), rawRun(42, "Easy jog"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, activity.Intervals{{Distance: "800m", Time: "2:50"}}, item.Data.(activity.RunData).Intervals)
}

func TestRunNormalizerRejectsBadDate(t *testing.T) {
	raw := rawRun(1, "Run")
	raw.Date = "yesterday"

	_, _, err := (&RunNormalizer{}).Normalize(context.Background(), raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedInput))
}

func TestRegistryDispatch(t *testing.T) {
	registry := DefaultRegistry(nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		raw      RawActivity
		wantOK   bool
		wantType activity.Type
	}{
		{name: "ride", raw: RawActivity{ID: 1, Type: "Ride", Name: "Commute", Date: "Jan 1, 2024, 08:00:00 AM"}, wantOK: true, wantType: activity.TypeBike},
		{name: "elliptical", raw: RawActivity{ID: 2, Type: "Elliptical", Name: "Gym", Date: "Jan 1, 2024, 08:00:00 AM"}, wantOK: true, wantType: activity.TypeElliptical},
		{name: "erg workout", raw: RawActivity{ID: 3, Type: "Workout", Name: "Morning Erg", Date: "Jan 1, 2024, 08:00:00 AM"}, wantOK: true, wantType: activity.TypeRow},
		{name: "rowing workout", raw: RawActivity{ID: 4, Type: "Workout", Name: "ROWING 5k", Date: "Jan 1, 2024, 08:00:00 AM"}, wantOK: true, wantType: activity.TypeRow},
		{name: "strength workout", raw: RawActivity{ID: 5, Type: "Workout", Name: "Strength Circuit", Date: "Jan 1, 2024, 08:00:00 AM"}, wantOK: false},
		{name: "unknown type", raw: RawActivity{ID: 6, Type: "Walk", Name: "Dog walk", Date: "Jan 1, 2024, 08:00:00 AM"}, wantOK: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			item, ok, err := registry.Normalize(ctx, tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.wantOK, ok)
			if !tc.wantOK {
				assert.Nil(t, item)
				return
			}
			assert.Equal(t, tc.wantType, item.Type)
			assert.Equal(t, 1, item.Version)
			id, found := item.StravaID()
			assert.True(t, found)
			assert.Equal(t, fmtID(tc.raw.ID), id)
		})
	}
}

func TestRowDataHasNoIntervals(t *testing.T) {
	item, ok, err := (&WorkoutNormalizer{}).Normalize(context.Background(), RawActivity{
		ID:               9,
		Type:             SourceWorkout,
		Name:             "Erg intervals",
		Date:             "Jan 1, 2024, 08:00:00 AM",
		MovingTime:       "1800",
		ElapsedTime:      "1900",
		AverageHeartRate: "150",
		MaxHeartRate:     "172",
	})
	require.NoError(t, err)
	require.True(t, ok)

	content, err := item.DataJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"title": "Erg intervals",
		"strava_id": 9,
		"description": "",
		"moving_time": "1800",
		"elapsed_time": "1900",
		"average_heart_rate": "150",
		"max_heart_rate": "172"
	}`, string(content))
}

func TestRegistryIsAdditive(t *testing.T) {
	registry := DefaultRegistry(nil)
	registry.Register(stubNormalizer{sourceType: "Swim"})

	assert.Equal(t, []string{"Elliptical", "Ride", "Run", "Swim", "Workout"}, registry.SourceTypes())

	item, ok, err := registry.Normalize(context.Background(), RawActivity{ID: 1, Type: "Swim"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, activity.Type("swim"), item.Type)
}

type stubNormalizer struct {
	sourceType string
}

func (s stubNormalizer) SourceType() string { return s.sourceType }

func (s stubNormalizer) Normalize(_ context.Context, raw RawActivity) (*activity.Activity, bool, error) {
	return &activity.Activity{Version: 1, Type: "swim", Date: raw.Date, Data: activity.RawData(`{}`)}, true, nil
}

func fmtID(id int64) string {
	return strconv.FormatInt(id, 10)
}
