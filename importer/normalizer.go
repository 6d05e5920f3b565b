package importer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"runlog/activity"
	"runlog/internal/classify"
	"runlog/internal/timeutil"
)

// Raw activity type tags as written by Strava.
const (
	SourceRun        = "Run"
	SourceRide       = "Ride"
	SourceWorkout    = "Workout"
	SourceElliptical = "Elliptical"
)

// DeniedRunID is a run with corrupt data in the source account. It is always
// left out of the dataset.
const DeniedRunID int64 = 13220250113

// Normalizer maps one raw activity of its source type to a dataset record.
// ok is false when the record does not belong in the dataset.
type Normalizer interface {
	SourceType() string
	Normalize(ctx context.Context, raw RawActivity) (result *activity.Activity, ok bool, err error)
}

// WorkoutClassifier decides which intervals, if any, a run carries.
type WorkoutClassifier interface {
	Classify(ctx context.Context, candidate classify.Candidate) (activity.Intervals, error)
}

type Registry struct {
	normalizers map[string]Normalizer
}

func NewRegistry(normalizers ...Normalizer) *Registry {
	registry := &Registry{normalizers: make(map[string]Normalizer, len(normalizers))}
	for _, normalizer := range normalizers {
		registry.Register(normalizer)
	}
	return registry
}

// DefaultRegistry handles runs, rides, rowing workouts and elliptical sessions.
func DefaultRegistry(classifier WorkoutClassifier) *Registry {
	return NewRegistry(
		&RunNormalizer{Classifier: classifier},
		&RideNormalizer{},
		&WorkoutNormalizer{},
		&EllipticalNormalizer{},
	)
}

func (r *Registry) Register(normalizer Normalizer) {
	r.normalizers[normalizer.SourceType()] = normalizer
}

func (r *Registry) Lookup(sourceType string) (Normalizer, bool) {
	normalizer, ok := r.normalizers[strings.TrimSpace(sourceType)]
	return normalizer, ok
}

func (r *Registry) SourceTypes() []string {
	types := make([]string, 0, len(r.normalizers))
	for sourceType := range r.normalizers {
		types = append(types, sourceType)
	}
	sort.Strings(types)
	return types
}

// Normalize dispatches on raw.Type. Unknown types are not applicable.
func (r *Registry) Normalize(ctx context.Context, raw RawActivity) (*activity.Activity, bool, error) {
	normalizer, ok := r.Lookup(raw.Type)
	if !ok {
		return nil, false, nil
	}
	return normalizer.Normalize(ctx, raw)
}

func normalizeDate(raw RawActivity) (string, error) {
	date, err := timeutil.ToEastern(raw.Date)
	if err != nil {
		return "", fmt.Errorf("activity %d: %w: %w", raw.ID, ErrMalformedInput, err)
	}
	return date, nil
}
