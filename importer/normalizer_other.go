package importer

import (
	"context"
	"strings"

	"runlog/activity"
)

type RideNormalizer struct{}

func (n *RideNormalizer) SourceType() string {
	return SourceRide
}

func (n *RideNormalizer) Normalize(_ context.Context, raw RawActivity) (*activity.Activity, bool, error) {
	date, err := normalizeDate(raw)
	if err != nil {
		return nil, false, err
	}
	return &activity.Activity{
		Version: 1,
		Type:    activity.TypeBike,
		Date:    date,
		Data: activity.BikeData{
			Title:            raw.Name,
			StravaID:         raw.ID,
			Description:      raw.Description,
			Distance:         raw.Distance,
			MovingTime:       raw.MovingTime,
			AverageHeartrate: raw.AverageHeartRate,
		},
	}, true, nil
}

// WorkoutNormalizer keeps only generic workouts that are rowing sessions.
type WorkoutNormalizer struct{}

func (n *WorkoutNormalizer) SourceType() string {
	return SourceWorkout
}

func IsRowingWorkout(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "erg") || strings.Contains(lower, "row")
}

func (n *WorkoutNormalizer) Normalize(_ context.Context, raw RawActivity) (*activity.Activity, bool, error) {
	if !IsRowingWorkout(raw.Name) {
		return nil, false, nil
	}
	date, err := normalizeDate(raw)
	if err != nil {
		return nil, false, err
	}
	return &activity.Activity{
		Version: 1,
		Type:    activity.TypeRow,
		Date:    date,
		Data: activity.RowData{
			Title:            raw.Name,
			StravaID:         raw.ID,
			Description:      raw.Description,
			MovingTime:       raw.MovingTime,
			ElapsedTime:      raw.ElapsedTime,
			AverageHeartRate: raw.AverageHeartRate,
			MaxHeartRate:     raw.MaxHeartRate,
		},
	}, true, nil
}

type EllipticalNormalizer struct{}

func (n *EllipticalNormalizer) SourceType() string {
	return SourceElliptical
}

func (n *EllipticalNormalizer) Normalize(_ context.Context, raw RawActivity) (*activity.Activity, bool, error) {
	date, err := normalizeDate(raw)
	if err != nil {
		return nil, false, err
	}
	return &activity.Activity{
		Version: 1,
		Type:    activity.TypeElliptical,
		Date:    date,
		Data: activity.EllipticalData{
			Title:            raw.Name,
			StravaID:         raw.ID,
			Description:      raw.Description,
			Distance:         raw.Distance,
			MovingTime:       raw.MovingTime,
			AverageHeartrate: raw.AverageHeartRate,
		},
	}, true, nil
}
