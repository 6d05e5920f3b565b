package importer

import (
	"context"
	"fmt"

	"runlog/activity"
	"runlog/internal/classify"
)

type RunNormalizer struct {
	Classifier WorkoutClassifier
}

func (n *RunNormalizer) SourceType() string {
	return SourceRun
}

func (n *RunNormalizer) Normalize(ctx context.Context, raw RawActivity) (*activity.Activity, bool, error) {
	if raw.ID == DeniedRunID {
		return nil, false, nil
	}

	date, err := normalizeDate(raw)
	if err != nil {
		return nil, false, err
	}

	data := activity.RunData{
		Title:       raw.Name,
		Distance:    raw.Distance,
		MovingTime:  raw.MovingTime,
		ElapsedTime: raw.ElapsedTime,
		Temperature: raw.AverageTemperature,
		FeelsLike:   raw.ApparentTemperature,
		Description: raw.Description,
		PrivateNote: raw.PrivateNote,
		Shoe:        raw.Gear,
		StravaID:    raw.ID,
	}

	if n.Classifier != nil {
		intervals, err := n.Classifier.Classify(ctx, classify.Candidate{
			ID:          raw.ID,
			Title:       raw.Name,
			Description: raw.Description,
			PrivateNote: raw.PrivateNote,
		})
		if err != nil {
			return nil, false, fmt.Errorf("run %d: %w", raw.ID, err)
		}
		data.Intervals = intervals
	}

	return &activity.Activity{Version: 2, Type: activity.TypeRun, Date: date, Data: data}, true, nil
}
