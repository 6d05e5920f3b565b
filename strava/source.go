package strava

import (
	"context"
	"time"

	"runlog/importer"
)

type activityLister interface {
	ListActivities(ctx context.Context, options ListOptions) ([]Activity, error)
}

// Source feeds the incremental import from the API.
type Source struct {
	Client   activityLister
	PerPage  int
	MaxPages int
}

// FetchActivities returns the API items unconverted; the importer converts
// only those whose id is not in the dataset yet.
func (s *Source) FetchActivities(ctx context.Context, after time.Time) ([]importer.Fetched, error) {
	activities, err := s.Client.ListActivities(ctx, ListOptions{After: after, PerPage: s.PerPage, MaxPages: s.MaxPages})
	if err != nil {
		return nil, err
	}

	fetched := make([]importer.Fetched, 0, len(activities))
	for _, item := range activities {
		fetched = append(fetched, item)
	}
	return fetched, nil
}

var _ importer.Source = (*Source)(nil)
