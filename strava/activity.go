package strava

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"runlog/importer"
	"runlog/internal/timeutil"
)

// Activity is the summary representation returned by /athlete/activities.
// Numbers are kept as json.Number so their text reaches the dataset unchanged.
type Activity struct {
	ID               json.Number `json:"id"`
	Name             string      `json:"name"`
	Type             string      `json:"type"`
	SportType        string      `json:"sport_type"`
	Description      string      `json:"description"`
	StartDate        string      `json:"start_date"`
	StartDateLocal   string      `json:"start_date_local"`
	Distance         json.Number `json:"distance"`
	MovingTime       json.Number `json:"moving_time"`
	ElapsedTime      json.Number `json:"elapsed_time"`
	AverageHeartrate json.Number `json:"average_heartrate"`
	MaxHeartrate     json.Number `json:"max_heartrate"`
}

func (a Activity) ActivityID() (int64, error) {
	return importer.ParseActivityID(a.ID.String())
}

// Raw converts the API item into the shape export rows are read into. The
// summary carries no private note, temperatures or gear name.
func (a Activity) Raw() (importer.RawActivity, error) {
	id, err := a.ActivityID()
	if err != nil {
		return importer.RawActivity{}, err
	}

	date, err := a.exportDate()
	if err != nil {
		return importer.RawActivity{}, fmt.Errorf("activity %d: %w: %w", id, importer.ErrMalformedInput, err)
	}

	activityType := strings.TrimSpace(a.Type)
	if activityType == "" {
		activityType = strings.TrimSpace(a.SportType)
	}

	return importer.RawActivity{
		ID:               id,
		Date:             date,
		Name:             a.Name,
		Type:             activityType,
		Description:      a.Description,
		Distance:         a.Distance.String(),
		MovingTime:       a.MovingTime.String(),
		ElapsedTime:      a.ElapsedTime.String(),
		AverageHeartRate: a.AverageHeartrate.String(),
		MaxHeartRate:     a.MaxHeartrate.String(),
	}, nil
}

// exportDate renders the start time the way the bulk export does, in UTC.
// start_date_local carries no zone and is only used when start_date is absent.
func (a Activity) exportDate() (string, error) {
	if value := strings.TrimSpace(a.StartDate); value != "" {
		return timeutil.FromISO8601(value)
	}

	local := strings.TrimSuffix(strings.TrimSpace(a.StartDateLocal), "Z")
	if local == "" {
		return "", fmt.Errorf("missing start date")
	}
	parsed, err := time.Parse("2006-01-02T15:04:05", local)
	if err != nil {
		return "", fmt.Errorf("parse start_date_local %q: %w", a.StartDateLocal, err)
	}
	return parsed.Format(timeutil.ActivityLayout), nil
}
