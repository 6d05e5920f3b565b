package strava

import (
	"encoding/json"
	"testing"

	"runlog/importer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityRawKeepsNumberText(t *testing.T) {
	payload := `{
		"id": 15923456789,
		"name": "Lunch Run",
		"type": "Run",
		"sport_type": "Run",
		"description": null,
		"start_date": "2025-09-14T16:30:00Z",
		"start_date_local": "2025-09-14T12:30:00Z",
		"distance": 8050.3,
		"moving_time": 2400,
		"elapsed_time": 2460,
		"average_heartrate": 151.2,
		"max_heartrate": null
	}`

	var item Activity
	require.NoError(t, json.Unmarshal([]byte(payload), &item))

	raw, err := item.Raw()
	require.NoError(t, err)
	assert.Equal(t, importer.RawActivity{
		ID:               15923456789,
		Date:             "Sep 14, 2025, 04:30:00 PM",
		Name:             "Lunch Run",
		Type:             "Run",
		Distance:         "8050.3",
		MovingTime:       "2400",
		ElapsedTime:      "2460",
		AverageHeartRate: "151.2",
	}, raw)
}

func TestActivityRawDateFallback(t *testing.T) {
	item := Activity{ID: "5", SportType: "Ride", StartDateLocal: "2025-09-14T08:05:09Z"}

	raw, err := item.Raw()
	require.NoError(t, err)
	assert.Equal(t, "Sep 14, 2025, 08:05:09 AM", raw.Date)
	assert.Equal(t, "Ride", raw.Type)
}

func TestActivityRawRejectsMissingFields(t *testing.T) {
	_, err := Activity{ID: "5"}.Raw()
	require.Error(t, err)
	assert.ErrorIs(t, err, importer.ErrMalformedInput)

	_, err = Activity{StartDate: "2025-09-14T16:30:00Z"}.Raw()
	require.Error(t, err)
	assert.ErrorIs(t, err, importer.ErrMalformedInput)

	_, err = Activity{ID: "5", StartDate: "yesterday"}.Raw()
	assert.ErrorIs(t, err, importer.ErrMalformedInput)
}
