package activity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"runlog/internal/timeutil"
)

type Type string

const (
	TypeRun        Type = "run"
	TypeBike       Type = "bike"
	TypeRow        Type = "row"
	TypeElliptical Type = "elliptical"
	TypeLift       Type = "lift"
)

// Interval is one repetition of a structured workout as entered by the athlete.
type Interval struct {
	Distance string `json:"distance"`
	Time     string `json:"time"`
}

type Intervals []Interval

// Data is the type-specific payload of an Activity.
type Data interface {
	activityData()
}

type RunData struct {
	Title       string `json:"title"`
	Distance    string `json:"distance"`
	MovingTime  string `json:"moving_time"`
	ElapsedTime string `json:"elapsed_time"`
	Temperature string `json:"temperature"`
	FeelsLike   string `json:"feels_like"`
	Description string `json:"description"`
	PrivateNote string `json:"private_note"`
	Shoe        string `json:"shoe"`
	StravaID    int64  `json:"strava_id"`
	// Intervals is omitted when nil. An empty, non-nil list is written as [].
	Intervals Intervals `json:"intervals,omitzero"`
}

type BikeData struct {
	Title            string `json:"title"`
	StravaID         int64  `json:"strava_id"`
	Description      string `json:"description"`
	Distance         string `json:"distance"`
	MovingTime       string `json:"moving_time"`
	AverageHeartrate string `json:"average_heartrate"`
}

type RowData struct {
	Title            string `json:"title"`
	StravaID         int64  `json:"strava_id"`
	Description      string `json:"description"`
	MovingTime       string `json:"moving_time"`
	ElapsedTime      string `json:"elapsed_time"`
	AverageHeartRate string `json:"average_heart_rate"`
	MaxHeartRate     string `json:"max_heart_rate"`
}

type EllipticalData struct {
	Title            string `json:"title"`
	StravaID         int64  `json:"strava_id"`
	Description      string `json:"description"`
	Distance         string `json:"distance"`
	MovingTime       string `json:"moving_time"`
	AverageHeartrate string `json:"average_heartrate"`
}

// RawData holds a data object exactly as it was read from disk. Records loaded
// from an existing dataset keep this form so they are written back unchanged.
type RawData json.RawMessage

func (RunData) activityData()        {}
func (BikeData) activityData()       {}
func (RowData) activityData()        {}
func (EllipticalData) activityData() {}
func (RawData) activityData()        {}

func (d RawData) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

// Activity is one normalized record of the dataset.
type Activity struct {
	Version int
	Type    Type
	Date    string
	Data    Data
}

type wireActivity struct {
	Version int             `json:"version"`
	Type    Type            `json:"type"`
	Date    string          `json:"date"`
	Data    json.RawMessage `json:"data"`
}

func (a Activity) MarshalJSON() ([]byte, error) {
	data, err := a.DataJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireActivity{Version: a.Version, Type: a.Type, Date: a.Date, Data: data})
}

func (a *Activity) UnmarshalJSON(content []byte) error {
	var wire wireActivity
	if err := json.Unmarshal(content, &wire); err != nil {
		return err
	}
	a.Version = wire.Version
	a.Type = wire.Type
	a.Date = wire.Date
	a.Data = RawData(bytes.Clone(wire.Data))
	return nil
}

// DataJSON returns the encoded data object.
func (a Activity) DataJSON() ([]byte, error) {
	if a.Data == nil {
		return []byte("null"), nil
	}
	content, err := json.Marshal(a.Data)
	if err != nil {
		return nil, fmt.Errorf("encode %s data: %w", a.Type, err)
	}
	return content, nil
}

// ParsedDate returns the activity date, or the zero time when it cannot be parsed.
func (a Activity) ParsedDate() time.Time {
	parsed, err := timeutil.ParseActivityDate(a.Date)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

// Summary is the subset of data fields shared by most activity types.
type Summary struct {
	StravaID   string
	Title      string
	Distance   string
	MovingTime string
}

type wireSummary struct {
	StravaID   json.RawMessage `json:"strava_id"`
	Title      any             `json:"title"`
	Distance   any             `json:"distance"`
	MovingTime any             `json:"moving_time"`
}

func (a Activity) Summary() Summary {
	content, err := a.DataJSON()
	if err != nil {
		return Summary{}
	}
	var wire wireSummary
	if err := json.Unmarshal(content, &wire); err != nil {
		return Summary{}
	}
	return Summary{
		StravaID:   canonicalID(wire.StravaID),
		Title:      textValue(wire.Title),
		Distance:   textValue(wire.Distance),
		MovingTime: textValue(wire.MovingTime),
	}
}

// StravaID returns data.strava_id in canonical string form.
func (a Activity) StravaID() (string, bool) {
	id := a.Summary().StravaID
	return id, id != ""
}

func canonicalID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return ""
		}
		return text
	}
	var number json.Number
	if err := json.Unmarshal(raw, &number); err != nil {
		return ""
	}
	if asInt, err := number.Int64(); err == nil {
		return strconv.FormatInt(asInt, 10)
	}
	return number.String()
}

func textValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	default:
		return fmt.Sprint(typed)
	}
}
