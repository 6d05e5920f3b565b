package importer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrMalformedInput = errors.New("malformed input")

// Column names of the Strava bulk export.
const (
	ColumnID                  = "Activity ID"
	ColumnDate                = "Activity Date"
	ColumnName                = "Activity Name"
	ColumnType                = "Activity Type"
	ColumnDescription         = "Activity Description"
	ColumnPrivateNote         = "Activity Private Note"
	ColumnDistance            = "Distance"
	ColumnMovingTime          = "Moving Time"
	ColumnElapsedTime         = "Elapsed Time"
	ColumnAverageHeartRate    = "Average Heart Rate"
	ColumnMaxHeartRate        = "Max Heart Rate"
	ColumnAverageTemperature  = "Average Temperature"
	ColumnApparentTemperature = "Apparent Temperature"
	ColumnGear                = "Activity Gear"
)

// RawActivity is the single shape both the export and the API converge into
// before normalization. Values keep the source's text.
type RawActivity struct {
	ID                  int64
	Date                string
	Name                string
	Type                string
	Description         string
	PrivateNote         string
	Distance            string
	MovingTime          string
	ElapsedTime         string
	AverageHeartRate    string
	MaxHeartRate        string
	AverageTemperature  string
	ApparentTemperature string
	Gear                string
}

func (r RawActivity) ActivityID() (int64, error) { return r.ID, nil }

func (r RawActivity) Raw() (RawActivity, error) { return r, nil }

var _ Fetched = RawActivity{}

// RawActivityFromRecord validates an export row.
func RawActivityFromRecord(record Record) (RawActivity, error) {
	for _, column := range []string{ColumnID, ColumnDate, ColumnType} {
		if !record.Has(column) {
			return RawActivity{}, fmt.Errorf("row %d: missing column %q: %w", record.RowNumber, column, ErrMalformedInput)
		}
	}

	id, err := ParseActivityID(record.Get(ColumnID))
	if err != nil {
		return RawActivity{}, fmt.Errorf("row %d: %w", record.RowNumber, err)
	}

	return RawActivity{
		ID:                  id,
		Date:                record.Get(ColumnDate),
		Name:                record.Get(ColumnName),
		Type:                record.Get(ColumnType),
		Description:         record.Get(ColumnDescription),
		PrivateNote:         record.Get(ColumnPrivateNote),
		Distance:            record.Get(ColumnDistance),
		MovingTime:          record.Get(ColumnMovingTime),
		ElapsedTime:         record.Get(ColumnElapsedTime),
		AverageHeartRate:    record.Get(ColumnAverageHeartRate),
		MaxHeartRate:        record.Get(ColumnMaxHeartRate),
		AverageTemperature:  record.Get(ColumnAverageTemperature),
		ApparentTemperature: record.Get(ColumnApparentTemperature),
		Gear:                record.Get(ColumnGear),
	}, nil
}

func ParseActivityID(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("empty activity id: %w", ErrMalformedInput)
	}
	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse activity id %q: %w", value, ErrMalformedInput)
	}
	return id, nil
}

// RawActivitiesFromRecords converts every row, stopping at the first malformed one.
func RawActivitiesFromRecords(records []Record) ([]RawActivity, error) {
	raws := make([]RawActivity, 0, len(records))
	for _, record := range records {
		raw, err := RawActivityFromRecord(record)
		if err != nil {
			return nil, err
		}
		raws = append(raws, raw)
	}
	return raws, nil
}
