package timeutil

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// ActivityLayout is the textual timestamp format used by the Strava bulk
// export and by every date stored in the dataset.
const ActivityLayout = "Jan 2, 2006, 03:04:05 PM"

// EasternZone is the zone stored activity dates are expressed in.
const EasternZone = "America/New_York"

var eastern *time.Location

func init() {
	loc, err := time.LoadLocation(EasternZone)
	if err != nil {
		panic(fmt.Sprintf("load %s: %v", EasternZone, err))
	}
	eastern = loc
}

func Eastern() *time.Location {
	return eastern
}

// ParseActivityDate parses a dataset date. The stored string carries no zone,
// so the result is interpreted in Eastern time.
func ParseActivityDate(value string) (time.Time, error) {
	return time.ParseInLocation(ActivityLayout, strings.TrimSpace(value), eastern)
}

// ToEastern reads an export timestamp as UTC and formats it again in Eastern time.
func ToEastern(value string) (string, error) {
	parsed, err := time.ParseInLocation(ActivityLayout, strings.TrimSpace(value), time.UTC)
	if err != nil {
		return "", fmt.Errorf("parse activity date %q: %w", value, err)
	}
	return FormatActivityDate(parsed), nil
}

func FormatActivityDate(value time.Time) string {
	return value.In(eastern).Format(ActivityLayout)
}

// FromISO8601 converts an API timestamp such as 2025-09-14T12:30:00Z into the
// export layout, expressed in UTC like the export itself.
func FromISO8601(value string) (string, error) {
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return "", fmt.Errorf("parse iso8601 date %q: %w", value, err)
	}
	return parsed.UTC().Format(ActivityLayout), nil
}

func StartOfDay(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
}

func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
