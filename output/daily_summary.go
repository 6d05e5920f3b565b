package output

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"runlog/activity"
)

// DailySummary aggregates the activities of one type on one Eastern calendar day.
type DailySummary struct {
	Date          string
	Type          activity.Type
	FirstStart    time.Time
	LastStart     time.Time
	Count         int
	Distance      float64
	MovingHours   float64
	UnknownValues int
}

type dayKey struct {
	day          string
	activityType activity.Type
}

// BuildDailySummaries groups by day and type, oldest day first. Records whose
// date cannot be parsed are left out.
func BuildDailySummaries(activities []activity.Activity) []DailySummary {
	if len(activities) == 0 {
		return []DailySummary{}
	}

	byDay := make(map[dayKey][]activity.Activity)
	for _, item := range activities {
		started := item.ParsedDate()
		if started.IsZero() {
			continue
		}
		key := dayKey{day: started.Format("2006-01-02"), activityType: item.Type}
		byDay[key] = append(byDay[key], item)
	}

	keys := make([]dayKey, 0, len(byDay))
	for key := range byDay {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].day == keys[j].day {
			return keys[i].activityType < keys[j].activityType
		}
		return keys[i].day < keys[j].day
	})

	summaries := make([]DailySummary, 0, len(keys))
	for _, key := range keys {
		summaries = append(summaries, summarizeDay(key, byDay[key]))
	}
	return summaries
}

func summarizeDay(key dayKey, items []activity.Activity) DailySummary {
	summary := DailySummary{Date: key.day, Type: key.activityType, Count: len(items)}

	movingSeconds := 0.0
	for _, item := range items {
		started := item.ParsedDate()
		if summary.FirstStart.IsZero() || started.Before(summary.FirstStart) {
			summary.FirstStart = started
		}
		if started.After(summary.LastStart) {
			summary.LastStart = started
		}

		fields := item.Summary()
		if distance, ok := parseAmount(fields.Distance); ok {
			summary.Distance += distance
		} else if fields.Distance != "" {
			summary.UnknownValues++
		}
		if seconds, ok := parseAmount(fields.MovingTime); ok {
			movingSeconds += seconds
		} else if fields.MovingTime != "" {
			summary.UnknownValues++
		}
	}

	summary.Distance = roundTwo(summary.Distance)
	summary.MovingHours = roundTwo(movingSeconds / 3600)
	return summary
}

// parseAmount reads numbers as the export writes them, including "1,234.5".
func parseAmount(value string) (float64, bool) {
	value = strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if value == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func roundTwo(value float64) float64 {
	return math.Round(value*100) / 100
}

var summaryHeaders = []string{"Date", "Type", "FirstStart", "LastStart", "Count", "Distance", "MovingHours"}

func summaryRow(summary DailySummary) []string {
	return []string{
		summary.Date,
		string(summary.Type),
		summary.FirstStart.Format("15:04"),
		summary.LastStart.Format("15:04"),
		strconv.Itoa(summary.Count),
		fmt.Sprintf("%.2f", summary.Distance),
		fmt.Sprintf("%.2f", summary.MovingHours),
	}
}

func WriteDailySummaries(path, format string, summaries []DailySummary) error {
	rows := make([][]string, 0, len(summaries))
	for _, summary := range summaries {
		rows = append(rows, summaryRow(summary))
	}

	switch normalizeFormat(format) {
	case "csv":
		return writeCSV(path, summaryHeaders, rows)
	case "excel", "xlsx":
		return writeExcel(path, "Daily", summaryHeaders, rows)
	default:
		return fmt.Errorf("unsupported output format for daily summaries: %s", format)
	}
}
