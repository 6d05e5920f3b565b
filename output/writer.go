package output

import (
	"fmt"
	"strconv"
	"strings"

	"runlog/activity"
)

type Writer interface {
	Write(path string, activities []activity.Activity) error
}

func WriterForFormat(format string) (Writer, error) {
	switch normalizeFormat(format) {
	case "csv":
		return &CSVWriter{}, nil
	case "excel", "xlsx":
		return &ExcelWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

func normalizeFormat(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}

var activityHeaders = []string{"Date", "Type", "Version", "StravaID", "Title", "Distance", "MovingTime"}

func activityRow(item activity.Activity) []string {
	summary := item.Summary()
	return []string{
		item.Date,
		string(item.Type),
		strconv.Itoa(item.Version),
		summary.StravaID,
		summary.Title,
		summary.Distance,
		summary.MovingTime,
	}
}
