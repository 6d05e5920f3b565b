package activity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"runlog/internal/fileutil"
)

// LoadFile reads a dataset file. A missing file is an empty dataset.
func LoadFile(path string) ([]Activity, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return []Activity{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}

	var activities []Activity
	if err := json.Unmarshal(content, &activities); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", path, err)
	}
	if activities == nil {
		activities = []Activity{}
	}
	return activities, nil
}

// SaveFile writes the dataset as a two-space indented JSON array.
func SaveFile(path string, activities []Activity) error {
	if activities == nil {
		activities = []Activity{}
	}
	content, err := json.MarshalIndent(activities, "", "  ")
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	content = append(content, '\n')
	if err := fileutil.WriteFileAtomic(path, content, 0o644); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	return nil
}

// SeenIDs collects data.strava_id of every record that has one.
func SeenIDs(activities []Activity) map[string]struct{} {
	seen := make(map[string]struct{}, len(activities))
	for _, item := range activities {
		if id, ok := item.StravaID(); ok {
			seen[id] = struct{}{}
		}
	}
	return seen
}

// SortByDateDesc orders newest first. Records with an unparseable date sort
// last and keep their relative order.
func SortByDateDesc(activities []Activity) {
	type keyed struct {
		date time.Time
		item Activity
	}
	items := make([]keyed, len(activities))
	for i, item := range activities {
		items[i] = keyed{date: item.ParsedDate(), item: item}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].date.After(items[j].date)
	})

	for i := range items {
		activities[i] = items[i].item
	}
}

// IsSortedByDateDesc reports whether every record is at least as recent as the next one.
func IsSortedByDateDesc(activities []Activity) bool {
	for i := 1; i < len(activities); i++ {
		if activities[i-1].ParsedDate().Before(activities[i].ParsedDate()) {
			return false
		}
	}
	return true
}
