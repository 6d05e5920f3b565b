package aiparse

import (
	"encoding/json"
	"fmt"
	"strings"

	"runlog/activity"
)

// AppendToDataset adds parsed records to the dataset at path and re-sorts it.
// Every value must be a complete record with a type and a date.
func AppendToDataset(path string, values []json.RawMessage) (int, error) {
	if len(values) == 0 {
		return 0, nil
	}

	added := make([]activity.Activity, 0, len(values))
	for i, value := range values {
		var item activity.Activity
		if err := json.Unmarshal(value, &item); err != nil {
			return 0, fmt.Errorf("parsed record %d: %w", i, err)
		}
		if strings.TrimSpace(string(item.Type)) == "" || strings.TrimSpace(item.Date) == "" {
			return 0, fmt.Errorf("parsed record %d: type and date are required", i)
		}
		added = append(added, item)
	}

	existing, err := activity.LoadFile(path)
	if err != nil {
		return 0, err
	}
	combined := append(existing, added...)
	activity.SortByDateDesc(combined)
	if err := activity.SaveFile(path, combined); err != nil {
		return 0, err
	}
	return len(added), nil
}
