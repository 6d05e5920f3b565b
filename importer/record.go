package importer

import (
	"strings"
)

// Record is one row of a tabular export with header-normalized keys.
type Record struct {
	RowNumber int
	Values    map[string]string
}

func (r Record) Get(keys ...string) string {
	for _, key := range keys {
		normalized := normalizeHeader(key)
		if value, ok := r.Values[normalized]; ok {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func (r Record) Has(key string) bool {
	_, ok := r.Values[normalizeHeader(key)]
	return ok
}

func normalizeHeader(input string) string {
	trimmed := strings.TrimPrefix(input, "\ufeff")
	trimmed = strings.TrimSpace(strings.ToLower(trimmed))
	trimmed = strings.ReplaceAll(trimmed, "_", "")
	trimmed = strings.ReplaceAll(trimmed, "-", "")
	trimmed = strings.ReplaceAll(trimmed, " ", "")
	return trimmed
}
