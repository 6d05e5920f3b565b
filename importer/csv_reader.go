package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// CSVReader reads the activities.csv file of a Strava bulk export.
type CSVReader struct{}

func (r *CSVReader) Read(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file %s: %w", path, err)
	}
	defer file.Close()

	return r.ReadRecords(file)
}

func (r *CSVReader) ReadRecords(input io.Reader) ([]Record, error) {
	reader := csv.NewReader(input)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	// The export repeats some column names (Distance, Elapsed Time). The later
	// column wins.
	normalizedHeaders := make([]string, len(headers))
	for i, header := range headers {
		normalizedHeaders[i] = normalizeHeader(header)
	}

	records := make([]Record, 0, 128)
	rowNumber := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", rowNumber+1, err)
		}

		records = append(records, Record{RowNumber: rowNumber + 1, Values: rowValues(normalizedHeaders, row)})
		rowNumber++
	}

	return records, nil
}

func rowValues(headers, row []string) map[string]string {
	values := make(map[string]string, len(headers))
	for i, header := range headers {
		if header == "" {
			continue
		}
		if i < len(row) {
			values[header] = row[i]
		} else if _, ok := values[header]; !ok {
			values[header] = ""
		}
	}
	return values
}
