package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
)

// RecordOptions configures CSV record loading behavior.
type RecordOptions struct {
	// TypedValues converts cells that look numeric into int64/float64 and
	// empty cells into nil. Off means every value stays a string.
	TypedValues bool

	// SkipInvalid controls whether to skip malformed rows or return an error.
	SkipInvalid bool
}

// LoadRecords reads a CSV file into column-keyed records, using the header
// row for column names. Rows with the wrong field count are malformed; they
// are skipped or fail the load depending on SkipInvalid.
func LoadRecords(filename string, opts RecordOptions) ([]map[string]any, error) {
	csvFile, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer func() { _ = csvFile.Close() }()

	// File existence check
	if fi, err := csvFile.Stat(); err != nil || fi.Size() == 0 {
		return nil, fmt.Errorf("CSV file is empty or cannot be read")
	}

	reader := csv.NewReader(csvFile)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %v", err)
	}
	for i, col := range header {
		if col == "" {
			return nil, fmt.Errorf("header column %d is empty", i+1)
		}
	}

	var records []map[string]any

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if opts.SkipInvalid {
				slog.Warn("Skipping malformed row", "error", err)
				continue
			}
			return nil, fmt.Errorf("malformed row: %v", err)
		}

		record := make(map[string]any, len(header))
		for i, col := range header {
			if opts.TypedValues {
				record[col] = convertValue(row[i])
			} else {
				record[col] = row[i]
			}
		}
		records = append(records, record)
	}

	return records, nil
}

// convertValue guesses a Go type for a CSV cell: integers and floats become
// numbers, empty cells become nil, everything else stays a string.
func convertValue(s string) any {
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
