// Package ingest decodes tabular input into the raw row maps the engine
// consumes. It performs no interpretation beyond header mapping; coercion
// and validation belong to the normalizer.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadCSV decodes comma-separated input with a header row into one
// field-name → value map per data row. Values are whitespace-trimmed and
// blank lines are skipped.
func ReadCSV(r io.Reader) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv input is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []map[string]string
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(rows)+2, err)
		}
		empty := true
		row := make(map[string]string, len(header))
		for i, name := range header {
			if name == "" || i >= len(fields) {
				continue
			}
			value := strings.TrimSpace(fields[i])
			row[name] = value
			if value != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadCSVFile opens and decodes a CSV file.
func ReadCSVFile(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}
