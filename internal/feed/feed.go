// Package feed loads the optional tabular input that parameterises a run.
// A feed is a list of records; each record maps column names to string
// values, matched against the script's data_schema declarations.
package feed

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Record is one feed row: column name to value
type Record map[string]string

// Load reads a feed file, dispatching on the extension (.csv or .json)
func Load(path string) ([]Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".json":
		return LoadJSON(path)
	default:
		return nil, fmt.Errorf("unsupported feed format %q (use .csv or .json)", filepath.Ext(path))
	}
}

// LoadCSV reads a CSV feed. The first row is the header; every later row
// becomes a record keyed by the header columns.
func LoadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feed: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read feed %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("feed %s is empty", path)
	}

	header := rows[0]
	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(Record, len(header))
		for i, column := range header {
			if i < len(row) {
				record[column] = row[i]
			} else {
				record[column] = ""
			}
		}
		records = append(records, record)
	}

	return records, nil
}

// LoadJSON reads a JSON feed: an array of flat objects. Non-string values
// are rendered with their default JSON formatting.
func LoadJSON(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open feed: %w", err)
	}

	var raw []map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", path, err)
	}

	records := make([]Record, 0, len(raw))
	for _, obj := range raw {
		record := make(Record, len(obj))
		for column, value := range obj {
			switch v := value.(type) {
			case string:
				record[column] = v
			case nil:
				record[column] = ""
			default:
				record[column] = fmt.Sprintf("%v", v)
			}
		}
		records = append(records, record)
	}

	return records, nil
}
