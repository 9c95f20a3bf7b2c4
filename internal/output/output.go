// Package output persists collected rows: JSON and CSV files for pipelines,
// a SQLite table for local querying. The format dispatches on the target
// path's extension.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/scrapescript-lang/scrapescript/interpreter"
)

// Write persists rows to path, dispatching on its extension:
// .json, .csv, or .db/.sqlite.
func Write(path string, rows []*interpreter.Row) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return writeFile(path, func(w io.Writer) error { return WriteJSON(w, rows) })
	case ".csv":
		return writeFile(path, func(w io.Writer) error { return WriteCSV(w, rows) })
	case ".db", ".sqlite":
		return WriteSQLite(path, "rows", rows)
	default:
		return fmt.Errorf("unsupported output format %q (use .json, .csv, .db or .sqlite)", filepath.Ext(path))
	}
}

// writeFile creates path and streams through the given writer function
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()

	if err := write(f); err != nil {
		return err
	}
	return f.Close()
}

// WriteJSON renders rows as an indented JSON array
func WriteJSON(w io.Writer, rows []*interpreter.Row) error {
	if rows == nil {
		rows = []*interpreter.Row{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(rows)
}

// WriteCSV renders rows as CSV. The header is the union of all row columns
// in first-seen order; list values are JSON-encoded into their cell.
func WriteCSV(w io.Writer, rows []*interpreter.Row) error {
	columns := unionColumns(rows)
	writer := csv.NewWriter(w)

	if err := writer.Write(columns); err != nil {
		return err
	}

	for _, row := range rows {
		record := make([]string, len(columns))
		for i, column := range columns {
			value, ok := row.Get(column)
			if !ok {
				continue
			}
			cell, err := formatCell(value)
			if err != nil {
				return err
			}
			record[i] = cell
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// unionColumns collects every column across rows, preserving first-seen order
func unionColumns(rows []*interpreter.Row) []string {
	seen := map[string]bool{}
	columns := []string{}
	for _, row := range rows {
		for _, column := range row.Columns() {
			if !seen[column] {
				seen[column] = true
				columns = append(columns, column)
			}
		}
	}
	return columns
}

// formatCell renders a row value into a single CSV/SQL cell
func formatCell(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []string:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(encoded), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}
