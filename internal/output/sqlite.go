package output

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/scrapescript-lang/scrapescript/interpreter"
)

// WriteSQLite persists rows into a table in a SQLite database file. The table
// is created if missing with one TEXT column per row column; list values are
// JSON-encoded. NULLs survive as NULLs.
func WriteSQLite(path, table string, rows []*interpreter.Row) error {
	if len(rows) == 0 {
		return nil
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	columns := unionColumns(rows)

	quoted := make([]string, len(columns))
	for i, column := range columns {
		quoted[i] = quoteIdent(column) + " TEXT"
	}
	createStmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		quoteIdent(table), strings.Join(quoted, ", "))
	if _, err := db.Exec(createStmt); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	names := make([]string, len(columns))
	for i, column := range columns {
		names[i] = quoteIdent(column)
	}
	insertStmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(names, ", "), placeholders))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer insertStmt.Close()

	for _, row := range rows {
		args := make([]interface{}, len(columns))
		for i, column := range columns {
			value, ok := row.Get(column)
			if !ok || value == nil {
				args[i] = nil
				continue
			}
			cell, err := formatCell(value)
			if err != nil {
				return err
			}
			args[i] = cell
		}
		if _, err := insertStmt.Exec(args...); err != nil {
			return fmt.Errorf("insert row: %w", err)
		}
	}

	return tx.Commit()
}

// quoteIdent quotes a SQL identifier, doubling embedded quotes
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
