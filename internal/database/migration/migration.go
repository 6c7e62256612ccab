// Package migration loads a tabular source into a PostgreSQL table so later
// runs can read records with --table.
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"mediamap/internal/logging"
	"mediamap/internal/model"
	"mediamap/internal/repository/postgres"
)

type migrationStep struct {
	Name string
	SQL  string
}

// Options controls ImportTable.
type Options struct {
	// Replace drops an existing table first. Without it rows are appended.
	Replace bool
}

func steps(table string, header []string, replace bool) []migrationStep {
	quoted := postgres.QuoteIdent(table)
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = quoteColumn(h) + " TEXT"
	}

	var out []migrationStep
	if replace {
		out = append(out, migrationStep{
			Name: "drop_table",
			SQL:  "DROP TABLE IF EXISTS " + quoted,
		})
	}
	out = append(out, migrationStep{
		Name: "create_table",
		SQL:  "CREATE TABLE IF NOT EXISTS " + quoted + " (" + strings.Join(cols, ", ") + ")",
	})
	return out
}

// ImportTable creates table with one TEXT column per header entry and copies
// every row of src into it inside a single transaction. It returns the number
// of inserted rows.
func ImportTable(ctx context.Context, db *sql.DB, table string, src *model.Table, opts Options) (int, error) {
	if !postgres.ValidTableName(table) {
		return 0, fmt.Errorf("invalid table name %q", table)
	}
	if src == nil || len(src.Header) == 0 {
		return 0, fmt.Errorf("source %q has no header row", tableName(src))
	}

	start := time.Now()
	logging.Info("database", "db_import_start", logging.Fields{
		"table":  table,
		"source": src.Name,
		"rows":   src.Len(),
	})

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, step := range steps(table, src.Header, opts.Replace) {
		stepStart := time.Now()
		if _, err := tx.ExecContext(ctx, step.SQL); err != nil {
			logging.Error("database", "db_import_failed", err, logging.Fields{
				"table":          table,
				"migration_step": step.Name,
			})
			return 0, fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		logging.Debug("database", "db_import_step", logging.Fields{
			"table":            table,
			"migration_step":   step.Name,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	insert := insertSQL(table, src.Header)
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	n := 0
	args := make([]any, len(src.Header))
	for _, row := range src.Rows {
		for i := range src.Header {
			if i < len(row) {
				args[i] = row[i]
			} else {
				args[i] = nil
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			logging.Error("database", "db_import_failed", err, logging.Fields{
				"table": table,
				"row":   n + 1,
			})
			return 0, fmt.Errorf("insert row %d: %w", n+1, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}

	logging.Info("database", "db_import_success", logging.Fields{
		"table":       table,
		"rows":        n,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return n, nil
}

func insertSQL(table string, header []string) string {
	cols := make([]string, len(header))
	params := make([]string, len(header))
	for i, h := range header {
		cols[i] = quoteColumn(h)
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return "INSERT INTO " + postgres.QuoteIdent(table) +
		" (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(params, ", ") + ")"
}

// quoteColumn keeps the header text as the column name so the table reader
// sees the same names the file had.
func quoteColumn(name string) string {
	return `"` + strings.ReplaceAll(strings.TrimSpace(name), `"`, `""`) + `"`
}

func tableName(t *model.Table) string {
	if t == nil {
		return ""
	}
	return t.Name
}
