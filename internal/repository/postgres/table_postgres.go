package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"mediamap/internal/model"
	"mediamap/internal/repository"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// TablePostgres reads every row of one PostgreSQL table or view.
// Values are scanned as text; NULL reads as "".
type TablePostgres struct {
	db    *sql.DB
	table string
}

// NewTablePostgres creates a reader for table, optionally schema-qualified.
func NewTablePostgres(db *sql.DB, table string) (*TablePostgres, error) {
	if !ValidTableName(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &TablePostgres{db: db, table: table}, nil
}

var _ repository.TableRepository = (*TablePostgres)(nil)

// Name returns the table name.
func (r *TablePostgres) Name() string {
	return r.table
}

// Load checks that the table exists and reads all of its rows.
func (r *TablePostgres) Load(ctx context.Context) (*model.Table, error) {
	const qExists = `SELECT to_regclass($1) IS NOT NULL`
	var exists bool
	if err := r.db.QueryRowContext(ctx, qExists, r.table).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: table %s", repository.ErrSourceNotFound, r.table)
	}

	rows, err := r.db.QueryContext(ctx, "SELECT * FROM "+QuoteIdent(r.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	t := &model.Table{Name: r.table, Header: cols}
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			if v.Valid {
				row[i] = v.String
			}
		}
		t.Rows = append(t.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// ValidTableName reports whether name is a plain or schema-qualified identifier.
func ValidTableName(name string) bool {
	return identRe.MatchString(name)
}

// QuoteIdent double-quotes each part of a validated table name.
func QuoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + p + `"`
	}
	return strings.Join(parts, ".")
}
