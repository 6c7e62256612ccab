package model

import "strings"

// Table is the uniform shape every source reader returns: a header row and
// the data rows as raw strings.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Index returns the position of the named column, matching case-insensitively
// after trimming. It returns -1 when the column is absent.
func (t *Table) Index(name string) int {
	if t == nil || name == "" {
		return -1
	}
	want := strings.TrimSpace(name)
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), want) {
			return i
		}
	}
	return -1
}

// Cell returns the trimmed value at column idx of row, or "" when out of range.
func (t *Table) Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}
