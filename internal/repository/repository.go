// Package repository contains tabular source abstractions. Readers return the
// raw rows of one source as a model.Table; interpretation of the columns
// belongs to the normalizer.
// Implementations live in subpackages (file, postgres) inside this directory.
package repository

import (
	"context"
	"errors"

	"mediamap/internal/model"
)

var (
	// ErrUnsupportedFormat is returned for inputs that are neither CSV nor a spreadsheet.
	ErrUnsupportedFormat = errors.New("unsupported input format: use CSV or XLSX")
	// ErrSourceNotFound is returned when the file or table does not exist.
	ErrSourceNotFound = errors.New("source not found")
)

// TableRepository loads one tabular source.
type TableRepository interface {
	// Name identifies the source in logs and reports.
	Name() string

	// Load reads the whole source. Rows may be ragged; a missing cell reads as "".
	Load(ctx context.Context) (*model.Table, error)
}
