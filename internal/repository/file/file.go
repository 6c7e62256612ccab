package file

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"mediamap/internal/model"
	"mediamap/internal/repository"
)

type format int

const (
	formatCSV format = iota
	formatSpreadsheet
)

// TableFile reads a CSV or XLSX file from local disk.
type TableFile struct {
	path   string
	format format
	sheet  string
}

var _ repository.TableRepository = (*TableFile)(nil)

// Open validates path and its format without reading the rows, so a bad input
// is reported before any processing starts.
func Open(path string) (*TableFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", repository.ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", repository.ErrUnsupportedFormat, path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return &TableFile{path: path, format: formatCSV}, nil
	case ".xlsx", ".xlsm":
		return &TableFile{path: path, format: formatSpreadsheet}, nil
	default:
		return nil, fmt.Errorf("%w: %s", repository.ErrUnsupportedFormat, path)
	}
}

// WithSheet selects a worksheet by name. The first sheet is used otherwise.
func (f *TableFile) WithSheet(name string) *TableFile {
	f.sheet = name
	return f
}

// Name returns the file name.
func (f *TableFile) Name() string {
	return filepath.Base(f.path)
}

// Load reads every row of the file.
func (f *TableFile) Load(ctx context.Context) (*model.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch f.format {
	case formatSpreadsheet:
		return f.loadSpreadsheet()
	default:
		return f.loadCSV()
	}
}

func (f *TableFile) loadCSV() (*model.Table, error) {
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.path, err)
	}
	defer fh.Close()

	r := csv.NewReader(fh)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &model.Table{Name: f.Name()}, nil
		}
		return nil, fmt.Errorf("read header of %s: %w", f.path, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &model.Table{Name: f.Name(), Header: header}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.path, err)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func (f *TableFile) loadSpreadsheet() (*model.Table, error) {
	book, err := excelize.OpenFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.path, err)
	}
	defer book.Close()

	sheet := f.sheet
	if sheet == "" {
		sheet = book.GetSheetName(0)
	}
	rows, err := book.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q of %s: %w", sheet, f.path, err)
	}

	t := &model.Table{Name: f.Name()}
	if len(rows) == 0 {
		return t, nil
	}
	t.Header = rows[0]
	t.Rows = rows[1:]
	return t, nil
}
