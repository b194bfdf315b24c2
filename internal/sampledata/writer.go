package sampledata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/okian/onbscore/internal/domain/dataset"
)

// ErrUnsupportedExtension is returned by WriteFile for unknown file types.
var ErrUnsupportedExtension = errors.New("unsupported output extension")

const sheetName = "Onboarding"

// WriteFile writes ds to path as .xlsx or .csv depending on the extension.
func WriteFile(path string, ds *dataset.Dataset) (err error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".csv" {
		return fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if ext == ".csv" {
		return WriteCSV(f, ds)
	}
	return WriteXLSX(f, ds)
}

// WriteXLSX writes ds as a single-sheet workbook. Date cells become Excel
// dates, numbers stay numeric and empty cells are left blank.
func WriteXLSX(w io.Writer, ds *dataset.Dataset) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, 0, len(ds.Columns()))
	for _, c := range ds.Columns() {
		header = append(header, c)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range ds.Rows() {
		cells := r.Cells()
		values := make([]interface{}, len(cells))
		for j, v := range cells {
			values[j] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cellValue(v dataset.Value) interface{} {
	switch v.Kind() {
	case dataset.KindNumber:
		f, _ := v.Float()
		return f
	case dataset.KindDate:
		t, _ := v.Time()
		return t
	case dataset.KindText:
		return v.String()
	default:
		return nil
	}
}

// WriteCSV writes ds as comma-separated text; dates use 2006-01-02.
func WriteCSV(w io.Writer, ds *dataset.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Columns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range ds.Rows() {
		cells := r.Cells()
		rec := make([]string, len(cells))
		for j, v := range cells {
			rec[j] = v.String()
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
