// Package ingest reads uploaded onboarding spreadsheets (xlsx or csv) into
// an immutable dataset.
package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/okian/onbscore/internal/domain/dataset"
)

// Format is a supported source file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// DefaultMaxRows bounds the number of data rows read from one file.
const DefaultMaxRows = 50000

const utf8BOM = "\ufeff"

// DetectFormat picks the format from the file name's extension.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(name))) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// Option configures a read.
type Option func(*options)

type options struct {
	maxRows int
	sheet   string
}

// WithMaxRows sets the data row ceiling; values <= 0 keep the default.
func WithMaxRows(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxRows = n
		}
	}
}

// WithSheet reads the named sheet instead of the first one.
func WithSheet(name string) Option {
	return func(o *options) {
		o.sheet = strings.TrimSpace(name)
	}
}

// Result is a successfully read file.
type Result struct {
	Dataset     *dataset.Dataset
	Format      Format
	Sheet       string
	BlankRows   int
	SourceBytes int64
}

// Read parses r as the format implied by name. Fully blank rows are skipped.
func Read(ctx context.Context, name string, r io.Reader, opts ...Option) (*Result, error) {
	o := options{maxRows: DefaultMaxRows}
	for _, opt := range opts {
		opt(&o)
	}
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}

	cr := &countingReader{r: r}
	var res *Result
	switch format {
	case FormatXLSX:
		res, err = readXLSX(ctx, cr, o)
	default:
		res, err = readCSV(ctx, cr, o)
	}
	if err != nil {
		return nil, err
	}
	res.Format = format
	res.SourceBytes = cr.n
	return res, nil
}

// ReadFile reads a local file.
func ReadFile(ctx context.Context, path string, opts ...Option) (*Result, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return Read(ctx, path, f, opts...)
}

func readXLSX(ctx context.Context, r io.Reader, o options) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}
	defer func() { _ = f.Close() }()

	sheet := o.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", ErrEmptyFile)
		}
		sheet = sheets[0]
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %v", ErrCorruptFile, sheet, err)
	}
	defer func() { _ = rows.Close() }()

	b := newBuilder(o.maxRows)
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
		}
		if err := b.add(cols, typedCell); err != nil {
			return nil, err
		}
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}

	res, err := b.build()
	if err != nil {
		return nil, err
	}
	res.Sheet = sheet
	return res, nil
}

func readCSV(ctx context.Context, r io.Reader, o options) (*Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	b := newBuilder(o.maxRows)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
		}
		if b.header == nil && len(rec) > 0 {
			rec[0] = strings.TrimPrefix(rec[0], utf8BOM)
		}
		if err := b.add(rec, textCell); err != nil {
			return nil, err
		}
	}
	return b.build()
}

// typedCell maps a raw xlsx cell: finite numerals become numbers, the rest
// text. "NaN" and "Inf" spellings stay text.
func typedCell(s string) dataset.Value {
	t := strings.TrimSpace(s)
	if t == "" {
		return dataset.Empty()
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return dataset.Number(f)
	}
	return dataset.Text(s)
}

func textCell(s string) dataset.Value {
	return dataset.Text(s)
}

// builder accumulates a header row and data rows.
type builder struct {
	maxRows int
	header  []string
	records [][]dataset.Value
	blank   int
}

func newBuilder(maxRows int) *builder {
	return &builder{maxRows: maxRows}
}

func (b *builder) add(cells []string, conv func(string) dataset.Value) error {
	if isBlank(cells) {
		if b.header != nil {
			b.blank++
		}
		return nil
	}
	if b.header == nil {
		b.header = headerNames(cells)
		return nil
	}
	if len(b.records) >= b.maxRows {
		return fmt.Errorf("%w: more than %d rows", ErrTooManyRows, b.maxRows)
	}
	rec := make([]dataset.Value, len(cells))
	for i, c := range cells {
		rec[i] = conv(c)
	}
	b.records = append(b.records, rec)
	return nil
}

func (b *builder) build() (*Result, error) {
	if b.header == nil {
		return nil, fmt.Errorf("%w: no header row", ErrEmptyFile)
	}
	ds, err := dataset.New(b.header, b.records)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmptyFile, err)
	}
	return &Result{Dataset: ds, BlankRows: b.blank}, nil
}

// headerNames drops trailing blank headers and names interior blanks by
// position so every column stays addressable.
func headerNames(cells []string) []string {
	end := len(cells)
	for end > 0 && strings.TrimSpace(cells[end-1]) == "" {
		end--
	}
	out := make([]string, end)
	for i := 0; i < end; i++ {
		if strings.TrimSpace(cells[i]) == "" {
			out[i] = "unnamed_" + strconv.Itoa(i+1)
			continue
		}
		out[i] = cells[i]
	}
	return out
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// ReadBytes is Read over an in-memory payload.
func ReadBytes(ctx context.Context, name string, data []byte, opts ...Option) (*Result, error) {
	return Read(ctx, name, bytes.NewReader(data), opts...)
}
