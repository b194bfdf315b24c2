package dataset

import "fmt"

// header is shared by a dataset and every dataset derived from it.
type header struct {
	names []string
	index map[string]int
}

func newHeader(columns []string) *header {
	h := &header{
		names: append([]string(nil), columns...),
		index: make(map[string]int, len(columns)),
	}
	for i, name := range columns {
		// first occurrence wins for duplicated headers
		if _, exists := h.index[name]; !exists {
			h.index[name] = i
		}
	}
	return h
}

// Row is one record of a dataset. Rows are read-only.
type Row struct {
	index  int
	header *header
	cells  []Value
}

// Index is the row's position among the source file's data rows (0-based).
func (r Row) Index() int { return r.index }

// Value returns the cell under column. ok is false when the column does not exist.
func (r Row) Value(column string) (Value, bool) {
	if r.header == nil {
		return Value{}, false
	}
	i, ok := r.header.index[column]
	if !ok {
		return Value{}, false
	}
	return r.cells[i], true
}

// Cells returns a copy of the row's cells in column order.
func (r Row) Cells() []Value {
	return append([]Value(nil), r.cells...)
}

// Map returns the row as column -> value.
func (r Row) Map() map[string]Value {
	if r.header == nil {
		return map[string]Value{}
	}
	m := make(map[string]Value, len(r.cells))
	for i, name := range r.header.names {
		if _, dup := m[name]; dup {
			continue
		}
		m[name] = r.cells[i]
	}
	return m
}

// Dataset is an ordered, immutable collection of rows sharing one column set.
type Dataset struct {
	header *header
	rows   []Row
	pos    map[int]int // source index -> position in rows
}

// New builds a dataset. Short records are padded with empty cells and cells
// beyond the header are dropped, so every row has exactly len(columns) cells.
func New(columns []string, records [][]Value) (*Dataset, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: no columns", ErrInvalidDataset)
	}
	h := newHeader(columns)
	rows := make([]Row, len(records))
	for i, rec := range records {
		cells := make([]Value, len(columns))
		copy(cells, rec)
		rows[i] = Row{index: i, header: h, cells: cells}
	}
	return build(h, rows), nil
}

func build(h *header, rows []Row) *Dataset {
	pos := make(map[int]int, len(rows))
	for i, r := range rows {
		pos[r.index] = i
	}
	return &Dataset{header: h, rows: rows, pos: pos}
}

// Columns returns the column names in source order.
func (d *Dataset) Columns() []string {
	return append([]string(nil), d.header.names...)
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Rows returns the rows in order. The slice is a copy; rows themselves are immutable.
func (d *Dataset) Rows() []Row {
	return append([]Row(nil), d.rows...)
}

// Row looks a row up by its source index.
func (d *Dataset) Row(index int) (Row, bool) {
	i, ok := d.pos[index]
	if !ok {
		return Row{}, false
	}
	return d.rows[i], true
}

// Subset derives a dataset holding rows, keeping this dataset's columns.
// Rows must come from this dataset or one derived from the same source.
func (d *Dataset) Subset(rows []Row) *Dataset {
	return build(d.header, append([]Row(nil), rows...))
}

// Filter derives a dataset with the rows for which keep returns true, in order.
func (d *Dataset) Filter(keep func(Row) bool) *Dataset {
	out := make([]Row, 0, len(d.rows))
	for _, r := range d.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return build(d.header, out)
}
