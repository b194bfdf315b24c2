package columns

import (
	"math"
	"strings"

	"github.com/okian/onbscore/internal/domain/dataset"
)

var truthy = map[string]struct{}{
	"1": {}, "true": {}, "yes": {}, "y": {}, "sim": {}, "s": {}, "x": {}, "ok": {}, "verdadeiro": {},
}

// Record is a row read through a column map. Every accessor returns its
// typed default both when the key did not resolve and when the cell is empty.
type Record struct {
	row dataset.Row
	m   Map
}

// Record binds row to m.
func (m Map) Record(row dataset.Row) Record {
	return Record{row: row, m: m}
}

// Row returns the underlying dataset row.
func (r Record) Row() dataset.Row { return r.row }

// Index is the source index of the underlying row.
func (r Record) Index() int { return r.row.Index() }

// Value returns the raw cell for k.
func (r Record) Value(k Key) (dataset.Value, bool) {
	col, ok := r.m.Column(k)
	if !ok {
		return dataset.Empty(), false
	}
	v, ok := r.row.Value(col)
	if !ok || v.IsEmpty() {
		return dataset.Empty(), false
	}
	return v, true
}

// Present reports whether k resolved and its cell is non-empty.
func (r Record) Present(k Key) bool {
	_, ok := r.Value(k)
	return ok
}

// Text returns the trimmed cell text.
func (r Record) Text(k Key) string {
	v, _ := r.Value(k)
	return strings.TrimSpace(v.String())
}

// Number returns the cell as a float. Non-numeric content reads as 0.
func (r Record) Number(k Key) float64 {
	v, ok := r.Value(k)
	if !ok {
		return 0
	}
	f, ok := v.Float()
	if !ok {
		return 0
	}
	return f
}

// NumberOK is Number with an explicit parse result.
func (r Record) NumberOK(k Key) (float64, bool) {
	v, ok := r.Value(k)
	if !ok {
		return 0, false
	}
	return v.Float()
}

// Int returns the cell floored to an integer and clamped at 0.
func (r Record) Int(k Key) int {
	f := math.Floor(r.Number(k))
	if f <= 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

// Flag interprets the cell as a boolean signal.
func (r Record) Flag(k Key) bool {
	v, ok := r.Value(k)
	if !ok {
		return false
	}
	switch v.Kind() {
	case dataset.KindNumber:
		f, _ := v.Float()
		return f > 0
	case dataset.KindDate:
		return true
	}
	s := strings.ToLower(strings.TrimSpace(v.String()))
	if _, ok := truthy[s]; ok {
		return true
	}
	if f, ok := dataset.ParseNumber(s); ok {
		return f > 0
	}
	return false
}

// Date returns the raw cell for a date-valued key; parsing is left to the
// caller so that parse failures can be reported distinctly from absence.
func (r Record) Date(k Key) dataset.Value {
	v, _ := r.Value(k)
	return v
}
