// Package dataset holds the immutable tabular model built from an uploaded spreadsheet.
package dataset

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the dynamic type of a spreadsheet cell.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindText
	KindNumber
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "empty"
	}
}

// Value is a single cell. The zero Value is empty.
type Value struct {
	kind Kind
	text string
	num  float64
	date time.Time
}

// Empty returns the empty cell.
func Empty() Value { return Value{} }

// Text returns a text cell; blank strings collapse to Empty.
func Text(s string) Value {
	if strings.TrimSpace(s) == "" {
		return Value{}
	}
	return Value{kind: KindText, text: s}
}

// Number returns a numeric cell. NaN and infinities are kept as text so
// every numeric cell stays finite.
func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{kind: KindText, text: strconv.FormatFloat(f, 'f', -1, 64)}
	}
	return Value{kind: KindNumber, num: f}
}

// Date returns a date cell; the zero time collapses to Empty.
func Date(t time.Time) Value {
	if t.IsZero() {
		return Value{}
	}
	return Value{kind: KindDate, date: t}
}

// Kind reports the cell type.
func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether the cell holds nothing.
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// String renders the cell as text. Empty cells render as "".
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindDate:
		return v.date.Format("2006-01-02")
	default:
		return ""
	}
}

// Float interprets the cell as a number. Text cells are parsed leniently.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindText:
		return ParseNumber(v.text)
	default:
		return 0, false
	}
}

// Time returns the date of a date cell.
func (v Value) Time() (time.Time, bool) {
	if v.kind != KindDate {
		return time.Time{}, false
	}
	return v.date, true
}

// MarshalJSON renders empty cells as null, numbers as numbers and everything else as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindEmpty:
		return []byte("null"), nil
	case KindNumber:
		return json.Marshal(v.num)
	default:
		return json.Marshal(v.String())
	}
}

// ParseNumber parses spreadsheet numerals: surrounding blanks, a trailing
// percent sign and comma decimal separators ("1,5", "1.234,5") are accepted.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return 0, false
	}
	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot < 0:
		s = strings.ReplaceAll(s, ",", ".")
	case comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
