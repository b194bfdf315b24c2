// Package timeline turns onboarding window dates into remaining-day counts.
package timeline

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/okian/onbscore/internal/domain/dataset"
)

// Sentinels rendered instead of a day count.
const (
	NoDate      = "no date set"
	InvalidDate = "invalid date"
	Finished    = "Finalizado"
)

// Excel serial bounds: 1900-01-01 and 9999-12-31.
const (
	minSerial = 1
	maxSerial = 2958465
)

var layouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"01-02-2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02.01.2006",
}

// Parse reads a date from a cell: date cells as-is, numbers as Excel serial
// dates, text in any accepted layout (numeric text is a serial too).
func Parse(v dataset.Value) (time.Time, error) {
	switch v.Kind() {
	case dataset.KindEmpty:
		return time.Time{}, ErrNoDate
	case dataset.KindDate:
		t, _ := v.Time()
		return t, nil
	case dataset.KindNumber:
		f, _ := v.Float()
		return fromSerial(f)
	}

	s := strings.TrimSpace(v.String())
	if s == "" {
		return time.Time{}, ErrNoDate
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromSerial(f)
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func fromSerial(f float64) (time.Time, error) {
	if f < minSerial || f > maxSerial {
		return time.Time{}, fmt.Errorf("%w: serial %v out of range", ErrInvalidDate, f)
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	return t, nil
}

// Remaining is either a day count or a sentinel.
type Remaining struct {
	Days     int
	Sentinel string
}

// HasDays reports whether the result is a day count.
func (r Remaining) HasDays() bool { return r.Sentinel == "" }

func (r Remaining) String() string {
	if r.HasDays() {
		return strconv.Itoa(r.Days)
	}
	return r.Sentinel
}

// MarshalJSON renders a day count as a number and a sentinel as a string.
func (r Remaining) MarshalJSON() ([]byte, error) {
	if r.HasDays() {
		return json.Marshal(r.Days)
	}
	return json.Marshal(r.Sentinel)
}

// RemainingDays computes days from today until the date in v. Comparison is
// by calendar date; a target earlier than today is Finished. It never fails.
func RemainingDays(v dataset.Value, today time.Time) Remaining {
	t, err := Parse(v)
	switch {
	case err == nil:
	case v.IsEmpty():
		return Remaining{Sentinel: NoDate}
	default:
		return Remaining{Sentinel: InvalidDate}
	}

	target := dateOnly(t)
	now := dateOnly(today)
	if target.Before(now) {
		return Remaining{Sentinel: Finished}
	}
	return Remaining{Days: int(target.Sub(now).Hours() / 24)}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
