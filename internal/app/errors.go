package service

import (
	"errors"

	"github.com/okian/onbscore/internal/adapters/ingest"
)

var (
	ErrNotStarted     = errors.New("service not started")
	ErrUploadTooLarge = errors.New("upload too large")
)

// failureReason labels an ingest error for the load failure metric.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ingest.ErrCorruptFile):
		return "corrupt_file"
	case errors.Is(err, ingest.ErrEmptyFile):
		return "empty_file"
	case errors.Is(err, ingest.ErrTooManyRows):
		return "too_many_rows"
	default:
		return "other"
	}
}
