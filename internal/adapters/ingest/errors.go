package ingest

import "errors"

// Sentinel errors for this package. All of them are fatal to a run.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrCorruptFile       = errors.New("unreadable or corrupt file")
	ErrEmptyFile         = errors.New("file has no data")
	ErrTooManyRows       = errors.New("file exceeds the row limit")
	ErrInvalidURI        = errors.New("invalid object URI")
)
