package timeline

import "errors"

// Sentinel errors for this package.
var (
	ErrNoDate      = errors.New("no date")
	ErrInvalidDate = errors.New("invalid date")
)
