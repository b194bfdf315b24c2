package dataset

import "errors"

// Sentinel errors for this package.
var (
	ErrInvalidDataset = errors.New("invalid dataset")
)
