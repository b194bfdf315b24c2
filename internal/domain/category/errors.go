package category

import "errors"

// Sentinel errors for this package.
var (
	ErrNoDataset     = errors.New("no dataset")
	ErrUnknownBucket = errors.New("unknown bucket")
)
