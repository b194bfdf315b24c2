package access

import "errors"

// Sentinel errors for this package.
var (
	ErrInvalidIdentity = errors.New("invalid identity")
	ErrNotInTeam       = errors.New("member is not in the leader's team")
)
