package columns

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingColumns is matched by *MissingColumnsError via errors.Is.
var ErrMissingColumns = errors.New("required columns missing")

// MissingColumnsError names the unresolved required keys and the columns
// that were actually present, so the operator can fix the source file.
type MissingColumnsError struct {
	Missing []Key
	Found   []string
}

func (e *MissingColumnsError) Error() string {
	missing := make([]string, len(e.Missing))
	for i, k := range e.Missing {
		missing[i] = fmt.Sprintf("%q", string(k))
	}
	found := make([]string, len(e.Found))
	for i, c := range e.Found {
		found[i] = fmt.Sprintf("%q", c)
	}
	return fmt.Sprintf("spreadsheet must contain columns matching %s; columns found in your file: [%s]",
		strings.Join(missing, ", "), strings.Join(found, ", "))
}

// Is makes errors.Is(err, ErrMissingColumns) hold.
func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrMissingColumns
}

// MissingNames returns the missing keys as strings.
func (e *MissingColumnsError) MissingNames() []string {
	out := make([]string, len(e.Missing))
	for i, k := range e.Missing {
		out[i] = string(k)
	}
	return out
}
