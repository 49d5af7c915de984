package registration

import (
	"fmt"
	"strings"
)

// ValidationError reports which registration fields were missing or bad.
type ValidationError struct {
	Missing []string
	Reason  string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return "missing fields: " + strings.Join(e.Missing, ", ")
	}
	return e.Reason
}

// DirectoryError wraps a failure from the external user directory. The
// admin clicking an approval link is trusted, so the underlying detail is
// surfaced rather than hidden.
type DirectoryError struct {
	Op  string
	Err error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("directory %s: %v", e.Op, e.Err)
}

func (e *DirectoryError) Unwrap() error { return e.Err }
