package errors

import (
	"fmt"
)

// ErrNotTracked is returned when an operation requires a tracked site but the
// site has no tracked record in the remote store.
var ErrNotTracked = New("site is not tracked")

// MissingFieldError represents a missing required field.
type MissingFieldError struct {
	Field string
}

func (err MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", err.Field)
}

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}

// UnknownBackendError is returned when the configured remote store backend
// isn't one that sitesync knows how to open.
type UnknownBackendError struct {
	Backend string
}

func (err UnknownBackendError) Error() string {
	return fmt.Sprintf("unknown remote backend %q", err.Backend)
}
