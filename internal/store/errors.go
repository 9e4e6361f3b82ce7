// internal/store/errors.go
package store

import "errors"

// ErrValidation marks bad user input (empty title, unknown status). The
// command layer turns it into a user-visible reply; it is never fatal.
var ErrValidation = errors.New("validation failed")

// ErrNotFound marks an unknown task or note ID.
var ErrNotFound = errors.New("not found")
