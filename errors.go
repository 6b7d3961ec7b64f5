package press

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when a publication trigger carries the
	// wrong secret or a credential check fails.
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	// ErrForbidden is returned when a user acts on another user's print.
	ErrForbidden = errors.New("forbidden")
	// ErrPublished is returned when editing or deleting a published print.
	ErrPublished  = errors.New("print already published")
	ErrSelfFollow = errors.New("cannot follow yourself")
	ErrConflict   = errors.New("email or username already taken")
	ErrInvalid    = errors.New("invalid input")
)

// invalid wraps ErrInvalid with a user-facing message.
func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
