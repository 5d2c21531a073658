package registry

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched (via errors.Is) by every lookup of an absent identifier.
var ErrNotFound = errors.New("record not found")

// NotFoundError reports which record kind and identifier were missing.
type NotFoundError struct {
	Kind string
	ID   ID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d: %s", e.Kind, e.ID, ErrNotFound)
}

// Is makes errors.Is(err, ErrNotFound) true.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsNotFound reports whether err is (or wraps) a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
