package service

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a canonical stage, mapping or definition does
// not exist.
var ErrNotFound = errors.New("not found")

// ValidationError rejects an invalid write synchronously; nothing is
// persisted when one is returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
