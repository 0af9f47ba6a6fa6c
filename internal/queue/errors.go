package queue

import (
	"errors"
	"fmt"
)

// PersistenceError is a failure reading or writing the durable queue store
// itself.
//
// It is never retried by the queue: retrying blind writes against a possibly
// corrupt store is unsafe, so the current operation aborts and the error
// surfaces to the caller with the previously persisted list untouched.
type PersistenceError struct {
	Op  string // "load", "persist", "clear"
	Err error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("queue persistence: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying storage error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsPersistenceError reports whether err is (or wraps) a *PersistenceError.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
