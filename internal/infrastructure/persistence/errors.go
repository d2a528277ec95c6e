// Package persistence stores encrypted key material so test users survive
// across CLI sessions: one JSON file per account on disk, or one redis key
// per account for stores shared between machines.
package persistence

import (
	"errors"
	"fmt"
)

// NotFoundError is returned when no key is stored for an address.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no key stored for %s", e.Key)
}

// ShouldSilenceUsage implements common.SilenceUsageError.
func (e *NotFoundError) ShouldSilenceUsage() bool { return true }

// IsNotFound returns true if err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// StoreError wraps a backend failure with the operation and the file or
// redis key it touched.
type StoreError struct {
	Op       string // "save", "load", "list" or "delete"
	Location string
	Err      error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("key store %s %s: %v", e.Op, e.Location, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
