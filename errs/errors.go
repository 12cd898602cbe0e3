// Package errs holds the error taxonomy shared by the store, audit, tree and graph packages.
package errs

import (
	"database/sql"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested id or unique key is absent.
	ErrNotFound = errors.New("repository: record not found")

	// ErrInvalidQuery is returned when request supplied pagination, sort or filter values are malformed.
	ErrInvalidQuery = errors.New("repository: invalid query")

	// ErrCyclicReference is returned when a parent or relation change would create a cycle.
	ErrCyclicReference = errors.New("repository: cyclic reference")

	// ErrInternal matches any wrapped store level failure.
	ErrInternal = errors.New("repository: internal error")
)

// StoreError wraps a driver error with the operation and entity that produced it.
type StoreError struct {
	Op     string
	Entity string
	Err    error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is reports wrapped driver failures as ErrInternal. Typed conditions
// (not found, invalid query, cycles) keep their own identity.
func (e *StoreError) Is(target error) bool {
	if target != ErrInternal {
		return false
	}
	return !errors.Is(e.Err, ErrNotFound) &&
		!errors.Is(e.Err, ErrInvalidQuery) &&
		!errors.Is(e.Err, ErrCyclicReference)
}

// Wrap annotates err with op and entity. It maps sql.ErrNoRows to ErrNotFound
// and never wraps twice.
func Wrap(op, entity string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
	}
	return &StoreError{Op: op, Entity: entity, Err: err}
}

// IsNotFound reports whether err signals a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}
