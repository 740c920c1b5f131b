package model

import "fmt"

// ValidationError signals malformed input to a create/update operation,
// e.g. an unrecognized status or action type.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NotFoundError signals that a referenced document id does not resolve.
type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s/%s not found", e.Collection, e.ID)
}

// PersistenceError wraps an underlying store read/write failure
// (network, permission, quota). It is propagated, not retried.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
