package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("entity already exists")

	// ErrConflict is returned when a transaction lost a write conflict and may
	// be retried from the beginning.
	ErrConflict = errors.New("transaction conflict")

	// ErrTxAborted is returned when a transaction kept conflicting until the
	// retry budget ran out.
	ErrTxAborted = errors.New("transaction aborted after retries")
)
