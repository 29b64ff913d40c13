package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrStatusChanged means the compare-and-set on status matched nothing:
	// another writer moved the booking first or it was soft deleted.
	ErrStatusChanged = errors.New("booking status changed concurrently")
)
