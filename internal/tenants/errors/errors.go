package errors

import "errors"

var (
	ErrNotFound = errors.New("tenant not found")

	ErrInvalidID = errors.New("invalid tenant ID format")

	ErrDuplicateBooking = errors.New("tenant already exists for booking")

	ErrStatusChanged = errors.New("tenant status changed concurrently")

	ErrUserNotFound = errors.New("user not found")
)
