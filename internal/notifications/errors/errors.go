package errors

import "errors"

var (
	ErrDuplicateEvent = errors.New("notification already stored for event")

	ErrUnknownEventType = errors.New("unknown booking event type")
)
