package errors

import (
	"errors"

	apperrors "roomly/pkg/errors"
)

var (
	ErrNotFound = errors.New("room not found")

	ErrInvalidID = errors.New("invalid room ID format")
)

// ToAppError maps a room repository error onto the API error every flow
// reports for it. AppErrors pass through unchanged.
func ToAppError(roomID string, err error, internalMsg string) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return apperrors.NotFoundWithID("Room", roomID)
	case errors.Is(err, ErrInvalidID):
		return apperrors.InvalidInput("Invalid room ID format")
	case apperrors.IsAppError(err):
		return err
	default:
		return apperrors.Internal(internalMsg, err)
	}
}
