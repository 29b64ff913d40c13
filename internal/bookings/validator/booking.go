package validator

import (
	"roomly/pkg/logger"
	"roomly/pkg/model"
	"roomly/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	if err := v.RegisterValidation("booking_status", validateBookingStatus); err != nil {
		log.Fatal("Failed to register 'booking_status' validator",
			"error", err,
		)
	}

	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

func validateBookingStatus(fl validator.FieldLevel) bool {
	status, ok := fl.Field().Interface().(model.BookingStatus)
	return ok && status.IsValid()
}

// Validate checks a booking submitted for creation. Nested snapshot and
// payment structs are validated through their own tags.
func (v *BookingValidator) Validate(booking *model.Booking) error {
	if err := validation.Struct(v.validate, booking); err != nil {
		return err
	}

	if booking.UserID == booking.OwnerID {
		return validation.ValidationErrors{{
			Field:   "OwnerID",
			Message: "a seeker cannot book their own property",
		}}
	}

	return nil
}

func (v *BookingValidator) ValidateStatusUpdate(req *model.StatusUpdateRequest) error {
	return validation.Struct(v.validate, req)
}

func (v *BookingValidator) ValidateCancel(req *model.CancelRequest) error {
	return validation.Struct(v.validate, req)
}
