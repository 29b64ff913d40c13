package validator

import (
	"roomly/pkg/logger"
	"roomly/pkg/model"
	"roomly/pkg/validation"
	"time"

	"github.com/go-playground/validator/v10"
)

type TenantValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewTenantValidator(log *logger.Logger) *TenantValidator {
	return &TenantValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *TenantValidator) ValidateTerminate(req *model.TerminateRequest) error {
	return validation.Struct(v.validate, req)
}

// ValidateExtend checks that the new lease end moves the current one forward.
func (v *TenantValidator) ValidateExtend(req *model.ExtendRequest, current time.Time) error {
	if err := validation.Struct(v.validate, req); err != nil {
		return err
	}
	if !req.LeaseEndDate.After(current) {
		return validation.ValidationErrors{{
			Field:   "LeaseEndDate",
			Message: "lease_end_date must be after the current lease end " + current.Format(time.DateOnly),
		}}
	}
	return nil
}
