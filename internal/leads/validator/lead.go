package validator

import (
	"errors"
	"fmt"

	"clinicops/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	return fmt.Sprintf("validation failed: %d error(s)", len(v))
}

type LeadValidator struct {
	validate *validator.Validate
}

func NewLeadValidator() *LeadValidator {
	return &LeadValidator{
		validate: validator.New(),
	}
}

func (v *LeadValidator) Validate(lead *model.Lead) error {
	if err := v.validate.Struct(lead); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *LeadValidator) ValidateUpdate(update *model.LeadUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		var message string
		switch err.Tag() {
		case "required":
			message = "is required"
		case "min":
			message = fmt.Sprintf("must be at least %s characters", err.Param())
		case "max":
			message = fmt.Sprintf("must be at most %s characters", err.Param())
		case "gt":
			message = fmt.Sprintf("must be greater than %s", err.Param())
		case "e164":
			message = "must be a valid international phone number"
		case "mongodb":
			message = "must be a valid object id"
		default:
			message = fmt.Sprintf("failed %s validation", err.Tag())
		}
		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
