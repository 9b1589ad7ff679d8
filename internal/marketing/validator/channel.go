package validator

import (
	"errors"
	"fmt"

	"clinicops/pkg/model"
	"clinicops/pkg/sanitizer"

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

type ChannelValidator struct {
	validate *validator.Validate
}

func NewChannelValidator() *ChannelValidator {
	return &ChannelValidator{
		validate: validator.New(),
	}
}

func (v *ChannelValidator) Validate(input *model.ChannelInput) error {
	if err := v.validate.Struct(input); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return v.validateBusinessRules(input)
}

func (v *ChannelValidator) ValidateBudget(amount float64) error {
	if amount < 0 {
		return ValidationErrors{{Field: "budget", Message: "budget cannot be negative"}}
	}
	return nil
}

func (v *ChannelValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
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
		case "gte":
			message = fmt.Sprintf("must be at least %s", err.Param())
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

func (v *ChannelValidator) validateBusinessRules(input *model.ChannelInput) error {
	if sanitizer.SanitizeChannelLabel(input.Name) == "" {
		return ValidationErrors{{
			Field:   "name",
			Message: "must contain at least one letter or digit",
		}}
	}
	return nil
}
