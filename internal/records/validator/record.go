package validator

import (
	"errors"
	"fmt"
	"time"

	recorderrors "clinicops/internal/records/errors"
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

// RecordInput is the booking creation payload. Exam name, prices and the
// patient's channel are resolved server side, never taken from the caller.
type RecordInput struct {
	TenantID  int64     `json:"tenant_id" validate:"required,gt=0"`
	PatientID int64     `json:"patient_id" validate:"required,gt=0"`
	ExamID    int64     `json:"exam_id" validate:"required,gt=0"`
	DoctorID  int64     `json:"doctor_id,omitempty" validate:"omitempty,gt=0"`
	ExamDate  time.Time `json:"exam_date" validate:"required"`
	CreatedBy int64     `json:"created_by" validate:"required,gt=0"`
}

type RecordValidator struct {
	validate *validator.Validate
}

func NewRecordValidator() *RecordValidator {
	return &RecordValidator{
		validate: validator.New(),
	}
}

func (v *RecordValidator) ValidateInput(input *RecordInput) error {
	if err := v.validate.Struct(input); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

// ValidateUpdate checks the partial payload. Completing a record without a
// result link is rejected here so the repository never sees it.
func (v *RecordValidator) ValidateUpdate(update *model.RecordUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}

	if update.Status == model.StatusCompleted && update.ResultLink == "" {
		return recorderrors.ErrMissingResultLink
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
		case "gt":
			message = fmt.Sprintf("must be greater than %s", err.Param())
		case "oneof":
			message = fmt.Sprintf("must be one of: %s", err.Param())
		case "url":
			message = "must be a valid URL"
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
