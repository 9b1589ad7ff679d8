package errors

import "errors"

var (
	ErrMissingTenant = errors.New("tenant id is required")

	ErrNotFound = errors.New("booking record not found")

	ErrInvalidID = errors.New("invalid booking record ID format")

	ErrExamNotFound = errors.New("exam catalog entry not found")

	ErrPatientNotFound = errors.New("patient not found")

	ErrMissingResultLink = errors.New("result link is required to complete a record")
)
