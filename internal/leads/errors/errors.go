package errors

import "errors"

var (
	ErrMissingTenant = errors.New("tenant id is required")

	ErrNotFound = errors.New("lead not found")

	ErrInvalidID = errors.New("invalid lead ID format")
)
