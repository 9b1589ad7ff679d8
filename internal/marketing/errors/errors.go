package errors

import "errors"

var (
	ErrMissingTenant = errors.New("tenant id is required")

	ErrChannelNotFound = errors.New("channel not found")

	ErrAdminNotFound = errors.New("admin not found")

	ErrTenantNotFound = errors.New("tenant not found")

	ErrInvalidID = errors.New("invalid channel ID format")
)
