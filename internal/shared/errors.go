package shared

import "errors"

var (
	// ErrNotFound indicates a lookup miss.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a duplicate record or a duplicate active workflow run.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized indicates bad credentials or an invalid/expired token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation indicates a missing or malformed required field.
	ErrValidation = errors.New("validation failed")
	// ErrUpstream indicates a network, storage or provider failure.
	ErrUpstream = errors.New("upstream failure")
)
