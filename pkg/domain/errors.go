package domain

import "errors"

// Failure taxonomy. Business-rule violations are typed so the transport layer
// can surface them; persistence failures pass through wrapped and untyped.
var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrValidation        = errors.New("validation failed")
)
