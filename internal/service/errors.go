package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// Callers check them with errors.Is; the API layer maps them to HTTP status codes.
var (
	// ErrInvalidCredentials indicates an unknown username or a wrong password.
	// Both cases share one error so callers cannot probe for usernames.
	// API layer should map this to HTTP 400 with a fixed message.
	ErrInvalidCredentials = errors.New("invalid username or password")
)
