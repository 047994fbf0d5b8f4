package model

import "errors"

// Common errors used across the application
var (
	// User errors
	ErrUserNotFound = errors.New("user not found")

	// Credential errors
	ErrCredentialNotFound = errors.New("credential not found")

	// Hand errors
	ErrHandNotFound = errors.New("hand not found")

	// Card errors
	ErrInvalidCard = errors.New("invalid card")
)
