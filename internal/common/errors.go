// Package common defines shared constants and sentinel errors used across
// the service layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound       = errors.New("not found")
	ErrorDuplicateEmail = errors.New("email already registered")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorInvalidInput = errors.New("invalid input")

	// Credential errors. Deliberately does not distinguish unknown email
	// from wrong password.
	ErrorInvalidCredentials = errors.New("invalid credentials")

	// Token lifecycle errors.
	ErrTokenInvalid  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrWrongPurpose  = errors.New("token purpose mismatch")
	ErrTokenConsumed = errors.New("token already used")

	// Soft failure: the triggering operation succeeded but the outbound
	// notification did not.
	ErrNotificationFailure = errors.New("notification failure")
)
