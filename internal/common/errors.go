// Package common defines shared constants and sentinel errors used across
// the tasklist server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors. Each sentinel maps to exactly one HTTP status
	// at the transport edge.
	ErrBadRequest      = errors.New("bad request")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrInternal        = errors.New("internal error")
	ErrTooManyRequests = errors.New("too many requests")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrReissueTooEarly     = errors.New("not yet eligible to renew")

	// Verification-code errors.
	ErrInvalidVerificationCode = errors.New("invalid verification code")
)
