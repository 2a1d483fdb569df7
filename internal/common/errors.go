// Package common defines shared helpers and the closed set of tagged errors
// used across gatekeeper components. Callers should use errors.Is to match
// these values; the Code field is mapped to a transport status exactly once
// at the boundary.
package common

// Error is a tagged error variant. The set of values below is closed: every
// component failure surfaces as one of them, with infrastructure details kept
// out of the message (server-side logs only).
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	// Repository-level errors.
	ErrNotFound       = &Error{Code: "NOT_FOUND", Message: "not found"}
	ErrDuplicateEmail = &Error{Code: "DUPLICATE_EMAIL", Message: "email already registered"}

	// Credential errors. Unknown user and wrong password are deliberately
	// indistinguishable to the caller.
	ErrInvalidCredentials = &Error{Code: "INVALID_CREDENTIALS", Message: "invalid email or password"}

	// Token lifecycle errors.
	ErrInvalidSignature = &Error{Code: "INVALID_SIGNATURE", Message: "token signature verification failed"}
	ErrExpiredToken     = &Error{Code: "EXPIRED_TOKEN", Message: "token expired"}
	ErrTokenRevoked     = &Error{Code: "TOKEN_REVOKED", Message: "token revoked"}

	// Request-processing errors.
	ErrRateLimited  = &Error{Code: "RATE_LIMITED", Message: "too many requests"}
	ErrUnauthorized = &Error{Code: "UNAUTHORIZED", Message: "authentication required"}
	ErrForbidden    = &Error{Code: "FORBIDDEN", Message: "insufficient role"}

	// Generic flow control. Store and driver failures are masked as this.
	ErrInternal = &Error{Code: "INTERNAL", Message: "internal error"}
)
