package apperrors

import "net/http"

// Factories and predefined values for the auth domain.

// ErrNotFound converts a repository miss into a 404.
func ErrNotFound(err error, message string) *AppError {
	return Wrap(err, CodeNotFound, "resource", message, http.StatusNotFound)
}

// ErrConflict converts a unique-constraint violation into a 409.
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// ErrEmailAlreadyExists is returned on registration with a taken email.
var ErrEmailAlreadyExists = New(
	CodeAlreadyExists,
	"auth",
	"Email already registered",
	http.StatusConflict,
)

// ErrInvalidCredentials is the uniform login failure. The same value is used
// for unknown emails and wrong passwords so responses carry no existence
// oracle.
var ErrInvalidCredentials = New(
	CodeUnauthorized,
	"auth",
	"Invalid credentials",
	http.StatusUnauthorized,
)

// ErrInvalidRefreshToken is the uniform refresh failure: unknown token, bad
// signature, expired, or a vanished user all look the same to the caller.
var ErrInvalidRefreshToken = New(
	CodeUnauthorized,
	"auth",
	"Invalid refresh token",
	http.StatusUnauthorized,
)

// ErrWeakPassword guards password mutations.
var ErrWeakPassword = New(
	CodeValidationFailed,
	"auth",
	"Password must be at least 8 characters",
	http.StatusBadRequest,
)

// ErrEmailAlreadyVerified is returned when a verification email is requested
// for an address that is already verified.
var ErrEmailAlreadyVerified = New(
	CodeValidationFailed,
	"auth",
	"Email is already verified",
	http.StatusBadRequest,
)
