package userbase

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-errors"
)

// ErrInvalidCredentials covers every login failure shape: unknown identifier,
// wrong password, and accounts that are disabled, locked, or expired. The
// message is deliberately identical across all of them.
var ErrInvalidCredentials = errors.New("Invalid username or password", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("INVALID_CREDENTIALS")

// ErrTokenExpired is returned when a token's expiry is in the past
var ErrTokenExpired = errors.New("Authentication token has expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("TOKEN_EXPIRED")

// ErrTokenMalformed is returned for tokens that fail signature or structural checks
var ErrTokenMalformed = errors.New("Invalid authentication token", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("TOKEN_MALFORMED")

// ErrUnauthenticated is returned when a guarded route has no principal attached
var ErrUnauthenticated = errors.New("Authentication required", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("UNAUTHENTICATED")

// ErrForbidden is returned when a principal fails the route policy
var ErrForbidden = errors.New("You don't have permission to access this resource", errors.CategoryAuthz).
	WithCode(errors.CodeForbidden).
	WithTextCode("FORBIDDEN")

// NewNotFoundError builds the 404 error for a missing user record
func NewNotFoundError(format string, args ...any) *errors.Error {
	return errors.New(fmt.Sprintf(format, args...), errors.CategoryNotFound).
		WithCode(errors.CodeNotFound).
		WithTextCode("USER_NOT_FOUND")
}

// NewConflictError builds the duplicate username/email error. Conflicts map to
// 400 rather than 409 to keep the wire contract of the signup endpoint.
func NewConflictError(message string, field string) *errors.Error {
	return errors.New(message, errors.CategoryConflict).
		WithCode(errors.CodeBadRequest).
		WithTextCode("DUPLICATE_" + strings.ToUpper(field)).
		WithMetadata(map[string]any{"field": field})
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}

	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == "TOKEN_EXPIRED" {
		return true
	}

	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for tokens that failed signature or structural checks
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}

	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == "TOKEN_MALFORMED" {
		return true
	}

	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
