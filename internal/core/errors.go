// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
	ErrTokenInvalid = errors.New("token invalid")
)

// AppError carries the HTTP status and machine readable code that a
// handler should answer with, while still wrapping the underlying cause.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Code       string
}

func NewAppError(err error, message string, status int, code string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: status,
		Code:       code,
	}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func UnauthorizedError(message string) *AppError {
	if message == "" {
		message = "Unauthorized"
	}
	return NewAppError(ErrUnauthorized, message, http.StatusUnauthorized, "UNAUTHORIZED")
}

func ForbiddenError(message string) *AppError {
	if message == "" {
		message = "forbidden"
	}
	return NewAppError(ErrForbidden, message, http.StatusForbidden, "FORBIDDEN")
}

func NotFoundError(resource string) *AppError {
	return NewAppError(
		ErrNotFound,
		resource+" not found",
		http.StatusNotFound,
		"NOT_FOUND",
	)
}

func DuplicateError(field string) *AppError {
	return NewAppError(
		ErrDuplicateKey,
		field+" already exists",
		http.StatusConflict,
		"DUPLICATE",
	)
}

func TokenExpiredError() *AppError {
	return NewAppError(ErrTokenExpired, "token has expired", http.StatusUnauthorized, "TOKEN_EXPIRED")
}

func TokenRevokedError() *AppError {
	return NewAppError(ErrTokenRevoked, "token has been revoked", http.StatusUnauthorized, "TOKEN_REVOKED")
}

func TokenInvalidError() *AppError {
	return NewAppError(ErrTokenInvalid, "invalid token", http.StatusUnauthorized, "TOKEN_INVALID")
}
