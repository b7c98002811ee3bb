// AngelaMos | 2026
// errors.go

package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrDuplicateKey       = errors.New("duplicate key")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrAuthentication     = errors.New("authentication failed")
	ErrForbidden          = errors.New("forbidden")
	ErrAccountPaused      = errors.New("account paused")
	ErrAlreadyDecided     = errors.New("subscription already decided")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrRateLimited        = errors.New("rate limited")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrTokenInvalid       = errors.New("token invalid")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Code       string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(err error, message string, statusCode int, code string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: statusCode,
		Code:       code,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func ValidationError(message string) *AppError {
	return NewAppError(ErrInvalidInput, message, http.StatusBadRequest, "VALIDATION_ERROR")
}

func AuthenticationError(message string) *AppError {
	return NewAppError(ErrAuthentication, message, http.StatusUnauthorized, "AUTHENTICATION_FAILED")
}

func UnauthorizedError(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return NewAppError(ErrUnauthorized, message, http.StatusUnauthorized, "UNAUTHORIZED")
}

func AccountPausedError() *AppError {
	return NewAppError(
		ErrAccountPaused,
		"this account has been paused",
		http.StatusUnauthorized,
		"ACCOUNT_PAUSED",
	)
}

func ForbiddenError(message string) *AppError {
	return NewAppError(ErrForbidden, message, http.StatusForbidden, "FORBIDDEN")
}

func NotFoundError(resource string) *AppError {
	return NewAppError(ErrNotFound, resource+" not found", http.StatusNotFound, "NOT_FOUND")
}

func AlreadyDecidedError() *AppError {
	return NewAppError(
		ErrAlreadyDecided,
		"subscription request has already been decided",
		http.StatusConflict,
		"ALREADY_DECIDED",
	)
}

func ServiceUnavailableError() *AppError {
	return NewAppError(
		ErrServiceUnavailable,
		"service temporarily unavailable, please retry",
		http.StatusServiceUnavailable,
		"SERVICE_UNAVAILABLE",
	)
}

func RateLimitedError(retryAfterSeconds int) *AppError {
	return NewAppError(
		ErrRateLimited,
		fmt.Sprintf("rate limit exceeded, retry after %d seconds", retryAfterSeconds),
		http.StatusTooManyRequests,
		"RATE_LIMITED",
	)
}

func DuplicateError(field string) *AppError {
	return NewAppError(ErrDuplicateKey, field+" already exists", http.StatusConflict, "DUPLICATE")
}

func TokenExpiredError() *AppError {
	return NewAppError(ErrTokenExpired, "token has expired", http.StatusUnauthorized, "TOKEN_EXPIRED")
}

func TokenRevokedError() *AppError {
	return NewAppError(ErrTokenRevoked, "token has been revoked", http.StatusUnauthorized, "TOKEN_REVOKED")
}

func TokenInvalidError() *AppError {
	return NewAppError(ErrTokenInvalid, "token is invalid", http.StatusUnauthorized, "TOKEN_INVALID")
}

// Classify maps driver level failures onto the sentinel taxonomy. Errors that
// already carry a sentinel pass through untouched.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	for _, known := range []error{
		ErrNotFound,
		ErrDuplicateKey,
		ErrInvalidInput,
		ErrAuthentication,
		ErrAccountPaused,
		ErrForbidden,
		ErrAlreadyDecided,
		ErrServiceUnavailable,
		ErrRateLimited,
	} {
		if errors.Is(err, known) {
			return err
		}
	}

	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
		case "22P02", "23514":
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		case "57P01", "57P03", "53300":
			return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
		}
		return err
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, sql.ErrConnDone) ||
		pgconn.Timeout(err) ||
		errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}

	return err
}

// ToAppError renders any error into the HTTP taxonomy. Unknown errors yield nil
// so callers fall back to a generic failure.
func ToAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	err = Classify(err)

	switch {
	case errors.Is(err, ErrInvalidInput):
		return ValidationError(unwrapMessage(err))
	case errors.Is(err, ErrAccountPaused):
		return AccountPausedError()
	case errors.Is(err, ErrAuthentication):
		return AuthenticationError("authentication failed")
	case errors.Is(err, ErrUnauthorized):
		return UnauthorizedError("")
	case errors.Is(err, ErrForbidden):
		return ForbiddenError("insufficient permissions")
	case errors.Is(err, ErrNotFound):
		return NotFoundError("resource")
	case errors.Is(err, ErrAlreadyDecided):
		return AlreadyDecidedError()
	case errors.Is(err, ErrDuplicateKey):
		return DuplicateError("resource")
	case errors.Is(err, ErrServiceUnavailable):
		return ServiceUnavailableError()
	case errors.Is(err, ErrRateLimited):
		return RateLimitedError(1)
	case errors.Is(err, ErrTokenExpired):
		return TokenExpiredError()
	case errors.Is(err, ErrTokenRevoked):
		return TokenRevokedError()
	case errors.Is(err, ErrTokenInvalid):
		return TokenInvalidError()
	}

	return nil
}

func unwrapMessage(err error) string {
	var inputErr *InputError
	if errors.As(err, &inputErr) {
		return inputErr.Reason
	}
	return "invalid input"
}

// InputError carries a user facing reason for a ValidationError.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

func NewInputError(field, reason string) error {
	return &InputError{Field: field, Reason: reason}
}
