// AngelaMos | 2026
// errors_test.go

package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", fmt.Errorf("get: %w", sql.ErrNoRows), ErrNotFound},
		{"duplicate", &pgconn.PgError{Code: "23505"}, ErrDuplicateKey},
		{"check violation", &pgconn.PgError{Code: "23514"}, ErrInvalidInput},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, ErrServiceUnavailable},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), ErrServiceUnavailable},
		{"sentinel passthrough", fmt.Errorf("approve: %w", ErrAlreadyDecided), ErrAlreadyDecided},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Classify(tt.err), tt.want)
		})
	}

	assert.NoError(t, Classify(nil))
}

func TestToAppErrorStatusCodes(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{NewInputError("band", "unknown band"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{fmt.Errorf("login: %w", ErrAuthentication), http.StatusUnauthorized, "AUTHENTICATION_FAILED"},
		{fmt.Errorf("login: %w", ErrAccountPaused), http.StatusUnauthorized, "ACCOUNT_PAUSED"},
		{fmt.Errorf("approve: %w", ErrForbidden), http.StatusForbidden, "FORBIDDEN"},
		{fmt.Errorf("get: %w", ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("approve: %w", ErrAlreadyDecided), http.StatusConflict, "ALREADY_DECIDED"},
		{fmt.Errorf("ping: %w", ErrServiceUnavailable), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{fmt.Errorf("reset: %w", ErrRateLimited), http.StatusTooManyRequests, "RATE_LIMITED"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			appErr := ToAppError(tt.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.status, appErr.StatusCode)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}

	assert.Nil(t, ToAppError(errors.New("boom")))
}

func TestInputErrorMessage(t *testing.T) {
	appErr := ToAppError(fmt.Errorf("submit: %w", NewInputError("transaction_ref", "transaction reference is required")))
	require.NotNil(t, appErr)
	assert.Equal(t, "transaction reference is required", appErr.Message)
}

func TestErrorRendersReloadForUnknown(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reload":true`)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestPaginatedMeta(t *testing.T) {
	rec := httptest.NewRecorder()
	Paginated(rec, []string{"a"}, 2, 10, 21)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_pages":3`)
}
