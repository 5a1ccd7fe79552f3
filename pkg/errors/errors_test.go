package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorString(t *testing.T) {
	bare := &AppError{Code: "NOT_FOUND", Message: "transaction not found"}
	assert.Equal(t, "NOT_FOUND: transaction not found", bare.Error())

	wrapped := &AppError{Code: "INTERNAL_ERROR", Message: "stats refresh failed", Err: fmt.Errorf("pool exhausted")}
	assert.Contains(t, wrapped.Error(), "INTERNAL_ERROR")
	assert.Contains(t, wrapped.Error(), "stats refresh failed")
	assert.Contains(t, wrapped.Error(), "pool exhausted")
}

func TestAppError_UnwrapsToSentinel(t *testing.T) {
	appErr := &AppError{Code: "NOT_FOUND", Message: "gone", Err: ErrNotFound}
	assert.True(t, errors.Is(appErr, ErrNotFound))

	noInner := &AppError{Code: "X", Message: "y"}
	assert.Nil(t, noInner.Unwrap())
}

func TestConstructors(t *testing.T) {
	cases := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
		sentinel   error
		contains   []string
	}{
		{
			name:       "NotFound",
			err:        NotFound("transaction", "tx-9f4e"),
			wantCode:   "NOT_FOUND",
			wantStatus: http.StatusNotFound,
			sentinel:   ErrNotFound,
			contains:   []string{"transaction", "tx-9f4e"},
		},
		{
			name:       "AlreadyExists",
			err:        AlreadyExists("user", "email", "alice@example.com"),
			wantCode:   "ALREADY_EXISTS",
			wantStatus: http.StatusConflict,
			sentinel:   ErrAlreadyExists,
			contains:   []string{"user", "email", "alice@example.com"},
		},
		{
			name:       "InvalidInput",
			err:        InvalidInput("amount must be positive"),
			wantCode:   "INVALID_INPUT",
			wantStatus: http.StatusBadRequest,
			sentinel:   ErrInvalidInput,
			contains:   []string{"amount must be positive"},
		},
		{
			name:       "Unauthorized",
			err:        Unauthorized("invalid or expired token"),
			wantCode:   "UNAUTHORIZED",
			wantStatus: http.StatusUnauthorized,
			sentinel:   ErrUnauthorized,
			contains:   []string{"invalid or expired token"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.NotNil(t, tc.err)
			assert.Equal(t, tc.wantCode, tc.err.Code)
			assert.Equal(t, tc.wantStatus, tc.err.Status)
			assert.True(t, errors.Is(tc.err, tc.sentinel))
			for _, want := range tc.contains {
				assert.Contains(t, tc.err.Message, want)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("category", "cat-2")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(fmt.Errorf("load category: %w", ErrNotFound)))
	assert.Equal(t, http.StatusConflict, HTTPStatus(ErrAlreadyExists))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrInvalidInput))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(ErrUnauthorized))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(fmt.Errorf("pq: relation missing")))
}
