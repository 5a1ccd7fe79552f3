package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/utafrali/FinanceGo/pkg/errors"
	"github.com/utafrali/FinanceGo/pkg/logger"
	"github.com/utafrali/FinanceGo/pkg/validator"
)

// Response is the JSON envelope every endpoint writes. Exactly one of
// Data and Error is set.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the error half of the envelope. Fields is only
// populated for validation failures.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v as JSON with the given status code. Encoding
// failures are swallowed since the header has already gone out.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorClass maps a sentinel error to its wire representation. The
// unauthorized message is deliberately generic so callers cannot
// distinguish a bad token from a revoked or orphaned one.
type errorClass struct {
	status  int
	code    string
	message string // empty means use err.Error()
}

var sentinelClasses = []struct {
	sentinel error
	class    errorClass
}{
	{apperrors.ErrNotFound, errorClass{http.StatusNotFound, "NOT_FOUND", "resource not found"}},
	{apperrors.ErrAlreadyExists, errorClass{http.StatusConflict, "ALREADY_EXISTS", "resource already exists"}},
	{apperrors.ErrInvalidInput, errorClass{http.StatusBadRequest, "INVALID_INPUT", ""}},
	{apperrors.ErrUnauthorized, errorClass{http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token"}},
}

func classify(err error) errorClass {
	for _, sc := range sentinelClasses {
		if errors.Is(err, sc.sentinel) {
			c := sc.class
			if c.message == "" {
				c.message = err.Error()
			}
			return c
		}
	}
	return errorClass{http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"}
}

// WriteError translates err into the envelope. An AppError carries its
// own status and wire code; anything else is classified by sentinel,
// and unclassified errors surface as 500 with their detail logged but
// never leaked to the client. The request-scoped logger (correlation
// ID, trace attributes) is preferred over the fallback.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() {
		l = fallback
	}
	requestID := logger.CorrelationIDFromContext(r.Context())

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		WriteJSON(w, appErr.Status, Response{
			Error: &ErrorResponse{Code: appErr.Code, Message: appErr.Message, RequestID: requestID},
		})
		return
	}

	c := classify(err)
	if c.status == http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, c.status, Response{
		Error: &ErrorResponse{Code: c.code, Message: c.message, RequestID: requestID},
	})
}

// WriteValidationError writes a 400 with per-field messages when err is
// a validator.ValidationError, or a generic INVALID_INPUT otherwise.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, Response{
			Error: &ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "request validation failed",
				Fields:  valErr.Fields(),
			},
		})
		return
	}

	WriteJSON(w, http.StatusBadRequest, Response{
		Error: &ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
	})
}
