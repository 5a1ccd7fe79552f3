package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/FinanceGo/internal/repository"
	"github.com/utafrali/FinanceGo/internal/service"
	"github.com/utafrali/FinanceGo/pkg/httputil"
	"github.com/utafrali/FinanceGo/pkg/middleware"
	"github.com/utafrali/FinanceGo/pkg/pagination"
	"github.com/utafrali/FinanceGo/pkg/validator"
)

// dateLayout is the wire format for transaction dates.
const dateLayout = "2006-01-02"

// TransactionHandler handles HTTP requests for ledger endpoints.
type TransactionHandler struct {
	service *service.TransactionService
	logger  *slog.Logger
}

// NewTransactionHandler creates a new transaction HTTP handler.
func NewTransactionHandler(svc *service.TransactionService, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{service: svc, logger: logger}
}

// CreateTransactionRequest is the JSON request body for recording a transaction.
type CreateTransactionRequest struct {
	Type        string `json:"type" validate:"required,oneof=income expense"`
	AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
	Category    string `json:"category" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=500"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
}

// UpdateTransactionRequest is the JSON request body for amending a transaction.
type UpdateTransactionRequest struct {
	Type        *string `json:"type" validate:"omitempty,oneof=income expense"`
	AmountCents *int64  `json:"amount_cents" validate:"omitempty,gt=0"`
	Category    *string `json:"category" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Date        *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// Create handles POST /api/v1/transactions
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeNotAuthenticated(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadBody(w, err)
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	date, _ := time.Parse(dateLayout, req.Date)

	tx, err := h.service.Create(r.Context(), identity.UserID, service.CreateTransactionInput{
		Type:        req.Type,
		AmountCents: req.AmountCents,
		Category:    req.Category,
		Description: req.Description,
		Date:        date,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: tx})
}

// Get handles GET /api/v1/transactions/{id}
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeNotAuthenticated(w)
		return
	}

	tx, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), identity.UserID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: tx})
}

// List handles GET /api/v1/transactions
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeNotAuthenticated(w)
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
		})
		return
	}

	params := pagination.FromRequest(r)
	result, err := h.service.List(r.Context(), identity.UserID, filter, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Update handles PUT /api/v1/transactions/{id}
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeNotAuthenticated(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req UpdateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadBody(w, err)
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := service.UpdateTransactionInput{
		Type:        req.Type,
		AmountCents: req.AmountCents,
		Category:    req.Category,
		Description: req.Description,
	}
	if req.Date != nil {
		date, _ := time.Parse(dateLayout, *req.Date)
		input.Date = &date
	}

	tx, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), identity.UserID, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: tx})
}

// Delete handles DELETE /api/v1/transactions/{id}
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeNotAuthenticated(w)
		return
	}

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), identity.UserID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteAll handles DELETE /api/v1/transactions
func (h *TransactionHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeNotAuthenticated(w)
		return
	}

	deleted, err := h.service.DeleteAll(r.Context(), identity.UserID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]int64{"deleted": deleted}})
}

// Stats handles GET /api/v1/transactions/stats
func (h *TransactionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeNotAuthenticated(w)
		return
	}

	from, to, err := windowFromQuery(r)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
		})
		return
	}

	stats, err := h.service.Stats(r.Context(), identity.UserID, from, to)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stats})
}

// --- Query parsing ---

func filterFromQuery(r *http.Request) (repository.TransactionFilter, error) {
	filter := repository.TransactionFilter{
		Type:     r.URL.Query().Get("type"),
		Category: r.URL.Query().Get("category"),
	}

	if filter.Type != "" && filter.Type != "income" && filter.Type != "expense" {
		return filter, errInvalidFilter("type must be income or expense")
	}

	from, to, err := windowFromQuery(r)
	if err != nil {
		return filter, err
	}
	filter.From, filter.To = from, to

	return filter, nil
}

func windowFromQuery(r *http.Request) (from, to time.Time, err error) {
	if v := r.URL.Query().Get("from"); v != "" {
		from, err = time.Parse(dateLayout, v)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidFilter("from must be formatted as YYYY-MM-DD")
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		to, err = time.Parse(dateLayout, v)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidFilter("to must be formatted as YYYY-MM-DD")
		}
	}
	return from, to, nil
}

type errInvalidFilter string

func (e errInvalidFilter) Error() string { return string(e) }
