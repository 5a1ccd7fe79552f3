package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/FinanceGo/internal/domain"
	"github.com/utafrali/FinanceGo/internal/event"
	"github.com/utafrali/FinanceGo/internal/repository"
	apperrors "github.com/utafrali/FinanceGo/pkg/errors"
	"github.com/utafrali/FinanceGo/pkg/pagination"
)

// statsCacheTTL bounds how stale a cached stats window can get when the
// cache invalidation on write is missed.
const statsCacheTTL = 5 * time.Minute

// TransactionService implements the business logic for the user's ledger.
type TransactionService struct {
	txRepo     repository.TransactionRepository
	statsCache repository.StatsCache
	producer   *event.Producer
	logger     *slog.Logger
}

// NewTransactionService creates a new transaction service. The stats cache
// may be nil, in which case stats are always computed from the database.
func NewTransactionService(
	txRepo repository.TransactionRepository,
	statsCache repository.StatsCache,
	producer *event.Producer,
	logger *slog.Logger,
) *TransactionService {
	return &TransactionService{
		txRepo:     txRepo,
		statsCache: statsCache,
		producer:   producer,
		logger:     logger,
	}
}

// CreateTransactionInput holds the parameters for recording a transaction.
type CreateTransactionInput struct {
	Type        string
	AmountCents int64
	Category    string
	Description string
	Date        time.Time
}

// UpdateTransactionInput holds the parameters for amending a transaction.
type UpdateTransactionInput struct {
	Type        *string
	AmountCents *int64
	Category    *string
	Description *string
	Date        *time.Time
}

// Create records a new transaction in the user's ledger.
func (s *TransactionService) Create(ctx context.Context, userID string, input CreateTransactionInput) (*domain.Transaction, error) {
	txType := domain.TransactionType(input.Type)
	if !txType.Valid() {
		return nil, apperrors.InvalidInput("type must be income or expense")
	}
	if input.AmountCents <= 0 {
		return nil, apperrors.InvalidInput("amount must be positive")
	}
	if input.Category == "" {
		return nil, apperrors.InvalidInput("category is required")
	}
	if input.Date.IsZero() {
		return nil, apperrors.InvalidInput("date is required")
	}

	now := time.Now().UTC()
	tx := &domain.Transaction{
		ID:          uuid.New().String(),
		UserID:      userID,
		Type:        txType,
		AmountCents: input.AmountCents,
		Category:    input.Category,
		Description: input.Description,
		Date:        input.Date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.txRepo.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	s.invalidateStats(ctx, userID)

	// Publish creation event (non-blocking on failure).
	if err := s.producer.PublishTransactionCreated(ctx, tx); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish transaction.created event",
			slog.String("transaction_id", tx.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "transaction created",
		slog.String("transaction_id", tx.ID),
		slog.String("user_id", userID),
		slog.String("type", string(tx.Type)),
	)

	return tx, nil
}

// Get retrieves a transaction owned by the user.
func (s *TransactionService) Get(ctx context.Context, id, userID string) (*domain.Transaction, error) {
	tx, err := s.txRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

// List returns a page of the user's transactions matching the filter.
func (s *TransactionService) List(ctx context.Context, userID string, filter repository.TransactionFilter, params pagination.Params) (pagination.Result[domain.Transaction], error) {
	transactions, total, err := s.txRepo.ListByUser(ctx, userID, filter, params)
	if err != nil {
		return pagination.Result[domain.Transaction]{}, fmt.Errorf("list transactions: %w", err)
	}
	return pagination.NewResult(transactions, total, params), nil
}

// Update amends a transaction owned by the user.
func (s *TransactionService) Update(ctx context.Context, id, userID string, input UpdateTransactionInput) (*domain.Transaction, error) {
	tx, err := s.txRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("get transaction for update: %w", err)
	}

	if input.Type != nil {
		txType := domain.TransactionType(*input.Type)
		if !txType.Valid() {
			return nil, apperrors.InvalidInput("type must be income or expense")
		}
		tx.Type = txType
	}
	if input.AmountCents != nil {
		if *input.AmountCents <= 0 {
			return nil, apperrors.InvalidInput("amount must be positive")
		}
		tx.AmountCents = *input.AmountCents
	}
	if input.Category != nil {
		if *input.Category == "" {
			return nil, apperrors.InvalidInput("category must not be empty")
		}
		tx.Category = *input.Category
	}
	if input.Description != nil {
		tx.Description = *input.Description
	}
	if input.Date != nil {
		tx.Date = *input.Date
	}

	if err := s.txRepo.Update(ctx, tx); err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}

	s.invalidateStats(ctx, userID)

	s.logger.InfoContext(ctx, "transaction updated",
		slog.String("transaction_id", tx.ID),
		slog.String("user_id", userID),
	)

	return tx, nil
}

// Delete removes a transaction owned by the user.
func (s *TransactionService) Delete(ctx context.Context, id, userID string) error {
	if err := s.txRepo.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.invalidateStats(ctx, userID)

	s.logger.InfoContext(ctx, "transaction deleted",
		slog.String("transaction_id", id),
		slog.String("user_id", userID),
	)

	return nil
}

// DeleteAll removes every transaction owned by the user and reports how
// many were removed.
func (s *TransactionService) DeleteAll(ctx context.Context, userID string) (int64, error) {
	deleted, err := s.txRepo.DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("delete all transactions: %w", err)
	}

	s.invalidateStats(ctx, userID)

	s.logger.InfoContext(ctx, "all transactions deleted",
		slog.String("user_id", userID),
		slog.Int64("count", deleted),
	)

	return deleted, nil
}

// Stats aggregates the user's income and expenses within the window,
// serving from the cache when a fresh entry exists.
func (s *TransactionService) Stats(ctx context.Context, userID string, from, to time.Time) (*domain.TransactionStats, error) {
	window := statsWindow(from, to)

	if s.statsCache != nil {
		cached, err := s.statsCache.Get(ctx, userID, window)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			// A broken cache degrades to a database read.
			s.logger.WarnContext(ctx, "stats cache read failed",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	}

	stats, err := s.txRepo.StatsForUser(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("compute transaction stats: %w", err)
	}

	if s.statsCache != nil {
		if err := s.statsCache.Set(ctx, userID, window, stats, statsCacheTTL); err != nil {
			s.logger.WarnContext(ctx, "stats cache write failed",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	}

	return stats, nil
}

// invalidateStats drops the user's cached stats after a ledger write.
func (s *TransactionService) invalidateStats(ctx context.Context, userID string) {
	if s.statsCache == nil {
		return
	}
	if err := s.statsCache.InvalidateUser(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "stats cache invalidation failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

// statsWindow renders a cache window identifier for the date range.
func statsWindow(from, to time.Time) string {
	const layout = "2006-01-02"
	f, t := "open", "open"
	if !from.IsZero() {
		f = from.Format(layout)
	}
	if !to.IsZero() {
		t = to.Format(layout)
	}
	return f + ".." + t
}
