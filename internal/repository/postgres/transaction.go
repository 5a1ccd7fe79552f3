package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/FinanceGo/internal/domain"
	"github.com/utafrali/FinanceGo/internal/repository"
	"github.com/utafrali/FinanceGo/pkg/database"
	apperrors "github.com/utafrali/FinanceGo/pkg/errors"
	"github.com/utafrali/FinanceGo/pkg/pagination"
)

// TransactionRepository implements repository.TransactionRepository using PostgreSQL.
type TransactionRepository struct {
	db database.DBTX
}

// NewTransactionRepository creates a new PostgreSQL-backed transaction repository.
func NewTransactionRepository(db database.DBTX) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts a new transaction into the database.
func (r *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, type, amount_cents, category, description, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		tx.ID,
		tx.UserID,
		tx.Type,
		tx.AmountCents,
		tx.Category,
		tx.Description,
		tx.Date,
		tx.CreatedAt,
		tx.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a transaction owned by the given user.
func (r *TransactionRepository) GetByID(ctx context.Context, id, userID string) (*domain.Transaction, error) {
	query := `
		SELECT id, user_id, type, amount_cents, category, description, date, created_at, updated_at
		FROM transactions
		WHERE id = $1 AND user_id = $2`

	var tx domain.Transaction
	err := r.db.QueryRow(ctx, query, id, userID).Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Type,
		&tx.AmountCents,
		&tx.Category,
		&tx.Description,
		&tx.Date,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}

	return &tx, nil
}

// ListByUser returns the user's transactions matching the filter, newest
// first, and the total match count for pagination.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID string, filter repository.TransactionFilter, params pagination.Params) ([]domain.Transaction, int, error) {
	where := `WHERE user_id = $1`
	args := []any{userID}

	if filter.Type != "" {
		args = append(args, filter.Type)
		where += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		where += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		where += fmt.Sprintf(" AND date <= $%d", len(args))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM transactions ` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	args = append(args, params.PerPage, params.Offset)
	listQuery := fmt.Sprintf(`
		SELECT id, user_id, type, amount_cents, category, description, date, created_at, updated_at
		FROM transactions
		%s
		ORDER BY date DESC, created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	ctx, end := database.TraceQuery(ctx, "ListTransactions", listQuery)
	rows, err := r.db.Query(ctx, listQuery, args...)
	end(err)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(
			&tx.ID,
			&tx.UserID,
			&tx.Type,
			&tx.AmountCents,
			&tx.Category,
			&tx.Description,
			&tx.Date,
			&tx.CreatedAt,
			&tx.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan transaction row: %w", err)
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transaction rows: %w", err)
	}

	if transactions == nil {
		transactions = []domain.Transaction{}
	}

	return transactions, total, nil
}

// Update modifies an existing transaction owned by the given user.
func (r *TransactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	tx.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE transactions
		SET type = $1, amount_cents = $2, category = $3, description = $4, date = $5, updated_at = $6
		WHERE id = $7 AND user_id = $8`

	ct, err := r.db.Exec(ctx, query,
		tx.Type,
		tx.AmountCents,
		tx.Category,
		tx.Description,
		tx.Date,
		tx.UpdatedAt,
		tx.ID,
		tx.UserID,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("transaction", tx.ID)
	}

	return nil
}

// Delete removes a transaction owned by the given user.
func (r *TransactionRepository) Delete(ctx context.Context, id, userID string) error {
	query := `DELETE FROM transactions WHERE id = $1 AND user_id = $2`

	ct, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("transaction", id)
	}

	return nil
}

// DeleteAllForUser removes every transaction owned by the user.
func (r *TransactionRepository) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	query := `DELETE FROM transactions WHERE user_id = $1`

	ct, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("delete all transactions: %w", err)
	}

	return ct.RowsAffected(), nil
}

// StatsForUser aggregates income and expense totals for the user within the
// window. Zero window bounds leave that side unbounded.
func (r *TransactionRepository) StatsForUser(ctx context.Context, userID string, from, to time.Time) (*domain.TransactionStats, error) {
	where := `WHERE user_id = $1`
	args := []any{userID}

	if !from.IsZero() {
		args = append(args, from)
		where += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		where += fmt.Sprintf(" AND date <= $%d", len(args))
	}

	query := `
		SELECT
			COALESCE(SUM(amount_cents) FILTER (WHERE type = 'income'), 0),
			COALESCE(SUM(amount_cents) FILTER (WHERE type = 'expense'), 0),
			COUNT(*) FILTER (WHERE type = 'income'),
			COUNT(*) FILTER (WHERE type = 'expense')
		FROM transactions ` + where

	ctx, end := database.TraceQuery(ctx, "TransactionStats", query)

	var stats domain.TransactionStats
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&stats.IncomeCents,
		&stats.ExpenseCents,
		&stats.IncomeCount,
		&stats.ExpenseCount,
	)
	end(err)
	if err != nil {
		return nil, fmt.Errorf("aggregate transaction stats: %w", err)
	}

	stats.BalanceCents = stats.IncomeCents - stats.ExpenseCents
	return &stats, nil
}
