package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/FinanceGo/internal/domain"
	"github.com/utafrali/FinanceGo/pkg/database"
	apperrors "github.com/utafrali/FinanceGo/pkg/errors"
)

// CategoryRepository implements repository.CategoryRepository using PostgreSQL.
type CategoryRepository struct {
	db database.DBTX
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(db database.DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create inserts a new user-defined category into the database.
func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) error {
	query := `
		INSERT INTO categories (id, name, type, user_id, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		c.ID,
		c.Name,
		c.Type,
		c.UserID,
		c.IsDefault,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("category", "name", c.Name)
		}
		return fmt.Errorf("insert category: %w", err)
	}

	return nil
}

// GetByID retrieves a category visible to the user. Default categories have
// a NULL user_id.
func (r *CategoryRepository) GetByID(ctx context.Context, id, userID string) (*domain.Category, error) {
	query := `
		SELECT id, name, type, COALESCE(user_id::text, ''), is_default, created_at, updated_at
		FROM categories
		WHERE id = $1 AND (user_id = $2 OR user_id IS NULL)`

	var c domain.Category
	err := r.db.QueryRow(ctx, query, id, userID).Scan(
		&c.ID,
		&c.Name,
		&c.Type,
		&c.UserID,
		&c.IsDefault,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan category: %w", err)
	}

	return &c, nil
}

// ListForUser returns the default categories plus the user's own, defaults first.
func (r *CategoryRepository) ListForUser(ctx context.Context, userID string) ([]domain.Category, error) {
	query := `
		SELECT id, name, type, COALESCE(user_id::text, ''), is_default, created_at, updated_at
		FROM categories
		WHERE user_id = $1 OR user_id IS NULL
		ORDER BY is_default DESC, name ASC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.Type,
			&c.UserID,
			&c.IsDefault,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}

	if categories == nil {
		categories = []domain.Category{}
	}

	return categories, nil
}

// ListDefaults returns only the built-in default categories.
func (r *CategoryRepository) ListDefaults(ctx context.Context) ([]domain.Category, error) {
	query := `
		SELECT id, name, type, COALESCE(user_id::text, ''), is_default, created_at, updated_at
		FROM categories
		WHERE is_default = TRUE
		ORDER BY type ASC, name ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list default categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.Type,
			&c.UserID,
			&c.IsDefault,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}

	if categories == nil {
		categories = []domain.Category{}
	}

	return categories, nil
}

// Update modifies a user-defined category. The user_id guard keeps default
// categories untouchable.
func (r *CategoryRepository) Update(ctx context.Context, c *domain.Category) error {
	c.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE categories
		SET name = $1, type = $2, updated_at = $3
		WHERE id = $4 AND user_id = $5 AND is_default = FALSE`

	ct, err := r.db.Exec(ctx, query,
		c.Name,
		c.Type,
		c.UpdatedAt,
		c.ID,
		c.UserID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("category", "name", c.Name)
		}
		return fmt.Errorf("update category: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("category", c.ID)
	}

	return nil
}

// Delete removes a user-defined category. The user_id guard keeps default
// categories untouchable.
func (r *CategoryRepository) Delete(ctx context.Context, id, userID string) error {
	query := `DELETE FROM categories WHERE id = $1 AND user_id = $2 AND is_default = FALSE`

	ct, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("category", id)
	}

	return nil
}
