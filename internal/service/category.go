package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/FinanceGo/internal/domain"
	"github.com/utafrali/FinanceGo/internal/repository"
	apperrors "github.com/utafrali/FinanceGo/pkg/errors"
)

// CategoryService implements the business logic for spending categories.
type CategoryService struct {
	categoryRepo repository.CategoryRepository
	logger       *slog.Logger
}

// NewCategoryService creates a new category service.
func NewCategoryService(categoryRepo repository.CategoryRepository, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		logger:       logger,
	}
}

// CreateCategoryInput holds the parameters for creating a category.
type CreateCategoryInput struct {
	Name string
	Type string
}

// Create adds a user-defined category.
func (s *CategoryService) Create(ctx context.Context, userID string, input CreateCategoryInput) (*domain.Category, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	catType := domain.TransactionType(input.Type)
	if !catType.Valid() {
		return nil, apperrors.InvalidInput("type must be income or expense")
	}

	now := time.Now().UTC()
	category := &domain.Category{
		ID:        uuid.New().String(),
		Name:      input.Name,
		Type:      catType,
		UserID:    userID,
		IsDefault: false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.logger.InfoContext(ctx, "category created",
		slog.String("category_id", category.ID),
		slog.String("user_id", userID),
	)

	return category, nil
}

// List returns the default categories plus the user's own.
func (s *CategoryService) List(ctx context.Context, userID string) ([]domain.Category, error) {
	categories, err := s.categoryRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// ListDefaults returns only the built-in default categories.
func (s *CategoryService) ListDefaults(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categoryRepo.ListDefaults(ctx)
	if err != nil {
		return nil, fmt.Errorf("list default categories: %w", err)
	}
	return categories, nil
}

// UpdateCategoryInput holds the optional fields for updating a category.
// Nil fields are left unchanged.
type UpdateCategoryInput struct {
	Name *string
	Type *string
}

// Update modifies a user-defined category. Defaults cannot be changed.
func (s *CategoryService) Update(ctx context.Context, id, userID string, input UpdateCategoryInput) (*domain.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("load category: %w", err)
	}
	if category.IsDefault {
		return nil, apperrors.NotFound("category", id)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("name must not be empty")
		}
		category.Name = *input.Name
	}
	if input.Type != nil {
		catType := domain.TransactionType(*input.Type)
		if !catType.Valid() {
			return nil, apperrors.InvalidInput("type must be income or expense")
		}
		category.Type = catType
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}

	s.logger.InfoContext(ctx, "category updated",
		slog.String("category_id", id),
		slog.String("user_id", userID),
	)

	return category, nil
}

// Delete removes a user-defined category. Defaults cannot be deleted.
func (s *CategoryService) Delete(ctx context.Context, id, userID string) error {
	if err := s.categoryRepo.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	s.logger.InfoContext(ctx, "category deleted",
		slog.String("category_id", id),
		slog.String("user_id", userID),
	)

	return nil
}
