package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/FinanceGo/internal/domain"
	"github.com/utafrali/FinanceGo/internal/repository"
	apperrors "github.com/utafrali/FinanceGo/pkg/errors"
	"github.com/utafrali/FinanceGo/pkg/pagination"
)

// --- Mock Transaction Repository ---

type mockTransactionRepository struct {
	mock.Mock
}

func (m *mockTransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *mockTransactionRepository) GetByID(ctx context.Context, id, userID string) (*domain.Transaction, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *mockTransactionRepository) ListByUser(ctx context.Context, userID string, filter repository.TransactionFilter, params pagination.Params) ([]domain.Transaction, int, error) {
	args := m.Called(ctx, userID, filter, params)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Transaction), args.Int(1), args.Error(2)
}

func (m *mockTransactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *mockTransactionRepository) Delete(ctx context.Context, id, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *mockTransactionRepository) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTransactionRepository) StatsForUser(ctx context.Context, userID string, from, to time.Time) (*domain.TransactionStats, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransactionStats), args.Error(1)
}

// --- Mock Stats Cache ---

type mockStatsCache struct {
	mock.Mock
}

func (m *mockStatsCache) Get(ctx context.Context, userID, window string) (*domain.TransactionStats, error) {
	args := m.Called(ctx, userID, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransactionStats), args.Error(1)
}

func (m *mockStatsCache) Set(ctx context.Context, userID, window string, stats *domain.TransactionStats, ttl time.Duration) error {
	args := m.Called(ctx, userID, window, stats, ttl)
	return args.Error(0)
}

func (m *mockStatsCache) InvalidateUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func newTestTransactionService(txRepo *mockTransactionRepository, cache *mockStatsCache) *TransactionService {
	var statsCache repository.StatsCache
	if cache != nil {
		statsCache = cache
	}
	return NewTransactionService(txRepo, statsCache, newTestEventProducer(), newTestLogger())
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestTransactionCreate_Success(t *testing.T) {
	txRepo := new(mockTransactionRepository)
	cache := new(mockStatsCache)
	svc := newTestTransactionService(txRepo, cache)

	txRepo.On("Create", mock.Anything, mock.MatchedBy(func(tx *domain.Transaction) bool {
		return tx.UserID == "u-1234" && tx.Type == domain.TransactionExpense && tx.AmountCents == 4250
	})).Return(nil)
	cache.On("InvalidateUser", mock.Anything, "u-1234").Return(nil)

	tx, err := svc.Create(context.Background(), "u-1234", CreateTransactionInput{
		Type:        "expense",
		AmountCents: 4250,
		Category:    "groceries",
		Description: "weekly shop",
		Date:        time.Now().UTC(),
	})

	require.NoError(t, err)
	assert.NotEmpty(t, tx.ID)
	cache.AssertCalled(t, "InvalidateUser", mock.Anything, "u-1234")
}

func TestTransactionCreate_InvalidType(t *testing.T) {
	svc := newTestTransactionService(new(mockTransactionRepository), nil)

	_, err := svc.Create(context.Background(), "u-1234", CreateTransactionInput{
		Type:        "transfer",
		AmountCents: 100,
		Category:    "misc",
		Date:        time.Now().UTC(),
	})

	require.Error(t, err)
	assert.Equal(t, 400, apperrors.HTTPStatus(err))
}

func TestTransactionCreate_NonPositiveAmount(t *testing.T) {
	svc := newTestTransactionService(new(mockTransactionRepository), nil)

	_, err := svc.Create(context.Background(), "u-1234", CreateTransactionInput{
		Type:        "income",
		AmountCents: 0,
		Category:    "salary",
		Date:        time.Now().UTC(),
	})

	require.Error(t, err)
	assert.Equal(t, 400, apperrors.HTTPStatus(err))
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

func TestStats_CacheHit(t *testing.T) {
	txRepo := new(mockTransactionRepository)
	cache := new(mockStatsCache)
	svc := newTestTransactionService(txRepo, cache)

	cached := &domain.TransactionStats{IncomeCents: 1000, ExpenseCents: 400, BalanceCents: 600}
	cache.On("Get", mock.Anything, "u-1234", "open..open").Return(cached, nil)

	stats, err := svc.Stats(context.Background(), "u-1234", time.Time{}, time.Time{})

	require.NoError(t, err)
	assert.Equal(t, cached, stats)
	txRepo.AssertNotCalled(t, "StatsForUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStats_CacheMiss_ComputesAndStores(t *testing.T) {
	txRepo := new(mockTransactionRepository)
	cache := new(mockStatsCache)
	svc := newTestTransactionService(txRepo, cache)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	computed := &domain.TransactionStats{IncomeCents: 1000, ExpenseCents: 400, BalanceCents: 600}

	cache.On("Get", mock.Anything, "u-1234", "2026-08-01..2026-08-31").Return(nil, apperrors.ErrNotFound)
	txRepo.On("StatsForUser", mock.Anything, "u-1234", from, to).Return(computed, nil)
	cache.On("Set", mock.Anything, "u-1234", "2026-08-01..2026-08-31", computed, statsCacheTTL).Return(nil)

	stats, err := svc.Stats(context.Background(), "u-1234", from, to)

	require.NoError(t, err)
	assert.Equal(t, computed, stats)
	cache.AssertExpectations(t)
}

func TestStats_NoCacheConfigured(t *testing.T) {
	txRepo := new(mockTransactionRepository)
	svc := newTestTransactionService(txRepo, nil)

	computed := &domain.TransactionStats{BalanceCents: 0}
	txRepo.On("StatsForUser", mock.Anything, "u-1234", mock.Anything, mock.Anything).Return(computed, nil)

	stats, err := svc.Stats(context.Background(), "u-1234", time.Time{}, time.Time{})

	require.NoError(t, err)
	assert.Equal(t, computed, stats)
}

// ---------------------------------------------------------------------------
// Update / Delete
// ---------------------------------------------------------------------------

func TestTransactionUpdate_PartialFields(t *testing.T) {
	txRepo := new(mockTransactionRepository)
	cache := new(mockStatsCache)
	svc := newTestTransactionService(txRepo, cache)

	now := time.Now().UTC()
	existing := &domain.Transaction{
		ID: "tx-1", UserID: "u-1234", Type: domain.TransactionExpense,
		AmountCents: 4250, Category: "groceries", Date: now,
	}

	txRepo.On("GetByID", mock.Anything, "tx-1", "u-1234").Return(existing, nil)
	txRepo.On("Update", mock.Anything, mock.MatchedBy(func(tx *domain.Transaction) bool {
		return tx.AmountCents == 5000 && tx.Category == "groceries"
	})).Return(nil)
	cache.On("InvalidateUser", mock.Anything, "u-1234").Return(nil)

	amount := int64(5000)
	got, err := svc.Update(context.Background(), "tx-1", "u-1234", UpdateTransactionInput{AmountCents: &amount})

	require.NoError(t, err)
	assert.Equal(t, int64(5000), got.AmountCents)
	cache.AssertCalled(t, "InvalidateUser", mock.Anything, "u-1234")
}

func TestTransactionDelete_NotFound(t *testing.T) {
	txRepo := new(mockTransactionRepository)
	svc := newTestTransactionService(txRepo, nil)

	txRepo.On("Delete", mock.Anything, "tx-missing", "u-1234").Return(apperrors.ErrNotFound)

	err := svc.Delete(context.Background(), "tx-missing", "u-1234")

	require.Error(t, err)
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
}

func TestTransactionDeleteAll_InvalidatesCache(t *testing.T) {
	txRepo := new(mockTransactionRepository)
	cache := new(mockStatsCache)
	svc := newTestTransactionService(txRepo, cache)

	txRepo.On("DeleteAllForUser", mock.Anything, "u-1234").Return(int64(7), nil)
	cache.On("InvalidateUser", mock.Anything, "u-1234").Return(nil)

	deleted, err := svc.DeleteAll(context.Background(), "u-1234")

	require.NoError(t, err)
	assert.Equal(t, int64(7), deleted)
	txRepo.AssertExpectations(t)
	cache.AssertExpectations(t)
}
