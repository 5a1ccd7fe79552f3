package repository

import (
	"context"
	"time"

	"github.com/utafrali/FinanceGo/internal/domain"
	"github.com/utafrali/FinanceGo/pkg/pagination"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error
}

// RefreshTokenRepository defines the interface for refresh token persistence
// operations. Tokens are stored as SHA-256 hashes, never verbatim.
type RefreshTokenRepository interface {
	// Create stores a new refresh token record.
	Create(ctx context.Context, token *domain.RefreshToken) error

	// GetValidByHash retrieves a refresh token by its hash. Revoked or
	// expired tokens are not returned.
	GetValidByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)

	// Revoke marks a specific not-yet-revoked token as revoked. Returns
	// ErrNotFound when no such token exists, including when the token was
	// already revoked by a concurrent rotation.
	Revoke(ctx context.Context, tokenHash string) error

	// RevokeAllForUser revokes every active refresh token for the user.
	RevokeAllForUser(ctx context.Context, userID string) error

	// ListActiveForUser returns the user's active sessions, newest first.
	ListActiveForUser(ctx context.Context, userID string) ([]domain.Session, error)

	// DeleteExpiredOrRevoked removes rows that are expired or revoked,
	// returning the number deleted.
	DeleteExpiredOrRevoked(ctx context.Context) (int64, error)
}

// BlacklistRepository defines the interface for access token blacklist
// persistence operations.
type BlacklistRepository interface {
	// Add records a token ID as blacklisted until its expiry.
	Add(ctx context.Context, tokenID string, expiresAt time.Time) error

	// IsBlacklisted reports whether the token ID has an unexpired
	// blacklist entry.
	IsBlacklisted(ctx context.Context, tokenID string) (bool, error)

	// DeleteExpired removes expired blacklist entries, returning the
	// number deleted.
	DeleteExpired(ctx context.Context) (int64, error)
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	Type     string
	Category string
	From     time.Time
	To       time.Time
}

// TransactionRepository defines the interface for transaction persistence operations.
type TransactionRepository interface {
	// Create inserts a new transaction into the store.
	Create(ctx context.Context, tx *domain.Transaction) error

	// GetByID retrieves a transaction owned by the given user.
	GetByID(ctx context.Context, id, userID string) (*domain.Transaction, error)

	// ListByUser returns the user's transactions matching the filter,
	// newest first, along with the total match count.
	ListByUser(ctx context.Context, userID string, filter TransactionFilter, params pagination.Params) ([]domain.Transaction, int, error)

	// Update modifies an existing transaction owned by the given user.
	Update(ctx context.Context, tx *domain.Transaction) error

	// Delete removes a transaction owned by the given user.
	Delete(ctx context.Context, id, userID string) error

	// DeleteAllForUser removes every transaction owned by the user,
	// returning the number deleted.
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)

	// StatsForUser aggregates income and expense totals for the user
	// within the window.
	StatsForUser(ctx context.Context, userID string, from, to time.Time) (*domain.TransactionStats, error)
}

// CategoryRepository defines the interface for category persistence operations.
type CategoryRepository interface {
	// Create inserts a new user-defined category into the store.
	Create(ctx context.Context, category *domain.Category) error

	// GetByID retrieves a category visible to the given user, meaning a
	// default category or one of the user's own.
	GetByID(ctx context.Context, id, userID string) (*domain.Category, error)

	// ListForUser returns the default categories plus the user's own.
	ListForUser(ctx context.Context, userID string) ([]domain.Category, error)

	// ListDefaults returns only the built-in default categories.
	ListDefaults(ctx context.Context) ([]domain.Category, error)

	// Update modifies a user-defined category. Default categories cannot
	// be changed.
	Update(ctx context.Context, category *domain.Category) error

	// Delete removes a user-defined category. Default categories cannot
	// be deleted.
	Delete(ctx context.Context, id, userID string) error
}

// StatsCache caches computed transaction statistics per user and window.
type StatsCache interface {
	// Get returns the cached stats for the user's window, or ErrNotFound
	// on a miss.
	Get(ctx context.Context, userID, window string) (*domain.TransactionStats, error)

	// Set stores stats for the user's window with a TTL.
	Set(ctx context.Context, userID, window string, stats *domain.TransactionStats, ttl time.Duration) error

	// InvalidateUser drops every cached stats entry for the user.
	InvalidateUser(ctx context.Context, userID string) error
}
