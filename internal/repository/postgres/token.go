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

// RefreshTokenRepository implements repository.RefreshTokenRepository using PostgreSQL.
type RefreshTokenRepository struct {
	db database.DBTX
}

// NewRefreshTokenRepository creates a new PostgreSQL-backed refresh token repository.
func NewRefreshTokenRepository(db database.DBTX) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Create stores a new refresh token record.
func (r *RefreshTokenRepository) Create(ctx context.Context, t *domain.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, is_revoked, device_info, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		t.ID,
		t.UserID,
		t.TokenHash,
		t.ExpiresAt,
		t.IsRevoked,
		t.DeviceInfo,
		t.IPAddress,
		t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}

	return nil
}

// GetValidByHash retrieves a token by hash, excluding revoked and expired rows.
func (r *RefreshTokenRepository) GetValidByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, is_revoked, device_info, ip_address, created_at
		FROM refresh_tokens
		WHERE token_hash = $1 AND is_revoked = FALSE AND expires_at > NOW()`

	var t domain.RefreshToken
	err := r.db.QueryRow(ctx, query, tokenHash).Scan(
		&t.ID,
		&t.UserID,
		&t.TokenHash,
		&t.ExpiresAt,
		&t.IsRevoked,
		&t.DeviceInfo,
		&t.IPAddress,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan refresh token: %w", err)
	}

	return &t, nil
}

// Revoke marks a single active token as revoked. The is_revoked guard makes
// rotation first-wins: two concurrent refreshes presenting the same token
// race on this UPDATE and exactly one sees an affected row.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	query := `UPDATE refresh_tokens SET is_revoked = TRUE WHERE token_hash = $1 AND is_revoked = FALSE`

	ct, err := r.db.Exec(ctx, query, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// RevokeAllForUser revokes every active refresh token for the user.
func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	query := `UPDATE refresh_tokens SET is_revoked = TRUE WHERE user_id = $1 AND is_revoked = FALSE`

	_, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("revoke refresh tokens by user: %w", err)
	}

	return nil
}

// ListActiveForUser returns the user's active sessions, newest first.
func (r *RefreshTokenRepository) ListActiveForUser(ctx context.Context, userID string) ([]domain.Session, error) {
	query := `
		SELECT id, device_info, ip_address, created_at, expires_at
		FROM refresh_tokens
		WHERE user_id = $1 AND is_revoked = FALSE AND expires_at > NOW()
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(&s.ID, &s.DeviceInfo, &s.IPAddress, &s.CreatedAt, &s.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}

	if sessions == nil {
		sessions = []domain.Session{}
	}

	return sessions, nil
}

// DeleteExpiredOrRevoked removes rows no longer usable for rotation.
func (r *RefreshTokenRepository) DeleteExpiredOrRevoked(ctx context.Context) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < NOW() OR is_revoked = TRUE`

	ct, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete stale refresh tokens: %w", err)
	}

	return ct.RowsAffected(), nil
}

// --- Blacklist Repository ---

// BlacklistRepository implements repository.BlacklistRepository using PostgreSQL.
type BlacklistRepository struct {
	db database.DBTX
}

// NewBlacklistRepository creates a new PostgreSQL-backed blacklist repository.
func NewBlacklistRepository(db database.DBTX) *BlacklistRepository {
	return &BlacklistRepository{db: db}
}

// Add records a token ID as blacklisted until its expiry. Re-adding the same
// token ID is a no-op so logout stays idempotent.
func (r *BlacklistRepository) Add(ctx context.Context, tokenID string, expiresAt time.Time) error {
	query := `
		INSERT INTO blacklisted_tokens (token_id, expires_at, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_id) DO NOTHING`

	_, err := r.db.Exec(ctx, query, tokenID, expiresAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert blacklisted token: %w", err)
	}

	return nil
}

// IsBlacklisted reports whether the token ID has an unexpired blacklist entry.
func (r *BlacklistRepository) IsBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM blacklisted_tokens
			WHERE token_id = $1 AND expires_at > NOW()
		)`

	var blacklisted bool
	if err := r.db.QueryRow(ctx, query, tokenID).Scan(&blacklisted); err != nil {
		return false, fmt.Errorf("check blacklisted token: %w", err)
	}

	return blacklisted, nil
}

// DeleteExpired removes blacklist entries whose tokens have expired anyway.
func (r *BlacklistRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM blacklisted_tokens WHERE expires_at < NOW()`

	ct, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete expired blacklist entries: %w", err)
	}

	return ct.RowsAffected(), nil
}
