package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/FinanceGo/internal/domain"
	apperrors "github.com/utafrali/FinanceGo/pkg/errors"
)

const keyPrefix = "stats:"

// StatsCache implements repository.StatsCache using Redis. Keys are
// namespaced per user so a write to the user's ledger can drop every cached
// window at once.
type StatsCache struct {
	client *redis.Client
}

// NewStatsCache creates a new Redis-backed stats cache.
func NewStatsCache(client *redis.Client) *StatsCache {
	return &StatsCache{client: client}
}

// key builds the cache key for a user's stats window.
func key(userID, window string) string {
	return keyPrefix + userID + ":" + window
}

// Get retrieves cached stats, returning ErrNotFound on a miss.
func (c *StatsCache) Get(ctx context.Context, userID, window string) (*domain.TransactionStats, error) {
	data, err := c.client.Get(ctx, key(userID, window)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("redis get stats: %w", err)
	}

	var stats domain.TransactionStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("unmarshal stats: %w", err)
	}

	return &stats, nil
}

// Set stores stats for the user's window with a TTL.
func (c *StatsCache) Set(ctx context.Context, userID, window string, stats *domain.TransactionStats, ttl time.Duration) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	if err := c.client.Set(ctx, key(userID, window), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set stats: %w", err)
	}

	return nil
}

// InvalidateUser drops every cached stats entry for the user.
func (c *StatsCache) InvalidateUser(ctx context.Context, userID string) error {
	pattern := keyPrefix + userID + ":*"

	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan stats keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del stats keys: %w", err)
	}

	return nil
}
