package cleanup

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utafrali/FinanceGo/internal/repository"
)

var (
	sweepDeletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_sweep_deleted_total",
			Help: "Total rows removed by the token sweeper",
		},
		[]string{"store"},
	)

	sweepFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_sweep_failures_total",
			Help: "Total sweep passes that failed against a store",
		},
		[]string{"store"},
	)

	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auth_token_sweep_duration_seconds",
			Help:    "Duration of one full sweep pass in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

const (
	storeRefreshTokens = "refresh_tokens"
	storeBlacklist     = "blacklist"
)

// Result reports how many rows a single sweep removed from each store.
type Result struct {
	RefreshTokensDeleted    int64
	BlacklistEntriesDeleted int64
}

// Sweeper periodically deletes refresh tokens that are expired or revoked
// and blacklist entries whose tokens have expired. Stale rows are only dead
// weight: every read path already filters on expiry and revocation, so a
// missed sweep affects nothing but table size.
type Sweeper struct {
	refreshRepo repository.RefreshTokenRepository
	blacklist   repository.BlacklistRepository
	interval    time.Duration
	logger      *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewSweeper creates a sweeper with the given interval between runs.
func NewSweeper(
	refreshRepo repository.RefreshTokenRepository,
	blacklist repository.BlacklistRepository,
	interval time.Duration,
	logger *slog.Logger,
) *Sweeper {
	return &Sweeper{
		refreshRepo: refreshRepo,
		blacklist:   blacklist,
		interval:    interval,
		logger:      logger,
	}
}

// Start launches the background sweep loop. The first sweep runs
// immediately. Calling Start on a running sweeper is a no-op.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.run(ctx)

	s.logger.Info("token sweeper started",
		slog.Duration("interval", s.interval),
	)
}

// Stop halts the sweep loop and waits for an in-flight sweep to finish.
// Calling Stop on a stopped sweeper is a no-op.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done

	s.logger.Info("token sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	s.sweep(ctx)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.sweep(ctx)
			timer.Reset(s.interval)
		}
	}
}

// RunOnce performs a single sweep and returns the deleted-row counts. Both
// stores are always attempted; a failure against one does not skip the
// other, and the counts for whatever succeeded are still reported.
func (s *Sweeper) RunOnce(ctx context.Context) (Result, error) {
	start := time.Now()
	defer func() {
		sweepDuration.Observe(time.Since(start).Seconds())
	}()

	var res Result
	var errs []error

	tokensDeleted, err := s.refreshRepo.DeleteExpiredOrRevoked(ctx)
	if err != nil {
		sweepFailuresTotal.WithLabelValues(storeRefreshTokens).Inc()
		errs = append(errs, err)
	} else {
		res.RefreshTokensDeleted = tokensDeleted
		sweepDeletedTotal.WithLabelValues(storeRefreshTokens).Add(float64(tokensDeleted))
	}

	entriesDeleted, err := s.blacklist.DeleteExpired(ctx)
	if err != nil {
		sweepFailuresTotal.WithLabelValues(storeBlacklist).Inc()
		errs = append(errs, err)
	} else {
		res.BlacklistEntriesDeleted = entriesDeleted
		sweepDeletedTotal.WithLabelValues(storeBlacklist).Add(float64(entriesDeleted))
	}

	return res, errors.Join(errs...)
}

// sweep runs one cleanup pass inside the loop. Failures are logged and
// suppressed; the next pass retries.
func (s *Sweeper) sweep(ctx context.Context) {
	start := time.Now()

	res, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "token sweep failed",
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "token sweep completed",
		slog.Int64("refresh_tokens_deleted", res.RefreshTokensDeleted),
		slog.Int64("blacklist_entries_deleted", res.BlacklistEntriesDeleted),
		slog.Duration("duration", time.Since(start)),
	)
}
