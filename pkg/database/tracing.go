package database

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/utafrali/FinanceGo/pkg/database"

// slowQueryLog guards the process-wide slow query settings. A zero
// threshold means disabled.
var slowQueryLog = struct {
	mu        sync.RWMutex
	threshold time.Duration
	logger    *slog.Logger
}{}

// SetSlowQueryLogging enables warning-level logs for queries that run
// longer than threshold. Pass a zero threshold to disable.
func SetSlowQueryLogging(threshold time.Duration, logger *slog.Logger) {
	slowQueryLog.mu.Lock()
	defer slowQueryLog.mu.Unlock()
	slowQueryLog.threshold = threshold
	slowQueryLog.logger = logger
}

// TraceQuery opens a client span for one database operation and returns
// the completion callback:
//
//	ctx, done := database.TraceQuery(ctx, "GetTransaction", getTransactionSQL)
//	defer func() { done(err) }()
//
// The callback records the error (if any), ends the span, and emits a
// slow query warning when logging is enabled and the threshold was
// exceeded.
func TraceQuery(ctx context.Context, operation, statement string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "db."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", operation),
			attribute.String("db.statement", statement),
		),
	)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		warnIfSlow(ctx, operation, statement, time.Since(start), err)
	}
}

func warnIfSlow(ctx context.Context, operation, statement string, elapsed time.Duration, err error) {
	slowQueryLog.mu.RLock()
	threshold, logger := slowQueryLog.threshold, slowQueryLog.logger
	slowQueryLog.mu.RUnlock()

	if threshold <= 0 || logger == nil || elapsed < threshold {
		return
	}

	attrs := []any{
		slog.String("operation", operation),
		slog.String("statement", statement),
		slog.Duration("duration", elapsed),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	logger.WarnContext(ctx, "slow query detected", attrs...)
}
