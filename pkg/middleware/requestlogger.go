package middleware

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/FinanceGo/pkg/logger"
)

// RequestLogger stores a request-scoped logger in the context, enriched
// with whatever identifiers are available at this point in the chain:
// correlation_id, the authenticated user's ID, and the active trace and
// span IDs. Handlers pull it back out with logger.FromContext.
//
// Mount after RequestLogging and Tracing so their context values are in
// place, and after Auth when the user_id attribute is wanted.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if userID := UserIDFromContext(ctx); userID != "" {
				ctx = logger.WithUserID(ctx, userID)
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
