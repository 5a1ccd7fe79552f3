package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/FinanceGo/internal/service"
	"github.com/utafrali/FinanceGo/pkg/health"
	"github.com/utafrali/FinanceGo/pkg/middleware"
)

// RouterConfig carries the knobs the router needs beyond its handlers.
type RouterConfig struct {
	CORS                middleware.CORSConfig
	Environment         string
	AuthRateLimit       int
	AuthRateLimitWindow time.Duration
	APIRateLimit        int
	APIRateLimitWindow  time.Duration
	PprofAllowedCIDRs   []string
}

// NewRouter creates a chi router with all finance API routes registered.
func NewRouter(
	authService *service.AuthService,
	transactionService *service.TransactionService,
	categoryService *service.CategoryService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing("finance-api"))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("finance"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	if cfg.Environment == "development" {
		middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)
	}

	// Authenticator that bridges the middleware to the auth service. It
	// verifies the signature, consults the blacklist, and resolves the user
	// row on every request, so a token for a deleted account stops working
	// immediately.
	authenticate := middleware.Authenticator(func(ctx context.Context, token string) (*middleware.Identity, error) {
		user, claims, err := authService.Authenticate(ctx, token)
		if err != nil {
			return nil, err
		}
		return &middleware.Identity{
			UserID:      user.ID,
			Email:       user.Email,
			Name:        user.Name,
			Preferences: user.Preferences,
			TokenID:     claims.ID,
		}, nil
	})

	apiRateLimit := middleware.RateLimit(cfg.APIRateLimit, cfg.APIRateLimitWindow, logger)

	// Auth endpoints. The public ones get a tighter rate limit than the
	// rest of the API since they are the target of credential stuffing.
	authHandler := NewAuthHandler(authService, logger)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.AuthRateLimit, cfg.AuthRateLimitWindow, logger))

			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		// Session management (auth required)
		r.Group(func(r chi.Router) {
			r.Use(apiRateLimit)
			r.Use(middleware.Auth(authenticate))

			r.Post("/logout", authHandler.Logout)
			r.Post("/logout-all", authHandler.LogoutAll)
			r.Post("/change-password", authHandler.ChangePassword)
			r.Get("/sessions", authHandler.Sessions)
		})
	})

	// Profile and preference endpoints (auth required)
	userHandler := NewUserHandler(authService, logger)
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(apiRateLimit)
		r.Use(middleware.Auth(authenticate))

		r.Get("/me", userHandler.GetProfile)
		r.Put("/me", userHandler.UpdateProfile)
		r.Put("/me/preferences", userHandler.UpdatePreferences)
	})

	// Transaction endpoints (auth required)
	transactionHandler := NewTransactionHandler(transactionService, logger)
	r.Route("/api/v1/transactions", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(apiRateLimit)
		r.Use(middleware.Auth(authenticate))

		r.Get("/", transactionHandler.List)
		r.Post("/", transactionHandler.Create)
		r.Delete("/", transactionHandler.DeleteAll)
		r.Get("/stats", transactionHandler.Stats)
		r.Get("/{id}", transactionHandler.Get)
		r.Put("/{id}", transactionHandler.Update)
		r.Delete("/{id}", transactionHandler.Delete)
	})

	// Category endpoints (auth required). The list changes rarely so reads
	// carry a short client-side cache hint.
	categoryHandler := NewCategoryHandler(categoryService, logger)
	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(apiRateLimit)
		r.Use(middleware.Auth(authenticate))

		r.With(middleware.CacheControl(300)).Get("/", categoryHandler.List)
		r.With(middleware.CacheControl(3600)).Get("/defaults", categoryHandler.ListDefaults)
		r.Post("/", categoryHandler.Create)
		r.Put("/{id}", categoryHandler.Update)
		r.Delete("/{id}", categoryHandler.Delete)
	})

	return r
}
