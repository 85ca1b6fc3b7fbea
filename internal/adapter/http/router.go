package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/iho/precatorio/internal/adapter/http/handler"
	"github.com/iho/precatorio/internal/adapter/http/middleware"
	"github.com/iho/precatorio/internal/infrastructure/metrics"
	"github.com/iho/precatorio/internal/usecase"
)

// RouterConfig holds dependencies for the router. Metrics, MetricsHandler,
// RateLimiter and IdempotencyStore are optional.
type RouterConfig struct {
	IndexHandler       *handler.IndexHandler
	CalculationHandler *handler.CalculationHandler
	HealthHandler      *handler.HealthHandler

	Logger             zerolog.Logger
	Metrics            *metrics.Metrics
	MetricsHandler     http.Handler
	RateLimiter        *middleware.RateLimiter
	CORSAllowedOrigins []string
	IdempotencyStore   usecase.IdempotencyStore
	IdempotencyTTL     time.Duration
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.NewRecovery(cfg.Logger).Wrap)
	if cfg.Metrics != nil {
		r.Use(middleware.NewHTTPMetrics(cfg.Metrics).Wrap)
	}
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", middleware.IdempotencyKeyHeader},
			ExposedHeaders: []string{"X-Request-Id", middleware.IdempotencyReplayHeader},
			MaxAge:         300,
		}))
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
		}

		// Index tables
		r.Route("/indices", func(r chi.Router) {
			r.Get("/", cfg.IndexHandler.List)
			r.Post("/refresh", cfg.IndexHandler.Refresh)
			r.Get("/{name}", cfg.IndexHandler.Get)
			r.Get("/{name}/factor", cfg.IndexHandler.Factor)
		})

		// Calculations
		r.Post("/corrections", cfg.CalculationHandler.Correct)
		r.Post("/apportionments", cfg.CalculationHandler.Apportion)
		r.Post("/unit-equivalences", cfg.CalculationHandler.UnitEquivalence)
		r.Route("/calculations", func(r chi.Router) {
			r.Post("/", cfg.CalculationHandler.Calculate)
			r.Post("/batch", cfg.CalculationHandler.CalculateBatch)
		})
	})

	return r
}
