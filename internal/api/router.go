// Package api provides the HTTP surface of the sunset bot worker.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/sunsetbot/sunsetbot/internal/api/handler"
	"github.com/sunsetbot/sunsetbot/internal/api/middleware"
	"github.com/sunsetbot/sunsetbot/internal/api/models"
	"github.com/sunsetbot/sunsetbot/internal/api/response"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger

	// Metrics records HTTP server metrics. Optional.
	Metrics *middleware.Metrics

	// Runner executes the pipeline for POST /v1/run.
	Runner handler.Runner

	// Upstreams reports breaker state for readiness and status. Optional.
	Upstreams handler.UpstreamReporter

	// Tokens guards /v1/run and /v1/ops/status. Nil leaves them open, for
	// deployments that rely on platform IAM instead.
	Tokens middleware.TokenValidator

	// TriggerRateLimit limits POST /v1/run per client IP.
	// Default: middleware.TriggerRateLimit
	TriggerRateLimit *middleware.RateLimitConfig
}

// NewRouter creates the worker router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Upstreams)
	runHandler := handler.NewRunHandler(cfg.Runner, cfg.Logger)

	rateLimit := middleware.TriggerRateLimit
	if cfg.TriggerRateLimit != nil {
		rateLimit = *cfg.TriggerRateLimit
	}

	protected := func(h http.Handler) http.Handler { return h }
	if cfg.Tokens != nil {
		protected = middleware.TriggerAuth(cfg.Tokens)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "no route for "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, models.ForStatus(http.StatusMethodNotAllowed,
			middleware.GetRequestID(r.Context()), r.Method+" is not supported on "+r.URL.Path))
	})

	// Probes at the root for the platform, mirrored under /v1/ops.
	r.Get("/health", opsHandler.HealthCheck)
	r.Get("/ready", opsHandler.ReadinessCheck)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(protected).Get("/status", opsHandler.SystemStatus)
		})

		r.With(middleware.RateLimitByIP(rateLimit), protected).Post("/run", runHandler.Run)
	})

	return r
}
