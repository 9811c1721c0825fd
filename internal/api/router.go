// Package api provides the HTTP API for the snow day estimator.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/snowdaycalc/snowday/internal/api/handler"
	"github.com/snowdaycalc/snowday/internal/api/middleware"
	"github.com/snowdaycalc/snowday/internal/forecast"
	"github.com/snowdaycalc/snowday/internal/provider/resilience"
	"github.com/snowdaycalc/snowday/internal/session"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger

	// Metrics is optional; nil disables HTTP metrics.
	Metrics *middleware.Metrics

	// Resolver serves GET /v1/forecast.
	Resolver forecast.Resolver

	// Store holds form sessions.
	Store *session.Store

	// Registry is reported on by /v1/ops/status. Optional.
	Registry *resilience.Registry

	// MinQueryLength is the shortest location the forecast endpoint looks up.
	MinQueryLength int

	// RequireTLS rejects requests forwarded over plain HTTP.
	RequireTLS bool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID) // Generate/propagate request ID first
	r.Use(middleware.Tracing()) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement behind a proxy
	r.Use(middleware.ContentTypeJSON)            // JSON content type
	r.Use(middleware.RequireJSON)                // JSON request bodies

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Registry:  cfg.Registry,
		Store:     cfg.Store,
	})
	metadataHandler := handler.NewMetadataHandler()
	estimateHandler := handler.NewEstimateHandler()
	forecastHandler := handler.NewForecastHandler(cfg.Resolver, cfg.MinQueryLength, cfg.Logger)
	sessionHandler := handler.NewSessionHandler(cfg.Store, cfg.Logger)

	forecastRateLimit := middleware.RateLimitByIP(middleware.ForecastRateLimit) // 30 req/min
	sessionRateLimit := middleware.RateLimitByIP(middleware.SessionRateLimit)   // 300 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 100 req/min

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		r.With(standardRateLimit).Get("/metadata/enums", metadataHandler.GetEnums)
		r.With(standardRateLimit).Post("/estimate", estimateHandler.Estimate)

		// Calls the weather provider on every request.
		r.With(forecastRateLimit).Get("/forecast", forecastHandler.GetForecast)

		r.Route("/sessions", func(r chi.Router) {
			r.Use(sessionRateLimit)
			r.Post("/", sessionHandler.CreateSession)
			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", sessionHandler.GetSession)
				r.Delete("/", sessionHandler.DeleteSession)
				r.Put("/location", sessionHandler.SetLocation)
				r.Patch("/fields", sessionHandler.UpdateFields)
				r.Put("/preferences", sessionHandler.SetPreferences)
				r.Post("/submit", sessionHandler.Submit)
			})
		})
	})

	return r
}
