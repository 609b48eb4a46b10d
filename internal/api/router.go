// Package api provides the HTTP API for netzstatus.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/netzstatus/netzstatus/internal/api/handler"
	"github.com/netzstatus/netzstatus/internal/api/middleware"
	"github.com/netzstatus/netzstatus/internal/auth"
	"github.com/netzstatus/netzstatus/internal/monitor"
	"github.com/netzstatus/netzstatus/internal/prefs"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version       string
	BuildTime     string
	Logger        zerolog.Logger
	ServiceName   string
	Metrics       *middleware.Metrics
	AdminVerifier *auth.AdminVerifier
	Monitor       *monitor.Service
	Preferences   *prefs.Store
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "netzstatus-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime)
	statusHandler := handler.NewStatusHandler(cfg.Monitor)
	adminHandler := handler.NewAdminHandler(cfg.Monitor, cfg.Preferences, cfg.Logger)

	adminAuth := middleware.AdminAuth(cfg.AdminVerifier)

	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 120 req/min
	writeRateLimit := middleware.RateLimitByIP(middleware.WriteRateLimit)       // 20 req/min
	adminRateLimit := middleware.RateLimitByIP(middleware.AdminRateLimit)       // 10 req/min

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public, unthrottled for orchestrator probes)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
		})

		// Network status (public)
		r.Route("/status", func(r chi.Router) {
			r.With(standardRateLimit).Get("/", statusHandler.GetStatus)
			r.With(standardRateLimit).Get("/lines", statusHandler.GetLines)
			r.With(writeRateLimit).Put("/lines", statusHandler.PutLines)
		})

		// Admin endpoints (bearer token required)
		r.Route("/admin", func(r chi.Router) {
			r.Use(adminRateLimit)
			r.Use(adminAuth)
			r.Post("/refresh", adminHandler.ForceRefresh)
			r.Delete("/preferences", adminHandler.ClearPreferences)
		})
	})

	return r
}
