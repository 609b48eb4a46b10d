// Package main provides the entrypoint for the netzstatus API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/netzstatus/netzstatus/internal/api"
	"github.com/netzstatus/netzstatus/internal/api/middleware"
	"github.com/netzstatus/netzstatus/internal/auth"
	"github.com/netzstatus/netzstatus/internal/database"
	"github.com/netzstatus/netzstatus/internal/departures/vbb"
	"github.com/netzstatus/netzstatus/internal/monitor"
	"github.com/netzstatus/netzstatus/internal/prefs"
	"github.com/netzstatus/netzstatus/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "netzstatus-api"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting netzstatus API")

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	ctx := context.Background()

	// Initialize OpenTelemetry
	telemetryCfg := telemetry.ConfigFromEnv(serviceName, Version)
	tp, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryCfg.Enabled {
		log.Info().
			Str("otlp_endpoint", telemetryCfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Preference storage: Postgres when configured, in-memory otherwise.
	var prefsRepo prefs.Repository
	if database.Enabled() {
		dbConfig := database.ConfigFromEnv()
		pool, err := database.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")
		prefsRepo = prefs.NewPostgresRepository(pool)
	} else {
		log.Warn().Msg("no database configured, line selection will not survive restarts")
		prefsRepo = prefs.NewInMemoryRepository()
	}
	prefsStore := prefs.NewStore(prefsRepo, log)

	// Admin token verification
	adminSigningKey := os.Getenv("ADMIN_SIGNING_KEY")
	if adminSigningKey == "" {
		adminSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default admin signing key - not secure for production")
	}
	verifier := auth.NewAdminVerifier(auth.AdminConfig{
		SigningKey: adminSigningKey,
		Issuer:     os.Getenv("ADMIN_TOKEN_ISSUER"),
		Audience:   os.Getenv("ADMIN_TOKEN_AUDIENCE"),
	})

	// Departure source and monitor service
	source := vbb.NewClient(vbb.ClientConfig{
		BaseURL: os.Getenv("VBB_BASE_URL"),
		Logger:  log,
	})

	monitorService := monitor.NewService(monitor.ServiceConfig{
		Config:      monitor.ConfigFromEnv(),
		Source:      source,
		Preferences: prefsStore,
		Logger:      log,
	})
	log.Info().Msg("monitor service initialized")

	router := api.NewRouter(api.RouterConfig{
		Version:       Version,
		BuildTime:     BuildTime,
		Logger:        log,
		ServiceName:   serviceName,
		Metrics:       metrics,
		AdminVerifier: verifier,
		Monitor:       monitorService,
		Preferences:   prefsStore,
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
