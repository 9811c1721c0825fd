// Package main provides the entrypoint for the snow day API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/snowdaycalc/snowday/internal/api"
	"github.com/snowdaycalc/snowday/internal/api/middleware"
	"github.com/snowdaycalc/snowday/internal/config"
	"github.com/snowdaycalc/snowday/internal/forecast"
	"github.com/snowdaycalc/snowday/internal/forecast/openmeteo"
	"github.com/snowdaycalc/snowday/internal/provider/resilience"
	"github.com/snowdaycalc/snowday/internal/session"
	"github.com/snowdaycalc/snowday/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "snowday-api"

	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := cfg.NewLogger(os.Stdout, serviceName, Version)

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting snow day API")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
	})
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

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}
	providerMetrics, err := telemetry.NewProviderMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize provider metrics")
	}

	// Upstream clients report into the registry behind /v1/ops/status.
	registry := resilience.NewRegistry()
	newUpstream := func(name string) *resilience.Client {
		c := resilience.DefaultClientConfig(name)
		c.Timeout = cfg.ProviderTimeout
		c.MaxRetries = cfg.ProviderMaxRetries
		c.Registry = registry
		return resilience.NewClient(c)
	}

	openMeteo := openmeteo.NewClient(openmeteo.ClientConfig{
		GeocodeURL:          cfg.GeocodeURL,
		ForecastURL:         cfg.ForecastURL,
		GeocodingHTTPClient: newUpstream(openmeteo.GeocodingClientName),
		ForecastHTTPClient:  newUpstream(openmeteo.ForecastClientName),
		Logger:              log,
	})

	forecasts := forecast.NewService(forecast.ServiceConfig{
		Geocoder: openMeteo,
		Provider: openMeteo,
		Logger:   log,
		Metrics:  providerMetrics,
	})
	log.Info().
		Dur("timeout", cfg.ProviderTimeout).
		Uint64("max_retries", cfg.ProviderMaxRetries).
		Msg("forecast service initialized")

	store := session.NewStore(session.StoreConfig{
		Session: session.Config{
			Resolver:       forecasts,
			Logger:         log,
			Debounce:       cfg.AutofillDebounce,
			MinQueryLength: cfg.AutofillMinQuery,
		},
		TTL:    cfg.SessionTTL,
		Logger: log,
	})
	go store.Run(ctx)
	log.Info().
		Dur("ttl", cfg.SessionTTL).
		Dur("debounce", cfg.AutofillDebounce).
		Msg("session store initialized")

	router := api.NewRouter(api.RouterConfig{
		Version:        Version,
		BuildTime:      BuildTime,
		Logger:         log,
		Metrics:        httpMetrics,
		Resolver:       forecasts,
		Store:          store,
		Registry:       registry,
		MinQueryLength: cfg.AutofillMinQuery,
		RequireTLS:     cfg.RequireTLS,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server")
	case err := <-serverErr:
		log.Error().Err(err).Msg("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	store.Close()

	log.Info().Msg("server stopped")
}
