// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	Port        string
	Environment string
	LogLevel    zerolog.Level
	LogFormat   string

	OTelEnabled  bool
	OTLPEndpoint string
	RequireTLS   bool

	// Open-Meteo endpoints.
	GeocodeURL  string
	ForecastURL string

	ProviderTimeout    time.Duration
	ProviderMaxRetries uint64

	// Autofill behaviour of form sessions.
	AutofillDebounce time.Duration
	AutofillMinQuery int
	SessionTTL       time.Duration

	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")))
	if err != nil || level == zerolog.NoLevel {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q", os.Getenv("LOG_LEVEL"))
	}

	format := strings.ToLower(getEnvOrDefault("LOG_FORMAT", "json"))
	if format != "json" && format != "console" {
		return nil, fmt.Errorf("invalid LOG_FORMAT %q: want json or console", format)
	}

	cfg := &Config{
		Port:         getEnvOrDefault("APP_PORT", "8080"),
		Environment:  getEnvOrDefault("APP_ENV", "development"),
		LogLevel:     level,
		LogFormat:    format,
		OTelEnabled:  os.Getenv("OTEL_ENABLED") == "true",
		OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		RequireTLS:   os.Getenv("REQUIRE_TLS") == "true",
		GeocodeURL:   os.Getenv("GEOCODE_URL"),
		ForecastURL:  os.Getenv("FORECAST_URL"),
	}

	if cfg.ProviderTimeout, err = parseDuration("PROVIDER_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.AutofillDebounce, err = parseDuration("AUTOFILL_DEBOUNCE", "800ms"); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = parseDuration("SESSION_TTL", "30m"); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = parseDuration("SHUTDOWN_TIMEOUT", "30s"); err != nil {
		return nil, err
	}

	retries, err := strconv.ParseUint(getEnvOrDefault("PROVIDER_MAX_RETRIES", "0"), 10, 8)
	if err != nil {
		return nil, errors.New("invalid PROVIDER_MAX_RETRIES")
	}
	cfg.ProviderMaxRetries = retries

	minQuery, err := strconv.Atoi(getEnvOrDefault("AUTOFILL_MIN_QUERY", "3"))
	if err != nil || minQuery < 1 {
		return nil, errors.New("invalid AUTOFILL_MIN_QUERY")
	}
	cfg.AutofillMinQuery = minQuery

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("invalid APP_PORT %q", cfg.Port)
	}

	return cfg, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// NewLogger builds the root logger writing to w.
func (c *Config) NewLogger(w io.Writer, service, version string) zerolog.Logger {
	if c.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).
		Level(c.LogLevel).
		With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Str("env", c.Environment).
		Logger()
}

func parseDuration(key, defaultValue string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnvOrDefault(key, defaultValue))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
