package forecast

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/snowdaycalc/snowday/internal/telemetry"
)

const tracerName = "github.com/snowdaycalc/snowday/internal/forecast"

// Geocoder resolves free text to a place.
type Geocoder interface {
	// Geocode returns the best match for query, or ErrNotFound.
	Geocode(ctx context.Context, query string) (*Place, error)

	// Name returns the provider name for logging.
	Name() string
}

// Provider fetches forecasts by coordinates.
type Provider interface {
	// GetForecast fetches at least 24 hours of hourly data plus daily minimums.
	GetForecast(ctx context.Context, lat, lon float64) (*Sample, error)

	// Name returns the provider name for logging.
	Name() string
}

// Resolver is the operation the autofill flow depends on.
type Resolver interface {
	Resolve(ctx context.Context, query string) (*Sample, error)
}

// ServiceConfig holds configuration for the forecast service.
type ServiceConfig struct {
	Geocoder Geocoder
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// Metrics is optional.
	Metrics *telemetry.ProviderMetrics
}

// Service resolves locations to forecast samples. Samples are fetched fresh
// on every call.
type Service struct {
	geocoder Geocoder
	provider Provider
	logger   zerolog.Logger
	metrics  *telemetry.ProviderMetrics
	tracer   trace.Tracer
}

// NewService creates a new forecast service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		geocoder: cfg.Geocoder,
		provider: cfg.Provider,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		tracer:   otel.Tracer(tracerName),
	}
}

// Resolve geocodes query, taking the first match, and fetches its forecast.
// Errors wrap ErrEmptyQuery, ErrNotFound or ErrUpstream.
func (s *Service) Resolve(ctx context.Context, query string) (*Sample, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	ctx, span := s.tracer.Start(ctx, "forecast.Resolve",
		trace.WithAttributes(attribute.String("forecast.query", query)))
	defer span.End()

	place, err := s.geocode(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("forecast.place", place.Label()),
		attribute.Float64("forecast.lat", place.Latitude),
		attribute.Float64("forecast.lon", place.Longitude),
	)

	sample, err := s.fetchForecast(ctx, place)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return sample, nil
}

func (s *Service) geocode(ctx context.Context, query string) (*Place, error) {
	start := time.Now()
	place, err := s.geocoder.Geocode(ctx, query)
	err = classify(err)
	s.metrics.RecordRequest(s.geocoder.Name(), "geocode", outcome(err), time.Since(start))

	if err != nil {
		event := s.logger.Warn()
		if errors.Is(err, ErrNotFound) {
			event = s.logger.Debug()
		}
		event.Err(err).
			Str("query", query).
			Str("provider", s.geocoder.Name()).
			Msg("geocoding failed")
		return nil, err
	}
	if place == nil {
		return nil, ErrNotFound
	}
	return place, nil
}

func (s *Service) fetchForecast(ctx context.Context, place *Place) (*Sample, error) {
	s.logger.Debug().
		Float64("lat", place.Latitude).
		Float64("lon", place.Longitude).
		Str("provider", s.provider.Name()).
		Msg("fetching forecast from provider")

	start := time.Now()
	sample, err := s.provider.GetForecast(ctx, place.Latitude, place.Longitude)
	err = classify(err)
	if err == nil && sample == nil {
		err = fmt.Errorf("%w: empty forecast", ErrUpstream)
	}
	s.metrics.RecordRequest(s.provider.Name(), "forecast", outcome(err), time.Since(start))

	if err != nil {
		s.logger.Warn().Err(err).
			Float64("lat", place.Latitude).
			Float64("lon", place.Longitude).
			Msg("failed to fetch forecast")
		return nil, err
	}

	sample.Place = *place
	if sample.FetchedAt.IsZero() {
		sample.FetchedAt = time.Now()
	}
	return sample, nil
}

// classify makes sure every provider failure other than a miss or a
// cancellation reports as ErrUpstream.
func classify(err error) error {
	switch {
	case err == nil,
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrUpstream),
		errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "upstream_error"
	}
}
