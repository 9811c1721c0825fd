// Package openmeteo implements forecast.Geocoder and forecast.Provider against
// the public Open-Meteo geocoding and forecast APIs. No API key is needed.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/snowdaycalc/snowday/internal/forecast"
	"github.com/snowdaycalc/snowday/internal/provider/resilience"
)

const (
	// ProviderName identifies this provider in logs and metrics.
	ProviderName = "open-meteo"

	// GeocodingClientName and ForecastClientName are the resilience registry
	// names of the two upstream endpoints.
	GeocodingClientName = "open-meteo-geocoding"
	ForecastClientName  = "open-meteo-forecast"

	// DefaultGeocodeURL is the Open-Meteo geocoding search endpoint.
	DefaultGeocodeURL = "https://geocoding-api.open-meteo.com/v1/search"

	// DefaultForecastURL is the Open-Meteo forecast endpoint.
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"
)

// ClientConfig holds configuration for the Open-Meteo client.
type ClientConfig struct {
	// GeocodeURL overrides DefaultGeocodeURL.
	GeocodeURL string

	// ForecastURL overrides DefaultForecastURL.
	ForecastURL string

	// GeocodingHTTPClient and ForecastHTTPClient are optional. If nil, resilient
	// clients with defaults are created.
	GeocodingHTTPClient *resilience.Client
	ForecastHTTPClient  *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client talks to Open-Meteo.
type Client struct {
	geocodeURL  string
	forecastURL string
	geocoding   *resilience.Client
	forecasts   *resilience.Client
	logger      zerolog.Logger
}

// NewClient creates a new Open-Meteo client.
func NewClient(cfg ClientConfig) *Client {
	geocodeURL := cfg.GeocodeURL
	if geocodeURL == "" {
		geocodeURL = DefaultGeocodeURL
	}

	forecastURL := cfg.ForecastURL
	if forecastURL == "" {
		forecastURL = DefaultForecastURL
	}

	geocoding := cfg.GeocodingHTTPClient
	if geocoding == nil {
		geocoding = resilience.NewClient(resilience.DefaultClientConfig(GeocodingClientName))
	}

	forecasts := cfg.ForecastHTTPClient
	if forecasts == nil {
		forecasts = resilience.NewClient(resilience.DefaultClientConfig(ForecastClientName))
	}

	return &Client{
		geocodeURL:  geocodeURL,
		forecastURL: forecastURL,
		geocoding:   geocoding,
		forecasts:   forecasts,
		logger:      cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Geocode returns the first search result for query.
func (c *Client) Geocode(ctx context.Context, query string) (*forecast.Place, error) {
	params := url.Values{}
	params.Set("name", query)
	params.Set("count", "1")
	params.Set("language", "en")
	params.Set("format", "json")

	var body geocodingResponse
	if err := c.getJSON(ctx, c.geocoding, c.geocodeURL+"?"+params.Encode(), &body); err != nil {
		return nil, err
	}

	if len(body.Results) == 0 {
		return nil, forecast.ErrNotFound
	}

	r := body.Results[0]
	c.logger.Debug().
		Str("query", query).
		Str("name", r.Name).
		Float64("lat", r.Latitude).
		Float64("lon", r.Longitude).
		Msg("geocoded location")

	return &forecast.Place{
		Name:      r.Name,
		Country:   r.Country,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
	}, nil
}

// GetForecast fetches two days of hourly snowfall, precipitation and
// temperature in °F, plus daily minimums, in the location's own timezone.
func (c *Client) GetForecast(ctx context.Context, lat, lon float64) (*forecast.Sample, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("hourly", "snowfall,precipitation,temperature_2m")
	params.Set("daily", "temperature_2m_min")
	params.Set("forecast_days", "2")
	params.Set("temperature_unit", "fahrenheit")
	params.Set("timezone", "auto")

	var body forecastResponse
	if err := c.getJSON(ctx, c.forecasts, c.forecastURL+"?"+params.Encode(), &body); err != nil {
		return nil, err
	}

	return toSample(&body), nil
}

func (c *Client) getJSON(ctx context.Context, client *resilience.Client, endpoint string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: executing request: %w", forecast.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status code: %d", forecast.ErrUpstream, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decoding response: %w", forecast.ErrUpstream, err)
	}

	return nil
}

// toSample converts the Open-Meteo response to the domain sample.
func toSample(resp *forecastResponse) *forecast.Sample {
	return &forecast.Sample{
		Place: forecast.Place{
			Latitude:  resp.Latitude,
			Longitude: resp.Longitude,
		},
		Hourly: forecast.Hourly{
			Time:          resp.Hourly.Time,
			Snowfall:      resp.Hourly.Snowfall,
			Precipitation: resp.Hourly.Precipitation,
			Temperature:   resp.Hourly.Temperature,
		},
		DailyMinTemperature: resp.Daily.TemperatureMin,
		Timezone:            resp.Timezone,
		FetchedAt:           time.Now(),
	}
}
