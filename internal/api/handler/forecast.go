package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/snowdaycalc/snowday/internal/api/models"
	"github.com/snowdaycalc/snowday/internal/api/response"
	"github.com/snowdaycalc/snowday/internal/estimator"
	"github.com/snowdaycalc/snowday/internal/forecast"
	"github.com/snowdaycalc/snowday/internal/session"
)

// ForecastHandler resolves a location to estimator inputs in one request.
type ForecastHandler struct {
	resolver forecast.Resolver
	minQuery int
	logger   zerolog.Logger
}

// NewForecastHandler creates a new ForecastHandler. minQuery defaults to
// session.DefaultMinQueryLength.
func NewForecastHandler(resolver forecast.Resolver, minQuery int, logger zerolog.Logger) *ForecastHandler {
	if minQuery <= 0 {
		minQuery = session.DefaultMinQueryLength
	}
	return &ForecastHandler{resolver: resolver, minQuery: minQuery, logger: logger}
}

// GetForecast handles GET /v1/forecast?location=<q>&unit=<fahrenheit|celsius>.
// Queries below the minimum length return an empty status without a lookup.
func (h *ForecastHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var errs fieldErrors
	unit := parseEnum(&errs, "unit", q.Get("unit"), estimator.TempUnits, estimator.ParseTempUnit, estimator.Fahrenheit)
	if len(errs) > 0 {
		response.BadRequest(w, r, "invalid forecast request", errs)
		return
	}

	query, ok := session.LookupQuery(q.Get("location"), h.minQuery)
	if !ok {
		response.JSON(w, r, http.StatusOK, models.Forecast{Query: query})
		return
	}

	sample, err := h.resolver.Resolve(r.Context(), query)
	if err != nil {
		h.writeError(w, r, query, err)
		return
	}

	d := forecast.DeriveInputs(sample)
	lowTemp := d.LowTempF
	if unit == estimator.Celsius {
		lowTemp = estimator.FahrenheitToCelsius(float64(d.LowTempF))
	}
	fetchedAt := models.Timestamp(sample.FetchedAt)

	response.JSON(w, r, http.StatusOK, models.Forecast{
		Query:  query,
		Status: toStatus(session.ForecastStatus(sample.Place)),
		Place: &models.Place{
			Name:      sample.Place.Name,
			Country:   sample.Place.Country,
			Label:     sample.Place.Label(),
			Latitude:  sample.Place.Latitude,
			Longitude: sample.Place.Longitude,
		},
		Inputs: &models.ForecastInputs{
			SnowInches: d.SnowInches,
			LowTemp:    lowTemp,
			TempUnit:   string(unit),
			IceRisk:    string(d.IceRisk),
			Timing:     string(d.Timing),
		},
		Timezone:  sample.Timezone,
		FetchedAt: &fetchedAt,
	})
}

func (h *ForecastHandler) writeError(w http.ResponseWriter, r *http.Request, query string, err error) {
	switch {
	case errors.Is(err, forecast.ErrNotFound):
		response.NotFound(w, r, session.StatusFailed)
	case errors.Is(err, forecast.ErrUpstream):
		h.logger.Warn().Err(err).Str("query", query).Msg("forecast lookup failed")
		response.BadGateway(w, r, session.StatusFailed)
	case errors.Is(err, context.Canceled):
		// Client went away; nobody is left to read a response.
		h.logger.Debug().Str("query", query).Msg("forecast request cancelled")
	default:
		h.logger.Error().Err(err).Str("query", query).Msg("forecast lookup failed")
		response.InternalError(w, r, "an unexpected error occurred")
	}
}
