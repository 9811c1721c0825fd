package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowdaycalc/snowday/internal/api"
	"github.com/snowdaycalc/snowday/internal/api/models"
	"github.com/snowdaycalc/snowday/internal/forecast"
	"github.com/snowdaycalc/snowday/internal/provider/resilience"
	"github.com/snowdaycalc/snowday/internal/session"
)

const (
	wait = 2 * time.Second
	tick = 5 * time.Millisecond
)

// fakeResolver answers from a fixed table; unknown queries are not found.
type fakeResolver struct {
	mu      sync.Mutex
	samples map[string]*forecast.Sample
	err     error
	calls   int
}

func (f *fakeResolver) Resolve(_ context.Context, query string) (*forecast.Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if s, ok := f.samples[query]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("geocoding %q: %w", query, forecast.ErrNotFound)
}

func (f *fakeResolver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// buffaloSample is 5" of snow peaking at 07:00 with a 30°F low.
func buffaloSample() *forecast.Sample {
	times := make([]string, 24)
	snow := make([]float64, 24)
	precip := make([]float64, 24)
	temps := make([]float64, 24)
	for i := range times {
		times[i] = fmt.Sprintf("2025-01-14T%02d:00", i)
		temps[i] = 33
	}
	snow[7] = 127
	precip[7] = 12.7
	temps[7] = 30

	return &forecast.Sample{
		Place: forecast.Place{Name: "Buffalo", Country: "United States", Latitude: 42.89, Longitude: -78.88},
		Hourly: forecast.Hourly{
			Time:          times,
			Snowfall:      forecast.NewSeries(snow...),
			Precipitation: forecast.NewSeries(precip...),
			Temperature:   forecast.NewSeries(temps...),
		},
		Timezone:  "America/New_York",
		FetchedAt: time.Date(2025, 1, 13, 21, 0, 0, 0, time.UTC),
	}
}

type testServer struct {
	router   http.Handler
	resolver *fakeResolver
	store    *session.Store
	clock    *clockwork.FakeClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	resolver := &fakeResolver{samples: map[string]*forecast.Sample{"Buffalo": buffaloSample()}}
	clock := clockwork.NewFakeClock()
	store := session.NewStore(session.StoreConfig{
		Session: session.Config{Resolver: resolver, Logger: zerolog.Nop(), Clock: clock},
		Logger:  zerolog.Nop(),
	})
	t.Cleanup(store.Close)

	registry := resilience.NewRegistry()
	clientCfg := resilience.DefaultClientConfig("open-meteo-forecast")
	clientCfg.Registry = registry
	resilience.NewClient(clientCfg)

	router := api.NewRouter(api.RouterConfig{
		Version:   "test",
		BuildTime: "2025-01-01T00:00:00Z",
		Logger:    zerolog.Nop(),
		Resolver:  resolver,
		Store:     store,
		Registry:  registry,
	})
	return &testServer{router: router, resolver: resolver, store: store, clock: clock}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestRouter_HealthCheck(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/v1/ops/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	health := decode[models.Health](t, w)
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "test", health.Details["version"])
}

func TestRouter_ReadinessFollowsStore(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/v1/ops/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	ts.store.Close()

	w = ts.do(t, http.MethodGet, "/v1/ops/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, models.HealthStatusFail, decode[models.Health](t, w).Status)
}

func TestRouter_SystemStatus(t *testing.T) {
	ts := newTestServer(t)
	ts.store.Create()

	w := ts.do(t, http.MethodGet, "/v1/ops/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	status := decode[models.SystemStatus](t, w)
	assert.Equal(t, models.HealthStatusOK, status.Status)
	require.Len(t, status.Providers, 1)
	assert.Equal(t, "open-meteo-forecast", status.Providers[0].Provider)
	assert.Equal(t, "closed", status.Providers[0].CircuitState)

	require.Len(t, status.Subsystems, 2)
	assert.Equal(t, "sessions", status.Subsystems[1].Name)
	require.NotNil(t, status.Subsystems[1].Detail)
	assert.Equal(t, "1 active", *status.Subsystems[1].Detail)
}

func TestRouter_Enums(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/v1/metadata/enums", nil)
	require.Equal(t, http.StatusOK, w.Code)

	enums := decode[models.Enums](t, w)
	assert.Len(t, enums.IceRisks, 3)
	assert.Len(t, enums.SchoolLevels, 4)
	assert.Equal(t, "College / university", enums.SchoolLevels[3].Label)
	require.Len(t, enums.TempUnits, 2)
	assert.Equal(t, models.SliderRange{Unit: "celsius", Min: -23, Max: 4, Step: 1}, enums.TempUnits[1].LowTempRange)
	assert.Equal(t, 14.0, enums.SnowRange.Max)
	require.Len(t, enums.Tiers, 5)
	assert.Equal(t, 85, enums.Tiers[0].MinPercent)
}

func TestRouter_Estimate(t *testing.T) {
	ts := newTestServer(t)

	snow, low := 6.0, 18.0
	w := ts.do(t, http.MethodPost, "/v1/estimate", models.EstimateRequest{
		Location:    "Buffalo, NY",
		SnowInches:  &snow,
		LowTemp:     &low,
		IceRisk:     "medium",
		Timing:      "overnight",
		Setting:     "rural",
		SchoolLevel: "elementary",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	est := decode[models.Estimate](t, w)
	assert.Equal(t, 80, est.Percent)
	assert.Equal(t, "80%", est.PercentText)
	assert.Equal(t, "looking_good", est.Tier)
	assert.Equal(t, "Buffalo, NY", est.LocationLabel)
	assert.Equal(t, "Elementary school", est.SchoolLabel)
	assert.Len(t, est.Notes, 6)
	assert.False(t, est.Celebrate)
}

func TestRouter_EstimateDefaults(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/estimate", map[string]any{"tempUnit": "celsius"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	est := decode[models.Estimate](t, w)
	assert.Equal(t, 32.0, est.Input.LowTempF, "blank temperature is 32°F in either unit")
	assert.Equal(t, "Your location", est.LocationLabel)
	assert.Equal(t, "High school", est.SchoolLabel)
}

func TestRouter_EstimateValidation(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/estimate", map[string]any{
		"iceRisk":    "extreme",
		"timing":     "noon",
		"snowInches": -1,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	problem := decode[models.Problem](t, w)
	assert.Equal(t, models.ProblemTypeValidation, problem.Type)
	assert.Equal(t, "/v1/estimate", problem.Instance)
	fields := make([]string, 0, len(problem.Errors))
	for _, fe := range problem.Errors {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"iceRisk", "timing", "snowInches"}, fields)
}

func TestRouter_EstimateRejectsMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	tests := map[string]string{
		"empty":         "",
		"not json":      "snow=6",
		"unknown field": `{"snowfall": 6}`,
		"wrong type":    `{"snowInches": "six"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/estimate", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			ts.router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestRouter_EstimateRequiresJSON(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/estimate", strings.NewReader("snowInches=6"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRouter_Forecast(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/v1/forecast?location=Buffalo&unit=celsius", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	fc := decode[models.Forecast](t, w)
	assert.Equal(t, "Using forecast for Buffalo, United States. You can still tweak sliders.", fc.Status.Message)
	require.NotNil(t, fc.Place)
	assert.Equal(t, "Buffalo, United States", fc.Place.Label)
	require.NotNil(t, fc.Inputs)
	assert.Equal(t, 5.0, fc.Inputs.SnowInches)
	assert.Equal(t, -1, fc.Inputs.LowTemp)
	assert.Equal(t, "celsius", fc.Inputs.TempUnit)
	assert.Equal(t, "morning", fc.Inputs.Timing)
	assert.Equal(t, "America/New_York", fc.Timezone)
}

func TestRouter_ForecastShortQuery(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/v1/forecast?location=%20NY%20", nil)
	require.Equal(t, http.StatusOK, w.Code)

	fc := decode[models.Forecast](t, w)
	assert.Equal(t, "NY", fc.Query)
	assert.Empty(t, fc.Status.Message)
	assert.Nil(t, fc.Inputs)
	assert.Zero(t, ts.resolver.callCount())
}

func TestRouter_ForecastErrors(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/v1/forecast?location=Atlantis", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, session.StatusFailed, decode[models.Problem](t, w).Detail)

	w = ts.do(t, http.MethodGet, "/v1/forecast?location=Buffalo&unit=kelvin", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ts.resolver.mu.Lock()
	ts.resolver.err = fmt.Errorf("fetching forecast: %w", forecast.ErrUpstream)
	ts.resolver.mu.Unlock()

	w = ts.do(t, http.MethodGet, "/v1/forecast?location=Buffalo", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, models.ProblemTypeUpstream, decode[models.Problem](t, w).Type)
}

func TestRouter_SessionLifecycle(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.Session](t, w)
	assert.Equal(t, "/v1/sessions/"+created.ID, w.Header().Get("Location"))
	assert.Equal(t, "fahrenheit", created.Form.TempUnit)
	assert.Equal(t, 32.0, created.Form.LowTemp)
	assert.Equal(t, models.SliderRange{Unit: "fahrenheit", Min: -10, Max: 40, Step: 1}, created.LowTempRange)

	base := "/v1/sessions/" + created.ID

	w = ts.do(t, http.MethodPut, base+"/location", models.LocationRequest{Location: "Buffalo"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[models.Session](t, w).Loading)

	waitCtx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	require.NoError(t, ts.clock.BlockUntilContext(waitCtx, 1))
	ts.clock.Advance(session.DefaultDebounce)

	var got models.Session
	require.Eventually(t, func() bool {
		req := httptest.NewRequest(http.MethodGet, base, nil)
		w := httptest.NewRecorder()
		ts.router.ServeHTTP(w, req)
		if json.Unmarshal(w.Body.Bytes(), &got) != nil {
			return false
		}
		return strings.HasPrefix(got.Form.Status.Message, "Using forecast")
	}, wait, tick)
	assert.False(t, got.Loading)
	assert.Equal(t, 5.0, got.Form.SnowInches)
	assert.Equal(t, 30.0, got.Form.LowTemp)

	setting := "rural"
	w = ts.do(t, http.MethodPatch, base+"/fields", models.FieldsRequest{Setting: &setting})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "rural", decode[models.Session](t, w).Form.Setting)

	unit, theme := "celsius", "frost"
	w = ts.do(t, http.MethodPut, base+"/preferences", models.PreferencesRequest{TempUnit: &unit, Theme: &theme})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	prefs := decode[models.Session](t, w)
	assert.Equal(t, -1.0, prefs.Form.LowTemp)
	assert.Equal(t, "frost", prefs.Form.Theme)
	assert.Equal(t, "celsius", prefs.LowTempRange.Unit)

	w = ts.do(t, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	est := decode[models.Estimate](t, w)
	assert.Equal(t, "Buffalo", est.LocationLabel)
	assert.InDelta(t, 30.2, est.Input.LowTempF, 1e-9)
	assert.Equal(t, "rural", est.Input.Setting)

	w = ts.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_SessionValidation(t *testing.T) {
	ts := newTestServer(t)
	base := "/v1/sessions/" + ts.store.Create().ID()

	timing := "lunchtime"
	w := ts.do(t, http.MethodPatch, base+"/fields", models.FieldsRequest{Timing: &timing})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	theme := "neon"
	w = ts.do(t, http.MethodPut, base+"/preferences", models.PreferencesRequest{Theme: &theme})
	require.Equal(t, http.StatusBadRequest, w.Code)
	problem := decode[models.Problem](t, w)
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "theme", problem.Errors[0].Field)
	assert.Equal(t, models.CodeInvalidEnum, problem.Errors[0].Code)

	w = ts.do(t, http.MethodGet, "/v1/sessions/ses_missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = ts.do(t, http.MethodDelete, "/v1/sessions/ses_missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_NotFound(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/v1/commutes", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
