package handler

import (
	"net/http"
	"strconv"

	"github.com/jonboulle/clockwork"

	"github.com/snowdaycalc/snowday/internal/api/models"
	"github.com/snowdaycalc/snowday/internal/api/response"
	"github.com/snowdaycalc/snowday/internal/provider/resilience"
	"github.com/snowdaycalc/snowday/internal/session"
)

// OpsConfig holds dependencies for the operational endpoints. Registry and
// Store are optional.
type OpsConfig struct {
	Version   string
	BuildTime string
	Registry  *resilience.Registry
	Store     *session.Store
	Clock     clockwork.Clock
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
	store     *session.Store
	clock     clockwork.Clock
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &OpsHandler{
		version:   cfg.Version,
		buildTime: cfg.BuildTime,
		registry:  cfg.Registry,
		store:     cfg.Store,
		clock:     cfg.Clock,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.clock.Now()),
		Details: map[string]any{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready. The service stops being ready
// once the session store is closed during shutdown. Upstream outages do not
// affect readiness since estimates still work without a forecast.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.clock.Now()),
	}
	if h.store != nil && h.store.Closed() {
		health.Status = models.HealthStatusFail
		health.Details = map[string]any{"reason": "shutting down"}
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
// Any unhealthy provider degrades the overall status: autofill is affected
// but manual estimates are not.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(h.clock.Now()),
		Subsystems: []models.SubsystemStatus{{Name: "estimator", Status: models.HealthStatusOK}},
		Providers:  []models.ProviderStatus{},
	}

	if h.store != nil {
		sessions := models.SubsystemStatus{Name: "sessions", Status: models.HealthStatusOK}
		detail := strconv.Itoa(h.store.Len()) + " active"
		if h.store.Closed() {
			sessions.Status = models.HealthStatusFail
			detail = "closed"
			status.Status = models.HealthStatusFail
		}
		sessions.Detail = &detail
		status.Subsystems = append(status.Subsystems, sessions)
	}

	if h.registry != nil {
		for _, ph := range h.registry.GetAllHealth() {
			ps := toProviderStatus(ph)
			if ps.Status != models.HealthStatusOK && status.Status == models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
			}
			status.Providers = append(status.Providers, ps)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func toProviderStatus(ph *resilience.ProviderHealth) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:            ph.Name,
		Status:              models.HealthStatusOK,
		CircuitState:        ph.CircuitState.String(),
		ConsecutiveFailures: ph.Counts.ConsecutiveFailures,
		LastSuccessAt:       models.TimestampPtr(ph.LastSuccessAt),
		LastFailureAt:       models.TimestampPtr(ph.LastFailureAt),
	}
	switch ph.Status() {
	case resilience.StatusUnhealthy:
		ps.Status = models.HealthStatusFail
	case resilience.StatusDegraded:
		ps.Status = models.HealthStatusDegraded
	}
	if ph.LastError != "" {
		msg := ph.LastError
		ps.Message = &msg
	}
	return ps
}
