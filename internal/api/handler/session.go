package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/snowdaycalc/snowday/internal/api/models"
	"github.com/snowdaycalc/snowday/internal/api/response"
	"github.com/snowdaycalc/snowday/internal/estimator"
	"github.com/snowdaycalc/snowday/internal/session"
)

// SessionHandler serves form sessions: location autofill, field edits,
// preferences and submission.
type SessionHandler struct {
	store  *session.Store
	logger zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(store *session.Store, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{store: store, logger: logger}
}

// CreateSession handles POST /v1/sessions.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if h.store.Closed() {
		response.ServiceUnavailable(w, r, "server is shutting down")
		return
	}
	s := h.store.Create()
	response.Created(w, r, "/v1/sessions/"+s.ID(), toSession(s.Snapshot()))
}

// GetSession handles GET /v1/sessions/{sessionId}.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, toSession(s.Snapshot()))
}

// SetLocation handles PUT /v1/sessions/{sessionId}/location. The forecast
// lookup runs in the background; poll the session for the result.
func (h *SessionHandler) SetLocation(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req models.LocationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	snap, err := s.SetLocation(req.Location)
	h.writeSnapshot(w, r, snap, err)
}

// UpdateFields handles PATCH /v1/sessions/{sessionId}/fields.
func (h *SessionHandler) UpdateFields(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req models.FieldsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	var errs fieldErrors
	update := session.FieldUpdate{
		SnowInches:  req.SnowInches,
		LowTemp:     req.LowTemp,
		IceRisk:     parseOptionalEnum(&errs, "iceRisk", req.IceRisk, estimator.IceRisks, estimator.ParseIceRisk),
		Timing:      parseOptionalEnum(&errs, "timing", req.Timing, estimator.Timings, estimator.ParseTiming),
		Setting:     parseOptionalEnum(&errs, "setting", req.Setting, estimator.Settings, estimator.ParseSetting),
		SchoolLevel: parseOptionalEnum(&errs, "schoolLevel", req.SchoolLevel, estimator.SchoolLevels, estimator.ParseSchoolLevel),
	}
	if len(errs) > 0 {
		response.BadRequest(w, r, "invalid field update", errs)
		return
	}

	snap, err := s.UpdateFields(update)
	h.writeSnapshot(w, r, snap, err)
}

// SetPreferences handles PUT /v1/sessions/{sessionId}/preferences.
func (h *SessionHandler) SetPreferences(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req models.PreferencesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	var errs fieldErrors
	unit := parseOptionalEnum(&errs, "tempUnit", req.TempUnit, estimator.TempUnits, estimator.ParseTempUnit)
	theme := parseOptionalEnum(&errs, "theme", req.Theme, session.Themes, session.ParseTheme)
	if len(errs) > 0 {
		response.BadRequest(w, r, "invalid preferences", errs)
		return
	}

	snap, err := s.SetPreferences(unit, theme)
	h.writeSnapshot(w, r, snap, err)
}

// Submit handles POST /v1/sessions/{sessionId}/submit. It scores the current
// values and never waits for a pending forecast lookup.
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	sub, err := s.Submit()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toEstimate(sub))
}

// DeleteSession handles DELETE /v1/sessions/{sessionId}.
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(chi.URLParam(r, "sessionId")); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

func (h *SessionHandler) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.store.Get(chi.URLParam(r, "sessionId"))
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) writeSnapshot(w http.ResponseWriter, r *http.Request, snap session.Snapshot, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toSession(snap))
}

func (h *SessionHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrClosed):
		response.NotFound(w, r, "session not found")
	case errors.Is(err, session.ErrInvalidSnow):
		response.BadRequest(w, r, "invalid field update", []models.FieldError{
			{Field: "snowInches", Message: "must be a finite number", Code: models.CodeMalformed},
		})
	case errors.Is(err, session.ErrInvalidTemperature):
		response.BadRequest(w, r, "invalid field update", []models.FieldError{
			{Field: "lowTemp", Message: "must be a finite number", Code: models.CodeMalformed},
		})
	default:
		h.logger.Error().Err(err).Str("session_id", chi.URLParam(r, "sessionId")).Msg("session request failed")
		response.InternalError(w, r, "an unexpected error occurred")
	}
}
