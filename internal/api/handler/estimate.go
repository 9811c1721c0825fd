package handler

import (
	"net/http"

	"github.com/snowdaycalc/snowday/internal/api/models"
	"github.com/snowdaycalc/snowday/internal/api/response"
	"github.com/snowdaycalc/snowday/internal/estimator"
	"github.com/snowdaycalc/snowday/internal/session"
)

// EstimateHandler scores form values without keeping any state.
type EstimateHandler struct{}

// NewEstimateHandler creates a new EstimateHandler.
func NewEstimateHandler() *EstimateHandler {
	return &EstimateHandler{}
}

// Estimate handles POST /v1/estimate.
func (h *EstimateHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	var req models.EstimateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	form, errs := formFromRequest(req)
	if len(errs) > 0 {
		response.BadRequest(w, r, "invalid estimate request", errs)
		return
	}

	response.JSON(w, r, http.StatusOK, toEstimate(form.Submit()))
}

// formFromRequest fills a default form from req. A missing low temperature
// stays at 32°F, expressed in the requested unit.
func formFromRequest(req models.EstimateRequest) (session.Form, fieldErrors) {
	var errs fieldErrors
	form := session.DefaultForm()
	form.Location = req.Location

	unit := parseEnum(&errs, "tempUnit", req.TempUnit, estimator.TempUnits, estimator.ParseTempUnit, estimator.Fahrenheit)
	form.SetUnit(unit)

	if req.SnowInches != nil {
		if *req.SnowInches < 0 {
			errs.add("snowInches", "must not be negative", models.CodeOutOfRange)
		} else {
			form.SnowInches = *req.SnowInches
		}
	}
	if req.LowTemp != nil {
		form.LowTemp = *req.LowTemp
	}

	form.IceRisk = parseEnum(&errs, "iceRisk", req.IceRisk, estimator.IceRisks, estimator.ParseIceRisk, form.IceRisk)
	form.Timing = parseEnum(&errs, "timing", req.Timing, estimator.Timings, estimator.ParseTiming, form.Timing)
	form.Setting = parseEnum(&errs, "setting", req.Setting, estimator.Settings, estimator.ParseSetting, form.Setting)
	form.SchoolLevel = parseEnum(&errs, "schoolLevel", req.SchoolLevel, estimator.SchoolLevels, estimator.ParseSchoolLevel, form.SchoolLevel)

	return form, errs
}
