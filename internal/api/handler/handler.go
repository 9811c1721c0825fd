// Package handler provides HTTP handlers for the snow day API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/snowdaycalc/snowday/internal/api/models"
	"github.com/snowdaycalc/snowday/internal/estimator"
	"github.com/snowdaycalc/snowday/internal/session"
)

// maxBodyBytes caps request bodies; every request model is a handful of fields.
const maxBodyBytes = 16 << 10

// decodeJSON reads a single JSON object from the request body into dst,
// rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid JSON body: trailing data")
	}
	return nil
}

// fieldErrors accumulates validation failures for one request.
type fieldErrors []models.FieldError

func (fe *fieldErrors) add(field, message, code string) {
	*fe = append(*fe, models.FieldError{Field: field, Message: message, Code: code})
}

// parseEnum parses raw with parse, recording a field error listing values
// when it fails. An empty raw leaves def in place.
func parseEnum[T ~string](fe *fieldErrors, field, raw string, values []T, parse func(string) (T, error), def T) T {
	if strings.TrimSpace(raw) == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		fe.add(field, "must be one of "+joinValues(values), models.CodeInvalidEnum)
		return def
	}
	return v
}

// parseOptionalEnum is parseEnum for PATCH-style pointer fields.
func parseOptionalEnum[T ~string](fe *fieldErrors, field string, raw *string, values []T, parse func(string) (T, error)) *T {
	if raw == nil {
		return nil
	}
	v, err := parse(*raw)
	if err != nil {
		fe.add(field, "must be one of "+joinValues(values), models.CodeInvalidEnum)
		return nil
	}
	return &v
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

func toStatus(s session.Status) models.Status {
	return models.Status{Message: s.Message, IsError: s.IsError}
}

func toSliderRange(r estimator.SliderRange) models.SliderRange {
	return models.SliderRange{
		Unit: string(r.Unit),
		Min:  float64(r.Min),
		Max:  float64(r.Max),
		Step: float64(r.Step),
	}
}

func toEstimate(sub session.Submission) models.Estimate {
	in := sub.Input
	return models.Estimate{
		Percent:       sub.Percent,
		PercentText:   sub.PercentText,
		Verdict:       sub.Verdict,
		Tier:          string(sub.Tier),
		Notes:         sub.Notes,
		Celebrate:     sub.Celebrate,
		LocationLabel: sub.LocationLabel,
		SchoolLabel:   sub.SchoolLabel,
		Input: models.EstimateInput{
			SnowInches:  in.SnowInches,
			LowTempF:    in.LowTempF,
			IceRisk:     string(in.IceRisk),
			Timing:      string(in.Timing),
			Setting:     string(in.Setting),
			SchoolLevel: string(in.SchoolLevel),
		},
	}
}

func toSession(snap session.Snapshot) models.Session {
	f := snap.Form
	return models.Session{
		ID: snap.ID,
		Form: models.Form{
			Location:    f.Location,
			SnowInches:  f.SnowInches,
			LowTemp:     f.LowTemp,
			TempUnit:    string(f.Unit),
			IceRisk:     string(f.IceRisk),
			Timing:      string(f.Timing),
			Setting:     string(f.Setting),
			SchoolLevel: string(f.SchoolLevel),
			Theme:       string(f.Theme),
			Status:      toStatus(f.Status),
		},
		Loading:      snap.Loading,
		UpdatedAt:    models.Timestamp(snap.UpdatedAt),
		LowTempRange: toSliderRange(f.Range()),
	}
}
