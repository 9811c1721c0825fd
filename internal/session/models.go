// Package session holds ephemeral, in-memory estimator forms. A session mirrors
// one person filling in the form: sliders, dropdowns, a location box that
// autofills from the forecast, and display preferences.
package session

import (
	"errors"
	"strings"

	"github.com/snowdaycalc/snowday/internal/forecast"
)

// Session errors.
var (
	ErrNotFound           = errors.New("session not found")
	ErrClosed             = errors.New("session closed")
	ErrInvalidTheme       = errors.New("invalid theme")
	ErrInvalidSnow        = errors.New("invalid snow amount")
	ErrInvalidTemperature = errors.New("invalid temperature")
)

// Autofill status messages.
const (
	StatusLoading = "Grabbing forecast…"
	StatusFailed  = "Could not load weather for that location. You can still move sliders manually."

	// DefaultLocationLabel is shown when no location was typed.
	DefaultLocationLabel = "Your location"
)

// Status is the autofill line shown under the location box.
type Status struct {
	Message string `json:"message"`
	IsError bool   `json:"isError"`
}

// ForecastStatus is the status shown after a forecast for p was applied.
func ForecastStatus(p forecast.Place) Status {
	return Status{Message: "Using forecast for " + p.Label() + ". You can still tweak sliders."}
}

// Theme is a display preference with no effect on scoring.
type Theme string

const (
	ThemeMidnight Theme = "midnight"
	ThemeFrost    Theme = "frost"
	ThemeSlate    Theme = "slate"
)

// Themes lists the available themes.
var Themes = []Theme{ThemeMidnight, ThemeFrost, ThemeSlate}

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	switch t {
	case ThemeMidnight, ThemeFrost, ThemeSlate:
		return true
	default:
		return false
	}
}

// ParseTheme parses a theme name, ignoring case and surrounding space.
func ParseTheme(s string) (Theme, error) {
	t := Theme(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidTheme
	}
	return t, nil
}
