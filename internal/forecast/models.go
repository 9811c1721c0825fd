// Package forecast resolves a typed location to a short-range forecast and
// reduces that forecast to estimator inputs.
package forecast

import (
	"errors"
	"time"
)

// Forecast errors.
var (
	ErrNotFound   = errors.New("location not found")
	ErrUpstream   = errors.New("forecast provider unavailable")
	ErrEmptyQuery = errors.New("empty location query")
)

// Place is a geocoded location.
type Place struct {
	Name      string
	Country   string
	Latitude  float64
	Longitude float64
}

// Label returns "Name, Country", falling back to "your location" when the
// geocoder gave no name.
func (p Place) Label() string {
	name := p.Name
	if name == "" {
		name = "your location"
	}
	if p.Country != "" {
		return name + ", " + p.Country
	}
	return name
}

// Sample is one forecast fetch. Hourly series are index-aligned with Hourly.Time.
type Sample struct {
	Place Place

	Hourly Hourly

	// DailyMinTemperature is in Fahrenheit; element 0 is the first forecast day.
	DailyMinTemperature Series

	// Timezone is the IANA zone the hourly timestamps are local to.
	Timezone string

	FetchedAt time.Time
}

// Hourly holds hourly forecast series.
type Hourly struct {
	// Time holds local ISO-8601 timestamps, e.g. "2025-01-14T02:00".
	Time []string

	// Snowfall in millimetres per hour.
	Snowfall Series

	// Precipitation in millimetres per hour.
	Precipitation Series

	// Temperature in Fahrenheit.
	Temperature Series
}
