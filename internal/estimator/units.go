package estimator

import "strings"

// TempUnit is the unit temperatures are displayed in. Scoring always uses Fahrenheit.
type TempUnit string

const (
	Fahrenheit TempUnit = "fahrenheit"
	Celsius    TempUnit = "celsius"
)

// TempUnits lists the supported display units.
var TempUnits = []TempUnit{Fahrenheit, Celsius}

// Low temperature slider bounds, in Fahrenheit.
const (
	MinLowTempF = -10
	MaxLowTempF = 40
)

// Valid reports whether u is a supported unit.
func (u TempUnit) Valid() bool {
	return u == Fahrenheit || u == Celsius
}

// Symbol returns the unit suffix, e.g. "°F".
func (u TempUnit) Symbol() string {
	if u == Celsius {
		return "°C"
	}
	return "°F"
}

// ParseTempUnit parses a unit name. "f"/"c" shorthands are accepted.
func ParseTempUnit(s string) (TempUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fahrenheit", "f":
		return Fahrenheit, nil
	case "celsius", "c":
		return Celsius, nil
	default:
		return "", ErrInvalidTempUnit
	}
}

// FahrenheitToCelsius converts for display, rounding to a whole degree.
func FahrenheitToCelsius(f float64) int {
	return roundHalfUp((f - 32) * 5 / 9)
}

// CelsiusToFahrenheit converts a displayed Celsius value back, rounding to a
// whole degree. A F→C→F round trip may be off by one degree.
func CelsiusToFahrenheit(c float64) int {
	return roundHalfUp(c*9/5 + 32)
}

// ToFahrenheit returns v, expressed in unit u, as an unrounded Fahrenheit value.
// This is the value that gets scored.
func ToFahrenheit(v float64, u TempUnit) float64 {
	if u == Celsius {
		return v*9/5 + 32
	}
	return v
}

// SliderRange describes the low-temperature slider for a display unit.
type SliderRange struct {
	Unit TempUnit
	Min  int
	Max  int
	Step int
}

// LowTempRange returns the slider range for the unit.
func LowTempRange(u TempUnit) SliderRange {
	if u == Celsius {
		return SliderRange{
			Unit: Celsius,
			Min:  FahrenheitToCelsius(MinLowTempF),
			Max:  FahrenheitToCelsius(MaxLowTempF),
			Step: 1,
		}
	}
	return SliderRange{Unit: Fahrenheit, Min: MinLowTempF, Max: MaxLowTempF, Step: 1}
}

// SnowRange is the snow amount slider, in inches.
var SnowRange = struct {
	Min, Max, Step float64
}{Min: 0, Max: MaxSnowInches, Step: 0.1}
