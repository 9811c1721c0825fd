package session

import (
	"math"
	"strconv"
	"strings"

	"github.com/snowdaycalc/snowday/internal/estimator"
	"github.com/snowdaycalc/snowday/internal/forecast"
)

// Form is the full state of one estimator form. LowTemp is held in the
// display unit, exactly as the slider shows it.
type Form struct {
	Location    string                `json:"location"`
	SnowInches  float64               `json:"snowInches"`
	LowTemp     float64               `json:"lowTemp"`
	Unit        estimator.TempUnit    `json:"tempUnit"`
	IceRisk     estimator.IceRisk     `json:"iceRisk"`
	Timing      estimator.Timing      `json:"timing"`
	Setting     estimator.Setting     `json:"setting"`
	SchoolLevel estimator.SchoolLevel `json:"schoolLevel"`
	Theme       Theme                 `json:"theme"`
	Status      Status                `json:"status"`
}

// DefaultForm returns the form as first shown.
func DefaultForm() Form {
	return Form{
		SnowInches:  0,
		LowTemp:     estimator.DefaultLowTempF,
		Unit:        estimator.Fahrenheit,
		IceRisk:     estimator.IceRiskLow,
		Timing:      estimator.TimingOvernight,
		Setting:     estimator.SettingCity,
		SchoolLevel: estimator.SchoolHigh,
		Theme:       ThemeMidnight,
	}
}

// Range returns the low-temperature slider range for the current unit.
func (f *Form) Range() estimator.SliderRange {
	return estimator.LowTempRange(f.Unit)
}

// SetUnit switches the display unit, re-expressing LowTemp in it.
func (f *Form) SetUnit(u estimator.TempUnit) {
	if u == f.Unit || !u.Valid() {
		return
	}
	if u == estimator.Celsius {
		f.LowTemp = float64(estimator.FahrenheitToCelsius(f.LowTemp))
	} else {
		f.LowTemp = float64(estimator.CelsiusToFahrenheit(f.LowTemp))
	}
	f.Unit = u
}

// ApplyForecast overwrites the four forecast-derived fields. Setting and
// school level are left as the user chose them.
func (f *Form) ApplyForecast(place forecast.Place, d forecast.Derived) {
	f.SnowInches = d.SnowInches
	f.LowTemp = float64(d.LowTempF)
	if f.Unit == estimator.Celsius {
		f.LowTemp = float64(estimator.FahrenheitToCelsius(float64(d.LowTempF)))
	}
	f.IceRisk = d.IceRisk
	f.Timing = d.Timing
	f.Status = ForecastStatus(place)
}

// Input converts the form to estimator input. The slider value is converted
// to Fahrenheit without rounding.
func (f *Form) Input() estimator.Input {
	return estimator.Input{
		SnowInches:  f.SnowInches,
		LowTempF:    estimator.ToFahrenheit(f.LowTemp, f.Unit),
		IceRisk:     f.IceRisk,
		Timing:      f.Timing,
		Setting:     f.Setting,
		SchoolLevel: f.SchoolLevel,
	}
}

// Submit scores the current values.
func (f *Form) Submit() Submission {
	return Evaluate(f.Input(), f.Location)
}

// FieldUpdate carries a partial edit. Nil fields are left unchanged.
type FieldUpdate struct {
	SnowInches  *float64
	LowTemp     *float64
	IceRisk     *estimator.IceRisk
	Timing      *estimator.Timing
	Setting     *estimator.Setting
	SchoolLevel *estimator.SchoolLevel
}

// Apply validates u and writes it to f. Slider values are snapped to their
// step and clamped to their range. Nothing is written if any field is invalid.
func (u FieldUpdate) Apply(f *Form) error {
	if u.SnowInches != nil && !finite(*u.SnowInches) {
		return ErrInvalidSnow
	}
	if u.LowTemp != nil && !finite(*u.LowTemp) {
		return ErrInvalidTemperature
	}
	if u.IceRisk != nil && !u.IceRisk.Valid() {
		return estimator.ErrInvalidIceRisk
	}
	if u.Timing != nil && !u.Timing.Valid() {
		return estimator.ErrInvalidTiming
	}
	if u.Setting != nil && !u.Setting.Valid() {
		return estimator.ErrInvalidSetting
	}
	if u.SchoolLevel != nil && !u.SchoolLevel.Valid() {
		return estimator.ErrInvalidSchoolLevel
	}

	if u.SnowInches != nil {
		snow := math.Floor(*u.SnowInches*10+0.5) / 10
		f.SnowInches = estimator.Clamp(snow, estimator.SnowRange.Min, estimator.SnowRange.Max)
	}
	if u.LowTemp != nil {
		r := f.Range()
		f.LowTemp = estimator.Clamp(math.Floor(*u.LowTemp+0.5), float64(r.Min), float64(r.Max))
	}
	if u.IceRisk != nil {
		f.IceRisk = *u.IceRisk
	}
	if u.Timing != nil {
		f.Timing = *u.Timing
	}
	if u.Setting != nil {
		f.Setting = *u.Setting
	}
	if u.SchoolLevel != nil {
		f.SchoolLevel = *u.SchoolLevel
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Submission is a scored form, ready to render.
type Submission struct {
	estimator.Result

	// PercentText is the headline figure, e.g. "70%".
	PercentText   string
	LocationLabel string
	SchoolLabel   string

	// Input is what was scored.
	Input estimator.Input
}

// Evaluate scores in and attaches the display labels. location is the raw
// text of the location box.
func Evaluate(in estimator.Input, location string) Submission {
	res := estimator.Estimate(in)

	label := strings.TrimSpace(location)
	if label == "" {
		label = DefaultLocationLabel
	}

	return Submission{
		Result:        res,
		PercentText:   strconv.Itoa(res.Percent) + "%",
		LocationLabel: label,
		SchoolLabel:   in.SchoolLevel.Label(),
		Input:         in,
	}
}
