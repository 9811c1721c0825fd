package forecast

import (
	"math"
	"strconv"
	"strings"

	"github.com/snowdaycalc/snowday/internal/estimator"
)

const (
	windowHours = 24

	mmPerInch       = 25.4
	traceSnowInches = 0.1

	// Snow below this share of total precipitation signals a rain/snow mix.
	mixedPrecipRatio = 0.7

	freezingRainMinF = 28
	freezingRainMaxF = 34

	// Peak hours at or below this combined amount (mm) don't count as a storm.
	minPeakAmountMm = 0.05

	overnightBeforeHour = 6
	morningBeforeHour   = 11
)

// Derived holds the estimator inputs a forecast can determine. Setting and
// school level are not among them.
type Derived struct {
	SnowInches float64
	LowTempF   int
	IceRisk    estimator.IceRisk
	Timing     estimator.Timing
}

// Apply overwrites the forecast-derived fields of in, leaving the rest alone.
func (d Derived) Apply(in estimator.Input) estimator.Input {
	in.SnowInches = d.SnowInches
	in.LowTempF = float64(d.LowTempF)
	in.IceRisk = d.IceRisk
	in.Timing = d.Timing
	return in
}

// DeriveInputs reduces the first 24 forecast hours to estimator inputs.
// Missing snowfall and precipitation samples count as zero; missing
// temperatures are skipped.
func DeriveInputs(s *Sample) Derived {
	if s == nil {
		s = &Sample{}
	}
	h := s.Hourly
	hours := min(windowHours, len(h.Snowfall))

	var snowMm, precipMm float64
	minTempF := math.Inf(1)
	peakIdx, peakAmount := -1, 0.0

	for i := 0; i < hours; i++ {
		snow := h.Snowfall.Or(i, 0)
		precip := h.Precipitation.Or(i, 0)
		snowMm += snow
		precipMm += precip

		if t, ok := h.Temperature.At(i); ok && t < minTempF {
			minTempF = t
		}
		if amount := snow + precip; amount > peakAmount {
			peakIdx, peakAmount = i, amount
		}
	}

	if math.IsInf(minTempF, 1) {
		minTempF = s.DailyMinTemperature.Or(0, estimator.DefaultLowTempF)
	}

	lowTempF := int(estimator.Clamp(
		math.Floor(minTempF+0.5), estimator.MinLowTempF, estimator.MaxLowTempF))

	return Derived{
		SnowInches: snowInches(snowMm),
		LowTempF:   lowTempF,
		IceRisk:    iceRisk(snowMm, precipMm, lowTempF),
		Timing:     timing(h.Time, peakIdx, peakAmount),
	}
}

func snowInches(snowMm float64) float64 {
	inches := snowMm / mmPerInch
	if inches > 0 && inches < traceSnowInches {
		inches = traceSnowInches
	}
	rounded := math.Floor(inches*10+0.5) / 10
	return estimator.Clamp(rounded, estimator.SnowRange.Min, estimator.SnowRange.Max)
}

func iceRisk(snowMm, precipMm float64, lowTempF int) estimator.IceRisk {
	risk := estimator.IceRiskLow
	if precipMm > 0 && snowMm > 0 && snowMm < precipMm*mixedPrecipRatio {
		risk = estimator.IceRiskMedium
	}
	if precipMm > 0 && lowTempF >= freezingRainMinF && lowTempF <= freezingRainMaxF {
		risk = estimator.IceRiskHigh
	}
	return risk
}

func timing(times []string, peakIdx int, peakAmount float64) estimator.Timing {
	if peakIdx < 0 || peakAmount <= minPeakAmountMm || peakIdx >= len(times) {
		return estimator.TimingDaytime
	}
	hour, ok := hourOf(times[peakIdx])
	if !ok {
		return estimator.TimingDaytime
	}
	switch {
	case hour < overnightBeforeHour:
		return estimator.TimingOvernight
	case hour < morningBeforeHour:
		return estimator.TimingMorning
	default:
		return estimator.TimingDaytime
	}
}

// hourOf extracts the hour from a local ISO-8601 timestamp such as
// "2025-01-14T02:00".
func hourOf(ts string) (int, bool) {
	_, clock, found := strings.Cut(ts, "T")
	if !found {
		return 0, false
	}
	end := 0
	for end < len(clock) && end < 2 && clock[end] >= '0' && clock[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	hour, err := strconv.Atoi(clock[:end])
	if err != nil {
		return 0, false
	}
	return hour, true
}
