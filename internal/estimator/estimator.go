package estimator

import (
	"fmt"
	"math"
	"strconv"
)

// Factor points.
const (
	pointsPerSnowInch = 5.0

	iceMediumPoints = 10
	iceHighPoints   = 20

	bitterColdF      = 10.0
	bitterColdPoints = 10
	coldF            = 25.0
	coldPoints       = 5

	overnightPoints = 15
	morningPoints   = 8

	ruralPoints = 10

	elementaryPoints = 10
	middlePoints     = 5
	collegePoints    = -10
)

// Verdict thresholds, evaluated high to low.
const (
	almostGuaranteedAt = 85
	lookingGoodAt      = 65
	coinFlipAt         = 45
	leaningSchoolAt    = 25

	celebrateAt = 99
)

// Estimate scores the input. It is pure: the same input always yields the same
// result, notes included.
func Estimate(in Input) Result {
	notes := make([]string, 0, 6)
	score := 0.0

	snowPoints := math.Min(in.SnowInches, MaxSnowInches) * pointsPerSnowInch
	score += snowPoints
	notes = append(notes, fmt.Sprintf("%s\" of snow in the forecast (+%s)",
		formatFixed(in.SnowInches, 1), formatFixed(snowPoints, 0)))

	pts, note := scoreIce(in.IceRisk)
	score += float64(pts)
	notes = append(notes, note)

	pts, note = scoreTemperature(in.LowTempF)
	score += float64(pts)
	notes = append(notes, note)

	pts, note = scoreTiming(in.Timing)
	score += float64(pts)
	notes = append(notes, note)

	pts, note = scoreSetting(in.Setting)
	score += float64(pts)
	notes = append(notes, note)

	pts, note = scoreSchool(in.SchoolLevel)
	score += float64(pts)
	notes = append(notes, note)

	percent := clampInt(roundHalfUp(score), 0, 100)
	tier := TierFor(percent)

	return Result{
		Percent:   percent,
		Notes:     notes,
		Verdict:   tier.Message(),
		Tier:      tier,
		Celebrate: percent >= celebrateAt,
	}
}

func scoreIce(r IceRisk) (int, string) {
	switch r {
	case IceRiskMedium:
		return iceMediumPoints, "Some ice / slush on roads (+10)"
	case IceRiskHigh:
		return iceHighPoints, "Freezing rain / serious ice risk (+20)"
	default:
		return 0, "Mostly straight snow, little ice (+0)"
	}
}

func scoreTemperature(tempF float64) (int, string) {
	shown := roundHalfUp(tempF)
	switch {
	case tempF <= bitterColdF:
		return bitterColdPoints, fmt.Sprintf("Brutally cold (≤ %d°F) (+10)", shown)
	case tempF <= coldF:
		return coldPoints, fmt.Sprintf("Pretty cold (%d°F) (+5)", shown)
	default:
		return 0, fmt.Sprintf("Not crazy cold (%d°F) (+0)", shown)
	}
}

func scoreTiming(t Timing) (int, string) {
	switch t {
	case TimingOvernight:
		return overnightPoints, "Heaviest snow overnight before buses (+15)"
	case TimingMorning:
		return morningPoints, "Still snowing around bus / commute time (+8)"
	default:
		return 0, "Snow mainly during school or later (+0)"
	}
}

func scoreSetting(s Setting) (int, string) {
	if s == SettingRural {
		return ruralPoints, "Lots of back roads & buses (+10)"
	}
	return 0, "City/suburban roads get plowed faster (+0)"
}

func scoreSchool(l SchoolLevel) (int, string) {
	switch l {
	case SchoolElementary:
		return elementaryPoints, "Elementary kids → admin more cautious (+10)"
	case SchoolMiddle:
		return middlePoints, "Middle school (+5)"
	case SchoolHigh:
		return 0, "High school (baseline, +0)"
	default:
		return collegePoints, "Colleges almost never close (−10)"
	}
}

// TierFor maps a percent to its verdict tier.
func TierFor(percent int) Tier {
	switch {
	case percent >= almostGuaranteedAt:
		return TierAlmostGuaranteed
	case percent >= lookingGoodAt:
		return TierLookingGood
	case percent >= coinFlipAt:
		return TierCoinFlip
	case percent >= leaningSchoolAt:
		return TierLeaningSchool
	default:
		return TierProbablySchool
	}
}

// Message returns the verdict text shown for the tier.
func (t Tier) Message() string {
	switch t {
	case TierAlmostGuaranteed:
		return "🔥 Almost guaranteed snow day. Start planning the snacks."
	case TierLookingGood:
		return "Looking really good. Might not need that alarm."
	case TierCoinFlip:
		return "Total coin flip. Check school alerts before bed."
	case TierLeaningSchool:
		return "Leaning toward school, maybe a delay at best."
	default:
		return "Yeah… probably school. Sorry. Charge your Chromebook."
	}
}

// MinPercent returns the lowest percent that falls in the tier.
func (t Tier) MinPercent() int {
	switch t {
	case TierAlmostGuaranteed:
		return almostGuaranteedAt
	case TierLookingGood:
		return lookingGoodAt
	case TierCoinFlip:
		return coinFlipAt
	case TierLeaningSchool:
		return leaningSchoolAt
	default:
		return 0
	}
}

// roundHalfUp rounds to the nearest integer, with halves going toward +Inf.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// formatFixed formats x with the given number of decimals, rounding halves up.
func formatFixed(x float64, decimals int) string {
	p := math.Pow10(decimals)
	return strconv.FormatFloat(math.Floor(x*p+0.5)/p, 'f', decimals, 64)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
