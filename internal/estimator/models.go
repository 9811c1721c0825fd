// Package estimator scores how likely a snow day is from a handful of
// forecast and school inputs.
package estimator

import (
	"errors"
	"strings"
)

// Estimator errors.
var (
	ErrInvalidIceRisk     = errors.New("invalid ice risk")
	ErrInvalidTiming      = errors.New("invalid timing")
	ErrInvalidSetting     = errors.New("invalid setting")
	ErrInvalidSchoolLevel = errors.New("invalid school level")
	ErrInvalidTempUnit    = errors.New("invalid temperature unit")
)

// MaxSnowInches is the snow amount at which snow points saturate.
const MaxSnowInches = 14.0

// DefaultLowTempF is used when no temperature was supplied.
const DefaultLowTempF = 32.0

// Input holds everything the estimator scores. Temperature is always Fahrenheit.
type Input struct {
	SnowInches  float64
	LowTempF    float64
	IceRisk     IceRisk
	Timing      Timing
	Setting     Setting
	SchoolLevel SchoolLevel
}

// Result is the outcome of one Estimate call.
type Result struct {
	// Percent is the clamped score in [0,100].
	Percent int

	// Notes has one entry per scoring factor, in factor order:
	// snow, ice, temperature, timing, setting, school level.
	Notes []string

	Verdict string
	Tier    Tier

	// Celebrate is a presentation hint for near-certain snow days.
	Celebrate bool
}

// IceRisk is the forecast ice hazard.
type IceRisk string

const (
	IceRiskLow    IceRisk = "low"
	IceRiskMedium IceRisk = "medium"
	IceRiskHigh   IceRisk = "high"
)

// IceRisks lists ice risk levels from least to most severe.
var IceRisks = []IceRisk{IceRiskLow, IceRiskMedium, IceRiskHigh}

// Valid reports whether r is a known ice risk.
func (r IceRisk) Valid() bool {
	switch r {
	case IceRiskLow, IceRiskMedium, IceRiskHigh:
		return true
	default:
		return false
	}
}

// ParseIceRisk parses an ice risk, ignoring case and surrounding space.
func ParseIceRisk(s string) (IceRisk, error) {
	r := IceRisk(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrInvalidIceRisk
	}
	return r, nil
}

// Timing is when the heaviest snow is expected.
type Timing string

const (
	TimingOvernight Timing = "overnight"
	TimingMorning   Timing = "morning"
	TimingDaytime   Timing = "daytime"
)

// Timings lists all timing values.
var Timings = []Timing{TimingOvernight, TimingMorning, TimingDaytime}

// Valid reports whether t is a known timing.
func (t Timing) Valid() bool {
	switch t {
	case TimingOvernight, TimingMorning, TimingDaytime:
		return true
	default:
		return false
	}
}

// ParseTiming parses a timing value.
func ParseTiming(s string) (Timing, error) {
	t := Timing(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidTiming
	}
	return t, nil
}

// Setting describes the district's road network.
type Setting string

const (
	SettingRural Setting = "rural"
	SettingCity  Setting = "city"
)

// Settings lists all setting values.
var Settings = []Setting{SettingRural, SettingCity}

// Valid reports whether s is a known setting.
func (s Setting) Valid() bool {
	return s == SettingRural || s == SettingCity
}

// ParseSetting parses a setting value.
func ParseSetting(s string) (Setting, error) {
	v := Setting(strings.ToLower(strings.TrimSpace(s)))
	if !v.Valid() {
		return "", ErrInvalidSetting
	}
	return v, nil
}

// SchoolLevel is the kind of school being asked about.
type SchoolLevel string

const (
	SchoolElementary SchoolLevel = "elementary"
	SchoolMiddle     SchoolLevel = "middle"
	SchoolHigh       SchoolLevel = "high"
	SchoolCollege    SchoolLevel = "college"
)

// SchoolLevels lists all school levels.
var SchoolLevels = []SchoolLevel{SchoolElementary, SchoolMiddle, SchoolHigh, SchoolCollege}

// Valid reports whether l is a known school level.
func (l SchoolLevel) Valid() bool {
	switch l {
	case SchoolElementary, SchoolMiddle, SchoolHigh, SchoolCollege:
		return true
	default:
		return false
	}
}

// Label returns the display label for the school level.
func (l SchoolLevel) Label() string {
	switch l {
	case SchoolElementary:
		return "Elementary school"
	case SchoolMiddle:
		return "Middle school"
	case SchoolHigh:
		return "High school"
	case SchoolCollege:
		return "College / university"
	default:
		return string(l)
	}
}

// ParseSchoolLevel parses a school level.
func ParseSchoolLevel(s string) (SchoolLevel, error) {
	l := SchoolLevel(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", ErrInvalidSchoolLevel
	}
	return l, nil
}

// Tier is a verdict bucket. Tiers are ordered from most to least likely.
type Tier string

const (
	TierAlmostGuaranteed Tier = "almost_guaranteed"
	TierLookingGood      Tier = "looking_good"
	TierCoinFlip         Tier = "coin_flip"
	TierLeaningSchool    Tier = "leaning_school"
	TierProbablySchool   Tier = "probably_school"
)

// Tiers lists all verdict tiers, highest first.
var Tiers = []Tier{TierAlmostGuaranteed, TierLookingGood, TierCoinFlip, TierLeaningSchool, TierProbablySchool}
