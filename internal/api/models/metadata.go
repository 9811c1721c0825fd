package models

// Option is an enum value with its display label.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// TempUnitInfo describes a temperature unit and its low-temperature slider.
type TempUnitInfo struct {
	Value        string      `json:"value"`
	Symbol       string      `json:"symbol"`
	LowTempRange SliderRange `json:"lowTempRange"`
}

// TierInfo describes a verdict tier.
type TierInfo struct {
	Value      string `json:"value"`
	MinPercent int    `json:"minPercent"`
	Verdict    string `json:"verdict"`
}

// Enums lists the values accepted and returned by the API.
type Enums struct {
	IceRisks     []Option       `json:"iceRisks"`
	Timings      []Option       `json:"timings"`
	Settings     []Option       `json:"settings"`
	SchoolLevels []Option       `json:"schoolLevels"`
	Themes       []Option       `json:"themes"`
	TempUnits    []TempUnitInfo `json:"tempUnits"`
	Tiers        []TierInfo     `json:"tiers"`
	SnowRange    SliderRange    `json:"snowRange"`
}
