package models

// EstimateRequest is the body of POST /v1/estimate. Omitted fields take the
// form defaults; LowTemp is in TempUnit and defaults to 32°F.
type EstimateRequest struct {
	Location    string   `json:"location,omitempty"`
	SnowInches  *float64 `json:"snowInches,omitempty"`
	LowTemp     *float64 `json:"lowTemp,omitempty"`
	TempUnit    string   `json:"tempUnit,omitempty"`
	IceRisk     string   `json:"iceRisk,omitempty"`
	Timing      string   `json:"timing,omitempty"`
	Setting     string   `json:"setting,omitempty"`
	SchoolLevel string   `json:"schoolLevel,omitempty"`
}

// Estimate is a scored snow day likelihood.
type Estimate struct {
	Percent       int      `json:"percent"`
	PercentText   string   `json:"percentText"`
	Verdict       string   `json:"verdict"`
	Tier          string   `json:"tier"`
	Notes         []string `json:"notes"`
	Celebrate     bool     `json:"celebrate"`
	LocationLabel string   `json:"locationLabel"`
	SchoolLabel   string   `json:"schoolLabel"`

	// Input echoes the values that were scored, temperature in Fahrenheit.
	Input EstimateInput `json:"input"`
}

// EstimateInput is the normalized estimator input.
type EstimateInput struct {
	SnowInches  float64 `json:"snowInches"`
	LowTempF    float64 `json:"lowTempF"`
	IceRisk     string  `json:"iceRisk"`
	Timing      string  `json:"timing"`
	Setting     string  `json:"setting"`
	SchoolLevel string  `json:"schoolLevel"`
}
