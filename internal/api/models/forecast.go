package models

// Forecast is the response of GET /v1/forecast. Place and Inputs are omitted
// when the query was too short to look up.
type Forecast struct {
	Query     string          `json:"query"`
	Status    Status          `json:"status"`
	Place     *Place          `json:"place,omitempty"`
	Inputs    *ForecastInputs `json:"inputs,omitempty"`
	Timezone  string          `json:"timezone,omitempty"`
	FetchedAt *Timestamp      `json:"fetchedAt,omitempty"`
}

// Place is a geocoded location.
type Place struct {
	Name      string  `json:"name"`
	Country   string  `json:"country,omitempty"`
	Label     string  `json:"label"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ForecastInputs are the estimator fields derived from a forecast. LowTemp is
// in TempUnit.
type ForecastInputs struct {
	SnowInches float64 `json:"snowInches"`
	LowTemp    int     `json:"lowTemp"`
	TempUnit   string  `json:"tempUnit"`
	IceRisk    string  `json:"iceRisk"`
	Timing     string  `json:"timing"`
}
