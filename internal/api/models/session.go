package models

// Session is a form session as returned by the /v1/sessions endpoints.
type Session struct {
	ID        string    `json:"id"`
	Form      Form      `json:"form"`
	Loading   bool      `json:"loading"`
	UpdatedAt Timestamp `json:"updatedAt"`

	// LowTempRange is the slider range in the form's current unit.
	LowTempRange SliderRange `json:"lowTempRange"`
}

// Form is the current field values of a session. LowTemp is in TempUnit.
type Form struct {
	Location    string  `json:"location"`
	SnowInches  float64 `json:"snowInches"`
	LowTemp     float64 `json:"lowTemp"`
	TempUnit    string  `json:"tempUnit"`
	IceRisk     string  `json:"iceRisk"`
	Timing      string  `json:"timing"`
	Setting     string  `json:"setting"`
	SchoolLevel string  `json:"schoolLevel"`
	Theme       string  `json:"theme"`
	Status      Status  `json:"status"`
}

// LocationRequest is the body of PUT /v1/sessions/{sessionId}/location.
type LocationRequest struct {
	Location string `json:"location"`
}

// FieldsRequest is the body of PATCH /v1/sessions/{sessionId}/fields. Omitted
// fields are left unchanged.
type FieldsRequest struct {
	SnowInches  *float64 `json:"snowInches,omitempty"`
	LowTemp     *float64 `json:"lowTemp,omitempty"`
	IceRisk     *string  `json:"iceRisk,omitempty"`
	Timing      *string  `json:"timing,omitempty"`
	Setting     *string  `json:"setting,omitempty"`
	SchoolLevel *string  `json:"schoolLevel,omitempty"`
}

// PreferencesRequest is the body of PUT /v1/sessions/{sessionId}/preferences.
type PreferencesRequest struct {
	TempUnit *string `json:"tempUnit,omitempty"`
	Theme    *string `json:"theme,omitempty"`
}
