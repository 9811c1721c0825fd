package openmeteo

import "github.com/snowdaycalc/snowday/internal/forecast"

// Open-Meteo API response structures.

type geocodingResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Country   string  `json:"country"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type forecastResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Hourly    struct {
		Time          []string        `json:"time"`
		Snowfall      forecast.Series `json:"snowfall"`
		Precipitation forecast.Series `json:"precipitation"`
		Temperature   forecast.Series `json:"temperature_2m"`
	} `json:"hourly"`
	Daily struct {
		Time           []string        `json:"time"`
		TemperatureMin forecast.Series `json:"temperature_2m_min"`
	} `json:"daily"`
}
