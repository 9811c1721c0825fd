package handler

import (
	"net/http"

	"github.com/snowdaycalc/snowday/internal/api/models"
	"github.com/snowdaycalc/snowday/internal/api/response"
	"github.com/snowdaycalc/snowday/internal/estimator"
	"github.com/snowdaycalc/snowday/internal/session"
)

var (
	iceRiskLabels = map[estimator.IceRisk]string{
		estimator.IceRiskLow:    "Low",
		estimator.IceRiskMedium: "Medium",
		estimator.IceRiskHigh:   "High",
	}
	timingLabels = map[estimator.Timing]string{
		estimator.TimingOvernight: "Overnight into morning",
		estimator.TimingMorning:   "During the morning commute",
		estimator.TimingDaytime:   "Mostly during the day",
	}
	settingLabels = map[estimator.Setting]string{
		estimator.SettingRural: "Rural / hilly",
		estimator.SettingCity:  "City / suburbs",
	}
	themeLabels = map[session.Theme]string{
		session.ThemeMidnight: "Midnight",
		session.ThemeFrost:    "Frost",
		session.ThemeSlate:    "Slate",
	}
)

// MetadataHandler handles metadata endpoints.
type MetadataHandler struct {
	enums models.Enums
}

// NewMetadataHandler creates a new MetadataHandler.
func NewMetadataHandler() *MetadataHandler {
	return &MetadataHandler{enums: buildEnums()}
}

// GetEnums handles GET /v1/metadata/enums - the values the form accepts,
// with display labels and slider ranges.
func (h *MetadataHandler) GetEnums(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, h.enums)
}

func buildEnums() models.Enums {
	enums := models.Enums{
		IceRisks:     options(estimator.IceRisks, func(v estimator.IceRisk) string { return iceRiskLabels[v] }),
		Timings:      options(estimator.Timings, func(v estimator.Timing) string { return timingLabels[v] }),
		Settings:     options(estimator.Settings, func(v estimator.Setting) string { return settingLabels[v] }),
		SchoolLevels: options(estimator.SchoolLevels, estimator.SchoolLevel.Label),
		Themes:       options(session.Themes, func(v session.Theme) string { return themeLabels[v] }),
		SnowRange: models.SliderRange{
			Unit: "in",
			Min:  estimator.SnowRange.Min,
			Max:  estimator.SnowRange.Max,
			Step: estimator.SnowRange.Step,
		},
	}

	for _, u := range estimator.TempUnits {
		enums.TempUnits = append(enums.TempUnits, models.TempUnitInfo{
			Value:        string(u),
			Symbol:       u.Symbol(),
			LowTempRange: toSliderRange(estimator.LowTempRange(u)),
		})
	}

	for _, t := range estimator.Tiers {
		enums.Tiers = append(enums.Tiers, models.TierInfo{
			Value:      string(t),
			MinPercent: t.MinPercent(),
			Verdict:    t.Message(),
		})
	}

	return enums
}

func options[T ~string](values []T, label func(T) string) []models.Option {
	out := make([]models.Option, len(values))
	for i, v := range values {
		out[i] = models.Option{Value: string(v), Label: label(v)}
	}
	return out
}
