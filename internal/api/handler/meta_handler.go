package handler

import (
	"net/http"

	"epidash/internal/model"
)

// MetaResponse describes what can be selected.
type MetaResponse struct {
	Measures       []string        `json:"measures"`
	DefaultMeasure string          `json:"default_measure"`
	AgeGroups      []string        `json:"age_groups"`
	Periods        []int           `json:"periods"`
	MinPeriod      int             `json:"min_period"`
	MaxPeriod      int             `json:"max_period"`
	Regions        int             `json:"regions"`
	Facilities     int             `json:"facilities"`
	Default        model.Selection `json:"default_selection"`
}

// GetMeta lists measures, age groups and the period domain
// @Summary Dataset metadata
// @Tags meta
// @Produce json
// @Success 200 {object} MetaResponse
// @Router /meta [get]
func (h *Handler) GetMeta(w http.ResponseWriter, r *http.Request) {
	data := h.engine.Dataset()
	measures := make([]string, 0, model.MeasureCount)
	for _, m := range model.Measures() {
		measures = append(measures, m.String())
	}
	lo, hi := data.PeriodBounds()
	writeJSON(w, http.StatusOK, MetaResponse{
		Measures:       measures,
		DefaultMeasure: model.DefaultMeasure.String(),
		AgeGroups:      data.AgeGroups(),
		Periods:        data.Periods(),
		MinPeriod:      lo,
		MaxPeriod:      hi,
		Regions:        len(data.Regions),
		Facilities:     len(data.Facilities),
		Default:        h.engine.DefaultSelection(),
	})
}

// Health reports liveness and the number of open sessions
// @Summary Health check
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": h.sessions.Len(),
	})
}
