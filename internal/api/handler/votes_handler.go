package handler

import (
	"net/http"
	"strconv"

	"epidash/internal/votes"
	"epidash/pkg/router"
)

// PaletteResponse holds the colours of the votes dashboard.
type PaletteResponse struct {
	Generations    map[int]string    `json:"generations"`
	Types          map[string]string `json:"types"`
	SpriteFallback string            `json:"sprite_fallback"`
}

// GetLeaderboard ranks Pokémon by votes
// @Summary Votes leaderboard
// @Tags votes
// @Produce json
// @Param limit query int false "Number of entries, all when omitted"
// @Success 200 {array} votes.Standing
// @Failure 400 {object} ErrorResponse "Invalid limit"
// @Router /votes/leaderboard [get]
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, votes.Leaderboard(h.votes, limit))
}

// GetHourlyVotes counts one Pokémon's votes per hour
// @Summary Hourly votes
// @Tags votes
// @Produce json
// @Param name path string true "Pokémon name"
// @Success 200 {array} votes.HourlyCount
// @Router /votes/{name}/hourly [get]
func (h *Handler) GetHourlyVotes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, votes.Hourly(h.votes, router.Vars(r)["name"]))
}

// GetPalettes returns generation and type colours
// @Summary Votes palettes
// @Tags votes
// @Produce json
// @Success 200 {object} PaletteResponse
// @Router /votes/palettes [get]
func (h *Handler) GetPalettes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PaletteResponse{
		Generations:    votes.GenerationPalette(),
		Types:          votes.TypePalette(),
		SpriteFallback: votes.SpriteFallback,
	})
}
