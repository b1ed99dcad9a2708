package api

import (
	"net/http"

	"epidash/internal/api/handler"
	"epidash/pkg/router"

	httpSwagger "github.com/swaggo/http-swagger"
)

const prefix = "/api/v1"

// RegisterRoutes mounts the dashboard API, the metrics endpoint and the
// swagger UI. metrics may be nil.
func RegisterRoutes(r *router.Router, h *handler.Handler, metrics http.Handler) {
	r.GET(prefix+"/meta", h.GetMeta)

	r.POST(prefix+"/sessions", h.CreateSession)
	r.GET(prefix+"/sessions/{id}", h.GetSession)
	r.DELETE(prefix+"/sessions/{id}", h.DeleteSession)
	r.PUT(prefix+"/sessions/{id}/selection", h.UpdateSelection)
	r.GET(prefix+"/sessions/{id}/view", h.GetView)
	r.GET(prefix+"/sessions/{id}/map", h.GetMap)
	r.GET(prefix+"/sessions/{id}/export", h.ExportView)
	r.GET(prefix+"/sessions/{id}/stream", h.Stream)
	r.POST(prefix+"/sessions/{id}/playback/{action}", h.Playback)

	r.POST(prefix+"/imports", h.CreateImport)
	r.GET(prefix+"/imports", h.ListImports)
	r.GET(prefix+"/imports/{id}", h.GetImport)
	r.GET(prefix+"/imports/{id}/errors", h.GetImportErrors)

	r.GET(prefix+"/votes/leaderboard", h.GetLeaderboard)
	r.GET(prefix+"/votes/palettes", h.GetPalettes)
	r.GET(prefix+"/votes/{name}/hourly", h.GetHourlyVotes)

	r.GET("/health", h.Health)
	if metrics != nil {
		r.GET("/metrics", metrics.ServeHTTP)
	}
	r.Prefix("/swagger/", httpSwagger.WrapHandler)
}
