package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"epidash/internal/dashboard"
	"epidash/internal/model"
	"epidash/internal/pipeline"
	"epidash/internal/store"
	"epidash/internal/votes"

	"github.com/gorilla/websocket"
)

// Handler serves the dashboard API. Store and Runner may be nil when the
// server runs without a catalog; the import routes then answer 503.
type Handler struct {
	engine   *dashboard.Engine
	sessions *dashboard.Manager
	store    *store.Store
	runner   *pipeline.Runner
	votes    []votes.Vote
	logger   *slog.Logger
	upgrader websocket.Upgrader

	background func(func(ctx context.Context))
}

// Deps are the collaborators of a Handler.
type Deps struct {
	Engine   *dashboard.Engine
	Sessions *dashboard.Manager
	Store    *store.Store
	Runner   *pipeline.Runner
	Votes    []votes.Vote
	Logger   *slog.Logger

	// Background runs accepted imports. nil starts a goroutine per import.
	Background func(func(ctx context.Context))
}

func New(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	background := d.Background
	if background == nil {
		background = func(fn func(ctx context.Context)) { go fn(context.Background()) }
	}
	return &Handler{
		engine:   d.Engine,
		sessions: d.Sessions,
		store:    d.Store,
		runner:   d.Runner,
		votes:    d.Votes,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		background: background,
	}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidMeasure),
		errors.Is(err, model.ErrNoAgeGroups),
		errors.Is(err, model.ErrEmptySelection):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrUnknownSession),
		errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound
	case errors.Is(err, model.ErrPlaybackFinished),
		errors.Is(err, model.ErrResetUnsupported):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("❌ request failed", "path", r.URL.Path, "err", err)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}
