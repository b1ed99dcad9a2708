package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"epidash/internal/dashboard"
	"epidash/internal/geo"
	"epidash/internal/model"
	"epidash/pkg/router"

	"github.com/gorilla/websocket"
)

// SelectionRequest changes a session's selection. Omitted fields keep their
// current value; an explicit empty age_groups list is rejected.
type SelectionRequest struct {
	Period    *int     `json:"period,omitempty"`
	AgeGroups []string `json:"age_groups,omitempty"`
	Measure   string   `json:"measure,omitempty"`
}

func (req SelectionRequest) apply(base model.Selection) (model.Selection, error) {
	sel := base
	if req.Period != nil {
		sel.Period = *req.Period
	}
	if req.AgeGroups != nil {
		sel.AgeGroups = req.AgeGroups
	}
	if req.Measure != "" {
		m, err := model.ParseMeasure(req.Measure)
		if err != nil {
			return model.Selection{}, err
		}
		sel.Measure = m
	}
	return sel, nil
}

// SessionResponse is returned when a session is created.
type SessionResponse struct {
	Session dashboard.Snapshot `json:"session"`
	View    model.View         `json:"view"`
}

func decodeSelection(r *http.Request) (SelectionRequest, bool, error) {
	var req SelectionRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return req, false, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return req, false, nil
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, false, err
	}
	return req, true, nil
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*dashboard.Session, bool) {
	s, err := h.sessions.Get(router.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return s, true
}

// CreateSession opens a new dashboard session
// @Summary Create a session
// @Description Open a session on the default selection, optionally overridden by the body
// @Tags sessions
// @Accept json
// @Produce json
// @Param selection body SelectionRequest false "Initial selection"
// @Success 201 {object} SessionResponse "Session and its first view"
// @Failure 400 {object} ErrorResponse "Invalid selection"
// @Router /sessions [post]
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	req, present, err := decodeSelection(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	var initial *model.Selection
	if present {
		sel, err := req.apply(h.engine.DefaultSelection())
		if err != nil {
			h.fail(w, r, err)
			return
		}
		initial = &sel
	}

	s, view, err := h.sessions.Create(initial)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, SessionResponse{Session: s.Snapshot(), View: view})
}

// GetSession returns a session's selection and playback state
// @Summary Get a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} dashboard.Snapshot
// @Failure 404 {object} ErrorResponse "Unknown session"
// @Router /sessions/{id} [get]
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// DeleteSession stops playback and forgets a session
// @Summary Delete a session
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} ErrorResponse "Unknown session"
// @Router /sessions/{id} [delete]
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(router.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateSelection changes period, age groups or measure
// @Summary Update the selection
// @Description Recomputes the view. Period changes keep the colour scale; filter and measure changes recolour.
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param selection body SelectionRequest true "Selection changes"
// @Success 200 {object} model.View
// @Failure 400 {object} ErrorResponse "Invalid measure or empty age groups"
// @Failure 404 {object} ErrorResponse "Unknown session"
// @Router /sessions/{id}/selection [put]
func (h *Handler) UpdateSelection(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	req, _, err := decodeSelection(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	sel, err := req.apply(s.Snapshot().Selection)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	view, err := s.Update(sel)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetView returns the session's current view
// @Summary Get the current view
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} model.View
// @Failure 404 {object} ErrorResponse "Unknown session"
// @Router /sessions/{id}/view [get]
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// GetMap returns the current view joined onto the region geometry
// @Summary Get the choropleth map
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} map[string]interface{} "GeoJSON FeatureCollection"
// @Failure 404 {object} ErrorResponse "Unknown session"
// @Router /sessions/{id}/map [get]
func (h *Handler) GetMap(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	fc := geo.MergeView(h.engine.Dataset().Regions, s.View())
	body, err := fc.MarshalJSON()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(body)
}

// ExportView downloads the current view
// @Summary Export the current view
// @Description JSON exports the whole view; CSV exports one table (map, series or ranking)
// @Tags sessions
// @Produce json,text/csv
// @Param id path string true "Session ID"
// @Param format query string false "csv or json" default(json)
// @Param table query string false "map, series or ranking (CSV only)" default(map)
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse "Unknown format or table"
// @Failure 404 {object} ErrorResponse "Unknown session"
// @Router /sessions/{id}/export [get]
func (h *Handler) ExportView(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = dashboard.FormatJSON
	}
	table := r.URL.Query().Get("table")

	var buf bytes.Buffer
	if _, err := dashboard.ExportView(&buf, s.View(), format, table); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if format == dashboard.FormatCSV {
		if table == "" {
			table = dashboard.TableMap
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-%s.csv"`, s.ID, table))
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	w.Write(buf.Bytes())
}

// Playback controls the session's playback clock
// @Summary Control playback
// @Description start, stop, reset, or tick (advance one step by hand)
// @Tags playback
// @Produce json
// @Param id path string true "Session ID"
// @Param action path string true "start, stop, reset or tick"
// @Success 200 {object} model.View
// @Failure 404 {object} ErrorResponse "Unknown session or action"
// @Failure 409 {object} ErrorResponse "Playback finished or reset not allowed"
// @Router /sessions/{id}/playback/{action} [post]
func (h *Handler) Playback(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var view model.View
	var err error
	switch action := router.Vars(r)["action"]; action {
	case "start":
		view, err = s.Start()
	case "stop":
		view = s.Stop()
	case "reset":
		view, err = s.Reset()
	case "tick":
		view, _, err = s.Tick()
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown playback action %q", action))
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Stream pushes a view over a websocket after every change
// @Summary Stream views
// @Description Websocket; the current view is sent on connect, then one message per change
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 101
// @Failure 404 {object} ErrorResponse "Unknown session"
// @Router /sessions/{id}/stream [get]
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "session", s.ID, "err", err)
		return
	}
	defer conn.Close()

	frames, cancel := s.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-done:
			return
		case view, open := <-frames:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !open {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			if err := conn.WriteJSON(view); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					h.logger.Debug("websocket write failed", "session", s.ID, "err", err)
				}
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
