package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"epidash/internal/model"
	"epidash/pkg/router"

	"github.com/google/uuid"
)

// ImportResponse acknowledges a started import run.
type ImportResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) catalogReady(w http.ResponseWriter) bool {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "no import catalog configured")
		return false
	}
	return true
}

// CreateImport starts an import run in the background
// @Summary Start an import
// @Description Import simulation CSVs into the catalog. Sessions see new data after a restart.
// @Tags imports
// @Accept json
// @Produce json
// @Param import body model.ImportSpec true "Import configuration"
// @Success 202 {object} ImportResponse "Import started"
// @Failure 400 {object} ErrorResponse "Invalid request payload"
// @Failure 503 {object} ErrorResponse "No catalog"
// @Router /imports [post]
func (h *Handler) CreateImport(w http.ResponseWriter, r *http.Request) {
	if h.store == nil || h.runner == nil {
		writeError(w, http.StatusServiceUnavailable, "imports are disabled")
		return
	}
	var spec model.ImportSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if len(spec.Sources) == 0 {
		writeError(w, http.StatusBadRequest, "At least one source is required")
		return
	}

	id := uuid.New().String()
	h.background(func(ctx context.Context) {
		if _, err := h.runner.RunWithID(ctx, id, spec); err != nil {
			h.logger.Error("background import failed", "import", id, "err", err)
		}
	})

	writeJSON(w, http.StatusAccepted, ImportResponse{
		ID:        id,
		Status:    model.ImportPending,
		CreatedAt: time.Now().UTC(),
	})
}

// ListImports retrieves all import runs
// @Summary List imports
// @Description Get every import run with its status, newest first
// @Tags imports
// @Produce json
// @Success 200 {array} model.ImportRun "Import runs"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /imports [get]
func (h *Handler) ListImports(w http.ResponseWriter, r *http.Request) {
	if !h.catalogReady(w) {
		return
	}
	runs, err := h.store.ListImports()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// GetImport retrieves one import run
// @Summary Get import
// @Tags imports
// @Produce json
// @Param id path string true "Import ID"
// @Success 200 {object} model.ImportRun "Import run"
// @Failure 404 {object} ErrorResponse "Import not found"
// @Router /imports/{id} [get]
func (h *Handler) GetImport(w http.ResponseWriter, r *http.Request) {
	if !h.catalogReady(w) {
		return
	}
	run, err := h.store.GetImport(router.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// GetImportErrors retrieves the rejected rows of an import run
// @Summary Get import errors
// @Description Retrieve all errors recorded while the import ran
// @Tags imports
// @Produce json
// @Param id path string true "Import ID"
// @Success 200 {array} model.ImportError "Import errors"
// @Failure 404 {object} ErrorResponse "Import not found"
// @Router /imports/{id}/errors [get]
func (h *Handler) GetImportErrors(w http.ResponseWriter, r *http.Request) {
	if !h.catalogReady(w) {
		return
	}
	id := router.Vars(r)["id"]
	if _, err := h.store.GetImport(id); err != nil {
		h.fail(w, r, err)
		return
	}
	errs, err := h.store.GetImportErrors(id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, errs)
}
