// Package records exposes workspace-scoped versioned record mutations.
// All writes go through the optimistic concurrency engine instead of raw
// updates.
package records

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pulseboard/pulseboard/internal/occ"
	"github.com/pulseboard/pulseboard/internal/platform/httpx"
	"github.com/pulseboard/pulseboard/internal/shared"
)

// Table backing workspace records.
const recordsTable = "workspace_records"

// Handler serves record mutation endpoints.
type Handler struct {
	engine *occ.Engine
	logger *slog.Logger
}

// NewHandler constructs the records handler.
func NewHandler(engine *occ.Engine, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

type updateRequest struct {
	Version int64          `json:"version"`
	Patch   map[string]any `json:"patch"`
	Retry   bool           `json:"retry"`
}

// Update handles PATCH /api/workspaces/{workspaceID}/records/{recordID}.
// A stale version answers 409 with the current state so the caller can
// re-read and retry; with retry=true the engine retries server-side.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "recordID")
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || recordID == "" || len(req.Patch) == 0 {
		httpx.Error(w, http.StatusBadRequest, httpx.KindBadRequest, "record id, version and patch required")
		return
	}

	var result occ.UpdateResult
	var err error
	if req.Retry {
		result, err = h.engine.RetryingUpdate(r.Context(), recordsTable, recordID, func(current *occ.Record) (map[string]any, error) {
			return req.Patch, nil
		}, occ.DefaultRetryOptions)
	} else {
		result, err = h.engine.Update(r.Context(), recordsTable, recordID, req.Version, req.Patch)
	}
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, httpx.KindBadRequest, "record not found")
			return
		}
		h.logger.Error("record update", slog.String("record_id", recordID), slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, httpx.KindInternal, "record update failed")
		return
	}
	if result.Conflict {
		httpx.ErrorWith(w, http.StatusConflict, httpx.KindConflict, "version conflict", map[string]any{
			"currentVersion": result.CurrentVersion,
			"data":           result.Record,
		})
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// CheckConflict handles GET .../records/{recordID}/conflict?version=N,
// a side-effect-free pre-flight before constructing a patch.
func (h *Handler) CheckConflict(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "recordID")
	version, err := strconv.ParseInt(r.URL.Query().Get("version"), 10, 64)
	if err != nil || recordID == "" {
		httpx.Error(w, http.StatusBadRequest, httpx.KindBadRequest, "record id and version required")
		return
	}
	conflict, current, err := h.engine.CheckConflict(r.Context(), recordsTable, recordID, version)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, httpx.KindBadRequest, "record not found")
			return
		}
		h.logger.Error("conflict check", slog.String("record_id", recordID), slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, httpx.KindInternal, "conflict check failed")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"conflict": conflict, "currentVersion": current})
}

type batchRequest struct {
	Updates []occ.BatchItem `json:"updates"`
}

// BatchUpdate handles POST /api/records/batch. Items apply independently
// and sequentially; partial application is expected behavior.
func (h *Handler) BatchUpdate(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || len(req.Updates) == 0 {
		httpx.Error(w, http.StatusBadRequest, httpx.KindBadRequest, "updates required")
		return
	}
	for i := range req.Updates {
		req.Updates[i].Table = recordsTable
	}
	result, err := h.engine.BatchUpdate(r.Context(), req.Updates)
	if err != nil {
		h.logger.Error("batch update", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, httpx.KindInternal, "batch update failed")
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
