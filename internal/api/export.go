package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/inventar/internal/export"
	"github.com/erazemk/inventar/internal/store"
)

// maxRestoreBytes caps the size of an uploaded JSON export.
const maxRestoreBytes = 10 << 20

// ExportHandler serves inventory exports and restores (admin only).
type ExportHandler struct {
	DB        *sql.DB
	Labels    export.Labels
	Snapshots Snapshotter
}

// CSV handles GET /api/export/csv.
func (h *ExportHandler) CSV(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListItems(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to list items")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=inventory.csv")
	if err := export.WriteCSV(w, items, h.Labels); err != nil {
		slog.Error("failed to write CSV export", "error", err)
	}
}

// JSON handles GET /api/export/json.
func (h *ExportHandler) JSON(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListItems(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to list items")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=inventory.json")
	if err := export.WriteJSON(w, items); err != nil {
		slog.Error("failed to write JSON export", "error", err)
	}
}

// Snapshot handles POST /api/export/snapshot.
func (h *ExportHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	if h.Snapshots == nil {
		jsonError(w, http.StatusServiceUnavailable, "snapshot storage not configured")
		return
	}

	items, err := store.ListItems(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to list items")
		return
	}

	keys, err := h.Snapshots.Snapshot(r.Context(), items, time.Now())
	if err != nil {
		slog.Error("snapshot upload failed", "error", err, "uploaded", keys)
		jsonError(w, http.StatusBadGateway, "snapshot upload failed")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("snapshot uploaded", "user", claims.Username, "keys", keys)
	jsonResponse(w, http.StatusCreated, map[string]any{"keys": keys})
}

// Restore handles POST /api/import/json with a body produced by the JSON
// export. Either every item is inserted or none is.
func (h *ExportHandler) Restore(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRestoreBytes)
	defer r.Body.Close()

	items, err := export.ReadJSON(r.Body)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid export document")
		return
	}

	claims := GetClaims(r.Context())
	n, err := store.RestoreItems(r.Context(), h.DB, items, claims.Actor())
	if err != nil {
		storeError(w, err, "failed to restore items")
		return
	}

	slog.Info("items restored", "user", claims.Username, "count", n)
	jsonResponse(w, http.StatusCreated, map[string]int{"restored": n})
}
