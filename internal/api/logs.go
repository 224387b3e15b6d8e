package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

const defaultLogLimit = 100

// LogsHandler serves the audit log (admin only).
type LogsHandler struct {
	DB *sql.DB
}

// List handles GET /api/logs?limit=N.
func (h *LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultLogLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	logs, err := store.ListActionLogs(r.Context(), h.DB, limit)
	if err != nil {
		storeError(w, err, "failed to list action logs")
		return
	}
	if logs == nil {
		logs = []model.ActionLog{}
	}
	jsonResponse(w, http.StatusOK, logs)
}
