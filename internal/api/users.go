package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/inventar/internal/metrics"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

// UsersHandler handles user management endpoints (admin only).
type UsersHandler struct {
	DB      *sql.DB
	Metrics *metrics.Metrics
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// Delete handles DELETE /api/users/{id}. Items held by the user go back to
// the pool.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	claims := GetClaims(r.Context())
	released, err := store.DeleteUser(r.Context(), h.DB, id, claims.Actor())
	h.Metrics.Outcome("delete_user", err, classifyWorkflowError)
	if err != nil {
		storeError(w, err, "failed to delete user")
		return
	}

	slog.Info("user deleted", "user", claims.Username, "deleted_user_id", id, "released_items", released)
	jsonResponse(w, http.StatusOK, map[string]any{"message": "user deleted", "released_items": released})
}
