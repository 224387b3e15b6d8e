package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/inventar/internal/metrics"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

// RequestsHandler handles the request queue and its approval workflow.
type RequestsHandler struct {
	DB      *sql.DB
	Metrics *metrics.Metrics
}

type createRequestRequest struct {
	RequestType     string `json:"request_type"`
	InventoryNumber string `json:"inventory_number"`
	Comment         string `json:"comment"`
}

var workflowErrorLabels = map[error]string{
	store.ErrConflict:           "conflict",
	store.ErrAlreadyProcessed:   "already_processed",
	store.ErrItemNotFound:       "item_not_found",
	store.ErrUserNotFound:       "user_not_found",
	store.ErrRequestNotFound:    "request_not_found",
	store.ErrUnknownRequestType: "unknown_type",
	store.ErrPermissionDenied:   "denied",
}

func classifyWorkflowError(err error) string {
	return metrics.ErrorLabel(err, workflowErrorLabels)
}

// Create handles POST /api/requests. Any type and inventory number are
// accepted; they are checked when an admin approves the request. Admins
// cannot file requests, so nobody approves their own.
func (h *RequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	if claims.Admin {
		jsonError(w, http.StatusForbidden, "admins manage items directly")
		return
	}
	created, err := store.SubmitRequest(r.Context(), h.DB, claims.UserID, req.RequestType, req.InventoryNumber, req.Comment)
	if err != nil {
		storeError(w, err, "failed to submit request")
		return
	}

	slog.Info("request submitted", "user", claims.Username, "type", created.RequestType, "inventory_number", created.InventoryNumber)
	jsonResponse(w, http.StatusCreated, created)
}

// List handles GET /api/requests. Admins see every request, others their own.
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var requests []model.Request
	var err error
	if claims.Admin {
		requests, err = store.ListAllRequests(r.Context(), h.DB)
	} else {
		requests, err = store.ListRequests(r.Context(), h.DB, claims.UserID)
	}
	if err != nil {
		storeError(w, err, "failed to list requests")
		return
	}
	if requests == nil {
		requests = []model.Request{}
	}
	jsonResponse(w, http.StatusOK, requests)
}

// Approve handles POST /api/requests/{id}/approve.
func (h *RequestsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	claims := GetClaims(r.Context())
	item, err := store.ApproveRequest(r.Context(), h.DB, id, claims.Actor())
	h.Metrics.Outcome("approve", err, classifyWorkflowError)
	if err != nil {
		storeError(w, err, "failed to approve request")
		return
	}

	slog.Info("request approved", "user", claims.Username, "request_id", id, "inventory_number", item.InventoryNumber)
	jsonResponse(w, http.StatusOK, item)
}

// Reject handles POST /api/requests/{id}/reject.
func (h *RequestsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	claims := GetClaims(r.Context())
	err = store.RejectRequest(r.Context(), h.DB, id, claims.Actor())
	h.Metrics.Outcome("reject", err, classifyWorkflowError)
	if err != nil {
		storeError(w, err, "failed to reject request")
		return
	}

	slog.Info("request rejected", "user", claims.Username, "request_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "request rejected"})
}
