package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/inventar/internal/store"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

var errorStatus = []struct {
	err    error
	status int
}{
	{store.ErrInvalidInventoryNumber, http.StatusBadRequest},
	{store.ErrInvalidCondition, http.StatusBadRequest},
	{store.ErrInvalidPrice, http.StatusBadRequest},
	{store.ErrDuplicateInventoryNumber, http.StatusConflict},
	{store.ErrDuplicateUsername, http.StatusConflict},
	{store.ErrConflict, http.StatusConflict},
	{store.ErrAlreadyProcessed, http.StatusConflict},
	{store.ErrAlreadyReceived, http.StatusConflict},
	{store.ErrItemNotFound, http.StatusNotFound},
	{store.ErrRequestNotFound, http.StatusNotFound},
	{store.ErrUserNotFound, http.StatusNotFound},
	{store.ErrPurchasePlanNotFound, http.StatusNotFound},
	{store.ErrPermissionDenied, http.StatusForbidden},
	{store.ErrUnknownRequestType, http.StatusUnprocessableEntity},
}

// storeError maps a store error to a status code and writes it. Unknown
// errors are logged and reported as internal errors with the given message.
func storeError(w http.ResponseWriter, err error, internalMsg string) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			jsonError(w, e.status, err.Error())
			return
		}
	}
	slog.Error(internalMsg, "error", err)
	jsonError(w, http.StatusInternalServerError, internalMsg)
}
