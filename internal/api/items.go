package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/inventar/internal/imaging"
	"github.com/erazemk/inventar/internal/metrics"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	DB      *sql.DB
	Metrics *metrics.Metrics
}

type createItemRequest struct {
	InventoryNumber string `json:"inventory_number"`
	Name            string `json:"name"`
	Condition       string `json:"condition"`
}

type updateItemRequest struct {
	Name        string `json:"name"`
	Condition   string `json:"condition"`
	AssignedTo  *int64 `json:"assigned_to"`
	IsAvailable bool   `json:"is_available"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListItems(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Mine handles GET /api/me/items.
func (h *ItemsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	items, err := store.ListAssignedItems(r.Context(), h.DB, claims.UserID)
	if err != nil {
		storeError(w, err, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	item, err := store.CreateItem(r.Context(), h.DB, req.InventoryNumber, req.Name, req.Condition, claims.Actor())
	if err != nil {
		storeError(w, err, "failed to create item")
		return
	}

	slog.Info("item created", "user", claims.Username, "inventory_number", item.InventoryNumber)
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	item, err := store.EditItem(r.Context(), h.DB, id, store.ItemEdit{
		Name:       req.Name,
		Condition:  req.Condition,
		AssignedTo: req.AssignedTo,
		Available:  req.IsAvailable,
	}, claims.Actor())
	if err != nil {
		storeError(w, err, "failed to update item")
		return
	}

	slog.Info("item edited", "user", claims.Username, "inventory_number", item.InventoryNumber)
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	claims := GetClaims(r.Context())
	if err := store.DeleteItem(r.Context(), h.DB, id, claims.Actor()); err != nil {
		storeError(w, err, "failed to delete item")
		return
	}

	slog.Info("item deleted", "user", claims.Username, "item_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// Return handles POST /api/items/{id}/return.
func (h *ItemsHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	claims := GetClaims(r.Context())
	item, err := store.ReturnItem(r.Context(), h.DB, id, claims.Actor())
	h.Metrics.Outcome("return", err, classifyWorkflowError)
	if err != nil {
		storeError(w, err, "failed to return item")
		return
	}

	slog.Info("item returned", "user", claims.Username, "inventory_number", item.InventoryNumber)
	jsonResponse(w, http.StatusOK, item)
}

// UploadImage handles PUT /api/items/{id}/image. The photo is sent as the
// "image" field of a multipart form.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	limit := imaging.DefaultOptions.MaxBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(limit); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Process(file, imaging.DefaultOptions)
	switch {
	case errors.Is(err, imaging.ErrTooLarge):
		jsonError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	case errors.Is(err, imaging.ErrUnsupported):
		jsonError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	case err != nil:
		jsonError(w, http.StatusBadRequest, "invalid image")
		return
	}

	if err := store.SetItemImage(r.Context(), h.DB, id, photo.Data, photo.MIME); err != nil {
		storeError(w, err, "failed to save image")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	data, mime, err := store.GetItemImage(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}
