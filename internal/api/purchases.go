package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

// PurchasesHandler handles the purchase plan (admin only).
type PurchasesHandler struct {
	DB *sql.DB
}

type createPurchaseRequest struct {
	ItemName     string `json:"item_name"`
	SupplierName string `json:"supplier_name"`
	// PlannedPrice is a decimal string such as "129.90".
	PlannedPrice string `json:"planned_price"`
}

// List handles GET /api/purchases.
func (h *PurchasesHandler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := store.ListPurchasePlans(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to list purchase plans")
		return
	}
	if plans == nil {
		plans = []model.PurchasePlan{}
	}
	jsonResponse(w, http.StatusOK, plans)
}

// Create handles POST /api/purchases.
func (h *PurchasesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPurchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	price, err := decimal.NewFromString(req.PlannedPrice)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid planned price")
		return
	}

	claims := GetClaims(r.Context())
	plan, err := store.CreatePurchasePlan(r.Context(), h.DB, req.ItemName, req.SupplierName, price, claims.Actor())
	if err != nil {
		storeError(w, err, "failed to create purchase plan")
		return
	}

	slog.Info("purchase planned", "user", claims.Username, "item", plan.ItemName, "price", plan.PlannedPrice.String())
	jsonResponse(w, http.StatusCreated, plan)
}

// Receive handles POST /api/purchases/{id}/receive.
func (h *PurchasesHandler) Receive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid purchase plan id")
		return
	}

	claims := GetClaims(r.Context())
	plan, err := store.MarkPurchaseReceived(r.Context(), h.DB, id, claims.Actor())
	if err != nil {
		storeError(w, err, "failed to mark purchase received")
		return
	}

	slog.Info("purchase received", "user", claims.Username, "item", plan.ItemName)
	jsonResponse(w, http.StatusOK, plan)
}
