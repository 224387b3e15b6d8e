package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchasePlan is a planned equipment purchase.
type PurchasePlan struct {
	ID           int64           `json:"id"`
	ItemName     string          `json:"item_name"`
	SupplierName string          `json:"supplier_name"`
	PlannedPrice decimal.Decimal `json:"planned_price"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	ReceivedAt   *time.Time      `json:"received_at,omitempty"`
}

// Purchase plan statuses.
const (
	PurchasePlanned  = "planned"
	PurchaseReceived = "received"
)
