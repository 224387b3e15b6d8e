package model

import "time"

// Request is a user's request to receive an item or to have one repaired.
// InventoryNumber is free text and is only resolved when an admin approves.
type Request struct {
	ID              int64      `json:"id"`
	UserID          *int64     `json:"user_id"`
	RequestType     string     `json:"request_type"`
	InventoryNumber string     `json:"inventory_number"`
	Comment         string     `json:"comment"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	DecidedBy       *int64     `json:"decided_by,omitempty"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
}

// Request types.
const (
	RequestGetItem    = "get_item"
	RequestRepairItem = "repair_item"
)

// Request statuses.
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)
