package model

import (
	"regexp"
	"time"
)

// Item is a single piece of sports equipment, tracked individually by its
// inventory number.
type Item struct {
	ID              int64     `json:"id"`
	InventoryNumber string    `json:"inventory_number"`
	Name            string    `json:"name"`
	Condition       string    `json:"condition"`
	IsAvailable     bool      `json:"is_available"`
	AssignedTo      *int64    `json:"assigned_to"`
	ImageMime       string    `json:"image_mime,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Item conditions.
const (
	ConditionNew            = "new"
	ConditionInUse          = "in_use"
	ConditionBroken         = "broken"
	ConditionDecommissioned = "decommissioned"
)

// DefaultItemName is used when an item is saved without a name.
const DefaultItemName = "Unnamed"

var inventoryNumberRe = regexp.MustCompile(`^[0-9\-./]+$`)

// ValidInventoryNumber reports whether s consists only of digits, '-', '.' and '/'.
func ValidInventoryNumber(s string) bool {
	return inventoryNumberRe.MatchString(s)
}

// ValidCondition reports whether c is a known item condition.
func ValidCondition(c string) bool {
	switch c {
	case ConditionNew, ConditionInUse, ConditionBroken, ConditionDecommissioned:
		return true
	}
	return false
}
