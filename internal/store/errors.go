package store

import (
	"errors"
	"strings"
)

// Expected outcomes of store operations. Callers match them with errors.Is;
// anything else returned by this package is a storage failure.
var (
	ErrInvalidInventoryNumber   = errors.New("inventory number may only contain digits, '-', '.' and '/'")
	ErrInvalidCondition         = errors.New("invalid item condition")
	ErrDuplicateInventoryNumber = errors.New("inventory number already exists")
	ErrItemNotFound             = errors.New("item not found")
	ErrConflict                 = errors.New("item is not available")
	ErrUnknownRequestType       = errors.New("unknown request type")
	ErrPermissionDenied         = errors.New("permission denied")
	ErrAlreadyProcessed         = errors.New("request already processed")
	ErrRequestNotFound          = errors.New("request not found")
	ErrUserNotFound             = errors.New("user not found")
	ErrDuplicateUsername        = errors.New("username already exists")
	ErrPurchasePlanNotFound     = errors.New("purchase plan not found")
	ErrAlreadyReceived          = errors.New("purchase plan already received")
	ErrInvalidPrice             = errors.New("planned price must not be negative")
)

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
