package model

import (
	"fmt"
	"time"
)

// User is an account that can request and hold equipment.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// Actor is the authenticated caller of a store operation. Admin is resolved
// once when the session is created and is not looked up again.
type Actor struct {
	UserID   int64
	Username string
	Admin    bool
}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// ValidatePassword checks password requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
