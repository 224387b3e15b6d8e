package model

import "time"

// ActionLog is one entry of the append-only audit trail.
type ActionLog struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"user_id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`

	// Joined field (empty when the user was deleted).
	Username string `json:"username,omitempty"`
}
