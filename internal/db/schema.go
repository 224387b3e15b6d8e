package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    full_name     TEXT NOT NULL DEFAULT '',
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS items (
    id               INTEGER PRIMARY KEY,
    inventory_number TEXT NOT NULL UNIQUE,
    name             TEXT NOT NULL,
    condition        TEXT NOT NULL DEFAULT 'new' CHECK (condition IN ('new', 'in_use', 'broken', 'decommissioned')),
    is_available     INTEGER NOT NULL DEFAULT 1 CHECK (is_available IN (0, 1)),
    assigned_to      INTEGER REFERENCES users(id) ON DELETE SET NULL,
    image            BLOB,
    image_mime       TEXT,
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    CHECK (assigned_to IS NULL OR is_available = 0)
);

CREATE INDEX IF NOT EXISTS idx_items_assigned_to ON items(assigned_to);

CREATE TABLE IF NOT EXISTS requests (
    id               INTEGER PRIMARY KEY,
    user_id          INTEGER REFERENCES users(id) ON DELETE SET NULL,
    request_type     TEXT NOT NULL,
    inventory_number TEXT NOT NULL,
    comment          TEXT NOT NULL DEFAULT '',
    status           TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    decided_by       INTEGER REFERENCES users(id) ON DELETE SET NULL,
    decided_at       DATETIME
);

CREATE INDEX IF NOT EXISTS idx_requests_user_id ON requests(user_id);

CREATE TABLE IF NOT EXISTS purchase_plans (
    id            INTEGER PRIMARY KEY,
    item_name     TEXT NOT NULL,
    supplier_name TEXT NOT NULL DEFAULT '',
    planned_price TEXT NOT NULL DEFAULT '0',
    status        TEXT NOT NULL DEFAULT 'planned' CHECK (status IN ('planned', 'received')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    received_at   DATETIME
);

CREATE TABLE IF NOT EXISTS action_logs (
    id        INTEGER PRIMARY KEY,
    user_id   INTEGER REFERENCES users(id) ON DELETE SET NULL,
    action    TEXT NOT NULL,
    timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
