package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
)

const settingSessionKey = "session_signing_key"

// SessionSigningKey returns the key used to sign session tokens, creating and
// storing a random one on first use.
func SessionSigningKey(ctx context.Context, db *sql.DB) (string, error) {
	return settingOrDefault(ctx, db, settingSessionKey, func() (string, error) {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generating session key: %w", err)
		}
		return hex.EncodeToString(buf), nil
	})
}

// settingOrDefault stores the generated value only if key is unset and then
// reads back whatever is stored, so two processes starting at once agree.
func settingOrDefault(ctx context.Context, db *sql.DB, key string, generate func() (string, error)) (string, error) {
	candidate, err := generate()
	if err != nil {
		return "", err
	}

	_, err = db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		key, candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing setting %s: %w", key, err)
	}

	var value string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("reading setting %s: %w", key, err)
	}
	return value, nil
}
