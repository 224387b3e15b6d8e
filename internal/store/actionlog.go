package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/inventar/internal/model"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// appendLog records an action. It is called with the transaction of the
// mutation it describes so that both commit or neither does.
func appendLog(ctx context.Context, ex execer, userID *int64, action string) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO action_logs (user_id, action) VALUES (?, ?)`,
		userID, action,
	)
	if err != nil {
		return fmt.Errorf("writing action log: %w", err)
	}
	return nil
}

// LogAction appends a standalone entry, such as a login.
func LogAction(ctx context.Context, db *sql.DB, userID *int64, action string) error {
	return appendLog(ctx, db, userID, action)
}

// ListActionLogs returns the most recent log entries, newest first.
// A limit of zero or less returns every entry.
func ListActionLogs(ctx context.Context, db *sql.DB, limit int) ([]model.ActionLog, error) {
	query := `SELECT l.id, l.user_id, l.action, l.timestamp, COALESCE(u.username, '')
	          FROM action_logs l
	          LEFT JOIN users u ON u.id = l.user_id
	          ORDER BY l.id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing action logs: %w", err)
	}
	defer rows.Close()

	var logs []model.ActionLog
	for rows.Next() {
		var l model.ActionLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Action, &l.Timestamp, &l.Username); err != nil {
			return nil, fmt.Errorf("scanning action log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func actorID(actor model.Actor) *int64 {
	if actor.UserID == 0 {
		return nil
	}
	id := actor.UserID
	return &id
}
