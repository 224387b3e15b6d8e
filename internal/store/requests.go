package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/inventar/internal/model"
)

const requestColumns = `id, user_id, request_type, inventory_number, comment, status,
	created_at, decided_by, decided_at`

// requestOrder lists pending requests first, then approved, then rejected,
// newest first within each status.
const requestOrder = ` ORDER BY CASE status
	WHEN 'pending' THEN 0
	WHEN 'approved' THEN 1
	ELSE 2 END, created_at DESC, id DESC`

func scanRequest(s rowScanner) (*model.Request, error) {
	r := &model.Request{}
	err := s.Scan(&r.ID, &r.UserID, &r.RequestType, &r.InventoryNumber, &r.Comment, &r.Status,
		&r.CreatedAt, &r.DecidedBy, &r.DecidedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// SubmitRequest stores a new pending request. Neither the request type nor
// the inventory number is checked here; both are resolved on approval.
func SubmitRequest(ctx context.Context, db *sql.DB, userID int64, requestType, inventoryNumber, comment string) (*model.Request, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO requests (user_id, request_type, inventory_number, comment) VALUES (?, ?, ?, ?)`,
		userID, requestType, strings.TrimSpace(inventoryNumber), comment,
	)
	if err != nil {
		return nil, fmt.Errorf("submitting request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting request id: %w", err)
	}
	return GetRequest(ctx, db, id)
}

// GetRequest returns a request by ID, or nil if it does not exist.
func GetRequest(ctx context.Context, db *sql.DB, id int64) (*model.Request, error) {
	r, err := scanRequest(db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting request: %w", err)
	}
	return r, nil
}

// ListRequests returns the requests owned by a user.
func ListRequests(ctx context.Context, db *sql.DB, userID int64) ([]model.Request, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE user_id = ?`+requestOrder, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	defer rows.Close()
	return scanRequests(rows)
}

// ListAllRequests returns every request, for the admin view.
func ListAllRequests(ctx context.Context, db *sql.DB) ([]model.Request, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM requests`+requestOrder,
	)
	if err != nil {
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	defer rows.Close()
	return scanRequests(rows)
}

func scanRequests(rows *sql.Rows) ([]model.Request, error) {
	var requests []model.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning request: %w", err)
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}
