package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/inventar/internal/model"
)

// ApproveRequest resolves a pending request against the item it names.
//
// A get_item request hands an available item to the requester; a repair_item
// request takes the item out of circulation as broken, whoever holds it.
// When the item is missing or already taken, or the type is unknown, the
// request stays pending and the matching error is returned. The item, the
// request and the audit entry change in one transaction. The returned item is
// the state committed by that transaction.
func ApproveRequest(ctx context.Context, db *sql.DB, requestID int64, actor model.Actor) (*model.Item, error) {
	if !actor.Admin {
		return nil, ErrPermissionDenied
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	req, err := scanRequest(tx.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = ?`, requestID,
	))
	if err == sql.ErrNoRows {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading request: %w", err)
	}
	if req.Status != model.RequestPending {
		return nil, ErrAlreadyProcessed
	}

	item, err := scanItem(tx.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE inventory_number = ?`, req.InventoryNumber,
	))
	if err == sql.ErrNoRows {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading item: %w", err)
	}

	var action string
	switch req.RequestType {
	case model.RequestGetItem:
		if req.UserID == nil {
			return nil, ErrUserNotFound
		}
		if !item.IsAvailable {
			return nil, ErrConflict
		}
		// Compare-and-set on availability: a concurrent approval that got
		// here first leaves nothing to update.
		result, err := tx.ExecContext(ctx,
			`UPDATE items SET assigned_to = ?, is_available = 0, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND is_available = 1`,
			*req.UserID, item.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("assigning item: %w", err)
		}
		if n, err := result.RowsAffected(); err != nil {
			return nil, fmt.Errorf("assigning item: %w", err)
		} else if n == 0 {
			return nil, ErrConflict
		}
		action = fmt.Sprintf("Approved request %d: issued item #%s to user %d", req.ID, item.InventoryNumber, *req.UserID)

	case model.RequestRepairItem:
		_, err := tx.ExecContext(ctx,
			`UPDATE items SET is_available = 0, condition = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`,
			model.ConditionBroken, item.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("marking item for repair: %w", err)
		}
		action = fmt.Sprintf("Approved request %d: item #%s sent for repair", req.ID, item.InventoryNumber)

	default:
		return nil, ErrUnknownRequestType
	}

	if err := decideRequest(ctx, tx, req.ID, model.RequestApproved, actor); err != nil {
		return nil, err
	}
	if err := appendLog(ctx, tx, actorID(actor), action); err != nil {
		return nil, err
	}

	updated, err := scanItem(tx.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, item.ID,
	))
	if err != nil {
		return nil, fmt.Errorf("reloading item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing approval: %w", err)
	}
	return updated, nil
}

// RejectRequest rejects a pending request. Items are not touched.
func RejectRequest(ctx context.Context, db *sql.DB, requestID int64, actor model.Actor) error {
	if !actor.Admin {
		return ErrPermissionDenied
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM requests WHERE id = ?`, requestID,
	).Scan(&status)
	if err == sql.ErrNoRows {
		return ErrRequestNotFound
	}
	if err != nil {
		return fmt.Errorf("loading request: %w", err)
	}
	if status != model.RequestPending {
		return ErrAlreadyProcessed
	}

	if err := decideRequest(ctx, tx, requestID, model.RequestRejected, actor); err != nil {
		return err
	}
	if err := appendLog(ctx, tx, actorID(actor), fmt.Sprintf("Rejected request %d", requestID)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing rejection: %w", err)
	}
	return nil
}

// decideRequest moves a request out of pending. The status guard in the
// WHERE clause keeps a decided request from being decided again.
func decideRequest(ctx context.Context, tx *sql.Tx, requestID int64, status string, actor model.Actor) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE requests SET status = ?, decided_by = ?, decided_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'pending'`,
		status, actorID(actor), requestID,
	)
	if err != nil {
		return fmt.Errorf("updating request status: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("updating request status: %w", err)
	} else if n == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}

// ReturnItem gives an item back. Only the user currently holding it may
// return it.
func ReturnItem(ctx context.Context, db *sql.DB, itemID int64, actor model.Actor) (*model.Item, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := scanItem(tx.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, itemID,
	))
	if err == sql.ErrNoRows {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading item: %w", err)
	}
	if item.AssignedTo == nil || *item.AssignedTo != actor.UserID {
		return nil, ErrPermissionDenied
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET assigned_to = NULL, is_available = 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND assigned_to = ?`,
		itemID, actor.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("returning item: %w", err)
	}

	if err := appendLog(ctx, tx, actorID(actor), "Returned item #"+item.InventoryNumber); err != nil {
		return nil, err
	}

	updated, err := scanItem(tx.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, itemID,
	))
	if err != nil {
		return nil, fmt.Errorf("reloading item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing return: %w", err)
	}
	return updated, nil
}

// DeleteUser removes a user account. Every item the user holds is released
// and the user's pending requests are rejected in the same transaction, so no
// item is left pointing at a removed user. Decided requests and log entries
// keep their rows with the user reference cleared.
func DeleteUser(ctx context.Context, db *sql.DB, userID int64, actor model.Actor) (released int64, err error) {
	if !actor.Admin {
		return 0, ErrPermissionDenied
	}
	if userID == actor.UserID {
		return 0, ErrPermissionDenied
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var username string
	err = tx.QueryRowContext(ctx,
		`SELECT username FROM users WHERE id = ?`, userID,
	).Scan(&username)
	if err == sql.ErrNoRows {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("loading user: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE items SET assigned_to = NULL, is_available = 1, updated_at = CURRENT_TIMESTAMP
		 WHERE assigned_to = ?`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("releasing items: %w", err)
	}
	released, err = result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("releasing items: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE requests SET status = 'rejected', decided_by = ?, decided_at = CURRENT_TIMESTAMP
		 WHERE user_id = ? AND status = 'pending'`,
		actorID(actor), userID,
	)
	if err != nil {
		return 0, fmt.Errorf("rejecting pending requests: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID); err != nil {
		return 0, fmt.Errorf("deleting user: %w", err)
	}

	action := fmt.Sprintf("Deleted user %s, released %d items", username, released)
	if err := appendLog(ctx, tx, actorID(actor), action); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing user deletion: %w", err)
	}
	return released, nil
}
