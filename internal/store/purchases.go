package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erazemk/inventar/internal/model"
)

// CreatePurchasePlan records a planned purchase.
func CreatePurchasePlan(ctx context.Context, db *sql.DB, itemName, supplierName string, price decimal.Decimal, actor model.Actor) (*model.PurchasePlan, error) {
	if !actor.Admin {
		return nil, ErrPermissionDenied
	}
	if price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	itemName = strings.TrimSpace(itemName)
	if itemName == "" {
		itemName = model.DefaultItemName
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO purchase_plans (item_name, supplier_name, planned_price) VALUES (?, ?, ?)`,
		itemName, strings.TrimSpace(supplierName), price.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating purchase plan: %w", err)
	}

	if err := appendLog(ctx, tx, actorID(actor), "Created purchase plan: "+itemName); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing purchase plan: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting purchase plan id: %w", err)
	}
	return GetPurchasePlan(ctx, db, id)
}

// GetPurchasePlan returns a purchase plan by ID, or nil.
func GetPurchasePlan(ctx context.Context, db *sql.DB, id int64) (*model.PurchasePlan, error) {
	p, err := scanPurchasePlan(db.QueryRowContext(ctx,
		`SELECT id, item_name, supplier_name, planned_price, status, created_at, received_at
		 FROM purchase_plans WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting purchase plan: %w", err)
	}
	return p, nil
}

// ListPurchasePlans returns all purchase plans, oldest first.
func ListPurchasePlans(ctx context.Context, db *sql.DB) ([]model.PurchasePlan, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, item_name, supplier_name, planned_price, status, created_at, received_at
		 FROM purchase_plans ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing purchase plans: %w", err)
	}
	defer rows.Close()

	var plans []model.PurchasePlan
	for rows.Next() {
		p, err := scanPurchasePlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning purchase plan: %w", err)
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

func scanPurchasePlan(s rowScanner) (*model.PurchasePlan, error) {
	p := &model.PurchasePlan{}
	var price string
	if err := s.Scan(&p.ID, &p.ItemName, &p.SupplierName, &price, &p.Status, &p.CreatedAt, &p.ReceivedAt); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parsing planned price %q: %w", price, err)
	}
	p.PlannedPrice = d
	return p, nil
}

// MarkPurchaseReceived moves a plan from planned to received. The transition
// happens at most once.
func MarkPurchaseReceived(ctx context.Context, db *sql.DB, id int64, actor model.Actor) (*model.PurchasePlan, error) {
	if !actor.Admin {
		return nil, ErrPermissionDenied
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var itemName, status string
	err = tx.QueryRowContext(ctx,
		`SELECT item_name, status FROM purchase_plans WHERE id = ?`, id,
	).Scan(&itemName, &status)
	if err == sql.ErrNoRows {
		return nil, ErrPurchasePlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading purchase plan: %w", err)
	}
	if status != model.PurchasePlanned {
		return nil, ErrAlreadyReceived
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE purchase_plans SET status = ?, received_at = CURRENT_TIMESTAMP WHERE id = ?`,
		model.PurchaseReceived, id,
	)
	if err != nil {
		return nil, fmt.Errorf("marking purchase plan received: %w", err)
	}

	if err := appendLog(ctx, tx, actorID(actor), "Purchase plan received: "+itemName); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing purchase plan: %w", err)
	}
	return GetPurchasePlan(ctx, db, id)
}
