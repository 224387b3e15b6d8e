package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/inventar/internal/model"
)

const itemColumns = `id, inventory_number, name, condition, is_available, assigned_to,
	COALESCE(image_mime, ''), created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(s rowScanner) (*model.Item, error) {
	item := &model.Item{}
	err := s.Scan(&item.ID, &item.InventoryNumber, &item.Name, &item.Condition,
		&item.IsAvailable, &item.AssignedTo, &item.ImageMime, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// CreateItem adds a new available item. The inventory number must be well
// formed and unused.
func CreateItem(ctx context.Context, db *sql.DB, inventoryNumber, name, condition string, actor model.Actor) (*model.Item, error) {
	if !actor.Admin {
		return nil, ErrPermissionDenied
	}

	inventoryNumber = strings.TrimSpace(inventoryNumber)
	if !model.ValidInventoryNumber(inventoryNumber) {
		return nil, ErrInvalidInventoryNumber
	}
	if condition == "" {
		condition = model.ConditionNew
	}
	if !model.ValidCondition(condition) {
		return nil, ErrInvalidCondition
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = model.DefaultItemName
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE inventory_number = ?`, inventoryNumber,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking inventory number: %w", err)
	}
	if exists > 0 {
		return nil, ErrDuplicateInventoryNumber
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO items (inventory_number, name, condition, is_available) VALUES (?, ?, ?, 1)`,
		inventoryNumber, name, condition,
	)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateInventoryNumber
	}
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	if err := appendLog(ctx, tx, actorID(actor), "Created item #"+inventoryNumber); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item creation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}
	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID, or nil if it does not exist.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	item, err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// GetItemByNumber returns the item with the given inventory number, or nil.
func GetItemByNumber(ctx context.Context, db *sql.DB, inventoryNumber string) (*model.Item, error) {
	item, err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE inventory_number = ?`, inventoryNumber,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item by number: %w", err)
	}
	return item, nil
}

// ListItems returns all items ordered by inventory number.
func ListItems(ctx context.Context, db *sql.DB) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items ORDER BY inventory_number`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// ListAssignedItems returns the items currently held by a user.
func ListAssignedItems(ctx context.Context, db *sql.DB, userID int64) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE assigned_to = ? ORDER BY inventory_number`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing assigned items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

func scanItems(rows *sql.Rows) ([]model.Item, error) {
	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// ItemEdit holds the admin-editable fields of an item.
type ItemEdit struct {
	Name      string
	Condition string
	// AssignedTo, when set, hands the item to that user and makes it
	// unavailable regardless of Available.
	AssignedTo *int64
	// Available is used only when AssignedTo is nil.
	Available bool
}

// EditItem updates an item's name, condition and assignment.
func EditItem(ctx context.Context, db *sql.DB, id int64, edit ItemEdit, actor model.Actor) (*model.Item, error) {
	if !actor.Admin {
		return nil, ErrPermissionDenied
	}
	if !model.ValidCondition(edit.Condition) {
		return nil, ErrInvalidCondition
	}
	name := strings.TrimSpace(edit.Name)
	if name == "" {
		name = model.DefaultItemName
	}
	available := edit.Available
	if edit.AssignedTo != nil {
		available = false
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var number string
	err = tx.QueryRowContext(ctx,
		`SELECT inventory_number FROM items WHERE id = ?`, id,
	).Scan(&number)
	if err == sql.ErrNoRows {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading item: %w", err)
	}

	if edit.AssignedTo != nil {
		ok, err := userExists(ctx, tx, *edit.AssignedTo)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrUserNotFound
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET name = ?, condition = ?, assigned_to = ?, is_available = ?,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		name, edit.Condition, edit.AssignedTo, available, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}

	if err := appendLog(ctx, tx, actorID(actor), "Edited item #"+number); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item edit: %w", err)
	}
	return GetItem(ctx, db, id)
}

// DeleteItem removes an item. Pending requests that name its inventory number
// are left as they are and fail with ErrItemNotFound when approved.
func DeleteItem(ctx context.Context, db *sql.DB, id int64, actor model.Actor) error {
	if !actor.Admin {
		return ErrPermissionDenied
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var number string
	err = tx.QueryRowContext(ctx,
		`DELETE FROM items WHERE id = ? RETURNING inventory_number`, id,
	).Scan(&number)
	if err == sql.ErrNoRows {
		return ErrItemNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}

	if err := appendLog(ctx, tx, actorID(actor), "Deleted item #"+number); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item deletion: %w", err)
	}
	return nil
}

// SetItemImage sets an item's photo. The data is expected to be processed
// already (see internal/imaging).
func SetItemImage(ctx context.Context, db *sql.DB, id int64, image []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrItemNotFound
	}
	return nil
}

// GetItemImage returns an item's photo and MIME type. Data is nil when the
// item has no photo or does not exist.
func GetItemImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}

// RestoreItems inserts previously exported items in a single transaction.
// IDs are reassigned; every other exported field is kept. Assignees must
// exist in the target database.
func RestoreItems(ctx context.Context, db *sql.DB, items []model.Item, actor model.Actor) (int, error) {
	if !actor.Admin {
		return 0, ErrPermissionDenied
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, it := range items {
		if !model.ValidInventoryNumber(it.InventoryNumber) {
			return 0, fmt.Errorf("item %q: %w", it.InventoryNumber, ErrInvalidInventoryNumber)
		}
		if !model.ValidCondition(it.Condition) {
			return 0, fmt.Errorf("item %q: %w", it.InventoryNumber, ErrInvalidCondition)
		}
		available := it.IsAvailable
		if it.AssignedTo != nil {
			ok, err := userExists(ctx, tx, *it.AssignedTo)
			if err != nil {
				return 0, err
			}
			if !ok {
				return 0, fmt.Errorf("item %q: %w", it.InventoryNumber, ErrUserNotFound)
			}
			available = false
		}
		name := it.Name
		if name == "" {
			name = model.DefaultItemName
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO items (inventory_number, name, condition, is_available, assigned_to)
			 VALUES (?, ?, ?, ?, ?)`,
			it.InventoryNumber, name, it.Condition, available, it.AssignedTo,
		)
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("item %q: %w", it.InventoryNumber, ErrDuplicateInventoryNumber)
		}
		if err != nil {
			return 0, fmt.Errorf("restoring item %q: %w", it.InventoryNumber, err)
		}
	}

	if err := appendLog(ctx, tx, actorID(actor), fmt.Sprintf("Restored %d items", len(items))); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing restore: %w", err)
	}
	return len(items), nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func userExists(ctx context.Context, q querier, userID int64) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE id = ?`, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking user: %w", err)
	}
	return n > 0, nil
}
