package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/erazemk/inventar/internal/model"
)

// newActor creates a user and returns it as an actor with the given admin flag.
func newActor(t *testing.T, database *sql.DB, username string, admin bool) model.Actor {
	t.Helper()
	u, err := CreateUser(context.Background(), database, username, "hash", "")
	if err != nil {
		t.Fatalf("CreateUser(%q): %v", username, err)
	}
	return model.Actor{UserID: u.ID, Username: u.Username, Admin: admin}
}

func mustCreateItem(t *testing.T, database *sql.DB, number string, admin model.Actor) *model.Item {
	t.Helper()
	item, err := CreateItem(context.Background(), database, number, "Ball", model.ConditionNew, admin)
	if err != nil {
		t.Fatalf("CreateItem(%q): %v", number, err)
	}
	return item
}

// checkAssignmentInvariant fails the test if any item has an assignee while
// marked available.
func checkAssignmentInvariant(t *testing.T, database *sql.DB) {
	t.Helper()
	var n int
	err := database.QueryRow(
		`SELECT COUNT(*) FROM items WHERE assigned_to IS NOT NULL AND is_available = 1`,
	).Scan(&n)
	if err != nil {
		t.Fatalf("checking invariant: %v", err)
	}
	if n != 0 {
		t.Errorf("%d items are assigned but available", n)
	}
}
