package store

import (
	"context"
	"testing"

	"github.com/erazemk/inventar/internal/db"
)

func TestActionLogsSurviveUserDeletion(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	admin := newActor(t, database, "admin", true)
	alice := newActor(t, database, "alice", false)

	if err := LogAction(ctx, database, &alice.UserID, "Logged in"); err != nil {
		t.Fatalf("LogAction: %v", err)
	}

	logs, err := ListActionLogs(ctx, database, 0)
	if err != nil {
		t.Fatalf("ListActionLogs: %v", err)
	}
	if len(logs) != 1 || logs[0].Username != "alice" {
		t.Fatalf("expected one entry by alice, got %+v", logs)
	}

	if _, err := DeleteUser(ctx, database, alice.UserID, admin); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	logs, _ = ListActionLogs(ctx, database, 0)
	if len(logs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(logs))
	}
	// Newest first: the deletion, then the orphaned login.
	if logs[1].Action != "Logged in" || logs[1].UserID != nil || logs[1].Username != "" {
		t.Errorf("expected orphaned login entry, got %+v", logs[1])
	}

	limited, _ := ListActionLogs(ctx, database, 1)
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d entries", len(limited))
	}
}
