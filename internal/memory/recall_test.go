package memory

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func openTestRecall(t *testing.T) *Recall {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "mem.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	r, err := New(db)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestStoreAndQuery_RanksByOverlap(t *testing.T) {
	r := openTestRecall(t)
	ctx := context.Background()

	entries := []string{
		"The vault door needs a crimson keycard",
		"A patrol drone circles the east corridor",
		"The bartender mentioned a crimson keycard hidden in the vault",
	}
	for _, e := range entries {
		if err := r.Store(ctx, "runner-1", e); err != nil {
			t.Fatalf("Store: %v", err)
		}
	}

	got, err := r.Query(ctx, "runner-1", "where is the crimson keycard for the vault", 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	// Both keycard entries outrank the drone entry.
	for _, g := range got {
		if g == entries[1] {
			t.Errorf("irrelevant entry ranked in top 2: %q", g)
		}
	}
}

func TestQuery_RespectsPlayerIsolation(t *testing.T) {
	r := openTestRecall(t)
	ctx := context.Background()

	if err := r.Store(ctx, "runner-1", "the password is swordfish"); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, err := r.Query(ctx, "runner-2", "what is the password", 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("runner-2 recalled runner-1 memories: %v", got)
	}
}

func TestQuery_LimitAndNoMatches(t *testing.T) {
	r := openTestRecall(t)
	ctx := context.Background()

	for range 10 {
		if err := r.Store(ctx, "runner-1", "firewall node alpha responded"); err != nil {
			t.Fatalf("Store: %v", err)
		}
	}

	got, err := r.Query(ctx, "runner-1", "firewall node", 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("got %d results, want 3", len(got))
	}

	got, err = r.Query(ctx, "runner-1", "zzz qqq", 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d results for non-matching query, want 0", len(got))
	}
}

func TestClear(t *testing.T) {
	r := openTestRecall(t)
	ctx := context.Background()

	if err := r.Store(ctx, "runner-1", "remember the exit code"); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := r.Clear(ctx, "runner-1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	got, err := r.Query(ctx, "runner-1", "exit code", 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("memories survived Clear: %v", got)
	}
}

func TestStore_DropsBlankEntries(t *testing.T) {
	r := openTestRecall(t)
	ctx := context.Background()

	if err := r.Store(ctx, "runner-1", "   "); err != nil {
		t.Fatalf("Store: %v", err)
	}
	got, err := r.Query(ctx, "runner-1", "anything at all", 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("blank entry was stored: %v", got)
	}
}
