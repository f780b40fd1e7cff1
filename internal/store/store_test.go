package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEnsure_CreatesFreshPlayer(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.PlayerRepo()

	p, err := repo.Ensure(ctx, "runner-1")
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if p.Lives != 3 || p.Level != 1 || p.Fragments != 0 || p.XP != 0 {
		t.Errorf("fresh player = %+v, want 3 lives, level 1, zero currency", p)
	}
}

func TestEnsure_DoesNotResetExisting(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.PlayerRepo()

	if _, err := repo.Ensure(ctx, "runner-1"); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if err := repo.ApplyTurnEffects(ctx, "runner-1", TurnEffects{XPDelta: 42}); err != nil {
		t.Fatalf("ApplyTurnEffects: %v", err)
	}

	p, err := repo.Ensure(ctx, "runner-1")
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if p.XP != 42 {
		t.Errorf("XP after re-Ensure = %d, want 42", p.XP)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.PlayerRepo().Get(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(ghost) error = %v, want ErrNotFound", err)
	}
}

func TestApplyTurnEffects_AllFields(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.PlayerRepo()

	if _, err := repo.Ensure(ctx, "runner-1"); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	eff := TurnEffects{
		XPDelta:        50,
		FragmentsDelta: 200,
		LogKeysDelta:   2,
		LivesDelta:     1,
		Grants:         []ItemGrant{{ItemID: "ice-pick", Quantity: 2}},
	}
	if err := repo.ApplyTurnEffects(ctx, "runner-1", eff); err != nil {
		t.Fatalf("ApplyTurnEffects: %v", err)
	}

	p, err := repo.Get(ctx, "runner-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.XP != 50 || p.Fragments != 200 || p.LogKeys != 2 || p.Lives != 4 {
		t.Errorf("player = %+v, want xp=50 fragments=200 log_keys=2 lives=4", p)
	}

	inv, err := repo.Inventory(ctx, "runner-1")
	if err != nil {
		t.Fatalf("Inventory: %v", err)
	}
	if len(inv) != 1 || inv[0].ItemID != "ice-pick" || inv[0].Quantity != 2 {
		t.Errorf("inventory = %+v, want ice-pick x2", inv)
	}
}

func TestApplyTurnEffects_SetLivesOverridesDelta(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.PlayerRepo()

	if _, err := repo.Ensure(ctx, "runner-1"); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	zero := 0
	if err := repo.ApplyTurnEffects(ctx, "runner-1", TurnEffects{LivesDelta: 5, SetLives: &zero}); err != nil {
		t.Fatalf("ApplyTurnEffects: %v", err)
	}

	p, _ := repo.Get(ctx, "runner-1")
	if p.Lives != 0 {
		t.Errorf("lives = %d, want 0 (SetLives wins)", p.Lives)
	}
}

func TestApplyTurnEffects_LivesClampedAtZero(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.PlayerRepo()

	if _, err := repo.Ensure(ctx, "runner-1"); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if err := repo.ApplyTurnEffects(ctx, "runner-1", TurnEffects{LivesDelta: -10}); err != nil {
		t.Fatalf("ApplyTurnEffects: %v", err)
	}

	p, _ := repo.Get(ctx, "runner-1")
	if p.Lives != 0 {
		t.Errorf("lives = %d, want 0", p.Lives)
	}
}

func TestApplyTurnEffects_UnknownPlayer(t *testing.T) {
	s := openTestStore(t)

	err := s.PlayerRepo().ApplyTurnEffects(context.Background(), "ghost", TurnEffects{XPDelta: 1})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestConsume_DecrementAndDeleteAtZero(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.PlayerRepo()

	if _, err := repo.Ensure(ctx, "runner-1"); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	eff := TurnEffects{Grants: []ItemGrant{{ItemID: "neural-stim", Quantity: 1}}}
	if err := repo.ApplyTurnEffects(ctx, "runner-1", eff); err != nil {
		t.Fatalf("grant: %v", err)
	}

	if err := repo.ApplyTurnEffects(ctx, "runner-1", TurnEffects{Consume: "neural-stim"}); err != nil {
		t.Fatalf("consume: %v", err)
	}

	inv, err := repo.Inventory(ctx, "runner-1")
	if err != nil {
		t.Fatalf("Inventory: %v", err)
	}
	if len(inv) != 0 {
		t.Errorf("inventory = %+v, want empty after consuming last unit", inv)
	}

	// Consuming an absent item rolls back the whole turn.
	err = repo.ApplyTurnEffects(ctx, "runner-1", TurnEffects{XPDelta: 99, Consume: "neural-stim"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("consume absent item error = %v, want ErrNotFound", err)
	}
	p, _ := repo.Get(ctx, "runner-1")
	if p.XP != 0 {
		t.Errorf("XP = %d after failed turn, want 0 (no partial commit)", p.XP)
	}
}

func TestMissionEvents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	events := s.EventRepo()

	for _, kind := range []string{MissionStarted, MissionCompleted, MissionStarted, MissionFailed} {
		err := events.AppendMissionEvent(ctx, MissionEventData{
			PlayerID:   "runner-1",
			SessionID:  "sess-1",
			Kind:       kind,
			Difficulty: "easy",
		})
		if err != nil {
			t.Fatalf("AppendMissionEvent(%s): %v", kind, err)
		}
	}

	counts, err := events.MissionCounts(ctx, "runner-1")
	if err != nil {
		t.Fatalf("MissionCounts: %v", err)
	}
	if counts.Started != 2 || counts.Completed != 1 || counts.Failed != 1 {
		t.Errorf("counts = %+v, want started=2 completed=1 failed=1", counts)
	}

	recent, err := events.RecentMissionEvents(ctx, "runner-1", 2)
	if err != nil {
		t.Fatalf("RecentMissionEvents: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent = %d events, want 2", len(recent))
	}
	if recent[0].Kind != MissionFailed {
		t.Errorf("newest event kind = %q, want %q", recent[0].Kind, MissionFailed)
	}
}

func TestAppendLLMRequest(t *testing.T) {
	s := openTestStore(t)

	err := s.EventRepo().AppendLLMRequest(context.Background(), LLMRequestEventData{
		Provider:  "mock",
		Model:     "mock",
		Purpose:   "narrative",
		LatencyMs: 12,
		Success:   true,
	})
	if err != nil {
		t.Fatalf("AppendLLMRequest: %v", err)
	}
}
