package mission

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dsoto/datarun/internal/catalog"
	"github.com/dsoto/datarun/internal/llm"
	"github.com/dsoto/datarun/internal/narrative"
	"github.com/dsoto/datarun/internal/rewards"
	"github.com/dsoto/datarun/internal/store"
)

// fakePlayers is an in-memory PlayerRepo. ApplyTurnEffects is atomic: when
// failApply is set it mutates nothing.
type fakePlayers struct {
	players   map[string]*store.Player
	inventory map[string]map[string]int
	failApply bool
}

func newFakePlayers() *fakePlayers {
	return &fakePlayers{
		players:   make(map[string]*store.Player),
		inventory: make(map[string]map[string]int),
	}
}

func (f *fakePlayers) add(id string, lives int) *store.Player {
	p := &store.Player{ID: id, Lives: lives, Level: 1}
	f.players[id] = p
	return p
}

func (f *fakePlayers) Get(_ context.Context, id string) (*store.Player, error) {
	p, ok := f.players[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePlayers) Ensure(ctx context.Context, id string) (*store.Player, error) {
	if p, ok := f.players[id]; ok {
		cp := *p
		return &cp, nil
	}
	f.players[id] = &store.Player{ID: id, Lives: 3, Level: 1}
	return f.Get(ctx, id)
}

func (f *fakePlayers) ApplyTurnEffects(_ context.Context, id string, eff store.TurnEffects) error {
	if f.failApply {
		return errors.New("disk full")
	}
	p, ok := f.players[id]
	if !ok {
		return store.ErrNotFound
	}
	p.XP = max(0, p.XP+eff.XPDelta)
	p.Fragments = max(0, p.Fragments+eff.FragmentsDelta)
	p.LogKeys = max(0, p.LogKeys+eff.LogKeysDelta)
	if eff.SetLives != nil {
		p.Lives = *eff.SetLives
	} else {
		p.Lives = max(0, p.Lives+eff.LivesDelta)
	}
	inv := f.inventory[id]
	if inv == nil {
		inv = make(map[string]int)
		f.inventory[id] = inv
	}
	for _, g := range eff.Grants {
		inv[g.ItemID] += g.Quantity
	}
	if eff.Consume != "" {
		if inv[eff.Consume] <= 0 {
			return store.ErrNotFound
		}
		inv[eff.Consume]--
	}
	return nil
}

func (f *fakePlayers) Inventory(_ context.Context, id string) ([]store.InventoryEntry, error) {
	var out []store.InventoryEntry
	for item, qty := range f.inventory[id] {
		if qty > 0 {
			out = append(out, store.InventoryEntry{ItemID: item, Quantity: qty})
		}
	}
	return out, nil
}

func (f *fakePlayers) SetLives(_ context.Context, id string, lives int) error {
	p, ok := f.players[id]
	if !ok {
		return store.ErrNotFound
	}
	p.Lives = max(0, lives)
	return nil
}

type fakeEvents struct {
	mission []store.MissionEventData
}

func (f *fakeEvents) AppendLLMRequest(context.Context, store.LLMRequestEventData) error { return nil }
func (f *fakeEvents) AppendMissionEvent(_ context.Context, d store.MissionEventData) error {
	f.mission = append(f.mission, d)
	return nil
}
func (f *fakeEvents) MissionCounts(context.Context, string) (store.MissionCounts, error) {
	return store.MissionCounts{}, nil
}
func (f *fakeEvents) RecentMissionEvents(context.Context, string, int) ([]store.MissionEventRecord, error) {
	return nil, nil
}
func (f *fakeEvents) QueryLLMEvents(context.Context, store.QueryOpts) ([]store.LLMEventRecord, error) {
	return nil, nil
}
func (f *fakeEvents) GetLLMEvent(context.Context, int64) (*store.LLMEventRecord, error) {
	return nil, nil
}

var _ store.EventRepo = (*fakeEvents)(nil)

func (f *fakeEvents) kinds() []string {
	var out []string
	for _, e := range f.mission {
		out = append(out, e.Kind)
	}
	return out
}

type fakeMemory struct {
	entries map[string][]string
}

func newFakeMemory() *fakeMemory {
	return &fakeMemory{entries: make(map[string][]string)}
}

func (f *fakeMemory) Query(_ context.Context, playerID, _ string, limit int) ([]string, error) {
	got := f.entries[playerID]
	if len(got) > limit {
		got = got[len(got)-limit:]
	}
	return got, nil
}

func (f *fakeMemory) Store(_ context.Context, playerID, text string) error {
	f.entries[playerID] = append(f.entries[playerID], text)
	return nil
}

func (f *fakeMemory) Clear(_ context.Context, playerID string) error {
	delete(f.entries, playerID)
	return nil
}

func (f *fakeMemory) contains(playerID, substr string) bool {
	for _, e := range f.entries[playerID] {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

type testHarness struct {
	engine  *Engine
	players *fakePlayers
	events  *fakeEvents
	memory  *fakeMemory
	mock    *llm.MockProvider
	clock   *time.Time
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	players := newFakePlayers()
	events := &fakeEvents{}
	memory := newFakeMemory()
	mock := llm.NewMockProvider()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	h := &testHarness{
		players: players,
		events:  events,
		memory:  memory,
		mock:    mock,
		clock:   &now,
	}
	h.engine = New(Options{
		Players:  players,
		Events:   events,
		Memories: memory,
		Narrator: narrative.New(mock, narrative.DefaultConfig()),
		Catalog:  cat,
		Roller:   rewards.NewSeededRoller(42),
		Now:      func() time.Time { return *h.clock },
	})
	return h
}

func (h *testHarness) advance(d time.Duration) {
	*h.clock = h.clock.Add(d)
}

// startMission queues an opening scene and starts a mission.
func (h *testHarness) startMission(t *testing.T, playerID string, d rewards.Difficulty) NarrativeView {
	t.Helper()
	h.mock.AddResponse(llm.MockResponse{Text: "The archive node glows ahead."})
	view, err := h.engine.StartMission(context.Background(), playerID, d)
	if err != nil {
		t.Fatalf("StartMission: %v", err)
	}
	return view
}

func TestStartMission_SecondStartFails(t *testing.T) {
	h := newHarness(t)
	h.players.add("runner-1", 3)
	h.startMission(t, "runner-1", rewards.DifficultyEasy)

	_, err := h.engine.StartMission(context.Background(), "runner-1", rewards.DifficultyEasy)
	if !errors.Is(err, ErrSessionActive) {
		t.Fatalf("err = %v, want ErrSessionActive", err)
	}
}

func TestStartMission_Preconditions(t *testing.T) {
	h := newHarness(t)
	h.players.add("dead-runner", 0)

	_, err := h.engine.StartMission(context.Background(), "ghost", rewards.DifficultyEasy)
	if !errors.Is(err, ErrNoPlayer) {
		t.Fatalf("unknown player: err = %v, want ErrNoPlayer", err)
	}

	_, err = h.engine.StartMission(context.Background(), "dead-runner", rewards.DifficultyEasy)
	if !errors.Is(err, ErrNoLives) {
		t.Fatalf("zero lives: err = %v, want ErrNoLives", err)
	}
}

func TestStartMission_GenerationFailureLeavesNoSession(t *testing.T) {
	h := newHarness(t)
	h.players.add("runner-1", 3)

	// Empty mock queue makes the narrator fail.
	_, err := h.engine.StartMission(context.Background(), "runner-1", rewards.DifficultyEasy)
	var genErr *GenerationUnavailableError
	if !errors.As(err, &genErr) {
		t.Fatalf("err = %v, want GenerationUnavailableError", err)
	}

	// A retry may now start cleanly.
	h.startMission(t, "runner-1", rewards.DifficultyEasy)
}

func TestResolveTurn_CorrectAddsXP(t *testing.T) {
	h := newHarness(t)
	h.players.add("runner-1", 3)
	h.startMission(t, "runner-1", rewards.DifficultyNormal)

	h.mock.AddResponse(llm.MockResponse{Text: "Clean entry. [CORRECT: 20:25]"})
	view, err := h.engine.ResolveTurn(context.Background(), "runner-1", "bypass the outer ice")
	if err != nil {
		t.Fatalf("ResolveTurn: %v", err)
	}

	if view.IsTerminal {
		t.Error("view should be non-terminal")
	}
	if view.XP != 20 {
		t.Errorf("XP = %d, want 20", view.XP)
	}
	if view.Progress != 25 {
		t.Errorf("Progress = %d, want 25", view.Progress)
	}
	if got := h.players.players["runner-1"].XP; got != 20 {
		t.Errorf("persisted XP = %d, want 20", got)
	}
	if view.Pages != 2 || view.Page != 1 {
		t.Errorf("Page/Pages = %d/%d, want 1/2", view.Page, view.Pages)
	}
}

func TestResolveTurn_MalformedPayloadUsesDefaults(t *testing.T) {
	h := newHarness(t)
	h.players.add("runner-1", 3)
	h.startMission(t, "runner-1", rewards.DifficultyNormal)

	h.mock.AddResponse(llm.MockResponse{Text: "Somehow it works. [CORRECT: lots:plenty]"})
	view, err := h.engine.ResolveTurn(context.Background(), "runner-1", "guess the passphrase")
	if err != nil {
		t.Fatalf("ResolveTurn: %v", err)
	}
	if view.XP != narrative.DefaultCorrectXP {
		t.Errorf("XP = %d, want default %d", view.XP, narrative.DefaultCorrectXP)
	}
	if view.Progress != narrative.DefaultCorrectProgress {
		t.Errorf("Progress = %d, want default %d", view.Progress, narrative.DefaultCorrectProgress)
	}
}

func TestResolveTurn_IncorrectAtOneLifeIsTerminal(t *testing.T) {
	h := newHarness(t)
	h.players.add("runner-1", 1)
	h.startMission(t, "runner-1", rewards.DifficultyEasy)

	h.mock.AddResponse(llm.MockResponse{Text: "The trace hits. [INCORRECT: 90]"})
	view, err := h.engine.ResolveTurn(context.Background(), "runner-1", "run straight at the ice")
	if err != nil {
		t.Fatalf("ResolveTurn: %v", err)
	}

	if !view.IsTerminal || view.TerminalKind != TerminalFailed {
		t.Fatalf("view = %+v, want terminal failed", view)
	}
	if view.Lives != 0 {
		t.Errorf("Lives = %d, want 0", view.Lives)
	}
	if got := h.players.players["runner-1"].XP; got != 0 {
		t.Errorf("XP changed on failure: %d", got)
	}

	// Terminal session accepts no further actions.
	_, err = h.engine.ResolveTurn(context.Background(), "runner-1", "get up")
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}

	kinds := h.events.kinds()
	if len(kinds) != 2 || kinds[1] != store.MissionFailed {
		t.Errorf("events = %v, want started then failed", kinds)
	}
}

func TestResolveTurn_IncorrectAboveOneLifeContinues(t *testing.T) {
	h := newHarness(t)
	h.players.add("runner-1", 3)
	h.startMission(t, "runner-1", rewards.DifficultyEasy)

	h.mock.AddResponse(llm.MockResponse{Text: "Alarm trips. [INCORRECT: 10]"})
	view, err := h.engine.ResolveTurn(context.Background(), "runner-1", "kick the terminal")
	if err != nil {
		t.Fatalf("ResolveTurn: %v", err)
	}
	if view.IsTerminal {
		t.Error("view should be non-terminal with lives remaining")
	}
	if view.Lives != 2 {
		t.Errorf("Lives = %d, want 2", view.Lives)
	}
}

func TestResolveTurn_LevelCompleteGrantsRewards(t *testing.T) {
	h := newHarness(t)
	h.players.add("runner-1", 2)
	h.startMission(t, "runner-1", rewards.DifficultyHard)

	h.mock.AddResponse(llm.MockResponse{Text: "You pull the payload free. [LEVEL_COMPLETE: 100]"})
	view, err := h.engine.ResolveTurn(context.Background(), "runner-1", "extract the payload")
	if err != nil {
		t.Fatalf("ResolveTurn: %v", err)
	}

	if !view.IsTerminal || view.TerminalKind != TerminalCompleted {
		t.Fatalf("view = %+v, want terminal completed", view)
	}

	p := h.players.players["runner-1"]
	spec, _ := rewards.SpecFor(rewards.DifficultyHard)
	base := p.Fragments - 100 // subtract the tag bonus
	if base < spec.FragmentMin || base > spec.FragmentMax {
		t.Errorf("fragments = %d (base %d), want base in [%d, %d]", p.Fragments, base, spec.FragmentMin, spec.FragmentMax)
	}
	if p.LogKeys < spec.LogKeyMin || p.LogKeys > spec.LogKeyMax {
		t.Errorf("log-keys = %d, want in [%d, %d]", p.LogKeys, spec.LogKeyMin, spec.LogKeyMax)
	}
	if p.XP != spec.XP {
		t.Errorf("XP = %d, want %d", p.XP, spec.XP)
	}
	// Lives increment on completion, uncapped in storage.
	if p.Lives != 3 {
		t.Errorf("Lives = %d, want 3", p.Lives)
	}

	inv := h.players.inventory["runner-1"]
	total := 0
	for id, qty := range inv {
		item, ok := h.engine.catalog.Get(id)
		if !ok {
			t.Errorf("granted unknown item %q", id)
			continue
		}
		allowed := false
		for _, r := range rewards.DropRarities(rewards.DifficultyHard) {
			if item.Rarity == r {
				allowed = true
			}
		}
		if !allowed {
			t.Errorf("item %q has rarity %q, not allowed on Hard", id, item.Rarity)
		}
		total += qty
	}
	if total != rewards.ItemDropCount {
		t.Errorf("granted %d items, want %d", total, rewards.ItemDropCount)
	}

	if view.RewardSummary == "" {
		t.Error("expected a reward summary")
	}

	kinds := h.events.kinds()
	if len(kinds) != 2 || kinds[1] != store.MissionCompleted {
		t.Errorf("events = %v, want started then completed", kinds)
	}

	_, err = h.engine.ResolveTurn(context.Background(), "runner-1", "celebrate")
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession after completion", err)
	}
}

func TestResolveTurn_LivesUncappedAfterCompletion(t *testing.T) {
	h := newHarness(t)
	h.players.add("runner-1", 3)
	h.startMission(t, "runner-1", rewards.DifficultyEasy)

	h.mock.AddResponse(llm.MockResponse{Text: "Done. [LEVEL_COMPLETE: 0]"})
	view, err := h.engine.ResolveTurn(context.Background(), "runner-1", "finish it")
	if err != nil {
		t.Fatalf("ResolveTurn: %v", err)
	}
	if view.Lives != 4 {
		t.Errorf("stored Lives = %d, want 4 (uncapped)", view.Lives)
	}
	if view.DisplayLives() != 3 {
		t.Errorf("DisplayLives = %d, want 3 (clamped)", view.DisplayLives())
	}
}

func TestResolveTurn_PlayerDeathForcesZeroLives(t *testing.T) {
	h := newHarness(t)
	h.players.add("runner-1", 3)
	h.startMission(t, "runner-1", rewards.DifficultyNormal)

	h.mock.AddResponse(llm.MockResponse{Text: "Black ice closes over you. [PLAYER_DEATH]"})
	view, err := h.engine.ResolveTurn(context.Background(), "runner-1", "touch the black ice")
	if err != nil {
		t.Fatalf("ResolveTurn: %v", err)
	}

	if !view.IsTerminal || view.TerminalKind != TerminalFailed {
		t.Fatalf("view = %+v, want terminal failed", view)
	}
	if got := h.players.players["runner-1"].Lives; got != 0 {
		t.Errorf("Lives = %d, want 0", got)
	}
}

func TestResolveTurn_GenerationUnavailableMutatesNothing(t *testing.T) {
	h := newHarness(t)
	h.players.add("runner-1", 3)
	h.startMission(t, "runner-1", rewards.DifficultyNormal)

	// Empty mock queue: generation fails.
	_, err := h.engine.ResolveTurn(context.Background(), "runner-1", "probe the gateway")
	var genErr *GenerationUnavailableError
	if !errors.As(err, &genErr) {
		t.Fatalf("err = %v, want GenerationUnavailableError", err)
	}

	p := h.players.players["runner-1"]
	if p.XP != 0 || p.Lives != 3 || p.Fragments != 0 {
		t.Errorf("stats mutated on generation failure: %+v", p)
	}

	// The session survives and the same action can be retried.
	h.mock.AddResponse(llm.MockResponse{Text: "The gateway answers. [CORRECT: 20:25]"})
	view, err := h.engine.ResolveTurn(context.Background(), "runner-1", "probe the gateway")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if view.XP != 20 {
		t.Errorf("retry XP = %d, want 20", view.XP)
	}
}

func TestResolveTurn_CommitFailureLeavesSessionUntouched(t *testing.T) {
	h := newHarness(t)
	h.players.add("runner-1", 3)
	h.startMission(t, "runner-1", rewards.DifficultyNormal)

	h.players.failApply = true
	h.mock.AddResponse(llm.MockResponse{Text: "Win. [CORRECT: 20:25]"})
	_, err := h.engine.ResolveTurn(context.Background(), "runner-1", "try the door")
	if err == nil {
		t.Fatal("expected commit error")
	}

	h.players.failApply = false
	h.mock.AddResponse(llm.MockResponse{Text: "Win again. [CORRECT: 20:25]"})
	view, err := h.engine.ResolveTurn(context.Background(), "runner-1", "try the door")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	// Only the retried turn landed: opening page plus one.
	if view.Pages != 2 {
		t.Errorf("Pages = %d, want 2", view.Pages)
	}
	if h.players.players["runner-1"].XP != 20 {
		t.Errorf("XP = %d, want 20", h.players.players["runner-1"].XP)
	}
}

func TestResolveTurn_Preconditions(t *testing.T) {
	h := newHarness(t)
	h.players.add("runner-1", 3)

	_, err := h.engine.ResolveTurn(context.Background(), "runner-1", "look around")
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}

	h.startMission(t, "runner-1", rewards.DifficultyEasy)
	_, err = h.engine.ResolveTurn(context.Background(), "runner-1", "   ")
	if !errors.Is(err, ErrEmptyAction) {
		t.Fatalf("err = %v, want ErrEmptyAction", err)
	}
}

func TestResolveTurn_AnswerStoredOnSessionAndMemory(t *testing.T) {
	h := newHarness(t)
	h.players.add("runner-1", 3)
	h.startMission(t, "runner-1", rewards.DifficultyEasy)

	h.mock.AddResponse(llm.MockResponse{
		Text: "A lock appears. [CHALLENGE: name the oldest key] [ANSWER: the rust key]",
	})
	view, err := h.engine.ResolveTurn(context.Background(), "runner-1", "inspect the lock")
	if err != nil {
		t.Fatalf("ResolveTurn: %v", err)
	}

	if !strings.Contains(view.Body, "name the oldest key") {
		t.Errorf("challenge text missing from body: %q", view.Body)
	}
	if strings.Contains(view.Body, "rust key") {
		t.Errorf("answer leaked into body: %q", view.Body)
	}

	slot := h.engine.slot("runner-1")
	if slot.session.PendingAnswer != "the rust key" {
		t.Errorf("PendingAnswer = %q, want 'the rust key'", slot.session.PendingAnswer)
	}
	if !h.memory.contains("runner-1", "the rust key") {
		t.Errorf("answer not mirrored to memory: %v", h.memory.entries["runner-1"])
	}
}

func TestTurnPage_NavigatesHistory(t *testing.T) {
	h := newHarness(t)
	h.players.add("runner-1", 3)
	h.startMission(t, "runner-1", rewards.DifficultyEasy)

	h.mock.AddResponse(llm.MockResponse{Text: "Second scene. [CORRECT: 5:10]"})
	if _, err := h.engine.ResolveTurn(context.Background(), "runner-1", "advance"); err != nil {
		t.Fatalf("ResolveTurn: %v", err)
	}

	view, err := h.engine.TurnPage(context.Background(), "runner-1", -1)
	if err != nil {
		t.Fatalf("TurnPage: %v", err)
	}
	if view.Page != 0 {
		t.Errorf("Page = %d, want 0", view.Page)
	}
	if !strings.Contains(view.Body, "archive node") {
		t.Errorf("expected opening scene, got %q", view.Body)
	}

	// Clamped at both ends.
	view, _ = h.engine.TurnPage(context.Background(), "runner-1", -5)
	if view.Page != 0 {
		t.Errorf("Page = %d, want clamp at 0", view.Page)
	}
	view, _ = h.engine.TurnPage(context.Background(), "runner-1", 5)
	if view.Page != 1 {
		t.Errorf("Page = %d, want clamp at last", view.Page)
	}
}

func TestReset_RestoresLivesAndClearsState(t *testing.T) {
	h := newHarness(t)
	h.players.add("runner-1", 1)
	h.startMission(t, "runner-1", rewards.DifficultyEasy)

	h.mock.AddResponse(llm.MockResponse{Text: "Gone. [PLAYER_DEATH]"})
	if _, err := h.engine.ResolveTurn(context.Background(), "runner-1", "die"); err != nil {
		t.Fatalf("ResolveTurn: %v", err)
	}

	if err := h.engine.Reset(context.Background(), "runner-1"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if got := h.players.players["runner-1"].Lives; got != 3 {
		t.Errorf("Lives = %d, want 3", got)
	}
	if len(h.memory.entries["runner-1"]) != 0 {
		t.Errorf("memories survived reset: %v", h.memory.entries["runner-1"])
	}

	// A new mission can start.
	h.startMission(t, "runner-1", rewards.DifficultyNormal)
}

func TestConcurrentResolves_DifferentPlayersProceed(t *testing.T) {
	h := newHarness(t)
	h.players.add("runner-1", 3)
	h.players.add("runner-2", 3)
	h.startMission(t, "runner-1", rewards.DifficultyEasy)
	h.startMission(t, "runner-2", rewards.DifficultyEasy)

	h.mock.AddResponse(llm.MockResponse{Text: "ok [CORRECT: 10:10]"})
	h.mock.AddResponse(llm.MockResponse{Text: "ok [CORRECT: 10:10]"})

	done := make(chan error, 2)
	for _, id := range []string{"runner-1", "runner-2"} {
		go func() {
			_, err := h.engine.ResolveTurn(context.Background(), id, "move")
			done <- err
		}()
	}
	for range 2 {
		if err := <-done; err != nil {
			t.Errorf("concurrent resolve: %v", err)
		}
	}
}
