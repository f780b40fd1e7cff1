package mission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dsoto/datarun/internal/llm"
	"github.com/dsoto/datarun/internal/rewards"
)

var testSequence = []Color{ColorRed, ColorGreen, ColorBlue, ColorYellow}

func startWithChallenge(t *testing.T, h *testHarness) {
	t.Helper()
	h.players.add("runner-1", 3)
	h.startMission(t, "runner-1", rewards.DifficultyNormal)
	if _, err := h.engine.StartChallenge("runner-1", testSequence, 0); err != nil {
		t.Fatalf("StartChallenge: %v", err)
	}
}

func TestStartChallenge_Preconditions(t *testing.T) {
	h := newHarness(t)
	h.players.add("runner-1", 3)

	if _, err := h.engine.StartChallenge("runner-1", testSequence, 0); !errors.Is(err, ErrNoSession) {
		t.Fatalf("no session: err = %v, want ErrNoSession", err)
	}

	h.startMission(t, "runner-1", rewards.DifficultyNormal)

	if _, err := h.engine.StartChallenge("runner-1", []Color{ColorRed, ColorGreen}, 0); !errors.Is(err, ErrShortSequence) {
		t.Fatalf("short sequence: err = %v, want ErrShortSequence", err)
	}
	if _, err := h.engine.StartChallenge("runner-1", []Color{ColorRed, ColorGreen, "purple"}, 0); err == nil {
		t.Fatal("invalid color: expected error")
	}

	if _, err := h.engine.StartChallenge("runner-1", testSequence, 0); err != nil {
		t.Fatalf("StartChallenge: %v", err)
	}
	if _, err := h.engine.StartChallenge("runner-1", testSequence, 0); !errors.Is(err, ErrChallengeActive) {
		t.Fatalf("second start: err = %v, want ErrChallengeActive", err)
	}
}

func TestChallenge_BlocksFreeTextTurns(t *testing.T) {
	h := newHarness(t)
	startWithChallenge(t, h)

	_, err := h.engine.ResolveTurn(context.Background(), "runner-1", "type the override manually")
	if !errors.Is(err, ErrChallengeActive) {
		t.Fatalf("err = %v, want ErrChallengeActive", err)
	}
}

func TestChallenge_CorrectSequence(t *testing.T) {
	h := newHarness(t)
	startWithChallenge(t, h)

	h.mock.AddResponse(llm.MockResponse{Text: "The lock spins open. [CORRECT: 30:60]"})

	ctx := context.Background()
	for _, c := range testSequence[:3] {
		status, view, err := h.engine.ChallengeInput(ctx, "runner-1", c)
		if err != nil {
			t.Fatalf("ChallengeInput: %v", err)
		}
		if status != ChallengePending || view != nil {
			t.Fatalf("status = %v before final input", status)
		}
	}

	status, view, err := h.engine.ChallengeInput(ctx, "runner-1", testSequence[3])
	if err != nil {
		t.Fatalf("final input: %v", err)
	}
	if status != ChallengeCorrect {
		t.Fatalf("status = %v, want ChallengeCorrect", status)
	}
	if view == nil || view.XP != 30 {
		t.Fatalf("view = %+v, want resolved turn with 30 XP", view)
	}
	if h.engine.ActiveChallenge("runner-1") != nil {
		t.Error("challenge should be cleared after resolution")
	}
}

func TestChallenge_WrongSequenceSameLength(t *testing.T) {
	h := newHarness(t)
	startWithChallenge(t, h)

	h.mock.AddResponse(llm.MockResponse{Text: "Klaxons. [INCORRECT: 0]"})

	ctx := context.Background()
	inputs := []Color{ColorRed, ColorGreen, ColorRed, ColorYellow} // third differs
	var status ChallengeStatus
	var err error
	for _, c := range inputs {
		status, _, err = h.engine.ChallengeInput(ctx, "runner-1", c)
		if err != nil {
			t.Fatalf("ChallengeInput: %v", err)
		}
	}
	if status != ChallengeIncorrect {
		t.Fatalf("status = %v, want ChallengeIncorrect", status)
	}
	if got := h.players.players["runner-1"].Lives; got != 2 {
		t.Errorf("Lives = %d, want 2", got)
	}
}

func TestChallenge_Timeout(t *testing.T) {
	h := newHarness(t)
	startWithChallenge(t, h)

	h.mock.AddResponse(llm.MockResponse{Text: "The window slams shut. [INCORRECT: 0]"})

	ctx := context.Background()
	if _, _, err := h.engine.ChallengeInput(ctx, "runner-1", ColorRed); err != nil {
		t.Fatalf("ChallengeInput: %v", err)
	}

	h.advance(DefaultChallengeWindow + time.Second)

	status, view, err := h.engine.ExpireChallenge(ctx, "runner-1")
	if err != nil {
		t.Fatalf("ExpireChallenge: %v", err)
	}
	if status != ChallengeTimeout {
		t.Fatalf("status = %v, want ChallengeTimeout", status)
	}
	if view == nil {
		t.Fatal("expected a resolved view")
	}
	if got := h.players.players["runner-1"].Lives; got != 2 {
		t.Errorf("Lives = %d, want 2", got)
	}
}

func TestChallenge_ExpireBeforeDeadlineIsNoop(t *testing.T) {
	h := newHarness(t)
	startWithChallenge(t, h)

	status, view, err := h.engine.ExpireChallenge(context.Background(), "runner-1")
	if err != nil {
		t.Fatalf("ExpireChallenge: %v", err)
	}
	if status != ChallengePending || view != nil {
		t.Fatalf("status = %v, want pending no-op", status)
	}
	if h.engine.ActiveChallenge("runner-1") == nil {
		t.Error("challenge should still be outstanding")
	}
}

func TestChallenge_InputLateResolvesTimeout(t *testing.T) {
	h := newHarness(t)
	startWithChallenge(t, h)

	h.mock.AddResponse(llm.MockResponse{Text: "Too slow. [INCORRECT: 0]"})

	h.advance(DefaultChallengeWindow + time.Second)

	status, view, err := h.engine.ChallengeInput(context.Background(), "runner-1", ColorRed)
	if err != nil {
		t.Fatalf("ChallengeInput: %v", err)
	}
	if status != ChallengeTimeout {
		t.Fatalf("status = %v, want ChallengeTimeout", status)
	}
	if view == nil {
		t.Fatal("expected a resolved view")
	}
}

func TestChallenge_DecidedOutcomeSurvivesNarratorFailure(t *testing.T) {
	h := newHarness(t)
	startWithChallenge(t, h)

	// Full correct sequence with nothing queued on the mock: the outcome
	// is decided but narrating it fails.
	ctx := context.Background()
	for _, c := range testSequence[:3] {
		if _, _, err := h.engine.ChallengeInput(ctx, "runner-1", c); err != nil {
			t.Fatalf("ChallengeInput: %v", err)
		}
	}
	status, view, err := h.engine.ChallengeInput(ctx, "runner-1", testSequence[3])
	var genErr *GenerationUnavailableError
	if !errors.As(err, &genErr) {
		t.Fatalf("err = %v, want GenerationUnavailableError", err)
	}
	if status != ChallengeCorrect || view != nil {
		t.Fatalf("status = %v view = %v, want ChallengeCorrect with no view", status, view)
	}
	if h.engine.ActiveChallenge("runner-1") == nil {
		t.Fatal("challenge should stay outstanding for retry")
	}

	// Even past the deadline the decided outcome stands; the retry only
	// re-narrates it.
	h.advance(DefaultChallengeWindow + time.Second)
	h.mock.AddResponse(llm.MockResponse{Text: "The lock spins open. [CORRECT: 30:60]"})

	status, view, err = h.engine.ExpireChallenge(ctx, "runner-1")
	if err != nil {
		t.Fatalf("ExpireChallenge: %v", err)
	}
	if status != ChallengeCorrect {
		t.Fatalf("status = %v, want ChallengeCorrect after retry", status)
	}
	if view == nil || view.XP != 30 {
		t.Fatalf("view = %+v, want resolved turn with 30 XP", view)
	}
	if h.engine.ActiveChallenge("runner-1") != nil {
		t.Error("challenge should be cleared after resolution")
	}
}

func TestChallenge_InputWithoutChallenge(t *testing.T) {
	h := newHarness(t)
	h.players.add("runner-1", 3)
	h.startMission(t, "runner-1", rewards.DifficultyNormal)

	_, _, err := h.engine.ChallengeInput(context.Background(), "runner-1", ColorRed)
	if !errors.Is(err, ErrNoChallenge) {
		t.Fatalf("err = %v, want ErrNoChallenge", err)
	}
}

func TestChallenge_Remaining(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ch := &Challenge{Deadline: now.Add(5 * time.Second)}

	if got := ch.Remaining(now); got != 5*time.Second {
		t.Errorf("Remaining = %v, want 5s", got)
	}
	if got := ch.Remaining(now.Add(10 * time.Second)); got != 0 {
		t.Errorf("Remaining = %v, want 0 after deadline", got)
	}
}
