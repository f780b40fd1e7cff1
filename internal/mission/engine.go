package mission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dsoto/datarun/internal/catalog"
	"github.com/dsoto/datarun/internal/narrative"
	"github.com/dsoto/datarun/internal/rewards"
	"github.com/dsoto/datarun/internal/store"
)

const (
	// memoryRecallLimit caps recalled snippets per turn.
	memoryRecallLimit = 5

	// catalogExcerptPerCategory caps the item sample shown to the narrator.
	catalogExcerptPerCategory = 3

	// memorySnippetMax truncates narrative stored for later recall.
	memorySnippetMax = 240

	startingLives = 3
)

// MemoryStore is the recall collaborator: best-effort relevance ranking
// over a player's prior mission strings.
type MemoryStore interface {
	Query(ctx context.Context, playerID, query string, limit int) ([]string, error)
	Store(ctx context.Context, playerID, text string) error
	Clear(ctx context.Context, playerID string) error
}

// Engine runs missions. It serializes all operations per player, commits
// each turn's persistent effects atomically, and terminates sessions on
// completion or death.
type Engine struct {
	players  store.PlayerRepo
	events   store.EventRepo
	memories MemoryStore
	narrator narrative.Narrator
	catalog  *catalog.Catalog
	roller   *rewards.Roller

	// now is injectable for challenge timing tests.
	now func() time.Time

	mu    sync.Mutex
	slots map[string]*playerSlot
}

// playerSlot serializes engine operations for one player. Operations for
// different players proceed independently.
type playerSlot struct {
	mu      sync.Mutex
	session *Session
}

// Options configures an Engine.
type Options struct {
	Players  store.PlayerRepo
	Events   store.EventRepo
	Memories MemoryStore
	Narrator narrative.Narrator
	Catalog  *catalog.Catalog

	// Roller defaults to a system-seeded roller.
	Roller *rewards.Roller

	// Now defaults to time.Now.
	Now func() time.Time
}

// New creates an Engine.
func New(opts Options) *Engine {
	roller := opts.Roller
	if roller == nil {
		roller = rewards.NewRoller()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		players:  opts.Players,
		events:   opts.Events,
		memories: opts.Memories,
		narrator: opts.Narrator,
		catalog:  opts.Catalog,
		roller:   roller,
		now:      now,
		slots:    make(map[string]*playerSlot),
	}
}

func (e *Engine) slot(playerID string) *playerSlot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.slots[playerID]
	if !ok {
		s = &playerSlot{}
		e.slots[playerID] = s
	}
	return s
}

// StartMission opens a new session for the player and generates the
// opening scene. It fails without side effects if a session is already
// active, the player is unknown, the player has no lives, or the narrator
// is unavailable.
func (e *Engine) StartMission(ctx context.Context, playerID string, difficulty rewards.Difficulty) (NarrativeView, error) {
	if !difficulty.Valid() {
		return NarrativeView{}, fmt.Errorf("invalid difficulty: %q", difficulty)
	}

	slot := e.slot(playerID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.session != nil && slot.session.Active {
		return NarrativeView{}, ErrSessionActive
	}

	player, err := e.players.Get(ctx, playerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NarrativeView{}, ErrNoPlayer
		}
		return NarrativeView{}, err
	}
	if player.Lives <= 0 {
		return NarrativeView{}, ErrNoLives
	}

	tc, err := e.buildContext(ctx, player, difficulty, "", nil)
	if err != nil {
		return NarrativeView{}, err
	}

	raw, err := e.narrator.OpenMission(ctx, tc)
	if err != nil {
		return NarrativeView{}, &GenerationUnavailableError{Err: err}
	}
	// The opening scene should carry no tags; strip any that slip through.
	clean, _ := narrative.Parse(raw)

	sess := newSession(playerID, difficulty, e.now())
	sess.appendTurn(clean)
	slot.session = sess

	e.appendEvent(ctx, store.MissionEventData{
		PlayerID:   playerID,
		SessionID:  sess.ID.String(),
		Kind:       store.MissionStarted,
		Difficulty: string(difficulty),
	})

	return e.buildView(player, sess, clean, TerminalNone, ""), nil
}

// ResolveTurn runs one turn of the player's active mission. The action must
// be non-empty and no timed challenge may be outstanding.
func (e *Engine) ResolveTurn(ctx context.Context, playerID, action string) (NarrativeView, error) {
	slot := e.slot(playerID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.session == nil || !slot.session.Active {
		return NarrativeView{}, ErrNoSession
	}
	if slot.session.challenge != nil {
		return NarrativeView{}, ErrChallengeActive
	}
	if strings.TrimSpace(action) == "" {
		return NarrativeView{}, ErrEmptyAction
	}

	return e.resolveTurnLocked(ctx, slot, strings.TrimSpace(action))
}

// resolveTurnLocked runs the tag-driven transition for one action. The
// caller holds the slot lock and has verified the session is active.
//
// All persistent effects accumulate into one TurnEffects and commit in a
// single transaction; the session is only mutated after that commit
// succeeds, so a storage failure leaves no partial turn behind.
func (e *Engine) resolveTurnLocked(ctx context.Context, slot *playerSlot, action string) (NarrativeView, error) {
	sess := slot.session

	player, err := e.players.Get(ctx, sess.PlayerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NarrativeView{}, ErrNoPlayer
		}
		return NarrativeView{}, err
	}

	tc, err := e.buildContext(ctx, player, sess.Difficulty, action, sess)
	if err != nil {
		return NarrativeView{}, err
	}

	raw, err := e.narrator.ResolveAction(ctx, tc)
	if err != nil {
		return NarrativeView{}, &GenerationUnavailableError{Err: err}
	}

	clean, tags := narrative.Parse(raw)

	var (
		effects       store.TurnEffects
		terminal      TerminalKind
		progress      = sess.Progress
		pendingAnswer = sess.PendingAnswer
		rewardSummary string
		body          = clean
	)

	// Tags apply independently in fixed precedence. The first terminal
	// outcome wins; later tags in the order are skipped once one fires.
	if tags.Correct != nil {
		effects.XPDelta += tags.Correct.XP
		progress = tags.Correct.Progress
		body += fmt.Sprintf("\n\n>> ACCESS GRANTED [+%d XP]", tags.Correct.XP)
	}

	if tags.Incorrect != nil {
		progress = tags.Incorrect.Progress
		effects.LivesDelta--
		if player.Lives-1 <= 0 {
			terminal = TerminalFailed
		} else {
			body += fmt.Sprintf("\n\n>> INTRUSION DETECTED. LIVES REMAINING: %d", player.Lives-1)
		}
	}

	if terminal == TerminalNone && tags.Challenge != nil {
		body += "\n\n>> " + tags.Challenge.Text
	}
	if terminal == TerminalNone && tags.Answer != nil {
		pendingAnswer = tags.Answer.Text
	}

	if terminal == TerminalNone && tags.LevelComplete != nil {
		reward, err := e.roller.RollCompletion(e.catalog, sess.Difficulty)
		if err != nil {
			return NarrativeView{}, err
		}
		effects.FragmentsDelta += reward.Fragments + tags.LevelComplete.Bonus
		effects.LogKeysDelta += reward.LogKeys
		effects.XPDelta += reward.XP
		effects.LivesDelta++
		for _, item := range reward.Items {
			effects.Grants = append(effects.Grants, store.ItemGrant{ItemID: item.ID, Quantity: 1})
		}
		rewardSummary = reward.Summary()
		if tags.LevelComplete.Bonus > 0 {
			rewardSummary += fmt.Sprintf(", +%d bonus fragments", tags.LevelComplete.Bonus)
		}
		terminal = TerminalCompleted
	}

	if terminal == TerminalNone && tags.PlayerDeath {
		zero := 0
		effects.SetLives = &zero
		terminal = TerminalFailed
	}

	if err := e.players.ApplyTurnEffects(ctx, sess.PlayerID, effects); err != nil {
		return NarrativeView{}, fmt.Errorf("commit turn effects: %w", err)
	}

	// Commit succeeded; the session may now change.
	sess.Progress = progress
	sess.PendingAnswer = pendingAnswer
	sess.appendTurn(body)

	switch terminal {
	case TerminalCompleted:
		sess.Active = false
		sess.Terminal = TerminalCompleted
		e.appendEvent(ctx, store.MissionEventData{
			PlayerID:   sess.PlayerID,
			SessionID:  sess.ID.String(),
			Kind:       store.MissionCompleted,
			Difficulty: string(sess.Difficulty),
			Detail:     rewardSummary,
		})
	case TerminalFailed:
		sess.Active = false
		sess.Terminal = TerminalFailed
		e.appendEvent(ctx, store.MissionEventData{
			PlayerID:   sess.PlayerID,
			SessionID:  sess.ID.String(),
			Kind:       store.MissionFailed,
			Difficulty: string(sess.Difficulty),
		})
	default:
		e.remember(ctx, sess.PlayerID, action, clean, tags)
	}

	after := applyToStats(player, effects)
	return e.buildView(after, sess, body, terminal, rewardSummary), nil
}

// buildContext assembles the narrator's view of the world for one turn.
func (e *Engine) buildContext(ctx context.Context, player *store.Player, difficulty rewards.Difficulty, action string, sess *Session) (narrative.TurnContext, error) {
	tc := narrative.TurnContext{
		PlayerID:   player.ID,
		Difficulty: difficulty,
		Action:     action,
		Stats: narrative.PlayerStats{
			Level:     player.Level,
			XP:        player.XP,
			Lives:     player.Lives,
			Fragments: player.Fragments,
			LogKeys:   player.LogKeys,
		},
		CatalogExcerpt: e.catalog.Excerpt(catalogExcerptPerCategory),
	}

	if action != "" {
		// Recall is best-effort; a failed lookup just means no memories.
		if memories, err := e.memories.Query(ctx, player.ID, action, memoryRecallLimit); err == nil {
			tc.Memories = memories
		}
	}

	entries, err := e.players.Inventory(ctx, player.ID)
	if err != nil {
		return narrative.TurnContext{}, fmt.Errorf("load inventory: %w", err)
	}
	for _, entry := range entries {
		name := entry.ItemID
		if item, ok := e.catalog.Get(entry.ItemID); ok {
			name = item.Name
		}
		tc.Inventory = append(tc.Inventory, narrative.InventoryLine{Name: name, Quantity: entry.Quantity})
	}

	if sess != nil {
		tc.History = sess.History
	}

	return tc, nil
}

// remember stores the turn in the recall collaborator. Failures are
// swallowed; recall is a best-effort enrichment, not a ledger.
func (e *Engine) remember(ctx context.Context, playerID, action, clean string, tags narrative.Outcomes) {
	snippet := clean
	if len(snippet) > memorySnippetMax {
		snippet = snippet[:memorySnippetMax]
	}
	_ = e.memories.Store(ctx, playerID, fmt.Sprintf("Action: %s. Outcome: %s", action, snippet))

	if tags.Answer != nil {
		_ = e.memories.Store(ctx, playerID, fmt.Sprintf("The correct answer to the current challenge is: %s", tags.Answer.Text))
	}
}

// appendEvent records a mission lifecycle event; a failed append never
// fails the turn.
func (e *Engine) appendEvent(ctx context.Context, data store.MissionEventData) {
	_ = e.events.AppendMissionEvent(ctx, data)
}

// applyToStats computes post-commit stats without re-reading the store.
func applyToStats(p *store.Player, eff store.TurnEffects) *store.Player {
	after := *p
	after.XP = max(0, after.XP+eff.XPDelta)
	after.Fragments = max(0, after.Fragments+eff.FragmentsDelta)
	after.LogKeys = max(0, after.LogKeys+eff.LogKeysDelta)
	if eff.SetLives != nil {
		after.Lives = *eff.SetLives
	} else {
		after.Lives = max(0, after.Lives+eff.LivesDelta)
	}
	return &after
}

func (e *Engine) buildView(player *store.Player, sess *Session, body string, terminal TerminalKind, rewardSummary string) NarrativeView {
	title := fmt.Sprintf("DATARUN // %s", strings.ToUpper(sess.Difficulty.DisplayName()))
	switch terminal {
	case TerminalCompleted:
		title = "MISSION COMPLETE"
	case TerminalFailed:
		title = "CONNECTION TERMINATED"
	}

	return NarrativeView{
		Title:         title,
		Body:          body,
		IsTerminal:    terminal != TerminalNone,
		TerminalKind:  terminal,
		Level:         player.Level,
		XP:            player.XP,
		Lives:         player.Lives,
		Fragments:     player.Fragments,
		LogKeys:       player.LogKeys,
		Progress:      sess.Progress,
		Page:          sess.Page,
		Pages:         len(sess.History),
		RewardSummary: rewardSummary,
	}
}

// TurnPage moves the history page by delta (negative for older turns) and
// returns the view at the new page. Works on ended sessions too, so the
// final narrative stays readable.
func (e *Engine) TurnPage(ctx context.Context, playerID string, delta int) (NarrativeView, error) {
	slot := e.slot(playerID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	sess := slot.session
	if sess == nil || len(sess.History) == 0 {
		return NarrativeView{}, ErrNoSession
	}

	page := sess.Page + delta
	if page < 0 {
		page = 0
	}
	if page > len(sess.History)-1 {
		page = len(sess.History) - 1
	}
	sess.Page = page

	player, err := e.players.Get(ctx, playerID)
	if err != nil {
		return NarrativeView{}, err
	}

	return e.buildView(player, sess, sess.History[page], sess.Terminal, ""), nil
}

// ActiveSession reports whether the player has a live session and its
// difficulty when so.
func (e *Engine) ActiveSession(playerID string) (rewards.Difficulty, bool) {
	slot := e.slot(playerID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.session == nil || !slot.session.Active {
		return "", false
	}
	return slot.session.Difficulty, true
}

// EndSession clears the player's session without touching persistent
// stats. Used when the player abandons a mission.
func (e *Engine) EndSession(playerID string) {
	slot := e.slot(playerID)
	slot.mu.Lock()
	defer slot.mu.Unlock()
	slot.session = nil
}

// Reset clears the player's session, restores lives to the starting count,
// and wipes recalled memories. This is the recovery path after a failed
// mission locks the player out.
func (e *Engine) Reset(ctx context.Context, playerID string) error {
	slot := e.slot(playerID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if err := e.players.SetLives(ctx, playerID, startingLives); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNoPlayer
		}
		return err
	}
	if err := e.memories.Clear(ctx, playerID); err != nil {
		return fmt.Errorf("clear memories: %w", err)
	}
	slot.session = nil
	return nil
}
