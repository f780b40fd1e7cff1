package store

import (
	"context"
	"time"
)

// Player is the persistent record for one runner.
type Player struct {
	ID        string
	Fragments int
	LogKeys   int
	Lives     int
	Level     int
	XP        int
}

// InventoryEntry is one (item, quantity) pair for a player. Entries with
// quantity <= 0 are never returned; they are deleted on write.
type InventoryEntry struct {
	ItemID   string
	Quantity int
}

// ItemGrant adds quantity of an item as part of a turn commit.
type ItemGrant struct {
	ItemID   string
	Quantity int
}

// TurnEffects is the full set of persistent mutations produced by one
// resolved turn. ApplyTurnEffects commits all of it in one transaction so a
// failed write leaves no partial state behind.
type TurnEffects struct {
	XPDelta        int
	FragmentsDelta int
	LogKeysDelta   int
	LivesDelta     int
	// SetLives, when non-nil, overrides LivesDelta with an absolute value.
	SetLives *int
	Grants   []ItemGrant
	// Consume decrements one unit of the named item, deleting the row when
	// it reaches zero.
	Consume string
}

// PlayerRepo provides access to player rows and their inventories.
type PlayerRepo interface {
	// Get returns the player or ErrNotFound.
	Get(ctx context.Context, id string) (*Player, error)

	// Ensure inserts a fresh player row (3 lives, level 1) if none exists
	// and returns the current row either way.
	Ensure(ctx context.Context, id string) (*Player, error)

	// ApplyTurnEffects commits all effects atomically.
	ApplyTurnEffects(ctx context.Context, id string, eff TurnEffects) error

	// Inventory returns the player's entries with quantity > 0.
	Inventory(ctx context.Context, id string) ([]InventoryEntry, error)

	// SetLives overwrites the lives counter, clamped at >= 0.
	SetLives(ctx context.Context, id string, lives int) error
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEventRecord is a stored LLM request event.
type LLMEventRecord struct {
	ID           int64
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
	Timestamp    time.Time
}

// QueryOpts limits and filters LLM event queries.
type QueryOpts struct {
	Limit   int
	Purpose string
}

// Mission event kinds.
const (
	MissionStarted   = "mission_started"
	MissionCompleted = "mission_completed"
	MissionFailed    = "mission_failed"
)

// MissionEventData captures one mission lifecycle event. Completed events
// are the persistent victory log.
type MissionEventData struct {
	PlayerID   string
	SessionID  string
	Kind       string
	Difficulty string
	Detail     string
}

// MissionEventRecord is a stored mission event.
type MissionEventRecord struct {
	ID         int64
	PlayerID   string
	SessionID  string
	Kind       string
	Difficulty string
	Detail     string
	Timestamp  time.Time
}

// MissionCounts aggregates a player's mission history.
type MissionCounts struct {
	Started   int
	Completed int
	Failed    int
}

// EventRepo provides append access to domain events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// AppendMissionEvent records a mission lifecycle event.
	AppendMissionEvent(ctx context.Context, data MissionEventData) error

	// MissionCounts returns aggregate mission stats for a player.
	MissionCounts(ctx context.Context, playerID string) (MissionCounts, error)

	// RecentMissionEvents returns the newest events for a player, newest
	// first, capped at limit.
	RecentMissionEvents(ctx context.Context, playerID string, limit int) ([]MissionEventRecord, error)

	// QueryLLMEvents returns recent LLM events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEventRecord, error)

	// GetLLMEvent returns one event with its full request/response bodies,
	// or nil when no row matches.
	GetLLMEvent(ctx context.Context, id int64) (*LLMEventRecord, error)
}
