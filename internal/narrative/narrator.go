package narrative

import (
	"context"

	"github.com/dsoto/datarun/internal/catalog"
	"github.com/dsoto/datarun/internal/rewards"
)

// Narrator produces mission narration. Raw output may carry bracket control
// tags; callers run it through Parse before showing it to the player.
type Narrator interface {
	// OpenMission generates the opening scene for a new mission.
	OpenMission(ctx context.Context, tc TurnContext) (string, error)

	// ResolveAction narrates the result of the player's latest action.
	ResolveAction(ctx context.Context, tc TurnContext) (string, error)
}

// PlayerStats is the slice of persistent state the narrator sees.
type PlayerStats struct {
	Level     int
	XP        int
	Lives     int
	Fragments int
	LogKeys   int
}

// InventoryLine is one owned item resolved against the catalog.
type InventoryLine struct {
	Name     string
	Quantity int
}

// TurnContext carries everything the narrator needs for one generation.
type TurnContext struct {
	PlayerID   string
	Difficulty rewards.Difficulty
	Action     string

	Stats     PlayerStats
	Memories  []string
	Inventory []InventoryLine

	// CatalogExcerpt is a shortened item catalog for flavor, capped per
	// category to keep the prompt small.
	CatalogExcerpt []catalog.Item

	// History holds the most recent narrative turns, oldest first.
	History []string
}

// Config controls generation parameters for the LLM narrator.
type Config struct {
	MaxTokens   int
	Temperature float64

	// MaxMemories caps recalled memory snippets included in the prompt.
	MaxMemories int

	// MaxHistory caps prior narrative turns included in the prompt.
	MaxHistory int
}

// DefaultConfig returns generation defaults tuned for short scene beats.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   700,
		Temperature: 0.8,
		MaxMemories: 5,
		MaxHistory:  4,
	}
}
