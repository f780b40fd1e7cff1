package mission

// TerminalKind classifies how a mission ended.
type TerminalKind string

const (
	TerminalNone      TerminalKind = ""
	TerminalCompleted TerminalKind = "completed"
	TerminalFailed    TerminalKind = "failed"
)

// displayLivesMax caps lives shown to the player. The stored value may
// exceed this after completion bonuses.
const displayLivesMax = 3

// NarrativeView is what one resolved turn looks like to the caller.
type NarrativeView struct {
	Title string
	Body  string

	IsTerminal   bool
	TerminalKind TerminalKind

	// Player stats after the turn's effects were committed.
	Level     int
	XP        int
	Lives     int
	Fragments int
	LogKeys   int

	// Progress is mission completion, 0-100.
	Progress int

	// Page and Pages support previous-turn navigation.
	Page  int
	Pages int

	// RewardSummary is set on mission completion.
	RewardSummary string
}

// DisplayLives returns the lives value clamped for presentation.
func (v NarrativeView) DisplayLives() int {
	if v.Lives > displayLivesMax {
		return displayLivesMax
	}
	return v.Lives
}
