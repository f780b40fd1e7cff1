package mission

import (
	"time"

	"github.com/google/uuid"

	"github.com/dsoto/datarun/internal/rewards"
)

// Session is one player's active mission. At most one exists per player
// at any time. History is append-only; Page indexes into it for
// previous-turn navigation.
type Session struct {
	ID         uuid.UUID
	PlayerID   string
	Difficulty rewards.Difficulty

	History []string
	Page    int

	// Progress is the generator-reported mission completion, 0-100.
	Progress int

	// PendingAnswer is the expected solution for the current challenge,
	// if the generator posed one. It lives on the session so lookup is
	// exact; a copy also goes to the memory store for narrative recall.
	PendingAnswer string

	Active    bool
	Terminal  TerminalKind
	StartedAt time.Time

	challenge *Challenge
}

func newSession(playerID string, difficulty rewards.Difficulty, startedAt time.Time) *Session {
	return &Session{
		ID:         uuid.New(),
		PlayerID:   playerID,
		Difficulty: difficulty,
		Active:     true,
		StartedAt:  startedAt,
	}
}

// appendTurn records a narrative snapshot and moves the page to it.
func (s *Session) appendTurn(text string) {
	s.History = append(s.History, text)
	s.Page = len(s.History) - 1
}
