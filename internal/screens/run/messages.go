package run

import (
	"time"

	"github.com/dsoto/datarun/internal/mission"
)

// missionViewMsg carries the result of a start, resolve, or page turn.
type missionViewMsg struct {
	view mission.NarrativeView
	err  error
}

// challengeStartedMsg carries the result of opening a timed override.
type challengeStartedMsg struct {
	challenge *mission.Challenge
	err       error
}

// challengeResolvedMsg carries one override input's outcome. view is
// non-nil only when the challenge resolved into a turn.
type challengeResolvedMsg struct {
	status mission.ChallengeStatus
	view   *mission.NarrativeView
	err    error
}

// tickMsg drives the override countdown.
type tickMsg time.Time
