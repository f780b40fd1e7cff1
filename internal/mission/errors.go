package mission

import (
	"errors"
	"fmt"
)

// Precondition failures. The caller did something wrong; no state was touched.
var (
	ErrNoPlayer        = errors.New("no such player")
	ErrSessionActive   = errors.New("a mission is already active for this player")
	ErrNoSession       = errors.New("no active mission for this player")
	ErrNoLives         = errors.New("no lives remaining")
	ErrEmptyAction     = errors.New("action text is empty")
	ErrChallengeActive = errors.New("a timed challenge is already outstanding")
	ErrNoChallenge     = errors.New("no timed challenge is outstanding")
	ErrShortSequence   = errors.New("challenge sequence must be longer than 2")
)

// GenerationUnavailableError reports that the narrative generator failed or
// timed out. The turn had no effect; the caller may retry the same action.
type GenerationUnavailableError struct {
	Err error
}

func (e *GenerationUnavailableError) Error() string {
	return fmt.Sprintf("narrative generation unavailable: %v", e.Err)
}

func (e *GenerationUnavailableError) Unwrap() error { return e.Err }
