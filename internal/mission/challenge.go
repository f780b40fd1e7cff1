package mission

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Color is one button in a timed override sequence.
type Color string

const (
	ColorRed    Color = "red"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorYellow Color = "yellow"
)

// AllColors lists the valid challenge colors.
func AllColors() []Color {
	return []Color{ColorRed, ColorGreen, ColorBlue, ColorYellow}
}

// ParseColor maps a string to a Color.
func ParseColor(s string) (Color, bool) {
	switch Color(strings.ToLower(strings.TrimSpace(s))) {
	case ColorRed:
		return ColorRed, true
	case ColorGreen:
		return ColorGreen, true
	case ColorBlue:
		return ColorBlue, true
	case ColorYellow:
		return ColorYellow, true
	}
	return "", false
}

// MinSequenceLen is the shortest valid challenge sequence plus one; a
// sequence must be strictly longer than 2.
const MinSequenceLen = 3

// DefaultChallengeWindow is the time allowed to enter the full sequence.
const DefaultChallengeWindow = 20 * time.Second

// ChallengeStatus is the per-input state of a timed challenge.
type ChallengeStatus int

const (
	ChallengePending ChallengeStatus = iota
	ChallengeCorrect
	ChallengeIncorrect
	ChallengeTimeout
)

// Challenge is a timed color-sequence override. It is a pure input
// front-end: its resolution becomes a synthetic action fed through the
// normal turn pipeline.
type Challenge struct {
	Sequence []Color
	Inputs   []Color
	Deadline time.Time

	// decided is set the moment the outcome is determined. The challenge
	// resolves to exactly one status; if narrating that outcome fails,
	// retries reuse decided instead of re-deriving from inputs or clock.
	decided ChallengeStatus
}

// Remaining reports time left before the lockout, floored at zero.
func (c *Challenge) Remaining(now time.Time) time.Duration {
	d := c.Deadline.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Synthetic actions fed to the narrator when a challenge resolves.
const (
	actionChallengeCorrect   = "I completed the timed override: the full color sequence was entered correctly before the lockout."
	actionChallengeIncorrect = "I failed the timed override: the color sequence I entered was wrong."
	actionChallengeTimeout   = "I failed the timed override: the lockout timer expired before I finished the sequence."
)

// StartChallenge opens a timed override for the player's active session.
// The sequence must be longer than 2 entries and only one challenge may be
// outstanding per session. A non-positive window uses the default.
func (e *Engine) StartChallenge(playerID string, sequence []Color, window time.Duration) (*Challenge, error) {
	if len(sequence) < MinSequenceLen {
		return nil, ErrShortSequence
	}
	for _, c := range sequence {
		if _, ok := ParseColor(string(c)); !ok {
			return nil, fmt.Errorf("invalid challenge color: %q", c)
		}
	}
	if window <= 0 {
		window = DefaultChallengeWindow
	}

	slot := e.slot(playerID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.session == nil || !slot.session.Active {
		return nil, ErrNoSession
	}
	if slot.session.challenge != nil {
		return nil, ErrChallengeActive
	}

	ch := &Challenge{
		Sequence: append([]Color(nil), sequence...),
		Deadline: e.now().Add(window),
	}
	slot.session.challenge = ch
	return ch, nil
}

// ActiveChallenge returns the outstanding challenge, or nil.
func (e *Engine) ActiveChallenge(playerID string) *Challenge {
	slot := e.slot(playerID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.session == nil {
		return nil
	}
	return slot.session.challenge
}

// ChallengeInput records one button press. The challenge resolves once the
// input length matches the target length, or immediately as a timeout if
// the window has already elapsed. On resolution the outcome is converted
// to a synthetic action and run through the normal turn pipeline; the
// returned view is non-nil only in that case.
func (e *Engine) ChallengeInput(ctx context.Context, playerID string, input Color) (ChallengeStatus, *NarrativeView, error) {
	slot := e.slot(playerID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	sess := slot.session
	if sess == nil || !sess.Active {
		return ChallengePending, nil, ErrNoSession
	}
	ch := sess.challenge
	if ch == nil {
		return ChallengePending, nil, ErrNoChallenge
	}
	if ch.decided != ChallengePending {
		return e.finishChallenge(ctx, slot, ch.decided)
	}

	if e.now().After(ch.Deadline) {
		return e.finishChallenge(ctx, slot, ChallengeTimeout)
	}

	ch.Inputs = append(ch.Inputs, input)
	if len(ch.Inputs) < len(ch.Sequence) {
		return ChallengePending, nil, nil
	}

	status := ChallengeCorrect
	for i := range ch.Sequence {
		if ch.Inputs[i] != ch.Sequence[i] {
			status = ChallengeIncorrect
			break
		}
	}
	return e.finishChallenge(ctx, slot, status)
}

// ExpireChallenge resolves an outstanding challenge as a timeout if its
// window has elapsed. It is a no-op while time remains.
func (e *Engine) ExpireChallenge(ctx context.Context, playerID string) (ChallengeStatus, *NarrativeView, error) {
	slot := e.slot(playerID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	sess := slot.session
	if sess == nil || !sess.Active {
		return ChallengePending, nil, ErrNoSession
	}
	ch := sess.challenge
	if ch == nil {
		return ChallengePending, nil, ErrNoChallenge
	}
	if ch.decided != ChallengePending {
		return e.finishChallenge(ctx, slot, ch.decided)
	}
	if !e.now().After(ch.Deadline) {
		return ChallengePending, nil, nil
	}

	return e.finishChallenge(ctx, slot, ChallengeTimeout)
}

// finishChallenge clears the challenge and feeds its outcome through the
// turn pipeline. The caller holds the slot lock.
func (e *Engine) finishChallenge(ctx context.Context, slot *playerSlot, status ChallengeStatus) (ChallengeStatus, *NarrativeView, error) {
	slot.session.challenge.decided = status

	var action string
	switch status {
	case ChallengeCorrect:
		action = actionChallengeCorrect
	case ChallengeIncorrect:
		action = actionChallengeIncorrect
	case ChallengeTimeout:
		action = actionChallengeTimeout
	}

	view, err := e.resolveTurnLocked(ctx, slot, action)
	if err != nil {
		// Generation failures leave the challenge outstanding so the
		// resolution can be retried; nothing was committed.
		return status, nil, err
	}

	slot.session.challenge = nil
	return status, &view, nil
}
