package run

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/dsoto/datarun/internal/mission"
	"github.com/dsoto/datarun/internal/rewards"
	"github.com/dsoto/datarun/internal/screen"
	"github.com/dsoto/datarun/internal/ui/components"
	"github.com/dsoto/datarun/internal/ui/layout"
)

type phase int

const (
	phaseLoading phase = iota
	phaseAwaiting
	phaseChallenge
	phaseTerminal
	phaseError
)

// overrideSequenceLen is the length of generated timed-override sequences.
const overrideSequenceLen = 4

const tickInterval = 250 * time.Millisecond

// Screen plays one mission from opening scene to terminal outcome.
type Screen struct {
	engine     *mission.Engine
	playerID   string
	difficulty rewards.Difficulty

	phase      phase
	input      components.TextInput
	view       mission.NarrativeView
	haveView   bool
	lastAction string
	errText    string
	retryable  bool

	challenge *mission.Challenge
	entered   int
	remaining time.Duration
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates a mission screen that will start a run on Init.
func New(engine *mission.Engine, playerID string, difficulty rewards.Difficulty) *Screen {
	return &Screen{
		engine:     engine,
		playerID:   playerID,
		difficulty: difficulty,
		phase:      phaseLoading,
		input:      components.NewTextInput("what do you do?", false, 0),
	}
}

func (s *Screen) Init() tea.Cmd {
	return tea.Batch(s.input.Init(), s.startCmd())
}

func (s *Screen) startCmd() tea.Cmd {
	return func() tea.Msg {
		// Backing out of a run leaves its session behind; abandon it so a
		// fresh mission can start.
		if _, ok := s.engine.ActiveSession(s.playerID); ok {
			s.engine.EndSession(s.playerID)
		}
		view, err := s.engine.StartMission(context.Background(), s.playerID, s.difficulty)
		return missionViewMsg{view: view, err: err}
	}
}

func (s *Screen) resolveCmd(action string) tea.Cmd {
	return func() tea.Msg {
		view, err := s.engine.ResolveTurn(context.Background(), s.playerID, action)
		return missionViewMsg{view: view, err: err}
	}
}

func (s *Screen) pageCmd(delta int) tea.Cmd {
	return func() tea.Msg {
		view, err := s.engine.TurnPage(context.Background(), s.playerID, delta)
		return missionViewMsg{view: view, err: err}
	}
}

func (s *Screen) startChallengeCmd() tea.Cmd {
	sequence := make([]mission.Color, overrideSequenceLen)
	colors := mission.AllColors()
	for i := range sequence {
		sequence[i] = colors[rand.IntN(len(colors))]
	}
	return func() tea.Msg {
		ch, err := s.engine.StartChallenge(s.playerID, sequence, 0)
		return challengeStartedMsg{challenge: ch, err: err}
	}
}

func (s *Screen) challengeInputCmd(c mission.Color) tea.Cmd {
	return func() tea.Msg {
		status, view, err := s.engine.ChallengeInput(context.Background(), s.playerID, c)
		return challengeResolvedMsg{status: status, view: view, err: err}
	}
}

func (s *Screen) expireCmd() tea.Cmd {
	return func() tea.Msg {
		status, view, err := s.engine.ExpireChallenge(context.Background(), s.playerID)
		return challengeResolvedMsg{status: status, view: view, err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// statsCmd mirrors the view's post-turn stats into the header bar.
func statsCmd(v mission.NarrativeView) tea.Cmd {
	return func() tea.Msg {
		return screen.StatsChangedMsg{Stats: layout.HeaderStats{
			Fragments: v.Fragments,
			LogKeys:   v.LogKeys,
			Lives:     v.Lives,
		}}
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case missionViewMsg:
		return s.handleView(msg)

	case challengeStartedMsg:
		if msg.err != nil {
			// Session gone or a challenge already open; stay put.
			return s, nil
		}
		s.challenge = msg.challenge
		s.entered = 0
		s.remaining = msg.challenge.Remaining(time.Now())
		s.phase = phaseChallenge
		return s, tick()

	case challengeResolvedMsg:
		return s.handleChallengeResolved(msg)

	case tickMsg:
		if s.phase != phaseChallenge || s.challenge == nil {
			return s, nil
		}
		s.remaining = s.challenge.Remaining(time.Now())
		if s.remaining == 0 {
			return s, s.expireCmd()
		}
		return s, tick()

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.phase == phaseAwaiting {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Screen) handleView(msg missionViewMsg) (screen.Screen, tea.Cmd) {
	if msg.err != nil {
		var genErr *mission.GenerationUnavailableError
		switch {
		case errors.As(msg.err, &genErr):
			s.phase = phaseError
			s.retryable = true
			s.errText = "UPLINK UNSTABLE. The narrative feed dropped; your action was not spent."
		case errors.Is(msg.err, mission.ErrNoLives):
			s.phase = phaseError
			s.retryable = false
			s.errText = "NO LIVES REMAINING. Reset the runner from the uplink menu."
		case errors.Is(msg.err, mission.ErrSessionActive):
			s.phase = phaseError
			s.retryable = false
			s.errText = "A mission is already in progress."
		default:
			s.phase = phaseError
			s.retryable = false
			s.errText = msg.err.Error()
		}
		return s, nil
	}

	s.view = msg.view
	s.haveView = true
	if msg.view.IsTerminal {
		s.phase = phaseTerminal
	} else {
		s.phase = phaseAwaiting
		s.input = components.NewTextInput("what do you do?", false, 0)
	}
	return s, tea.Batch(statsCmd(msg.view), s.input.Init())
}

func (s *Screen) handleChallengeResolved(msg challengeResolvedMsg) (screen.Screen, tea.Cmd) {
	if msg.err != nil {
		var genErr *mission.GenerationUnavailableError
		if errors.As(msg.err, &genErr) {
			// The override outcome is decided; only the narration is
			// missing. Keep ticking so resolution can retry.
			return s, tick()
		}
		s.phase = phaseError
		s.retryable = false
		s.errText = msg.err.Error()
		return s, nil
	}

	if msg.view == nil {
		// Input accepted, sequence not finished yet.
		s.entered++
		return s, nil
	}

	s.challenge = nil
	s.view = *msg.view
	s.haveView = true
	if msg.view.IsTerminal {
		s.phase = phaseTerminal
	} else {
		s.phase = phaseAwaiting
		s.input = components.NewTextInput("what do you do?", false, 0)
	}
	return s, tea.Batch(statsCmd(*msg.view), s.input.Init())
}

func (s *Screen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	switch s.phase {
	case phaseAwaiting:
		switch key {
		case "enter":
			action := s.input.Value()
			if action == "" {
				return s, nil
			}
			s.lastAction = action
			s.phase = phaseLoading
			return s, s.resolveCmd(action)
		case "left":
			return s, s.pageCmd(-1)
		case "right":
			return s, s.pageCmd(1)
		case "ctrl+o":
			return s, s.startChallengeCmd()
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd

	case phaseChallenge:
		if c, ok := colorForKey(key); ok {
			return s, s.challengeInputCmd(c)
		}

	case phaseTerminal:
		switch key {
		case "left":
			return s, s.pageCmd(-1)
		case "right":
			return s, s.pageCmd(1)
		}

	case phaseError:
		if key == "enter" && s.retryable && s.lastAction != "" {
			s.phase = phaseLoading
			return s, s.resolveCmd(s.lastAction)
		}
		if key == "enter" && s.retryable && !s.haveView {
			s.phase = phaseLoading
			return s, s.startCmd()
		}
	}

	return s, nil
}

func colorForKey(key string) (mission.Color, bool) {
	switch key {
	case "r":
		return mission.ColorRed, true
	case "g":
		return mission.ColorGreen, true
	case "b":
		return mission.ColorBlue, true
	case "y":
		return mission.ColorYellow, true
	}
	return "", false
}

func (s *Screen) Title() string {
	if s.haveView {
		return s.view.Title
	}
	return "DATARUN // " + strings.ToUpper(s.difficulty.DisplayName())
}

func (s *Screen) KeyHints() []layout.KeyHint {
	switch s.phase {
	case phaseAwaiting:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Act"},
			{Key: "←→", Description: "History"},
			{Key: "Ctrl+O", Description: "Override"},
			{Key: "Esc", Description: "Abandon"},
		}
	case phaseChallenge:
		return []layout.KeyHint{
			{Key: "r/g/b/y", Description: "Press buttons"},
		}
	case phaseTerminal:
		return []layout.KeyHint{
			{Key: "←→", Description: "History"},
			{Key: "Esc", Description: "Back"},
		}
	case phaseError:
		if s.retryable {
			return []layout.KeyHint{
				{Key: "Enter", Description: "Retry"},
				{Key: "Esc", Description: "Back"},
			}
		}
	}
	return []layout.KeyHint{
		{Key: "Esc", Description: "Back"},
	}
}
