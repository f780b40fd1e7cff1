package home

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/dsoto/datarun/internal/mission"
	"github.com/dsoto/datarun/internal/rewards"
	"github.com/dsoto/datarun/internal/router"
	"github.com/dsoto/datarun/internal/screen"
	runscreen "github.com/dsoto/datarun/internal/screens/run"
	statsscreen "github.com/dsoto/datarun/internal/screens/stats"
	"github.com/dsoto/datarun/internal/store"
	"github.com/dsoto/datarun/internal/ui/components"
	"github.com/dsoto/datarun/internal/ui/layout"
)

// Deps wires the home screen to the engine and repositories.
type Deps struct {
	PlayerID string
	Engine   *mission.Engine
	Players  store.PlayerRepo
	Events   store.EventRepo
}

// HomeScreen is the main menu.
type HomeScreen struct {
	deps       Deps
	menu       components.Menu
	menuLabels []string
	player     *store.Player
	counts     store.MissionCounts
}

var _ screen.Screen = (*HomeScreen)(nil)

type homeDataMsg struct {
	player *store.Player
	counts store.MissionCounts
}

type resetDoneMsg struct{ err error }

// New creates a new HomeScreen.
func New(deps Deps) *HomeScreen {
	menuLabels := []string{
		"MISSION: EASY",
		"MISSION: NORMAL",
		"MISSION: HARD",
		"MISSION LOG",
		"RESET RUNNER",
		"DISCONNECT",
	}

	h := &HomeScreen{
		deps:       deps,
		menuLabels: menuLabels,
	}

	missionAction := func(d rewards.Difficulty) func() tea.Cmd {
		return func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{
					Screen: runscreen.New(deps.Engine, deps.PlayerID, d),
				}
			}
		}
	}

	items := []components.MenuItem{
		{Label: menuLabels[0], Action: missionAction(rewards.DifficultyEasy)},
		{Label: menuLabels[1], Action: missionAction(rewards.DifficultyNormal)},
		{Label: menuLabels[2], Action: missionAction(rewards.DifficultyHard)},
		{Label: menuLabels[3], Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{
					Screen: statsscreen.New(deps.PlayerID, deps.Players, deps.Events),
				}
			}
		}},
		{Label: menuLabels[4], Action: h.resetCmd},
		{Label: menuLabels[5], Action: func() tea.Cmd {
			return tea.Quit
		}},
	}

	h.menu = components.NewMenu(items)
	return h
}

func (h *HomeScreen) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		player, err := h.deps.Players.Get(ctx, h.deps.PlayerID)
		if err != nil {
			return homeDataMsg{}
		}
		counts, _ := h.deps.Events.MissionCounts(ctx, h.deps.PlayerID)
		return homeDataMsg{player: player, counts: counts}
	}
}

func (h *HomeScreen) resetCmd() tea.Cmd {
	return func() tea.Msg {
		err := h.deps.Engine.Reset(context.Background(), h.deps.PlayerID)
		return resetDoneMsg{err: err}
	}
}

func (h *HomeScreen) Init() tea.Cmd {
	return h.loadCmd()
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case homeDataMsg:
		h.player = msg.player
		h.counts = msg.counts
		lockedOut := h.player != nil && h.player.Lives <= 0
		for i := range 3 {
			h.menu.Items[i].Disabled = lockedOut
		}
		if lockedOut && h.menu.Selected < 3 {
			h.menu.Selected = 4 // jump to RESET RUNNER
		}
		if h.player != nil {
			return h, func() tea.Msg {
				return screen.StatsChangedMsg{Stats: layout.HeaderStats{
					Fragments: h.player.Fragments,
					LogKeys:   h.player.LogKeys,
					Lives:     h.player.Lives,
				}}
			}
		}
		return h, nil

	case resetDoneMsg:
		if msg.err == nil {
			return h, h.loadCmd()
		}
		return h, nil
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	termHeight := height + 8
	compact := termHeight < 30 || width < 100

	cw := contentWidth(width)

	var sections []string
	sections = append(sections, renderTitle(cw, compact))
	sections = append(sections, renderStatsBar(h.player, h.counts, cw, compact))

	if h.player != nil && h.player.Lives <= 0 {
		sections = append(sections, renderLockoutBanner(cw))
	}

	disabled := map[int]bool{}
	if h.player != nil && h.player.Lives <= 0 {
		// Missions need at least one life; the reset entry stays live.
		disabled[0], disabled[1], disabled[2] = true, true, true
	}
	sections = append(sections, renderMenu(h.menuLabels, h.menu.Selected, cw, disabled))

	content := strings.Join(sections, "\n\n")
	return renderConsoleFrame(content, width, height)
}

func (h *HomeScreen) Title() string {
	return "Uplink"
}
