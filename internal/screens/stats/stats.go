// Package stats renders the mission log: the runner's standing, mission
// history, and collected inventory.
package stats

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/dsoto/datarun/internal/catalog"
	"github.com/dsoto/datarun/internal/screen"
	"github.com/dsoto/datarun/internal/store"
	"github.com/dsoto/datarun/internal/ui/theme"
)

const recentEventLimit = 12

// Screen shows the mission log for one player.
type Screen struct {
	playerID string
	players  store.PlayerRepo
	events   store.EventRepo

	loaded    bool
	player    *store.Player
	counts    store.MissionCounts
	recent    []store.MissionEventRecord
	inventory []store.InventoryEntry
	items     *catalog.Catalog
	errText   string
}

var _ screen.Screen = (*Screen)(nil)

type dataMsg struct {
	player    *store.Player
	counts    store.MissionCounts
	recent    []store.MissionEventRecord
	inventory []store.InventoryEntry
	items     *catalog.Catalog
	err       error
}

// New creates the mission log screen.
func New(playerID string, players store.PlayerRepo, events store.EventRepo) *Screen {
	return &Screen{
		playerID: playerID,
		players:  players,
		events:   events,
	}
}

func (s *Screen) Init() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		player, err := s.players.Get(ctx, s.playerID)
		if err != nil {
			return dataMsg{err: err}
		}
		counts, _ := s.events.MissionCounts(ctx, s.playerID)
		recent, _ := s.events.RecentMissionEvents(ctx, s.playerID, recentEventLimit)
		inventory, _ := s.players.Inventory(ctx, s.playerID)
		// Item names are cosmetic here; a load failure just shows raw IDs.
		items, _ := catalog.Default()
		return dataMsg{
			player:    player,
			counts:    counts,
			recent:    recent,
			inventory: inventory,
			items:     items,
		}
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if msg, ok := msg.(dataMsg); ok {
		s.loaded = true
		if msg.err != nil {
			s.errText = msg.err.Error()
			return s, nil
		}
		s.player = msg.player
		s.counts = msg.counts
		s.recent = msg.recent
		s.inventory = msg.inventory
		s.items = msg.items
	}
	return s, nil
}

func (s *Screen) View(width, height int) string {
	cw := width - 8
	if cw > 72 {
		cw = 72
	}
	if cw < 30 {
		cw = 30
	}

	var content string
	switch {
	case !s.loaded:
		content = theme.Hint.Render("READING MISSION LOG ...")
	case s.errText != "":
		content = theme.Incorrect.Render(s.errText)
	default:
		content = strings.Join([]string{
			s.renderStanding(cw),
			s.renderHistory(cw),
			s.renderInventory(cw),
		}, "\n\n")
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

func (s *Screen) renderStanding(cw int) string {
	p := s.player
	line := fmt.Sprintf("LVL %d   %d XP   ⬡ %d   ⌘ %d   ♥ %d",
		p.Level, p.XP, p.Fragments, p.LogKeys, p.Lives)
	runs := fmt.Sprintf("runs: %d started, %d completed, %d failed",
		s.counts.Started, s.counts.Completed, s.counts.Failed)

	block := theme.Title.Render("RUNNER STANDING") + "\n" +
		theme.Body.Render(line) + "\n" +
		theme.Hint.Render(runs)
	return theme.Card.Width(cw - 2).Align(lipgloss.Center).Render(block)
}

func (s *Screen) renderHistory(cw int) string {
	var lines []string
	lines = append(lines, theme.Title.Render("MISSION HISTORY"))
	if len(s.recent) == 0 {
		lines = append(lines, theme.Hint.Render("no missions on record"))
	}
	for _, ev := range s.recent {
		var marker string
		switch ev.Kind {
		case store.MissionCompleted:
			marker = theme.Correct.Render("✓")
		case store.MissionFailed:
			marker = theme.Incorrect.Render("✗")
		default:
			marker = theme.Hint.Render("·")
		}
		line := fmt.Sprintf("%s %s  %s  %s",
			marker,
			ev.Timestamp.Format("2006-01-02 15:04"),
			strings.ToUpper(ev.Difficulty),
			ev.Detail,
		)
		lines = append(lines, theme.Body.Render(line))
	}
	return theme.Card.Width(cw - 2).Render(strings.Join(lines, "\n"))
}

func (s *Screen) renderInventory(cw int) string {
	var lines []string
	lines = append(lines, theme.Title.Render("RECOVERED GEAR"))
	if len(s.inventory) == 0 {
		lines = append(lines, theme.Hint.Render("nothing recovered yet"))
	}
	for _, entry := range s.inventory {
		name := entry.ItemID
		icon := "▪"
		if s.items != nil {
			if it, ok := s.items.Get(entry.ItemID); ok {
				name = it.Name
				icon = it.Rarity.Icon()
			}
		}
		lines = append(lines, theme.Body.Render(
			fmt.Sprintf("%s %s x%d", icon, name, entry.Quantity)))
	}
	return theme.Card.Width(cw - 2).Render(strings.Join(lines, "\n"))
}

func (s *Screen) Title() string {
	return "Mission Log"
}
