package app

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/dsoto/datarun/internal/mission"
	"github.com/dsoto/datarun/internal/router"
	"github.com/dsoto/datarun/internal/screen"
	"github.com/dsoto/datarun/internal/screens/home"
	"github.com/dsoto/datarun/internal/store"
	"github.com/dsoto/datarun/internal/ui/layout"
)

// Options wires the engine and repositories into the TUI.
type Options struct {
	PlayerID string
	Engine   *mission.Engine
	Players  store.PlayerRepo
	Events   store.EventRepo
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	opts   Options
	router *router.Router
	stats  layout.HeaderStats
	width  int
	height int
}

// newAppModel creates a new AppModel with the home screen.
func newAppModel(opts Options) AppModel {
	homeScreen := home.New(home.Deps{
		PlayerID: opts.PlayerID,
		Engine:   opts.Engine,
		Players:  opts.Players,
		Events:   opts.Events,
	})
	return AppModel{
		opts:   opts,
		router: router.New(homeScreen),
	}
}

// loadStats reads the player row for the header bar.
func (m AppModel) loadStats() tea.Cmd {
	return func() tea.Msg {
		p, err := m.opts.Players.Get(context.Background(), m.opts.PlayerID)
		if err != nil {
			return nil
		}
		return screen.StatsChangedMsg{Stats: layout.HeaderStats{
			Fragments: p.Fragments,
			LogKeys:   p.LogKeys,
			Lives:     p.Lives,
		}}
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.loadStats()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case screen.StatsChangedMsg:
		m.stats = msg.Stats
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, tea.Batch(
					func() tea.Msg { return router.PopScreenMsg{} },
					m.loadStats(),
				)
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.stats, m.width)

	var footerHints []layout.KeyHint
	if provider, ok := active.(screen.KeyHintProvider); ok {
		footerHints = provider.KeyHints()
	} else if m.router.Depth() > 1 {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	} else {
		footerHints = []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	p := tea.NewProgram(newAppModel(opts))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
