package home

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/dsoto/datarun/internal/store"
	"github.com/dsoto/datarun/internal/ui/theme"
)

// Block-letter title.
const bannerFull = ` ██████╗  █████╗ ████████╗ █████╗ ██████╗ ██╗   ██╗███╗   ██╗
 ██╔══██╗██╔══██╗╚══██╔══╝██╔══██╗██╔══██╗██║   ██║████╗  ██║
 ██║  ██║███████║   ██║   ███████║██████╔╝██║   ██║██╔██╗ ██║
 ██║  ██║██╔══██║   ██║   ██╔══██║██╔══██╗██║   ██║██║╚██╗██║
 ██████╔╝██║  ██║   ██║   ██║  ██║██║  ██║╚██████╔╝██║ ╚████║
 ╚═════╝ ╚═╝  ╚═╝   ╚═╝   ╚═╝  ╚═╝╚═╝  ╚═╝ ╚═════╝ ╚═╝  ╚═══╝`

const bannerCompact = "D A T A R U N"

// contentWidth returns the uniform inner width used for all sections.
func contentWidth(frameWidth int) int {
	w := frameWidth - 6
	if w > 66 {
		w = 66
	}
	if w < 20 {
		w = 20
	}
	return w
}

// renderTitle returns the styled title block or compact fallback.
func renderTitle(cw int, compact bool) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	title := bannerFull
	if compact {
		title = bannerCompact
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(style.Render(title))
}

// renderStatsBar renders the runner's standing in a bordered box.
func renderStatsBar(p *store.Player, counts store.MissionCounts, cw int, compact bool) string {
	fragStyle := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true)
	runStyle := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(theme.TextDim)

	var stats string
	if p == nil {
		stats = dimStyle.Render("NO UPLINK")
	} else if compact {
		stats = fmt.Sprintf("%s %s %s",
			fragStyle.Render(fmt.Sprintf("⬡%d", p.Fragments)),
			keyStyle.Render(fmt.Sprintf("⌘%d", p.LogKeys)),
			runStyle.Render(fmt.Sprintf("✓%d", counts.Completed)),
		)
	} else {
		stats = fmt.Sprintf("%s  %s  %s  %s",
			fragStyle.Render(fmt.Sprintf("⬡ %d FRAGMENTS", p.Fragments)),
			keyStyle.Render(fmt.Sprintf("⌘ %d LOG-KEYS", p.LogKeys)),
			runStyle.Render(fmt.Sprintf("✓ %d RUNS", counts.Completed)),
			dimStyle.Render(fmt.Sprintf("LVL %d", p.Level)),
		)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Border).
		Width(cw - 2).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(stats)
}

// renderLockoutBanner warns that the runner is out of lives.
func renderLockoutBanner(cw int) string {
	return lipgloss.NewStyle().
		Foreground(theme.Error).
		Bold(true).
		Width(cw).
		Align(lipgloss.Center).
		Render("⚠ SIGNAL LOST. RESET THE RUNNER TO RECONNECT.")
}

// renderMenu renders menu items as simple highlighted lines.
func renderMenu(items []string, selected int, cw int, disabled map[int]bool) string {
	var lines []string
	for i, label := range items {
		var line string
		switch {
		case disabled[i]:
			line = lipgloss.NewStyle().
				Foreground(theme.TextDim).
				Render("   " + label)
		case i == selected:
			line = lipgloss.NewStyle().
				Foreground(theme.BgDark).
				Background(theme.Primary).
				Bold(true).
				Render(" ▸ " + label + " ")
		default:
			line = lipgloss.NewStyle().
				Foreground(theme.Text).
				Render("   " + label)
		}
		lines = append(lines, line)
	}
	block := strings.Join(lines, "\n")

	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(block)
}

// renderConsoleFrame wraps content in a double-border frame, centered.
func renderConsoleFrame(content string, width, height int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Border).
		Width(width - 2).
		Height(height - 2).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}
