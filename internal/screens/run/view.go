package run

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/dsoto/datarun/internal/mission"
	"github.com/dsoto/datarun/internal/ui/components"
	"github.com/dsoto/datarun/internal/ui/theme"
)

func (s *Screen) View(width, height int) string {
	cw := width - 8
	if cw > 78 {
		cw = 78
	}
	if cw < 30 {
		cw = 30
	}

	var content string
	switch s.phase {
	case phaseLoading:
		content = s.renderLoading(cw)
	case phaseError:
		content = s.renderError(cw)
	case phaseChallenge:
		content = s.renderChallenge(cw)
	default:
		content = s.renderMission(cw)
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

func (s *Screen) renderLoading(cw int) string {
	return lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Width(cw).
		Align(lipgloss.Center).
		Render("ESTABLISHING UPLINK ...")
}

func (s *Screen) renderError(cw int) string {
	msg := theme.Incorrect.Render(s.errText)
	if s.retryable {
		msg += "\n\n" + theme.Hint.Render("Press Enter to retry, Esc to back out.")
	} else {
		msg += "\n\n" + theme.Hint.Render("Press Esc to back out.")
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(msg)
}

func (s *Screen) renderMission(cw int) string {
	var sections []string

	body := theme.Body.Width(cw - 6).Render(s.view.Body)
	sections = append(sections, theme.Card.Width(cw-2).Render(body))

	if s.view.Pages > 1 {
		sections = append(sections, theme.Hint.
			Width(cw).
			Align(lipgloss.Center).
			Render(fmt.Sprintf("◂ turn %d / %d ▸", s.view.Page, s.view.Pages)))
	}

	if s.view.RewardSummary != "" {
		sections = append(sections, theme.Warning.
			Width(cw).
			Align(lipgloss.Center).
			Render(s.view.RewardSummary))
	}

	switch {
	case s.phase == phaseTerminal && s.view.TerminalKind == mission.TerminalCompleted:
		sections = append(sections, theme.Correct.
			Width(cw).
			Align(lipgloss.Center).
			Render("▚▚ EXTRACTION COMPLETE ▚▚"))
	case s.phase == phaseTerminal:
		sections = append(sections, theme.Incorrect.
			Width(cw).
			Align(lipgloss.Center).
			Render("▚▚ CONNECTION TERMINATED ▚▚"))
	default:
		bar := components.NewProgressBar("BREACH", float64(s.view.Progress)/100, true, cw-4)
		sections = append(sections, bar.View())
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.Primary).
			Render("▸ ")+s.input.View())
	}

	return strings.Join(sections, "\n\n")
}

var challengeDotStyles = map[mission.Color]lipgloss.Style{
	mission.ColorRed:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF3B3B")).Bold(true),
	mission.ColorGreen:  lipgloss.NewStyle().Foreground(lipgloss.Color("#33FF66")).Bold(true),
	mission.ColorBlue:   lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82FF")).Bold(true),
	mission.ColorYellow: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD23B")).Bold(true),
}

func (s *Screen) renderChallenge(cw int) string {
	if s.challenge == nil {
		return s.renderLoading(cw)
	}

	var dots []string
	for _, c := range s.challenge.Sequence {
		dots = append(dots, challengeDotStyles[c].Render("⬤ "+strings.ToUpper(string(c))))
	}
	sequence := strings.Join(dots, "   ")

	progress := fmt.Sprintf("%d / %d entered", s.entered, len(s.challenge.Sequence))
	countdown := fmt.Sprintf("%.1fs", s.remaining.Seconds())

	block := strings.Join([]string{
		theme.Warning.Render("⚠ TIMED OVERRIDE"),
		"",
		sequence,
		"",
		theme.Body.Render(progress),
		theme.Incorrect.Render(countdown),
		"",
		theme.Hint.Render("Press r / g / b / y in order before the lockout."),
	}, "\n")

	return theme.Card.
		Width(cw - 2).
		Align(lipgloss.Center).
		Render(block)
}
