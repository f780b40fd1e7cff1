package theme

import (
	"charm.land/lipgloss/v2"
)

// Color palette. Terminal phosphor green over near-black, with warning
// amber and alert red for mission states.
var (
	Primary   = lipgloss.Color("#33FF66") // Phosphor Green
	Secondary = lipgloss.Color("#00C2C7") // Cold Cyan
	Accent    = lipgloss.Color("#FFB000") // Warning Amber
	Success   = lipgloss.Color("#33FF66") // Phosphor Green
	Error     = lipgloss.Color("#FF3B3B") // Alert Red
	Text      = lipgloss.Color("#D8F3DC") // Pale Green-White
	TextDim   = lipgloss.Color("#4F7259") // Faded Green
	BgDark    = lipgloss.Color("#050A07") // Near Black
	BgCard    = lipgloss.Color("#0C1710") // Dark Green-Black
	Border    = lipgloss.Color("#1E3A28") // Dim Green
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Align(lipgloss.Center)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim).
			Align(lipgloss.Center)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// Layout
var (
	Header = lipgloss.NewStyle().
		Background(BgCard).
		Padding(0, 2)

	Footer = lipgloss.NewStyle().
		Background(BgCard).
		Padding(0, 2)

	Card = lipgloss.NewStyle().
		Background(BgCard).
		Border(lipgloss.NormalBorder()).
		BorderForeground(Border).
		Padding(1, 2)
)

// States
var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	Warning = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)
)

// Components
var (
	ProgressFilled = lipgloss.NewStyle().
			Background(Secondary)

	ProgressEmpty = lipgloss.NewStyle().
			Background(Border)

	ButtonActive = lipgloss.NewStyle().
			Background(Primary).
			Foreground(BgDark).
			Bold(true).
			Padding(0, 2)

	ButtonInactive = lipgloss.NewStyle().
			Background(BgCard).
			Border(lipgloss.NormalBorder()).
			BorderForeground(Border).
			Padding(0, 2)
)
