package screen

import "github.com/dsoto/datarun/internal/ui/layout"

// StatsChangedMsg tells the root model that persistent player stats changed
// and the header bar should redraw with these values.
type StatsChangedMsg struct {
	Stats layout.HeaderStats
}
