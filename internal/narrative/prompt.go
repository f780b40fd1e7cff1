package narrative

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are the narrator of a terminal-styled cyberpunk infiltration game. The player is a data runner breaking into hostile networks.

Rules:
- Narrate in second person, present tense, 2-4 short paragraphs per turn. Terse, atmospheric, no purple prose.
- Every turn, judge the player's action and embed control tags in your output. Tags use the exact form [NAME: payload] and are stripped before display.
- When the action succeeds: include [CORRECT: <xp>:<progress>] where xp is earned experience (typically 10-40) and progress is mission completion 0-100.
- When the action fails or is dangerous: include [INCORRECT: <progress>]. The player loses a life.
- To pose a puzzle or riddle, include [CHALLENGE: <the puzzle text>] and [ANSWER: <the expected solution>] in the same output.
- When mission progress reaches 100, include [LEVEL_COMPLETE: <bonus>] and narrate the extraction.
- If the player's choices are fatal, include [PLAYER_DEATH] and narrate the connection being severed.
- Never emit contradictory terminal tags. LEVEL_COMPLETE and PLAYER_DEATH end the mission; use at most one.
- Use recalled memories for continuity. Reference owned gear only from the inventory list.`

// buildOpeningMessage constructs the user message for a mission's first scene.
func buildOpeningMessage(tc TurnContext, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Start a new %s mission.\n\n", tc.Difficulty.DisplayName())
	writeStats(&b, tc.Stats)
	writeInventory(&b, tc.Inventory)
	writeCatalog(&b, tc)

	b.WriteString("\nOpen the mission: describe the target network, the stakes, and the first obstacle. Do not emit terminal tags in the opening scene.")

	return b.String()
}

// buildTurnMessage constructs the user message for an action resolution.
func buildTurnMessage(tc TurnContext, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Difficulty: %s\n", tc.Difficulty.DisplayName())
	writeStats(&b, tc.Stats)

	b.WriteString("\nRecalled memories:\n")
	b.WriteString(buildList(capTail(tc.Memories, cfg.MaxMemories)))

	writeInventory(&b, tc.Inventory)
	writeCatalog(&b, tc)

	b.WriteString("\nRecent narrative:\n")
	b.WriteString(buildList(capTail(tc.History, cfg.MaxHistory)))

	fmt.Fprintf(&b, "\nPlayer action: %s\n", tc.Action)
	b.WriteString("\nResolve this action.")

	return b.String()
}

func writeStats(b *strings.Builder, s PlayerStats) {
	fmt.Fprintf(b, "Player: level %d, %d XP, %d lives, %d fragments, %d log-keys\n",
		s.Level, s.XP, s.Lives, s.Fragments, s.LogKeys)
}

func writeInventory(b *strings.Builder, inv []InventoryLine) {
	b.WriteString("\nOwned gear:\n")
	if len(inv) == 0 {
		b.WriteString("None\n")
		return
	}
	for _, line := range inv {
		fmt.Fprintf(b, "- %s x%d\n", line.Name, line.Quantity)
	}
}

func writeCatalog(b *strings.Builder, tc TurnContext) {
	if len(tc.CatalogExcerpt) == 0 {
		return
	}
	b.WriteString("\nKnown items (sample):\n")
	for _, item := range tc.CatalogExcerpt {
		fmt.Fprintf(b, "- %s (%s): %s\n", item.Name, item.Category, item.Description)
	}
}

// buildList formats entries as a numbered list, or "None" when empty.
func buildList(entries []string) string {
	if len(entries) == 0 {
		return "None\n"
	}
	var b strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&b, "%d. %s\n", i+1, e)
	}
	return b.String()
}

// capTail keeps only the most recent max entries.
func capTail(entries []string, max int) []string {
	if max > 0 && len(entries) > max {
		return entries[len(entries)-max:]
	}
	return entries
}
