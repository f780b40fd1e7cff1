package cmd

import (
	"fmt"

	"github.com/dsoto/datarun/internal/app"
	"github.com/dsoto/datarun/internal/catalog"
	"github.com/dsoto/datarun/internal/llm"
	"github.com/dsoto/datarun/internal/memory"
	"github.com/dsoto/datarun/internal/mission"
	"github.com/dsoto/datarun/internal/narrative"
	"github.com/dsoto/datarun/internal/store"
	"github.com/spf13/cobra"
)

// runApp opens the store, builds the mission engine, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	players := st.PlayerRepo()
	events := st.EventRepo()

	playerID := resolvePlayerID(cmd)
	if _, err := players.Ensure(ctx, playerID); err != nil {
		return fmt.Errorf("ensure player: %w", err)
	}

	memories, err := memory.New(st.DB())
	if err != nil {
		return fmt.Errorf("open memory store: %w", err)
	}

	items, err := catalog.Default()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	// Missions cannot run without a narrator.
	provider, err := llm.NewProviderFromEnv(ctx, events)
	if err != nil {
		return fmt.Errorf("no LLM provider configured (set DATARUN_LLM_PROVIDER or an API key): %w", err)
	}

	engine := mission.New(mission.Options{
		Players:  players,
		Events:   events,
		Memories: memories,
		Narrator: narrative.New(provider, narrative.DefaultConfig()),
		Catalog:  items,
	})

	return app.Run(app.Options{
		PlayerID: playerID,
		Engine:   engine,
		Players:  players,
		Events:   events,
	})
}
