package cmd

import (
	"fmt"

	"github.com/dsoto/datarun/internal/memory"
	"github.com/dsoto/datarun/internal/store"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the runner's lives and wipe mission memories",
	RunE: func(cmd *cobra.Command, args []string) error {
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

		playerID := resolvePlayerID(cmd)
		players := st.PlayerRepo()
		if _, err := players.Ensure(ctx, playerID); err != nil {
			return fmt.Errorf("ensure player: %w", err)
		}
		if err := players.SetLives(ctx, playerID, 3); err != nil {
			return fmt.Errorf("restore lives: %w", err)
		}

		memories, err := memory.New(st.DB())
		if err != nil {
			return fmt.Errorf("open memory store: %w", err)
		}
		if err := memories.Clear(ctx, playerID); err != nil {
			return fmt.Errorf("clear memories: %w", err)
		}

		fmt.Printf("Runner %q reset: lives restored, memories wiped.\n", playerID)
		return nil
	},
}
