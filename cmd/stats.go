package cmd

import (
	"fmt"
	"strings"

	"github.com/dsoto/datarun/internal/catalog"
	"github.com/dsoto/datarun/internal/store"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the runner's standing and mission history",
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
		events := st.EventRepo()

		p, err := players.Get(ctx, playerID)
		if err == store.ErrNotFound {
			fmt.Printf("No record for runner %q.\n", playerID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("load player: %w", err)
		}

		counts, err := events.MissionCounts(ctx, playerID)
		if err != nil {
			return fmt.Errorf("load mission counts: %w", err)
		}

		fmt.Printf("Runner:     %s\n", p.ID)
		fmt.Printf("Level:      %d (%d XP)\n", p.Level, p.XP)
		fmt.Printf("Lives:      %d\n", p.Lives)
		fmt.Printf("Fragments:  %d\n", p.Fragments)
		fmt.Printf("Log-keys:   %d\n", p.LogKeys)
		fmt.Printf("Missions:   %d started / %d completed / %d failed\n",
			counts.Started, counts.Completed, counts.Failed)

		inventory, err := players.Inventory(ctx, playerID)
		if err != nil {
			return fmt.Errorf("load inventory: %w", err)
		}
		if len(inventory) > 0 {
			items, _ := catalog.Default()
			fmt.Println("\nRecovered gear:")
			for _, entry := range inventory {
				name := entry.ItemID
				if items != nil {
					if it, ok := items.Get(entry.ItemID); ok {
						name = fmt.Sprintf("%s (%s)", it.Name, it.Rarity.DisplayName())
					}
				}
				fmt.Printf("  %s x%d\n", name, entry.Quantity)
			}
		}

		recent, err := events.RecentMissionEvents(ctx, playerID, 10)
		if err != nil {
			return fmt.Errorf("load mission events: %w", err)
		}
		if len(recent) > 0 {
			fmt.Println("\nRecent missions:")
			for _, ev := range recent {
				fmt.Printf("  %s  %-17s  %-6s  %s\n",
					ev.Timestamp.Local().Format("2006-01-02 15:04"),
					ev.Kind,
					strings.ToUpper(ev.Difficulty),
					ev.Detail)
			}
		}
		return nil
	},
}
