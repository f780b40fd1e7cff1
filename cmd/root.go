package cmd

import (
	"os"

	"github.com/dsoto/datarun/internal/store"
	"github.com/spf13/cobra"
)

// defaultPlayerID is the single-user runner identity. Override with
// --player or DATARUN_PLAYER.
const defaultPlayerID = "runner"

var rootCmd = &cobra.Command{
	Use:   "datarun",
	Short: "Cyberpunk text-adventure in your terminal",
	Long:  "Datarun — an AI-narrated heist game. Jack in, run missions against corporate systems, and keep your three lives.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides DATARUN_DB env var)")
	rootCmd.PersistentFlags().String("player", "", "Player ID (overrides DATARUN_PLAYER env var)")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then DATARUN_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// resolvePlayerID returns the player ID from --player, DATARUN_PLAYER, or
// the single-user default.
func resolvePlayerID(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("player"); p != "" {
		return p
	}
	if p := os.Getenv("DATARUN_PLAYER"); p != "" {
		return p
	}
	return defaultPlayerID
}
