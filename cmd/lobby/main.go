// lobby runs the two-player game lobby and its tooling.
//
// Usage:
//
//	lobby serve                 - Start the HTTP and websocket server
//	lobby games                 - List available game types
//	lobby simulate <game>       - Play AI-vs-AI matches
//	lobby history <player>      - Show a player's results
//
// Global flags:
//
//	--config <path>     - YAML config file (default: ./lobby.yaml, then built-in defaults)
//	--db <path>         - Database path
//	--log-level <level> - zerolog level for the server
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lobby/internal/config"
)

var (
	// Global flags
	flagConfig   string
	flagDBPath   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lobby",
	Short: "Two-player game lobby",
	Long: `lobby hosts casual two-player games (tic-tac-toe, connect four, gomoku,
chess, secret code, go fish, battleship, war and rummy) against other
players or a built-in AI.

Examples:
  lobby serve
  lobby games
  lobby simulate chess --seed 42 --first hard --second easy
  lobby history alice`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to the database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(gamesCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(historyCmd)
}

// loadConfig reads the configuration and applies the global flags on top.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagDBPath != "" {
		cfg.Storage.Path = flagDBPath
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	return cfg, nil
}
