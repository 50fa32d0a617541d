package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lobby/internal/game/catalog"
)

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "List all available game types",
	Long:  `Shows every game type the lobby can host.`,
	RunE:  runGames,
}

func runGames(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	games := catalog.NewRegistry(cfg.Games).List()

	maxNameLen := 4 // "Name" header
	for _, g := range games {
		if len(g.Name) > maxNameLen {
			maxNameLen = len(g.Name)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  %-*s  %s\n", maxNameLen, "Name", "Title")
	fmt.Fprintf(out, "  %-*s  %s\n", maxNameLen, "----", "-----")
	for _, g := range games {
		fmt.Fprintf(out, "  %-*s  %s\n", maxNameLen, g.Name, g.Title)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Run 'lobby simulate <name>' to watch the AI play a game.")
	return nil
}
