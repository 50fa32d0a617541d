package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"lobby/internal/storage"
)

var (
	flagLimit    int
	flagGameType string
)

var historyCmd = &cobra.Command{
	Use:   "history <player>",
	Short: "Show a player's results",
	Long: `Display a player's most recent results and their win/loss/draw record.

Examples:
  lobby history alice
  lobby history alice --game chess --limit 5`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagLimit, "limit", 10, "Number of results to show (0 = all)")
	historyCmd.Flags().StringVar(&flagGameType, "game", "", "Only show results of this game type")
}

var (
	winStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	lossStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	drawStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

func runHistory(cmd *cobra.Command, args []string) error {
	playerID := args[0]
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := storage.New(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	rec, err := store.Record(playerID, flagGameType)
	if err != nil {
		return fmt.Errorf("load record: %w", err)
	}
	rows, err := store.History(playerID, flagGameType, flagLimit)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, headerStyle.Render("Results - "+playerID))
	fmt.Fprintln(out)
	if rec.Played() == 0 {
		fmt.Fprintln(out, "No results recorded yet.")
		return nil
	}
	fmt.Fprintf(out, "Played %d: %s, %s, %s\n\n", rec.Played(),
		winStyle.Render(fmt.Sprintf("%d won", rec.Wins)),
		lossStyle.Render(fmt.Sprintf("%d lost", rec.Losses)),
		drawStyle.Render(fmt.Sprintf("%d drawn", rec.Draws)))

	fmt.Fprintf(out, "  %-20s  %-8s  %-6s  %s\n", "Game", "Room", "Result", "Date")
	fmt.Fprintf(out, "  %-20s  %-8s  %-6s  %s\n", "----", "----", "------", "----")
	for _, r := range rows {
		fmt.Fprintf(out, "  %-20s  %-8s  %s  %s\n",
			r.GameType, r.SessionCode, outcomeStyle(r.Result).Width(6).Render(string(r.Result)),
			r.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func outcomeStyle(o storage.Outcome) lipgloss.Style {
	switch o {
	case storage.Win:
		return winStyle
	case storage.Loss:
		return lossStyle
	default:
		return drawStyle
	}
}
