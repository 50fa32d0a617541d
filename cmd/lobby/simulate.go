package main

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"lobby/internal/game"
	"lobby/internal/game/catalog"
)

var (
	flagSeed     int64
	flagMatches  int
	flagFirst    string
	flagSecond   string
	flagMaxSteps int
	flagVerbose  bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <game|all>",
	Short: "Play AI-vs-AI matches",
	Long: `Play matches in which both seats are taken by the built-in AI and
print a summary. A fixed --seed replays the same matches.

Examples:
  lobby simulate war
  lobby simulate chess --seed 42 --first hard --second easy
  lobby simulate all --matches 5`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	simulateCmd.Flags().IntVar(&flagMatches, "matches", 10, "Matches per game type")
	simulateCmd.Flags().StringVar(&flagFirst, "first", "medium", "Difficulty of the first seat")
	simulateCmd.Flags().StringVar(&flagSecond, "second", "medium", "Difficulty of the second seat")
	simulateCmd.Flags().IntVar(&flagMaxSteps, "max-steps", 20000, "Move budget per match")
	simulateCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log every match")
}

// tally counts the outcomes of one game type.
type tally struct {
	game   string
	first  int
	second int
	draws  int
	failed int
	moves  int
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "simulate",
	})
	if flagVerbose {
		logger.SetLevel(log.DebugLevel)
	}

	registry := catalog.NewRegistry(cfg.Games)
	var names []string
	if args[0] == "all" {
		for _, info := range registry.List() {
			names = append(names, info.Name)
		}
	} else {
		if _, ok := registry.Get(args[0]); !ok {
			return fmt.Errorf("unknown game %q (run 'lobby games' to list them)", args[0])
		}
		names = []string{args[0]}
	}

	seed := flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	tiers := [2]game.Difficulty{game.ParseDifficulty(flagFirst), game.ParseDifficulty(flagSecond)}
	logger.Info("starting", "seed", seed, "first", tiers[0], "second", tiers[1], "matches", flagMatches)

	rng := rand.New(rand.NewSource(seed))
	players := []game.Player{{ID: "first"}, {ID: "second"}}

	var tallies []tally
	for _, name := range names {
		t := tally{game: name}
		for i := 0; i < flagMatches; i++ {
			mcfg := game.MatchConfig{Players: players, Rand: rand.New(rand.NewSource(rng.Int63()))}
			s, steps, err := registry.Autoplay(name, mcfg, tiers, flagMaxSteps)
			t.moves += steps
			if err != nil {
				t.failed++
				if errors.Is(err, game.ErrStepLimit) {
					logger.Warn("match ran out of moves", "game", name, "match", i+1, "steps", steps)
				} else {
					logger.Error("match failed", "game", name, "match", i+1, "err", err)
				}
				continue
			}
			out := s.Outcome()
			switch {
			case out.IsDraw || out.Winner == "":
				t.draws++
			case out.Winner == players[0].ID:
				t.first++
			default:
				t.second++
			}
			logger.Debug("match finished", "game", name, "match", i+1, "winner", out.Winner, "draw", out.IsDraw, "moves", steps)
		}
		tallies = append(tallies, t)
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderTallies(tallies, tiers))
	return nil
}

func renderTallies(tallies []tally, tiers [2]game.Difficulty) string {
	cols := []string{"Game", "First (" + string(tiers[0]) + ")", "Second (" + string(tiers[1]) + ")", "Draws", "Failed", "Avg moves"}
	rows := [][]string{cols}
	for _, t := range tallies {
		played := t.first + t.second + t.draws + t.failed
		avg := 0
		if played > 0 {
			avg = t.moves / played
		}
		rows = append(rows, []string{
			t.game,
			fmt.Sprint(t.first),
			fmt.Sprint(t.second),
			fmt.Sprint(t.draws),
			fmt.Sprint(t.failed),
			fmt.Sprint(avg),
		})
	}

	widths := make([]int, len(cols))
	for _, row := range rows {
		for i, v := range row {
			if len(v) > widths[i] {
				widths[i] = len(v)
			}
		}
	}
	lines := make([]string, len(rows))
	for r, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			style := cellStyle.Width(widths[i] + 2)
			if r == 0 {
				style = style.Inherit(headerStyle)
			}
			cells[i] = style.Render(v)
		}
		lines[r] = lipgloss.JoinHorizontal(lipgloss.Top, cells...)
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}
