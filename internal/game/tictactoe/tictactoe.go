package tictactoe

import (
	"math"
	"math/rand"
	"time"

	"lobby/internal/game"
	"lobby/internal/game/grid"
)

// Name is the game type id.
const Name = "tic-tac-toe"

const (
	size   = 3
	winLen = 3
)

// State is a tic-tac-toe match.
type State struct {
	grid.State
}

// Game returns the tic-tac-toe rules.
func Game() game.Game {
	return game.Rules[State, grid.Coord]{
		Meta:   game.GameInfo{Name: Name, Title: "Tic-Tac-Toe", MinPlayers: 2, MaxPlayers: 2},
		Init:   New,
		Move:   Apply,
		Choose: AIMove,
	}
}

func New(cfg game.MatchConfig) State {
	return State{grid.NewState(cfg, size, size)}
}

func detect(b grid.Board, _ grid.Coord) grid.Result {
	return grid.Scan(b, winLen)
}

// Apply places the current player's mark at c.
func Apply(s State, playerID string, c grid.Coord, at time.Time) (State, bool) {
	next, ok := s.Place(playerID, c, at, detect)
	if !ok {
		return s, false
	}
	return State{next}, true
}

// AIMove picks a cell for the player to move.
func AIMove(s State, d game.Difficulty, rng *rand.Rand) (grid.Coord, bool) {
	empty := s.Board.Empty()
	if len(empty) == 0 {
		return grid.Coord{}, false
	}
	if d == game.Easy {
		return empty[rng.Intn(len(empty))], true
	}

	me := s.Mark(s.CurrentPlayer)
	them := grid.Opponent(me)
	if wins := grid.Winning(s.Board, me, empty, detect); len(wins) > 0 {
		return wins[0], true
	}
	if blocks := grid.Winning(s.Board, them, empty, detect); len(blocks) > 0 {
		return blocks[0], true
	}

	if d == game.Medium {
		center := grid.Coord{X: 1, Y: 1}
		if s.Board.At(center) == "" {
			return center, true
		}
		return empty[rng.Intn(len(empty))], true
	}

	best, bestScore := empty[0], math.MinInt
	for _, c := range empty {
		b := s.Board.Clone()
		b[c.X][c.Y] = me
		if score := minimax(b, me, 0, false); score > bestScore {
			best, bestScore = c, score
		}
	}
	return best, true
}

// minimax scores b from me's point of view, preferring faster wins.
func minimax(b grid.Board, me string, depth int, maximizing bool) int {
	res := grid.Scan(b, winLen)
	switch {
	case res.Winner == me:
		return 10 - depth
	case res.Winner != "":
		return depth - 10
	case res.IsDraw:
		return 0
	}

	mark := grid.Opponent(me)
	best := math.MaxInt
	if maximizing {
		mark = me
		best = math.MinInt
	}
	for _, c := range b.Empty() {
		b[c.X][c.Y] = mark
		score := minimax(b, me, depth+1, !maximizing)
		b[c.X][c.Y] = ""
		if maximizing {
			best = max(best, score)
		} else {
			best = min(best, score)
		}
	}
	return best
}
