// Package connect implements Connect-N: discs drop to the lowest empty row
// of a column and N in a row wins.
package connect

import (
	"math"
	"math/rand"
	"time"

	"lobby/internal/game"
	"lobby/internal/game/grid"
)

// Name is the game type id of the classic 6x7 four-in-a-row.
const Name = "connect-4"

// searchDepth is how many plies the hard AI looks beyond its candidate.
const searchDepth = 4

// Options sizes the board.
type Options struct {
	Rows int `yaml:"rows" json:"rows"`
	Cols int `yaml:"cols" json:"cols"`
	N    int `yaml:"n" json:"n"`
}

// DefaultOptions is the classic board.
func DefaultOptions() Options {
	return Options{Rows: 6, Cols: 7, N: 4}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Rows <= 0 {
		o.Rows = d.Rows
	}
	if o.Cols <= 0 {
		o.Cols = d.Cols
	}
	if o.N <= 0 {
		o.N = d.N
	}
	return o
}

// State is a Connect-N match.
type State struct {
	grid.State
	N int `json:"n"`
}

// Move names a column in Y. X is ignored.
type Move = grid.Coord

// Game returns Connect-N rules registered under name.
func Game(name, title string, opts Options) game.Game {
	opts = opts.withDefaults()
	return game.Rules[State, Move]{
		Meta: game.GameInfo{Name: name, Title: title, MinPlayers: 2, MaxPlayers: 2},
		Init: func(cfg game.MatchConfig) State {
			return New(cfg, opts)
		},
		Move:   Apply,
		Choose: AIMove,
	}
}

func New(cfg game.MatchConfig, opts Options) State {
	opts = opts.withDefaults()
	return State{State: grid.NewState(cfg, opts.Rows, opts.Cols), N: opts.N}
}

func (s State) detect(b grid.Board, last grid.Coord) grid.Result {
	return grid.ScanFrom(b, last, s.N)
}

// Apply drops the current player's disc into column m.Y.
func Apply(s State, playerID string, m Move, at time.Time) (State, bool) {
	row := s.Board.DropRow(m.Y)
	if row < 0 {
		return s, false
	}
	next, ok := s.Place(playerID, grid.Coord{X: row, Y: m.Y}, at, s.detect)
	if !ok {
		return s, false
	}
	return State{State: next, N: s.N}, true
}

// columns lists the columns that still accept a disc.
func columns(b grid.Board) []int {
	var cols []int
	for c := 0; c < b.Cols(); c++ {
		if b[0][c] == "" {
			cols = append(cols, c)
		}
	}
	return cols
}

// drop returns the board with mark dropped into col, and the cell used.
func drop(b grid.Board, col int, mark string) (grid.Board, grid.Coord) {
	row := b.DropRow(col)
	out := b.Clone()
	out[row][col] = mark
	return out, grid.Coord{X: row, Y: col}
}

// AIMove picks a column for the player to move.
func AIMove(s State, d game.Difficulty, rng *rand.Rand) (Move, bool) {
	cols := columns(s.Board)
	if len(cols) == 0 {
		return Move{}, false
	}
	if d == game.Easy {
		return Move{Y: cols[rng.Intn(len(cols))]}, true
	}

	me := s.Mark(s.CurrentPlayer)
	them := grid.Opponent(me)
	for _, mark := range []string{me, them} {
		for _, c := range cols {
			b, at := drop(s.Board, c, mark)
			if s.detect(b, at).Winner == mark {
				return Move{Y: c}, true
			}
		}
	}

	if d == game.Medium {
		center := s.Board.Cols() / 2
		if s.Board[0][center] == "" && rng.Float64() > 0.3 {
			return Move{Y: center}, true
		}
		return Move{Y: cols[rng.Intn(len(cols))]}, true
	}

	best, bestScore := cols[0], math.MinInt
	for _, c := range cols {
		b, at := drop(s.Board, c, me)
		if score := s.minimax(b, at, me, 0, false); score > bestScore {
			best, bestScore = c, score
		}
	}
	return Move{Y: best}, true
}

// minimax scores b after a disc landed at last. Only wins and losses are
// scored, sooner ones weighted higher.
func (s State) minimax(b grid.Board, last grid.Coord, me string, depth int, maximizing bool) int {
	res := s.detect(b, last)
	switch {
	case res.Winner == me:
		return 1000 - depth
	case res.Winner != "":
		return depth - 1000
	case res.IsDraw, depth >= searchDepth:
		return 0
	}

	mark := grid.Opponent(me)
	best := math.MaxInt
	if maximizing {
		mark = me
		best = math.MinInt
	}
	for _, c := range columns(b) {
		row := b.DropRow(c)
		b[row][c] = mark
		score := s.minimax(b, grid.Coord{X: row, Y: c}, me, depth+1, !maximizing)
		b[row][c] = ""
		if maximizing {
			best = max(best, score)
		} else {
			best = min(best, score)
		}
	}
	return best
}
