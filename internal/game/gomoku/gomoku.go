// Package gomoku implements five in a row on a 15x15 board.
package gomoku

import (
	"math/rand"
	"sort"
	"time"

	"lobby/internal/game"
	"lobby/internal/game/grid"
)

const Name = "gomoku"

const (
	Size   = 15
	WinLen = 5

	// radius of the neighbourhood that makes an empty cell a candidate
	radius = 2
	// the AI picks at random among this many best candidates
	topN = 5
)

// State is a gomoku match.
type State struct {
	grid.State
}

func Game() game.Game {
	return game.Rules[State, grid.Coord]{
		Meta:   game.GameInfo{Name: Name, Title: "Gomoku", MinPlayers: 2, MaxPlayers: 2},
		Init:   New,
		Move:   Apply,
		Choose: AIMove,
	}
}

func New(cfg game.MatchConfig) State {
	return State{grid.NewState(cfg, Size, Size)}
}

func detect(b grid.Board, last grid.Coord) grid.Result {
	return grid.ScanFrom(b, last, WinLen)
}

// Apply places a stone at c for playerID.
func Apply(s State, playerID string, c grid.Coord, at time.Time) (State, bool) {
	next, ok := s.Place(playerID, c, at, detect)
	if !ok {
		return s, false
	}
	return State{next}, true
}

type candidate struct {
	at    grid.Coord
	score int
}

// AIMove picks a stone for the player to move.
func AIMove(s State, d game.Difficulty, rng *rand.Rand) (grid.Coord, bool) {
	empty := s.Board.Empty()
	if len(empty) == 0 {
		return grid.Coord{}, false
	}
	if d == game.Easy {
		return empty[rng.Intn(len(empty))], true
	}

	if d == game.Hard {
		me := s.Mark(s.CurrentPlayer)
		if wins := grid.Winning(s.Board, me, empty, detect); len(wins) > 0 {
			return wins[0], true
		}
		if blocks := grid.Winning(s.Board, grid.Opponent(me), empty, detect); len(blocks) > 0 {
			return blocks[0], true
		}
	}

	cands := candidates(s.Board)
	if len(cands) == 0 {
		return centre(s.Board), true
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	top := cands[:min(topN, len(cands))]
	return top[rng.Intn(len(top))].at, true
}

// candidates scores empty cells with at least one stone within radius:
// +2 per adjacent stone, +1 per stone two cells away.
func candidates(b grid.Board) []candidate {
	var out []candidate
	for _, c := range b.Empty() {
		score, near := 0, false
		for dx := -radius; dx <= radius; dx++ {
			for dy := -radius; dy <= radius; dy++ {
				n := grid.Coord{X: c.X + dx, Y: c.Y + dy}
				if !b.In(n) || b.At(n) == "" {
					continue
				}
				near = true
				if abs(dx) <= 1 && abs(dy) <= 1 {
					score += 2
				} else {
					score++
				}
			}
		}
		if near {
			out = append(out, candidate{at: c, score: score})
		}
	}
	return out
}

// centre returns the empty cell closest to the middle of the board.
func centre(b grid.Board) grid.Coord {
	mid := b.Rows() / 2
	for _, dx := range []int{0, 1, -1, 2, -2} {
		for _, dy := range []int{0, 1, -1, 2, -2} {
			c := grid.Coord{X: mid + dx, Y: mid + dy}
			if b.In(c) && b.At(c) == "" {
				return c
			}
		}
	}
	return b.Empty()[0]
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
