package grid

import (
	"time"

	"lobby/internal/game"
)

// Seat marks. The first player is X and moves first.
const (
	MarkX = "X"
	MarkO = "O"
)

// HistoryEntry is one accepted placement.
type HistoryEntry struct {
	PlayerID  string    `json:"playerId"`
	Move      Coord     `json:"move"`
	Timestamp time.Time `json:"timestamp"`
}

// State is the match state shared by the grid games.
type State struct {
	Board         Board           `json:"board"`
	CurrentPlayer string          `json:"currentPlayer"`
	Players       []game.Player   `json:"players"`
	Winner        string          `json:"winner,omitempty"`
	IsDraw        bool            `json:"isDraw"`
	WinningCells  []Coord         `json:"winningCells,omitempty"`
	LastMove      *Coord          `json:"lastMove,omitempty"`
	MoveHistory   []HistoryEntry  `json:"moveHistory,omitempty"`
	Difficulty    game.Difficulty `json:"difficulty"`
}

// Detector decides the verdict after a mark was placed at last.
type Detector func(b Board, last Coord) Result

// NewState seats the configured players as X and O on an empty board.
func NewState(cfg game.MatchConfig, rows, cols int) State {
	players := cfg.Seats()
	players[0].Symbol = MarkX
	players[1].Symbol = MarkO
	d := cfg.Difficulty
	if d == "" {
		d = game.Medium
	}
	return State{
		Board:         NewBoard(rows, cols),
		CurrentPlayer: players[0].ID,
		Players:       players,
		Difficulty:    d,
	}
}

func (s State) Awaiting() []string {
	if s.Over() {
		return nil
	}
	return []string{s.CurrentPlayer}
}

func (s State) Over() bool {
	return s.Winner != "" || s.IsDraw
}

func (s State) Outcome() game.Outcome {
	return game.Outcome{Winner: s.Winner, IsDraw: s.IsDraw}
}

// Mark returns the symbol of playerID, or "" for a non-participant.
func (s State) Mark(playerID string) string {
	if i := game.SeatOf(s.Players, playerID); i >= 0 {
		return s.Players[i].Symbol
	}
	return ""
}

// Opponent returns the symbol of the player not holding mark.
func Opponent(mark string) string {
	if mark == MarkX {
		return MarkO
	}
	return MarkX
}

// PlayerWithMark returns the id of the player holding mark.
func (s State) PlayerWithMark(mark string) string {
	for _, p := range s.Players {
		if p.Symbol == mark {
			return p.ID
		}
	}
	return ""
}

// Place marks c for playerID and runs detect. It rejects moves after the
// game ended, out of turn, out of bounds or onto an occupied cell.
func (s State) Place(playerID string, c Coord, at time.Time, detect Detector) (State, bool) {
	if s.Over() || playerID == "" || playerID != s.CurrentPlayer {
		return s, false
	}
	if !s.Board.In(c) || s.Board.At(c) != "" {
		return s, false
	}
	mark := s.Mark(playerID)
	if mark == "" {
		return s, false
	}

	next := s
	next.Board = s.Board.Clone()
	next.Board[c.X][c.Y] = mark
	last := c
	next.LastMove = &last
	next.MoveHistory = append(append([]HistoryEntry(nil), s.MoveHistory...),
		HistoryEntry{PlayerID: playerID, Move: c, Timestamp: at})

	res := detect(next.Board, c)
	switch {
	case res.Winner != "":
		next.Winner = next.PlayerWithMark(res.Winner)
		next.WinningCells = res.WinningCells
	case res.IsDraw:
		next.IsDraw = true
	default:
		next.CurrentPlayer = next.PlayerWithMark(Opponent(mark))
	}
	return next, true
}

// Winning returns the empty cells in candidates where mark would complete a
// line according to detect.
func Winning(b Board, mark string, candidates []Coord, detect Detector) []Coord {
	var out []Coord
	for _, c := range candidates {
		trial := b.Clone()
		trial[c.X][c.Y] = mark
		if detect(trial, c).Winner == mark {
			out = append(out, c)
		}
	}
	return out
}
