// Package chess implements a simplified chess variant. Moves are checked
// for piece movement and blocking only. There is no check detection and
// the game ends when a king is captured.
package chess

import (
	"math/rand"
	"time"

	"lobby/internal/game"
	"lobby/internal/game/grid"
)

const Name = "chess"

// MaxPlies ends a game that has gone on this long as a draw.
const MaxPlies = 600

type Color string

const (
	White Color = "w"
	Black Color = "b"
)

func (c Color) other() Color {
	if c == White {
		return Black
	}
	return White
}

// Kind is a piece type in algebraic letters.
type Kind string

const (
	Pawn   Kind = "p"
	Rook   Kind = "r"
	Knight Kind = "n"
	Bishop Kind = "b"
	Queen  Kind = "q"
	King   Kind = "k"
)

// Piece values used by the capture heuristic.
var values = map[Kind]int{Pawn: 1, Knight: 3, Bishop: 3, Rook: 5, Queen: 9, King: 100}

// Piece values are never modified after creation, so boards may share them.
type Piece struct {
	Type  Kind  `json:"type"`
	Color Color `json:"color"`
}

// Move moves the piece at From to To. X is the row (0 is black's back
// rank) and Y the column.
type Move struct {
	From grid.Coord `json:"from"`
	To   grid.Coord `json:"to"`
}

// Rights records which castling moves are still available to a color.
type Rights struct {
	K bool `json:"k"`
	Q bool `json:"q"`
}

type Castling struct {
	W Rights `json:"w"`
	B Rights `json:"b"`
}

func (c *Castling) of(color Color) *Rights {
	if color == White {
		return &c.W
	}
	return &c.B
}

// Board is indexed [row][column].
type Board [8][8]*Piece

func (b *Board) at(c grid.Coord) *Piece { return b[c.X][c.Y] }

// State is a chess match. White is the first seat.
type State struct {
	Board      Board           `json:"board"`
	Turn       Color           `json:"turn"`
	Players    []game.Player   `json:"players"`
	Castling   Castling        `json:"castlingRights"`
	LastMove   *Move           `json:"lastMove,omitempty"`
	GameOver   bool            `json:"gameOver"`
	Winner     string          `json:"winner,omitempty"`
	IsDraw     bool            `json:"isDraw"`
	Plies      int             `json:"plies"`
	Difficulty game.Difficulty `json:"difficulty"`
}

func Game() game.Game {
	return game.Rules[State, Move]{
		Meta:   game.GameInfo{Name: Name, Title: "Chess", MinPlayers: 2, MaxPlayers: 2},
		Init:   New,
		Move:   Apply,
		Choose: AIMove,
	}
}

var backRank = [8]Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

func New(cfg game.MatchConfig) State {
	players := cfg.Seats()
	players[0].Symbol = string(White)
	players[1].Symbol = string(Black)
	s := State{
		Turn:       White,
		Players:    players,
		Castling:   Castling{W: Rights{K: true, Q: true}, B: Rights{K: true, Q: true}},
		Difficulty: cfg.Difficulty,
	}
	if s.Difficulty == "" {
		s.Difficulty = game.Medium
	}
	for i := 0; i < 8; i++ {
		s.Board[1][i] = &Piece{Type: Pawn, Color: Black}
		s.Board[6][i] = &Piece{Type: Pawn, Color: White}
		s.Board[0][i] = &Piece{Type: backRank[i], Color: Black}
		s.Board[7][i] = &Piece{Type: backRank[i], Color: White}
	}
	return s
}

func (s State) Awaiting() []string {
	if s.Over() {
		return nil
	}
	return []string{s.playerOf(s.Turn)}
}

func (s State) Over() bool { return s.GameOver }

func (s State) Outcome() game.Outcome {
	return game.Outcome{Winner: s.Winner, IsDraw: s.IsDraw}
}

func (s State) playerOf(c Color) string {
	if c == White {
		return s.Players[0].ID
	}
	return s.Players[1].ID
}

func homeRow(c Color) int {
	if c == White {
		return 7
	}
	return 0
}

func inBounds(c grid.Coord) bool {
	return c.X >= 0 && c.X < 8 && c.Y >= 0 && c.Y < 8
}

// Valid reports whether m is a legal move for the side to move, ignoring
// check.
func (s State) Valid(m Move) bool {
	if !inBounds(m.From) || !inBounds(m.To) || m.From == m.To {
		return false
	}
	piece := s.Board.at(m.From)
	if piece == nil || piece.Color != s.Turn {
		return false
	}
	target := s.Board.at(m.To)
	if target != nil && target.Color == s.Turn {
		return false
	}

	dx, dy := m.To.X-m.From.X, m.To.Y-m.From.Y
	adx, ady := abs(dx), abs(dy)

	switch piece.Type {
	case Pawn:
		dir, start := -1, 6
		if piece.Color == Black {
			dir, start = 1, 1
		}
		switch {
		case dy == 0 && dx == dir:
			return target == nil
		case dy == 0 && dx == 2*dir && m.From.X == start:
			return target == nil && s.Board[m.From.X+dir][m.From.Y] == nil
		case ady == 1 && dx == dir:
			return target != nil
		}
		return false
	case Rook:
		return (dx == 0 || dy == 0) && s.clear(m.From, m.To)
	case Knight:
		return (adx == 2 && ady == 1) || (adx == 1 && ady == 2)
	case Bishop:
		return adx == ady && s.clear(m.From, m.To)
	case Queen:
		return (dx == 0 || dy == 0 || adx == ady) && s.clear(m.From, m.To)
	case King:
		if adx <= 1 && ady <= 1 {
			return true
		}
		return s.canCastle(m)
	}
	return false
}

// canCastle checks a two-column king move along its home row.
func (s State) canCastle(m Move) bool {
	row := homeRow(s.Turn)
	if m.From != (grid.Coord{X: row, Y: 4}) || m.To.X != row || abs(m.To.Y-m.From.Y) != 2 {
		return false
	}
	rights := s.Castling.of(s.Turn)
	rookCol := 7
	if m.To.Y < m.From.Y {
		if !rights.Q {
			return false
		}
		rookCol = 0
	} else if !rights.K {
		return false
	}
	rookAt := grid.Coord{X: row, Y: rookCol}
	rook := s.Board.at(rookAt)
	if rook == nil || rook.Type != Rook || rook.Color != s.Turn {
		return false
	}
	return s.clear(m.From, rookAt)
}

// clear reports whether every square strictly between from and to is empty.
func (s State) clear(from, to grid.Coord) bool {
	dx, dy := sign(to.X-from.X), sign(to.Y-from.Y)
	c := grid.Coord{X: from.X + dx, Y: from.Y + dy}
	for c != to {
		if s.Board.at(c) != nil {
			return false
		}
		c = grid.Coord{X: c.X + dx, Y: c.Y + dy}
	}
	return true
}

// Apply plays m for playerID.
func Apply(s State, playerID string, m Move, _ time.Time) (State, bool) {
	if s.GameOver || playerID == "" || playerID != s.playerOf(s.Turn) || !s.Valid(m) {
		return s, false
	}

	next := s
	piece := next.Board.at(m.From)
	captured := next.Board.at(m.To)

	if piece.Type == King && abs(m.To.Y-m.From.Y) == 2 {
		row := m.From.X
		if m.To.Y > m.From.Y {
			next.Board[row][5], next.Board[row][7] = next.Board[row][7], nil
		} else {
			next.Board[row][3], next.Board[row][0] = next.Board[row][0], nil
		}
	}

	moved := piece
	if piece.Type == Pawn && m.To.X == homeRow(piece.Color.other()) {
		moved = &Piece{Type: Queen, Color: piece.Color}
	}
	next.Board[m.To.X][m.To.Y] = moved
	next.Board[m.From.X][m.From.Y] = nil

	rights := next.Castling.of(piece.Color)
	switch {
	case piece.Type == King:
		*rights = Rights{}
	case piece.Type == Rook && m.From.X == homeRow(piece.Color):
		clearCorner(rights, m.From.Y)
	}
	if captured != nil && captured.Type == Rook && m.To.X == homeRow(captured.Color) {
		clearCorner(next.Castling.of(captured.Color), m.To.Y)
	}

	last := m
	next.LastMove = &last
	next.Plies++
	next.Turn = s.Turn.other()

	switch {
	case captured != nil && captured.Type == King:
		next.GameOver = true
		next.Winner = playerID
	case next.Plies >= MaxPlies || len(next.moves()) == 0:
		next.GameOver = true
		next.IsDraw = true
	}
	return next, true
}

func clearCorner(r *Rights, col int) {
	switch col {
	case 0:
		r.Q = false
	case 7:
		r.K = false
	}
}

// moves lists every legal move of the side to move.
func (s State) moves() []Move {
	var out []Move
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			p := s.Board[x][y]
			if p == nil || p.Color != s.Turn {
				continue
			}
			from := grid.Coord{X: x, Y: y}
			for tx := 0; tx < 8; tx++ {
				for ty := 0; ty < 8; ty++ {
					m := Move{From: from, To: grid.Coord{X: tx, Y: ty}}
					if s.Valid(m) {
						out = append(out, m)
					}
				}
			}
		}
	}
	return out
}

// AIMove picks a random move on easy and the most valuable capture
// otherwise, breaking ties at random.
func AIMove(s State, d game.Difficulty, rng *rand.Rand) (Move, bool) {
	moves := s.moves()
	if len(moves) == 0 {
		return Move{}, false
	}
	if d == game.Easy {
		return moves[rng.Intn(len(moves))], true
	}

	var best []Move
	bestScore := -1
	for _, m := range moves {
		score := 0
		if target := s.Board.at(m.To); target != nil {
			score = values[target.Type] * 10
		}
		switch {
		case score > bestScore:
			best, bestScore = []Move{m}, score
		case score == bestScore:
			best = append(best, m)
		}
	}
	return best[rng.Intn(len(best))], true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
