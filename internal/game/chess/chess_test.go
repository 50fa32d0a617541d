package chess

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobby/internal/game"
	"lobby/internal/game/grid"
)

func newTestState() State {
	return New(game.MatchConfig{Players: []game.Player{{ID: "white"}, {ID: "black"}}})
}

func mv(fx, fy, tx, ty int) Move {
	return Move{From: grid.Coord{X: fx, Y: fy}, To: grid.Coord{X: tx, Y: ty}}
}

func play(t *testing.T, s State, player string, m Move) State {
	t.Helper()
	next, ok := Apply(s, player, m, time.Time{})
	require.True(t, ok, "%s %+v rejected", player, m)
	return next
}

// emptyBoard keeps only the kings on their home squares.
func emptyBoard() State {
	s := newTestState()
	s.Board = Board{}
	s.Board[7][4] = &Piece{Type: King, Color: White}
	s.Board[0][4] = &Piece{Type: King, Color: Black}
	return s
}

func TestInitialPosition(t *testing.T) {
	s := newTestState()
	assert.Equal(t, White, s.Turn)
	assert.Equal(t, &Piece{Type: King, Color: White}, s.Board[7][4])
	assert.Equal(t, &Piece{Type: Queen, Color: Black}, s.Board[0][3])
	assert.Len(t, s.moves(), 20)
	assert.Equal(t, []string{"white"}, s.Awaiting())
}

func TestPawnMoves(t *testing.T) {
	s := newTestState()
	assert.True(t, s.Valid(mv(6, 4, 4, 4)))
	assert.True(t, s.Valid(mv(6, 4, 5, 4)))
	assert.False(t, s.Valid(mv(6, 4, 3, 4)))
	assert.False(t, s.Valid(mv(6, 4, 5, 5)), "diagonal without capture")

	s = play(t, s, "white", mv(6, 4, 4, 4))
	s = play(t, s, "black", mv(1, 3, 3, 3))
	assert.True(t, s.Valid(mv(4, 4, 3, 3)), "diagonal capture")
	assert.True(t, s.Valid(mv(4, 4, 3, 4)))
}

func TestSlidersBlocked(t *testing.T) {
	s := newTestState()
	assert.False(t, s.Valid(mv(7, 0, 5, 0)), "rook behind pawn")
	assert.False(t, s.Valid(mv(7, 2, 5, 4)), "bishop behind pawn")
	assert.True(t, s.Valid(mv(7, 1, 5, 2)), "knight jumps")
}

func TestWrongTurnAndOwnCapture(t *testing.T) {
	s := newTestState()
	_, ok := Apply(s, "black", mv(1, 0, 2, 0), time.Time{})
	assert.False(t, ok)
	_, ok = Apply(s, "white", mv(7, 0, 6, 0), time.Time{})
	assert.False(t, ok)
	_, ok = Apply(s, "white", mv(1, 0, 2, 0), time.Time{})
	assert.False(t, ok, "moving the opponent's piece")
}

func TestKingsideCastling(t *testing.T) {
	s := emptyBoard()
	s.Board[7][7] = &Piece{Type: Rook, Color: White}
	s = play(t, s, "white", mv(7, 4, 7, 6))

	assert.Equal(t, King, s.Board[7][6].Type)
	assert.Equal(t, Rook, s.Board[7][5].Type)
	assert.Nil(t, s.Board[7][7])
	assert.Nil(t, s.Board[7][4])
	assert.Equal(t, Rights{}, s.Castling.W)
	assert.Equal(t, Rights{K: true, Q: true}, s.Castling.B)
}

func TestQueensideCastlingBlocked(t *testing.T) {
	s := emptyBoard()
	s.Board[7][0] = &Piece{Type: Rook, Color: White}
	s.Board[7][1] = &Piece{Type: Knight, Color: White}
	assert.False(t, s.Valid(mv(7, 4, 7, 2)))
	s.Board[7][1] = nil
	assert.True(t, s.Valid(mv(7, 4, 7, 2)))

	s = play(t, s, "white", mv(7, 4, 7, 2))
	assert.Equal(t, Rook, s.Board[7][3].Type)
	assert.Nil(t, s.Board[7][0])
}

func TestCastlingNeedsRights(t *testing.T) {
	s := emptyBoard()
	s.Board[7][7] = &Piece{Type: Rook, Color: White}
	s.Board[0][0] = &Piece{Type: Rook, Color: Black}
	s = play(t, s, "white", mv(7, 7, 6, 7))
	s = play(t, s, "black", mv(0, 0, 1, 0))
	s = play(t, s, "white", mv(6, 7, 7, 7))
	s = play(t, s, "black", mv(1, 0, 0, 0))
	assert.False(t, s.Castling.W.K)
	assert.False(t, s.Valid(mv(7, 4, 7, 6)))
}

func TestRookCaptureClearsRights(t *testing.T) {
	s := emptyBoard()
	s.Board[7][7] = &Piece{Type: Rook, Color: White}
	s.Board[5][6] = &Piece{Type: Knight, Color: Black}
	s.Turn = Black
	s = play(t, s, "black", mv(5, 6, 7, 7))
	assert.False(t, s.Castling.W.K)
	assert.True(t, s.Castling.W.Q)
}

func TestPromotion(t *testing.T) {
	s := emptyBoard()
	s.Board[1][0] = &Piece{Type: Pawn, Color: White}
	s = play(t, s, "white", mv(1, 0, 0, 0))
	assert.Equal(t, &Piece{Type: Queen, Color: White}, s.Board[0][0])
}

func TestKingCaptureEndsGame(t *testing.T) {
	s := emptyBoard()
	s.Board[1][4] = &Piece{Type: Queen, Color: White}
	s = play(t, s, "white", mv(1, 4, 0, 4))
	assert.True(t, s.GameOver)
	assert.Equal(t, "white", s.Winner)
	assert.Nil(t, s.Awaiting())
	_, ok := Apply(s, "black", mv(0, 3, 1, 3), time.Time{})
	assert.False(t, ok)
}

func TestAIPrefersBestCapture(t *testing.T) {
	s := emptyBoard()
	s.Board[4][4] = &Piece{Type: Rook, Color: White}
	s.Board[4][0] = &Piece{Type: Pawn, Color: Black}
	s.Board[2][4] = &Piece{Type: Queen, Color: Black}
	for seed := int64(0); seed < 5; seed++ {
		m, ok := AIMove(s, game.Hard, rand.New(rand.NewSource(seed)))
		require.True(t, ok)
		assert.Equal(t, mv(4, 4, 2, 4), m)
	}
}

func TestAIFinishesGame(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	s := newTestState()
	for i := 0; i < 2000 && !s.Over(); i++ {
		m, ok := AIMove(s, game.Medium, rng)
		require.True(t, ok)
		s = play(t, s, s.playerOf(s.Turn), m)
	}
	assert.True(t, s.Over())
}

func TestRoundTrip(t *testing.T) {
	g := Game()
	s := play(t, newTestState(), "white", mv(6, 4, 4, 4))
	data, err := json.Marshal(s)
	require.NoError(t, err)
	restored, err := g.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, s, restored)
}

func TestPlyLimitDraws(t *testing.T) {
	s := newTestState()
	s.Plies = MaxPlies - 1
	s = play(t, s, "white", mv(6, 4, 4, 4))
	assert.True(t, s.GameOver)
	assert.True(t, s.IsDraw)
	assert.Empty(t, s.Winner)
}
