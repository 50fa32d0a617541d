package battleship

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
	return New(game.MatchConfig{Players: []game.Player{{ID: "alice"}, {ID: "bob"}}})
}

func apply(t *testing.T, s State, player string, m Move) State {
	t.Helper()
	next, ok := Apply(s, player, m, time.Time{})
	require.True(t, ok, "%s %+v rejected", player, m)
	return next
}

// placeRows puts ship i of the fleet on row i starting at column 0.
func placeRows(t *testing.T, s State, player string) State {
	t.Helper()
	for i := range Fleet {
		s = apply(t, s, player, Move{Action: ActionPlace, X: i, Y: 0})
	}
	return s
}

func TestPlacementPhase(t *testing.T) {
	s := newTestState()
	assert.ElementsMatch(t, []string{"alice", "bob"}, s.Awaiting())

	s = placeRows(t, s, "alice")
	assert.Equal(t, PhasePlacement, s.Phase)
	assert.Equal(t, []string{"bob"}, s.Awaiting())
	assert.Equal(t, FleetCells(), s.Sides[0].Remaining)
	assert.Equal(t, []grid.Coord{{X: 4, Y: 0}, {X: 4, Y: 1}}, s.Sides[0].Ships[4].Positions)

	s = placeRows(t, s, "bob")
	assert.Equal(t, PhasePlaying, s.Phase)
	assert.Equal(t, "alice", s.CurrentTurn)
}

func TestPlacementRejectsOverlapAndBounds(t *testing.T) {
	s := newTestState()
	s = apply(t, s, "alice", Move{Action: ActionPlace, X: 0, Y: 0})

	_, ok := Apply(s, "alice", Move{Action: ActionPlace, X: 0, Y: 2}, time.Time{})
	assert.False(t, ok, "overlap")
	_, ok = Apply(s, "alice", Move{Action: ActionPlace, X: 5, Y: 7}, time.Time{})
	assert.False(t, ok, "off the right edge")
	vertical := false
	_, ok = Apply(s, "alice", Move{Action: ActionPlace, X: 7, Y: 5, Horizontal: &vertical}, time.Time{})
	assert.False(t, ok, "off the bottom edge")
	_, ok = Apply(s, "alice", Move{Action: ActionAttack, X: 0, Y: 0}, time.Time{})
	assert.False(t, ok, "attack during placement")
}

func TestRotate(t *testing.T) {
	s := apply(t, newTestState(), "alice", Move{Action: ActionRotate})
	assert.False(t, s.Sides[0].Horizontal)
	assert.True(t, s.Sides[1].Horizontal)
	s = apply(t, s, "alice", Move{Action: ActionPlace, X: 0, Y: 9})
	assert.Equal(t, grid.Coord{X: 4, Y: 9}, s.Sides[0].Ships[0].Positions[4])
}

func TestDestroyerSinks(t *testing.T) {
	s := placeRows(t, placeRows(t, newTestState(), "alice"), "bob")
	// bob's destroyer is on row 4 at (4,0)-(4,1)
	s = apply(t, s, "alice", Move{Action: ActionAttack, X: 4, Y: 0})
	assert.Equal(t, ResultHit, s.LastAction.Result)
	assert.Equal(t, "alice", s.CurrentTurn, "a hit keeps the turn")

	before := s
	s = apply(t, s, "alice", Move{Action: ActionAttack, X: 4, Y: 1})
	destroyer := s.Sides[1].Ships[4]
	assert.Equal(t, 2, destroyer.Hits)
	assert.True(t, destroyer.Sunk())
	assert.Equal(t, ResultSunk, s.LastAction.Result)
	assert.Equal(t, "Destroyer", s.LastAction.Ship)
	assert.Equal(t, 1, before.Sides[1].Ships[4].Hits, "ship records are not shared")
}

func TestMissPassesTurnAndRetryRejected(t *testing.T) {
	s := placeRows(t, placeRows(t, newTestState(), "alice"), "bob")
	s = apply(t, s, "alice", Move{Action: ActionAttack, X: 9, Y: 9})
	assert.Equal(t, ResultMiss, s.LastAction.Result)
	assert.Equal(t, "bob", s.CurrentTurn)

	s = apply(t, s, "bob", Move{Action: ActionAttack, X: 9, Y: 9})
	_, ok := Apply(s, "alice", Move{Action: ActionAttack, X: 9, Y: 9}, time.Time{})
	assert.False(t, ok, "cell already tried")
}

func TestSinkingFleetWins(t *testing.T) {
	s := placeRows(t, placeRows(t, newTestState(), "alice"), "bob")
	for i, spec := range Fleet {
		for y := 0; y < spec.Size; y++ {
			s = apply(t, s, "alice", Move{Action: ActionAttack, X: i, Y: y})
		}
	}
	assert.Equal(t, PhaseFinished, s.Phase)
	assert.Equal(t, "alice", s.Winner)
	assert.Equal(t, 0, s.Sides[1].Remaining)
	assert.Nil(t, s.Awaiting())
}

func TestHunt(t *testing.T) {
	b := newBoard()
	b[3][3] = Hit
	b[3][4] = Miss
	c, ok := hunt(b)
	require.True(t, ok)
	assert.Equal(t, grid.Coord{X: 3, Y: 2}, c)

	_, ok = hunt(newBoard())
	assert.False(t, ok)
}

func TestAIPlaysFullGame(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	s := New(game.MatchConfig{Players: []game.Player{{ID: "alice"}, {ID: game.AIPlayerID}}})
	for steps := 0; !s.Over(); steps++ {
		require.Less(t, steps, 500)
		player := s.Awaiting()[0]
		d := game.Easy
		if player == game.AIPlayerID {
			d = game.Hard
		}
		m, ok := AIMove(s, d, rng)
		require.True(t, ok)
		if s.Phase == PhasePlacement {
			player = game.AIPlayerID
			if s.Sides[1].placed() {
				player = "alice"
			}
		}
		s, ok = Apply(s, player, m, time.Time{})
		require.True(t, ok)
	}
	assert.NotEmpty(t, s.Winner)
}

func TestRoundTrip(t *testing.T) {
	g := Game()
	s := placeRows(t, placeRows(t, newTestState(), "alice"), "bob")
	data, err := json.Marshal(s)
	require.NoError(t, err)
	restored, err := g.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, s, restored)
}

func TestViewConcealsEnemyFleet(t *testing.T) {
	s := placeRows(t, placeRows(t, newTestState(), "alice"), "bob")

	v := s.View("bob").(State)
	for _, row := range v.Sides[0].Board {
		assert.NotContains(t, row, Ship)
	}
	for _, ship := range v.Sides[0].Ships {
		assert.Nil(t, ship.Positions)
	}
	assert.Equal(t, s.Sides[1], v.Sides[1], "bob sees his own side as is")
	assert.Equal(t, Ship, s.Sides[0].Board[0][0], "the view must not modify the state")

	// alice sinks the carrier on row 0 and hits the battleship once
	for y := 0; y < Fleet[0].Size; y++ {
		s = apply(t, s, "alice", Move{Action: ActionAttack, X: 0, Y: y})
	}
	s = apply(t, s, "alice", Move{Action: ActionAttack, X: 1, Y: 0})
	v = s.View("alice").(State)
	enemy := v.Sides[1]
	assert.Len(t, enemy.Ships[0].Positions, Fleet[0].Size)
	assert.Nil(t, enemy.Ships[1].Positions)
	assert.Zero(t, enemy.Ships[1].Hits)
	assert.Equal(t, Hit, enemy.Board[1][0])
	assert.Equal(t, Empty, enemy.Board[1][1])
}
