package war

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobby/internal/game"
	"lobby/internal/game/cards"
)

func newTestState(seed int64) State {
	return New(game.MatchConfig{
		Players: []game.Player{{ID: "alice"}, {ID: "bob"}},
		Rand:    rand.New(rand.NewSource(seed)),
	}, Options{})
}

func deckOf(ranks ...cards.Rank) []cards.Card {
	out := make([]cards.Card, len(ranks))
	for i, r := range ranks {
		out[i] = cards.Card{Rank: r, Suit: cards.Suits[i%4]}
	}
	return out
}

func play(t *testing.T, s State) State {
	t.Helper()
	next, ok := Apply(s, s.CurrentTurn, Move{Action: ActionPlay}, time.Time{})
	require.True(t, ok)
	return next
}

func TestDealSplitsDeck(t *testing.T) {
	s := newTestState(1)
	assert.Len(t, s.Decks[0], 26)
	assert.Len(t, s.Decks[1], 26)
	assert.Equal(t, 52, s.CardCount())
}

func TestHigherCardTakesPile(t *testing.T) {
	s := newTestState(1)
	s.Decks = [2][]cards.Card{deckOf(cards.King, 2), deckOf(5, 3)}
	s = play(t, s)
	assert.Equal(t, "alice", s.LastBattle.Winner)
	assert.Len(t, s.Decks[0], 3)
	assert.Len(t, s.Decks[1], 1)
	assert.Equal(t, "bob", s.CurrentTurn)
	assert.Empty(t, s.Pile)
}

func TestAceIsHigh(t *testing.T) {
	s := newTestState(1)
	s.Decks = [2][]cards.Card{deckOf(cards.Ace, 2), deckOf(cards.King, 3)}
	s = play(t, s)
	assert.Equal(t, "alice", s.LastBattle.Winner)
}

func TestPlayersAlternate(t *testing.T) {
	s := newTestState(1)
	_, ok := Apply(s, "bob", Move{Action: ActionPlay}, time.Time{})
	assert.False(t, ok)
	s = play(t, s)
	_, ok = Apply(s, "alice", Move{Action: ActionPlay}, time.Time{})
	assert.False(t, ok, "same player twice")
	_, ok = Apply(s, "bob", Move{Action: "flip"}, time.Time{})
	assert.False(t, ok)
}

func TestTieCascade(t *testing.T) {
	s := newTestState(1)
	// 7 vs 7, three down each, then 9 vs 4
	s.Decks = [2][]cards.Card{
		deckOf(7, 2, 2, 2, 9, 5),
		deckOf(7, 3, 3, 3, 4, 6),
	}
	s = play(t, s)
	assert.Equal(t, 1, s.LastBattle.WarDepth)
	assert.Equal(t, "alice", s.LastBattle.Winner)
	assert.Equal(t, 10, s.LastBattle.Taken)
	assert.Len(t, s.Decks[0], 11)
	assert.Len(t, s.Decks[1], 1)
	assert.False(t, s.GameOver)
}

func TestShortTieLoses(t *testing.T) {
	s := newTestState(1)
	s.Decks = [2][]cards.Card{
		deckOf(7, 2, 2, 2, 9, 5),
		deckOf(7, 3, 3, 3),
	}
	s = play(t, s)
	assert.True(t, s.GameOver)
	assert.Equal(t, "alice", s.Winner)
	assert.Len(t, s.Decks[0], 10, "winner collects every card")
	assert.Empty(t, s.Decks[1])
	assert.Empty(t, s.Pile)
}

func TestBothShortEqualIsDraw(t *testing.T) {
	s := newTestState(1)
	s.Decks = [2][]cards.Card{deckOf(7, 2), deckOf(7, 3)}
	s = play(t, s)
	assert.True(t, s.IsDraw)
	assert.Equal(t, 4, s.CardCount())
}

func TestEmptyDeckLoses(t *testing.T) {
	s := newTestState(1)
	s.Decks = [2][]cards.Card{deckOf(2), deckOf(3, 4)}
	s = play(t, s)
	assert.True(t, s.GameOver)
	assert.Equal(t, "bob", s.Winner)
}

func TestRoundLimit(t *testing.T) {
	s := New(game.MatchConfig{
		Players: []game.Player{{ID: "alice"}, {ID: "bob"}},
		Rand:    rand.New(rand.NewSource(2)),
	}, Options{MaxRounds: 3})
	for i := 0; i < 3; i++ {
		require.False(t, s.Over())
		s = play(t, s)
	}
	assert.True(t, s.Over())
	assert.Equal(t, 52, s.CardCount())
}

func TestConservationUnderPlay(t *testing.T) {
	for seed := int64(0); seed < 10; seed++ {
		s := newTestState(seed)
		for !s.Over() {
			m, ok := AIMove(s, game.Medium, nil)
			require.True(t, ok)
			s, ok = Apply(s, s.CurrentTurn, m, time.Time{})
			require.True(t, ok)
			require.Equal(t, 52, s.CardCount())
		}
		_, ok := AIMove(s, game.Medium, nil)
		assert.False(t, ok)
	}
}

func TestSameMoveSameResult(t *testing.T) {
	g := Game(DefaultOptions())
	s := newTestState(8)
	data, err := json.Marshal(s)
	require.NoError(t, err)
	restored, err := g.Decode(data)
	require.NoError(t, err)

	a, _ := game.NewAction(Move{Action: ActionPlay})
	before, ok := g.Apply(s, "alice", a)
	require.True(t, ok)
	after, ok := g.Apply(restored, "alice", a)
	require.True(t, ok)
	want, _ := json.Marshal(before)
	got, _ := json.Marshal(after)
	assert.JSONEq(t, string(want), string(got))
}

func TestViewHidesDeckOrder(t *testing.T) {
	s := play(t, newTestState(5))

	v := s.View("alice").(PlayerView)
	assert.Empty(t, v.Decks[0])
	assert.Empty(t, v.Decks[1])
	assert.Zero(t, v.Seed)
	assert.Equal(t, [2]int{len(s.Decks[0]), len(s.Decks[1])}, v.DeckSizes)
	assert.Equal(t, s.LastBattle, v.LastBattle)
	assert.NotEmpty(t, s.Decks[0], "the view must not modify the state")
	assert.NotZero(t, s.Seed)
}
