// Package gofish implements two-player Go Fish.
package gofish

import (
	"math/rand"
	"slices"
	"time"

	"lobby/internal/game"
	"lobby/internal/game/cards"
)

const Name = "go-fish"

const (
	handSize  = 7
	bookSize  = 4
	bookCount = 13
)

// Ask is the outcome of the last accepted ask.
type Ask struct {
	PlayerID string       `json:"playerId"`
	Rank     cards.Rank   `json:"rank"`
	Received int          `json:"received"`
	Drew     bool         `json:"drew"`
	DrewRank bool         `json:"drewRank"`
	Books    []cards.Rank `json:"books,omitempty"`
	At       time.Time    `json:"at"`
}

// State is a Go Fish match. Hands and Books are indexed by seat.
type State struct {
	Deck        []cards.Card    `json:"deck"`
	Hands       [2][]cards.Card `json:"hands"`
	Books       [2][]cards.Rank `json:"books"`
	Players     []game.Player   `json:"players"`
	CurrentTurn string          `json:"currentTurn"`
	LastAction  *Ask            `json:"lastAction,omitempty"`
	GameOver    bool            `json:"gameOver"`
	Winner      string          `json:"winner,omitempty"`
	IsDraw      bool            `json:"isDraw"`
	Difficulty  game.Difficulty `json:"difficulty"`
}

// Move asks the opponent for every card of Rank.
type Move struct {
	Rank cards.Rank `json:"rank"`
}

func Game() game.Game {
	return game.Rules[State, Move]{
		Meta:   game.GameInfo{Name: Name, Title: "Go Fish", MinPlayers: 2, MaxPlayers: 2},
		Init:   New,
		Move:   Apply,
		Choose: AIMove,
	}
}

// New deals seven cards each and lays down any books dealt.
func New(cfg game.MatchConfig) State {
	deck := cards.Shuffle(cfg.RNG(), cards.NewDeck())
	s := State{
		Players:     cfg.Seats(),
		Difficulty:  cfg.Difficulty,
		Deck:        slices.Clone(deck[2*handSize:]),
		Books:       [2][]cards.Rank{{}, {}},
		CurrentTurn: cfg.Seats()[0].ID,
	}
	if s.Difficulty == "" {
		s.Difficulty = game.Medium
	}
	for seat := range s.Hands {
		hand, books := collectBooks(slices.Clone(deck[seat*handSize : (seat+1)*handSize]))
		s.Hands[seat] = hand
		s.Books[seat] = append(s.Books[seat], books...)
	}
	return s
}

func (s State) Awaiting() []string {
	if s.GameOver {
		return nil
	}
	return []string{s.CurrentTurn}
}

func (s State) Over() bool { return s.GameOver }

func (s State) Outcome() game.Outcome {
	return game.Outcome{Winner: s.Winner, IsDraw: s.IsDraw}
}

// collectBooks removes every complete set of four from hand.
func collectBooks(hand []cards.Card) ([]cards.Card, []cards.Rank) {
	var books []cards.Rank
	for _, r := range cards.Ranks() {
		if cards.CountRank(hand, r) == bookSize {
			books = append(books, r)
		}
	}
	if len(books) == 0 {
		return hand, nil
	}
	kept := hand[:0:0]
	for _, c := range hand {
		if !slices.Contains(books, c.Rank) {
			kept = append(kept, c)
		}
	}
	return kept, books
}

// Apply asks the opponent for m.Rank, which the asker must hold.
func Apply(s State, playerID string, m Move, at time.Time) (State, bool) {
	seat := game.SeatOf(s.Players, playerID)
	if s.GameOver || seat < 0 || playerID != s.CurrentTurn || !m.Rank.Valid() {
		return s, false
	}
	if cards.CountRank(s.Hands[seat], m.Rank) == 0 {
		return s, false
	}

	next := s.clone()
	target := game.Other(seat)
	ask := &Ask{PlayerID: playerID, Rank: m.Rank, At: at}

	var taken, kept []cards.Card
	for _, c := range next.Hands[target] {
		if c.Rank == m.Rank {
			taken = append(taken, c)
		} else {
			kept = append(kept, c)
		}
	}

	switch {
	case len(taken) > 0:
		next.Hands[target] = kept
		next.Hands[seat] = append(next.Hands[seat], taken...)
		ask.Received = len(taken)
	case len(next.Deck) > 0:
		drawn := next.Deck[0]
		next.Deck = next.Deck[1:]
		next.Hands[seat] = append(next.Hands[seat], drawn)
		ask.Drew = true
		ask.DrewRank = drawn.Rank == m.Rank
		if !ask.DrewRank {
			next.CurrentTurn = next.Players[target].ID
		}
	default:
		next.CurrentTurn = next.Players[target].ID
	}

	hand, books := collectBooks(next.Hands[seat])
	next.Hands[seat] = hand
	next.Books[seat] = append(next.Books[seat], books...)
	ask.Books = books
	next.LastAction = ask

	next.settle()
	return next, true
}

// settle ends the game when no books remain to be made, otherwise tops up
// empty hands from the deck and passes the turn when the player to move
// has nothing to ask with.
func (s *State) settle() {
	if s.finished() {
		s.finish()
		return
	}
	cur := game.SeatOf(s.Players, s.CurrentTurn)
	for _, seat := range []int{cur, game.Other(cur)} {
		if len(s.Hands[seat]) == 0 && len(s.Deck) > 0 {
			s.Hands[seat] = append(s.Hands[seat], s.Deck[0])
			s.Deck = s.Deck[1:]
		}
	}
	if len(s.Hands[cur]) == 0 {
		s.CurrentTurn = s.Players[game.Other(cur)].ID
	}
	if s.finished() {
		s.finish()
	}
}

func (s *State) finished() bool {
	if len(s.Books[0])+len(s.Books[1]) == bookCount {
		return true
	}
	return len(s.Deck) == 0 && len(s.Hands[0]) == 0 && len(s.Hands[1]) == 0
}

func (s *State) finish() {
	s.GameOver = true
	switch a, b := len(s.Books[0]), len(s.Books[1]); {
	case a > b:
		s.Winner = s.Players[0].ID
	case b > a:
		s.Winner = s.Players[1].ID
	default:
		s.IsDraw = true
	}
}

func (s State) clone() State {
	next := s
	next.Deck = slices.Clone(s.Deck)
	for i := range s.Hands {
		next.Hands[i] = slices.Clone(s.Hands[i])
		next.Books[i] = slices.Clone(s.Books[i])
	}
	return next
}

// CardCount is the number of cards accounted for across deck, hands and
// books.
func (s State) CardCount() int {
	n := len(s.Deck)
	for i := range s.Hands {
		n += len(s.Hands[i]) + bookSize*len(s.Books[i])
	}
	return n
}

// PlayerView is one player's side of the table: their own hand, and only
// the size of the deck and of the other hand.
type PlayerView struct {
	State
	DeckSize  int    `json:"deckSize"`
	HandSizes [2]int `json:"handSizes"`
}

// View hides the deck and every hand but playerID's until the game ends.
func (s State) View(playerID string) any {
	v := PlayerView{State: s, DeckSize: len(s.Deck)}
	for i, p := range s.Players {
		v.HandSizes[i] = len(s.Hands[i])
		if !s.GameOver && p.ID != playerID {
			v.Hands[i] = nil
		}
	}
	if !s.GameOver {
		v.Deck = nil
	}
	return v
}

// AIMove asks for a rank in hand: a random card's rank on easy and
// medium, the rank held most often on hard.
func AIMove(s State, d game.Difficulty, rng *rand.Rand) (Move, bool) {
	seat := game.SeatOf(s.Players, s.CurrentTurn)
	if seat < 0 || len(s.Hands[seat]) == 0 {
		return Move{}, false
	}
	hand := s.Hands[seat]
	if d != game.Hard {
		return Move{Rank: hand[rng.Intn(len(hand))].Rank}, true
	}

	var best []cards.Rank
	bestCount := 0
	for _, r := range cards.Ranks() {
		n := cards.CountRank(hand, r)
		switch {
		case n == 0:
		case n > bestCount:
			best, bestCount = []cards.Rank{r}, n
		case n == bestCount:
			best = append(best, r)
		}
	}
	return Move{Rank: best[rng.Intn(len(best))]}, true
}
