// Package rummy implements two-player Rummy: draw, then discard or declare
// a hand that melds completely.
package rummy

import (
	"math/rand"
	"slices"
	"time"

	"lobby/internal/game"
	"lobby/internal/game/cards"
)

const Name = "rummy"

type TurnPhase string

const (
	PhaseDraw    TurnPhase = "draw"
	PhaseDiscard TurnPhase = "discard"
)

const (
	ActionDraw    = "draw"
	ActionDiscard = "discard"
	ActionDeclare = "declare"

	FromDeck    = "deck"
	FromDiscard = "discard"
)

type Options struct {
	HandSize int `yaml:"hand_size" json:"handSize"`
	// MaxDraws ends the game as a draw once this many cards have been drawn.
	MaxDraws int `yaml:"max_draws" json:"maxDraws"`
}

func DefaultOptions() Options {
	return Options{HandSize: 13, MaxDraws: 500}
}

// Play is the last accepted draw or discard.
type Play struct {
	PlayerID string      `json:"playerId"`
	Action   string      `json:"action"`
	From     string      `json:"from,omitempty"`
	Card     *cards.Card `json:"card,omitempty"`
	At       time.Time   `json:"at"`
}

// Declaration records the result of the last declare.
type Declaration struct {
	PlayerID string    `json:"playerId"`
	Valid    bool      `json:"valid"`
	Melds    []Meld    `json:"melds,omitempty"`
	At       time.Time `json:"at"`
}

// State is a rummy match. Hands and Melds are indexed by seat; the top of
// the discard pile is its last card.
type State struct {
	Deck            []cards.Card    `json:"deck"`
	DiscardPile     []cards.Card    `json:"discardPile"`
	Hands           [2][]cards.Card `json:"hands"`
	Melds           [2][]Meld       `json:"melds"`
	Players         []game.Player   `json:"players"`
	CurrentTurn     string          `json:"currentTurn"`
	TurnPhase       TurnPhase       `json:"turnPhase"`
	LastAction      *Play           `json:"lastAction,omitempty"`
	LastDeclaration *Declaration    `json:"lastDeclaration,omitempty"`
	GameOver        bool            `json:"gameOver"`
	Winner          string          `json:"winner,omitempty"`
	IsDraw          bool            `json:"isDraw"`
	Draws           int             `json:"draws"`
	MaxDraws        int             `json:"maxDraws"`
	Seed            int64           `json:"seed"`
	Step            int             `json:"step"`
	Difficulty      game.Difficulty `json:"difficulty"`
}

// Move draws from "deck" or "discard", discards the card with the given
// id (such as "Q-hearts") or declares.
type Move struct {
	Action string `json:"action"`
	From   string `json:"from,omitempty"`
	Card   string `json:"card,omitempty"`
}

func Game(opts Options) game.Game {
	return game.Rules[State, Move]{
		Meta: game.GameInfo{Name: Name, Title: "Rummy", MinPlayers: 2, MaxPlayers: 2},
		Init: func(cfg game.MatchConfig) State {
			return New(cfg, opts)
		},
		Move:   Apply,
		Choose: AIMove,
	}
}

// New deals the hands and turns one card face up.
func New(cfg game.MatchConfig, opts Options) State {
	def := DefaultOptions()
	if opts.HandSize <= 0 || 2*opts.HandSize+1 > cards.DeckSize {
		opts.HandSize = def.HandSize
	}
	if opts.MaxDraws <= 0 {
		opts.MaxDraws = def.MaxDraws
	}
	rng := cfg.RNG()
	deck := cards.Shuffle(rng, cards.NewDeck())
	h := opts.HandSize
	s := State{
		Hands:       [2][]cards.Card{cards.Sort(deck[:h]), cards.Sort(deck[h : 2*h])},
		DiscardPile: []cards.Card{deck[2*h]},
		Deck:        slices.Clone(deck[2*h+1:]),
		Melds:       [2][]Meld{{}, {}},
		Players:     cfg.Seats(),
		TurnPhase:   PhaseDraw,
		MaxDraws:    opts.MaxDraws,
		Seed:        rng.Int63(),
		Difficulty:  cfg.Difficulty,
	}
	s.CurrentTurn = s.Players[0].ID
	if s.Difficulty == "" {
		s.Difficulty = game.Medium
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

// CardCount is the number of cards across the deck, discard pile and hands.
func (s State) CardCount() int {
	return len(s.Deck) + len(s.DiscardPile) + len(s.Hands[0]) + len(s.Hands[1])
}

// Top returns the face-up discard.
func (s State) Top() (cards.Card, bool) {
	if len(s.DiscardPile) == 0 {
		return cards.Card{}, false
	}
	return s.DiscardPile[len(s.DiscardPile)-1], true
}

// PlayerView is one player's side of the table.
type PlayerView struct {
	State
	DeckSize  int    `json:"deckSize"`
	HandSizes [2]int `json:"handSizes"`
}

// View hides the deck, the shuffle seed and every hand but playerID's.
// Hands are shown once the game is over.
func (s State) View(playerID string) any {
	v := PlayerView{
		State:     s,
		DeckSize:  len(s.Deck),
		HandSizes: [2]int{len(s.Hands[0]), len(s.Hands[1])},
	}
	v.Deck = nil
	v.Seed = 0
	for i, p := range s.Players {
		if !s.GameOver && p.ID != playerID {
			v.Hands[i] = nil
		}
	}
	return v
}

func Apply(s State, playerID string, m Move, at time.Time) (State, bool) {
	seat := game.SeatOf(s.Players, playerID)
	if s.GameOver || seat < 0 || playerID != s.CurrentTurn {
		return s, false
	}
	var (
		next State
		ok   bool
	)
	switch m.Action {
	case ActionDraw:
		next, ok = draw(s, seat, m.From, at)
	case ActionDiscard:
		next, ok = discard(s, seat, m.Card, at)
	case ActionDeclare:
		next, ok = declare(s, seat, at)
	}
	if !ok {
		return s, false
	}
	next.Step++
	return next, true
}

func draw(s State, seat int, from string, at time.Time) (State, bool) {
	if s.TurnPhase != PhaseDraw {
		return s, false
	}
	next := s
	next.Deck = slices.Clone(s.Deck)
	next.DiscardPile = slices.Clone(s.DiscardPile)

	var c cards.Card
	switch from {
	case FromDeck:
		if len(next.Deck) == 0 {
			if len(next.DiscardPile) <= 1 {
				next.GameOver = true
				next.IsDraw = true
				return next, true
			}
			// everything but the face-up card goes back into the deck
			top := next.DiscardPile[len(next.DiscardPile)-1]
			next.Deck = cards.Shuffle(game.StepRand(s.Seed, s.Step), next.DiscardPile[:len(next.DiscardPile)-1])
			next.DiscardPile = []cards.Card{top}
		}
		c = next.Deck[0]
		next.Deck = next.Deck[1:]
	case FromDiscard:
		top, ok := s.Top()
		if !ok {
			return s, false
		}
		c = top
		next.DiscardPile = next.DiscardPile[:len(next.DiscardPile)-1]
	default:
		return s, false
	}

	next.Hands[seat] = cards.Sort(append(slices.Clone(s.Hands[seat]), c))
	next.TurnPhase = PhaseDiscard
	next.Draws++
	next.LastAction = &Play{PlayerID: s.CurrentTurn, Action: ActionDraw, From: from, At: at}
	if from == FromDiscard {
		next.LastAction.Card = &c
	}
	return next, true
}

func discard(s State, seat int, id string, at time.Time) (State, bool) {
	if s.TurnPhase != PhaseDiscard {
		return s, false
	}
	i := slices.IndexFunc(s.Hands[seat], func(c cards.Card) bool { return c.ID() == id })
	if i < 0 {
		return s, false
	}
	c := s.Hands[seat][i]
	hand, _ := cards.Remove(s.Hands[seat], c)

	next := s
	next.Hands[seat] = hand
	next.DiscardPile = append(slices.Clone(s.DiscardPile), c)
	next.CurrentTurn = s.Players[game.Other(seat)].ID
	next.TurnPhase = PhaseDraw
	next.LastAction = &Play{PlayerID: s.CurrentTurn, Action: ActionDiscard, Card: &c, At: at}
	if next.Draws >= next.MaxDraws {
		next.GameOver = true
		next.IsDraw = true
	}
	return next, true
}

// declare checks the whole hand. A failed declaration is recorded and the
// player still has to discard.
func declare(s State, seat int, at time.Time) (State, bool) {
	if s.TurnPhase != PhaseDiscard {
		return s, false
	}
	melds, ok := CanDeclare(s.Hands[seat])
	next := s
	next.LastDeclaration = &Declaration{PlayerID: s.CurrentTurn, Valid: ok, Melds: melds, At: at}
	if ok {
		next.Melds[seat] = melds
		next.GameOver = true
		next.Winner = s.CurrentTurn
	}
	return next, true
}

// AIMove draws from the deck, then declares when the hand melds or
// discards. Medium and hard throw deadwood first; hard also picks up a
// discard that fits a meld.
func AIMove(s State, d game.Difficulty, rng *rand.Rand) (Move, bool) {
	seat := game.SeatOf(s.Players, s.CurrentTurn)
	if s.GameOver || seat < 0 {
		return Move{}, false
	}
	hand := s.Hands[seat]

	if s.TurnPhase == PhaseDraw {
		if top, ok := s.Top(); ok && d == game.Hard && joinsMeld(hand, top) {
			return Move{Action: ActionDraw, From: FromDiscard}, true
		}
		return Move{Action: ActionDraw, From: FromDeck}, true
	}

	if _, ok := CanDeclare(hand); ok {
		return Move{Action: ActionDeclare}, true
	}
	pool := hand
	if d != game.Easy {
		if dead := Deadwood(hand); len(dead) > 0 {
			pool = dead
		}
	}
	if len(pool) == 0 {
		return Move{}, false
	}
	return Move{Action: ActionDiscard, Card: pool[rng.Intn(len(pool))].ID()}, true
}
