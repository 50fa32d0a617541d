// Package cards models a standard 52-card deck.
package cards

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"slices"
	"strconv"
	"strings"
)

type Suit string

const (
	Spades   Suit = "spades"
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
)

var Suits = []Suit{Spades, Hearts, Diamonds, Clubs}

// DeckSize is the number of cards in a full deck.
const DeckSize = 52

// Rank runs from Ace (1) to King (13).
type Rank int

const (
	Ace   Rank = 1
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

// Ranks lists every rank, Ace first.
func Ranks() []Rank {
	out := make([]Rank, 0, 13)
	for r := Ace; r <= King; r++ {
		out = append(out, r)
	}
	return out
}

func (r Rank) Valid() bool { return r >= Ace && r <= King }

// AceHigh returns the comparison value with Ace above King.
func (r Rank) AceHigh() int {
	if r == Ace {
		return 14
	}
	return int(r)
}

func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	}
	return strconv.Itoa(int(r))
}

// ParseRank accepts "A", "2".."10", "J", "Q", "K" and "1".."13".
func ParseRank(s string) (Rank, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return Ace, nil
	case "J":
		return Jack, nil
	case "Q":
		return Queen, nil
	case "K":
		return King, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !Rank(n).Valid() {
		return 0, fmt.Errorf("invalid rank %q", s)
	}
	return Rank(n), nil
}

// UnmarshalJSON accepts a number or a rank name.
func (r *Rank) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		if !Rank(n).Valid() {
			return fmt.Errorf("invalid rank %d", n)
		}
		*r = Rank(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRank(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

// ID is a stable identifier such as "Q-hearts".
func (c Card) ID() string {
	return c.Rank.String() + "-" + string(c.Suit)
}

func (c Card) String() string { return c.ID() }

// NewDeck returns the 52 cards in suit then rank order.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for _, r := range Ranks() {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return deck
}

// Shuffle returns a shuffled copy of cards.
func Shuffle(rng *rand.Rand, cards []Card) []Card {
	out := slices.Clone(cards)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Remove returns hand without the first copy of c.
func Remove(hand []Card, c Card) ([]Card, bool) {
	i := slices.Index(hand, c)
	if i < 0 {
		return hand, false
	}
	out := make([]Card, 0, len(hand)-1)
	out = append(out, hand[:i]...)
	return append(out, hand[i+1:]...), true
}

// CountRank counts the cards of rank r.
func CountRank(hand []Card, r Rank) int {
	n := 0
	for _, c := range hand {
		if c.Rank == r {
			n++
		}
	}
	return n
}

var suitOrder = map[Suit]int{Spades: 0, Hearts: 1, Diamonds: 2, Clubs: 3}

// Sort returns a copy of hand ordered by suit, then rank.
func Sort(hand []Card) []Card {
	out := slices.Clone(hand)
	slices.SortFunc(out, func(a, b Card) int {
		if a.Suit != b.Suit {
			return suitOrder[a.Suit] - suitOrder[b.Suit]
		}
		return int(a.Rank) - int(b.Rank)
	})
	return out
}
