package rummy

import (
	"math/bits"
	"slices"

	"lobby/internal/game/cards"
)

type MeldKind string

const (
	Set MeldKind = "set"
	Run MeldKind = "run"
)

// Meld is a set (three or four cards of one rank) or a run (three or more
// consecutive ranks of one suit). Aces are low.
type Meld struct {
	Kind  MeldKind     `json:"type"`
	Cards []cards.Card `json:"cards"`
}

// ValidSet reports whether cs is three or four cards of one rank in
// distinct suits.
func ValidSet(cs []cards.Card) bool {
	if len(cs) < 3 || len(cs) > 4 {
		return false
	}
	seen := make(map[cards.Suit]bool, len(cs))
	for _, c := range cs {
		if c.Rank != cs[0].Rank || seen[c.Suit] {
			return false
		}
		seen[c.Suit] = true
	}
	return true
}

// ValidRun reports whether cs is three or more consecutive ranks of one
// suit, in any order.
func ValidRun(cs []cards.Card) bool {
	if len(cs) < 3 {
		return false
	}
	sorted := slices.Clone(cs)
	slices.SortFunc(sorted, func(a, b cards.Card) int { return int(a.Rank) - int(b.Rank) })
	for i, c := range sorted {
		if c.Suit != sorted[0].Suit {
			return false
		}
		if i > 0 && c.Rank != sorted[i-1].Rank+1 {
			return false
		}
	}
	return true
}

// Candidates lists every set and run that can be formed from hand: all
// same-rank triples and quads, and every consecutive same-suit stretch of
// length three or more.
func Candidates(hand []cards.Card) []Meld {
	var out []Meld

	byRank := make(map[cards.Rank][]cards.Card)
	for _, c := range hand {
		byRank[c.Rank] = append(byRank[c.Rank], c)
	}
	for _, r := range cards.Ranks() {
		group := byRank[r]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				for k := j + 1; k < len(group); k++ {
					set := []cards.Card{group[i], group[j], group[k]}
					if ValidSet(set) {
						out = append(out, Meld{Kind: Set, Cards: set})
					}
				}
			}
		}
		if len(group) == 4 && ValidSet(group) {
			out = append(out, Meld{Kind: Set, Cards: slices.Clone(group)})
		}
	}

	bySuit := make(map[cards.Suit][]cards.Card)
	for _, c := range cards.Sort(hand) {
		bySuit[c.Suit] = append(bySuit[c.Suit], c)
	}
	for _, s := range cards.Suits {
		suited := bySuit[s]
		for start := range suited {
			for end := start + 2; end < len(suited); end++ {
				run := suited[start : end+1]
				if !ValidRun(run) {
					break
				}
				out = append(out, Meld{Kind: Run, Cards: slices.Clone(run)})
			}
		}
	}
	return out
}

// CanDeclare searches for an exact partition of hand into melds. It
// returns the melds used when one exists.
func CanDeclare(hand []cards.Card) ([]Meld, bool) {
	if len(hand) == 0 || len(hand) > 64 {
		return nil, false
	}
	index := make(map[cards.Card]uint, len(hand))
	for i, c := range hand {
		index[c] = uint(i)
	}
	candidates := Candidates(hand)
	masks := make([]uint64, len(candidates))
	for i, m := range candidates {
		for _, c := range m.Cards {
			masks[i] |= 1 << index[c]
		}
	}

	full := uint64(1)<<uint(len(hand)) - 1
	if len(hand) == 64 {
		full = ^uint64(0)
	}
	var picked []int
	var search func(used uint64) bool
	search = func(used uint64) bool {
		if used == full {
			return true
		}
		// the lowest uncovered card must belong to the next meld
		first := uint64(1) << uint(bits.TrailingZeros64(^used))
		for i, m := range masks {
			if m&first == 0 || m&used != 0 {
				continue
			}
			picked = append(picked, i)
			if search(used | m) {
				return true
			}
			picked = picked[:len(picked)-1]
		}
		return false
	}
	if !search(0) {
		return nil, false
	}
	out := make([]Meld, len(picked))
	for i, p := range picked {
		out[i] = candidates[p]
	}
	return out, true
}

// Deadwood returns the cards of hand that belong to no candidate meld.
func Deadwood(hand []cards.Card) []cards.Card {
	inMeld := make(map[cards.Card]bool)
	for _, m := range Candidates(hand) {
		for _, c := range m.Cards {
			inMeld[c] = true
		}
	}
	var out []cards.Card
	for _, c := range hand {
		if !inMeld[c] {
			out = append(out, c)
		}
	}
	return out
}

// joinsMeld reports whether c would complete or extend a meld in hand.
func joinsMeld(hand []cards.Card, c cards.Card) bool {
	for _, m := range Candidates(append(slices.Clone(hand), c)) {
		if slices.Contains(m.Cards, c) {
			return true
		}
	}
	return false
}
