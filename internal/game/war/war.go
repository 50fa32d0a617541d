// Package war implements the card game War. Each play resolves one battle,
// including any chain of ties.
package war

import (
	"math/rand"
	"slices"
	"time"

	"lobby/internal/game"
	"lobby/internal/game/cards"
)

const Name = "war"

// Each side commits this many cards face down before the next reveal of
// a tie.
const faceDown = 3

// Options configure a match.
type Options struct {
	// MaxRounds ends the game after this many battles; the side holding
	// more cards wins.
	MaxRounds int `yaml:"max_rounds" json:"maxRounds"`
}

func DefaultOptions() Options {
	return Options{MaxRounds: 2000}
}

// Battle records the last resolved battle.
type Battle struct {
	Cards    [2]cards.Card `json:"cards"`
	WarDepth int           `json:"warDepth"`
	Winner   string        `json:"winner,omitempty"`
	Taken    int           `json:"taken"`
	At       time.Time     `json:"at"`
}

// State is a war match. Decks are indexed by seat and played from the
// front.
type State struct {
	Decks       [2][]cards.Card `json:"decks"`
	Pile        []cards.Card    `json:"pile"`
	Players     []game.Player   `json:"players"`
	CurrentTurn string          `json:"currentTurn"`
	Round       int             `json:"round"`
	MaxRounds   int             `json:"maxRounds"`
	LastBattle  *Battle         `json:"lastBattle,omitempty"`
	GameOver    bool            `json:"gameOver"`
	Winner      string          `json:"winner,omitempty"`
	IsDraw      bool            `json:"isDraw"`
	Seed        int64           `json:"seed"`
	Step        int             `json:"step"`
	Difficulty  game.Difficulty `json:"difficulty"`
}

// Move flips the next card. Action must be "play".
type Move struct {
	Action string `json:"action"`
}

const ActionPlay = "play"

func Game(opts Options) game.Game {
	return game.Rules[State, Move]{
		Meta: game.GameInfo{Name: Name, Title: "War", MinPlayers: 2, MaxPlayers: 2},
		Init: func(cfg game.MatchConfig) State {
			return New(cfg, opts)
		},
		Move:   Apply,
		Choose: AIMove,
	}
}

// New splits a shuffled deck evenly between the two seats.
func New(cfg game.MatchConfig, opts Options) State {
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = DefaultOptions().MaxRounds
	}
	rng := cfg.RNG()
	deck := cards.Shuffle(rng, cards.NewDeck())
	half := len(deck) / 2
	s := State{
		Decks:       [2][]cards.Card{slices.Clone(deck[:half]), slices.Clone(deck[half:])},
		Pile:        []cards.Card{},
		Players:     cfg.Seats(),
		MaxRounds:   opts.MaxRounds,
		Seed:        rng.Int63(),
		Difficulty:  cfg.Difficulty,
		CurrentTurn: cfg.Seats()[0].ID,
	}
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

// CardCount is the number of cards across both decks and the pile.
func (s State) CardCount() int {
	return len(s.Decks[0]) + len(s.Decks[1]) + len(s.Pile)
}

// PlayerView shows deck sizes only. Neither player knows the order of
// any deck, their own included.
type PlayerView struct {
	State
	DeckSizes [2]int `json:"deckSizes"`
}

// View hides deck order and the shuffle seed. The pile is face up.
func (s State) View(string) any {
	v := PlayerView{State: s, DeckSizes: [2]int{len(s.Decks[0]), len(s.Decks[1])}}
	v.Decks = [2][]cards.Card{}
	v.Seed = 0
	return v
}

// Apply resolves one battle. Players take turns flipping.
func Apply(s State, playerID string, m Move, at time.Time) (State, bool) {
	if s.GameOver || m.Action != ActionPlay || playerID == "" || playerID != s.CurrentTurn {
		return s, false
	}

	next := s
	next.Decks = [2][]cards.Card{slices.Clone(s.Decks[0]), slices.Clone(s.Decks[1])}
	next.Pile = slices.Clone(s.Pile)
	rng := game.StepRand(s.Seed, s.Step)
	next.Step++
	next.Round++
	seat := game.SeatOf(s.Players, playerID)
	next.CurrentTurn = s.Players[game.Other(seat)].ID

	battle := &Battle{At: at}
	next.LastBattle = battle
	for {
		if len(next.Decks[0]) == 0 || len(next.Decks[1]) == 0 {
			next.endByCount()
			return next, true
		}
		var up [2]cards.Card
		for i := range next.Decks {
			up[i] = next.Decks[i][0]
			next.Decks[i] = next.Decks[i][1:]
			next.Pile = append(next.Pile, up[i])
		}
		battle.Cards = up

		a, b := up[0].Rank.AceHigh(), up[1].Rank.AceHigh()
		if a != b {
			w := 0
			if b > a {
				w = 1
			}
			battle.Winner = next.Players[w].ID
			battle.Taken = len(next.Pile)
			next.Decks[w] = append(next.Decks[w], cards.Shuffle(rng, next.Pile)...)
			next.Pile = []cards.Card{}
			break
		}

		battle.WarDepth++
		short0 := len(next.Decks[0]) < faceDown+1
		short1 := len(next.Decks[1]) < faceDown+1
		if short0 || short1 {
			switch {
			case short0 && short1:
				next.endByCount()
			case short0:
				next.finish(1)
			default:
				next.finish(0)
			}
			battle.Winner = next.Winner
			return next, true
		}
		for i := range next.Decks {
			next.Pile = append(next.Pile, next.Decks[i][:faceDown]...)
			next.Decks[i] = next.Decks[i][faceDown:]
		}
	}

	switch {
	case len(next.Decks[0]) == 0:
		next.finish(1)
	case len(next.Decks[1]) == 0:
		next.finish(0)
	case next.Round >= next.MaxRounds:
		next.endByCount()
	}
	return next, true
}

// endByCount finishes in favour of the side holding more cards.
func (s *State) endByCount() {
	a, b := len(s.Decks[0]), len(s.Decks[1])
	switch {
	case a > b:
		s.finish(0)
	case b > a:
		s.finish(1)
	default:
		s.GameOver = true
		s.IsDraw = true
	}
}

// finish hands every card to seat w.
func (s *State) finish(w int) {
	l := game.Other(w)
	s.Decks[w] = append(append(s.Decks[w], s.Pile...), s.Decks[l]...)
	s.Decks[l] = []cards.Card{}
	s.Pile = []cards.Card{}
	s.GameOver = true
	s.Winner = s.Players[w].ID
}

// AIMove always plays; the game has no decisions.
func AIMove(s State, _ game.Difficulty, _ *rand.Rand) (Move, bool) {
	if s.GameOver {
		return Move{}, false
	}
	return Move{Action: ActionPlay}, true
}
