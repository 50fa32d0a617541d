// Package secretcode implements a Mastermind style code-breaking game.
package secretcode

import (
	"math/rand"
	"slices"
	"time"

	"lobby/internal/game"
)

// CodeType selects the symbol pool codes are drawn from.
type CodeType string

const (
	Colors  CodeType = "colors"
	Numbers CodeType = "numbers"
	Letters CodeType = "letters"
)

var pools = map[CodeType][]string{
	Colors:  {"red", "blue", "green", "yellow", "purple", "orange"},
	Numbers: {"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"},
	Letters: {"A", "B", "C", "D", "E", "F"},
}

// Pool returns the symbols available for t.
func Pool(t CodeType) []string {
	return slices.Clone(pools[t])
}

// Variant selects who sets the codes.
type Variant string

const (
	// Single draws one code at the start that both players try to crack.
	Single Variant = "single"
	// Dual has each player set a code for the other to crack.
	Dual Variant = "dual"
)

type Phase string

const (
	PhaseSetup    Phase = "setup"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// Options configure a match.
type Options struct {
	CodeType   CodeType `yaml:"code_type" json:"codeType"`
	Variant    Variant  `yaml:"variant" json:"variant"`
	Length     int      `yaml:"length" json:"length"`
	MaxGuesses int      `yaml:"max_guesses" json:"maxGuesses"`
}

func DefaultOptions() Options {
	return Options{CodeType: Colors, Variant: Dual, Length: 4, MaxGuesses: 10}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if _, ok := pools[o.CodeType]; !ok {
		o.CodeType = d.CodeType
	}
	if o.Variant != Single && o.Variant != Dual {
		o.Variant = d.Variant
	}
	if o.Length <= 0 {
		o.Length = d.Length
	}
	if o.MaxGuesses <= 0 {
		o.MaxGuesses = d.MaxGuesses
	}
	return o
}

// Feedback counts exact matches and right symbols in the wrong place.
type Feedback struct {
	Correct   int `json:"correct"`
	Misplaced int `json:"misplaced"`
}

type Guess struct {
	PlayerID  string    `json:"playerId"`
	Code      []string  `json:"code"`
	Feedback  Feedback  `json:"feedback"`
	Timestamp time.Time `json:"timestamp"`
}

// State is a secret-code match. Targets[i] is the code seat i is trying
// to crack.
type State struct {
	CodeType    CodeType        `json:"codeType"`
	Variant     Variant         `json:"variant"`
	Length      int             `json:"length"`
	MaxGuesses  int             `json:"maxGuesses"`
	Players     []game.Player   `json:"players"`
	Targets     [2][]string     `json:"targets"`
	Guesses     []Guess         `json:"guesses,omitempty"`
	Phase       Phase           `json:"phase"`
	CurrentTurn string          `json:"currentTurn"`
	Winner      string          `json:"winner,omitempty"`
	IsDraw      bool            `json:"isDraw"`
	Difficulty  game.Difficulty `json:"difficulty"`
}

// Move sets a secret (Action "set") or guesses one ("guess").
type Move struct {
	Action string   `json:"action"`
	Code   []string `json:"code"`
}

const (
	ActionSet   = "set"
	ActionGuess = "guess"
)

// Game returns secret-code rules registered under name.
func Game(name, title string, opts Options) game.Game {
	opts = opts.withDefaults()
	return game.Rules[State, Move]{
		Meta: game.GameInfo{Name: name, Title: title, MinPlayers: 2, MaxPlayers: 2},
		Init: func(cfg game.MatchConfig) State {
			return New(cfg, opts)
		},
		Move:   Apply,
		Choose: AIMove,
	}
}

func New(cfg game.MatchConfig, opts Options) State {
	opts = opts.withDefaults()
	s := State{
		CodeType:   opts.CodeType,
		Variant:    opts.Variant,
		Length:     opts.Length,
		MaxGuesses: opts.MaxGuesses,
		Players:    cfg.Seats(),
		Phase:      PhaseSetup,
		Difficulty: cfg.Difficulty,
	}
	if s.Difficulty == "" {
		s.Difficulty = game.Medium
	}
	if s.Variant == Single {
		code := randomCode(cfg.RNG(), pools[s.CodeType], s.Length)
		s.Targets = [2][]string{code, code}
		s.Phase = PhasePlaying
		s.CurrentTurn = s.Players[0].ID
	}
	return s
}

func (s State) Awaiting() []string {
	switch s.Phase {
	case PhaseSetup:
		var out []string
		for i, p := range s.Players {
			if s.Targets[game.Other(i)] == nil {
				out = append(out, p.ID)
			}
		}
		return out
	case PhasePlaying:
		return []string{s.CurrentTurn}
	}
	return nil
}

func (s State) Over() bool { return s.Phase == PhaseFinished }

func (s State) Outcome() game.Outcome {
	return game.Outcome{Winner: s.Winner, IsDraw: s.IsDraw}
}

// PlayerView is one player's view of the match. CodeSet tells whether
// each seat's target has been chosen.
type PlayerView struct {
	State
	CodeSet [2]bool `json:"codeSet"`
}

// View hides every code playerID is trying to crack. In the dual variant
// a player still sees the code they set for their opponent. Both codes
// are revealed once the game is over.
func (s State) View(playerID string) any {
	v := PlayerView{State: s, CodeSet: [2]bool{s.Targets[0] != nil, s.Targets[1] != nil}}
	if s.Over() {
		return v
	}
	seat := game.SeatOf(s.Players, playerID)
	for i := range v.Targets {
		setter := game.Other(i)
		if s.Variant == Single || seat < 0 || seat != setter {
			v.Targets[i] = nil
		}
	}
	return v
}

// GuessesBy counts the guesses playerID has made.
func (s State) GuessesBy(playerID string) int {
	n := 0
	for _, g := range s.Guesses {
		if g.PlayerID == playerID {
			n++
		}
	}
	return n
}

func (s State) valid(code []string) bool {
	if len(code) != s.Length {
		return false
	}
	pool := pools[s.CodeType]
	for _, c := range code {
		if !slices.Contains(pool, c) {
			return false
		}
	}
	return true
}

// Apply handles a set or guess move for playerID.
func Apply(s State, playerID string, m Move, at time.Time) (State, bool) {
	seat := game.SeatOf(s.Players, playerID)
	if seat < 0 || !s.valid(m.Code) {
		return s, false
	}
	switch m.Action {
	case ActionSet:
		return set(s, seat, m.Code)
	case ActionGuess:
		return guess(s, seat, m.Code, at)
	}
	return s, false
}

// set stores the code the opponent of seat has to crack.
func set(s State, seat int, code []string) (State, bool) {
	target := game.Other(seat)
	if s.Phase != PhaseSetup || s.Targets[target] != nil {
		return s, false
	}
	next := s
	next.Targets[target] = slices.Clone(code)
	if next.Targets[0] != nil && next.Targets[1] != nil {
		next.Phase = PhasePlaying
		next.CurrentTurn = next.Players[0].ID
	}
	return next, true
}

func guess(s State, seat int, code []string, at time.Time) (State, bool) {
	id := s.Players[seat].ID
	if s.Phase != PhasePlaying || s.CurrentTurn != id || s.GuessesBy(id) >= s.MaxGuesses {
		return s, false
	}
	fb := Evaluate(code, s.Targets[seat])
	next := s
	next.Guesses = append(slices.Clone(s.Guesses), Guess{
		PlayerID:  id,
		Code:      slices.Clone(code),
		Feedback:  fb,
		Timestamp: at,
	})

	if fb.Correct == s.Length {
		next.Phase = PhaseFinished
		next.Winner = id
		return next, true
	}

	other := next.Players[game.Other(seat)].ID
	switch {
	case next.GuessesBy(other) < next.MaxGuesses:
		next.CurrentTurn = other
	case next.GuessesBy(id) < next.MaxGuesses:
		next.CurrentTurn = id
	default:
		next.Phase = PhaseFinished
		next.IsDraw = true
	}
	return next, true
}

// Evaluate scores guess against secret: exact matches first, then the
// remaining symbols by multiset intersection.
func Evaluate(guess, secret []string) Feedback {
	var fb Feedback
	remaining := make(map[string]int)
	var unmatched []string
	for i := range guess {
		if i < len(secret) && guess[i] == secret[i] {
			fb.Correct++
			continue
		}
		if i < len(secret) {
			remaining[secret[i]]++
		}
		unmatched = append(unmatched, guess[i])
	}
	for _, g := range unmatched {
		if remaining[g] > 0 {
			fb.Misplaced++
			remaining[g]--
		}
	}
	return fb
}

func randomCode(rng *rand.Rand, pool []string, length int) []string {
	code := make([]string, length)
	for i := range code {
		code[i] = pool[rng.Intn(len(pool))]
	}
	return code
}

// consistencySamples bounds how many random codes the hard AI tries
// before falling back to a plain random guess.
const consistencySamples = 5000

// AIMove sets a random secret during setup and guesses while playing.
// The hard AI only guesses codes that agree with the feedback it has seen.
func AIMove(s State, d game.Difficulty, rng *rand.Rand) (Move, bool) {
	pool := pools[s.CodeType]
	awaiting := s.Awaiting()
	if len(awaiting) == 0 {
		return Move{}, false
	}
	if s.Phase == PhaseSetup {
		return Move{Action: ActionSet, Code: randomCode(rng, pool, s.Length)}, true
	}

	if d == game.Hard {
		var mine []Guess
		for _, g := range s.Guesses {
			if g.PlayerID == s.CurrentTurn {
				mine = append(mine, g)
			}
		}
		for i := 0; i < consistencySamples; i++ {
			code := randomCode(rng, pool, s.Length)
			if consistent(code, mine) {
				return Move{Action: ActionGuess, Code: code}, true
			}
		}
	}
	return Move{Action: ActionGuess, Code: randomCode(rng, pool, s.Length)}, true
}

// consistent reports whether code would have produced the recorded
// feedback for every guess.
func consistent(code []string, guesses []Guess) bool {
	for _, g := range guesses {
		if Evaluate(g.Code, code) != g.Feedback {
			return false
		}
	}
	return true
}
