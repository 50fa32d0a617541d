package game

import (
	"encoding/json"
	"math/rand"
	"strings"
	"time"
)

// AIPlayerID is the reserved player id of the built-in opponent.
const AIPlayerID = "ai-player"

// ActionMove is the only action type the games accept.
const ActionMove = "move"

// GameInfo describes a game type for the lobby.
type GameInfo struct {
	Name       string `json:"name"`
	Title      string `json:"title"`
	MinPlayers int    `json:"minPlayers"`
	MaxPlayers int    `json:"maxPlayers"`
}

// Difficulty selects the AI move-generation strategy.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// ParseDifficulty maps a user supplied tier to a Difficulty. Anything
// unrecognised is treated as medium.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case Easy:
		return Easy
	case Hard:
		return Hard
	default:
		return Medium
	}
}

// Player is one seat at the table.
type Player struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Symbol   string `json:"symbol,omitempty"`
}

// MatchConfig holds settings for creating a new match.
type MatchConfig struct {
	Players    []Player
	Difficulty Difficulty
	Rand       *rand.Rand
}

// RNG returns the configured random source, or a time-seeded one.
func (c MatchConfig) RNG() *rand.Rand {
	if c.Rand != nil {
		return c.Rand
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Seats returns exactly two players, padding missing seats with empty ones.
func (c MatchConfig) Seats() []Player {
	seats := make([]Player, 2)
	copy(seats, c.Players)
	return seats
}

// Action represents a move a player can make.
type Action struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	At      time.Time       `json:"at"`
}

// NewAction wraps a game specific move in a move action.
func NewAction(move any) (Action, error) {
	payload, err := json.Marshal(move)
	if err != nil {
		return Action{}, err
	}
	return Action{Type: ActionMove, Payload: payload}, nil
}

// Outcome is the terminal result of a match. Both fields are zero while
// the match is still running.
type Outcome struct {
	Winner string `json:"winner,omitempty"`
	IsDraw bool   `json:"isDraw"`
}

// PlayerResult holds the outcome for one player.
type PlayerResult struct {
	PlayerID string `json:"playerId"`
	Rank     int    `json:"rank"` // 1 = first place
	Score    int    `json:"score"`
}

// State is a serializable snapshot of one match.
type State interface {
	// Awaiting lists the player ids allowed to move next.
	Awaiting() []string
	Over() bool
	Outcome() Outcome
}

// Game describes a game type (chess, war, etc.). Implementations are
// stateless: every method is a pure function of its arguments.
type Game interface {
	Info() GameInfo
	New(cfg MatchConfig) State
	// Apply returns the successor state and true, or the unchanged state
	// and false when the move is rejected.
	Apply(s State, playerID string, a Action) (State, bool)
	// AIMove picks a move for the player the state is waiting on. It
	// reports false when there is no legal move.
	AIMove(s State, d Difficulty, rng *rand.Rand) (Action, bool)
	Decode(data []byte) (State, error)
}

// Viewer is implemented by states holding information some players must
// not see, such as hands, deck order or secret codes.
type Viewer interface {
	// View returns what playerID may see. Any id that is not seated gets
	// the spectator view.
	View(playerID string) any
}

// ViewFor returns the part of s that playerID may see.
func ViewFor(s State, playerID string) any {
	if v, ok := s.(Viewer); ok {
		return v.View(playerID)
	}
	return s
}

// Transition is the result of routing a move through the Registry.
type Transition struct {
	State    State
	Accepted bool
	// AIToMove is set when the built-in opponent should be asked for the
	// next move. Acting on it is the caller's job.
	AIToMove bool
}

// Results ranks players by the state's outcome. It returns nil while the
// match is still running.
func Results(s State, playerIDs []string) []PlayerResult {
	if !s.Over() {
		return nil
	}
	out := s.Outcome()
	results := make([]PlayerResult, 0, len(playerIDs))
	for _, id := range playerIDs {
		switch {
		case out.IsDraw || out.Winner == "":
			results = append(results, PlayerResult{PlayerID: id, Rank: 1})
		case id == out.Winner:
			results = append(results, PlayerResult{PlayerID: id, Rank: 1, Score: 1})
		default:
			results = append(results, PlayerResult{PlayerID: id, Rank: 2})
		}
	}
	return results
}

// AwaitingAI reports whether the built-in opponent is due to move.
func AwaitingAI(s State) bool {
	if s == nil || s.Over() {
		return false
	}
	for _, id := range s.Awaiting() {
		if id == AIPlayerID {
			return true
		}
	}
	return false
}

// StepRand returns the random source for transition number step of a
// match seeded with seed. Equal inputs always give equal sequences.
func StepRand(seed int64, step int) *rand.Rand {
	return rand.New(rand.NewSource(seed + int64(step)*7919))
}

// SeatOf returns the seat index of playerID, or -1.
func SeatOf(players []Player, playerID string) int {
	for i, p := range players {
		if p.ID == playerID && playerID != "" {
			return i
		}
	}
	return -1
}

// Other returns the seat opposite seat in a two player game.
func Other(seat int) int {
	return 1 - seat
}
