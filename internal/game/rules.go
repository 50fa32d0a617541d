package game

import (
	"encoding/json"
	"math/rand"
	"time"
)

// Rules adapts a set of typed, pure functions into a Game. S is the
// game's state type and M its move payload.
type Rules[S State, M any] struct {
	Meta GameInfo
	Init func(cfg MatchConfig) S
	// Move applies m for playerID. It must not modify s.
	Move func(s S, playerID string, m M, at time.Time) (S, bool)
	// Choose returns the AI's move for the player s is waiting on.
	Choose func(s S, d Difficulty, rng *rand.Rand) (M, bool)
}

func (r Rules[S, M]) Info() GameInfo {
	return r.Meta
}

func (r Rules[S, M]) New(cfg MatchConfig) State {
	return r.Init(cfg)
}

func (r Rules[S, M]) Apply(s State, playerID string, a Action) (State, bool) {
	typed, ok := s.(S)
	if !ok {
		return s, false
	}
	if a.Type != ActionMove {
		return s, false
	}
	var m M
	if err := json.Unmarshal(a.Payload, &m); err != nil {
		return s, false
	}
	next, ok := r.Move(typed, playerID, m, a.At)
	if !ok {
		return s, false
	}
	return next, true
}

func (r Rules[S, M]) AIMove(s State, d Difficulty, rng *rand.Rand) (Action, bool) {
	typed, ok := s.(S)
	if !ok || r.Choose == nil || s.Over() {
		return Action{}, false
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	m, ok := r.Choose(typed, d, rng)
	if !ok {
		return Action{}, false
	}
	a, err := NewAction(m)
	if err != nil {
		return Action{}, false
	}
	return a, true
}

func (r Rules[S, M]) Decode(data []byte) (State, error) {
	var s S
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s, nil
}
