package game

import (
	"errors"
	"fmt"
	"time"
)

// ErrStepLimit is returned by Autoplay when a match runs past its budget.
var ErrStepLimit = errors.New("step limit reached")

// NextActor returns the player who should act on s: the built-in opponent
// when it is among the awaited players, otherwise the first one.
func NextActor(s State) string {
	awaiting := s.Awaiting()
	if len(awaiting) == 0 {
		return ""
	}
	for _, id := range awaiting {
		if id == AIPlayerID {
			return id
		}
	}
	return awaiting[0]
}

// Autoplay runs a match of gameType in which both seats are played by the
// AI at the given tiers. All randomness comes from cfg.Rand, so a seeded
// source replays the same match. It returns the final state and the
// number of moves applied.
func (r *Registry) Autoplay(gameType string, cfg MatchConfig, tiers [2]Difficulty, maxSteps int) (State, int, error) {
	rng := cfg.RNG()
	cfg.Rand = rng
	s, ok := r.NewState(gameType, cfg)
	if !ok {
		return nil, 0, fmt.Errorf("unknown game type %q", gameType)
	}
	seats := cfg.Seats()

	steps := 0
	for !s.Over() {
		if steps >= maxSteps {
			return s, steps, ErrStepLimit
		}
		actor := NextActor(s)
		seat := SeatOf(seats, actor)
		if seat < 0 {
			return s, steps, fmt.Errorf("%s: awaiting unknown player %q", gameType, actor)
		}
		a, ok := r.AIMove(gameType, s, tiers[seat], rng)
		if !ok {
			return s, steps, fmt.Errorf("%s: no move for %s", gameType, actor)
		}
		a.At = time.Time{}
		t := r.ApplyMove(gameType, s, a, actor)
		if !t.Accepted {
			return s, steps, fmt.Errorf("%s: move by %s rejected: %s", gameType, actor, a.Payload)
		}
		s = t.State
		steps++
	}
	return s, steps, nil
}
