package game

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
)

// Registry holds all registered game types and routes moves and AI
// requests to them by name. It owns no rules itself.
type Registry struct {
	mu    sync.RWMutex
	games map[string]Game
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{games: make(map[string]Game)}
}

// Register adds a game type. Panics on duplicate names.
func (r *Registry) Register(g Game) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := g.Info().Name
	if _, exists := r.games[name]; exists {
		panic(fmt.Sprintf("game %q already registered", name))
	}
	r.games[name] = g
}

// Get returns a game by name.
func (r *Registry) Get(name string) (Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[name]
	return g, ok
}

// List returns info for all registered games, sorted by name.
func (r *Registry) List() []GameInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]GameInfo, 0, len(r.games))
	for _, g := range r.games {
		infos = append(infos, g.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// NewState initializes a match of gameType.
func (r *Registry) NewState(gameType string, cfg MatchConfig) (State, bool) {
	g, ok := r.Get(gameType)
	if !ok {
		return nil, false
	}
	return g.New(cfg), true
}

// ApplyMove routes a move to the rules of gameType. An unknown game type
// or a rejected move returns s unchanged with Accepted false.
func (r *Registry) ApplyMove(gameType string, s State, a Action, playerID string) Transition {
	g, ok := r.Get(gameType)
	if !ok || s == nil {
		return Transition{State: s}
	}
	next, ok := g.Apply(s, playerID, a)
	if !ok {
		return Transition{State: s}
	}
	return Transition{
		State:    next,
		Accepted: true,
		AIToMove: AwaitingAI(next),
	}
}

// AIMove asks the generator of gameType for a move. It reports false for
// an unknown game type or when there is no legal move.
func (r *Registry) AIMove(gameType string, s State, d Difficulty, rng *rand.Rand) (Action, bool) {
	g, ok := r.Get(gameType)
	if !ok || s == nil {
		return Action{}, false
	}
	return g.AIMove(s, d, rng)
}

// Decode restores a persisted state of gameType.
func (r *Registry) Decode(gameType string, data []byte) (State, error) {
	g, ok := r.Get(gameType)
	if !ok {
		return nil, fmt.Errorf("unknown game type %q", gameType)
	}
	return g.Decode(data)
}
