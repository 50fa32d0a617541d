package session

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"lobby/internal/game"
)

// Status represents the session lifecycle.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

var (
	ErrNotFound      = errors.New("session not found")
	ErrUnknownGame   = errors.New("unknown game type")
	ErrFull          = errors.New("session is full")
	ErrAlreadyJoined = errors.New("player already in session")
	ErrNotWaiting    = errors.New("session is not accepting players")
	ErrNotEnough     = errors.New("not enough players")
	ErrNotStarted    = errors.New("game not started")
	ErrNotFinished   = errors.New("game is still running")
	ErrNotPlayer     = errors.New("player is not in this session")
	ErrRejected      = errors.New("move rejected")
)

// Player represents a seated player. The AI seat has no Send channel.
type Player struct {
	ID       string
	Username string
	Seat     int
	Send     chan []byte // outbound messages
}

// Session is one room: its seated players and the running match.
type Session struct {
	mu         sync.RWMutex
	Code       string
	GameType   string
	Status     Status
	HostID     string
	AI         bool
	Difficulty game.Difficulty
	Players    map[string]*Player
	State      game.State
	CreatedAt  time.Time

	game     game.Game
	registry *game.Registry
	rng      *rand.Rand
	now      func() time.Time
}

// NewSession creates a session in the waiting state.
func NewSession(code, gameType string, registry *game.Registry) (*Session, error) {
	g, ok := registry.Get(gameType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, gameType)
	}
	return &Session{
		Code:       code,
		GameType:   gameType,
		Status:     StatusWaiting,
		Difficulty: game.Medium,
		Players:    make(map[string]*Player),
		CreatedAt:  time.Now(),
		game:       g,
		registry:   registry,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		now:        time.Now,
	}, nil
}

// AddPlayer seats a player in the lowest free seat.
func (s *Session) AddPlayer(playerID, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addPlayerLocked(playerID, username)
}

func (s *Session) addPlayerLocked(playerID, username string) error {
	if s.Status != StatusWaiting {
		return ErrNotWaiting
	}
	if _, exists := s.Players[playerID]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyJoined, playerID)
	}
	seat, ok := s.freeSeat()
	if !ok {
		return ErrFull
	}
	p := &Player{ID: playerID, Username: username, Seat: seat}
	if playerID != game.AIPlayerID {
		p.Send = make(chan []byte, 64)
		if s.HostID == "" {
			s.HostID = playerID
		}
	}
	s.Players[playerID] = p
	return nil
}

func (s *Session) freeSeat() (int, bool) {
	taken := make(map[int]bool, len(s.Players))
	for _, p := range s.Players {
		taken[p.Seat] = true
	}
	for seat := 0; seat < s.game.Info().MaxPlayers; seat++ {
		if !taken[seat] {
			return seat, true
		}
	}
	return 0, false
}

// seatAI reserves the last seat for the built-in opponent.
func (s *Session) seatAI() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AI = true
	s.Players[game.AIPlayerID] = &Player{
		ID:       game.AIPlayerID,
		Username: "Computer",
		Seat:     s.game.Info().MaxPlayers - 1,
	}
}

// RemovePlayer frees a human player's seat and closes their connection.
// A running or finished match is abandoned and the room goes back to
// waiting so the seat can be filled again. It reports how many humans are
// still seated.
func (s *Session) RemovePlayer(playerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Players[playerID]
	if !ok || playerID == game.AIPlayerID {
		return 0, ErrNotPlayer
	}
	if p.Send != nil {
		close(p.Send)
	}
	delete(s.Players, playerID)
	s.State = nil
	s.Status = StatusWaiting

	humans := 0
	if s.HostID == playerID {
		s.HostID = ""
	}
	for _, q := range s.seated() {
		if q.ID == game.AIPlayerID {
			continue
		}
		humans++
		if s.HostID == "" {
			s.HostID = q.ID
		}
	}
	return humans, nil
}

// ConnectPlayer replaces the Send channel for a reconnecting player.
func (s *Session) ConnectPlayer(playerID string, send chan []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Players[playerID]
	if !ok || playerID == game.AIPlayerID {
		return false
	}
	p.Send = send
	return true
}

// PlayerIDs returns the player ids in seat order.
func (s *Session) PlayerIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playerIDsLocked()
}

func (s *Session) seated() []*Player {
	out := make([]*Player, 0, len(s.Players))
	for _, p := range s.Players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seat < out[j].Seat })
	return out
}

func (s *Session) playerIDsLocked() []string {
	seated := s.seated()
	ids := make([]string, len(seated))
	for i, p := range seated {
		ids[i] = p.ID
	}
	return ids
}

// Start transitions the session from waiting to playing and lets the AI
// make any opening moves.
func (s *Session) Start(aiSteps int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status != StatusWaiting {
		return ErrNotWaiting
	}
	info := s.game.Info()
	if len(s.Players) < info.MinPlayers {
		return fmt.Errorf("%w: need %d, have %d", ErrNotEnough, info.MinPlayers, len(s.Players))
	}
	s.newMatchLocked(aiSteps)
	return nil
}

// Restart begins a new match with the same players once the current one
// has finished.
func (s *Session) Restart(aiSteps int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Status != StatusFinished {
		return ErrNotFinished
	}
	s.newMatchLocked(aiSteps)
	return nil
}

func (s *Session) newMatchLocked(aiSteps int) {
	seated := s.seated()
	players := make([]game.Player, len(seated))
	for i, p := range seated {
		players[i] = game.Player{ID: p.ID, Username: p.Username}
	}
	s.State = s.game.New(game.MatchConfig{
		Players:    players,
		Difficulty: s.Difficulty,
		Rand:       s.rng,
	})
	s.Status = StatusPlaying
	s.runAILocked(aiSteps)
}

// Move applies a player's action and then any AI replies, up to aiSteps
// of them. It reports whether the move finished the match.
func (s *Session) Move(playerID string, a game.Action, aiSteps int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State == nil || s.Status == StatusWaiting {
		return false, ErrNotStarted
	}
	if _, ok := s.Players[playerID]; !ok || playerID == game.AIPlayerID {
		return false, ErrNotPlayer
	}
	wasOver := s.State.Over()
	a.At = s.now()
	t := s.registry.ApplyMove(s.GameType, s.State, a, playerID)
	if !t.Accepted {
		return false, ErrRejected
	}
	s.State = t.State
	if t.AIToMove {
		s.runAILocked(aiSteps)
	}
	if s.State.Over() {
		s.Status = StatusFinished
	}
	return !wasOver && s.State.Over(), nil
}

// runAILocked lets the built-in opponent move while it is due.
func (s *Session) runAILocked(limit int) {
	for i := 0; i < limit && game.AwaitingAI(s.State); i++ {
		a, ok := s.registry.AIMove(s.GameType, s.State, s.Difficulty, s.rng)
		if !ok {
			return
		}
		a.At = s.now()
		t := s.registry.ApplyMove(s.GameType, s.State, a, game.AIPlayerID)
		if !t.Accepted {
			return
		}
		s.State = t.State
	}
	if s.State.Over() {
		s.Status = StatusFinished
	}
}

// Broadcast sends every connected player the message render builds for
// them. A nil message is skipped.
func (s *Session) Broadcast(render func(playerID string) []byte) {
	msgs := make(map[string][]byte)
	for _, id := range s.PlayerIDs() {
		if id == game.AIPlayerID {
			continue
		}
		if msg := render(id); msg != nil {
			msgs[id] = msg
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, msg := range msgs {
		p, ok := s.Players[id]
		if !ok || p.Send == nil {
			continue
		}
		select {
		case p.Send <- msg:
		default:
			// drop message if buffer full
		}
	}
}

// Deliver queues msg on send if send is still playerID's connection. It
// reports false when the player has left or the buffer is full.
func (s *Session) Deliver(playerID string, send chan []byte, msg []byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.Players[playerID]
	if !ok || p.Send != send {
		return false
	}
	select {
	case send <- msg:
		return true
	default:
		return false
	}
}

// GetPlayer returns a player, or nil if not found.
func (s *Session) GetPlayer(playerID string) *Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Players[playerID]
}

// Info returns session info for the API.
type Info struct {
	Code       string          `json:"code"`
	GameType   string          `json:"gameType"`
	Status     Status          `json:"status"`
	Players    []string        `json:"players"`
	HostID     string          `json:"hostId"`
	AI         bool            `json:"ai"`
	Difficulty game.Difficulty `json:"difficulty"`
}

func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.infoLocked()
}

func (s *Session) infoLocked() Info {
	return Info{
		Code:       s.Code,
		GameType:   s.GameType,
		Status:     s.Status,
		Players:    s.playerIDsLocked(),
		HostID:     s.HostID,
		AI:         s.AI,
		Difficulty: s.Difficulty,
	}
}

// View is a consistent snapshot of a session as one player sees it.
type View struct {
	Info     Info                `json:"sessionInfo"`
	State    any                 `json:"state,omitempty"`
	Awaiting []string            `json:"awaiting,omitempty"`
	Results  []game.PlayerResult `json:"results,omitempty"`
}

// View returns the room as playerID may see it. Hidden parts of the match
// are masked; an empty id gets the spectator view.
func (s *Session) View(playerID string) View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := View{Info: s.infoLocked()}
	if s.State != nil && s.Status != StatusWaiting {
		v.State = game.ViewFor(s.State, playerID)
		v.Awaiting = s.State.Awaiting()
		v.Results = game.Results(s.State, v.Info.Players)
	}
	return v
}
