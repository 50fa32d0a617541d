package session

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"lobby/internal/game"
	"lobby/internal/storage"
)

// codeAlphabet leaves out characters that are easy to confuse (I, O, 0, 1).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 6

// DefaultAIStepLimit bounds the AI replies run after one human move.
const DefaultAIStepLimit = 64

// Options configure a new session.
type Options struct {
	AI         bool
	Difficulty game.Difficulty
}

// Manager manages all active sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	registry *game.Registry
	store    *storage.Store
	log      zerolog.Logger

	// AIStepLimit bounds the AI replies run after one human move.
	AIStepLimit int
}

// NewManager creates a session manager.
func NewManager(registry *game.Registry, store *storage.Store, log zerolog.Logger) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		registry:    registry,
		store:       store,
		log:         log.With().Str("component", "session").Logger(),
		AIStepLimit: DefaultAIStepLimit,
	}
}

// Create makes a new session and persists it. An AI session seats the
// built-in opponent right away.
func (m *Manager) Create(gameType string, opts Options) (*Session, error) {
	if _, ok := m.registry.Get(gameType); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, gameType)
	}
	difficulty := opts.Difficulty
	if difficulty == "" {
		difficulty = game.Medium
	}

	code, err := m.uniqueCode()
	if err != nil {
		return nil, err
	}
	if err := m.store.CreateSession(code, gameType, opts.AI, string(difficulty)); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	s, err := NewSession(code, gameType, m.registry)
	if err != nil {
		return nil, err
	}
	s.Difficulty = difficulty
	if opts.AI {
		s.seatAI()
		if err := m.savePlayers(s); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	m.sessions[code] = s
	m.mu.Unlock()
	m.log.Info().Str("code", code).Str("game", gameType).Bool("ai", opts.AI).Msg("session created")
	return s, nil
}

func (m *Manager) uniqueCode() (string, error) {
	for i := 0; i < 10; i++ {
		code, err := generateCode()
		if err != nil {
			return "", err
		}
		if _, ok := m.Get(code); ok {
			continue
		}
		if _, err := m.store.GetSession(code); err == nil {
			continue
		}
		return code, nil
	}
	return "", errors.New("could not allocate a session code")
}

// Get returns a session by code.
func (m *Manager) Get(code string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[code]
	return s, ok
}

func (m *Manager) lookup(code string) (*Session, error) {
	s, ok := m.Get(code)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	return s, nil
}

// List returns info for all active sessions.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	infos := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		infos = append(infos, s.Info())
	}
	return infos
}

// Join seats a player and persists the roster.
func (m *Manager) Join(code, playerID, username string) (*Session, error) {
	s, err := m.lookup(code)
	if err != nil {
		return nil, err
	}
	if err := s.AddPlayer(playerID, username); err != nil {
		return nil, err
	}
	if err := m.savePlayers(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins the match of a waiting session.
func (m *Manager) Start(code string) (*Session, error) {
	s, err := m.lookup(code)
	if err != nil {
		return nil, err
	}
	if err := s.Start(m.AIStepLimit); err != nil {
		return nil, err
	}
	return s, m.afterChange(s, s.Info().Status == StatusFinished)
}

// Restart begins a fresh match in a finished session.
func (m *Manager) Restart(code string) (*Session, error) {
	s, err := m.lookup(code)
	if err != nil {
		return nil, err
	}
	if err := s.Restart(m.AIStepLimit); err != nil {
		return nil, err
	}
	return s, m.afterChange(s, s.Info().Status == StatusFinished)
}

// Move applies a player's action, lets the AI answer and persists the
// result. Rejected moves return ErrRejected.
func (m *Manager) Move(code, playerID string, a game.Action) (*Session, error) {
	s, err := m.lookup(code)
	if err != nil {
		return nil, err
	}
	finished, err := s.Move(playerID, a, m.AIStepLimit)
	if err != nil {
		return s, err
	}
	return s, m.afterChange(s, finished)
}

func (m *Manager) afterChange(s *Session, finished bool) error {
	if err := m.SaveMatchState(s); err != nil {
		return fmt.Errorf("save match state: %w", err)
	}
	if finished {
		if err := m.recordResults(s); err != nil {
			return fmt.Errorf("record results: %w", err)
		}
	}
	return nil
}

// recordResults stores one row per human player of a finished match.
func (m *Manager) recordResults(s *Session) error {
	s.mu.RLock()
	state := s.State
	ids := s.playerIDsLocked()
	s.mu.RUnlock()
	if state == nil || !state.Over() {
		return nil
	}
	out := state.Outcome()
	for _, id := range ids {
		if id == game.AIPlayerID {
			continue
		}
		result := storage.Loss
		switch {
		case out.IsDraw || out.Winner == "":
			result = storage.Draw
		case out.Winner == id:
			result = storage.Win
		}
		if _, err := m.store.RecordResult(s.Code, s.GameType, id, result); err != nil {
			return err
		}
	}
	m.log.Info().Str("code", s.Code).Str("winner", out.Winner).Bool("draw", out.IsDraw).Msg("match finished")
	return nil
}

// History returns a player's most recent results and record. An empty
// gameType covers every game.
func (m *Manager) History(playerID, gameType string, limit int) ([]storage.ResultRow, storage.Record, error) {
	rows, err := m.store.History(playerID, gameType, limit)
	if err != nil {
		return nil, storage.Record{}, err
	}
	rec, err := m.store.Record(playerID, gameType)
	if err != nil {
		return nil, storage.Record{}, err
	}
	return rows, rec, nil
}

func (m *Manager) savePlayers(s *Session) error {
	s.mu.RLock()
	seated := s.seated()
	rows := make([]storage.PlayerRow, len(seated))
	for i, p := range seated {
		rows[i] = storage.PlayerRow{PlayerID: p.ID, Username: p.Username, Seat: p.Seat}
	}
	s.mu.RUnlock()
	if err := m.store.SavePlayers(s.Code, rows); err != nil {
		return fmt.Errorf("persist players: %w", err)
	}
	return nil
}

// SaveMatchState persists the current match state for a session.
func (m *Manager) SaveMatchState(s *Session) error {
	s.mu.RLock()
	state := s.State
	status := s.Status
	s.mu.RUnlock()

	if err := m.store.UpdateSessionStatus(s.Code, string(status)); err != nil {
		return err
	}
	if state == nil {
		return nil
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal match state: %w", err)
	}
	return m.store.SaveMatchState(s.Code, string(data))
}

// Restore loads unfinished sessions from the database on startup.
func (m *Manager) Restore() error {
	rows, err := m.store.ListSessions("")
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	for _, row := range rows {
		if row.Status == string(StatusFinished) {
			continue
		}
		logger := m.log.With().Str("code", row.Code).Logger()
		s, err := NewSession(row.Code, row.GameType, m.registry)
		if err != nil {
			logger.Warn().Err(err).Msg("skipping session")
			continue
		}
		s.Status = Status(row.Status)
		s.AI = row.AI
		s.Difficulty = game.ParseDifficulty(row.Difficulty)
		s.CreatedAt = row.CreatedAt

		players, err := m.store.Players(row.Code)
		if err != nil {
			logger.Warn().Err(err).Msg("skipping session: no players")
			continue
		}
		for _, p := range players {
			player := &Player{ID: p.PlayerID, Username: p.Username, Seat: p.Seat}
			if p.PlayerID != game.AIPlayerID {
				player.Send = make(chan []byte, 64)
				if s.HostID == "" {
					s.HostID = p.PlayerID
				}
			}
			s.Players[p.PlayerID] = player
		}

		if s.Status == StatusPlaying {
			stateJSON, err := m.store.GetMatchState(row.Code)
			if err != nil {
				logger.Warn().Err(err).Msg("skipping session: no match state")
				continue
			}
			state, err := m.registry.Decode(row.GameType, []byte(stateJSON))
			if err != nil {
				logger.Warn().Err(err).Msg("skipping session: bad match state")
				continue
			}
			s.State = state
		}
		m.mu.Lock()
		m.sessions[row.Code] = s
		m.mu.Unlock()
	}
	return nil
}

// Leave frees playerID's seat. A match in progress is abandoned without
// results. It reports whether the room was removed because no human is
// left in it.
func (m *Manager) Leave(code, playerID string) (*Session, bool, error) {
	s, err := m.lookup(code)
	if err != nil {
		return nil, false, err
	}
	humans, err := s.RemovePlayer(playerID)
	if err != nil {
		return s, false, err
	}
	m.log.Info().Str("code", code).Str("player", playerID).Int("remaining", humans).Msg("player left")
	if humans == 0 {
		m.Remove(code)
		return s, true, nil
	}
	if err := m.savePlayers(s); err != nil {
		return s, false, err
	}
	if err := m.store.UpdateSessionStatus(code, string(StatusWaiting)); err != nil {
		return s, false, fmt.Errorf("persist session: %w", err)
	}
	return s, false, nil
}

// Remove deletes a session from memory and storage.
func (m *Manager) Remove(code string) {
	m.mu.Lock()
	delete(m.sessions, code)
	m.mu.Unlock()
	if err := m.store.DeleteSession(code); err != nil {
		m.log.Error().Err(err).Str("code", code).Msg("delete session")
	}
}

// CleanupLoop removes stale sessions periodically until ctx is done.
func (m *Manager) CleanupLoop(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.cleanup(maxAge)
		}
	}
}

// cleanup drops finished sessions older than maxAge and sessions nobody
// has joined.
func (m *Manager) cleanup(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for code, s := range m.sessions {
		s.mu.RLock()
		humans := 0
		for id := range s.Players {
			if id != game.AIPlayerID {
				humans++
			}
		}
		finished := s.Status == StatusFinished
		age := now.Sub(s.CreatedAt)
		s.mu.RUnlock()

		if humans == 0 || (finished && age > maxAge) {
			m.log.Info().Str("code", code).Msg("cleaning up session")
			if err := m.store.DeleteSession(code); err != nil {
				m.log.Error().Err(err).Str("code", code).Msg("delete session")
			}
			delete(m.sessions, code)
		}
	}
}

func generateCode() (string, error) {
	b := make([]byte, codeLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b), nil
}
