package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SessionRow represents a session in the database.
type SessionRow struct {
	Code       string
	GameType   string
	Status     string // "waiting", "playing", "finished"
	AI         bool
	Difficulty string
	CreatedAt  time.Time
}

// PlayerRow is one seat of a session.
type PlayerRow struct {
	PlayerID string
	Username string
	Seat     int
}

// MatchStateRow represents serialized match state.
type MatchStateRow struct {
	SessionCode string
	StateJSON   string
	UpdatedAt   time.Time
}

// Outcome of a finished match from one player's point of view.
type Outcome string

const (
	Win  Outcome = "win"
	Loss Outcome = "loss"
	Draw Outcome = "draw"
)

// ResultRow is one player's result of a finished match.
type ResultRow struct {
	ID          string    `json:"id"`
	SessionCode string    `json:"sessionCode"`
	GameType    string    `json:"gameType"`
	PlayerID    string    `json:"playerId"`
	Result      Outcome   `json:"result"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Record aggregates a player's results.
type Record struct {
	PlayerID string `json:"playerId"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Draws    int    `json:"draws"`
}

func (r Record) Played() int { return r.Wins + r.Losses + r.Draws }

// Store handles SQLite persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if path == ":memory:" {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}
	// WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			code       TEXT PRIMARY KEY,
			game_type  TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'waiting',
			ai         INTEGER NOT NULL DEFAULT 0,
			difficulty TEXT NOT NULL DEFAULT 'medium',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS session_players (
			session_code TEXT NOT NULL REFERENCES sessions(code),
			player_id    TEXT NOT NULL,
			username     TEXT NOT NULL DEFAULT '',
			seat         INTEGER NOT NULL,
			PRIMARY KEY (session_code, player_id)
		);
		CREATE TABLE IF NOT EXISTS match_state (
			session_code TEXT PRIMARY KEY REFERENCES sessions(code),
			state_json   TEXT NOT NULL,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS results (
			id           TEXT PRIMARY KEY,
			session_code TEXT NOT NULL,
			game_type    TEXT NOT NULL,
			player_id    TEXT NOT NULL,
			result       TEXT NOT NULL CHECK (result IN ('win', 'loss', 'draw')),
			created_at   DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS results_player ON results(player_id);
	`)
	return err
}

// CreateSession inserts a new session.
func (s *Store) CreateSession(code, gameType string, ai bool, difficulty string) error {
	_, err := s.db.Exec(
		"INSERT INTO sessions (code, game_type, status, ai, difficulty) VALUES (?, ?, 'waiting', ?, ?)",
		code, gameType, ai, difficulty,
	)
	return err
}

const sessionColumns = "code, game_type, status, ai, difficulty, created_at"

func scanSession(row interface{ Scan(...any) error }) (*SessionRow, error) {
	var sr SessionRow
	if err := row.Scan(&sr.Code, &sr.GameType, &sr.Status, &sr.AI, &sr.Difficulty, &sr.CreatedAt); err != nil {
		return nil, err
	}
	return &sr, nil
}

// GetSession retrieves a session by code.
func (s *Store) GetSession(code string) (*SessionRow, error) {
	return scanSession(s.db.QueryRow("SELECT "+sessionColumns+" FROM sessions WHERE code = ?", code))
}

// UpdateSessionStatus changes a session's status.
func (s *Store) UpdateSessionStatus(code, status string) error {
	_, err := s.db.Exec("UPDATE sessions SET status = ? WHERE code = ?", status, code)
	return err
}

// ListSessions returns all sessions with the given status (or all if status is empty).
func (s *Store) ListSessions(status string) ([]SessionRow, error) {
	var rows *sql.Rows
	var err error
	if status == "" {
		rows, err = s.db.Query("SELECT " + sessionColumns + " FROM sessions ORDER BY created_at DESC")
	} else {
		rows, err = s.db.Query("SELECT "+sessionColumns+" FROM sessions WHERE status = ? ORDER BY created_at DESC", status)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []SessionRow
	for rows.Next() {
		sr, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *sr)
	}
	return result, rows.Err()
}

// SavePlayers replaces the seated players of a session.
func (s *Store) SavePlayers(code string, players []PlayerRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec("DELETE FROM session_players WHERE session_code = ?", code); err != nil {
		return err
	}
	for _, p := range players {
		if _, err := tx.Exec(
			"INSERT INTO session_players (session_code, player_id, username, seat) VALUES (?, ?, ?, ?)",
			code, p.PlayerID, p.Username, p.Seat,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Players returns the seated players of a session in seat order.
func (s *Store) Players(code string) ([]PlayerRow, error) {
	rows, err := s.db.Query(
		"SELECT player_id, username, seat FROM session_players WHERE session_code = ? ORDER BY seat", code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []PlayerRow
	for rows.Next() {
		var p PlayerRow
		if err := rows.Scan(&p.PlayerID, &p.Username, &p.Seat); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// SaveMatchState upserts match state JSON.
func (s *Store) SaveMatchState(sessionCode, stateJSON string) error {
	_, err := s.db.Exec(`
		INSERT INTO match_state (session_code, state_json, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(session_code) DO UPDATE SET state_json = excluded.state_json, updated_at = excluded.updated_at
	`, sessionCode, stateJSON)
	return err
}

// GetMatchState retrieves match state JSON.
func (s *Store) GetMatchState(sessionCode string) (string, error) {
	var stateJSON string
	err := s.db.QueryRow("SELECT state_json FROM match_state WHERE session_code = ?", sessionCode).Scan(&stateJSON)
	return stateJSON, err
}

// DeleteSession removes a session, its players and its match state.
// Results are kept.
func (s *Store) DeleteSession(code string) error {
	for _, q := range []string{
		"DELETE FROM match_state WHERE session_code = ?",
		"DELETE FROM session_players WHERE session_code = ?",
		"DELETE FROM sessions WHERE code = ?",
	} {
		if _, err := s.db.Exec(q, code); err != nil {
			return err
		}
	}
	return nil
}

// RecordResult stores one player's result and returns it with its id.
func (s *Store) RecordResult(sessionCode, gameType, playerID string, result Outcome) (ResultRow, error) {
	r := ResultRow{
		ID:          uuid.NewString(),
		SessionCode: sessionCode,
		GameType:    gameType,
		PlayerID:    playerID,
		Result:      result,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.db.Exec(
		"INSERT INTO results (id, session_code, game_type, player_id, result, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		r.ID, r.SessionCode, r.GameType, r.PlayerID, string(r.Result), r.CreatedAt,
	)
	if err != nil {
		return ResultRow{}, fmt.Errorf("insert result: %w", err)
	}
	return r, nil
}

// History returns a player's results, newest first. An empty gameType
// includes every game; a limit of zero or less returns everything.
func (s *Store) History(playerID, gameType string, limit int) ([]ResultRow, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT id, session_code, game_type, player_id, result, created_at
		FROM results WHERE player_id = ? AND (? = '' OR game_type = ?)
		ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, playerID, gameType, gameType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []ResultRow
	for rows.Next() {
		var r ResultRow
		var outcome string
		if err := rows.Scan(&r.ID, &r.SessionCode, &r.GameType, &r.PlayerID, &outcome, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Result = Outcome(outcome)
		result = append(result, r)
	}
	return result, rows.Err()
}

// Record counts a player's wins, losses and draws. An empty gameType
// counts every game.
func (s *Store) Record(playerID, gameType string) (Record, error) {
	rec := Record{PlayerID: playerID}
	rows, err := s.db.Query(`
		SELECT result, COUNT(*) FROM results
		WHERE player_id = ? AND (? = '' OR game_type = ?)
		GROUP BY result
	`, playerID, gameType, gameType)
	if err != nil {
		return rec, err
	}
	defer rows.Close()
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return rec, err
		}
		switch Outcome(outcome) {
		case Win:
			rec.Wins = n
		case Loss:
			rec.Losses = n
		case Draw:
			rec.Draws = n
		}
	}
	return rec, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
