package server

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"lobby/internal/game"
	"lobby/internal/session"
	"lobby/internal/storage"
)

// Options tune the HTTP surface.
type Options struct {
	// RequestTimeout bounds REST handlers. The websocket route is exempt.
	RequestTimeout time.Duration
	// WebFS, when set, is served at the root.
	WebFS fs.FS
}

// Server is the HTTP server.
type Server struct {
	r        *chi.Mux
	registry *game.Registry
	manager  *session.Manager
	log      zerolog.Logger
	opts     Options
}

// New creates a server with all routes.
func New(registry *game.Registry, manager *session.Manager, log zerolog.Logger, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	s := &Server{
		r:        chi.NewRouter(),
		registry: registry,
		manager:  manager,
		log:      log.With().Str("component", "server").Logger(),
		opts:     opts,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(s.requestLogger)
	s.r.Use(chimw.Recoverer)

	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	s.r.Route("/api", func(r chi.Router) {
		// long-lived, so outside the timeout group
		r.Get("/sessions/{code}/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(s.opts.RequestTimeout))
			r.Get("/games", s.handleListGames)
			r.Get("/sessions", s.handleListSessions)
			r.Post("/sessions", s.handleCreateSession)
			r.Get("/sessions/{code}", s.handleGetSession)
			r.Post("/sessions/{code}/join", s.handleJoinSession)
			r.Post("/sessions/{code}/start", s.handleStartSession)
			r.Post("/sessions/{code}/restart", s.handleRestartSession)
			r.Post("/sessions/{code}/moves", s.handleMove)
			r.Post("/sessions/{code}/leave", s.handleLeave)
			r.Get("/players/{id}/history", s.handleHistory)
		})
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	// Static files
	if s.opts.WebFS != nil {
		s.r.Handle("/*", http.FileServer(http.FS(s.opts.WebFS)))
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.r.ServeHTTP(w, r)
}

// requestLogger writes one zerolog line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("request")
	})
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.List())
}

type createSessionRequest struct {
	GameType   string `json:"gameType"`
	PlayerID   string `json:"playerId"`
	Username   string `json:"username"`
	AI         bool   `json:"ai"`
	Difficulty string `json:"difficulty"`
}

type createSessionResponse struct {
	Code string `json:"code"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.GameType = strings.TrimSpace(req.GameType)
	req.PlayerID = strings.TrimSpace(req.PlayerID)
	if req.GameType == "" || req.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "gameType and playerId required")
		return
	}
	if req.PlayerID == game.AIPlayerID {
		writeError(w, http.StatusBadRequest, "reserved player id")
		return
	}

	sess, err := s.manager.Create(req.GameType, session.Options{
		AI:         req.AI,
		Difficulty: game.ParseDifficulty(req.Difficulty),
	})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if _, err := s.manager.Join(sess.Code, req.PlayerID, req.Username); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, createSessionResponse{Code: sess.Code})
}

// handleGetSession returns the room as the ?playerId= player sees it, or
// the spectator view without one.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.manager.Get(chi.URLParam(r, "code"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, newStatePayload(sess.View(r.URL.Query().Get("playerId"))))
}

type joinRequest struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
}

func (s *Server) handleJoinSession(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.PlayerID) == "" {
		writeError(w, http.StatusBadRequest, "playerId required")
		return
	}
	if req.PlayerID == game.AIPlayerID {
		writeError(w, http.StatusBadRequest, "reserved player id")
		return
	}
	sess, err := s.manager.Join(chi.URLParam(r, "code"), strings.TrimSpace(req.PlayerID), req.Username)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	s.broadcastState(sess)
	writeJSON(w, http.StatusOK, newStatePayload(sess.View(strings.TrimSpace(req.PlayerID))))
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.manager.Start(chi.URLParam(r, "code"))
	if err != nil {
		s.respondAfterChange(w, sess, err)
		return
	}
	// Broadcast new state to all players
	s.broadcastState(sess)
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

func (s *Server) handleRestartSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.manager.Restart(chi.URLParam(r, "code"))
	if err != nil {
		s.respondAfterChange(w, sess, err)
		return
	}
	s.broadcastState(sess)
	writeJSON(w, http.StatusOK, map[string]string{"status": "restarted"})
}

type moveRequest struct {
	PlayerID string      `json:"playerId"`
	Action   game.Action `json:"action"`
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "playerId and action required")
		return
	}
	sess, err := s.manager.Move(chi.URLParam(r, "code"), req.PlayerID, req.Action)
	if err != nil {
		s.respondAfterChange(w, sess, err)
		return
	}
	s.broadcastState(sess)
	writeJSON(w, http.StatusOK, newStatePayload(sess.View(req.PlayerID)))
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "playerId required")
		return
	}
	sess, removed, err := s.manager.Leave(chi.URLParam(r, "code"), req.PlayerID)
	if err != nil {
		s.respondAfterChange(w, sess, err)
		return
	}
	if removed {
		writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
		return
	}
	s.broadcastState(sess)
	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

// respondAfterChange reports a failed command. Storage failures happen after
// the room changed, so the other players are still told about it.
func (s *Server) respondAfterChange(w http.ResponseWriter, sess *session.Session, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("persist session")
		if sess != nil {
			s.broadcastState(sess)
		}
	}
	writeError(w, status, err.Error())
}

type historyResponse struct {
	Record  storage.Record      `json:"record"`
	History []storage.ResultRow `json:"history"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	rows, rec, err := s.manager.History(chi.URLParam(r, "id"), r.URL.Query().Get("game"), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("load history")
		writeError(w, http.StatusInternalServerError, "could not load history")
		return
	}
	if rows == nil {
		rows = []storage.ResultRow{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Record: rec, History: rows})
}

// statusFor maps session errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrUnknownGame), errors.Is(err, session.ErrNotEnough):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotPlayer):
		return http.StatusForbidden
	case errors.Is(err, session.ErrRejected),
		errors.Is(err, session.ErrNotStarted),
		errors.Is(err, session.ErrNotWaiting),
		errors.Is(err, session.ErrNotFinished),
		errors.Is(err, session.ErrFull),
		errors.Is(err, session.ErrAlreadyJoined):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
