package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"

	"lobby/internal/game"
	"lobby/internal/session"
)

// WSMessage is the JSON envelope for WebSocket messages.
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinPayload struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username,omitempty"`
}

type actionPayload struct {
	Action game.Action `json:"action"`
}

// statePayload is what one client sees of a room after every change.
type statePayload struct {
	SessionInfo session.Info        `json:"sessionInfo"`
	State       any                 `json:"state,omitempty"`
	Awaiting    []string            `json:"awaiting"`
	Results     []game.PlayerResult `json:"results,omitempty"`
}

func newStatePayload(v session.View) statePayload {
	sp := statePayload{SessionInfo: v.Info, State: v.State, Awaiting: v.Awaiting, Results: v.Results}
	if sp.Awaiting == nil {
		sp.Awaiting = []string{}
	}
	return sp
}

type errorPayload struct {
	Message string `json:"message"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	sess, ok := s.manager.Get(code)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // allow any origin for dev
	})
	if err != nil {
		s.log.Warn().Err(err).Str("code", code).Msg("websocket accept")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// First message must be a join
	_, data, err := conn.Read(ctx)
	if err != nil {
		return
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "join" {
		sendWSError(ctx, conn, "first message must be a join")
		return
	}
	var join joinPayload
	if err := json.Unmarshal(msg.Payload, &join); err != nil || join.PlayerID == "" || join.PlayerID == game.AIPlayerID {
		sendWSError(ctx, conn, "invalid join payload")
		return
	}

	playerID := join.PlayerID
	send := make(chan []byte, 64)

	// Try to reconnect existing player, or add new one
	if !sess.ConnectPlayer(playerID, send) {
		if _, err := s.manager.Join(code, playerID, join.Username); err != nil {
			sendWSError(ctx, conn, err.Error())
			return
		}
		sess.ConnectPlayer(playerID, send)
	}
	logger := s.log.With().Str("code", code).Str("player", playerID).Logger()
	logger.Debug().Msg("player connected")

	// Notify all players about the roster change
	s.broadcastState(sess)

	// Writer goroutine: send messages from the channel to the websocket
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-send:
				if !ok {
					cancel()
					return
				}
				if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	// Reader loop: handle incoming messages
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.reply(sess, playerID, send, "error", errorPayload{Message: "invalid message"})
			continue
		}
		if !s.handleMessage(sess, playerID, send, msg) {
			break
		}
	}

	// Player disconnected; the seat stays so they can reconnect
	logger.Debug().Msg("player disconnected")
}

// handleMessage runs one client command. It returns false once the player
// has left the room.
func (s *Server) handleMessage(sess *session.Session, playerID string, send chan []byte, msg WSMessage) bool {
	switch msg.Type {
	case "action":
		var ap actionPayload
		if err := json.Unmarshal(msg.Payload, &ap); err != nil {
			s.reply(sess, playerID, send, "error", errorPayload{Message: "invalid action payload"})
			return true
		}
		_, err := s.manager.Move(sess.Code, playerID, ap.Action)
		if !s.reportWS(sess, playerID, send, err) {
			return true
		}
		s.broadcastState(sess)

	case "start", "restart":
		if sess.Info().HostID != playerID {
			s.reply(sess, playerID, send, "error", errorPayload{Message: "only the host can " + msg.Type})
			return true
		}
		var err error
		if msg.Type == "start" {
			_, err = s.manager.Start(sess.Code)
		} else {
			_, err = s.manager.Restart(sess.Code)
		}
		if !s.reportWS(sess, playerID, send, err) {
			return true
		}
		s.broadcastState(sess)

	case "leave":
		_, removed, err := s.manager.Leave(sess.Code, playerID)
		if removed || errors.Is(err, session.ErrNotPlayer) {
			return false
		}
		if err != nil {
			s.log.Error().Err(err).Str("code", sess.Code).Msg("persist session")
		}
		s.broadcastState(sess)
		return false

	default:
		s.reply(sess, playerID, send, "error", errorPayload{Message: "unknown message type: " + msg.Type})
	}
	return true
}

// reportWS sends err to the player and reports whether the room changed
// and should be broadcast.
func (s *Server) reportWS(sess *session.Session, playerID string, send chan []byte, err error) bool {
	if err == nil {
		return true
	}
	s.reply(sess, playerID, send, "error", errorPayload{Message: err.Error()})
	if statusFor(err) == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("code", sess.Code).Msg("persist session")
		return true
	}
	return false
}

// reply sends a message on this connection only.
func (s *Server) reply(sess *session.Session, playerID string, send chan []byte, msgType string, payload any) {
	msg, err := encodeWS(msgType, payload)
	if err != nil {
		return
	}
	sess.Deliver(playerID, send, msg)
}

// broadcastState sends every connected player their own view of the room.
func (s *Server) broadcastState(sess *session.Session) {
	sess.Broadcast(func(playerID string) []byte {
		msg, err := encodeWS("state", newStatePayload(sess.View(playerID)))
		if err != nil {
			s.log.Error().Err(err).Str("code", sess.Code).Msg("encode state")
			return nil
		}
		return msg
	})
}

func encodeWS(msgType string, payload any) ([]byte, error) {
	p, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WSMessage{Type: msgType, Payload: p})
}

func sendWSError(ctx context.Context, conn *websocket.Conn, message string) {
	msg, err := encodeWS("error", errorPayload{Message: message})
	if err != nil {
		return
	}
	conn.Write(ctx, websocket.MessageText, msg)
}
