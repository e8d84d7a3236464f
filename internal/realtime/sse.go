package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/atelier-hq/atelier-backend/internal/engine"
	"github.com/atelier-hq/atelier-backend/internal/session"
)

type sseConn struct {
	id     string
	events chan []byte
}

// SSETransport delivers the same frames as the websocket transport over
// server-sent events, for clients behind proxies that will not upgrade.
// Streaming is one-way; inbound actions arrive over a plain POST handled by
// ActionHandler.
type SSETransport struct {
	scope  Scope
	dir    GameDirectory
	reg    *registry[*sseConn]
	logger *zap.Logger
}

func NewSSETransport(scope Scope, dir GameDirectory, logger *zap.Logger) *SSETransport {
	return &SSETransport{
		scope:  scope,
		dir:    dir,
		reg:    newRegistry[*sseConn](),
		logger: logger,
	}
}

func (t *SSETransport) Name() string { return "sse" }

func (t *SSETransport) Broadcast(roomID string, frame []byte) {
	for _, c := range t.reg.handles(roomID) {
		select {
		case c.events <- frame:
		default:
			t.logger.Warn("dropping frame for slow sse client",
				zap.String("scope", string(t.scope)),
				zap.String("room_id", roomID),
				zap.String("conn_id", c.id))
		}
	}
}

func (t *SSETransport) RoomIDs() []string { return t.reg.roomIDs() }
func (t *SSETransport) Connections() int  { return t.reg.connections() }

func writeSSEFrame(w http.ResponseWriter, flusher http.Flusher, frame []byte) {
	fmt.Fprintf(w, "data: %s\n\n", frame)
	flusher.Flush()
}

func (t *SSETransport) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		gameID := r.URL.Query().Get("gameId")
		playerID := r.URL.Query().Get("playerId")
		if gameID == "" || playerID == "" {
			http.Error(w, "missing gameId or playerId", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		if !t.dir.IsPlayerInGame(gameID, playerID) {
			writeSSEFrame(w, flusher, errorFrame("player is not part of this game"))
			return
		}

		// Register before fetching the initial state so an event published in
		// between queues on the connection instead of being missed.
		c := &sseConn{id: newConnID(), events: make(chan []byte, sendBuffer)}
		t.reg.add(gameID, c)
		defer t.reg.remove(c)

		frame, err := t.initialFrame(gameID)
		if err != nil {
			writeSSEFrame(w, flusher, errorFrame(err.Error()))
			return
		}
		writeSSEFrame(w, flusher, frame)

		for {
			select {
			case <-r.Context().Done():
				return
			case frame := <-c.events:
				writeSSEFrame(w, flusher, frame)
			}
		}
	}
}

func (t *SSETransport) initialFrame(gameID string) ([]byte, error) {
	if t.scope == ScopeLobby {
		snap, err := t.dir.FetchLobby(gameID)
		if err != nil {
			return nil, err
		}
		return encodeFrame(MsgLobbyState, snap, ""), nil
	}
	state, err := t.dir.FetchState(gameID)
	if err != nil {
		return nil, err
	}
	return encodeFrame(MsgGameStateUpdated, statePayload{State: state}, ""), nil
}

type sseActionRequest struct {
	GameID   string        `json:"gameId"`
	PlayerID string        `json:"playerId"`
	Action   engine.Action `json:"action"`
}

// ActionHandler is the inbound half of the SSE transport: an action POST that
// runs through the same authorization path as a socket frame. The accepted
// action reaches the room through the fan-out loop; the response carries the
// resulting state for the caller.
func (t *SSETransport) ActionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sseActionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "malformed request body")
			return
		}
		if req.GameID == "" || req.PlayerID == "" {
			respondError(w, http.StatusBadRequest, "missing gameId or playerId")
			return
		}
		if !t.dir.IsPlayerInGame(req.GameID, req.PlayerID) {
			respondError(w, http.StatusForbidden, "player is not part of this game")
			return
		}

		action := req.Action
		// Same intent restriction as the socket path: actorless lifecycle
		// actions are not accepted from clients.
		if !action.HasActor() {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("unhandled action intent: %q", action.Type))
			return
		}
		action.PlayerID = req.PlayerID
		state, err := t.dir.ApplyAction(req.GameID, action, req.PlayerID)
		if err != nil {
			respondError(w, statusForError(err), err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(statePayload{State: state})
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorPayload{Message: message})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, session.ErrGameNotFound), errors.Is(err, session.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrForbiddenActor), errors.Is(err, session.ErrNotHost):
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}
