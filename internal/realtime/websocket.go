package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

const wsWriteTimeout = 3 * time.Second

type wsConn struct {
	id   string
	sock *websocket.Conn
	send chan []byte
}

// WebsocketTransport serves one room namespace over websockets. Each
// connection gets a buffered send channel drained by a writer goroutine; a
// client that cannot keep up loses frames rather than stalling the room. Every
// game frame is a full snapshot, so a dropped frame heals on the next one.
type WebsocketTransport struct {
	scope  Scope
	dir    GameDirectory
	reg    *registry[*wsConn]
	logger *zap.Logger
}

func NewWebsocketTransport(scope Scope, dir GameDirectory, logger *zap.Logger) *WebsocketTransport {
	return &WebsocketTransport{
		scope:  scope,
		dir:    dir,
		reg:    newRegistry[*wsConn](),
		logger: logger,
	}
}

func (t *WebsocketTransport) Name() string { return "websocket" }

func (t *WebsocketTransport) Broadcast(roomID string, frame []byte) {
	for _, c := range t.reg.handles(roomID) {
		select {
		case c.send <- frame:
		default:
			t.logger.Warn("dropping frame for slow websocket client",
				zap.String("scope", string(t.scope)),
				zap.String("room_id", roomID),
				zap.String("conn_id", c.id))
		}
	}
}

func (t *WebsocketTransport) RoomIDs() []string { return t.reg.roomIDs() }
func (t *WebsocketTransport) Connections() int  { return t.reg.connections() }

// trySend never blocks: the writer goroutine may already be gone when the
// socket is on its way down.
func (t *WebsocketTransport) trySend(c *wsConn, frame []byte) {
	select {
	case c.send <- frame:
	default:
	}
}

func (t *WebsocketTransport) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := r.URL.Query().Get("gameId")
		playerID := r.URL.Query().Get("playerId")
		if gameID == "" || playerID == "" {
			http.Error(w, "missing gameId or playerId", http.StatusBadRequest)
			return
		}

		sock, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}

		// Admission is checked after the upgrade so the client gets a typed
		// ERROR frame instead of a bare handshake failure. A rejected
		// connection is never registered to a room.
		if !t.dir.IsPlayerInGame(gameID, playerID) {
			wctx, cancel := context.WithTimeout(r.Context(), wsWriteTimeout)
			_ = sock.Write(wctx, websocket.MessageText, errorFrame("player is not part of this game"))
			cancel()
			_ = sock.Close(websocket.StatusPolicyViolation, "unauthorized")
			return
		}

		c := &wsConn{id: newConnID(), sock: sock, send: make(chan []byte, sendBuffer)}
		t.reg.add(gameID, c)
		defer func() {
			t.reg.remove(c)
			_ = sock.Close(websocket.StatusNormalClosure, "bye")
		}()

		go t.writeLoop(r.Context(), c)

		frame, err := t.initialFrame(gameID)
		if err != nil {
			t.trySend(c, errorFrame(err.Error()))
			return
		}
		t.trySend(c, frame)

		t.readLoop(r.Context(), gameID, playerID, c)
	}
}

func (t *WebsocketTransport) initialFrame(gameID string) ([]byte, error) {
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

func (t *WebsocketTransport) writeLoop(ctx context.Context, c *wsConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
			err := c.sock.Write(wctx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (t *WebsocketTransport) readLoop(ctx context.Context, gameID, playerID string, c *wsConn) {
	for {
		_, data, err := c.sock.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if ctx.Err() == nil {
					t.logger.Debug("websocket read ended",
						zap.String("game_id", gameID), zap.String("conn_id", c.id), zap.Error(err))
				}
			}
			return
		}

		// Lobby sockets are push-only.
		if t.scope != ScopeGame {
			continue
		}

		var cm clientMessage
		if err := json.Unmarshal(data, &cm); err != nil {
			t.trySend(c, errorFrame("bad json"))
			continue
		}
		if cm.Type != MsgGameAction {
			t.trySend(c, errorFrame("unknown message type"))
			continue
		}

		action, err := buildGameAction(cm.Payload, playerID)
		if err != nil {
			t.trySend(c, errorFrame(err.Error()))
			continue
		}
		if _, err := t.dir.ApplyAction(gameID, action, playerID); err != nil {
			// Rejections go back to the sender only; accepted actions reach
			// the room through the fan-out loop.
			t.trySend(c, errorFrame(err.Error()))
		}
	}
}
