package realtime

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atelier-hq/atelier-backend/internal/session"
)

// Fanout consumes session events and pushes encoded frames to every transport
// serving the matching room. A single goroutine does the consuming, so frames
// for one game leave in the order the manager produced them.
type Fanout struct {
	lobby  []RoomTransport
	game   []RoomTransport
	logger *zap.Logger

	mu              sync.Mutex
	lastBroadcastAt time.Time
}

func NewFanout(lobby, game []RoomTransport, logger *zap.Logger) *Fanout {
	return &Fanout{lobby: lobby, game: game, logger: logger}
}

func (f *Fanout) Run(ctx context.Context, events <-chan session.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			f.dispatch(ev)
		}
	}
}

func (f *Fanout) dispatch(ev session.Event) {
	switch e := ev.(type) {
	case session.LobbyUpdated:
		f.broadcast(f.lobby, e.GameID, encodeFrame(MsgLobbyState, e.Snapshot, string(e.Reason)))
	case session.GameStarted:
		// Lobby clients get the start signal so they can switch over to the
		// game room; the first GAME_STATE_UPDATED follows on the game side.
		// The payload is the game state itself, not a wrapper.
		f.broadcast(f.lobby, e.GameID, encodeFrame(MsgGameStarted, e.State, ""))
	case session.GameStateUpdated:
		f.broadcast(f.game, e.GameID, encodeFrame(MsgGameStateUpdated, statePayload{State: e.State, LastAction: e.Action}, ""))
	default:
		f.logger.Warn("unhandled session event", zap.Any("event", ev))
	}
}

func (f *Fanout) broadcast(transports []RoomTransport, roomID string, frame []byte) {
	for _, t := range transports {
		t.Broadcast(roomID, frame)
	}
	f.mu.Lock()
	f.lastBroadcastAt = time.Now().UTC()
	f.mu.Unlock()
}

func (f *Fanout) LastBroadcastAt() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastBroadcastAt
}
