package session

import (
	"sync"

	"go.uber.org/zap"

	"github.com/atelier-hq/atelier-backend/internal/engine"
)

type LobbyReason string

const (
	ReasonCreated   LobbyReason = "created"
	ReasonJoin      LobbyReason = "join"
	ReasonReconnect LobbyReason = "reconnect"
	ReasonLeave     LobbyReason = "leave"
	ReasonStart     LobbyReason = "start"
)

// Event is one of LobbyUpdated, GameStarted or GameStateUpdated.
type Event interface{ isEvent() }

type LobbyUpdated struct {
	GameID   string
	Snapshot LobbySnapshot
	Reason   LobbyReason
	PlayerID string
}

type GameStarted struct {
	GameID string
	State  *engine.GameState
}

// ActionSummary is the compact record attached to state updates, used by
// clients for activity logs.
type ActionSummary struct {
	PlayerID   string `json:"playerId"`
	ActionType string `json:"actionType"`
	Timestamp  string `json:"timestamp"`
}

type GameStateUpdated struct {
	GameID string
	State  *engine.GameState
	Action *ActionSummary
}

func (LobbyUpdated) isEvent()     {}
func (GameStarted) isEvent()      {}
func (GameStateUpdated) isEvent() {}

// Bus is a bounded broadcast channel between the manager (single writer) and
// its subscribers. Publish never blocks the game path: a subscriber that falls
// behind loses events and gets a warning in the log, the same policy the
// realtime layer applies to slow sockets.
type Bus struct {
	mu     sync.Mutex
	subs   []chan Event
	closed bool
	logger *zap.Logger
}

func NewBus(logger *zap.Logger) *Bus {
	return &Bus{logger: logger}
}

func (b *Bus) Subscribe(buffer int) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, buffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.Warn("event dropped for slow subscriber")
		}
	}
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
