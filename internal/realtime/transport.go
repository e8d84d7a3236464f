package realtime

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/atelier-hq/atelier-backend/internal/engine"
	"github.com/atelier-hq/atelier-backend/internal/session"
)

// Scope names the room namespace a transport serves. Lobby connections see
// roster updates; game connections see authoritative state and may submit
// actions.
type Scope string

const (
	ScopeLobby Scope = "lobby"
	ScopeGame  Scope = "game"
)

// RoomTransport is the capability the fan-out loop needs from a delivery
// mechanism. Frames are pre-encoded once and handed to every transport
// serving the room.
type RoomTransport interface {
	Name() string
	Broadcast(roomID string, frame []byte)
	RoomIDs() []string
	Connections() int
}

// GameDirectory is the slice of the session manager the transports use for
// admission checks, initial state and action submission.
type GameDirectory interface {
	IsPlayerInGame(gameID, playerID string) bool
	FetchLobby(gameID string) (session.LobbySnapshot, error)
	FetchState(gameID string) (*engine.GameState, error)
	ApplyAction(gameID string, action engine.Action, requestedBy string) (*engine.GameState, error)
}

const sendBuffer = 16

var (
	connEntropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	connEntropyMu sync.Mutex
)

func newConnID() string {
	connEntropyMu.Lock()
	defer connEntropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), connEntropy).String()
}
