package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atelier-hq/atelier-backend/internal/engine"
)

// PlayerRecord is the membership row handed to the store after a mutation.
type PlayerRecord struct {
	ID          string
	DisplayName string
	Order       int
	Connected   bool
}

// Store is the best-effort persistence sink. Calls run off the game path;
// failures are logged and never surface to gameplay.
type Store interface {
	SaveGameMeta(ctx context.Context, gameID, hostID string, phase engine.Phase) error
	SavePlayer(ctx context.Context, gameID string, player PlayerRecord) error
	SaveSnapshot(ctx context.Context, state *engine.GameState) error
}

const persistTimeout = 5 * time.Second

// Manager is the registry of game sessions and the only entry point the route
// and socket layers use. It owns id generation, cross-cutting authorization,
// action timestamping, event emission and fire-and-forget persistence.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	nextSeq  int

	bus     *Bus
	store   Store         // nil disables persistence
	catalog CanvasCatalog // nil requires explicit decks on start
	logger  *zap.Logger
}

func NewManager(bus *Bus, store Store, catalog CanvasCatalog, logger *zap.Logger) *Manager {
	return &Manager{
		sessions: map[string]*Session{},
		nextSeq:  1,
		bus:      bus,
		store:    store,
		catalog:  catalog,
		logger:   logger,
	}
}

func (m *Manager) CreateSession(host PlayerProfile) LobbySnapshot {
	m.mu.Lock()
	gameID := fmt.Sprintf("game-%d", m.nextSeq)
	m.nextSeq++
	s := NewSession(gameID, host)
	m.sessions[gameID] = s
	m.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	m.persistGame(s)
	m.persistPlayer(s, host.ID)
	m.bus.Publish(LobbyUpdated{GameID: gameID, Snapshot: snap, Reason: ReasonCreated, PlayerID: host.ID})
	return snap
}

func (m *Manager) JoinGame(gameID string, profile PlayerProfile) (LobbySnapshot, error) {
	s, err := m.session(gameID)
	if err != nil {
		return LobbySnapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase != engine.PhaseLobby {
		return LobbySnapshot{}, ErrAlreadyStarted
	}
	snap, reconnect, err := s.addOrReconnect(profile)
	if err != nil {
		return LobbySnapshot{}, err
	}
	m.persistGame(s)
	m.persistPlayer(s, profile.ID)
	reason := ReasonJoin
	if reconnect {
		reason = ReasonReconnect
	}
	m.bus.Publish(LobbyUpdated{GameID: gameID, Snapshot: snap, Reason: reason, PlayerID: profile.ID})
	return snap, nil
}

func (m *Manager) LeaveGame(gameID, playerID string) (LobbySnapshot, error) {
	s, err := m.session(gameID)
	if err != nil {
		return LobbySnapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := s.markDisconnected(playerID)
	if err != nil {
		return LobbySnapshot{}, err
	}
	m.persistGame(s)
	m.persistPlayer(s, playerID)
	m.bus.Publish(LobbyUpdated{GameID: gameID, Snapshot: snap, Reason: ReasonLeave, PlayerID: playerID})
	return snap, nil
}

func (m *Manager) FetchLobby(gameID string) (LobbySnapshot, error) {
	s, err := m.session(gameID)
	if err != nil {
		return LobbySnapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

func (m *Manager) FetchState(gameID string) (*engine.GameState, error) {
	s, err := m.session(gameID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentState(), nil
}

func (m *Manager) IsPlayerInGame(gameID, playerID string) bool {
	s, err := m.session(gameID)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasPlayer(playerID)
}

func (m *Manager) HasSession(gameID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[gameID]
	return ok
}

func (m *Manager) StartGame(ctx context.Context, gameID string, payload StartPayload, requestedBy string) (*engine.GameState, error) {
	s, err := m.session(gameID)
	if err != nil {
		return nil, err
	}

	deck, err := m.resolveCanvasDeck(ctx, gameID, payload)
	if err != nil {
		return nil, err
	}
	payload.CanvasDeck = deck

	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.start(payload, requestedBy)
	if err != nil {
		return nil, err
	}
	m.persistGame(s)
	m.persistSnapshot(s, state)
	for _, p := range state.Players {
		m.persistPlayer(s, p.ID)
	}
	m.bus.Publish(LobbyUpdated{GameID: gameID, Snapshot: s.snapshot(), Reason: ReasonStart, PlayerID: requestedBy})
	m.bus.Publish(GameStarted{GameID: gameID, State: state})
	m.bus.Publish(GameStateUpdated{GameID: gameID, State: state})
	return state, nil
}

// ApplyAction is the single gameplay entry point. The embedded player id must
// match the requester, and the actor must hold the turn; both checks live
// here because they are authorization, not game legality.
func (m *Manager) ApplyAction(gameID string, action engine.Action, requestedBy string) (*engine.GameState, error) {
	s, err := m.session(gameID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if action.HasActor() {
		if action.PlayerID != requestedBy {
			return nil, ErrForbiddenActor
		}
		if !engine.IsPlayersTurn(s.state, action.PlayerID) {
			return nil, ErrNotYourTurn
		}
	}

	action.Timestamp = nowStamp()
	state, err := s.applyAction(action)
	if err != nil {
		return nil, err
	}

	m.persistGame(s)
	m.persistSnapshot(s, state)
	var summary *ActionSummary
	if action.HasActor() {
		summary = &ActionSummary{PlayerID: action.PlayerID, ActionType: string(action.Type), Timestamp: action.Timestamp}
	}
	m.bus.Publish(GameStateUpdated{GameID: gameID, State: state, Action: summary})
	return state, nil
}

func (m *Manager) DestroySession(gameID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, gameID)
}

func (m *Manager) session(gameID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return s, nil
}

// Persistence below is fire-and-forget: metadata writes are never on the
// critical path of a gameplay action.

func (m *Manager) persistGame(s *Session) {
	if m.store == nil {
		return
	}
	gameID, hostID, phase := s.gameID, s.hostID, s.state.Phase
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := m.store.SaveGameMeta(ctx, gameID, hostID, phase); err != nil {
			m.logger.Warn("persist game metadata failed", zap.String("game_id", gameID), zap.Error(err))
		}
	}()
}

func (m *Manager) persistPlayer(s *Session, playerID string) {
	if m.store == nil {
		return
	}
	player := engine.FindPlayer(&s.state, playerID)
	if player == nil {
		return
	}
	gameID := s.gameID
	record := PlayerRecord{ID: player.ID, DisplayName: player.DisplayName, Order: player.Order, Connected: player.Connected}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := m.store.SavePlayer(ctx, gameID, record); err != nil {
			m.logger.Warn("persist player membership failed",
				zap.String("game_id", gameID), zap.String("player_id", record.ID), zap.Error(err))
		}
	}()
}

func (m *Manager) persistSnapshot(s *Session, state *engine.GameState) {
	if m.store == nil {
		return
	}
	gameID := s.gameID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := m.store.SaveSnapshot(ctx, state); err != nil {
			m.logger.Warn("persist state snapshot failed", zap.String("game_id", gameID), zap.Error(err))
		}
	}()
}
