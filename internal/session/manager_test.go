package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atelier-hq/atelier-backend/internal/engine"
)

func testManager(t *testing.T) (*Manager, <-chan Event) {
	t.Helper()
	bus := NewBus(zap.NewNop())
	events := bus.Subscribe(32)
	return NewManager(bus, nil, nil, zap.NewNop()), events
}

func recvEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
		return nil
	}
}

func testDeck(n int) []engine.CanvasDefinition {
	deck := make([]engine.CanvasDefinition, n)
	for i := range deck {
		deck[i] = engine.CanvasDefinition{
			ID:    fmt.Sprintf("cv%d", i+1),
			Title: fmt.Sprintf("Canvas %d", i+1),
			Squares: []engine.CanvasSquare{
				{ID: "sq-a", AllowedColors: []engine.PaintColor{engine.ColorRed}},
			},
		}
	}
	return deck
}

func testBag(n int) []engine.PaintCube {
	bag := make([]engine.PaintCube, n)
	for i := range bag {
		bag[i] = engine.PaintCube{ID: fmt.Sprintf("cube%d", i+1), Color: engine.ColorRed}
	}
	return bag
}

func startedGame(t *testing.T, m *Manager) (gameID string) {
	t.Helper()
	snap := m.CreateSession(PlayerProfile{ID: "host", DisplayName: "Host"})
	_, err := m.JoinGame(snap.GameID, PlayerProfile{ID: "p2", DisplayName: "P2"})
	require.NoError(t, err)
	_, err = m.StartGame(context.Background(), snap.GameID, StartPayload{
		PaintBag:   testBag(6),
		CanvasDeck: testDeck(4),
	}, "host")
	require.NoError(t, err)
	return snap.GameID
}

func TestCreateSession_SequentialIDsAndEvent(t *testing.T) {
	m, events := testManager(t)

	first := m.CreateSession(PlayerProfile{ID: "host", DisplayName: "Host"})
	second := m.CreateSession(PlayerProfile{ID: "other", DisplayName: "Other"})

	assert.Equal(t, "game-1", first.GameID)
	assert.Equal(t, "game-2", second.GameID)
	assert.Equal(t, "host", first.HostID)
	assert.Equal(t, "/lobby/game-1", first.JoinLink)
	assert.Equal(t, engine.PhaseLobby, first.Phase)

	ev := recvEvent(t, events)
	lobbyEv, ok := ev.(LobbyUpdated)
	require.True(t, ok, "want LobbyUpdated, got %T", ev)
	assert.Equal(t, ReasonCreated, lobbyEv.Reason)
	assert.Equal(t, "game-1", lobbyEv.GameID)
}

func TestCreateSession_ConcurrentIDsAreDistinct(t *testing.T) {
	m, _ := testManager(t)

	const n = 20
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snap := m.CreateSession(PlayerProfile{ID: fmt.Sprintf("h%d", i), DisplayName: "H"})
			ids <- snap.GameID
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		require.False(t, seen[id], "duplicate game id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestJoinGame_ReconnectIsIdempotent(t *testing.T) {
	m, events := testManager(t)
	snap := m.CreateSession(PlayerProfile{ID: "host", DisplayName: "Host"})
	recvEvent(t, events) // created

	joined, err := m.JoinGame(snap.GameID, PlayerProfile{ID: "p2", DisplayName: "P2"})
	require.NoError(t, err)
	assert.Len(t, joined.Players, 2)
	ev := recvEvent(t, events).(LobbyUpdated)
	assert.Equal(t, ReasonJoin, ev.Reason)

	again, err := m.JoinGame(snap.GameID, PlayerProfile{ID: "p2", DisplayName: "P2"})
	require.NoError(t, err)
	assert.Len(t, again.Players, 2, "reconnect must not grow the roster")
	ev = recvEvent(t, events).(LobbyUpdated)
	assert.Equal(t, ReasonReconnect, ev.Reason)
}

func TestJoinGame_FullLobbyRejected(t *testing.T) {
	m, _ := testManager(t)
	snap := m.CreateSession(PlayerProfile{ID: "host", DisplayName: "Host"})

	for i := 2; i <= MaxPlayers; i++ {
		_, err := m.JoinGame(snap.GameID, PlayerProfile{ID: fmt.Sprintf("p%d", i), DisplayName: "P"})
		require.NoError(t, err)
	}
	_, err := m.JoinGame(snap.GameID, PlayerProfile{ID: "extra", DisplayName: "Extra"})
	assert.ErrorIs(t, err, ErrLobbyFull)
}

func TestJoinGame_UnknownGame(t *testing.T) {
	m, _ := testManager(t)
	_, err := m.JoinGame("game-404", PlayerProfile{ID: "p", DisplayName: "P"})
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestLeaveGame_MarksDisconnectedOnly(t *testing.T) {
	m, _ := testManager(t)
	snap := m.CreateSession(PlayerProfile{ID: "host", DisplayName: "Host"})
	_, err := m.JoinGame(snap.GameID, PlayerProfile{ID: "p2", DisplayName: "P2"})
	require.NoError(t, err)

	left, err := m.LeaveGame(snap.GameID, "p2")
	require.NoError(t, err)
	require.Len(t, left.Players, 2, "leaving must not remove the seat")
	assert.False(t, left.Players[1].Connected)
	assert.True(t, m.IsPlayerInGame(snap.GameID, "p2"))
}

func TestStartGame_HostOnlyAndLobbyOnly(t *testing.T) {
	m, _ := testManager(t)
	snap := m.CreateSession(PlayerProfile{ID: "host", DisplayName: "Host"})
	_, err := m.JoinGame(snap.GameID, PlayerProfile{ID: "p2", DisplayName: "P2"})
	require.NoError(t, err)

	payload := StartPayload{PaintBag: testBag(4), CanvasDeck: testDeck(4)}

	_, err = m.StartGame(context.Background(), snap.GameID, payload, "p2")
	assert.ErrorIs(t, err, ErrNotHost)

	state, err := m.StartGame(context.Background(), snap.GameID, payload, "host")
	require.NoError(t, err)
	assert.Equal(t, engine.PhaseMorning, state.Phase, "a started game is never observed in LOBBY")

	_, err = m.StartGame(context.Background(), snap.GameID, payload, "host")
	assert.ErrorIs(t, err, ErrAlreadyStarted)

	_, err = m.JoinGame(snap.GameID, PlayerProfile{ID: "late", DisplayName: "Late"})
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestStartGame_EmitsStartEvents(t *testing.T) {
	m, events := testManager(t)
	gameID := startedGame(t, m)

	var reasons []LobbyReason
	var sawStarted, sawUpdated bool
	for i := 0; i < 5; i++ {
		switch ev := recvEvent(t, events).(type) {
		case LobbyUpdated:
			reasons = append(reasons, ev.Reason)
		case GameStarted:
			sawStarted = true
			assert.Equal(t, gameID, ev.GameID)
			assert.Equal(t, engine.PhaseMorning, ev.State.Phase)
		case GameStateUpdated:
			sawUpdated = true
			assert.Nil(t, ev.Action)
		}
	}
	assert.Equal(t, []LobbyReason{ReasonCreated, ReasonJoin, ReasonStart}, reasons)
	assert.True(t, sawStarted)
	assert.True(t, sawUpdated)
}

func TestApplyAction_AuthorizationBoundary(t *testing.T) {
	m, _ := testManager(t)
	gameID := startedGame(t, m)

	draw := engine.Action{Type: engine.ActionDrawPaintCubes, PlayerID: "host", Count: 1}

	// Requester must match the embedded actor.
	_, err := m.ApplyAction(gameID, draw, "p2")
	assert.ErrorIs(t, err, ErrForbiddenActor)

	// p2 holds no turn yet.
	p2Draw := engine.Action{Type: engine.ActionDrawPaintCubes, PlayerID: "p2", Count: 1}
	_, err = m.ApplyAction(gameID, p2Draw, "p2")
	assert.ErrorIs(t, err, ErrNotYourTurn)

	state, err := m.ApplyAction(gameID, draw, "host")
	require.NoError(t, err)
	assert.Len(t, engine.FindPlayer(state, "host").Studio.PaintCubes, 1)
}

func TestApplyAction_RuleViolationSurfacesEngineError(t *testing.T) {
	m, _ := testManager(t)
	gameID := startedGame(t, m)

	_, err := m.ApplyAction(gameID, engine.Action{
		Type: engine.ActionDrawPaintCubes, PlayerID: "host", Count: 100,
	}, "host")
	require.Error(t, err)
	var ruleErr *engine.Error
	assert.True(t, errors.As(err, &ruleErr), "engine rule errors pass through the boundary typed")
}

func TestApplyAction_EmitsSummary(t *testing.T) {
	m, events := testManager(t)
	gameID := startedGame(t, m)
	for i := 0; i < 5; i++ {
		recvEvent(t, events) // drain lobby/start events
	}

	_, err := m.ApplyAction(gameID, engine.Action{
		Type: engine.ActionDrawPaintCubes, PlayerID: "host", Count: 1,
	}, "host")
	require.NoError(t, err)

	ev, ok := recvEvent(t, events).(GameStateUpdated)
	require.True(t, ok)
	require.NotNil(t, ev.Action)
	assert.Equal(t, "host", ev.Action.PlayerID)
	assert.Equal(t, "DRAW_PAINT_CUBES", ev.Action.ActionType)
	assert.NotEmpty(t, ev.Action.Timestamp)
}

type fakeStore struct {
	mu    sync.Mutex
	metas []string
	calls chan struct{}
}

func (f *fakeStore) SaveGameMeta(_ context.Context, gameID, _ string, _ engine.Phase) error {
	f.mu.Lock()
	f.metas = append(f.metas, gameID)
	f.mu.Unlock()
	f.calls <- struct{}{}
	return nil
}

func (f *fakeStore) SavePlayer(context.Context, string, PlayerRecord) error { return nil }

func (f *fakeStore) SaveSnapshot(context.Context, *engine.GameState) error {
	return errors.New("snapshot store down")
}

func TestPersistence_BestEffortNeverFailsGameplay(t *testing.T) {
	fs := &fakeStore{calls: make(chan struct{}, 8)}
	bus := NewBus(zap.NewNop())
	m := NewManager(bus, fs, nil, zap.NewNop())

	gameID := startedGame(t, m)

	select {
	case <-fs.calls:
	case <-time.After(time.Second):
		t.Fatalf("expected a metadata write after create")
	}

	// SaveSnapshot always fails; gameplay must not notice.
	_, err := m.ApplyAction(gameID, engine.Action{
		Type: engine.ActionDrawPaintCubes, PlayerID: "host", Count: 1,
	}, "host")
	assert.NoError(t, err)
}

type fakeCatalog struct {
	defs []engine.CanvasDefinition
}

func (f *fakeCatalog) FetchCanvasDefinitions(context.Context) ([]engine.CanvasDefinition, error) {
	return f.defs, nil
}

func TestStartGame_DeckFromCatalogIsDeterministic(t *testing.T) {
	catalog := &fakeCatalog{defs: testDeck(8)}

	order := func() []string {
		bus := NewBus(zap.NewNop())
		m := NewManager(bus, nil, catalog, zap.NewNop())
		snap := m.CreateSession(PlayerProfile{ID: "host", DisplayName: "Host"})
		state, err := m.StartGame(context.Background(), snap.GameID, StartPayload{PaintBag: testBag(4)}, "host")
		require.NoError(t, err)

		var ids []string
		for _, slot := range state.CanvasMarket.Slots {
			ids = append(ids, slot.Canvas.ID)
		}
		for _, c := range state.CanvasDeck {
			ids = append(ids, c.ID)
		}
		return ids
	}

	first := order()
	second := order()
	assert.Equal(t, first, second, "same game id must shuffle the same way")
	assert.ElementsMatch(t, []string{"cv1", "cv2", "cv3", "cv4", "cv5", "cv6", "cv7", "cv8"}, first)
}

func TestShuffleDefinitions_DoesNotTouchSource(t *testing.T) {
	source := testDeck(6)
	var before []string
	for _, d := range source {
		before = append(before, d.ID)
	}
	shuffleDefinitions(source, "game-1")
	var after []string
	for _, d := range source {
		after = append(after, d.ID)
	}
	assert.Equal(t, before, after)
}
