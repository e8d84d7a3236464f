package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/atelier-hq/atelier-backend/internal/engine"
)

const (
	MinPlayers = 1
	MaxPlayers = 4
)

type PlayerProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type LobbyPlayerView struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Order       int    `json:"order"`
	Connected   bool   `json:"isConnected"`
}

type LobbyReadiness struct {
	CanStart    bool `json:"canStart"`
	IsLobbyFull bool `json:"isLobbyFull"`
	PlayerCount int  `json:"playerCount"`
	MinPlayers  int  `json:"minPlayers"`
	MaxPlayers  int  `json:"maxPlayers"`
}

// LobbySnapshot is a read-only projection of a session for pre-start display.
// It is derived on demand and never stored independently of the game state.
type LobbySnapshot struct {
	GameID    string            `json:"gameId"`
	HostID    string            `json:"hostId"`
	Phase     engine.Phase      `json:"phase"`
	Players   []LobbyPlayerView `json:"players"`
	CreatedAt string            `json:"createdAt"`
	UpdatedAt string            `json:"updatedAt"`
	JoinLink  string            `json:"joinLink"`
	Readiness LobbyReadiness    `json:"readiness"`
}

// StartPayload carries everything a host may supply when starting a game.
// Exactly one deck source wins: override, then the payload deck, then a
// catalog fetch with a deterministic shuffle.
type StartPayload struct {
	PaintBag           []engine.PaintCube        `json:"paintBag"`
	CanvasDeck         []engine.CanvasDefinition `json:"canvasDeck,omitempty"`
	CanvasDeckOverride []engine.CanvasDefinition `json:"canvasDeckOverride,omitempty"`
	InitialPaintMarket []engine.PaintCube        `json:"initialPaintMarket,omitempty"`
	InitialMarketSize  *int                      `json:"initialMarketSize,omitempty"`
	TurnOrder          []string                  `json:"turnOrder,omitempty"`
	FirstPlayerID      string                    `json:"firstPlayerId,omitempty"`
	Timestamp          string                    `json:"timestamp,omitempty"`
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Session owns the authoritative state for one game. Methods do not lock; the
// Manager serializes every mutation (and its event emission) per game through
// mu, so state transitions for one game id never interleave.
type Session struct {
	mu       sync.Mutex
	gameID   string
	hostID   string
	joinLink string
	state    engine.GameState
}

func NewSession(gameID string, host PlayerProfile) *Session {
	s := &Session{
		gameID:   gameID,
		hostID:   host.ID,
		joinLink: "/lobby/" + gameID,
	}
	s.state = emptyGameState(gameID)
	s.addOrReconnect(host)
	return s
}

func emptyGameState(gameID string) engine.GameState {
	timestamp := nowStamp()
	return engine.GameState{
		ID:          gameID,
		Phase:       engine.PhaseLobby,
		Players:     []engine.Player{},
		TurnOrder:   []string{},
		Turn:        engine.TurnState{Order: []string{}},
		Day:         engine.DayState{DayNumber: 1},
		PaintMarket: engine.PaintMarket{Cubes: []engine.PaintCube{}, LastUpdated: timestamp},
		PaintBag:    []engine.PaintCube{},
		CanvasDeck:  []engine.CanvasState{},
		SellIntents: map[string][]string{},
		CreatedAt:   timestamp,
		UpdatedAt:   timestamp,
	}
}

func (s *Session) ID() string     { return s.gameID }
func (s *Session) HostID() string { return s.hostID }

// state accessors below assume s.mu is held by the caller (the Manager).

func (s *Session) currentState() *engine.GameState {
	st := s.state
	return &st
}

func (s *Session) hasPlayer(playerID string) bool {
	return engine.FindPlayer(&s.state, playerID) != nil
}

func (s *Session) isFull() bool {
	return len(s.state.Players) >= MaxPlayers
}

func (s *Session) canStart() bool {
	return s.state.Phase == engine.PhaseLobby && len(s.state.Players) >= MinPlayers
}

func (s *Session) snapshot() LobbySnapshot {
	views := make([]LobbyPlayerView, len(s.state.Players))
	for i, p := range s.state.Players {
		views[i] = LobbyPlayerView{ID: p.ID, DisplayName: p.DisplayName, Order: p.Order, Connected: p.Connected}
	}
	// Players joined in order, but keep the projection sorted by seat anyway.
	for i := 1; i < len(views); i++ {
		for j := i; j > 0 && views[j].Order < views[j-1].Order; j-- {
			views[j], views[j-1] = views[j-1], views[j]
		}
	}
	return LobbySnapshot{
		GameID:    s.gameID,
		HostID:    s.hostID,
		Phase:     s.state.Phase,
		Players:   views,
		CreatedAt: s.state.CreatedAt,
		UpdatedAt: s.state.UpdatedAt,
		JoinLink:  s.joinLink,
		Readiness: LobbyReadiness{
			CanStart:    s.canStart(),
			IsLobbyFull: s.isFull(),
			PlayerCount: len(s.state.Players),
			MinPlayers:  MinPlayers,
			MaxPlayers:  MaxPlayers,
		},
	}
}

// addOrReconnect registers a new player or flips an existing one back to
// connected. Reconnecting is idempotent: roster size and seat order are
// untouched.
func (s *Session) addOrReconnect(profile PlayerProfile) (snap LobbySnapshot, reconnect bool, err error) {
	next := s.state.Clone()
	if existing := engine.FindPlayer(&next, profile.ID); existing != nil {
		existing.DisplayName = profile.DisplayName
		existing.Connected = true
		next.UpdatedAt = nowStamp()
		s.state = next
		return s.snapshot(), true, nil
	}

	if s.isFull() {
		return LobbySnapshot{}, false, ErrLobbyFull
	}

	player := engine.Player{
		ID:          profile.ID,
		DisplayName: profile.DisplayName,
		Order:       len(next.Players) + 1,
		Nutrition:   5,
		Connected:   true,
		Studio:      engine.Studio{PaintCubes: []engine.PaintCube{}, Canvases: []engine.CanvasState{}},
	}
	next.Players = append(next.Players, player)
	if next.FirstPlayerID == "" {
		next.FirstPlayerID = player.ID
	}
	next.SellIntents[player.ID] = []string{}
	next.UpdatedAt = nowStamp()
	s.state = next
	return s.snapshot(), false, nil
}

// markDisconnected flips the connected flag only. The player keeps their seat
// so mid-game turn order stays deterministic.
func (s *Session) markDisconnected(playerID string) (LobbySnapshot, error) {
	next := s.state.Clone()
	player := engine.FindPlayer(&next, playerID)
	if player == nil {
		return LobbySnapshot{}, fmt.Errorf("%w: %s in game %s", ErrPlayerNotFound, playerID, s.gameID)
	}
	player.Connected = false
	next.UpdatedAt = nowStamp()
	s.state = next
	return s.snapshot(), nil
}

// start runs INITIALIZE_GAME from the current roster and immediately advances
// to MORNING, so a started game is never observed in LOBBY.
func (s *Session) start(payload StartPayload, requestedBy string) (*engine.GameState, error) {
	if requestedBy != s.hostID {
		return nil, ErrNotHost
	}
	if s.state.Phase != engine.PhaseLobby {
		return nil, ErrAlreadyStarted
	}
	if len(s.state.Players) < MinPlayers {
		return nil, ErrNotEnoughPlayers
	}
	if len(payload.CanvasDeck) == 0 {
		return nil, ErrEmptyDeck
	}

	timestamp := payload.Timestamp
	if timestamp == "" {
		timestamp = nowStamp()
	}

	setups := s.buildPlayerSetups()
	turnOrder := payload.TurnOrder
	if len(turnOrder) == 0 {
		turnOrder = make([]string, len(setups))
		for i, setup := range setups {
			turnOrder[i] = setup.ID
		}
	}
	first := payload.FirstPlayerID
	if first == "" {
		first = turnOrder[0]
	}

	initState, err := s.apply(nil, engine.Action{
		Type:               engine.ActionInitializeGame,
		Timestamp:          timestamp,
		GameID:             s.gameID,
		Players:            setups,
		TurnOrder:          turnOrder,
		PaintBag:           payload.PaintBag,
		CanvasDeck:         payload.CanvasDeck,
		InitialPaintMarket: payload.InitialPaintMarket,
		InitialMarketSize:  payload.InitialMarketSize,
		FirstPlayerID:      first,
	})
	if err != nil {
		return nil, err
	}

	started, err := s.apply(initState, engine.Action{
		Type:        engine.ActionAdvancePhase,
		Timestamp:   timestamp,
		TargetPhase: engine.PhaseMorning,
	})
	if err != nil {
		return nil, err
	}

	s.state = *started
	return s.currentState(), nil
}

// applyAction runs one engine transform against the live state. This is the
// single point where engine rule values become errors for callers up the
// stack.
func (s *Session) applyAction(action engine.Action) (*engine.GameState, error) {
	next, err := s.apply(&s.state, action)
	if err != nil {
		return nil, err
	}
	s.state = *next
	return s.currentState(), nil
}

func (s *Session) apply(state *engine.GameState, action engine.Action) (*engine.GameState, error) {
	next, ruleErr := engine.Reduce(state, action)
	if ruleErr != nil {
		return nil, ruleErr
	}
	return next, nil
}

func (s *Session) buildPlayerSetups() []engine.PlayerSetup {
	setups := make([]engine.PlayerSetup, len(s.state.Players))
	for i, p := range s.state.Players {
		setups[i] = engine.PlayerSetup{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			Order:       p.Order,
			Nutrition:   p.Nutrition,
			Score:       p.Score,
			StudioCubes: p.Studio.PaintCubes,
		}
	}
	return setups
}
