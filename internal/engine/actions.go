package engine

type ActionType string

const (
	ActionInitializeGame    ActionType = "INITIALIZE_GAME"
	ActionAdvancePhase      ActionType = "ADVANCE_PHASE"
	ActionDrawPaintCubes    ActionType = "DRAW_PAINT_CUBES"
	ActionBuyCanvas         ActionType = "BUY_CANVAS"
	ActionApplyPaint        ActionType = "APPLY_PAINT_TO_CANVAS"
	ActionDeclareSellIntent ActionType = "DECLARE_SELL_INTENT"
	ActionEndTurn           ActionType = "END_TURN"
)

// PlayerSetup seeds a player at INITIALIZE_GAME time.
type PlayerSetup struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"displayName"`
	Order       int         `json:"order"`
	Nutrition   int         `json:"nutrition"`
	Score       int         `json:"score"`
	StudioCubes []PaintCube `json:"studioCubes,omitempty"`
}

// Action is the single command shape fed to Validate and Reduce. Type decides
// which fields are read; Timestamp is stamped by the session manager before the
// action reaches the engine.
type Action struct {
	Type      ActionType `json:"type"`
	Timestamp string     `json:"timestamp,omitempty"`
	PlayerID  string     `json:"playerId,omitempty"`

	// INITIALIZE_GAME
	GameID             string             `json:"gameId,omitempty"`
	Players            []PlayerSetup      `json:"players,omitempty"`
	TurnOrder          []string           `json:"turnOrder,omitempty"`
	PaintBag           []PaintCube        `json:"paintBag,omitempty"`
	CanvasDeck         []CanvasDefinition `json:"canvasDeck,omitempty"`
	InitialPaintMarket []PaintCube        `json:"initialPaintMarket,omitempty"`
	InitialMarketSize  *int               `json:"initialMarketSize,omitempty"`
	FirstPlayerID      string             `json:"firstPlayerId,omitempty"`

	// ADVANCE_PHASE (empty TargetPhase means "next in sequence")
	TargetPhase Phase `json:"targetPhase,omitempty"`

	// DRAW_PAINT_CUBES
	Count int `json:"count,omitempty"`

	// BUY_CANVAS
	SlotIndex int `json:"slotIndex,omitempty"`

	// APPLY_PAINT_TO_CANVAS
	CanvasID string `json:"canvasId,omitempty"`
	SquareID string `json:"squareId,omitempty"`
	CubeID   string `json:"cubeId,omitempty"`

	// DECLARE_SELL_INTENT
	CanvasIDs []string `json:"canvasIds,omitempty"`
}

// HasActor reports whether the action type carries an acting player id, i.e.
// whether turn and authorization checks apply to it.
func (a Action) HasActor() bool {
	switch a.Type {
	case ActionDrawPaintCubes, ActionBuyCanvas, ActionApplyPaint,
		ActionDeclareSellIntent, ActionEndTurn:
		return true
	default:
		return false
	}
}

const defaultMarketSize = 3

func (a Action) marketSize() int {
	if a.InitialMarketSize == nil {
		return defaultMarketSize
	}
	if *a.InitialMarketSize < 0 {
		return 0
	}
	return *a.InitialMarketSize
}
