package engine

type Phase string

const (
	PhaseLobby     Phase = "LOBBY"
	PhaseMorning   Phase = "MORNING"
	PhaseAfternoon Phase = "AFTERNOON"
	PhaseSelling   Phase = "SELLING"
	PhaseEnded     Phase = "ENDED"
)

type PaintColor string

const (
	ColorRed    PaintColor = "red"
	ColorOrange PaintColor = "orange"
	ColorYellow PaintColor = "yellow"
	ColorGreen  PaintColor = "green"
	ColorBlue   PaintColor = "blue"
	ColorPurple PaintColor = "purple"
	ColorBlack  PaintColor = "black"
	ColorWild   PaintColor = "wild"
)

// Palette is every color a cube or square may carry, wild included.
var Palette = []PaintColor{
	ColorRed, ColorOrange, ColorYellow, ColorGreen,
	ColorBlue, ColorPurple, ColorBlack, ColorWild,
}

// PaintCube is a value object: once created its id and color never change.
// Cubes only move between the bag, player studios, canvas squares and the
// paint market.
type PaintCube struct {
	ID    string     `json:"id"`
	Color PaintColor `json:"color"`
}

type CanvasSquare struct {
	ID            string       `json:"id"`
	AllowedColors []PaintColor `json:"allowedColors"`
	X             int          `json:"x"`
	Y             int          `json:"y"`
}

type CanvasDefinition struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Artist     string         `json:"artist,omitempty"`
	Year       string         `json:"year,omitempty"`
	StarValue  int            `json:"starValue"`
	PaintValue int            `json:"paintValue"`
	FoodValue  int            `json:"foodValue"`
	Squares    []CanvasSquare `json:"squares"`
}

// CanvasState is an instantiated card: a fixed definition plus the cubes
// placed on it so far. PlacedCubes is keyed by square id; a square holds at
// most one cube, ever.
type CanvasState struct {
	ID          string               `json:"id"`
	Definition  CanvasDefinition     `json:"definition"`
	OwnerID     string               `json:"ownerId,omitempty"`
	PlacedCubes map[string]PaintCube `json:"placedCubes"`
	CreatedAt   string               `json:"createdAt"`
}

type Studio struct {
	PaintCubes []PaintCube   `json:"paintCubes"`
	Canvases   []CanvasState `json:"canvases"`
}

type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Order       int    `json:"order"`
	Nutrition   int    `json:"nutrition"`
	Score       int    `json:"score"`
	Connected   bool   `json:"isConnected"`
	Studio      Studio `json:"studio"`
}

type MarketSlot struct {
	SlotIndex int         `json:"slotIndex"`
	Canvas    CanvasState `json:"canvas"`
	Cost      int         `json:"cost"`
}

type CanvasMarket struct {
	Slots []MarketSlot `json:"slots"`
}

type PaintMarket struct {
	Cubes       []PaintCube `json:"cubes"`
	LastUpdated string      `json:"lastUpdated"`
}

// TurnState tracks the dynamic order for the current day. Order is always a
// permutation of GameState.TurnOrder.
type TurnState struct {
	Order                 []string `json:"order"`
	CurrentPlayerIndex    int      `json:"currentPlayerIndex"`
	ActionsTakenThisPhase int      `json:"actionsTakenThisPhase"`
}

type DayState struct {
	DayNumber           int  `json:"dayNumber"`
	HasNutritionApplied bool `json:"hasNutritionApplied"`
}

// GameState is the single source of truth for one game. Reduce never mutates
// the state it is given; every transform works on a deep clone so previously
// returned states stay valid snapshots.
type GameState struct {
	ID            string              `json:"id"`
	Phase         Phase               `json:"phase"`
	Players       []Player            `json:"players"`
	TurnOrder     []string            `json:"turnOrder"`
	Turn          TurnState           `json:"turn"`
	Day           DayState            `json:"day"`
	CanvasMarket  CanvasMarket        `json:"canvasMarket"`
	PaintMarket   PaintMarket         `json:"paintMarket"`
	PaintBag      []PaintCube         `json:"paintBag"`
	CanvasDeck    []CanvasState       `json:"canvasDeck"`
	SellIntents   map[string][]string `json:"sellIntents"`
	FirstPlayerID string              `json:"firstPlayerId,omitempty"`
	CreatedAt     string              `json:"createdAt"`
	UpdatedAt     string              `json:"updatedAt"`
}

func cloneCubes(cubes []PaintCube) []PaintCube {
	if cubes == nil {
		return nil
	}
	out := make([]PaintCube, len(cubes))
	copy(out, cubes)
	return out
}

func cloneColors(colors []PaintColor) []PaintColor {
	out := make([]PaintColor, len(colors))
	copy(out, colors)
	return out
}

func (d CanvasDefinition) clone() CanvasDefinition {
	out := d
	out.Squares = make([]CanvasSquare, len(d.Squares))
	for i, sq := range d.Squares {
		sq.AllowedColors = cloneColors(sq.AllowedColors)
		out.Squares[i] = sq
	}
	return out
}

func (c CanvasState) clone() CanvasState {
	out := c
	out.Definition = c.Definition.clone()
	out.PlacedCubes = make(map[string]PaintCube, len(c.PlacedCubes))
	for k, v := range c.PlacedCubes {
		out.PlacedCubes[k] = v
	}
	return out
}

func cloneCanvases(canvases []CanvasState) []CanvasState {
	if canvases == nil {
		return nil
	}
	out := make([]CanvasState, len(canvases))
	for i, c := range canvases {
		out[i] = c.clone()
	}
	return out
}

func clonePlayers(players []Player) []Player {
	if players == nil {
		return nil
	}
	out := make([]Player, len(players))
	for i, p := range players {
		p.Studio.PaintCubes = cloneCubes(p.Studio.PaintCubes)
		p.Studio.Canvases = cloneCanvases(p.Studio.Canvases)
		out[i] = p
	}
	return out
}

func cloneOrder(order []string) []string {
	if order == nil {
		return nil
	}
	out := make([]string, len(order))
	copy(out, order)
	return out
}

// Clone deep-copies the state so the copy can be mutated freely.
func (s GameState) Clone() GameState {
	out := s
	out.Players = clonePlayers(s.Players)
	out.TurnOrder = cloneOrder(s.TurnOrder)
	out.Turn.Order = cloneOrder(s.Turn.Order)
	out.CanvasMarket.Slots = make([]MarketSlot, len(s.CanvasMarket.Slots))
	for i, slot := range s.CanvasMarket.Slots {
		slot.Canvas = slot.Canvas.clone()
		out.CanvasMarket.Slots[i] = slot
	}
	out.PaintMarket.Cubes = cloneCubes(s.PaintMarket.Cubes)
	out.PaintBag = cloneCubes(s.PaintBag)
	out.CanvasDeck = cloneCanvases(s.CanvasDeck)
	out.SellIntents = make(map[string][]string, len(s.SellIntents))
	for id, intents := range s.SellIntents {
		out.SellIntents[id] = cloneOrder(intents)
	}
	return out
}
