package engine

import (
	"encoding/json"
	"reflect"
	"testing"
)

func cube(id string, color PaintColor) PaintCube {
	return PaintCube{ID: id, Color: color}
}

func testDefinition(id string, colors ...PaintColor) CanvasDefinition {
	squares := make([]CanvasSquare, len(colors))
	for i, c := range colors {
		squares[i] = CanvasSquare{ID: "sq-" + string(rune('a'+i)), AllowedColors: []PaintColor{c}, X: i, Y: 0}
	}
	return CanvasDefinition{
		ID:         id,
		Title:      "Test Canvas " + id,
		StarValue:  3,
		PaintValue: 2,
		FoodValue:  1,
		Squares:    squares,
	}
}

func initAction(players int, bag []PaintCube, deck []CanvasDefinition, marketSize int) Action {
	setups := make([]PlayerSetup, players)
	order := make([]string, players)
	for i := range setups {
		id := "p" + string(rune('1'+i))
		setups[i] = PlayerSetup{ID: id, DisplayName: "Player " + id}
		order[i] = id
	}
	return Action{
		Type:              ActionInitializeGame,
		Timestamp:         "2026-01-01T00:00:00Z",
		GameID:            "game-1",
		Players:           setups,
		TurnOrder:         order,
		PaintBag:          bag,
		CanvasDeck:        deck,
		InitialMarketSize: &marketSize,
	}
}

func mustReduce(t *testing.T, state *GameState, action Action) *GameState {
	t.Helper()
	next, err := Reduce(state, action)
	if err != nil {
		t.Fatalf("unexpected rule error: %v", err)
	}
	return next
}

// countCubes totals every pool a cube can live in.
func countCubes(s *GameState) int {
	total := len(s.PaintBag) + len(s.PaintMarket.Cubes)
	for _, p := range s.Players {
		total += len(p.Studio.PaintCubes)
		for _, c := range p.Studio.Canvases {
			total += len(c.PlacedCubes)
		}
	}
	for _, slot := range s.CanvasMarket.Slots {
		total += len(slot.Canvas.PlacedCubes)
	}
	return total
}

func snapshotJSON(t *testing.T, s *GameState) []byte {
	t.Helper()
	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal state: %v", err)
	}
	return raw
}

func TestInitializeGame_MarketAndBag(t *testing.T) {
	// Scenario: 2 players, bag of 6, deck of 4, market size 3.
	bag := []PaintCube{
		cube("c1", ColorRed), cube("c2", ColorBlue), cube("c3", ColorGreen),
		cube("c4", ColorYellow), cube("c5", ColorOrange), cube("c6", ColorPurple),
	}
	deck := []CanvasDefinition{
		testDefinition("cv1", ColorRed), testDefinition("cv2", ColorBlue),
		testDefinition("cv3", ColorGreen), testDefinition("cv4", ColorYellow),
	}

	state := mustReduce(t, nil, initAction(2, bag, deck, 3))

	if state.Phase != PhaseLobby {
		t.Fatalf("want LOBBY after init, got %s", state.Phase)
	}
	if len(state.CanvasMarket.Slots) != 3 {
		t.Fatalf("want 3 market slots, got %d", len(state.CanvasMarket.Slots))
	}
	for i, slot := range state.CanvasMarket.Slots {
		if slot.Cost != i+1 || slot.SlotIndex != i {
			t.Fatalf("slot %d: want cost %d / index %d, got %+v", i, i+1, i, slot)
		}
	}
	if len(state.PaintBag) != 6 {
		t.Fatalf("want full bag of 6, got %d", len(state.PaintBag))
	}
	if len(state.CanvasDeck) != 1 {
		t.Fatalf("want 1 card left in deck, got %d", len(state.CanvasDeck))
	}
	if !reflect.DeepEqual(state.Turn.Order, []string{"p1", "p2"}) {
		t.Fatalf("unexpected turn order %v", state.Turn.Order)
	}
}

func TestInitializeGame_Validation(t *testing.T) {
	bag := []PaintCube{cube("c1", ColorRed)}
	deck := []CanvasDefinition{testDefinition("cv1", ColorRed)}

	cases := []struct {
		name   string
		mutate func(*Action)
	}{
		{"no players", func(a *Action) { a.Players = nil }},
		{"duplicate ids", func(a *Action) { a.Players[1].ID = a.Players[0].ID }},
		{"empty turn order", func(a *Action) { a.TurnOrder = nil }},
		{"unknown in turn order", func(a *Action) { a.TurnOrder = []string{"p1", "ghost"} }},
		{"empty bag", func(a *Action) { a.PaintBag = nil }},
		{"deck smaller than market", func(a *Action) { size := 5; a.InitialMarketSize = &size }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			action := initAction(2, bag, deck, 1)
			tc.mutate(&action)
			if _, err := Reduce(nil, action); err == nil {
				t.Fatalf("expected rule error")
			}
		})
	}
}

func TestDrawPaintCubes_HeadOfBagInOrder(t *testing.T) {
	bag := []PaintCube{cube("r", ColorRed), cube("b", ColorBlue), cube("g", ColorGreen)}
	deck := []CanvasDefinition{testDefinition("cv1", ColorRed)}
	state := mustReduce(t, nil, initAction(2, bag, deck, 1))
	state = mustReduce(t, state, Action{Type: ActionAdvancePhase, TargetPhase: PhaseMorning})

	next := mustReduce(t, state, Action{Type: ActionDrawPaintCubes, PlayerID: "p1", Count: 2})

	p1 := FindPlayer(next, "p1")
	if len(p1.Studio.PaintCubes) != 2 || p1.Studio.PaintCubes[0].ID != "r" || p1.Studio.PaintCubes[1].ID != "b" {
		t.Fatalf("want studio [r b], got %+v", p1.Studio.PaintCubes)
	}
	if len(next.PaintBag) != 1 || next.PaintBag[0].ID != "g" {
		t.Fatalf("want bag [g], got %+v", next.PaintBag)
	}
	if got := CurrentPlayerID(*next); got != "p2" {
		t.Fatalf("turn should pass to p2, got %s", got)
	}
}

func TestDrawPaintCubes_Rejections(t *testing.T) {
	bag := []PaintCube{cube("r", ColorRed)}
	deck := []CanvasDefinition{testDefinition("cv1", ColorRed)}
	lobbyState := mustReduce(t, nil, initAction(2, bag, deck, 1))
	morning := mustReduce(t, lobbyState, Action{Type: ActionAdvancePhase, TargetPhase: PhaseMorning})

	cases := []struct {
		name   string
		state  *GameState
		action Action
	}{
		{"outside action phase", lobbyState, Action{Type: ActionDrawPaintCubes, PlayerID: "p1", Count: 1}},
		{"zero count", morning, Action{Type: ActionDrawPaintCubes, PlayerID: "p1", Count: 0}},
		{"bag too small", morning, Action{Type: ActionDrawPaintCubes, PlayerID: "p1", Count: 5}},
		{"unknown player", morning, Action{Type: ActionDrawPaintCubes, PlayerID: "ghost", Count: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := snapshotJSON(t, tc.state)
			if _, err := Reduce(tc.state, tc.action); err == nil {
				t.Fatalf("expected rule error")
			}
			if after := snapshotJSON(t, tc.state); string(before) != string(after) {
				t.Fatalf("rejected action mutated state")
			}
		})
	}
}

func TestBuyCanvas_SlotZero(t *testing.T) {
	// Scenario: buy slot 0 (cost 1) with a studio of one orange cube.
	bag := []PaintCube{cube("x", ColorRed)}
	deck := []CanvasDefinition{
		testDefinition("cv1", ColorRed), testDefinition("cv2", ColorBlue),
		testDefinition("cv3", ColorGreen),
	}
	action := initAction(2, bag, deck, 3)
	action.Players[0].StudioCubes = []PaintCube{cube("o", ColorOrange)}
	state := mustReduce(t, nil, action)
	state = mustReduce(t, state, Action{Type: ActionAdvancePhase, TargetPhase: PhaseMorning})

	next := mustReduce(t, state, Action{Type: ActionBuyCanvas, PlayerID: "p1", SlotIndex: 0})

	p1 := FindPlayer(next, "p1")
	if len(p1.Studio.Canvases) != 1 || p1.Studio.Canvases[0].ID != "cv1" {
		t.Fatalf("want cv1 in studio, got %+v", p1.Studio.Canvases)
	}
	if p1.Studio.Canvases[0].OwnerID != "p1" {
		t.Fatalf("canvas owner not set: %+v", p1.Studio.Canvases[0])
	}
	if len(p1.Studio.Canvases[0].PlacedCubes) != 0 {
		t.Fatalf("purchased canvas should have empty placements")
	}
	if len(p1.Studio.PaintCubes) != 0 {
		t.Fatalf("payment cube should leave the studio")
	}
	if len(next.CanvasMarket.Slots) != 2 {
		t.Fatalf("want 2 slots after purchase (deck empty), got %d", len(next.CanvasMarket.Slots))
	}
	for i, slot := range next.CanvasMarket.Slots {
		if slot.Cost != i+1 {
			t.Fatalf("slot %d should cost %d after re-pricing, got %d", i, i+1, slot.Cost)
		}
	}
	if len(next.PaintMarket.Cubes) != 1 || next.PaintMarket.Cubes[0].Color != ColorOrange {
		t.Fatalf("paint market should gain the orange cube, got %+v", next.PaintMarket.Cubes)
	}
}

func TestBuyCanvas_BackfillsFromDeck(t *testing.T) {
	bag := []PaintCube{cube("x", ColorRed)}
	deck := []CanvasDefinition{
		testDefinition("cv1", ColorRed), testDefinition("cv2", ColorBlue),
		testDefinition("cv3", ColorGreen), testDefinition("cv4", ColorYellow),
	}
	action := initAction(2, bag, deck, 3)
	action.Players[0].StudioCubes = []PaintCube{cube("o", ColorOrange)}
	state := mustReduce(t, nil, action)
	state = mustReduce(t, state, Action{Type: ActionAdvancePhase, TargetPhase: PhaseMorning})

	next := mustReduce(t, state, Action{Type: ActionBuyCanvas, PlayerID: "p1", SlotIndex: 0})

	if len(next.CanvasMarket.Slots) != 3 {
		t.Fatalf("deck card should back-fill the market, got %d slots", len(next.CanvasMarket.Slots))
	}
	if last := next.CanvasMarket.Slots[2]; last.Canvas.ID != "cv4" || last.Cost != 3 {
		t.Fatalf("want cv4 appended at cost 3, got %+v", last)
	}
	if len(next.CanvasDeck) != 0 {
		t.Fatalf("deck should be drained, got %d", len(next.CanvasDeck))
	}
}

func buyerWithCanvas(t *testing.T, def CanvasDefinition, studio []PaintCube) *GameState {
	t.Helper()
	bag := []PaintCube{cube("bag1", ColorRed)}
	action := initAction(2, bag, []CanvasDefinition{def}, 1)
	cost := append([]PaintCube{cube("pay", ColorBlack)}, studio...)
	action.Players[0].StudioCubes = cost
	state := mustReduce(t, nil, action)
	state = mustReduce(t, state, Action{Type: ActionAdvancePhase, TargetPhase: PhaseMorning})
	state = mustReduce(t, state, Action{Type: ActionBuyCanvas, PlayerID: "p1", SlotIndex: 0})
	// p2 ends their turn so it's p1 again.
	return mustReduce(t, state, Action{Type: ActionEndTurn, PlayerID: "p2"})
}

func TestApplyPaint_ColorMismatchRejected(t *testing.T) {
	state := buyerWithCanvas(t, testDefinition("cv1", ColorRed), []PaintCube{cube("blue1", ColorBlue)})
	before := snapshotJSON(t, state)

	_, err := Reduce(state, Action{
		Type: ActionApplyPaint, PlayerID: "p1",
		CanvasID: "cv1", SquareID: "sq-a", CubeID: "blue1",
	})
	if err == nil {
		t.Fatalf("expected color mismatch rejection")
	}
	if err.Message != "Cube color does not match square requirements" {
		t.Fatalf("unexpected message: %q", err.Message)
	}
	if after := snapshotJSON(t, state); string(before) != string(after) {
		t.Fatalf("rejected placement mutated state")
	}
}

func TestApplyPaint_PlacesCubeAndRemovesFromStudio(t *testing.T) {
	state := buyerWithCanvas(t, testDefinition("cv1", ColorRed), []PaintCube{cube("red1", ColorRed)})

	next := mustReduce(t, state, Action{
		Type: ActionApplyPaint, PlayerID: "p1",
		CanvasID: "cv1", SquareID: "sq-a", CubeID: "red1",
	})

	p1 := FindPlayer(next, "p1")
	placed, ok := p1.Studio.Canvases[0].PlacedCubes["sq-a"]
	if !ok || placed.ID != "red1" {
		t.Fatalf("cube not recorded against square: %+v", p1.Studio.Canvases[0].PlacedCubes)
	}
	for _, c := range p1.Studio.PaintCubes {
		if c.ID == "red1" {
			t.Fatalf("placed cube still in studio")
		}
	}
}

// midGameState builds a two-player state directly, the way a running game
// would look, so individual rules can be exercised without replaying a day.
func midGameState(phase Phase, studioCubes []PaintCube, canvases []CanvasState) *GameState {
	return &GameState{
		ID:    "game-1",
		Phase: phase,
		Players: []Player{
			{ID: "p1", DisplayName: "Player p1", Order: 1, Nutrition: 5, Connected: true,
				Studio: Studio{PaintCubes: studioCubes, Canvases: canvases}},
			{ID: "p2", DisplayName: "Player p2", Order: 2, Nutrition: 5, Connected: true,
				Studio: Studio{PaintCubes: []PaintCube{}, Canvases: []CanvasState{}}},
		},
		TurnOrder:     []string{"p1", "p2"},
		Turn:          TurnState{Order: []string{"p1", "p2"}},
		Day:           DayState{DayNumber: 2, HasNutritionApplied: true},
		PaintBag:      []PaintCube{cube("bag1", ColorRed)},
		SellIntents:   map[string][]string{"p1": {}, "p2": {}},
		FirstPlayerID: "p1",
		CreatedAt:     "2026-01-01T00:00:00Z",
		UpdatedAt:     "2026-01-01T00:00:00Z",
	}
}

func ownedCanvas(def CanvasDefinition, placed map[string]PaintCube) CanvasState {
	c := NewCanvasState(def, "2026-01-01T00:00:00Z")
	c.OwnerID = "p1"
	for k, v := range placed {
		c.PlacedCubes[k] = v
	}
	return c
}

func TestApplyPaint_SecondWildRejected(t *testing.T) {
	def := testDefinition("cv1", ColorRed, ColorBlue)
	canvas := ownedCanvas(def, map[string]PaintCube{"sq-a": cube("w1", ColorWild)})
	state := midGameState(PhaseMorning, []PaintCube{cube("w2", ColorWild)}, []CanvasState{canvas})

	_, err := Reduce(state, Action{
		Type: ActionApplyPaint, PlayerID: "p1",
		CanvasID: "cv1", SquareID: "sq-b", CubeID: "w2",
	})
	if err == nil {
		t.Fatalf("second wild should be rejected")
	}
	if err.Message != "Only one wild cube may be used per canvas" {
		t.Fatalf("unexpected message: %q", err.Message)
	}
}

func TestApplyPaint_WildAcceptedOnAnySquare(t *testing.T) {
	def := testDefinition("cv1", ColorRed, ColorBlue)
	canvas := ownedCanvas(def, nil)
	state := midGameState(PhaseMorning, []PaintCube{cube("w1", ColorWild)}, []CanvasState{canvas})

	next := mustReduce(t, state, Action{
		Type: ActionApplyPaint, PlayerID: "p1",
		CanvasID: "cv1", SquareID: "sq-b", CubeID: "w1",
	})
	p1 := FindPlayer(next, "p1")
	if got := p1.Studio.Canvases[0].PlacedCubes["sq-b"]; got.ID != "w1" {
		t.Fatalf("wild cube should land on any square, got %+v", got)
	}
}

func TestApplyPaint_OccupiedSquareRejected(t *testing.T) {
	def := testDefinition("cv1", ColorRed)
	canvas := ownedCanvas(def, map[string]PaintCube{"sq-a": cube("r1", ColorRed)})
	state := midGameState(PhaseMorning, []PaintCube{cube("r2", ColorRed)}, []CanvasState{canvas})

	if _, err := Reduce(state, Action{
		Type: ActionApplyPaint, PlayerID: "p1",
		CanvasID: "cv1", SquareID: "sq-a", CubeID: "r2",
	}); err == nil {
		t.Fatalf("occupied square must reject a second cube")
	}
}

func TestDeclareSellIntent_RequiresCompleteCanvas(t *testing.T) {
	def := testDefinition("cv1", ColorRed, ColorBlue)

	incomplete := ownedCanvas(def, map[string]PaintCube{"sq-a": cube("r1", ColorRed)})
	state := midGameState(PhaseSelling, []PaintCube{}, []CanvasState{incomplete})
	if _, err := Reduce(state, Action{
		Type: ActionDeclareSellIntent, PlayerID: "p1", CanvasIDs: []string{"cv1"},
	}); err == nil {
		t.Fatalf("incomplete canvas must not be sellable")
	}

	complete := ownedCanvas(def, map[string]PaintCube{
		"sq-a": cube("r1", ColorRed),
		"sq-b": cube("b1", ColorBlue),
	})
	state = midGameState(PhaseSelling, []PaintCube{}, []CanvasState{complete})
	next := mustReduce(t, state, Action{
		Type: ActionDeclareSellIntent, PlayerID: "p1", CanvasIDs: []string{"cv1"},
	})
	if !reflect.DeepEqual(next.SellIntents["p1"], []string{"cv1"}) {
		t.Fatalf("want sell intent [cv1], got %v", next.SellIntents["p1"])
	}
}

func TestDeclareSellIntent_OutsideSellingRejected(t *testing.T) {
	def := testDefinition("cv1", ColorRed)
	complete := ownedCanvas(def, map[string]PaintCube{"sq-a": cube("r1", ColorRed)})
	state := midGameState(PhaseMorning, []PaintCube{}, []CanvasState{complete})

	if _, err := Reduce(state, Action{
		Type: ActionDeclareSellIntent, PlayerID: "p1", CanvasIDs: []string{"cv1"},
	}); err == nil {
		t.Fatalf("sell intent outside SELLING must be rejected")
	}
}

func TestCubeConservation(t *testing.T) {
	bag := []PaintCube{
		cube("c1", ColorRed), cube("c2", ColorBlue), cube("c3", ColorGreen),
		cube("c4", ColorYellow),
	}
	deck := []CanvasDefinition{
		testDefinition("cv1", ColorRed), testDefinition("cv2", ColorBlue),
	}
	action := initAction(2, bag, deck, 2)
	action.Players[0].StudioCubes = []PaintCube{cube("o", ColorOrange), cube("r0", ColorRed)}
	state := mustReduce(t, nil, action)
	state = mustReduce(t, state, Action{Type: ActionAdvancePhase, TargetPhase: PhaseMorning})
	want := countCubes(state)

	steps := []Action{
		{Type: ActionBuyCanvas, PlayerID: "p1", SlotIndex: 0},
		{Type: ActionDrawPaintCubes, PlayerID: "p2", Count: 2},
		{Type: ActionApplyPaint, PlayerID: "p1", CanvasID: "cv1", SquareID: "sq-a", CubeID: "r0"},
		{Type: ActionEndTurn, PlayerID: "p2"},
	}
	for i, step := range steps {
		state = mustReduce(t, state, step)
		if got := countCubes(state); got != want {
			t.Fatalf("step %d: cube count drifted from %d to %d", i, want, got)
		}
	}
}

func TestReduce_NeverMutatesPriorState(t *testing.T) {
	bag := []PaintCube{cube("c1", ColorRed), cube("c2", ColorBlue), cube("c3", ColorGreen)}
	deck := []CanvasDefinition{testDefinition("cv1", ColorRed), testDefinition("cv2", ColorBlue)}
	action := initAction(2, bag, deck, 2)
	action.Players[0].StudioCubes = []PaintCube{cube("o", ColorOrange)}
	state := mustReduce(t, nil, action)

	steps := []Action{
		{Type: ActionAdvancePhase, TargetPhase: PhaseMorning},
		{Type: ActionBuyCanvas, PlayerID: "p1", SlotIndex: 0},
		{Type: ActionDrawPaintCubes, PlayerID: "p2", Count: 1},
		{Type: ActionEndTurn, PlayerID: "p1"},
	}
	for i, step := range steps {
		before := snapshotJSON(t, state)
		next := mustReduce(t, state, step)
		if after := snapshotJSON(t, state); string(before) != string(after) {
			t.Fatalf("step %d mutated the prior state", i)
		}
		state = next
	}
}
