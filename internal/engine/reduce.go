package engine

// Reduce validates the action and, if legal, computes the next state on a deep
// clone of the current one. The state passed in is never touched: a rejected
// action returns (nil, err) and the caller keeps its snapshot intact.
func Reduce(state *GameState, action Action) (*GameState, *Error) {
	if err := Validate(state, action); err != nil {
		return nil, err
	}

	switch action.Type {
	case ActionInitializeGame:
		return reduceInitializeGame(action), nil
	case ActionAdvancePhase:
		return reduceAdvancePhase(state, action), nil
	case ActionDrawPaintCubes:
		return reduceDrawPaintCubes(state, action), nil
	case ActionBuyCanvas:
		return reduceBuyCanvas(state, action), nil
	case ActionApplyPaint:
		return reduceApplyPaint(state, action), nil
	case ActionDeclareSellIntent:
		return reduceDeclareSellIntent(state, action), nil
	case ActionEndTurn:
		return reduceEndTurn(state, action), nil
	default:
		return nil, ruleErr("Unhandled action type")
	}
}

// finalizePlayerAction advances the turn pointer and, when every player in the
// dynamic order has acted, rolls the phase over.
func finalizePlayerAction(next *GameState, timestamp string) *GameState {
	phaseCompleted := advanceTurnAfterAction(next)
	if timestamp != "" {
		next.UpdatedAt = timestamp
	}
	if phaseCompleted {
		transitionPhase(next, "", timestamp)
	}
	return next
}

func buildMarket(deck []CanvasState, size int) (slots []MarketSlot, remaining []CanvasState) {
	slots = []MarketSlot{}
	for i := 0; i < size && i < len(deck); i++ {
		slots = append(slots, MarketSlot{SlotIndex: i, Canvas: deck[i], Cost: slotCost(i)})
	}
	remaining = deck[min(size, len(deck)):]
	return slots, remaining
}

func reduceInitializeGame(action Action) *GameState {
	timestamp := action.Timestamp

	deck := make([]CanvasState, len(action.CanvasDeck))
	for i, def := range action.CanvasDeck {
		deck[i] = NewCanvasState(def, timestamp)
	}
	size := min(action.marketSize(), len(deck))
	slots, remaining := buildMarket(deck, size)

	players := make([]Player, len(action.Players))
	sellIntents := make(map[string][]string, len(action.Players))
	for i, setup := range action.Players {
		order := setup.Order
		if order == 0 {
			order = i + 1
		}
		nutrition := setup.Nutrition
		if nutrition == 0 {
			nutrition = 5
		}
		players[i] = Player{
			ID:          setup.ID,
			DisplayName: setup.DisplayName,
			Order:       order,
			Nutrition:   nutrition,
			Score:       setup.Score,
			Connected:   true,
			Studio: Studio{
				PaintCubes: cloneCubes(setup.StudioCubes),
				Canvases:   []CanvasState{},
			},
		}
		if players[i].Studio.PaintCubes == nil {
			players[i].Studio.PaintCubes = []PaintCube{}
		}
		sellIntents[setup.ID] = []string{}
	}

	first := action.FirstPlayerID
	if first == "" {
		first = action.TurnOrder[0]
	}

	return &GameState{
		ID:            action.GameID,
		Phase:         PhaseLobby,
		Players:       players,
		TurnOrder:     cloneOrder(action.TurnOrder),
		Turn:          InitTurnState(action.TurnOrder, first),
		Day:           DayState{DayNumber: 1, HasNutritionApplied: false},
		CanvasMarket:  CanvasMarket{Slots: slots},
		PaintMarket:   PaintMarket{Cubes: cloneCubes(action.InitialPaintMarket), LastUpdated: timestamp},
		PaintBag:      cloneCubes(action.PaintBag),
		CanvasDeck:    remaining,
		SellIntents:   sellIntents,
		FirstPlayerID: first,
		CreatedAt:     timestamp,
		UpdatedAt:     timestamp,
	}
}

func reduceAdvancePhase(state *GameState, action Action) *GameState {
	next := state.Clone()
	transitionPhase(&next, action.TargetPhase, action.Timestamp)
	return &next
}

func reduceDrawPaintCubes(state *GameState, action Action) *GameState {
	next := state.Clone()
	drawn, remaining := DrawFromBag(next.PaintBag, action.Count)
	next.PaintBag = remaining

	player := FindPlayer(&next, action.PlayerID)
	player.Studio.PaintCubes = append(player.Studio.PaintCubes, drawn...)

	return finalizePlayerAction(&next, action.Timestamp)
}

func reduceBuyCanvas(state *GameState, action Action) *GameState {
	next := state.Clone()
	slot := next.CanvasMarket.Slots[action.SlotIndex]
	player := FindPlayer(&next, action.PlayerID)

	// Payment comes off the front of the studio; the player does not choose
	// which cubes to spend.
	payment := player.Studio.PaintCubes[:slot.Cost]
	purchased := slot.Canvas
	purchased.OwnerID = player.ID

	next.PaintMarket.Cubes = append(next.PaintMarket.Cubes, payment...)
	if action.Timestamp != "" {
		next.PaintMarket.LastUpdated = action.Timestamp
	}
	player.Studio.PaintCubes = player.Studio.PaintCubes[slot.Cost:]
	player.Studio.Canvases = append(player.Studio.Canvases, purchased)

	// Close the gap, re-price, then back-fill from the deck head.
	slots := []MarketSlot{}
	for i, entry := range next.CanvasMarket.Slots {
		if i == action.SlotIndex {
			continue
		}
		entry.SlotIndex = len(slots)
		entry.Cost = slotCost(len(slots))
		slots = append(slots, entry)
	}
	if len(next.CanvasDeck) > 0 {
		slots = append(slots, MarketSlot{
			SlotIndex: len(slots),
			Canvas:    next.CanvasDeck[0],
			Cost:      slotCost(len(slots)),
		})
		next.CanvasDeck = next.CanvasDeck[1:]
	}
	next.CanvasMarket.Slots = slots

	return finalizePlayerAction(&next, action.Timestamp)
}

func reduceApplyPaint(state *GameState, action Action) *GameState {
	next := state.Clone()
	player := FindPlayer(&next, action.PlayerID)

	var cube PaintCube
	kept := make([]PaintCube, 0, len(player.Studio.PaintCubes)-1)
	for _, c := range player.Studio.PaintCubes {
		if c.ID == action.CubeID {
			cube = c
			continue
		}
		kept = append(kept, c)
	}
	player.Studio.PaintCubes = kept

	canvas := findPlayerCanvas(player, action.CanvasID)
	canvas.PlacedCubes[action.SquareID] = cube

	return finalizePlayerAction(&next, action.Timestamp)
}

func reduceDeclareSellIntent(state *GameState, action Action) *GameState {
	next := state.Clone()
	// Wholesale replacement of any prior declaration.
	intents := cloneOrder(action.CanvasIDs)
	if intents == nil {
		intents = []string{}
	}
	next.SellIntents[action.PlayerID] = intents
	return finalizePlayerAction(&next, action.Timestamp)
}

func reduceEndTurn(state *GameState, action Action) *GameState {
	next := state.Clone()
	return finalizePlayerAction(&next, action.Timestamp)
}
