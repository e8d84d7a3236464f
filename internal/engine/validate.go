package engine

import (
	"fmt"
	"slices"
)

// Validate runs the full rule check for an action against the current state.
// A nil return means the action is legal; Reduce assumes Validate has passed.
// State is nil only for INITIALIZE_GAME.
func Validate(state *GameState, action Action) *Error {
	switch action.Type {
	case ActionInitializeGame:
		return validateInitializeGame(action)
	case ActionAdvancePhase:
		return validateAdvancePhase(state, action)
	case ActionDrawPaintCubes:
		return validateDrawPaintCubes(state, action)
	case ActionBuyCanvas:
		return validateBuyCanvas(state, action)
	case ActionApplyPaint:
		return validateApplyPaint(state, action)
	case ActionDeclareSellIntent:
		return validateDeclareSellIntent(state, action)
	case ActionEndTurn:
		return validateEndTurn(state)
	default:
		return ruleErr("Unknown action type")
	}
}

func validateInitializeGame(action Action) *Error {
	if len(action.Players) == 0 {
		return ruleErr("At least one player is required to initialize the game")
	}

	unique := make(map[string]bool, len(action.Players))
	for _, p := range action.Players {
		unique[p.ID] = true
	}
	if len(unique) != len(action.Players) {
		return ruleErr("Player IDs must be unique during initialization")
	}

	if len(action.TurnOrder) == 0 {
		return ruleErr("Turn order must include at least one player")
	}
	for _, id := range action.TurnOrder {
		if !unique[id] {
			return ruleErr("Turn order includes unknown player IDs")
		}
	}

	if len(action.PaintBag) == 0 {
		return ruleErr("Paint bag must contain at least one cube")
	}

	if action.marketSize() > len(action.CanvasDeck) {
		return ruleErr("Canvas deck must contain enough cards for the starting market")
	}
	if len(action.CanvasDeck) == 0 {
		return ruleErr("Canvas deck must contain cards")
	}

	return nil
}

func validateAdvancePhase(state *GameState, action Action) *Error {
	if state == nil {
		return ruleErr("Game has not been initialized")
	}
	if state.Phase == PhaseEnded {
		return ruleErr("Game has already ended")
	}

	currentIdx := phaseIndex(state.Phase)
	nextIdx := currentIdx + 1
	if action.TargetPhase != "" {
		nextIdx = phaseIndex(action.TargetPhase)
		if nextIdx <= currentIdx {
			return ruleErr("Cannot transition to an earlier or identical phase")
		}
	}
	if nextIdx <= currentIdx || nextIdx == -1 || nextIdx >= len(phaseSequence) {
		return ruleErr("Invalid phase transition requested")
	}

	return nil
}

func validateDrawPaintCubes(state *GameState, action Action) *Error {
	if state == nil {
		return ruleErr("Game has not been initialized")
	}
	if action.Count < 1 {
		return ruleErr("Must draw at least one cube")
	}
	if !IsActionPhase(state.Phase) {
		return ruleErr("Cannot draw cubes outside of action phases")
	}
	if len(state.PaintBag) < action.Count {
		return ruleErr("Not enough cubes left in the bag")
	}
	if findPlayerIndex(*state, action.PlayerID) == -1 {
		return ruleErr("Unknown player attempted to draw cubes")
	}
	return nil
}

func validateBuyCanvas(state *GameState, action Action) *Error {
	if state == nil {
		return ruleErr("Game has not been initialized")
	}
	if !IsActionPhase(state.Phase) {
		return ruleErr("Cannot buy canvases outside of action phases")
	}
	if action.SlotIndex < 0 || action.SlotIndex >= len(state.CanvasMarket.Slots) {
		return ruleErr("Requested canvas slot is not available")
	}

	player := FindPlayer(state, action.PlayerID)
	if player == nil {
		return ruleErr("Unknown player attempted to buy a canvas")
	}
	if len(player.Studio.PaintCubes) < state.CanvasMarket.Slots[action.SlotIndex].Cost {
		return ruleErr("Player does not have enough cubes to purchase canvas")
	}
	return nil
}

func validateApplyPaint(state *GameState, action Action) *Error {
	if state == nil {
		return ruleErr("Game has not been initialized")
	}
	if !IsActionPhase(state.Phase) {
		return ruleErr("Cannot apply paint outside of action phases")
	}

	player := FindPlayer(state, action.PlayerID)
	if player == nil {
		return ruleErr("Unknown player attempted to place paint")
	}

	canvas := findPlayerCanvas(player, action.CanvasID)
	if canvas == nil {
		return ruleErr("Canvas not found in player studio")
	}

	var cube *PaintCube
	for i := range player.Studio.PaintCubes {
		if player.Studio.PaintCubes[i].ID == action.CubeID {
			cube = &player.Studio.PaintCubes[i]
			break
		}
	}
	if cube == nil {
		return ruleErr("Cube not available in player studio")
	}

	square := findSquare(canvas, action.SquareID)
	if square == nil {
		return ruleErr("Canvas square not found")
	}
	if _, occupied := canvas.PlacedCubes[action.SquareID]; occupied {
		return ruleErr("Square already has a cube")
	}

	if cube.Color != ColorWild && !slices.Contains(square.AllowedColors, cube.Color) {
		return ruleErr("Cube color does not match square requirements")
	}
	if cube.Color == ColorWild && WildCubeCount(canvas) >= 1 {
		return ruleErr("Only one wild cube may be used per canvas")
	}

	return nil
}

func validateDeclareSellIntent(state *GameState, action Action) *Error {
	if state == nil {
		return ruleErr("Game has not been initialized")
	}
	if state.Phase != PhaseSelling {
		return ruleErr("Sell intent may only be declared during the selling phase")
	}

	player := FindPlayer(state, action.PlayerID)
	if player == nil {
		return ruleErr("Unknown player attempted to declare sell intent")
	}

	for _, canvasID := range action.CanvasIDs {
		canvas := findPlayerCanvas(player, canvasID)
		if canvas == nil {
			return ruleErr(fmt.Sprintf("Canvas %s not owned by player", canvasID))
		}
		if !IsCanvasComplete(canvas) {
			return ruleErr(fmt.Sprintf("Canvas %s is not yet complete", canvasID))
		}
	}
	return nil
}

func validateEndTurn(state *GameState) *Error {
	if state == nil {
		return ruleErr("Game has not been initialized")
	}
	return nil
}
