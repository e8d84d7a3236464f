package engine

import "slices"

// phaseSequence is the only legal ordering of phases. SELLING loops back to
// MORNING on day rollover; ENDED is reached by an explicit transition only.
var phaseSequence = []Phase{PhaseLobby, PhaseMorning, PhaseAfternoon, PhaseSelling, PhaseEnded}

func phaseIndex(p Phase) int {
	return slices.Index(phaseSequence, p)
}

// IsActionPhase reports whether draw/buy/paint actions are legal in p.
func IsActionPhase(p Phase) bool {
	return p == PhaseMorning || p == PhaseAfternoon
}

// trackedPhase phases count actions toward an automatic phase advance.
func trackedPhase(p Phase) bool {
	return IsActionPhase(p) || p == PhaseSelling
}

// NextPhase returns the phase an implicit advance lands on.
func NextPhase(current Phase) Phase {
	if current == PhaseSelling {
		return PhaseMorning
	}
	idx := phaseIndex(current)
	if idx == -1 || idx == len(phaseSequence)-1 {
		return PhaseEnded
	}
	return phaseSequence[idx+1]
}

func rotateToFirst(order []string, first string) []string {
	out := cloneOrder(order)
	idx := slices.Index(order, first)
	if idx <= 0 {
		return out
	}
	return append(out[idx:], out[:idx]...)
}

func buildDynamicOrder(canonical []string, first string) []string {
	if first == "" || len(canonical) == 0 {
		return cloneOrder(canonical)
	}
	return rotateToFirst(canonical, first)
}

func rotateFirstForward(canonical []string, current string) string {
	if len(canonical) == 0 {
		return ""
	}
	if current == "" {
		current = canonical[0]
	}
	idx := slices.Index(canonical, current)
	if idx == -1 {
		return canonical[0]
	}
	return canonical[(idx+1)%len(canonical)]
}

// InitTurnState builds the day-one dynamic order by rotating the canonical
// order so it starts at the designated first player.
func InitTurnState(canonical []string, first string) TurnState {
	return TurnState{
		Order:                 buildDynamicOrder(canonical, first),
		CurrentPlayerIndex:    0,
		ActionsTakenThisPhase: 0,
	}
}

// CurrentPlayerID returns the id whose turn it is, or "" pre-start.
func CurrentPlayerID(s GameState) string {
	if len(s.Turn.Order) == 0 {
		return ""
	}
	return s.Turn.Order[s.Turn.CurrentPlayerIndex]
}

func IsPlayersTurn(s GameState, playerID string) bool {
	return CurrentPlayerID(s) == playerID
}

// advanceTurnAfterAction moves the round-robin pointer and reports whether the
// phase completed (every player in the dynamic order acted once). Mutates s,
// which must already be a clone.
func advanceTurnAfterAction(s *GameState) bool {
	if len(s.Turn.Order) == 0 {
		return false
	}
	s.Turn.CurrentPlayerIndex = (s.Turn.CurrentPlayerIndex + 1) % len(s.Turn.Order)
	s.Turn.ActionsTakenThisPhase++
	return trackedPhase(s.Phase) && s.Turn.ActionsTakenThisPhase >= len(s.Turn.Order)
}

// applyDailyNutrition ticks every player down one nutrition, floored at zero.
// Day one and already-ticked days are skipped; the flag flips either way.
func applyDailyNutrition(s *GameState) {
	if s.Day.HasNutritionApplied || s.Day.DayNumber == 1 {
		s.Day.HasNutritionApplied = true
		return
	}
	for i := range s.Players {
		if s.Players[i].Nutrition > 0 {
			s.Players[i].Nutrition--
		}
	}
	s.Day.HasNutritionApplied = true
}

// transitionPhase moves s to target (or the next phase in sequence when target
// is empty). A SELLING to MORNING move rolls the day over: the day counter
// increments, the first-player slot rotates forward one position in the
// canonical order and the dynamic order is rebuilt from it. Mutates s.
func transitionPhase(s *GameState, target Phase, timestamp string) {
	next := target
	if next == "" {
		next = NextPhase(s.Phase)
	}
	if timestamp == "" {
		timestamp = s.UpdatedAt
	}

	newDay := s.Phase == PhaseSelling && next == PhaseMorning

	if newDay {
		s.FirstPlayerID = rotateFirstForward(s.TurnOrder, s.FirstPlayerID)
		s.Turn.Order = buildDynamicOrder(s.TurnOrder, s.FirstPlayerID)
		s.Day = DayState{DayNumber: s.Day.DayNumber + 1, HasNutritionApplied: false}
	}

	s.Phase = next
	s.Turn.CurrentPlayerIndex = 0
	s.Turn.ActionsTakenThisPhase = 0
	s.UpdatedAt = timestamp

	if next == PhaseMorning {
		applyDailyNutrition(s)
	}
}
