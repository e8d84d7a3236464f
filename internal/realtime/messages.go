package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/atelier-hq/atelier-backend/internal/engine"
	"github.com/atelier-hq/atelier-backend/internal/session"
)

// Server frame types pushed to lobby and game rooms.
const (
	MsgLobbyState       = "LOBBY_STATE"
	MsgGameStarted      = "GAME_STARTED"
	MsgGameStateUpdated = "GAME_STATE_UPDATED"
	MsgError            = "ERROR"
)

// Client frame types accepted on game sockets.
const (
	MsgGameAction = "GAME_ACTION"
)

type serverMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

type statePayload struct {
	State      *engine.GameState      `json:"state"`
	LastAction *session.ActionSummary `json:"lastAction,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type clientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func encodeFrame(msgType string, payload any, reason string) []byte {
	data, err := json.Marshal(serverMessage{Type: msgType, Payload: payload, Reason: reason})
	if err != nil {
		// Every payload here is a plain struct; a marshal failure is a bug.
		panic(fmt.Sprintf("realtime: encode %s frame: %v", msgType, err))
	}
	return data
}

func errorFrame(message string) []byte {
	return encodeFrame(MsgError, errorPayload{Message: message}, "")
}

// buildGameAction decodes an inbound action intent and pins its actor to the
// authenticated player. Clients cannot act on another player's behalf no
// matter what the frame claims. Only the player-actor action types are
// accepted: lifecycle actions like INITIALIZE_GAME and ADVANCE_PHASE carry no
// actor, bypass the turn check, and are never a client's to send.
func buildGameAction(raw json.RawMessage, playerID string) (engine.Action, error) {
	var action engine.Action
	if err := json.Unmarshal(raw, &action); err != nil {
		return engine.Action{}, fmt.Errorf("malformed action: %w", err)
	}
	if !action.HasActor() {
		return engine.Action{}, fmt.Errorf("unhandled action intent: %q", action.Type)
	}
	action.PlayerID = playerID
	return action, nil
}
