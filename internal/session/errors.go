package session

import "errors"

// Authorization and resource errors raised at the session/manager boundary.
// Rule violations come out of the engine as *engine.Error values and are
// surfaced through ApplyAction unchanged; everything here is orthogonal to
// game legality.
var (
	ErrGameNotFound     = errors.New("game not found")
	ErrPlayerNotFound   = errors.New("player not found in game")
	ErrLobbyFull        = errors.New("lobby is full")
	ErrNotHost          = errors.New("only the host can start the game")
	ErrAlreadyStarted   = errors.New("game has already started")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrEmptyDeck        = errors.New("canvas deck must contain cards before starting the game")
	ErrForbiddenActor   = errors.New("player may only act as themselves")
	ErrNotYourTurn      = errors.New("player may not act now")
)
