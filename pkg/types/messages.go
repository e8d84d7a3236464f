package types

// Wire protocol for realtime clients. Frames are JSON objects with a type
// tag; GAME_STATE_UPDATED always carries the full authoritative state, so a client
// that misses a frame catches up on the next one.

// Client -> Server (game socket only; lobby sockets are push-only)
// GAME_ACTION:
//   payload:
//     type: "DRAW_PAINT_CUBES" | "BUY_CANVAS" | "APPLY_PAINT_TO_CANVAS" |
//           "DECLARE_SELL_INTENT" | "END_TURN"
//     count: number          // DRAW_PAINT_CUBES
//     slotIndex: number      // BUY_CANVAS
//     canvasId: string       // APPLY_PAINT_TO_CANVAS
//     squareId: string       // APPLY_PAINT_TO_CANVAS
//     cubeId: string         // APPLY_PAINT_TO_CANVAS
//     canvasIds: string[]    // DECLARE_SELL_INTENT
//   Only the five player intents above are accepted; lifecycle actions such
//   as INITIALIZE_GAME and ADVANCE_PHASE are rejected with an ERROR frame.
//   The playerId inside the payload is ignored; the server uses the
//   authenticated player from the connection.

// Server -> Client
// LOBBY_STATE (lobby room):
//   payload: lobby snapshot (players, readiness, joinLink)
//   reason: "created" | "join" | "reconnect" | "leave" | "start"
//
// GAME_STARTED (lobby room):
//   payload: full game state
//
// GAME_STATE_UPDATED (game room):
//   payload:
//     state: full game state
//     lastAction: { playerId, actionType, timestamp } // omitted on start
//
// ERROR:
//   payload: { message: string }
//   Sent to the offending connection only. An unauthorized connection gets
//   one ERROR frame and is closed without ever joining a room.
