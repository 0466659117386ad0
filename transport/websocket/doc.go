// Package websocket pushes GridRunner session updates to browsers and other
// watchers.
//
// A single Hub goroutine owns every connection. Clients join one session via
// the /ws?session=<id> endpoint and receive JSON messages:
//
//	{"session_id": "a1f3", "event": "state_update", "game_state": {...}}
//	{"session_id": "a1f3", "event": "program_step", "data": {"row": 0, ...}}
//	{"session_id": "a1f3", "event": "program_done", "data": {"won": true, ...}}
//
// The socket is push-only. Incoming frames are read and discarded so that
// pings, pongs and close frames keep working; game actions go through the
// REST API.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	hub.BroadcastToSession(sessionID, state)
//
// Broadcasts never block the caller. A client whose buffer is full is
// disconnected.
package websocket
