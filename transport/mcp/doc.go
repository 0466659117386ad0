// Package mcp exposes GridRunner to AI agents over the Model Context Protocol.
//
// The client holds no game state. Every tool call is proxied to the REST API
// (package api), so an agent and a browser watching the same session over
// WebSocket see the same board.
//
// MCP Tools:
//   - create_session, list_sessions, get_session
//   - game_state: board rendering, vehicle list and status message
//   - select_vehicle, move, rotate: play by hand
//   - set_difficulty, next_level, load_level: choose the level
//   - reset_game: clear the selection or restart the level
//   - run_program: run a block program against the session
//   - hint: next move from the solver
//   - describe_cell: what occupies a cell
//   - move_history, list_packs, game_instructions
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//
//	// stdio
//	server.ServeStdio(client.GetMCPServer())
//
//	// or over HTTP
//	response := client.GetMCPServer().HandleMessage(ctx, body)
package mcp
