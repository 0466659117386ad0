// Package api provides the HTTP REST API for GridRunner.
//
// Endpoints:
//
// Session Management:
//   - POST   /api/sessions                  - Create a session {"difficulty": "easy"}
//   - GET    /api/sessions                  - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET    /api/sessions/{id}             - Get a session
//   - DELETE /api/sessions/{id}             - Delete a session
//
// Levels:
//   - POST /api/sessions/{id}/difficulty   - Switch difficulty {"difficulty": "hard"}
//   - POST /api/sessions/{id}/next-level   - Play the next unplayed level of the pack
//   - POST /api/sessions/{id}/level        - Load a raw level line {"line": "A,2A;P,Y,2C,2D"}
//
// Game Operations:
//   - GET  /api/sessions/{id}/state        - Current game state
//   - POST /api/sessions/{id}/select       - Select the vehicle on a cell {"cell": "2C"}
//   - POST /api/sessions/{id}/move         - Move {"cell": "2C", "direction": "west"}
//   - POST /api/sessions/{id}/rotate       - Rotate {"cell": "4C", "direction": "cw"}
//   - POST /api/sessions/{id}/reset        - Clear the selection, or {"restart": true} to restart the level
//   - POST /api/sessions/{id}/program      - Run a block program (see package program)
//   - GET  /api/sessions/{id}/hint         - Shortest solution from here (?rotation=true)
//   - GET  /api/sessions/{id}/history      - Move history (?page=1&limit=20&order=desc)
//
// Level Packs:
//   - GET  /api/packs                      - List built-in and file packs
//   - POST /api/packs                      - Save a pack to the levels directory
//   - GET  /api/packs/{name}               - Get a pack
//
// Other:
//   - GET /api/health                      - Liveness check
//   - GET /ws?session={id}                 - WebSocket live updates
//
// The cell in move and rotate is optional. When present the vehicle on it is
// selected first; otherwise the current selection is used.
//
// Blocked moves and rotations are not errors. They answer 200 with
// "success": false and the engine status in "message".
//
// Errors are returned as JSON:
//
//	{"error": "unknown difficulty \"extreme\" (use easy, medium or hard)"}
//
// with 404 for unknown sessions and packs, 400 for malformed requests and
// unknown difficulties, 409 when no level is loaded or a program is already
// running, and 422 for invalid level lines, programs and packs.
package api
