// Package engine provides the core puzzle logic for GridRunner, a sliding
// vehicle ("Rush-Hour" style) grid puzzle.
//
// The engine package implements:
//   - Cell label parsing and formatting ("3B" is row 3, column B)
//   - Grid geometry: orientation, range expansion, edge-most cells
//   - Collision checks for slides and for the sweep of a rotation
//   - Level-line parsing and validation
//   - Per-difficulty level packs dispensed through a shuffled, non-repeating queue
//   - Select, move, rotate, reset and win detection
//
// Core Types:
//
// Catalog owns the level packs, the active difficulty and the last parsed
// Level. The Engine interface, implemented by PuzzleEngine, owns the live
// vehicle positions copied from that level together with the selection, the
// win flag and the status message.
//
// Level Lines:
//
//	<exitSide>,<exitCell>;<type>,<color>,<startCell>,<endCell>[;...]
//
// Example: "C,2D;P,Y,2A,2B;C,R,1C,2C;C,G,3B,3C;C,B,4C,4D". Exit sides are
// A (west), B (north), C (east) and D (south). Types are C (car, 2 cells),
// B (bus, 3), T (truck, 4) and P (player, 2). Colors are R, G, B and Y.
// Fields are case-insensitive.
//
// Usage:
//
//	eng := engine.NewEngine(nil)
//	eng.SelectDifficulty(engine.Easy)
//	if err := eng.PlayRandomUnplayed(); err != nil {
//		log.Fatal(err)
//	}
//
//	eng.SelectAt("2A")
//	eng.MoveDirection("right")
//	state := eng.GetState()
//
// Errors:
//
// Malformed input (bad cell labels, unknown tokens, invalid level lines) is
// returned as FormatError or ValidationError. Blocked moves and rotations are
// normal play: they return false and leave the reason in Status.
//
// The engine does no I/O and holds no locks; callers serialize access.
package engine
