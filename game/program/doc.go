// Package program runs vehicle programs against a puzzle engine.
//
// A Program holds one Stack per programmed vehicle. Each stack is a list of
// instructions (move, rotate, wait). Runner plays them row by row across
// stacks, pausing between steps so clients can animate progress, and stops as
// soon as the player exits.
//
// Programs arrive as JSON:
//
//	{"stacks": [
//	  {"vehicle": 1, "instructions": [{"op": "move", "direction": "south"}]},
//	  {"vehicle": 0, "instructions": [{"op": "wait"}, {"op": "move", "direction": "west"}]}
//	]}
package program
