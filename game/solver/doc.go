// Package solver finds the shortest way out of a GridRunner level.
//
// Solve explores positions breadth-first, applying the same slide and
// rotation rules the engine enforces during play. Rotations are optional
// because they multiply the search space. A solution is a list of actions
// whose last entry is the player's exit move.
//
// Usage:
//
//	sol, err := solver.Solve(engine.GridFor(engine.Easy), level, nil, solver.Options{})
//	if errors.Is(err, solver.ErrUnsolvable) {
//		...
//	}
package solver
