// Package service provides the business logic layer for GridRunner.
//
// The service package implements:
//   - Multi-session puzzle management
//   - Level dealing, custom level loading and difficulty changes
//   - Vehicle selection, moves and rotations with event reporting
//   - Program runs and solver hints
//   - Move history pagination
//   - Level pack listing, loading and saving
//
// Core Interfaces:
//
// GameService is the main service interface used by every transport.
// SessionManager stores sessions; PackManager supplies level packs and the
// merged per-difficulty catalog each new session plays from.
//
// Concurrency:
//
// Each Session carries its own mutex. The service holds it across every
// engine call, so a session's engine only ever sees one caller at a time,
// including for the full length of a program run.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	packMgr, _ := config.NewManager("levels")
//	gameService := service.NewGameService(sessionMgr, packMgr)
//
//	info, err := gameService.CreateSession(ctx, "easy")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	res, err := gameService.Move(ctx, info.ID, "2A", "east")
//
// Soft rule violations (a blocked move, an empty cell) come back with
// Success false and the engine status in Message. Hard failures such as an
// invalid level line are returned as errors.
package service
