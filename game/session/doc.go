// Package session provides in-memory session management for GridRunner.
//
// Each session owns a puzzle engine (with its own level catalog and play
// queue) and a program runner. Sessions are identified by short ids: callers
// may pick one, otherwise a random 4-character hex id is generated. Lookups
// are case-insensitive.
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Create("", engine.NewCatalog(nil, nil))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//
// The manager is safe for concurrent use. It does not serialize access to a
// session's engine; the service layer does that with the session's own lock.
//
// Sessions are not persisted. CleanupExpiredSessions drops sessions idle for
// longer than a given age, skipping any that are mid-program.
package session
