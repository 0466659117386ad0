package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wricardo/mcp-training/gridrunner/game/engine"
	"github.com/wricardo/mcp-training/gridrunner/game/program"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, difficulty string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error
	// SessionExists checks a session id without taking the session lock
	SessionExists(ctx context.Context, sessionID string) error

	// Levels
	SelectDifficulty(ctx context.Context, sessionID, difficulty string) (*ActionResult, error)
	NextLevel(ctx context.Context, sessionID string) (*ActionResult, error)
	LoadLevel(ctx context.Context, sessionID, line string) (*ActionResult, error)

	// Game Operations
	Select(ctx context.Context, sessionID, cell string) (*ActionResult, error)
	Move(ctx context.Context, sessionID, cell, direction string) (*ActionResult, error)
	Rotate(ctx context.Context, sessionID, cell, direction string) (*ActionResult, error)
	Reset(ctx context.Context, sessionID string, restart bool) (*ActionResult, error)
	RunProgram(ctx context.Context, sessionID string, prog *program.Program, onStep func(program.Step)) (*ProgramResult, error)
	Hint(ctx context.Context, sessionID string, allowRotation bool) (*HintResult, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Level packs
	ListPacks(ctx context.Context) ([]*PackInfo, error)
	LoadPack(ctx context.Context, name string) (*engine.LevelPack, error)
	SavePack(ctx context.Context, name string, pack *engine.LevelPack) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, catalog *engine.Catalog) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, catalog *engine.Catalog) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// PackManager handles level pack loading
type PackManager interface {
	LoadPack(name string) (*engine.LevelPack, error)
	ListPacks() ([]*PackInfo, error)
	SavePack(name string, pack *engine.LevelPack) error
	Catalog() map[engine.Difficulty][]string
	GetDefault() *engine.LevelPack
}

// Session represents an active game session. Callers hold the session lock
// around every engine call. The last access time is kept outside that lock so
// it can be read and updated while a program run holds the session.
type Session struct {
	sync.Mutex

	ID        string
	Engine    engine.Engine
	Runner    *program.Runner
	CreatedAt time.Time

	lastAccessed atomic.Int64 // unix nanoseconds
}

// Touch records an access at t
func (s *Session) Touch(t time.Time) {
	s.lastAccessed.Store(t.UnixNano())
}

// LastAccessed returns the time of the most recent Touch
func (s *Session) LastAccessed() time.Time {
	return time.Unix(0, s.lastAccessed.Load())
}
