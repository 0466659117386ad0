package service

import (
	"time"

	"github.com/wricardo/mcp-training/gridrunner/game/engine"
	"github.com/wricardo/mcp-training/gridrunner/game/program"
	"github.com/wricardo/mcp-training/gridrunner/game/solver"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string            `json:"id"`
	Difficulty     engine.Difficulty `json:"difficulty"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	GameState      *engine.GameState `json:"game_state"`
}

// ActionResult contains the result of a selection, move, rotation or level change.
// Success is false for soft rejections; Message carries the engine status.
type ActionResult struct {
	Success   bool              `json:"success"`
	GameState *engine.GameState `json:"game_state"`
	Message   string            `json:"message"`
	Events    []GameEvent       `json:"events,omitempty"`
}

// Event types
const (
	EventSelect     = "select"
	EventMove       = "move"
	EventRotate     = "rotate"
	EventBlocked    = "blocked"
	EventVictory    = "victory"
	EventLevel      = "level_loaded"
	EventLevelError = "level_error"
	EventDifficulty = "difficulty"
	EventRestart    = "restart"
	EventReset      = "reset"
)

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Vehicle   *int      `json:"vehicle,omitempty"`
	Cells     []string  `json:"cells,omitempty"`
}

// ProgramResult is the outcome of a program run and the state it left behind
type ProgramResult struct {
	*program.Result
	GameState *engine.GameState `json:"game_state"`
}

// HintResult carries the shortest known solution from the current position
type HintResult struct {
	Solvable       bool            `json:"solvable"`
	Next           *solver.Action  `json:"next,omitempty"`
	Actions        []solver.Action `json:"actions,omitempty"`
	MovesLeft      int             `json:"moves_left"`
	StatesExplored int             `json:"states_explored"`
	AllowRotation  bool            `json:"allow_rotation"`
	Message        string          `json:"message"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// PackInfo provides information about a level pack
type PackInfo struct {
	Filename    string            `json:"filename,omitempty"`
	PackID      string            `json:"pack_id"` // The identifier to load the pack with
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Difficulty  engine.Difficulty `json:"difficulty"`
	LevelCount  int               `json:"level_count"`
	Builtin     bool              `json:"builtin"`
}
