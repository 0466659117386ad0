package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/gridrunner/game/engine"
	"github.com/wricardo/mcp-training/gridrunner/game/program"
	"github.com/wricardo/mcp-training/gridrunner/game/solver"
)

const msgNoSelection = "Select a vehicle first."

// Options tunes a game service
type Options struct {
	// Seed makes every session's play queue deterministic when non-zero
	Seed uint64
	// HintMaxStates bounds the solver behind Hint
	HintMaxStates int
}

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	packs    PackManager
	opts     Options
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, packs PackManager) GameService {
	return NewGameServiceWithOptions(sessions, packs, Options{})
}

// NewGameServiceWithOptions creates a game service with explicit options
func NewGameServiceWithOptions(sessions SessionManager, packs PackManager, opts Options) GameService {
	if opts.HintMaxStates <= 0 {
		opts.HintMaxStates = solver.DefaultMaxStates
	}
	return &gameServiceImpl{
		sessions: sessions,
		packs:    packs,
		opts:     opts,
	}
}

func (s *gameServiceImpl) newCatalog() *engine.Catalog {
	lines := s.packs.Catalog()
	if s.opts.Seed != 0 {
		return engine.NewSeededCatalog(lines, s.opts.Seed)
	}
	return engine.NewCatalog(lines, nil)
}

// CreateSession creates a new game session and deals its first level. An
// empty difficulty uses the default pack's difficulty.
func (s *gameServiceImpl) CreateSession(ctx context.Context, difficulty string) (*SessionInfo, error) {
	d := engine.Easy
	if def := s.packs.GetDefault(); def != nil {
		d = def.Difficulty
	}
	if difficulty != "" {
		var err error
		d, err = engine.ParseDifficulty(difficulty)
		if err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", s.newCatalog())
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	sess.Lock()
	defer sess.Unlock()

	sess.Engine.SelectDifficulty(d)
	if err := sess.Engine.PlayRandomUnplayed(); err != nil {
		log.Printf("[SESSION] %s: no starting level: %v", sess.ID, err)
	}

	return sessionInfo(sess), nil
}

func sessionInfo(sess *Session) *SessionInfo {
	state := sess.Engine.GetState()
	return &SessionInfo{
		ID:             sess.ID,
		Difficulty:     state.Difficulty,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessed(),
		GameState:      state,
	}
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()
	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions, oldest first
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	sessions := s.sessions.List()
	s.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		sess.Lock()
		result = append(result, sessionInfo(sess))
		sess.Unlock()
	}
	return result, nil
}

// SessionExists reports whether sessionID names a live session. It does not
// wait on a program run holding the session.
func (s *gameServiceImpl) SessionExists(ctx context.Context, sessionID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.sessions.Get(sessionID); err != nil {
		return fmt.Errorf("session not found: %w", err)
	}
	return nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// session looks up a session and marks it accessed
func (s *gameServiceImpl) session(sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// withEngine runs fn against the session's engine under the session lock
func (s *gameServiceImpl) withEngine(sessionID string, fn func(eng engine.Engine) (*ActionResult, error)) (*ActionResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	res, err := fn(sess.Engine)
	if res != nil {
		res.GameState = sess.Engine.GetState()
		if res.Message == "" {
			res.Message = res.GameState.Message
		}
	}
	return res, err
}

func event(typ, msg string) GameEvent {
	return GameEvent{Type: typ, Message: msg, Timestamp: time.Now()}
}

func vehicleEvent(typ, msg string, idx int, cells []string) GameEvent {
	ev := event(typ, msg)
	ev.Vehicle = &idx
	ev.Cells = cells
	return ev
}

// SelectDifficulty switches the session to another tier. The loaded level is
// dropped; call NextLevel to deal one.
func (s *gameServiceImpl) SelectDifficulty(ctx context.Context, sessionID, difficulty string) (*ActionResult, error) {
	d, err := engine.ParseDifficulty(difficulty)
	if err != nil {
		return nil, err
	}

	return s.withEngine(sessionID, func(eng engine.Engine) (*ActionResult, error) {
		eng.SelectDifficulty(d)
		return &ActionResult{
			Success: true,
			Events:  []GameEvent{event(EventDifficulty, eng.Status())},
		}, nil
	})
}

// NextLevel deals the next level from the shuffled play queue
func (s *gameServiceImpl) NextLevel(ctx context.Context, sessionID string) (*ActionResult, error) {
	return s.withEngine(sessionID, func(eng engine.Engine) (*ActionResult, error) {
		if err := eng.PlayRandomUnplayed(); err != nil {
			return &ActionResult{Events: []GameEvent{event(EventLevelError, eng.Status())}}, err
		}
		return &ActionResult{
			Success: true,
			Events:  []GameEvent{event(EventLevel, eng.Status())},
		}, nil
	})
}

// LoadLevel parses and plays a custom level line. Validation failures come
// back as errors wrapping engine.ErrInvalidLevel alongside the result.
func (s *gameServiceImpl) LoadLevel(ctx context.Context, sessionID, line string) (*ActionResult, error) {
	return s.withEngine(sessionID, func(eng engine.Engine) (*ActionResult, error) {
		if err := eng.LoadLevelLine(line); err != nil {
			return &ActionResult{Events: []GameEvent{event(EventLevelError, eng.Status())}}, err
		}
		return &ActionResult{
			Success: true,
			Events:  []GameEvent{event(EventLevel, eng.Status())},
		}, nil
	})
}

// Select selects the vehicle covering cell
func (s *gameServiceImpl) Select(ctx context.Context, sessionID, cell string) (*ActionResult, error) {
	return s.withEngine(sessionID, func(eng engine.Engine) (*ActionResult, error) {
		return selectCell(eng, cell), nil
	})
}

func selectCell(eng engine.Engine, cell string) *ActionResult {
	if !eng.SelectAt(cell) {
		msg := eng.Status()
		if eng.IsWon() {
			msg = "Level complete. Load the next level to keep playing."
		}
		return &ActionResult{Message: msg}
	}
	idx := eng.Selected()
	return &ActionResult{
		Success: true,
		Events:  []GameEvent{vehicleEvent(EventSelect, eng.Status(), idx, eng.GetVehicles()[idx].Cells)},
	}
}

// Move slides a vehicle one cell. A non-empty cell selects the vehicle first;
// otherwise the current selection moves.
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, cell, direction string) (*ActionResult, error) {
	return s.withEngine(sessionID, func(eng engine.Engine) (*ActionResult, error) {
		return act(eng, cell, EventMove, func() bool { return eng.MoveDirection(direction) }), nil
	})
}

// Rotate turns a vehicle a quarter turn, selecting it by cell first when given
func (s *gameServiceImpl) Rotate(ctx context.Context, sessionID, cell, direction string) (*ActionResult, error) {
	return s.withEngine(sessionID, func(eng engine.Engine) (*ActionResult, error) {
		return act(eng, cell, EventRotate, func() bool { return eng.RotateDirection(direction) }), nil
	})
}

func act(eng engine.Engine, cell, typ string, do func() bool) *ActionResult {
	var events []GameEvent
	if cell != "" {
		sel := selectCell(eng, cell)
		if !sel.Success {
			return sel
		}
		events = append(events, sel.Events...)
	}
	if eng.Selected() == engine.NoSelection {
		return &ActionResult{Message: msgNoSelection, Events: events}
	}

	idx := eng.Selected()
	ok := do()
	res := &ActionResult{Success: ok, Message: eng.Status(), Events: events}

	switch {
	case eng.IsWon():
		res.Events = append(res.Events, event(EventVictory, eng.Status()))
	case ok:
		res.Events = append(res.Events, vehicleEvent(typ, eng.Status(), idx, eng.GetVehicles()[idx].Cells))
	default:
		res.Events = append(res.Events, vehicleEvent(EventBlocked, eng.Status(), idx, nil))
	}
	return res
}

// Reset clears selection and win flag. With restart, vehicles also return to
// their starting cells.
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string, restart bool) (*ActionResult, error) {
	return s.withEngine(sessionID, func(eng engine.Engine) (*ActionResult, error) {
		if !restart {
			eng.Reset()
			return &ActionResult{
				Success: true,
				Message: "Selection cleared.",
				Events:  []GameEvent{event(EventReset, "Selection cleared.")},
			}, nil
		}
		if err := eng.RestartLevel(); err != nil {
			return &ActionResult{Message: "No level loaded."}, err
		}
		return &ActionResult{
			Success: true,
			Events:  []GameEvent{event(EventRestart, eng.Status())},
		}, nil
	})
}

// RunProgram executes prog on the session's engine, holding the session for
// the whole run. onStep is called after every instruction.
func (s *gameServiceImpl) RunProgram(ctx context.Context, sessionID string, prog *program.Program, onStep func(program.Step)) (*ProgramResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Runner.Running() {
		return &ProgramResult{Result: &program.Result{Message: program.MsgAlreadyRunning}}, program.ErrAlreadyRunning
	}

	sess.Lock()
	defer sess.Unlock()

	if sess.Engine.GetLevel() == nil {
		return nil, engine.ErrNoLevel
	}

	res, err := sess.Runner.Run(ctx, sess.Engine, prog, onStep)
	out := &ProgramResult{Result: res, GameState: sess.Engine.GetState()}
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return out, err
	}
	if res != nil {
		log.Printf("[PROGRAM] session=%s steps=%d won=%v", sess.ID, res.Steps, res.Won)
	}
	return out, nil
}

// Hint solves the level from the current vehicle positions
func (s *gameServiceImpl) Hint(ctx context.Context, sessionID string, allowRotation bool) (*HintResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	level := sess.Engine.GetLevel()
	grid := sess.Engine.Grid()
	vehicles := sess.Engine.GetVehicles()
	won := sess.Engine.IsWon()
	sess.Unlock()

	if level == nil {
		return nil, engine.ErrNoLevel
	}

	res := &HintResult{AllowRotation: allowRotation}
	if won {
		res.Solvable = true
		res.Message = "Level already solved."
		return res, nil
	}

	sol, err := solver.Solve(grid, level, vehicles, solver.Options{
		MaxStates:     s.opts.HintMaxStates,
		AllowRotation: allowRotation,
	})
	switch {
	case errors.Is(err, solver.ErrUnsolvable):
		res.Message = "No solution from this position."
		if !allowRotation {
			res.Message += " Try allowing rotations."
		}
		return res, nil
	case errors.Is(err, solver.ErrSearchLimit):
		res.Message = "Search gave up before finding a solution."
		return res, nil
	case err != nil:
		return nil, err
	}

	res.Solvable = true
	res.Actions = sol.Actions
	res.MovesLeft = len(sol.Actions)
	res.StatesExplored = sol.StatesExplored
	if len(sol.Actions) > 0 {
		next := sol.Actions[0]
		res.Next = &next
		res.Message = fmt.Sprintf("Next: %s %s %s (%d moves left).", next.Op, vehicles[next.Vehicle].Label(), next.Direction, len(sol.Actions))
	}
	return res, nil
}

// GetGameState returns the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()
	return sess.Engine.GetState(), nil
}

// GetMoveHistory returns a page of the session's move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	history := sess.Engine.GetMoveHistory()
	sess.Unlock()

	return paginate(history, opts), nil
}

func paginate(history []engine.MoveHistoryEntry, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := min((opts.Page-1)*opts.Limit, total)
	end := min(start+opts.Limit, total)

	moves := make([]engine.MoveHistoryEntry, 0, end-start)
	if opts.Order == "desc" {
		for i := total - 1 - start; i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else {
		moves = append(moves, history[start:end]...)
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}
}

// ListPacks returns information about all available level packs
func (s *gameServiceImpl) ListPacks(ctx context.Context) ([]*PackInfo, error) {
	return s.packs.ListPacks()
}

// LoadPack loads a level pack by name
func (s *gameServiceImpl) LoadPack(ctx context.Context, name string) (*engine.LevelPack, error) {
	return s.packs.LoadPack(name)
}

// SavePack validates and stores a level pack
func (s *gameServiceImpl) SavePack(ctx context.Context, name string, pack *engine.LevelPack) error {
	return s.packs.SavePack(name, pack)
}
