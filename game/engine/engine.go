package engine

import (
	"fmt"
	"time"
)

// Engine provides the main interface for puzzle operations
type Engine interface {
	// State
	GetState() *GameState
	GetLevel() *Level
	GetVehicles() []Vehicle
	Selected() int
	IsWon() bool
	Status() string
	Grid() *GridSpec
	Catalog() *Catalog

	// Levels
	SelectDifficulty(d Difficulty)
	PlayRandomUnplayed() error
	LoadLevelLine(line string) error
	RestartLevel() error
	Reset()

	// Play
	SelectAt(label string) bool
	SelectIndex(i int) bool
	Move(dx, dy int) bool
	MoveDirection(direction string) bool
	Rotate(clockwise bool) bool
	RotateDirection(direction string) bool

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry
}

// PuzzleEngine implements Engine. It owns the live vehicle positions; the
// catalog owns the immutable level they were copied from. Callers serialize
// access.
type PuzzleEngine struct {
	catalog  *Catalog
	vehicles []Vehicle
	selected int
	won      bool
	status   string
	history  []MoveHistoryEntry
	moves    int
}

// NewEngine creates an engine over catalog, or over the built-in packs when nil.
// No level is loaded until PlayRandomUnplayed or LoadLevelLine.
func NewEngine(catalog *Catalog) *PuzzleEngine {
	if catalog == nil {
		catalog = NewCatalog(nil, nil)
	}
	return &PuzzleEngine{
		catalog:  catalog,
		selected: NoSelection,
	}
}

// GetState returns a snapshot of the engine
func (e *PuzzleEngine) GetState() *GameState {
	grid := e.Grid()
	state := &GameState{
		Difficulty:     grid.Difficulty,
		GridSize:       grid.Size,
		CellSizePx:     grid.CellSizePx,
		CellPrefix:     grid.Prefix,
		Vehicles:       cloneVehicles(e.vehicles),
		Selected:       e.selected,
		Won:            e.won,
		Message:        e.status,
		LevelIndex:     e.catalog.CurrentIndex(),
		LevelLine:      e.catalog.LastLine(),
		PackSize:       e.catalog.PackSize(),
		QueueRemaining: e.catalog.QueueRemaining(),
		TotalMoves:     e.moves,
	}
	if state.Vehicles == nil {
		state.Vehicles = []Vehicle{}
	}
	if lvl := e.catalog.Level(); lvl != nil {
		state.ExitSide = lvl.ExitSide
		state.ExitCell = lvl.ExitCell
	}
	state.Board = RenderBoard(grid, e.catalog.Level(), e.vehicles)
	return state
}

// GetLevel returns the level being played, nil when none
func (e *PuzzleEngine) GetLevel() *Level {
	return e.catalog.Level()
}

// GetVehicles returns a copy of the live vehicles
func (e *PuzzleEngine) GetVehicles() []Vehicle {
	return cloneVehicles(e.vehicles)
}

// Selected returns the selected vehicle index or NoSelection
func (e *PuzzleEngine) Selected() int {
	return e.selected
}

// IsWon returns whether the player has exited
func (e *PuzzleEngine) IsWon() bool {
	return e.won
}

// Status returns the message of the last operation
func (e *PuzzleEngine) Status() string {
	return e.status
}

// Grid returns the grid of the active difficulty
func (e *PuzzleEngine) Grid() *GridSpec {
	return e.catalog.Grid()
}

// Catalog exposes the level catalog behind the engine
func (e *PuzzleEngine) Catalog() *Catalog {
	return e.catalog
}

// SelectDifficulty switches tiers; on a change the live level is dropped.
// Reselecting the active tier keeps the level but still reports it.
func (e *PuzzleEngine) SelectDifficulty(d Difficulty) {
	if d == e.catalog.Difficulty() {
		e.status = fmt.Sprintf("Difficulty: %s.", GridFor(d).Name)
		return
	}
	e.catalog.SelectDifficulty(d)
	e.vehicles = nil
	e.Reset()
	e.status = fmt.Sprintf("Difficulty: %s.", GridFor(d).Name)
}

// PlayRandomUnplayed loads the next level from the play queue
func (e *PuzzleEngine) PlayRandomUnplayed() error {
	level, err := e.catalog.PlayRandomUnplayed()
	return e.adopt(level, err)
}

// LoadLevelLine parses line and, on success, starts playing it. A failed
// parse leaves no level loaded and the reason in Status.
func (e *PuzzleEngine) LoadLevelLine(line string) error {
	level, err := e.catalog.LoadLevelLine(line)
	return e.adopt(level, err)
}

func (e *PuzzleEngine) adopt(level *Level, err error) error {
	e.selected = NoSelection
	e.won = false
	if err != nil {
		e.vehicles = nil
		e.status = e.catalog.Status()
		return err
	}
	e.vehicles = cloneVehicles(level.Vehicles)
	e.status = e.catalog.Status()
	return nil
}

// RestartLevel puts every vehicle back on its starting cells
func (e *PuzzleEngine) RestartLevel() error {
	level := e.catalog.Level()
	if level == nil {
		return ErrNoLevel
	}
	e.vehicles = cloneVehicles(level.Vehicles)
	e.selected = NoSelection
	e.won = false
	e.status = "Level restarted."
	return nil
}

// Reset clears selection, win flag and status. Vehicles stay where they are.
func (e *PuzzleEngine) Reset() {
	e.selected = NoSelection
	e.won = false
	e.status = ""
}

// SelectAt selects the first vehicle covering label. Prefixed keys such as
// "E-2A" are accepted. Returns false and clears the selection on a miss.
func (e *PuzzleEngine) SelectAt(label string) bool {
	if e.won {
		return false
	}
	if r, c, err := ParseCell(StripPrefix(label, e.Grid().Prefix)); err == nil {
		label = FormatCell(r, c)
	}
	for i, v := range e.vehicles {
		for _, cell := range v.Cells {
			if cell == label {
				e.selected = i
				e.status = "Selected: " + v.Label()
				return true
			}
		}
	}
	e.selected = NoSelection
	e.status = "Selected: (none)"
	return false
}

// SelectIndex selects a vehicle by position in the vehicle list
func (e *PuzzleEngine) SelectIndex(i int) bool {
	if e.won {
		return false
	}
	if i < 0 || i >= len(e.vehicles) {
		e.selected = NoSelection
		e.status = "Selected: (none)"
		return false
	}
	e.selected = i
	e.status = "Selected: " + e.vehicles[i].Label()
	return true
}

func (e *PuzzleEngine) hasSelection() bool {
	return e.selected >= 0 && e.selected < len(e.vehicles)
}

// Move slides the selected vehicle one cell. It is a no-op without a
// selection or after a win; rejections return false and set Status.
func (e *PuzzleEngine) Move(dx, dy int) bool {
	if !e.hasSelection() || e.won {
		return false
	}

	idx := e.selected
	from := append([]string(nil), e.vehicles[idx].Cells...)
	out := SlideVehicle(e.Grid(), e.catalog.Level(), e.vehicles, idx, dx, dy)
	e.status = out.Message

	switch {
	case out.Won:
		e.won = true
		e.selected = NoSelection
	case out.OK:
		e.vehicles[idx].Cells = out.Cells
	}

	e.record("move", DirectionName(dx, dy), idx, from, out)
	return out.OK
}

// MoveDirection is Move with a named direction (up, down, left, right or compass names)
func (e *PuzzleEngine) MoveDirection(direction string) bool {
	dx, dy, ok := DirectionDelta(direction)
	if !ok {
		e.status = fmt.Sprintf("Unknown direction '%s'.", direction)
		return false
	}
	return e.Move(dx, dy)
}

// Rotate turns the selected vehicle a quarter turn about its first cell
func (e *PuzzleEngine) Rotate(clockwise bool) bool {
	if !e.hasSelection() || e.won {
		return false
	}

	idx := e.selected
	from := append([]string(nil), e.vehicles[idx].Cells...)
	out := RotateVehicle(e.Grid(), e.vehicles, idx, clockwise)
	e.status = out.Message
	if out.OK {
		e.vehicles[idx].Cells = out.Cells
	}

	dir := "ccw"
	if clockwise {
		dir = "cw"
	}
	e.record("rotate", dir, idx, from, out)
	return out.OK
}

// RotateDirection is Rotate with a named direction (cw or ccw)
func (e *PuzzleEngine) RotateDirection(direction string) bool {
	clockwise, ok := ParseRotation(direction)
	if !ok {
		e.status = fmt.Sprintf("Unknown rotation '%s'.", direction)
		return false
	}
	return e.Rotate(clockwise)
}

func (e *PuzzleEngine) record(action, direction string, idx int, from []string, out Outcome) {
	e.moves++
	e.history = append(e.history, MoveHistoryEntry{
		Action:     action,
		Direction:  direction,
		Vehicle:    idx,
		From:       from,
		To:         out.Cells,
		Success:    out.OK,
		Won:        out.Won,
		Message:    out.Message,
		Timestamp:  time.Now(),
		MoveNumber: e.moves,
	})
	if len(e.history) > MaxHistoryEntries {
		e.history = e.history[len(e.history)-MaxHistoryEntries:]
	}
}

// GetMoveHistory returns every recorded attempt, oldest first
func (e *PuzzleEngine) GetMoveHistory() []MoveHistoryEntry {
	out := make([]MoveHistoryEntry, len(e.history))
	copy(out, e.history)
	return out
}

// GetLastMove returns the most recent attempt, nil when there is none
func (e *PuzzleEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.history) == 0 {
		return nil
	}
	last := e.history[len(e.history)-1]
	return &last
}
