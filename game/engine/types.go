package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zyedidia/generic/mapset"
)

// VehicleType is the closed set of vehicle kinds a level may contain
type VehicleType string

const (
	Car    VehicleType = "car"
	Bus    VehicleType = "bus"
	Truck  VehicleType = "truck"
	Player VehicleType = "player"
)

// Color is the closed set of vehicle colors
type Color string

const (
	Red    Color = "red"
	Green  Color = "green"
	Blue   Color = "blue"
	Yellow Color = "yellow"
)

// ExitSide names the grid edge the player vehicle leaves through
type ExitSide string

const (
	SideWest  ExitSide = "A"
	SideNorth ExitSide = "B"
	SideEast  ExitSide = "C"
	SideSouth ExitSide = "D"
)

// Difficulty selects a grid size and its level pack
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

const (
	// MaxHistoryEntries caps the per-engine move history.
	MaxHistoryEntries = 1000
	// NoSelection marks an engine without a selected vehicle.
	NoSelection = -1
	// CustomLevel is the level index reported for levels loaded from a raw line.
	CustomLevel = -1
)

type vehicleInfo struct {
	code   byte
	name   string
	length int
}

var vehicleTable = map[VehicleType]vehicleInfo{
	Car:    {'C', "Car", 2},
	Bus:    {'B', "Bus", 3},
	Truck:  {'T', "Truck", 4},
	Player: {'P', "Player", 2},
}

var colorTable = map[Color]struct {
	code byte
	name string
}{
	Red:    {'R', "Red"},
	Green:  {'G', "Green"},
	Blue:   {'B', "Blue"},
	Yellow: {'Y', "Yellow"},
}

// Code returns the single-letter level-line code for the type
func (t VehicleType) Code() string {
	if info, ok := vehicleTable[t]; ok {
		return string(info.code)
	}
	return "?"
}

// Name returns the display name of the type
func (t VehicleType) Name() string {
	if info, ok := vehicleTable[t]; ok {
		return info.name
	}
	return string(t)
}

// Code returns the single-letter level-line code for the color
func (c Color) Code() string {
	if info, ok := colorTable[c]; ok {
		return string(info.code)
	}
	return "?"
}

// Name returns the display name of the color
func (c Color) Name() string {
	if info, ok := colorTable[c]; ok {
		return info.name
	}
	return string(c)
}

// Valid reports whether s is one of the four edges
func (s ExitSide) Valid() bool {
	switch s {
	case SideWest, SideNorth, SideEast, SideSouth:
		return true
	}
	return false
}

// Outward returns the unit step that leaves the grid through this side.
func (s ExitSide) Outward() (dx, dy int) {
	switch s {
	case SideWest:
		return -1, 0
	case SideEast:
		return 1, 0
	case SideNorth:
		return 0, -1
	case SideSouth:
		return 0, 1
	}
	return 0, 0
}

// Axis returns the orientation a vehicle needs to drive out through this side
func (s ExitSide) Axis() Orientation {
	switch s {
	case SideWest, SideEast:
		return Horizontal
	case SideNorth, SideSouth:
		return Vertical
	}
	return Unknown
}

// Name returns the compass name of the side
func (s ExitSide) Name() string {
	switch s {
	case SideWest:
		return "west"
	case SideNorth:
		return "north"
	case SideEast:
		return "east"
	case SideSouth:
		return "south"
	}
	return "none"
}

// Name returns the capitalized difficulty used in status messages
func (d Difficulty) Name() string {
	return GridFor(d).Name
}

// ErrUnknownDifficulty is wrapped by ParseDifficulty failures
var ErrUnknownDifficulty = errors.New("unknown difficulty")

// ParseDifficulty accepts easy, medium or hard in any case.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case Easy:
		return Easy, nil
	case Medium:
		return Medium, nil
	case Hard:
		return Hard, nil
	}
	return "", fmt.Errorf("%w %q (use easy, medium or hard)", ErrUnknownDifficulty, s)
}

// Difficulties lists the tiers in ascending order
func Difficulties() []Difficulty {
	return []Difficulty{Easy, Medium, Hard}
}

// GridSpec describes the square grid bound to a difficulty.
type GridSpec struct {
	Difficulty Difficulty
	Name       string
	Size       int
	CellSizePx int
	Prefix     string

	cells []string
	valid mapset.Set[string]
}

func newGridSpec(d Difficulty, name string, size, px int, prefix string) *GridSpec {
	g := &GridSpec{
		Difficulty: d,
		Name:       name,
		Size:       size,
		CellSizePx: px,
		Prefix:     prefix,
		cells:      BuildCells(size, size),
		valid:      mapset.New[string](),
	}
	for _, c := range g.cells {
		g.valid.Put(c)
	}
	return g
}

var grids = map[Difficulty]*GridSpec{
	Easy:   newGridSpec(Easy, "Easy", 4, 95, "E-"),
	Medium: newGridSpec(Medium, "Medium", 5, 75, "M-"),
	Hard:   newGridSpec(Hard, "Hard", 6, 62, "H-"),
}

// GridFor returns the grid of a difficulty. Unknown values get the Easy grid.
func GridFor(d Difficulty) *GridSpec {
	if g, ok := grids[d]; ok {
		return g
	}
	return grids[Easy]
}

// Contains reports whether label is a canonical cell of the grid
func (g *GridSpec) Contains(label string) bool {
	return g.valid.Has(label)
}

// Cells returns every label of the grid in row-major order
func (g *GridSpec) Cells() []string {
	out := make([]string, len(g.cells))
	copy(out, g.cells)
	return out
}

// Key namespaces a label with the grid prefix
func (g *GridSpec) Key(label string) string {
	return g.Prefix + label
}

// Vehicle is a straight, rigid piece occupying Cells in start-to-end order.
type Vehicle struct {
	Type  VehicleType `json:"type"`
	Color Color       `json:"color"`
	Cells []string    `json:"cells"`
}

// Clone returns a copy that shares no cell storage
func (v Vehicle) Clone() Vehicle {
	cells := make([]string, len(v.Cells))
	copy(cells, v.Cells)
	return Vehicle{Type: v.Type, Color: v.Color, Cells: cells}
}

// Label is the "Type (Color)" text shown in selection messages
func (v Vehicle) Label() string {
	return fmt.Sprintf("%s (%s)", v.Type.Name(), v.Color.Name())
}

// Level is a parsed level line. Treat it as read-only; play on a Clone.
type Level struct {
	ExitSide ExitSide  `json:"exit_side"`
	ExitCell string    `json:"exit_cell"`
	Vehicles []Vehicle `json:"vehicles"`
	Line     string    `json:"line"`
}

// Clone deep-copies the level
func (l *Level) Clone() *Level {
	if l == nil {
		return nil
	}
	return &Level{
		ExitSide: l.ExitSide,
		ExitCell: l.ExitCell,
		Vehicles: cloneVehicles(l.Vehicles),
		Line:     l.Line,
	}
}

// PlayerIndex returns the index of the player vehicle, or -1
func (l *Level) PlayerIndex() int {
	for i, v := range l.Vehicles {
		if v.Type == Player {
			return i
		}
	}
	return -1
}

func cloneVehicles(vs []Vehicle) []Vehicle {
	if vs == nil {
		return nil
	}
	out := make([]Vehicle, len(vs))
	for i, v := range vs {
		out[i] = v.Clone()
	}
	return out
}

// GameState is a point-in-time snapshot of a puzzle engine
type GameState struct {
	Difficulty     Difficulty `json:"difficulty"`
	GridSize       int        `json:"grid_size"`
	CellSizePx     int        `json:"cell_size_px"`
	CellPrefix     string     `json:"cell_prefix"`
	ExitSide       ExitSide   `json:"exit_side,omitempty"`
	ExitCell       string     `json:"exit_cell,omitempty"`
	Vehicles       []Vehicle  `json:"vehicles"`
	Selected       int        `json:"selected"`
	Won            bool       `json:"won"`
	Message        string     `json:"message"`
	LevelIndex     int        `json:"level_index"`
	LevelLine      string     `json:"level_line,omitempty"`
	PackSize       int        `json:"pack_size"`
	QueueRemaining int        `json:"queue_remaining"`
	TotalMoves     int        `json:"total_moves"`
	Board          []string   `json:"board"`
}

// MoveHistoryEntry records one attempted move or rotation
type MoveHistoryEntry struct {
	Action     string    `json:"action"`
	Direction  string    `json:"direction"`
	Vehicle    int       `json:"vehicle"`
	From       []string  `json:"from"`
	To         []string  `json:"to,omitempty"`
	Success    bool      `json:"success"`
	Won        bool      `json:"won,omitempty"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	MoveNumber int       `json:"move_number"`
}
