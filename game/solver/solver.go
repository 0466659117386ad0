package solver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zyedidia/generic/mapset"

	"github.com/wricardo/mcp-training/gridrunner/game/engine"
)

// DefaultMaxStates bounds a search when Options.MaxStates is zero
const DefaultMaxStates = 200000

var (
	// ErrUnsolvable means every reachable position was explored without a win
	ErrUnsolvable = errors.New("level has no solution")
	// ErrSearchLimit means the state limit was reached before a win was found
	ErrSearchLimit = errors.New("search limit reached")
)

// Action is one step of a solution. Direction is north/south/east/west for
// moves and cw/ccw for rotations, matching program instructions.
type Action struct {
	Vehicle   int    `json:"vehicle"`
	Op        string `json:"op"`
	Direction string `json:"direction"`
}

func (a Action) String() string {
	return fmt.Sprintf("%s %d %s", a.Op, a.Vehicle, a.Direction)
}

// Solution is the shortest action sequence found, ending with the exit move
type Solution struct {
	Actions        []Action `json:"actions"`
	StatesExplored int      `json:"states_explored"`
}

// Options tunes a search
type Options struct {
	MaxStates     int
	AllowRotation bool
}

type step struct {
	dx, dy int
	name   string
}

var slides = []step{
	{0, -1, "north"},
	{0, 1, "south"},
	{-1, 0, "west"},
	{1, 0, "east"},
}

type node struct {
	vehicles []engine.Vehicle
	parent   int
	action   Action
}

// Solve runs a breadth-first search from start (the level's own vehicles when
// nil) using the engine's slide and rotation rules, so any solution it
// returns can be replayed move for move.
func Solve(grid *engine.GridSpec, level *engine.Level, start []engine.Vehicle, opts Options) (*Solution, error) {
	if level == nil {
		return nil, engine.ErrNoLevel
	}
	if start == nil {
		start = level.Vehicles
	}
	limit := opts.MaxStates
	if limit <= 0 {
		limit = DefaultMaxStates
	}

	nodes := []node{{vehicles: clone(start), parent: -1}}
	visited := mapset.New[string]()
	visited.Put(key(start))

	for head := 0; head < len(nodes); head++ {
		current := nodes[head]

		for i := range current.vehicles {
			for _, s := range slides {
				out := engine.SlideVehicle(grid, level, current.vehicles, i, s.dx, s.dy)
				if !out.OK {
					continue
				}
				action := Action{Vehicle: i, Op: "move", Direction: s.name}
				if out.Won {
					return &Solution{
						Actions:        append(path(nodes, head), action),
						StatesExplored: visited.Size(),
					}, nil
				}
				if next, ok := expand(current.vehicles, i, out.Cells, visited); ok {
					nodes = append(nodes, node{vehicles: next, parent: head, action: action})
				}
			}

			if !opts.AllowRotation {
				continue
			}
			for _, clockwise := range []bool{true, false} {
				out := engine.RotateVehicle(grid, current.vehicles, i, clockwise)
				if !out.OK {
					continue
				}
				dir := "ccw"
				if clockwise {
					dir = "cw"
				}
				if next, ok := expand(current.vehicles, i, out.Cells, visited); ok {
					nodes = append(nodes, node{vehicles: next, parent: head, action: Action{Vehicle: i, Op: "rotate", Direction: dir}})
				}
			}
		}

		if visited.Size() >= limit {
			return nil, fmt.Errorf("%w after %d states", ErrSearchLimit, visited.Size())
		}
	}

	return nil, fmt.Errorf("%w (%d states explored)", ErrUnsolvable, visited.Size())
}

func expand(vehicles []engine.Vehicle, idx int, cells []string, visited mapset.Set[string]) ([]engine.Vehicle, bool) {
	next := make([]engine.Vehicle, len(vehicles))
	copy(next, vehicles)
	next[idx] = engine.Vehicle{Type: vehicles[idx].Type, Color: vehicles[idx].Color, Cells: cells}

	k := key(next)
	if visited.Has(k) {
		return nil, false
	}
	visited.Put(k)
	return next, true
}

func path(nodes []node, idx int) []Action {
	var actions []Action
	for idx > 0 {
		actions = append(actions, nodes[idx].action)
		idx = nodes[idx].parent
	}
	for i, j := 0, len(actions)-1; i < j; i, j = i+1, j-1 {
		actions[i], actions[j] = actions[j], actions[i]
	}
	return actions
}

func key(vehicles []engine.Vehicle) string {
	var b strings.Builder
	for _, v := range vehicles {
		b.WriteString(strings.Join(v.Cells, ","))
		b.WriteByte('|')
	}
	return b.String()
}

func clone(vehicles []engine.Vehicle) []engine.Vehicle {
	out := make([]engine.Vehicle, len(vehicles))
	for i, v := range vehicles {
		out[i] = v.Clone()
	}
	return out
}
