package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zyedidia/generic/mapset"
)

var (
	// ErrInvalidLevel is matched by every ValidationError
	ErrInvalidLevel = errors.New("invalid level line")
	// ErrNoLevel is returned when an operation needs a loaded level
	ErrNoLevel = errors.New("no level loaded")
)

// ValidationError describes why a level line was rejected. Msg is the
// human-readable status shown to players; Err carries the underlying
// FormatError for token failures.
type ValidationError struct {
	Line string
	Msg  string
	Err  error
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrInvalidLevel) match any validation failure.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidLevel
}

func invalid(line, format string, args ...interface{}) error {
	return &ValidationError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// splitFields splits on sep, trims every field and drops empty ones
func splitFields(s, sep string) []string {
	raw := strings.Split(s, sep)
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ParseLevelLine parses "Side,Cell;Type,Color,Start,End;..." against grid.
//
// Checks run in order and the first failure wins: segment count, exit token
// shape, exit side, exit cell membership, then per vehicle the field count,
// type and color tokens, start/end membership, co-linearity, length and
// overlap with the vehicles accepted before it. Finally the level must hold
// exactly one player. Whether the exit cell sits on the declared edge is left
// to the win check.
func ParseLevelLine(line string, grid *GridSpec) (*Level, error) {
	parts := splitFields(line, ";")
	if len(parts) < 2 {
		return nil, invalid(line, "Invalid level line: expected Side,Cell;vehicle;vehicle;...")
	}

	exitTokens := splitFields(parts[0], ",")
	if len(exitTokens) != 2 {
		return nil, invalid(line, "Exit must be in format: Side,Cell (ex: A,1A)")
	}

	side := ExitSide(strings.ToUpper(exitTokens[0][:1]))
	if !side.Valid() {
		return nil, invalid(line, "Exit side '%s' must be one of A,B,C,D.", side)
	}

	exitCell := strings.ToUpper(exitTokens[1])
	if !grid.Contains(exitCell) {
		return nil, invalid(line, "Exit cell '%s' is not valid for %s.", exitCell, grid.Name)
	}

	level := &Level{ExitSide: side, ExitCell: exitCell, Line: line}
	occupied := mapset.New[string]()
	players := 0

	for _, part := range parts[1:] {
		tokens := splitFields(part, ",")
		if len(tokens) != 4 {
			return nil, invalid(line, "Vehicle section must be exactly 4 tokens: Type,Color,Start,End. Bad section: '%s'", part)
		}

		vt, err := ParseVehicleType(tokens[0])
		if err != nil {
			return nil, &ValidationError{Line: line, Msg: "Parse error: " + err.Error(), Err: err}
		}
		color, err := ParseColor(tokens[1])
		if err != nil {
			return nil, &ValidationError{Line: line, Msg: "Parse error: " + err.Error(), Err: err}
		}

		start := strings.ToUpper(tokens[2])
		end := strings.ToUpper(tokens[3])
		if !grid.Contains(start) || !grid.Contains(end) {
			return nil, invalid(line, "Vehicle has invalid start/end cell: %s -> %s.", start, end)
		}

		cells := ExpandRange(start, end)
		if len(cells) == 0 {
			return nil, invalid(line, "Vehicle start/end must be in same row or same column: %s -> %s.", start, end)
		}

		if want := ExpectedLength(vt); want > 0 && len(cells) != want {
			return nil, invalid(line, "Vehicle %s expected length %d but got %d from %s->%s.", vt.Code(), want, len(cells), start, end)
		}

		for _, c := range cells {
			if occupied.Has(c) {
				return nil, invalid(line, "Collision: vehicle %s overlaps an existing vehicle.", vt.Code())
			}
		}
		for _, c := range cells {
			occupied.Put(c)
		}

		if vt == Player {
			players++
		}
		level.Vehicles = append(level.Vehicles, Vehicle{Type: vt, Color: color, Cells: cells})
	}

	if players != 1 {
		return nil, invalid(line, "Level must contain exactly one player vehicle, found %d.", players)
	}

	return level, nil
}
