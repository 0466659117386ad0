package engine

import "strings"

// Outcome is the result of a slide or rotation computed against a vehicle list.
// OK is false for every rejection; Cells is only set when OK.
type Outcome struct {
	Cells   []string
	OK      bool
	Won     bool
	Message string
}

// SlideVehicle computes moving vehicles[idx] one cell by (dx, dy). It does not
// modify vehicles. Leaving the grid is only allowed as the winning exit of the
// player through the level's exit cell.
func SlideVehicle(grid *GridSpec, level *Level, vehicles []Vehicle, idx, dx, dy int) Outcome {
	if idx < 0 || idx >= len(vehicles) {
		return Outcome{Message: "Selected: (none)"}
	}
	if abs(dx)+abs(dy) != 1 {
		return Outcome{Message: "Blocked: invalid direction."}
	}

	v := vehicles[idx]
	switch OrientationOf(v.Cells) {
	case Horizontal:
		if dy != 0 {
			return Outcome{Message: "Blocked: horizontal vehicles can only move left/right."}
		}
	case Vertical:
		if dx != 0 {
			return Outcome{Message: "Blocked: vertical vehicles can only move up/down."}
		}
	}

	moved := make([]string, 0, len(v.Cells))
	outOfBounds := false
	for _, lbl := range v.Cells {
		r, c, err := ParseCell(lbl)
		if err != nil {
			return Outcome{Message: "Blocked: out of bounds."}
		}
		next := FormatCell(r+dy, c+dx)
		if !grid.Contains(next) {
			outOfBounds = true
		}
		moved = append(moved, next)
	}

	if outOfBounds {
		if canExit(grid, level, v, dx, dy) {
			return Outcome{OK: true, Won: true, Message: "You win! Press Play Again to reset."}
		}
		return Outcome{Message: "Blocked: out of bounds."}
	}

	if !IsMoveFree(idx, moved, vehicles) {
		return Outcome{Message: "Blocked: another vehicle is in the way."}
	}

	return Outcome{Cells: moved, OK: true, Message: "Moved."}
}

// canExit holds when every exit rule passes: player type, a defined exit, the
// side's outward direction and axis, the exit cell being the leading cell of
// the vehicle, and that cell lying on the grid edge named by the side.
func canExit(grid *GridSpec, level *Level, v Vehicle, dx, dy int) bool {
	if v.Type != Player {
		return false
	}
	if level == nil || !level.ExitSide.Valid() || level.ExitCell == "" {
		return false
	}

	side := level.ExitSide
	if odx, ody := side.Outward(); odx != dx || ody != dy {
		return false
	}
	if OrientationOf(v.Cells) != side.Axis() {
		return false
	}

	exit := level.ExitCell
	found := false
	for _, c := range v.Cells {
		if c == exit {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	if EdgeMostCell(v.Cells, dx, dy) != exit {
		return false
	}

	r, c, err := ParseCell(exit)
	if err != nil {
		return false
	}
	switch side {
	case SideWest:
		return c == 0
	case SideEast:
		return c == grid.Size-1
	case SideNorth:
		return r == 1
	case SideSouth:
		return r == grid.Size
	}
	return false
}

// RotateVehicle computes a quarter turn of vehicles[idx] about its first cell.
// Clockwise maps an offset (dr, dc) to (dc, -dr); counter-clockwise to (-dc, dr).
func RotateVehicle(grid *GridSpec, vehicles []Vehicle, idx int, clockwise bool) Outcome {
	if idx < 0 || idx >= len(vehicles) {
		return Outcome{Message: "Selected: (none)"}
	}

	old := vehicles[idx].Cells
	if OrientationOf(old) == Unknown {
		return Outcome{Message: "Rotate blocked: not a straight vehicle."}
	}

	pivot := old[0]
	pr, pc, _ := ParseCell(pivot)

	rotated := make([]string, 0, len(old))
	for _, lbl := range old {
		r, c, _ := ParseCell(lbl)
		dr, dc := r-pr, c-pc
		var ndr, ndc int
		if clockwise {
			ndr, ndc = dc, -dr
		} else {
			ndr, ndc = -dc, dr
		}
		rotated = append(rotated, FormatCell(pr+ndr, pc+ndc))
	}

	for _, lbl := range rotated {
		if !grid.Contains(lbl) {
			return Outcome{Message: "Rotate blocked: out of bounds."}
		}
	}

	if !IsMoveFree(idx, rotated, vehicles) {
		return Outcome{Message: "Rotate blocked: destination occupied."}
	}
	if !IsRotationSweepClear(idx, pivot, old, rotated, vehicles) {
		return Outcome{Message: "Rotate blocked: swing path occupied."}
	}

	msg := "Rotated CCW."
	if clockwise {
		msg = "Rotated CW."
	}
	return Outcome{Cells: rotated, OK: true, Message: msg}
}

// DirectionDelta maps up/down/left/right and their compass names to a unit step.
func DirectionDelta(direction string) (dx, dy int, ok bool) {
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "up", "north", "n":
		return 0, -1, true
	case "down", "south", "s":
		return 0, 1, true
	case "left", "west", "w":
		return -1, 0, true
	case "right", "east", "e":
		return 1, 0, true
	}
	return 0, 0, false
}

// DirectionName returns the compass name of a unit step
func DirectionName(dx, dy int) string {
	switch {
	case dx == 0 && dy == -1:
		return "north"
	case dx == 0 && dy == 1:
		return "south"
	case dx == -1 && dy == 0:
		return "west"
	case dx == 1 && dy == 0:
		return "east"
	}
	return "none"
}

// ParseRotation accepts cw/clockwise and ccw/counterclockwise.
func ParseRotation(direction string) (clockwise bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "cw", "clockwise", "right":
		return true, true
	case "ccw", "counterclockwise", "counter-clockwise", "anticlockwise", "left":
		return false, true
	}
	return false, false
}
