package engine

import (
	"fmt"
	"strings"
)

// Orientation classifies the cells of a vehicle
type Orientation int

const (
	Unknown Orientation = iota
	Horizontal
	Vertical
)

func (o Orientation) String() string {
	switch o {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	}
	return "unknown"
}

// OrientationOf is Horizontal when every row matches and the columns differ,
// Vertical when every column matches and the rows differ, and Unknown otherwise.
func OrientationOf(labels []string) Orientation {
	if len(labels) == 0 {
		return Unknown
	}

	rows := make([]int, len(labels))
	cols := make([]int, len(labels))
	for i, lbl := range labels {
		r, c, err := ParseCell(lbl)
		if err != nil {
			return Unknown
		}
		rows[i], cols[i] = r, c
	}

	sameRow, sameCol := true, true
	for i := 1; i < len(labels); i++ {
		if rows[i] != rows[0] {
			sameRow = false
		}
		if cols[i] != cols[0] {
			sameCol = false
		}
	}

	switch {
	case sameRow && !sameCol:
		return Horizontal
	case sameCol && !sameRow:
		return Vertical
	}
	return Unknown
}

// ExpandRange walks from start to end inclusive along the axis they differ on.
// It returns nil when the two cells share neither row nor column.
func ExpandRange(start, end string) []string {
	r1, c1, err := ParseCell(start)
	if err != nil {
		return nil
	}
	r2, c2, err := ParseCell(end)
	if err != nil {
		return nil
	}

	switch {
	case r1 == r2 && c1 == c2:
		return []string{FormatCell(r1, c1)}
	case r1 == r2:
		step := sign(c2 - c1)
		cells := make([]string, 0, abs(c2-c1)+1)
		for c := c1; ; c += step {
			cells = append(cells, FormatCell(r1, c))
			if c == c2 {
				break
			}
		}
		return cells
	case c1 == c2:
		step := sign(r2 - r1)
		cells := make([]string, 0, abs(r2-r1)+1)
		for r := r1; ; r += step {
			cells = append(cells, FormatCell(r, c1))
			if r == r2 {
				break
			}
		}
		return cells
	}
	return nil
}

// EdgeMostCell picks the label furthest along (dx, dy); exactly one of them is nonzero.
// Ties go to the first label.
func EdgeMostCell(labels []string, dx, dy int) string {
	best := ""
	bestVal := 0
	for _, lbl := range labels {
		r, c, err := ParseCell(lbl)
		if err != nil {
			continue
		}
		var v int
		switch {
		case dx != 0:
			v = c * dx
		default:
			v = r * dy
		}
		if best == "" || v > bestVal {
			best, bestVal = lbl, v
		}
	}
	return best
}

// ExpectedLength is the cell count mandated for t, or 0 for an unknown type.
func ExpectedLength(t VehicleType) int {
	return vehicleTable[t].length
}

// ParseVehicleType matches the first letter of token against C, B, T and P.
func ParseVehicleType(token string) (VehicleType, error) {
	s := strings.TrimSpace(token)
	if s == "" {
		return "", &FormatError{Input: token, Msg: "Empty vehicle type."}
	}
	first := strings.ToUpper(s[:1])[0]
	for t, info := range vehicleTable {
		if info.code == first {
			return t, nil
		}
	}
	return "", &FormatError{Input: token, Msg: fmt.Sprintf("Unknown vehicle type '%s'. Use C,B,T,P.", token)}
}

// ParseColor matches the first letter of token against R, G, B and Y.
func ParseColor(token string) (Color, error) {
	s := strings.TrimSpace(token)
	if s == "" {
		return "", &FormatError{Input: token, Msg: "Empty color."}
	}
	first := strings.ToUpper(s[:1])[0]
	for c, info := range colorTable {
		if info.code == first {
			return c, nil
		}
	}
	return "", &FormatError{Input: token, Msg: fmt.Sprintf("Unknown color '%s'. Use R,G,B,Y.", token)}
}
