package engine

import (
	"fmt"
	"strings"
)

// RenderBoard draws the grid as text, one row per line, with a two-letter
// type/color code per occupied cell (e.g. "PY" for the yellow player) and
// ".." for empty cells. The exit is marked with "<", ">", "^" or "v" beside
// its cell.
func RenderBoard(grid *GridSpec, level *Level, vehicles []Vehicle) []string {
	codes := make(map[string]string)
	for _, v := range vehicles {
		for _, c := range v.Cells {
			codes[c] = v.Type.Code() + v.Color.Code()
		}
	}

	exitSide, exitCell := ExitSide(""), ""
	if level != nil {
		exitSide, exitCell = level.ExitSide, level.ExitCell
	}

	var header strings.Builder
	header.WriteString("   ")
	for c := 0; c < grid.Size; c++ {
		fmt.Fprintf(&header, " %c ", 'A'+c)
	}
	lines := []string{strings.TrimRight(header.String(), " ")}

	if exitSide == SideNorth {
		lines = append(lines, markerRow(grid.Size, exitCell, "^"))
	}

	for r := 1; r <= grid.Size; r++ {
		var row strings.Builder
		left := " "
		right := ""
		for c := 0; c < grid.Size; c++ {
			lbl := FormatCell(r, c)
			if lbl == exitCell {
				switch exitSide {
				case SideWest:
					left = "<"
				case SideEast:
					right = " >"
				}
			}
			code, ok := codes[lbl]
			if !ok {
				code = ".."
			}
			row.WriteString(" " + code)
		}
		lines = append(lines, fmt.Sprintf("%2d%s%s%s", r, left, row.String(), right))
	}

	if exitSide == SideSouth {
		lines = append(lines, markerRow(grid.Size, exitCell, "v"))
	}

	return lines
}

func markerRow(size int, exitCell string, mark string) string {
	_, col, err := ParseCell(exitCell)
	if err != nil || col < 0 || col >= size {
		return ""
	}
	return strings.Repeat(" ", 4+col*3) + mark
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x < 0:
		return -1
	case x > 0:
		return 1
	}
	return 0
}
