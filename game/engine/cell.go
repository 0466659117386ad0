package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatError reports a malformed cell label, type token or color token.
type FormatError struct {
	Input string
	Msg   string
}

func (e *FormatError) Error() string {
	return e.Msg
}

// ParseCell converts a label such as "3B" into a 1-based row and 0-based column.
// Surrounding space and letter case are ignored.
func ParseCell(label string) (row, col int, err error) {
	s := strings.ToUpper(strings.TrimSpace(label))
	if len(s) < 2 {
		return 0, 0, &FormatError{Input: label, Msg: fmt.Sprintf("Invalid cell '%s': too short.", label)}
	}

	row, convErr := strconv.Atoi(s[:len(s)-1])
	if convErr != nil {
		return 0, 0, &FormatError{Input: label, Msg: fmt.Sprintf("Invalid cell '%s': row must be a number.", label)}
	}

	c := s[len(s)-1]
	if c < 'A' || c > 'Z' {
		return 0, 0, &FormatError{Input: label, Msg: fmt.Sprintf("Invalid cell '%s': column must be A-Z.", label)}
	}

	return row, int(c - 'A'), nil
}

// FormatCell is the inverse of ParseCell. Bounds are the caller's concern.
func FormatCell(row, col int) string {
	return strconv.Itoa(row) + string(rune('A'+col))
}

// StripPrefix removes a difficulty prefix such as "E-" when present
func StripPrefix(key, prefix string) string {
	if prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, prefix)
}

// BuildCells lists every label of a rows x cols grid in row-major order.
func BuildCells(rows, cols int) []string {
	cells := make([]string, 0, rows*cols)
	for r := 1; r <= rows; r++ {
		for c := 0; c < cols; c++ {
			cells = append(cells, FormatCell(r, c))
		}
	}
	return cells
}
