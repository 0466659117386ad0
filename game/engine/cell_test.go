package engine

import (
	"errors"
	"testing"
)

func TestParseCell(t *testing.T) {
	tests := []struct {
		label   string
		row     int
		col     int
		wantErr bool
	}{
		{"3B", 3, 1, false},
		{"1A", 1, 0, false},
		{" 2d ", 2, 3, false},
		{"10F", 10, 5, false},
		{"", 0, 0, true},
		{"A", 0, 0, true},
		{"3", 0, 0, true},
		{"XB", 0, 0, true},
		{"3#", 0, 0, true},
	}

	for _, test := range tests {
		t.Run(test.label, func(t *testing.T) {
			row, col, err := ParseCell(test.label)
			if test.wantErr {
				var fe *FormatError
				if !errors.As(err, &fe) {
					t.Fatalf("Expected FormatError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if row != test.row || col != test.col {
				t.Errorf("Expected (%d,%d), got (%d,%d)", test.row, test.col, row, col)
			}
		})
	}
}

func TestCellRoundTrip(t *testing.T) {
	for _, label := range BuildCells(6, 6) {
		row, col, err := ParseCell(label)
		if err != nil {
			t.Fatalf("Failed to parse %s: %v", label, err)
		}
		if got := FormatCell(row, col); got != label {
			t.Errorf("format(parse(%s)) = %s", label, got)
		}
	}

	for row := 1; row <= 6; row++ {
		for col := 0; col < 6; col++ {
			r, c, err := ParseCell(FormatCell(row, col))
			if err != nil || r != row || c != col {
				t.Errorf("parse(format(%d,%d)) = (%d,%d,%v)", row, col, r, c, err)
			}
		}
	}
}

func TestStripPrefix(t *testing.T) {
	tests := []struct {
		key, prefix, want string
	}{
		{"E-2A", "E-", "2A"},
		{"2A", "E-", "2A"},
		{"M-2A", "E-", "M-2A"},
		{"H-6F", "", "H-6F"},
	}

	for _, test := range tests {
		if got := StripPrefix(test.key, test.prefix); got != test.want {
			t.Errorf("StripPrefix(%q, %q) = %q, want %q", test.key, test.prefix, got, test.want)
		}
	}
}

func TestBuildCells(t *testing.T) {
	got := BuildCells(2, 3)
	want := []string{"1A", "1B", "1C", "2A", "2B", "2C"}

	if len(got) != len(want) {
		t.Fatalf("Expected %d cells, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Cell %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}
