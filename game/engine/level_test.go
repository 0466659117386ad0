package engine

import (
	"errors"
	"testing"
)

const sampleEasyLine = "C,2D;P,Y,2A,2B;C,R,1C,2C;C,G,3B,3C;C,B,4C,4D"

func TestParseLevelLine_Sample(t *testing.T) {
	level, err := ParseLevelLine(sampleEasyLine, GridFor(Easy))
	if err != nil {
		t.Fatalf("Failed to parse sample: %v", err)
	}

	if len(level.Vehicles) != 4 {
		t.Errorf("Expected 4 vehicles, got %d", len(level.Vehicles))
	}
	if level.ExitSide != SideEast {
		t.Errorf("Expected exit side C, got %s", level.ExitSide)
	}
	if level.ExitCell != "2D" {
		t.Errorf("Expected exit cell 2D, got %s", level.ExitCell)
	}

	player := level.Vehicles[0]
	if player.Type != Player || player.Color != Yellow {
		t.Errorf("Expected yellow player first, got %s", player.Label())
	}
	if len(player.Cells) != 2 || player.Cells[0] != "2A" || player.Cells[1] != "2B" {
		t.Errorf("Expected player cells [2A 2B], got %v", player.Cells)
	}
	if level.Line != sampleEasyLine {
		t.Errorf("Expected line to be kept")
	}
}

func TestParseLevelLine_CaseAndSpacing(t *testing.T) {
	level, err := ParseLevelLine(" c, 2d ; p,y,2a,2b ;c,r,1c,2c;; ", GridFor(Easy))
	if err != nil {
		t.Fatalf("Expected lenient parse, got %v", err)
	}
	if level.ExitCell != "2D" || len(level.Vehicles) != 2 {
		t.Errorf("Unexpected level: %+v", level)
	}
	if level.Vehicles[1].Cells[0] != "1C" {
		t.Errorf("Expected cells to be upper-cased, got %v", level.Vehicles[1].Cells)
	}
}

func TestParseLevelLine_Errors(t *testing.T) {
	tests := []struct {
		name string
		line string
		msg  string
	}{
		{"single segment", "C,2D", "Invalid level line: expected Side,Cell;vehicle;vehicle;..."},
		{"exit without cell", "C;P,Y,2A,2B", "Exit must be in format: Side,Cell (ex: A,1A)"},
		{"exit with three fields", "C,2D,3;P,Y,2A,2B", "Exit must be in format: Side,Cell (ex: A,1A)"},
		{"unknown side", "E,2D;P,Y,2A,2B", "Exit side 'E' must be one of A,B,C,D."},
		{"exit off grid", "C,5D;P,Y,2A,2B", "Exit cell '5D' is not valid for Easy."},
		{"short vehicle", "C,2D;P,Y,2A", "Vehicle section must be exactly 4 tokens: Type,Color,Start,End. Bad section: 'P,Y,2A'"},
		{"unknown type", "C,2D;X,Y,2A,2B", "Parse error: Unknown vehicle type 'X'. Use C,B,T,P."},
		{"unknown color", "C,2D;P,Q,2A,2B", "Parse error: Unknown color 'Q'. Use R,G,B,Y."},
		{"vehicle off grid", "C,2D;P,Y,2A,2E", "Vehicle has invalid start/end cell: 2A -> 2E."},
		{"diagonal vehicle", "C,2D;P,Y,2A,3B", "Vehicle start/end must be in same row or same column: 2A -> 3B."},
		{"wrong length", "C,2D;P,Y,2A,2C", "Vehicle P expected length 2 but got 3 from 2A->2C."},
		{"overlap", "C,2D;P,Y,2A,2B;C,R,2B,3B", "Collision: vehicle C overlaps an existing vehicle."},
		{"no player", "C,2D;C,R,1C,2C", "Level must contain exactly one player vehicle, found 0."},
		{"two players", "C,2D;P,Y,2A,2B;P,G,3A,3B", "Level must contain exactly one player vehicle, found 2."},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			level, err := ParseLevelLine(test.line, GridFor(Easy))
			if err == nil {
				t.Fatalf("Expected error, got level %+v", level)
			}
			if level != nil {
				t.Error("Expected nil level on failure")
			}
			if !errors.Is(err, ErrInvalidLevel) {
				t.Errorf("Expected ErrInvalidLevel, got %v", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Expected ValidationError, got %T", err)
			}
			if ve.Msg != test.msg {
				t.Errorf("Expected message %q, got %q", test.msg, ve.Msg)
			}
		})
	}
}

func TestParseLevelLine_TokenErrorUnwraps(t *testing.T) {
	_, err := ParseLevelLine("C,2D;P,Q,2A,2B", GridFor(Easy))
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("Expected wrapped FormatError, got %v", err)
	}
	if fe.Input != "Q" {
		t.Errorf("Expected input Q, got %q", fe.Input)
	}
}

func TestParseLevelLine_GridDependent(t *testing.T) {
	medium := "A,2A;P,Y,5E,5D;B,R,1A,3A;B,G,4A,4C;C,R,1E,2E"

	if _, err := ParseLevelLine(medium, GridFor(Medium)); err != nil {
		t.Fatalf("Expected medium line to parse on Medium: %v", err)
	}

	_, err := ParseLevelLine(medium, GridFor(Easy))
	if err == nil || err.Error() != "Vehicle has invalid start/end cell: 5E -> 5D." {
		t.Errorf("Expected invalid start/end on Easy, got %v", err)
	}
}

func TestParseLevelLine_ExitEdgeNotCheckedAtLoad(t *testing.T) {
	// exit side C (east) with an exit cell on the west edge still loads
	level, err := ParseLevelLine("C,2A;P,Y,2A,2B;C,R,4C,4D", GridFor(Easy))
	if err != nil {
		t.Fatalf("Expected lenient load, got %v", err)
	}
	if level.ExitSide != SideEast || level.ExitCell != "2A" {
		t.Errorf("Unexpected exit %s,%s", level.ExitSide, level.ExitCell)
	}
}
