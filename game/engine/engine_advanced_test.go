package engine

import (
	"math/rand/v2"
	"testing"
)

// assertConsistent fails when two vehicles share a cell or a cell leaves the grid
func assertConsistent(t *testing.T, e *PuzzleEngine, step int) {
	t.Helper()
	seen := make(map[string]int)
	for i, v := range e.GetVehicles() {
		if want := ExpectedLength(v.Type); len(v.Cells) != want {
			t.Fatalf("step %d: vehicle %d has %d cells, want %d", step, i, len(v.Cells), want)
		}
		if OrientationOf(v.Cells) == Unknown {
			t.Fatalf("step %d: vehicle %d is no longer straight: %v", step, i, v.Cells)
		}
		for _, c := range v.Cells {
			if !e.Grid().Contains(c) {
				t.Fatalf("step %d: vehicle %d left the grid at %s", step, i, c)
			}
			if other, ok := seen[c]; ok {
				t.Fatalf("step %d: vehicles %d and %d overlap at %s", step, other, i, c)
			}
			seen[c] = i
		}
	}
}

func TestRandomPlayNeverOverlaps(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 13))
	directions := []string{"north", "south", "east", "west"}

	for _, d := range Difficulties() {
		for idx, line := range BuiltinLines()[d] {
			e := NewEngine(NewSeededCatalog(nil, 1))
			e.SelectDifficulty(d)
			if err := e.LoadLevelLine(line); err != nil {
				t.Fatalf("%s level %d failed to load: %v", d, idx, err)
			}

			for step := 0; step < 400 && !e.IsWon(); step++ {
				e.SelectIndex(rng.IntN(len(e.GetVehicles())))
				if rng.IntN(4) == 0 {
					e.Rotate(rng.IntN(2) == 0)
				} else {
					e.MoveDirection(directions[rng.IntN(len(directions))])
				}
				assertConsistent(t, e, step)
			}
		}
	}
}

func TestWinRequiresEveryExitRule(t *testing.T) {
	grid := GridFor(Easy)
	player := Vehicle{Type: Player, Color: Yellow, Cells: []string{"2C", "2D"}}
	level := &Level{ExitSide: SideEast, ExitCell: "2D"}
	const outOfBounds = "Blocked: out of bounds."

	tests := []struct {
		name    string
		level   *Level
		vehicle Vehicle
		dx, dy  int
		win     bool
		message string
	}{
		{"valid east exit", level, player, 1, 0, true, ""},
		{"not the player", level, Vehicle{Type: Car, Color: Red, Cells: []string{"2C", "2D"}}, 1, 0, false, outOfBounds},
		{"no level", nil, player, 1, 0, false, outOfBounds},
		{"wrong direction", &Level{ExitSide: SideWest, ExitCell: "2D"}, player, 1, 0, false, outOfBounds},
		{"exit cell not on vehicle", &Level{ExitSide: SideEast, ExitCell: "3D"}, player, 1, 0, false, outOfBounds},
		{"exit cell not leading", &Level{ExitSide: SideEast, ExitCell: "2C"}, Vehicle{Type: Player, Color: Yellow, Cells: []string{"2C", "2D"}}, 1, 0, false, outOfBounds},
		{"vertical player on horizontal exit", &Level{ExitSide: SideEast, ExitCell: "2D"}, Vehicle{Type: Player, Color: Yellow, Cells: []string{"1D", "2D"}}, 1, 0, false, "Blocked: vertical vehicles can only move up/down."},
		{"north exit", &Level{ExitSide: SideNorth, ExitCell: "1B"}, Vehicle{Type: Player, Color: Yellow, Cells: []string{"2B", "1B"}}, 0, -1, true, ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			vehicles := []Vehicle{test.vehicle}
			out := SlideVehicle(grid, test.level, vehicles, 0, test.dx, test.dy)
			if out.Won != test.win {
				t.Errorf("Expected win=%v, got %+v", test.win, out)
			}
			if !test.win && out.Message != test.message {
				t.Errorf("Expected %q, got %q", test.message, out.Message)
			}
		})
	}
}

func TestCanExitOrientation(t *testing.T) {
	grid := GridFor(Easy)
	east := &Level{ExitSide: SideEast, ExitCell: "2D"}
	north := &Level{ExitSide: SideNorth, ExitCell: "1B"}

	tests := []struct {
		name    string
		level   *Level
		vehicle Vehicle
		dx, dy  int
		want    bool
	}{
		{"horizontal player east", east, Vehicle{Type: Player, Color: Yellow, Cells: []string{"2C", "2D"}}, 1, 0, true},
		{"vertical player east", east, Vehicle{Type: Player, Color: Yellow, Cells: []string{"1D", "2D"}}, 1, 0, false},
		{"single cell player east", east, Vehicle{Type: Player, Color: Yellow, Cells: []string{"2D"}}, 1, 0, false},
		{"vertical player north", north, Vehicle{Type: Player, Color: Yellow, Cells: []string{"2B", "1B"}}, 0, -1, true},
		{"horizontal player north", north, Vehicle{Type: Player, Color: Yellow, Cells: []string{"1A", "1B"}}, 0, -1, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := canExit(grid, test.level, test.vehicle, test.dx, test.dy); got != test.want {
				t.Errorf("canExit = %v, want %v", got, test.want)
			}
		})
	}
}

func TestSlideVehicleDoesNotMutate(t *testing.T) {
	vehicles := []Vehicle{
		{Type: Player, Color: Yellow, Cells: []string{"2A", "2B"}},
	}
	out := SlideVehicle(GridFor(Easy), nil, vehicles, 0, 1, 0)
	if !out.OK || out.Cells[0] != "2B" {
		t.Fatalf("Unexpected outcome %+v", out)
	}
	if vehicles[0].Cells[0] != "2A" {
		t.Error("SlideVehicle modified its input")
	}
}
