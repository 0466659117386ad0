package engine

import (
	"errors"
	"strings"
	"testing"
)

func TestBuiltinPacksAreValid(t *testing.T) {
	wantCounts := map[Difficulty]int{Easy: 10, Medium: 3, Hard: 3}

	packs := BuiltinPacks()
	if len(packs) != 3 {
		t.Fatalf("Expected 3 built-in packs, got %d", len(packs))
	}

	for _, pack := range packs {
		t.Run(pack.Name, func(t *testing.T) {
			if err := ValidateLevelPack(pack); err != nil {
				t.Fatalf("Built-in pack invalid: %v", err)
			}
			if len(pack.Levels) != wantCounts[pack.Difficulty] {
				t.Errorf("Expected %d levels, got %d", wantCounts[pack.Difficulty], len(pack.Levels))
			}
			for i, line := range pack.Levels {
				level, _ := ParseLevelLine(line, GridFor(pack.Difficulty))
				if level.PlayerIndex() < 0 {
					t.Errorf("Level %d has no player", i)
				}
			}
		})
	}
}

func TestBuiltinLinesAreCopies(t *testing.T) {
	lines := BuiltinLines()
	lines[Easy][0] = "broken"

	if BuiltinLines()[Easy][0] == "broken" {
		t.Error("BuiltinLines must return a copy")
	}
}

func TestValidateLevelPack(t *testing.T) {
	tests := []struct {
		name    string
		pack    *LevelPack
		wantErr string
	}{
		{"nil pack", nil, "pack cannot be nil"},
		{"empty name", &LevelPack{Difficulty: Easy, Levels: []string{sampleEasyLine}}, "pack name cannot be empty"},
		{"bad difficulty", &LevelPack{Name: "x", Difficulty: "insane", Levels: []string{sampleEasyLine}}, "unknown difficulty"},
		{"no levels", &LevelPack{Name: "x", Difficulty: Easy}, "has no levels"},
		{"bad line", &LevelPack{Name: "x", Difficulty: Easy, Levels: []string{sampleEasyLine, "C,2D"}}, "level 2: Invalid level line"},
		{"line for another grid", &LevelPack{Name: "x", Difficulty: Easy, Levels: []string{"C,3F;P,Y,3C,3B;T,R,1F,1C"}}, "Exit cell '3F' is not valid for Easy."},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := ValidateLevelPack(test.pack)
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("Expected error containing %q, got %q", test.wantErr, err.Error())
			}
		})
	}
}

func TestValidateLevelPackNormalizesDifficulty(t *testing.T) {
	pack := &LevelPack{Name: "custom", Difficulty: "MEDIUM", Levels: []string{"B,1E;P,Y,1A,1B;B,R,1E,3E;T,G,2A,5A"}}

	if err := ValidateLevelPack(pack); err != nil {
		t.Fatalf("Expected valid pack: %v", err)
	}
	if pack.Difficulty != Medium {
		t.Errorf("Expected difficulty to be normalized, got %s", pack.Difficulty)
	}

	bad := &LevelPack{Name: "custom", Difficulty: Easy, Levels: []string{"C,2D;P,Y,2A,3B"}}
	if err := ValidateLevelPack(bad); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("Expected ErrInvalidLevel, got %v", err)
	}
}
