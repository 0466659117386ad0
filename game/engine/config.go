package engine

import (
	"fmt"
	"strings"
)

// LevelPack is a named set of level lines for one difficulty, as stored in
// pack files.
type LevelPack struct {
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Difficulty  Difficulty `json:"difficulty" yaml:"difficulty"`
	Levels      []string   `json:"levels" yaml:"levels"`
}

var builtinLines = map[Difficulty][]string{
	Easy: {
		"C,2D;P,Y,2A,2B;C,R,1C,2C;C,G,3B,3C;C,B,4C,4D",
		"C,3D;P,Y,3A,3B;C,R,2C,3C;C,G,1B,1C;C,B,1D,2D",
		"A,2A;P,Y,2C,2D;C,R,1B,2B;C,G,1C,1D;C,B,4C,4D",
		"B,1C;P,Y,2C,3C;C,R,1B,1C;C,G,3A,4A;C,B,4B,4C",
		"D,4B;P,Y,2B,3B;C,R,4A,4B;C,G,1D,2D;C,B,1A,1B",
		"C,1D;P,Y,1A,1B;C,R,1C,2C;C,G,3A,3B;C,B,4B,4C",
		"A,4A;P,Y,4C,4D;C,R,3B,4B;C,G,2C,2D;C,B,1A,2A",
		"B,1A;P,Y,3A,4A;C,R,2A,2B;C,G,1C,2C;C,B,4C,4D",
		"D,4D;P,Y,2D,3D;C,R,4C,4D;C,G,1B,2B;C,B,3A,3B",
		"C,4D;P,Y,4A,4B;C,R,3C,4C;C,G,2B,2C;C,B,1D,2D",
	},
	Medium: {
		"A,2A;P,Y,5E,5D;B,R,1A,3A;B,G,4A,4C;C,R,1E,2E",
		"D,5C;P,Y,1C,1D;B,R,3A,3C;B,G,4E,4C;B,R,5B,5D",
		"B,1E;P,Y,1A,1B;B,R,1E,3E;T,G,2A,5A",
	},
	Hard: {
		"C,2F;P,Y,6A,6B;B,R,6C,4C;C,G,5A,5B;T,B,1F,4F;B,G,3D,3B;T,R,1D,1A",
		"C,3F;P,Y,4A,5A;C,R,2C,2D;C,G,1C,1D;B,B,1A,3A;C,B,4C,4D;T,R,5B,5E;B,R,6F,6D;B,G,3F,3D",
		"C,3F;P,Y,3C,3B;T,R,1F,1C;B,R,6F,6D;B,B,3F,5F;B,G,3D,5D;C,B,3A,4A;C,R,4C,5C",
	},
}

// BuiltinLines returns a fresh copy of the bundled level lines per difficulty
func BuiltinLines() map[Difficulty][]string {
	out := make(map[Difficulty][]string, len(builtinLines))
	for d, lines := range builtinLines {
		out[d] = append([]string(nil), lines...)
	}
	return out
}

// BuiltinPacks returns the bundled levels as one pack per difficulty, named
// after the difficulty.
func BuiltinPacks() []*LevelPack {
	packs := make([]*LevelPack, 0, len(builtinLines))
	for _, d := range Difficulties() {
		packs = append(packs, &LevelPack{
			Name:        string(d),
			Description: fmt.Sprintf("Built-in %s levels (%dx%d)", GridFor(d).Name, GridFor(d).Size, GridFor(d).Size),
			Difficulty:  d,
			Levels:      append([]string(nil), builtinLines[d]...),
		})
	}
	return packs
}

// ValidateLevelPack normalizes the difficulty and parses every line against its grid.
func ValidateLevelPack(pack *LevelPack) error {
	if pack == nil {
		return fmt.Errorf("pack cannot be nil")
	}
	if strings.TrimSpace(pack.Name) == "" {
		return fmt.Errorf("pack name cannot be empty")
	}

	d, err := ParseDifficulty(string(pack.Difficulty))
	if err != nil {
		return err
	}
	pack.Difficulty = d

	if len(pack.Levels) == 0 {
		return fmt.Errorf("pack %q has no levels", pack.Name)
	}

	grid := GridFor(d)
	for i, line := range pack.Levels {
		if _, err := ParseLevelLine(line, grid); err != nil {
			return fmt.Errorf("level %d: %w", i+1, err)
		}
	}

	return nil
}
