// Command levelcheck validates GridRunner level pack files and measures how
// hard their levels are.
//
//	levelcheck validate [files...]     parse every level of every pack
//	levelcheck analyze [files...]      solve every level and report move counts
//	levelcheck solve "A,2A;P,Y,2C,2D"  print a shortest solution for one line
//
// Without file arguments the packs in --levels-dir are checked. --builtin adds
// the bundled packs.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/zyedidia/generic/mapset"

	"github.com/wricardo/mcp-training/gridrunner/game/config"
	"github.com/wricardo/mcp-training/gridrunner/game/engine"
	"github.com/wricardo/mcp-training/gridrunner/game/solver"
)

var (
	errInvalidPacks = errors.New("some level packs have errors")
	errUnsolvable   = errors.New("some levels have no solution")
	errNoPacks      = errors.New("no level packs found")
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	searchFlags := []cli.Flag{
		&cli.BoolFlag{
			Name:  "rotation",
			Usage: "let the solver rotate vehicles",
		},
		&cli.IntFlag{
			Name:  "max-states",
			Value: solver.DefaultMaxStates,
			Usage: "give up after exploring this many positions",
		},
	}

	return &cli.Command{
		Name:  "levelcheck",
		Usage: "validate and analyze GridRunner level packs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "levels-dir",
				Value:   "levels",
				Usage:   "directory of .yaml/.yml/.json/.jsonc pack files",
				Sources: cli.EnvVars("LEVELS_DIR"),
			},
			&cli.BoolFlag{
				Name:  "builtin",
				Usage: "include the built-in packs",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "check that every level of every pack parses",
				ArgsUsage: "[pack files...]",
				Action:    runValidate,
			},
			{
				Name:      "analyze",
				Usage:     "solve every level and report how many moves it takes",
				ArgsUsage: "[pack files...]",
				Flags:     searchFlags,
				Action:    runAnalyze,
			},
			{
				Name:      "solve",
				Usage:     "print a shortest solution for a single level line",
				ArgsUsage: "<level line>",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "difficulty",
						Value: string(engine.Easy),
						Usage: "grid to parse the line against (easy, medium, hard)",
					},
				}, searchFlags...),
				Action: runSolve,
			},
		},
	}
}

func out(cmd *cli.Command) io.Writer {
	return cmd.Root().Writer
}

// packSource is one pack to check. err is set when the file could not be
// read or validated.
type packSource struct {
	label string
	pack  *engine.LevelPack
	err   error
}

// collectPacks resolves the packs named on the command line, or every pack
// file in --levels-dir, plus the built-ins when --builtin is set.
func collectPacks(cmd *cli.Command) ([]packSource, error) {
	var sources []packSource

	if cmd.Bool("builtin") {
		for _, p := range engine.BuiltinPacks() {
			sources = append(sources, packSource{label: "built-in " + p.Name, pack: p})
		}
	}

	files := cmd.Args().Slice()
	if len(files) == 0 {
		dir := cmd.String("levels-dir")
		found, err := packFiles(dir)
		if err != nil && len(sources) == 0 {
			return nil, err
		}
		files = found
	}

	for _, file := range files {
		pack, err := config.ReadPackFile(file)
		sources = append(sources, packSource{label: filepath.Base(file), pack: pack, err: err})
	}

	if len(sources) == 0 {
		return nil, errNoPacks
	}
	return sources, nil
}

func packFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("levels directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("levels directory: %s is not a directory", dir)
	}

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml", "*.json", "*.jsonc"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// duplicates lists "level N repeats level M" for every repeated line
func duplicates(pack *engine.LevelPack) []string {
	seen := mapset.New[string]()
	first := make(map[string]int)
	var dups []string
	for i, line := range pack.Levels {
		key := strings.ToUpper(strings.TrimSpace(line))
		if seen.Has(key) {
			dups = append(dups, fmt.Sprintf("level %d repeats level %d", i+1, first[key]))
			continue
		}
		seen.Put(key)
		first[key] = i + 1
	}
	return dups
}

func runValidate(ctx context.Context, cmd *cli.Command) error {
	sources, err := collectPacks(cmd)
	if err != nil {
		return err
	}
	w := out(cmd)

	allValid := true
	for _, src := range sources {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), src.label)

		if src.err != nil {
			allValid = false
			fmt.Fprintln(w, "❌ INVALID")
			fmt.Fprintf(w, "  ❌ %v\n", src.err)
			continue
		}

		fmt.Fprintf(w, "✅ VALID (%s, %d levels)\n", src.pack.Difficulty, len(src.pack.Levels))
		for _, dup := range duplicates(src.pack) {
			fmt.Fprintf(w, "  ⚠️  %s\n", dup)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if !allValid {
		fmt.Fprintln(w, "❌ Some level packs have errors")
		return errInvalidPacks
	}
	fmt.Fprintln(w, "✅ All level packs are valid!")
	return nil
}

func searchOptions(cmd *cli.Command) solver.Options {
	return solver.Options{
		MaxStates:     int(cmd.Int("max-states")),
		AllowRotation: cmd.Bool("rotation"),
	}
}

func runAnalyze(ctx context.Context, cmd *cli.Command) error {
	sources, err := collectPacks(cmd)
	if err != nil {
		return err
	}
	w := out(cmd)
	opts := searchOptions(cmd)

	unsolvable := 0
	for _, src := range sources {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), src.label)
		if src.err != nil {
			fmt.Fprintf(w, "  skipped: %v\n", src.err)
			continue
		}

		grid := engine.GridFor(src.pack.Difficulty)
		solved, total, hardest := 0, 0, 0
		for i, line := range src.pack.Levels {
			if err := ctx.Err(); err != nil {
				return err
			}

			level, err := engine.ParseLevelLine(line, grid)
			if err != nil {
				fmt.Fprintf(w, "  #%-3d invalid: %v\n", i+1, err)
				continue
			}

			sol, err := solver.Solve(grid, level, nil, opts)
			switch {
			case errors.Is(err, solver.ErrUnsolvable):
				unsolvable++
				fmt.Fprintf(w, "  #%-3d vehicles=%d UNSOLVABLE\n", i+1, len(level.Vehicles))
			case errors.Is(err, solver.ErrSearchLimit):
				fmt.Fprintf(w, "  #%-3d vehicles=%d gave up: %v\n", i+1, len(level.Vehicles), err)
			case err != nil:
				return err
			default:
				moves := len(sol.Actions)
				solved++
				total += moves
				hardest = max(hardest, moves)
				fmt.Fprintf(w, "  #%-3d vehicles=%d moves=%d explored=%d\n",
					i+1, len(level.Vehicles), moves, sol.StatesExplored)
			}
		}

		if solved > 0 {
			fmt.Fprintf(w, "  solved %d/%d, average %.1f moves, hardest %d\n",
				solved, len(src.pack.Levels), float64(total)/float64(solved), hardest)
		}
	}

	if unsolvable > 0 {
		return fmt.Errorf("%w (%d)", errUnsolvable, unsolvable)
	}
	return nil
}

func runSolve(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("solve takes exactly one level line, got %d arguments", cmd.Args().Len())
	}

	d, err := engine.ParseDifficulty(cmd.String("difficulty"))
	if err != nil {
		return err
	}
	grid := engine.GridFor(d)

	level, err := engine.ParseLevelLine(cmd.Args().First(), grid)
	if err != nil {
		return err
	}

	sol, err := solver.Solve(grid, level, nil, searchOptions(cmd))
	if err != nil {
		return err
	}

	w := out(cmd)
	fmt.Fprintf(w, "Solved in %d moves (%d positions explored):\n", len(sol.Actions), sol.StatesExplored)
	for i, a := range sol.Actions {
		v := level.Vehicles[a.Vehicle]
		fmt.Fprintf(w, "%3d. %s %s %s\n", i+1, a.Op, v.Label(), a.Direction)
	}
	return nil
}
