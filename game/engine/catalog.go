package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrEmptyPack is returned when the active difficulty has no level lines
var ErrEmptyPack = errors.New("level pack is empty")

// Catalog holds the level packs, the active difficulty and its play queue,
// plus the fields derived from the most recent load.
//
// The queue is a Fisher-Yates shuffle of pack indices consumed front to back.
// It is rebuilt when the difficulty changes or when it runs dry, so no level
// repeats before the whole pack has been played.
type Catalog struct {
	packs      map[Difficulty][]string
	difficulty Difficulty
	rng        *rand.Rand

	queue           []int
	queueDifficulty Difficulty

	level        *Level
	currentIndex int
	lastLine     string
	status       string
}

// NewCatalog builds a catalog on Easy. A nil packs map selects the built-in
// levels and a nil rng is seeded randomly.
func NewCatalog(packs map[Difficulty][]string, rng *rand.Rand) *Catalog {
	if packs == nil {
		packs = BuiltinLines()
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	copied := make(map[Difficulty][]string, len(packs))
	for d, lines := range packs {
		copied[d] = append([]string(nil), lines...)
	}

	return &Catalog{
		packs:        copied,
		difficulty:   Easy,
		rng:          rng,
		currentIndex: CustomLevel,
	}
}

// NewSeededCatalog is NewCatalog with a deterministic random source
func NewSeededCatalog(packs map[Difficulty][]string, seed uint64) *Catalog {
	return NewCatalog(packs, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// Difficulty returns the active difficulty
func (c *Catalog) Difficulty() Difficulty {
	return c.difficulty
}

// Grid returns the grid of the active difficulty
func (c *Catalog) Grid() *GridSpec {
	return GridFor(c.difficulty)
}

// SelectDifficulty switches tiers. A change drops the play queue and the
// loaded level, whose cells belong to the previous grid.
func (c *Catalog) SelectDifficulty(d Difficulty) {
	if d == c.difficulty {
		return
	}
	c.difficulty = d
	c.queue = nil
	c.queueDifficulty = ""
	c.ClearLevel()
}

// SetPack replaces the level lines of a difficulty
func (c *Catalog) SetPack(d Difficulty, lines []string) {
	c.packs[d] = append([]string(nil), lines...)
	if d == c.queueDifficulty {
		c.queue = nil
		c.queueDifficulty = ""
	}
}

// Pack returns a copy of the level lines of a difficulty
func (c *Catalog) Pack(d Difficulty) []string {
	return append([]string(nil), c.packs[d]...)
}

// PackSize returns the number of levels for the active difficulty
func (c *Catalog) PackSize() int {
	return len(c.packs[c.difficulty])
}

// QueueRemaining returns how many levels are left before the next reshuffle
func (c *Catalog) QueueRemaining() int {
	if c.queueDifficulty != c.difficulty {
		return c.PackSize()
	}
	return len(c.queue)
}

// PlayRandomUnplayed dequeues the next level of the active pack and loads it.
func (c *Catalog) PlayRandomUnplayed() (*Level, error) {
	c.ensurePack()

	if len(c.queue) == 0 {
		c.ClearLevel()
		c.status = fmt.Sprintf("No levels available for %s.", c.Grid().Name)
		return nil, fmt.Errorf("%s: %w", c.difficulty, ErrEmptyPack)
	}

	idx := c.queue[0]
	c.queue = c.queue[1:]

	level, err := c.load(c.packs[c.difficulty][idx])
	c.currentIndex = idx
	return level, err
}

// LoadLevelLine parses a raw line against the active grid and makes it the
// live level. On failure the live level is cleared and Status holds the reason.
func (c *Catalog) LoadLevelLine(line string) (*Level, error) {
	c.currentIndex = CustomLevel
	return c.load(line)
}

func (c *Catalog) load(line string) (*Level, error) {
	c.level = nil
	c.status = ""
	c.lastLine = line

	level, err := ParseLevelLine(line, c.Grid())
	if err != nil {
		c.status = err.Error()
		return nil, err
	}

	c.level = level
	c.status = fmt.Sprintf("Loaded level: vehicles=%d.", len(level.Vehicles))
	return level, nil
}

// ClearLevel forgets the live level
func (c *Catalog) ClearLevel() {
	c.level = nil
	c.currentIndex = CustomLevel
	c.status = ""
}

// Level returns the live level, nil when none is loaded
func (c *Catalog) Level() *Level {
	return c.level
}

// CurrentIndex returns the pack index of the live level, or CustomLevel
func (c *Catalog) CurrentIndex() int {
	return c.currentIndex
}

// LastLine returns the most recent line handed to the parser
func (c *Catalog) LastLine() string {
	return c.lastLine
}

// Status returns the message of the most recent load
func (c *Catalog) Status() string {
	return c.status
}

func (c *Catalog) ensurePack() {
	if c.queueDifficulty != c.difficulty {
		c.queueDifficulty = c.difficulty
		c.refill()
		return
	}
	if len(c.queue) == 0 {
		c.refill()
	}
}

func (c *Catalog) refill() {
	n := len(c.packs[c.difficulty])
	c.queue = make([]int, n)
	for i := range c.queue {
		c.queue[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := c.rng.IntN(i + 1)
		c.queue[i], c.queue[j] = c.queue[j], c.queue[i]
	}
}
