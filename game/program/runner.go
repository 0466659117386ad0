package program

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/mcp-training/gridrunner/game/engine"
)

const (
	DefaultStepDelay = 250 * time.Millisecond
	DefaultWaitDelay = time.Second

	MsgAlreadyRunning = "Already executing."
	MsgNoBlocks       = "No blocks to execute. Drag blocks from the left panel to program your vehicles."
	MsgWon            = "You win!"
	MsgComplete       = "Execution complete."
)

// ErrAlreadyRunning is returned when a runner is asked to start a second program
var ErrAlreadyRunning = errors.New("program already running")

// Step reports one executed instruction
type Step struct {
	RunID       string      `json:"run_id"`
	Row         int         `json:"row"`
	Stack       int         `json:"stack"`
	Vehicle     int         `json:"vehicle"`
	Instruction Instruction `json:"instruction"`
	OK          bool        `json:"ok"`
	Won         bool        `json:"won"`
	Message     string      `json:"message"`
}

// Result summarizes a finished run
type Result struct {
	RunID    string `json:"run_id"`
	Steps    int    `json:"steps"`
	Won      bool   `json:"won"`
	Message  string `json:"message"`
	Canceled bool   `json:"canceled,omitempty"`
}

// Runner executes programs against an engine, one at a time.
type Runner struct {
	StepDelay time.Duration
	WaitDelay time.Duration

	running atomic.Bool
}

// NewRunner creates a runner with the default pacing
func NewRunner() *Runner {
	return &Runner{StepDelay: DefaultStepDelay, WaitDelay: DefaultWaitDelay}
}

// Running reports whether a program is executing
func (r *Runner) Running() bool {
	return r.running.Load()
}

// Run executes prog row by row: row 0 of every stack left to right, then row
// 1, and so on. Each move or rotation selects the stack's vehicle through its
// first cell, acts, and restores the previous selection. Execution stops at
// the first win. onStep, when set, is called after every instruction.
func (r *Runner) Run(ctx context.Context, eng engine.Engine, prog *Program, onStep func(Step)) (*Result, error) {
	if !r.running.CompareAndSwap(false, true) {
		return &Result{Message: MsgAlreadyRunning}, ErrAlreadyRunning
	}
	defer r.running.Store(false)

	if err := prog.Validate(len(eng.GetVehicles())); err != nil {
		return nil, err
	}

	res := &Result{RunID: uuid.NewString()}
	if prog.Len() == 0 {
		res.Message = MsgNoBlocks
		return res, nil
	}

	log.Printf("[PROGRAM] run=%s stacks=%d instructions=%d", res.RunID, len(prog.Stacks), prog.Len())

	for row := 0; row < prog.Height(); row++ {
		for s, stack := range prog.Stacks {
			if row >= len(stack.Instructions) {
				continue
			}
			in := stack.Instructions[row]

			delay := r.StepDelay
			step := Step{RunID: res.RunID, Row: row, Stack: s, Vehicle: stack.Vehicle, Instruction: in}
			if in.Op == OpWait {
				delay = r.WaitDelay
				step.OK = true
			} else {
				step.OK, step.Message = r.execute(eng, stack.Vehicle, in)
			}
			step.Won = eng.IsWon()
			res.Steps++

			if onStep != nil {
				onStep(step)
			}

			if step.Won {
				res.Won = true
				res.Message = MsgWon
				log.Printf("[PROGRAM] run=%s won after %d steps", res.RunID, res.Steps)
				return res, nil
			}

			if err := sleep(ctx, delay); err != nil {
				res.Canceled = true
				res.Message = "Execution canceled."
				return res, err
			}
		}
	}

	res.Message = MsgComplete
	return res, nil
}

func (r *Runner) execute(eng engine.Engine, vehicle int, in Instruction) (bool, string) {
	vehicles := eng.GetVehicles()
	if vehicle < 0 || vehicle >= len(vehicles) || len(vehicles[vehicle].Cells) == 0 {
		return false, "Vehicle not found."
	}

	previous := eng.Selected()
	eng.SelectAt(vehicles[vehicle].Cells[0])

	var ok bool
	switch in.Op {
	case OpMove:
		ok = eng.MoveDirection(in.Direction)
	case OpRotate:
		ok = eng.RotateDirection(in.Direction)
	}
	msg := eng.Status()

	if previous != engine.NoSelection && !eng.IsWon() {
		eng.SelectIndex(previous)
	}
	return ok, msg
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
