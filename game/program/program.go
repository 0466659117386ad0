package program

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/wricardo/mcp-training/gridrunner/game/engine"
)

// ErrInvalidProgram is wrapped by every decoding or validation failure
var ErrInvalidProgram = errors.New("invalid program")

// Op is the kind of an instruction
type Op string

const (
	OpMove   Op = "move"
	OpRotate Op = "rotate"
	OpWait   Op = "wait"
)

// Instruction is one block of a stack. Direction is north/south/east/west
// for moves and cw/ccw for rotations; waits ignore it.
type Instruction struct {
	Op        Op     `json:"op"`
	Direction string `json:"direction,omitempty"`
}

func (i Instruction) String() string {
	if i.Op == OpWait {
		return string(i.Op)
	}
	return string(i.Op) + " " + i.Direction
}

// Stack is the instruction list driving one vehicle
type Stack struct {
	Vehicle      int           `json:"vehicle"`
	Instructions []Instruction `json:"instructions"`
}

// Program is a set of stacks executed row by row
type Program struct {
	Stacks []Stack `json:"stacks"`
}

// ParseProgram decodes a JSON program and normalizes its directions.
func ParseProgram(data []byte) (*Program, error) {
	var p Program
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProgram, err)
	}
	if err := p.Normalize(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Normalize lower-cases ops and maps every direction alias to its canonical
// name (north/south/east/west, cw/ccw).
func (p *Program) Normalize() error {
	for s := range p.Stacks {
		for i := range p.Stacks[s].Instructions {
			in := &p.Stacks[s].Instructions[i]
			in.Op = Op(strings.ToLower(strings.TrimSpace(string(in.Op))))

			switch in.Op {
			case OpMove:
				dx, dy, ok := engine.DirectionDelta(in.Direction)
				if !ok {
					return fmt.Errorf("%w: stack %d instruction %d: unknown direction %q", ErrInvalidProgram, s, i, in.Direction)
				}
				in.Direction = engine.DirectionName(dx, dy)
			case OpRotate:
				clockwise, ok := engine.ParseRotation(in.Direction)
				if !ok {
					return fmt.Errorf("%w: stack %d instruction %d: unknown rotation %q", ErrInvalidProgram, s, i, in.Direction)
				}
				in.Direction = "ccw"
				if clockwise {
					in.Direction = "cw"
				}
			case OpWait:
				in.Direction = ""
			default:
				return fmt.Errorf("%w: stack %d instruction %d: unknown op %q", ErrInvalidProgram, s, i, in.Op)
			}
		}
	}
	return nil
}

// Validate normalizes the program and checks every stack targets one of
// vehicleCount vehicles.
func (p *Program) Validate(vehicleCount int) error {
	if p == nil {
		return fmt.Errorf("%w: program is nil", ErrInvalidProgram)
	}
	if err := p.Normalize(); err != nil {
		return err
	}
	for s, stack := range p.Stacks {
		if stack.Vehicle < 0 || stack.Vehicle >= vehicleCount {
			return fmt.Errorf("%w: stack %d targets vehicle %d of %d", ErrInvalidProgram, s, stack.Vehicle, vehicleCount)
		}
	}
	return nil
}

// Len counts the instructions across all stacks
func (p *Program) Len() int {
	n := 0
	for _, s := range p.Stacks {
		n += len(s.Instructions)
	}
	return n
}

// Height is the length of the tallest stack
func (p *Program) Height() int {
	h := 0
	for _, s := range p.Stacks {
		h = max(h, len(s.Instructions))
	}
	return h
}
