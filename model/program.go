package model

// This module defines the read only sequence programs that animate
// individual channels, along with their load time validation

import (
	"fmt"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"
)

// MaxState is the number of instruction slots every program carries.
// Short programs are padded with Nop.
const MaxState = 8

type Opcode uint8

const (
	OpNull Opcode = iota
	OpSet
	OpFade
	OpLoop
	OpGoto
	OpStop
)

func (op Opcode) String() string {
	switch op {
	case OpNull:
		return "NULL"
	case OpSet:
		return "SET"
	case OpFade:
		return "FADE"
	case OpLoop:
		return "LOOP"
	case OpGoto:
		return "GOTO"
	case OpStop:
		return "STOP"
	}
	return fmt.Sprintf("OP(%d)", uint8(op))
}

// Instruction is one step of a sequence program.  Active is the hold,
// fade, loop test or goto delay depending on the kind of instruction.
type Instruction interface {
	Op() Opcode
	Active() time.Duration
}

// Set holds a solid color for Hold
type Set struct {
	Color Color
	Hold  time.Duration
}

// Fade moves smoothly from one color to another over Period
type Fade struct {
	From   Color
	To     Color
	Period time.Duration
}

// Loop jumps back to Target until it has been passed Count times
type Loop struct {
	Target int
	Count  uint
	Delay  time.Duration
}

// Goto jumps to Target unconditionally once Delay has elapsed
type Goto struct {
	Target int
	Delay  time.Duration
}

// Stop disables the channel until the program set is reset
type Stop struct{}

// Nop is the padding instruction, an empty slot behaves the same way
type Nop struct{}

func (Set) Op() Opcode  { return OpSet }
func (Fade) Op() Opcode { return OpFade }
func (Loop) Op() Opcode { return OpLoop }
func (Goto) Op() Opcode { return OpGoto }
func (Stop) Op() Opcode { return OpStop }
func (Nop) Op() Opcode  { return OpNull }

func (i Set) Active() time.Duration  { return i.Hold }
func (i Fade) Active() time.Duration { return i.Period }
func (i Loop) Active() time.Duration { return i.Delay }
func (i Goto) Active() time.Duration { return i.Delay }
func (Stop) Active() time.Duration   { return 0 }
func (Nop) Active() time.Duration    { return 0 }

// Steps is the fixed size instruction table of a single channel
type Steps [MaxState]Instruction

// Program binds an instruction table to the output channel it animates.
// Several programs may share a channel when they are designed to take turns.
type Program struct {
	Channel int
	Steps   Steps
}

// At returns the instruction at pc, empty slots read as Nop
func (p *Program) At(pc int) Instruction {
	if pc < 0 || pc >= MaxState || p.Steps[pc] == nil {
		return Nop{}
	}
	return p.Steps[pc]
}

// NewProgram builds a program from a short list of instructions, padding
// the remaining slots with Nop
func NewProgram(channel int, instructions ...Instruction) (p Program, err errors.Error) {
	if len(instructions) > MaxState {
		return p, errors.New("too many instructions for a program").With("channel", channel).
			With("count", len(instructions)).With("max", MaxState).With("stack", stack.Trace().TrimRuntime())
	}
	p.Channel = channel
	for i := range p.Steps {
		p.Steps[i] = Nop{}
	}
	copy(p.Steps[:], instructions)
	return p, nil
}

// MustProgram is NewProgram for static tables known to be well formed
func MustProgram(channel int, instructions ...Instruction) Program {
	p, err := NewProgram(channel, instructions...)
	if err != nil {
		panic(err.Error())
	}
	return p
}

// ProgramSet is the complete collection of programs run under one mode
type ProgramSet struct {
	Name     string
	Programs []Program
}

// Validate rejects programs that would rely upon the interpreter wrapping
// out of range jumps, or that address channels the output does not have
func (set *ProgramSet) Validate(channels int) (err errors.Error) {
	if len(set.Programs) == 0 {
		return errors.New("program set has no programs").With("set", set.Name).With("stack", stack.Trace().TrimRuntime())
	}
	for idx, prog := range set.Programs {
		if prog.Channel < 0 || prog.Channel >= channels {
			return errors.New("channel out of range").With("set", set.Name).With("program", idx).
				With("channel", prog.Channel).With("channels", channels).With("stack", stack.Trace().TrimRuntime())
		}
		for pc, inst := range prog.Steps {
			if err = validateInstruction(inst); err != nil {
				return err.With("set", set.Name).With("program", idx).With("pc", pc)
			}
		}
	}
	return nil
}

func validateInstruction(inst Instruction) (err errors.Error) {
	switch i := inst.(type) {
	case nil, Nop, Stop:
	case Set:
		if i.Hold < 0 {
			return errors.New("negative hold time").With("stack", stack.Trace().TrimRuntime())
		}
	case Fade:
		if i.Period <= 0 {
			return errors.New("fade period must be positive").With("stack", stack.Trace().TrimRuntime())
		}
	case Loop:
		if i.Target < 0 || i.Target >= MaxState {
			return errors.New("loop target out of range").With("target", i.Target).With("stack", stack.Trace().TrimRuntime())
		}
		if i.Count < 1 {
			return errors.New("loop count must be at least one").With("stack", stack.Trace().TrimRuntime())
		}
		if i.Delay < 0 {
			return errors.New("negative loop delay").With("stack", stack.Trace().TrimRuntime())
		}
	case Goto:
		if i.Target < 0 || i.Target >= MaxState {
			return errors.New("goto target out of range").With("target", i.Target).With("stack", stack.Trace().TrimRuntime())
		}
		if i.Delay < 0 {
			return errors.New("negative goto delay").With("stack", stack.Trace().TrimRuntime())
		}
	default:
		return errors.New("unknown instruction").With("opcode", inst.Op().String()).With("stack", stack.Trace().TrimRuntime())
	}
	return nil
}
