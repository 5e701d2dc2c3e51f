package multiblink

// This file contains the table driven state machine that advances every
// channel of a program set by at most one transition per tick.  A tick never
// blocks, it compares the time against each channel's wake time and returns.

import (
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/multiblink/model"
)

// FadeFailurePolicy decides what happens to a channel whose fade interpolator
// could not be built
type FadeFailurePolicy int

const (
	// RetryFade attempts to build the interpolator again on every tick
	RetryFade FadeFailurePolicy = iota
	// DisableChannel stops the channel until its program set is reset
	DisableChannel
)

func (policy FadeFailurePolicy) String() string {
	switch policy {
	case RetryFade:
		return "retry"
	case DisableChannel:
		return "disable"
	}
	return "unknown"
}

// InterpolatorFactory builds the interpolator for a fade starting at now
type InterpolatorFactory func(period time.Duration, from model.Color, to model.Color, now time.Time) (*Interpolator, errors.Error)

func newInterpolator(period time.Duration, from model.Color, to model.Color, now time.Time) (*Interpolator, errors.Error) {
	return NewInterpolator(period, from, to, now), nil
}

// Interpreter runs ticks over program sets.  The zero value retries failed
// fades and uses NewInterpolator.
type Interpreter struct {
	Factory  InterpolatorFactory
	OnFailed FadeFailurePolicy

	// Report, when set, is told about fades that could not be started
	Report func(program int, err errors.Error)
}

// Tick visits every enabled channel once, in table order.  channels holds the
// runtime records for set.Programs using the same index.
func (in *Interpreter) Tick(now time.Time, set *model.ProgramSet, channels []Channel, frame *Frame) {
	for idx := range set.Programs {
		if idx >= len(channels) {
			return
		}
		if !channels[idx].Enabled {
			continue
		}
		in.step(now, idx, &set.Programs[idx], &channels[idx], frame)
	}
}

func (in *Interpreter) step(now time.Time, idx int, prog *model.Program, ch *Channel, frame *Frame) {
	inst := prog.At(wrap(ch.PC))
	expired := now.Sub(ch.Wake) >= inst.Active()

	switch i := inst.(type) {
	case model.Set:
		frame.Set(prog.Channel, i.Color)
		if expired {
			advance(ch, inst, ch.PC+1)
		}

	case model.Fade:
		f, isFading := ch.phase.(*fading)
		if !isFading {
			in.startFade(now, idx, prog, ch, i, frame)
			return
		}
		if expired {
			ch.phase = idle{}
			frame.Set(prog.Channel, i.To)
			advance(ch, inst, ch.PC+1)
			return
		}
		if !f.ended {
			c, changed, ended := f.interp.Next(now)
			if changed {
				frame.Set(prog.Channel, c)
			}
			f.ended = ended
		}

	case model.Loop:
		if !expired {
			return
		}
		ch.Loops++
		if ch.Loops < i.Count {
			advance(ch, inst, i.Target)
			return
		}
		ch.Loops = 0
		advance(ch, inst, ch.PC+1)

	case model.Goto:
		if expired {
			advance(ch, inst, i.Target)
		}

	case model.Stop:
		ch.Enabled = false

	default:
		// Nop, empty slots and anything unrecognized
		advance(ch, inst, ch.PC+1)
	}
}

func (in *Interpreter) startFade(now time.Time, idx int, prog *model.Program, ch *Channel, fade model.Fade, frame *Frame) {
	factory := in.Factory
	if factory == nil {
		factory = newInterpolator
	}

	interp, err := factory(fade.Period, fade.From, fade.To, now)
	if err == nil && interp == nil {
		err = errors.New("no interpolator was produced").With("stack", stack.Trace().TrimRuntime())
	}
	if err != nil {
		ch.failures++
		if in.OnFailed == DisableChannel {
			ch.Enabled = false
		}
		if in.Report != nil {
			in.Report(idx, err.With("channel", prog.Channel).With("pc", ch.PC).With("attempts", ch.failures).With("policy", in.OnFailed.String()))
		}
		return
	}

	ch.failures = 0
	ch.phase = &fading{interp: interp}
	frame.Set(prog.Channel, fade.From)
}

// advance moves the channel to next, keeping the wake times on the schedule
// implied by the program rather than the moment the tick happened
func advance(ch *Channel, inst model.Instruction, next int) {
	ch.Wake = ch.Wake.Add(inst.Active())
	ch.PC = wrap(next)
}

func wrap(pc int) int {
	pc %= model.MaxState
	if pc < 0 {
		pc += model.MaxState
	}
	return pc
}
