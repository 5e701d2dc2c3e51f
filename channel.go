package multiblink

// This file contains the mutable execution state paired with every program
// of a program set

import (
	"time"
)

// phase is the sub state of the active instruction, a channel is either idle
// or part way through a fade that owns an interpolator
type phase interface {
	isPhase()
}

type idle struct{}

type fading struct {
	interp *Interpolator
	ended  bool // the interpolator has taken its last step
}

func (idle) isPhase()    {}
func (*fading) isPhase() {}

// Channel is the runtime record of one program
type Channel struct {
	Enabled bool
	PC      int
	Wake    time.Time
	Loops   uint

	phase    phase
	failures uint // consecutive fade construction failures
}

// Fading reports whether the channel currently owns a fade interpolator
func (ch *Channel) Fading() bool {
	_, isFading := ch.phase.(*fading)
	return isFading
}

// Interpolator returns the interpolator of an in flight fade, or nil
func (ch *Channel) Interpolator() *Interpolator {
	if f, isFading := ch.phase.(*fading); isFading {
		return f.interp
	}
	return nil
}

// Failures is the number of consecutive attempts to start a fade that failed
func (ch *Channel) Failures() uint {
	return ch.failures
}

func (ch *Channel) reset(now time.Time) {
	ch.Enabled = true
	ch.PC = 0
	ch.Wake = now
	ch.Loops = 0
	ch.phase = idle{}
	ch.failures = 0
}
