package multiblink

// This file contains the integer only color interpolator used by fades.
//
// The three color components are treated as the axes of a 3D line that is
// walked using Bresenham's algorithm, the axis with the largest change
// moves on every step and the other two move whenever their error term
// underflows.  All error terms share the largest delta as their denominator
// so no division is needed per step.

import (
	"time"

	"github.com/TeamNorCal/multiblink/model"
)

// Interpolator produces the intermediate colors of a single fade.  It is
// not restartable, a new one is built for every fade.
type Interpolator struct {
	start model.Color
	end   model.Color

	cur   [3]int
	delta [3]int
	dir   [3]int
	err   [3]int

	steps     int
	remaining int
	ended     bool

	interval time.Duration
	last     time.Time
}

// NewInterpolator prepares a fade from c0 to c1 that should take period to
// complete, starting at now.  The step interval is floored to whole
// milliseconds so the walk may finish ahead of period, never after it.
func NewInterpolator(period time.Duration, c0 model.Color, c1 model.Color, now time.Time) (interp *Interpolator) {
	interp = &Interpolator{
		start: c0,
		end:   c1,
		cur:   c0.Components(),
		last:  now,
	}

	to := c1.Components()
	for i := range interp.cur {
		d := to[i] - interp.cur[i]
		switch {
		case d < 0:
			interp.dir[i] = -1
			d = -d
		case d > 0:
			interp.dir[i] = 1
		}
		interp.delta[i] = d
		if d > interp.steps {
			interp.steps = d
		}
	}

	for i := range interp.err {
		interp.err[i] = interp.steps / 2
	}
	interp.remaining = interp.steps

	interp.interval = time.Millisecond
	if interp.steps != 0 {
		if iv := (period / time.Duration(interp.steps)).Truncate(time.Millisecond); iv > interp.interval {
			interp.interval = iv
		}
	}
	return interp
}

// Steps is the total number of color changes the fade will make
func (interp *Interpolator) Steps() int {
	return interp.steps
}

// Remaining is the number of color changes still to be made
func (interp *Interpolator) Remaining() int {
	return interp.remaining
}

// Interval is the time between consecutive steps
func (interp *Interpolator) Interval() time.Duration {
	return interp.interval
}

// Color is the most recently produced color
func (interp *Interpolator) Color() model.Color {
	return model.RGB(uint8(interp.cur[0]), uint8(interp.cur[1]), uint8(interp.cur[2]))
}

// Next advances the fade if a step interval has passed since the last step.
// changed reports that c is a new color, ended is reported exactly once, on
// the call that takes the final step.  A fade between equal colors ends on
// its first call without producing a color.
func (interp *Interpolator) Next(now time.Time) (c model.Color, changed bool, ended bool) {
	if interp.remaining <= 0 {
		if !interp.ended {
			// Degenerate fade between equal colors
			interp.ended = true
			return interp.Color(), false, true
		}
		return interp.Color(), false, false
	}

	if now.Sub(interp.last) < interp.interval {
		return interp.Color(), false, false
	}
	interp.last = interp.last.Add(interp.interval)

	for i := range interp.cur {
		interp.err[i] -= interp.delta[i]
		if interp.err[i] < 0 {
			interp.err[i] += interp.steps
			interp.cur[i] += interp.dir[i]
		}
	}
	interp.remaining--
	interp.ended = interp.remaining == 0

	return interp.Color(), true, interp.ended
}
