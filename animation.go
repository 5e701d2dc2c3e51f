package multiblink

// This file contains an offline player that runs a program set against a
// virtual clock and returns every frame that would have been sent to the
// output, it is used for dry runs and to check tables without hardware

import (
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/multiblink/model"
)

// Simulate steps the control loop over set every tick, from start for length,
// and returns the frames flushed along the way
func Simulate(set model.ProgramSet, channels int, start time.Time, length time.Duration, tick time.Duration) (frames []*model.FrameMsg, err errors.Error) {
	if tick <= 0 {
		return nil, errors.New("tick must be positive").With("tick", tick.String()).With("stack", stack.Trace().TrimRuntime())
	}

	ctrl, err := NewController([]model.ProgramSet{set}, channels, NewRecorder(), NoEdges{}, start)
	if err != nil {
		return nil, err
	}

	steps := int(length/tick) + 1
	frameC := make(chan *model.FrameMsg, steps)
	ctrl.Publish(frameC)

	for i := 0; i < steps; i++ {
		if err = ctrl.Step(start.Add(time.Duration(i) * tick)); err != nil {
			return nil, err
		}
	}
	close(frameC)

	frames = make([]*model.FrameMsg, 0, len(frameC))
	for msg := range frameC {
		frames = append(frames, msg)
	}
	return frames, nil
}
