package multiblink

// This file contains the reset applied to a program set when it is selected.
// In flight fades are abandoned, not finished.

import (
	"time"

	"github.com/TeamNorCal/multiblink/model"
)

// NewChannels allocates the runtime records for a program set, already reset
// to start at now
func NewChannels(set *model.ProgramSet, now time.Time) (channels []Channel) {
	channels = make([]Channel, len(set.Programs))
	for idx := range channels {
		channels[idx].reset(now)
	}
	return channels
}

// Reset rewinds every runtime record to the first instruction with its timer
// starting at now, and returns the frame to an all off baseline that will be
// repainted in full by the next flush
func Reset(channels []Channel, frame *Frame, now time.Time) {
	for idx := range channels {
		channels[idx].reset(now)
	}
	if frame != nil {
		frame.Reset()
	}
}
