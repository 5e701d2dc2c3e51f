package multiblink

// This file contains the color buffer shared by all channels of a program
// set.  Every channel owns its slot and only the interpreter writes to it,
// the control loop drains the changed slots into an Output when flushing.

import (
	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/multiblink/model"
)

// Output is the physical backend that colors are eventually emitted to.
// WriteColor stores a value, Flush pushes all stored values to the medium.
type Output interface {
	WriteColor(channel int, c model.Color)
	Flush() (err errors.Error)
}

// Frame is the color buffer with change tracking
type Frame struct {
	colors  []model.Color
	changed []bool
	dirty   bool
}

func NewFrame(channels int) (frame *Frame) {
	frame = &Frame{
		colors:  make([]model.Color, channels),
		changed: make([]bool, channels),
	}
	frame.Reset()
	return frame
}

// Len is the number of channels in the frame
func (frame *Frame) Len() int {
	return len(frame.colors)
}

// Set stores c in the channel slot and reports whether the slot changed.
// Writes to channels outside of the frame are ignored.
func (frame *Frame) Set(channel int, c model.Color) (changed bool) {
	if channel < 0 || channel >= len(frame.colors) {
		return false
	}
	if frame.colors[channel] == c {
		return false
	}
	frame.colors[channel] = c
	frame.changed[channel] = true
	frame.dirty = true
	return true
}

func (frame *Frame) Color(channel int) model.Color {
	if channel < 0 || channel >= len(frame.colors) {
		return model.Black
	}
	return frame.colors[channel]
}

// Dirty is true when any slot has changed since the last flush
func (frame *Frame) Dirty() bool {
	return frame.dirty
}

// Changed lists the slots that changed since the last flush, in channel order
func (frame *Frame) Changed() (changes []model.ChannelColor) {
	changes = make([]model.ChannelColor, 0, len(frame.colors))
	for ch, isChanged := range frame.changed {
		if isChanged {
			changes = append(changes, model.ChannelColor{Channel: ch, Color: frame.colors[ch]})
		}
	}
	return changes
}

// Reset returns every slot to black and marks all of them as changed so that
// the next flush repaints the whole output
func (frame *Frame) Reset() {
	for ch := range frame.colors {
		frame.colors[ch] = model.Black
		frame.changed[ch] = true
	}
	frame.dirty = true
}

// Flush writes the changed slots to out, asks it to emit them and clears the
// change tracking.  The changes that were written are returned.
func (frame *Frame) Flush(out Output) (changes []model.ChannelColor, err errors.Error) {
	if !frame.dirty {
		return nil, nil
	}
	changes = frame.Changed()
	for _, change := range changes {
		out.WriteColor(change.Channel, change.Color)
	}
	for ch := range frame.changed {
		frame.changed[ch] = false
	}
	frame.dirty = false

	return changes, out.Flush()
}
