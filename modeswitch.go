package multiblink

// This module contains the mode switch detectors sampled by the control loop.
// A detector reports edges rather than levels, holding a button down or
// sending the same mode again does not restart the program set.

import (
	"os"
	"time"
)

// EdgeDetector is sampled once per control loop iteration
type EdgeDetector interface {
	EdgeTriggered() bool
}

// Selector is implemented by detectors that know which program set should
// be run after an edge, those that do not cause the sets to be cycled through
type Selector interface {
	Selected() (set int, isSelected bool)
}

// Debouncer turns a noisy level, such as a push button input, into rising
// edges once the level has been stable for the debounce window
type Debouncer struct {
	Sample func() bool
	Window time.Duration
	Clock  func() time.Time

	stable    bool
	candidate bool
	since     time.Time
}

func NewDebouncer(sample func() bool, window time.Duration) (debounce *Debouncer) {
	return &Debouncer{
		Sample: sample,
		Window: window,
		Clock:  time.Now,
	}
}

func (debounce *Debouncer) EdgeTriggered() bool {
	now := debounce.Clock()
	level := debounce.Sample()

	if level != debounce.candidate {
		debounce.candidate = level
		debounce.since = now
		return false
	}
	if level == debounce.stable || now.Sub(debounce.since) < debounce.Window {
		return false
	}
	debounce.stable = level
	return level
}

// SignalEdge reports an edge for every signal received, for example SIGUSR1
// sent by an operator to move to the next program set
type SignalEdge struct {
	sigC <-chan os.Signal
}

func NewSignalEdge(sigC <-chan os.Signal) (edge *SignalEdge) {
	return &SignalEdge{sigC: sigC}
}

func (edge *SignalEdge) EdgeTriggered() bool {
	select {
	case <-edge.sigC:
		return true
	default:
		return false
	}
}

// NoEdges never switches program sets
type NoEdges struct{}

func (NoEdges) EdgeTriggered() bool { return false }
