package multiblink

// This file contains the control loop.  Every iteration samples the mode
// switch, flushes any pending output and then runs a single interpreter
// tick over the selected program set.

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"
	"github.com/mgutz/logxi"

	"github.com/TeamNorCal/multiblink/model"
)

var (
	logger = logxi.New("multiblink")
)

// SetLogLevel changes the level of the package logger, for example to
// logxi.LevelDebug
func SetLogLevel(level int) {
	logger.SetLevel(level)
}

type Controller struct {
	sets     []model.ProgramSet
	channels [][]Channel
	current  int

	frame  *Frame
	out    Output
	edges  EdgeDetector
	interp Interpreter

	// Optional destination for a description of every flushed frame
	frameC chan<- *model.FrameMsg

	sync.Mutex
}

// NewController validates the program sets against the number of output
// channels and resets every one of them to start at now.  The first set is
// selected.
func NewController(sets []model.ProgramSet, channels int, out Output, edges EdgeDetector, now time.Time) (ctrl *Controller, err errors.Error) {
	if len(sets) == 0 {
		return nil, errors.New("no program sets were supplied").With("stack", stack.Trace().TrimRuntime())
	}
	if channels <= 0 {
		return nil, errors.New("the output must have at least one channel").With("channels", channels).With("stack", stack.Trace().TrimRuntime())
	}
	if out == nil {
		return nil, errors.New("no output was supplied").With("stack", stack.Trace().TrimRuntime())
	}
	if edges == nil {
		edges = NoEdges{}
	}

	ctrl = &Controller{
		sets:     sets,
		channels: make([][]Channel, len(sets)),
		frame:    NewFrame(channels),
		out:      out,
		edges:    edges,
	}
	ctrl.interp.Report = ctrl.reportFade

	for idx := range sets {
		if err = sets[idx].Validate(channels); err != nil {
			return nil, err
		}
		ctrl.channels[idx] = NewChannels(&sets[idx], now)
	}
	return ctrl, nil
}

// SetFadePolicy selects how channels whose fade could not start are treated,
// factory may be nil to use NewInterpolator
func (ctrl *Controller) SetFadePolicy(policy FadeFailurePolicy, factory InterpolatorFactory) {
	ctrl.Lock()
	defer ctrl.Unlock()

	ctrl.interp.OnFailed = policy
	ctrl.interp.Factory = factory
}

// Publish sends a FrameMsg for every flush to frameC, messages are dropped
// rather than allowing the control loop to block
func (ctrl *Controller) Publish(frameC chan<- *model.FrameMsg) {
	ctrl.Lock()
	defer ctrl.Unlock()

	ctrl.frameC = frameC
}

func (ctrl *Controller) reportFade(program int, err errors.Error) {
	logger.Warn("fade could not be started", "set", ctrl.sets[ctrl.current].Name, "program", program, "error", err.Error())
}

// Current returns the index and name of the selected program set
func (ctrl *Controller) Current() (set int, name string) {
	ctrl.Lock()
	defer ctrl.Unlock()

	return ctrl.current, ctrl.sets[ctrl.current].Name
}

// Channels returns a copy of the runtime records of the selected program set
func (ctrl *Controller) Channels() (channels []Channel) {
	ctrl.Lock()
	defer ctrl.Unlock()

	channels = make([]Channel, len(ctrl.channels[ctrl.current]))
	copy(channels, ctrl.channels[ctrl.current])
	return channels
}

// Color returns the buffered color of an output channel
func (ctrl *Controller) Color(channel int) model.Color {
	ctrl.Lock()
	defer ctrl.Unlock()

	return ctrl.frame.Color(channel)
}

// Select makes set the running program set, restarting it from the top
func (ctrl *Controller) Select(set int, now time.Time) (err errors.Error) {
	ctrl.Lock()
	defer ctrl.Unlock()

	return ctrl.selectSet(set, now)
}

func (ctrl *Controller) selectSet(set int, now time.Time) (err errors.Error) {
	if set < 0 || set >= len(ctrl.sets) {
		return errors.New("program set out of range").With("set", set).With("sets", len(ctrl.sets)).With("stack", stack.Trace().TrimRuntime())
	}
	ctrl.current = set
	Reset(ctrl.channels[set], ctrl.frame, now)

	logger.Info("program set selected", "set", set, "name", ctrl.sets[set].Name)
	return nil
}

func (ctrl *Controller) nextSet() (set int) {
	if selector, isSelector := ctrl.edges.(Selector); isSelector {
		if set, isSelected := selector.Selected(); isSelected {
			return set
		}
	}
	return (ctrl.current + 1) % len(ctrl.sets)
}

// Step performs one iteration of the control loop at now.  Any error comes
// from the mode switch or the output, the interpreter itself does not fail.
func (ctrl *Controller) Step(now time.Time) (err errors.Error) {
	ctrl.Lock()
	defer ctrl.Unlock()

	if ctrl.edges.EdgeTriggered() {
		err = ctrl.selectSet(ctrl.nextSet(), now)
	}

	if ctrl.frame.Dirty() {
		changes, errFlush := ctrl.frame.Flush(ctrl.out)
		if errFlush != nil {
			err = errFlush
		}
		ctrl.publish(now, changes)
	}

	ctrl.interp.Tick(now, &ctrl.sets[ctrl.current], ctrl.channels[ctrl.current], ctrl.frame)

	return err
}

func (ctrl *Controller) publish(now time.Time, changes []model.ChannelColor) {
	if ctrl.frameC == nil || len(changes) == 0 {
		return
	}
	msg := &model.FrameMsg{
		At:      now,
		Set:     ctrl.sets[ctrl.current].Name,
		Changes: changes,
	}
	select {
	case ctrl.frameC <- msg:
	default:
	}
}

// Run drives Step from a ticker until quitC is closed.  Errors are reported
// on errorC and do not stop the loop.
func (ctrl *Controller) Run(refresh time.Duration, errorC chan<- errors.Error, quitC <-chan struct{}) {

	tick := time.NewTicker(refresh)
	defer tick.Stop()

	for {
		select {
		case now := <-tick.C:
			if err := ctrl.Step(now); err != nil {
				select {
				case errorC <- err:
				case <-time.After(20 * time.Millisecond):
					fmt.Fprintln(os.Stderr, err.Error())
				}
			}
		case <-quitC:
			return
		}
	}
}
