package multiblink

// This module wires the control loop to the broadcast of flushed frames and
// starts both of them running

import (
	"time"

	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/multiblink/model"
)

type Gateway struct {
}

// Start runs the controller at the refresh rate until quitC is closed.  The
// returned channel accepts subscriptions for a description of every frame
// sent to the output.
func (*Gateway) Start(ctrl *Controller, refresh time.Duration, errorC chan<- errors.Error, quitC <-chan struct{}) (subscribeC chan chan *model.FrameMsg) {

	frameC, subscribeC := startFanOut(quitC)

	// After creating the broadcast channel the controller is attached to it
	// so that monitors can observe what is being displayed
	//
	ctrl.Publish(frameC)

	go ctrl.Run(refresh, errorC, quitC)

	return subscribeC
}
