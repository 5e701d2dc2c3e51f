package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/TeamNorCal/multiblink"
	"github.com/TeamNorCal/multiblink/model"
)

// This file implements a monitor that subscribe to and displays
// the frames sent to the outputs using event subscription

func describe(msg *model.FrameMsg) string {
	parts := make([]string, 0, len(msg.Changes))
	for _, change := range msg.Changes {
		parts = append(parts, fmt.Sprintf("%d=%s %s", change.Channel, change.Color, multiblink.Swatches([]model.Color{change.Color})))
	}
	return fmt.Sprintf("%s [%s] %s\n", msg.At.Format("15:04:05.000"), msg.Set, strings.Join(parts, " "))
}

func runMonitoring(subscribeC chan chan *model.FrameMsg, msgC chan<- string, quitC <-chan struct{}) {

	frameC := make(chan *model.FrameMsg, 16)
	subscribeC <- frameC

	for {
		select {
		case msg := <-frameC:
			logger.Debug(fmt.Sprintf("%+v", msg))
			select {
			case msgC <- describe(msg):
			case <-time.After(20 * time.Millisecond):
			}
		case <-quitC:
			return
		}
	}
}
