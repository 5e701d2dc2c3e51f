package multiblink

import (
	"sync"
	"time"

	"github.com/TeamNorCal/multiblink/model"
)

type subs struct {
	subs []chan *model.FrameMsg
	sync.Mutex
}

// startFanOut implement a broadcast mechanisim for accepting frame messages
// from the control loop and relaying them to subscribers.  The function
// returns a single channel to which frame messages get sent and, a channel
// that can be used to add listeners.  Subscribers that cannot keep up have
// messages dropped after a short wait.
//
func startFanOut(quitC <-chan struct{}) (inC chan *model.FrameMsg, subC chan chan *model.FrameMsg) {

	inC = make(chan *model.FrameMsg, 1)
	subC = make(chan chan *model.FrameMsg, 1)

	listeners := &subs{
		subs: []chan *model.FrameMsg{},
	}

	go func(quitC <-chan struct{}) {
		defer logger.Debug("fanout stopped")
		for {
			select {
			case <-quitC:
				return
			case sub := <-subC:
				if nil != sub {
					listeners.Lock()
					listeners.subs = append(listeners.subs, sub)
					listeners.Unlock()
					logger.Debug("subscription added")
				}
			case msg := <-inC:
				// Every subscriber gets its own copy of the message.  Subscribers whose
				// channel was closed are groomed out using
				// https://github.com/golang/go/wiki/SliceTricks#filtering-without-allocating
				listeners.Lock()
				newSubs := listeners.subs[:0]
				for _, ch := range listeners.subs {
					cpy, err := msg.DeepCopy()
					if err != nil {
						logger.Warn("frame could not be copied", "error", err.Error())
						newSubs = append(newSubs, ch)
						continue
					}
					if !send(ch, cpy, quitC) {
						logger.Debug("subscription dropped failed to send", "set", msg.Set)
						continue
					}
					newSubs = append(newSubs, ch)
				}
				listeners.subs = newSubs
				listeners.Unlock()
			}
		}
	}(quitC)

	return inC, subC
}

// send delivers msg to a single subscriber, waiting a short time for a slow
// one.  The subscriber is only reported as dead when its channel was closed.
func send(ch chan *model.FrameMsg, msg *model.FrameMsg, quitC <-chan struct{}) (alive bool) {
	defer func() {
		if r := recover(); r != nil {
			alive = false
		}
	}()

	select {
	case ch <- msg:
	case <-time.After(50 * time.Millisecond):
		logger.Debug("subscription failed to send", "set", msg.Set)
	case <-quitC:
	}
	return true
}
