package multiblink

// This file contains an Output that sends the color buffer to one or more
// fadecandy devices by way of an Open Pixel Control server.  Each channel of
// the program set is one pixel on a single OPC channel.

import (
	"bytes"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/cnf/structhash"

	"github.com/kellydunn/go-opc"

	"github.com/TeamNorCal/multiblink/model"
)

type opcFrame struct {
	Channel uint8
	Pixels  []model.Color
}

// FadeCandy is an Output for an OPC server, typically fcserver
type FadeCandy struct {
	server    string
	frame     opcFrame
	last      []byte
	oc        *opc.Client
	connected bool
	retryAt   time.Time
}

// Interval between connection attempts after the OPC server was lost
const opcRetry = time.Second

// NewFadeCandy prepares an OPC output with the given number of pixels.  The
// connection is made lazily upon the first flush and is retried on
// subsequent flushes after a failure.
func NewFadeCandy(server string, channel uint8, pixels int) (fc *FadeCandy) {
	return &FadeCandy{
		server: server,
		frame: opcFrame{
			Channel: channel,
			Pixels:  make([]model.Color, pixels),
		},
		oc: opc.NewClient(),
	}
}

func (fc *FadeCandy) WriteColor(channel int, c model.Color) {
	if channel < 0 || channel >= len(fc.frame.Pixels) {
		return
	}
	fc.frame.Pixels[channel] = c
}

func (fc *FadeCandy) connect() (err errors.Error) {
	if fc.connected {
		return nil
	}
	if errGo := fc.oc.Connect("tcp", fc.server); errGo != nil {
		fc.retryAt = time.Now().Add(opcRetry)
		return errors.Wrap(errGo).With("url", fc.server).With("stack", stack.Trace().TrimRuntime())
	}
	fc.connected = true
	logger.Info("connected to OPC server", "url", fc.server)
	return nil
}

// message renders the pixel buffer as an OPC set pixel colors message
func (fc *FadeCandy) message() (m *opc.Message) {
	m = opc.NewMessage(fc.frame.Channel)
	m.SetLength(uint16(len(fc.frame.Pixels) * 3))
	for i, c := range fc.frame.Pixels {
		r, g, b := c.RGB()
		m.SetPixelColor(i, r, g, b)
	}
	return m
}

// Flush sends the pixels to the OPC server, frames identical to the last one
// that was sent successfully are skipped
func (fc *FadeCandy) Flush() (err errors.Error) {

	hash := structhash.Md5(fc.frame, 1)
	if fc.connected && bytes.Equal(fc.last, hash) {
		return nil
	}

	// Frames are held in the pixel buffer while waiting to reconnect
	if !fc.connected && time.Now().Before(fc.retryAt) {
		return nil
	}
	if err = fc.connect(); err != nil {
		return err
	}

	if errGo := fc.oc.Send(fc.message()); errGo != nil {
		fc.connected = false
		fc.last = nil
		fc.retryAt = time.Now().Add(opcRetry)
		return errors.Wrap(errGo).With("url", fc.server).With("stack", stack.Trace().TrimRuntime())
	}
	fc.last = hash
	return nil
}
