package multiblink

// This file contains an Output for LED strips behind a serial attached
// micro controller using the moodstrip framing, a 0x84 header byte followed
// by green, red and blue for every LED with 7 bit values that have the high
// bit set.

import (
	"io"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/tarm/serial"

	"github.com/TeamNorCal/multiblink/model"
)

const stripHeader = 0x84

type SerialStrip struct {
	port string
	buf  []byte
	w    io.WriteCloser
}

// NewSerialStrip opens the serial device, for example /dev/ttyUSB0
func NewSerialStrip(port string, baud int, leds int) (strip *SerialStrip, err errors.Error) {
	ser, errGo := serial.OpenPort(&serial.Config{Name: port, Baud: baud})
	if errGo != nil {
		return nil, errors.Wrap(errGo).With("port", port).With("stack", stack.Trace().TrimRuntime())
	}
	return newSerialStrip(port, ser, leds), nil
}

func newSerialStrip(port string, w io.WriteCloser, leds int) (strip *SerialStrip) {
	strip = &SerialStrip{
		port: port,
		buf:  make([]byte, 1+leds*3),
		w:    w,
	}
	strip.buf[0] = stripHeader
	for i := 1; i < len(strip.buf); i++ {
		strip.buf[i] = 0x80
	}
	return strip
}

func to7(v uint8) byte {
	return (v >> 1) | 0x80
}

func (strip *SerialStrip) WriteColor(channel int, c model.Color) {
	idx := 1 + channel*3
	if channel < 0 || idx+2 >= len(strip.buf) {
		return
	}
	r, g, b := c.RGB()
	strip.buf[idx], strip.buf[idx+1], strip.buf[idx+2] = to7(g), to7(r), to7(b)
}

func (strip *SerialStrip) Flush() (err errors.Error) {
	if _, errGo := strip.w.Write(strip.buf); errGo != nil {
		return errors.Wrap(errGo).With("port", strip.port).With("stack", stack.Trace().TrimRuntime())
	}
	return nil
}

func (strip *SerialStrip) Close() (err errors.Error) {
	if errGo := strip.w.Close(); errGo != nil {
		return errors.Wrap(errGo).With("port", strip.port).With("stack", stack.Trace().TrimRuntime())
	}
	return nil
}
