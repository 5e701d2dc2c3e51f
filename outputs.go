package multiblink

// This file contains outputs that do not drive hardware directly

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/multiblink/model"
)

// Write is one WriteColor call seen by a Recorder
type Write struct {
	Flush   int // number of flushes that preceded the write
	Channel int
	Color   model.Color
}

// Recorder keeps every write and counts flushes, it is used by the simulator
// and to observe the interpreter in tests
type Recorder struct {
	Writes  []Write
	Flushes int
	colors  map[int]model.Color
	sync.Mutex
}

func NewRecorder() (rec *Recorder) {
	return &Recorder{
		Writes: []Write{},
		colors: map[int]model.Color{},
	}
}

func (rec *Recorder) WriteColor(channel int, c model.Color) {
	rec.Lock()
	defer rec.Unlock()

	rec.Writes = append(rec.Writes, Write{Flush: rec.Flushes, Channel: channel, Color: c})
	rec.colors[channel] = c
}

func (rec *Recorder) Flush() (err errors.Error) {
	rec.Lock()
	defer rec.Unlock()

	rec.Flushes++
	return nil
}

// FlushCount is the number of flushes seen so far
func (rec *Recorder) FlushCount() int {
	rec.Lock()
	defer rec.Unlock()

	return rec.Flushes
}

// Color is the last color written to a channel
func (rec *Recorder) Color(channel int) model.Color {
	rec.Lock()
	defer rec.Unlock()

	return rec.colors[channel]
}

// WritesTo returns the colors written to one channel, in order
func (rec *Recorder) WritesTo(channel int) (colors []model.Color) {
	rec.Lock()
	defer rec.Unlock()

	colors = []model.Color{}
	for _, w := range rec.Writes {
		if w.Channel == channel {
			colors = append(colors, w.Color)
		}
	}
	return colors
}

// Multi copies every write and flush to all of its outputs, the first flush
// error is returned after all outputs have been flushed
type Multi []Output

func (outs Multi) WriteColor(channel int, c model.Color) {
	for _, out := range outs {
		out.WriteColor(channel, c)
	}
}

func (outs Multi) Flush() (err errors.Error) {
	for _, out := range outs {
		if errFlush := out.Flush(); errFlush != nil && err == nil {
			err = errFlush
		}
	}
	return err
}

// Closer is implemented by outputs that hold a socket or a device open
type Closer interface {
	Close() (err errors.Error)
}

// Close releases every output that holds resources, the first error is
// returned after all of them have been closed
func (outs Multi) Close() (err errors.Error) {
	for _, out := range outs {
		closer, isCloser := out.(Closer)
		if !isCloser {
			continue
		}
		if errClose := closer.Close(); errClose != nil && err == nil {
			err = errClose
		}
	}
	return err
}

// Terminal renders the buffer as a row of 24 bit ANSI colored swatches
type Terminal struct {
	w      io.Writer
	colors []model.Color
	start  time.Time
}

func NewTerminal(w io.Writer, channels int) (term *Terminal) {
	return &Terminal{
		w:      w,
		colors: make([]model.Color, channels),
		start:  time.Now(),
	}
}

func (term *Terminal) WriteColor(channel int, c model.Color) {
	if channel < 0 || channel >= len(term.colors) {
		return
	}
	term.colors[channel] = c
}

// Swatches formats colors as ANSI truecolor blocks
func Swatches(colors []model.Color) string {
	sb := strings.Builder{}
	for _, c := range colors {
		r, g, b := c.RGB()
		fmt.Fprintf(&sb, "\x1b[48;2;%d;%d;%dm  \x1b[0m", r, g, b)
	}
	return sb.String()
}

func (term *Terminal) Flush() (err errors.Error) {
	line := fmt.Sprintf("\r%9.3fs %s", time.Since(term.start).Seconds(), Swatches(term.colors))
	if _, errGo := io.WriteString(term.w, line); errGo != nil {
		return errors.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
	}
	return nil
}
