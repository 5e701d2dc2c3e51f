package multiblink

import (
	"bytes"
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TeamNorCal/multiblink/model"
)

type failingOutput struct {
	*Recorder
}

func (*failingOutput) Flush() (err errors.Error) {
	return errors.New("output unplugged").With("stack", stack.Trace().TrimRuntime())
}

func TestFrameTracksChanges(t *testing.T) {
	frame := NewFrame(4)
	rec := NewRecorder()

	require.Equal(t, 4, frame.Len())
	require.True(t, frame.Dirty())

	changes, err := frame.Flush(rec)
	require.NoError(t, err)
	assert.Len(t, changes, 4)
	assert.Equal(t, 1, rec.FlushCount())
	assert.False(t, frame.Dirty())

	// Nothing to do when nothing changed
	changes, err = frame.Flush(rec)
	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.Equal(t, 1, rec.FlushCount())

	assert.True(t, frame.Set(2, model.Red))
	assert.False(t, frame.Set(2, model.Red))
	assert.False(t, frame.Set(4, model.Red))
	assert.False(t, frame.Set(-1, model.Red))
	assert.True(t, frame.Set(0, model.Blue))

	changes, err = frame.Flush(rec)
	require.NoError(t, err)
	assert.Equal(t, []model.ChannelColor{
		{Channel: 0, Color: model.Blue},
		{Channel: 2, Color: model.Red},
	}, changes)
	assert.Equal(t, model.Red, rec.Color(2))
	assert.Equal(t, model.Red, frame.Color(2))
	assert.Equal(t, model.Black, frame.Color(99))

	// A color restored before the flush is still sent
	frame.Set(2, model.Green)
	frame.Set(2, model.Red)
	changes, _ = frame.Flush(rec)
	assert.Equal(t, []model.ChannelColor{{Channel: 2, Color: model.Red}}, changes)
}

func TestFrameFlushError(t *testing.T) {
	frame := NewFrame(1)
	out := &failingOutput{Recorder: NewRecorder()}

	changes, err := frame.Flush(out)
	assert.Error(t, err)
	assert.Len(t, changes, 1)
	assert.Equal(t, model.Black, out.Color(0))
	assert.False(t, frame.Dirty())
}

func TestMultiOutput(t *testing.T) {
	first := NewRecorder()
	second := NewRecorder()
	broken := &failingOutput{Recorder: NewRecorder()}

	outs := Multi{first, broken, second}
	outs.WriteColor(1, model.Cyan)
	assert.Error(t, outs.Flush())

	for _, rec := range []*Recorder{first, second, broken.Recorder} {
		assert.Equal(t, model.Cyan, rec.Color(1))
	}
	assert.Equal(t, 1, first.FlushCount())
	assert.Equal(t, 1, second.FlushCount())

	assert.NoError(t, Multi{first}.Flush())
}

func TestMultiClose(t *testing.T) {
	node, errGo := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, errGo)
	defer node.Close()

	an, err := NewArtNet(node.LocalAddr().String(), 0, 1)
	require.NoError(t, err)

	port := &fakePort{}
	stuck := &fakePort{err: fmt.Errorf("device busy")}
	outs := Multi{NewRecorder(), newSerialStrip("/dev/ttyUSB0", stuck, 1), an, newSerialStrip("/dev/ttyUSB1", port, 1)}

	assert.Error(t, outs.Close())
	assert.True(t, stuck.closed)
	assert.True(t, port.closed)

	// The socket is gone once closed
	assert.Error(t, an.Flush())

	assert.NoError(t, Multi{NewRecorder()}.Close())
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	rec.WriteColor(0, model.Red)
	rec.Flush()
	rec.WriteColor(1, model.Green)
	rec.WriteColor(0, model.Blue)

	assert.Equal(t, []model.Color{model.Red, model.Blue}, rec.WritesTo(0))
	assert.Equal(t, []Write{
		{Flush: 0, Channel: 0, Color: model.Red},
		{Flush: 1, Channel: 1, Color: model.Green},
		{Flush: 1, Channel: 0, Color: model.Blue},
	}, rec.Writes)
	assert.Empty(t, rec.WritesTo(7))
}

func TestTerminal(t *testing.T) {
	buf := &bytes.Buffer{}
	term := NewTerminal(buf, 2)
	term.WriteColor(0, model.Red)
	term.WriteColor(5, model.Blue)
	require.NoError(t, term.Flush())

	line := buf.String()
	assert.True(t, strings.HasPrefix(line, "\r"))
	assert.Contains(t, line, "\x1b[48;2;255;0;0m")
	assert.Contains(t, line, "\x1b[48;2;0;0;0m")
	assert.NotContains(t, line, "\x1b[48;2;0;0;255m")
	assert.Equal(t, 2, strings.Count(line, "\x1b[0m"))
}
