package main

import (
	"strings"
	"testing"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TeamNorCal/multiblink"
	"github.com/TeamNorCal/multiblink/model"
)

func TestParsePolicy(t *testing.T) {
	policy, err := parsePolicy("retry")
	require.NoError(t, err)
	assert.Equal(t, multiblink.RetryFade, policy)

	policy, err = parsePolicy("Disable")
	require.NoError(t, err)
	assert.Equal(t, multiblink.DisableChannel, policy)

	_, err = parsePolicy("ignore")
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	msg := &model.FrameMsg{
		At:  time.Date(2020, time.January, 1, 13, 14, 15, 16000000, time.UTC),
		Set: "burst",
		Changes: []model.ChannelColor{
			{Channel: 0, Color: model.Red},
			{Channel: 3, Color: model.Black},
		},
	}
	line := describe(msg)
	assert.True(t, strings.HasPrefix(line, "13:14:15.016 [burst] 0=#ff0000 "))
	assert.Contains(t, line, " 3=#000000 ")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

type closingOutput struct {
	*multiblink.Recorder
	closed int
	err    errors.Error
}

func (out *closingOutput) Close() (err errors.Error) {
	out.closed++
	return out.err
}

func TestCloseOutput(t *testing.T) {
	single := &closingOutput{Recorder: multiblink.NewRecorder()}
	closeOutput(single)
	assert.Equal(t, 1, single.closed)

	// Every member of a group is closed even when one of them fails
	broken := &closingOutput{
		Recorder: multiblink.NewRecorder(),
		err:      errors.New("port vanished").With("stack", stack.Trace().TrimRuntime()),
	}
	last := &closingOutput{Recorder: multiblink.NewRecorder()}
	closeOutput(multiblink.Multi{broken, multiblink.NewRecorder(), last})
	assert.Equal(t, 1, broken.closed)
	assert.Equal(t, 1, last.closed)

	// Outputs without resources are left alone
	closeOutput(multiblink.NewRecorder())
}
