package multiblink

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/karlmutch/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/TeamNorCal/multiblink/model"
)

// edgeQueue reports the queued edges, one per sample, and then none
type edgeQueue struct {
	edges    []bool
	selected []int
	sync.Mutex
}

func (q *edgeQueue) EdgeTriggered() (edge bool) {
	q.Lock()
	defer q.Unlock()

	if len(q.edges) == 0 {
		return false
	}
	edge, q.edges = q.edges[0], q.edges[1:]
	return edge
}

// selectingQueue adds the choice of set to an edgeQueue
type selectingQueue struct {
	*edgeQueue
}

func (q selectingQueue) Selected() (set int, isSelected bool) {
	q.Lock()
	defer q.Unlock()

	if len(q.selected) == 0 {
		return 0, false
	}
	set, q.selected = q.selected[0], q.selected[1:]
	return set, true
}

func testSets() []model.ProgramSet {
	return []model.ProgramSet{
		{
			Name: "red",
			Programs: []model.Program{
				model.MustProgram(0, model.Set{Color: model.Red, Hold: time.Second}),
				model.MustProgram(1, model.Set{Color: model.Red, Hold: time.Second}),
			},
		},
		{
			Name: "green",
			Programs: []model.Program{
				model.MustProgram(0, model.Set{Color: model.Green, Hold: time.Second}),
			},
		},
		{
			Name: "blue",
			Programs: []model.Program{
				model.MustProgram(1, model.Set{Color: model.Blue, Hold: 10 * msec}, model.Stop{}),
			},
		},
	}
}

func TestNewControllerChecks(t *testing.T) {
	rec := NewRecorder()

	_, err := NewController(nil, 2, rec, nil, epoch)
	assert.Error(t, err)

	_, err = NewController(testSets(), 0, rec, nil, epoch)
	assert.Error(t, err)

	_, err = NewController(testSets(), 2, nil, nil, epoch)
	assert.Error(t, err)

	// Two of the sets address channel 1
	_, err = NewController(testSets(), 1, rec, nil, epoch)
	assert.Error(t, err)

	ctrl, err := NewController(testSets(), 2, rec, nil, epoch)
	require.NoError(t, err)
	set, name := ctrl.Current()
	assert.Equal(t, 0, set)
	assert.Equal(t, "red", name)
}

func TestControllerStep(t *testing.T) {
	rec := NewRecorder()
	ctrl, err := NewController(testSets(), 2, rec, nil, epoch)
	require.NoError(t, err)

	// The first step paints the black baseline, the colors follow a step later
	require.NoError(t, ctrl.Step(epoch))
	assert.Equal(t, 1, rec.FlushCount())
	assert.Equal(t, model.Black, rec.Color(0))
	assert.Equal(t, model.Red, ctrl.Color(0))

	require.NoError(t, ctrl.Step(epoch.Add(msec)))
	assert.Equal(t, 2, rec.FlushCount())
	assert.Equal(t, model.Red, rec.Color(0))
	assert.Equal(t, model.Red, rec.Color(1))

	// Nothing changes so nothing is flushed
	require.NoError(t, ctrl.Step(epoch.Add(2*msec)))
	assert.Equal(t, 2, rec.FlushCount())

	channels := ctrl.Channels()
	require.Len(t, channels, 2)
	channels[0].PC = 5
	assert.Zero(t, ctrl.Channels()[0].PC)
}

func TestControllerCyclesSets(t *testing.T) {
	rec := NewRecorder()
	edges := &edgeQueue{edges: []bool{false, false, true, false, true, false, true}}
	ctrl, err := NewController(testSets(), 2, rec, edges, epoch)
	require.NoError(t, err)

	names := []string{}
	for i := 0; i < 7; i++ {
		require.NoError(t, ctrl.Step(epoch.Add(time.Duration(i)*msec)))
		_, name := ctrl.Current()
		names = append(names, name)
	}
	assert.Equal(t, []string{"red", "red", "green", "green", "blue", "blue", "red"}, names)

	// Switching restarts the set from the top with a fresh baseline
	channels := ctrl.Channels()
	require.Len(t, channels, 2)
	for _, ch := range channels {
		assert.True(t, ch.Enabled)
		assert.Equal(t, epoch.Add(6*msec), ch.Wake)
	}
}

func TestControllerSwitchRepaints(t *testing.T) {
	rec := NewRecorder()
	edges := &edgeQueue{edges: []bool{false, false, true}}
	ctrl, err := NewController(testSets(), 2, rec, edges, epoch)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		require.NoError(t, ctrl.Step(epoch.Add(time.Duration(i)*msec)))
	}

	// Channel 1 is not used by the green set and is left dark
	assert.Equal(t, []model.Color{model.Black, model.Red, model.Black}, rec.WritesTo(1))
	assert.Equal(t, []model.Color{model.Black, model.Red, model.Black, model.Green}, rec.WritesTo(0))
}

func TestControllerSelector(t *testing.T) {
	rec := NewRecorder()
	edges := selectingQueue{&edgeQueue{
		edges:    []bool{true, false, true, true},
		selected: []int{2, 7, 1},
	}}
	ctrl, err := NewController(testSets(), 2, rec, edges, epoch)
	require.NoError(t, err)

	require.NoError(t, ctrl.Step(epoch))
	_, name := ctrl.Current()
	assert.Equal(t, "blue", name)

	require.NoError(t, ctrl.Step(epoch.Add(msec)))

	// An unknown set is reported and the current one keeps running
	assert.Error(t, ctrl.Step(epoch.Add(2*msec)))
	_, name = ctrl.Current()
	assert.Equal(t, "blue", name)

	require.NoError(t, ctrl.Step(epoch.Add(3*msec)))
	_, name = ctrl.Current()
	assert.Equal(t, "green", name)

	assert.Error(t, ctrl.Select(-1, epoch))
	require.NoError(t, ctrl.Select(0, epoch))
	_, name = ctrl.Current()
	assert.Equal(t, "red", name)
}

// lateModes lets the remote mode move on between the edge and the selection
type lateModes struct {
	*ModePoller
}

func (modes lateModes) EdgeTriggered() (edge bool) {
	edge = modes.ModePoller.EdgeTriggered()
	modes.poll()
	return edge
}

func TestControllerModePoller(t *testing.T) {
	srv := &modeServer{mode: 1, status: http.StatusOK}
	server := httptest.NewServer(srv)
	defer server.Close()

	poller := newModePoller(t, server, nil)
	ctrl, err := NewController(testSets(), 2, NewRecorder(), lateModes{poller}, epoch)
	require.NoError(t, err)

	poller.poll()
	srv.set(2, http.StatusOK)

	names := []string{}
	for i := 0; i < 3; i++ {
		require.NoError(t, ctrl.Step(epoch.Add(time.Duration(i)*msec)))
		_, name := ctrl.Current()
		names = append(names, name)
	}
	assert.Equal(t, []string{"green", "blue", "blue"}, names)

	// blue started at the second step and is holding its first color
	channels := ctrl.Channels()
	require.Len(t, channels, 1)
	assert.Equal(t, 0, channels[0].PC)
	assert.Equal(t, epoch.Add(msec), channels[0].Wake)
}

func TestControllerPublish(t *testing.T) {
	ctrl, err := NewController(testSets(), 2, NewRecorder(), nil, epoch)
	require.NoError(t, err)

	frameC := make(chan *model.FrameMsg, 1)
	ctrl.Publish(frameC)

	require.NoError(t, ctrl.Step(epoch))
	require.NoError(t, ctrl.Step(epoch.Add(msec)))
	require.NoError(t, ctrl.Step(epoch.Add(2*msec)))

	// The second frame was dropped rather than block the loop
	require.Len(t, frameC, 1)
	msg := <-frameC
	assert.Equal(t, "red", msg.Set)
	assert.Equal(t, epoch, msg.At)
	assert.Equal(t, []model.ChannelColor{
		{Channel: 0, Color: model.Black},
		{Channel: 1, Color: model.Black},
	}, msg.Changes)
}

func TestControllerFadePolicy(t *testing.T) {
	sets := []model.ProgramSet{{
		Name: "fade",
		Programs: []model.Program{
			model.MustProgram(0, model.Fade{From: model.Red, To: model.Blue, Period: time.Second}),
		},
	}}
	ctrl, err := NewController(sets, 1, NewRecorder(), nil, epoch)
	require.NoError(t, err)

	ctrl.SetFadePolicy(DisableChannel, func(time.Duration, model.Color, model.Color, time.Time) (*Interpolator, errors.Error) {
		return nil, errors.New("exhausted")
	})
	require.NoError(t, ctrl.Step(epoch))
	assert.False(t, ctrl.Channels()[0].Enabled)

	// Default construction once the policy is cleared
	ctrl.SetFadePolicy(RetryFade, nil)
	require.NoError(t, ctrl.Select(0, epoch))
	require.NoError(t, ctrl.Step(epoch))
	assert.True(t, ctrl.Channels()[0].Fading())
}

func TestControllerRun(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	rec := NewRecorder()
	ctrl, err := NewController(testSets(), 2, rec, nil, time.Now())
	require.NoError(t, err)

	quitC := make(chan struct{})
	doneC := make(chan struct{})
	errorC := make(chan errors.Error, 1)
	go func() {
		defer close(doneC)
		ctrl.Run(time.Millisecond, errorC, quitC)
	}()

	require.Eventually(t, func() bool {
		return rec.Color(0) == model.Red
	}, 2*time.Second, time.Millisecond)

	close(quitC)
	<-doneC
	assert.Empty(t, errorC)
}
