package multiblink

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"
)

// This module implements a mode switch detector that polls a remote
// controller, such as the simulator, for the program set that should be
// running.  A change in the reported mode is treated as an edge.

type modeReport struct {
	Mode int    `json:"mode"`
	Name string `json:"name,omitempty"`
}

// ModePoller is both an EdgeDetector and a Selector
type ModePoller struct {
	url    url.URL
	client *http.Client
	errorC chan<- errors.Error

	current  int
	known    bool
	reported int
	sync.Mutex
}

func NewModePoller(url url.URL, errorC chan<- errors.Error) (poller *ModePoller) {
	return &ModePoller{
		url:      url,
		client:   &http.Client{Timeout: 2 * time.Second},
		errorC:   errorC,
		reported: -1,
	}
}

// checkMode fetches the currently selected mode from the remote controller
//
func (poller *ModePoller) checkMode() (report *modeReport, err errors.Error) {

	switch poller.url.Scheme {
	case "http", "https":
	default:
		errGo := fmt.Errorf("unknown scheme %s for the mode controller URI", poller.url.Scheme)
		return nil, errors.Wrap(errGo).With("url", poller.url.String()).With("stack", stack.Trace().TrimRuntime())
	}

	resp, errGo := poller.client.Get(poller.url.String())
	if errGo != nil {
		return nil, errors.Wrap(errGo).With("url", poller.url.String()).With("stack", stack.Trace().TrimRuntime())
	}
	body, errGo := io.ReadAll(resp.Body)
	resp.Body.Close()
	if errGo != nil {
		return nil, errors.Wrap(errGo).With("url", poller.url.String()).With("stack", stack.Trace().TrimRuntime())
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("unexpected mode controller response").With("url", poller.url.String()).
			With("status", resp.StatusCode).With("stack", stack.Trace().TrimRuntime())
	}

	report = &modeReport{}
	if errGo = json.Unmarshal(body, report); errGo != nil {
		return nil, errors.Wrap(errGo).With("url", poller.url.String()).With("body", string(body)).With("stack", stack.Trace().TrimRuntime())
	}
	if report.Mode < 0 {
		return nil, errors.New("negative mode").With("url", poller.url.String()).With("mode", report.Mode).With("stack", stack.Trace().TrimRuntime())
	}
	return report, nil
}

func (poller *ModePoller) poll() {
	report, err := poller.checkMode()
	if err != nil {
		go func(err errors.Error) {
			select {
			case poller.errorC <- err:
			case <-time.After(500 * time.Millisecond):
				fmt.Fprintf(os.Stderr, "could not send error for mode update %s\n", err.Error())
			}
		}(err)
		return
	}

	poller.Lock()
	poller.current = report.Mode
	poller.known = true
	poller.Unlock()
}

// EdgeTriggered is true the first time a newly reported mode is sampled
func (poller *ModePoller) EdgeTriggered() bool {
	poller.Lock()
	defer poller.Unlock()

	if !poller.known || poller.current == poller.reported {
		return false
	}
	poller.reported = poller.current
	return true
}

// Selected answers the mode latched by the last edge, polls landing after
// that edge wait for the next EdgeTriggered
func (poller *ModePoller) Selected() (set int, isSelected bool) {
	poller.Lock()
	defer poller.Unlock()
	return poller.reported, poller.reported >= 0
}

// Run polls the remote controller until quitC is closed
//
func (poller *ModePoller) Run(interval time.Duration, quitC <-chan struct{}) {

	poll := time.NewTicker(interval)
	defer poll.Stop()

	poller.poll()

	for {
		select {
		case <-poll.C:
			poller.poll()

		case <-quitC:
			return
		}
	}
}
