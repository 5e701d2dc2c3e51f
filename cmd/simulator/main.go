package main

// The simulator stands in for the external mode selection hardware.  It serves
// the currently selected mode as JSON for multiblink's -mode-url option and
// rotates through a schedule of modes, optionally allowing remote management.

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mgutz/logxi"

	"gopkg.in/yaml.v2"
)

var (
	listen       = flag.String("listen", ":8080", "Address to bind to")
	schedulePath = flag.String("schedule", "", "YAML file listing the second offsets at which modes are selected")
	modes        = flag.Int("modes", 3, "Number of modes rotated through when no schedule file is given")
	period       = flag.Duration("period", time.Duration(20*time.Second), "Time each mode is held when no schedule file is given")
	remote       = flag.Bool("remote", false, "Enable remote management of the mode being served")
	scale        = flag.Int("scale", 1, "factor by which to accelerate the relative rate of the clock")
)

type testSlot struct {
	SecondSlot int    `yaml:"at"`   // The second at which the mode activates
	Mode       int    `yaml:"mode"` // The mode that activates
	Name       string `yaml:"name"`
}

type testWindow struct {
	startTime time.Time
	slots     []*testSlot
	forced    *testSlot
	sync.Mutex
}

var (
	// create Logger interface
	logW = logxi.NewLogger(logxi.NewConcurrentWriter(os.Stdout), "multiblink-simulator")

	testSchedule = testWindow{
		startTime: time.Now().Round(time.Second),
		slots:     []*testSlot{},
	}
)

func main() {

	flag.Parse()

	if err := loadSchedule(*schedulePath); err != nil {
		logxi.Fatal(err.Error())
		os.Exit(-1)
	}

	http.HandleFunc("/", serveHandler)

	if err := http.ListenAndServe(*listen, nil); err != nil {
		logW.Warn(err.Error())
	}
}

// loadSchedule reads the mode schedule, or generates a simple rotation when
// no file was given.  The schedule repeats once the last slot has been held
// for as long as the gap before it.
//
func loadSchedule(fn string) (err error) {
	slots := []*testSlot{}

	if len(fn) == 0 {
		for i := 0; i < *modes; i++ {
			slots = append(slots, &testSlot{SecondSlot: i * int(period.Seconds()), Mode: i})
		}
	} else {
		data, err := os.ReadFile(fn)
		if err != nil {
			return err
		}
		if err = yaml.UnmarshalStrict(data, &slots); err != nil {
			return fmt.Errorf("could not load schedule from %s due to %s", fn, err.Error())
		}
	}
	if len(slots) == 0 {
		return fmt.Errorf("the schedule has no slots")
	}

	// Sort our slots ascending order and we are done
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].SecondSlot < slots[j].SecondSlot
	})

	testSchedule.Lock()
	defer testSchedule.Unlock()

	testSchedule.startTime = time.Now().Round(time.Second)
	testSchedule.slots = slots

	logW.Debug(fmt.Sprintf("loaded %d slot schedule", len(slots)))
	return nil
}

// cycleLength is the length of one pass over the schedule, the last slot is
// held for the average gap between slots
func cycleLength(slots []*testSlot) int {
	last := slots[len(slots)-1].SecondSlot
	if len(slots) == 1 {
		return last + 1
	}
	return last + (last-slots[0].SecondSlot)/(len(slots)-1)
}

func getSlot() (slot *testSlot) {
	testSchedule.Lock()
	defer testSchedule.Unlock()

	if testSchedule.forced != nil {
		return testSchedule.forced
	}

	second := int(time.Since(testSchedule.startTime).Seconds() * float64(*scale))
	if length := cycleLength(testSchedule.slots); length > 0 {
		second %= length
	}

	idx := sort.Search(len(testSchedule.slots), func(i int) bool { return testSchedule.slots[i].SecondSlot > second })
	if idx > 0 {
		idx--
	}
	return testSchedule.slots[idx]
}

func serveConfigure(w http.ResponseWriter, r *http.Request) {

	arg := strings.TrimPrefix(r.URL.Path, "/configure/")

	testSchedule.Lock()
	defer testSchedule.Unlock()

	if arg == "resume" {
		testSchedule.forced = nil
		logW.Info("schedule resumed")
		return
	}

	mode, err := strconv.Atoi(arg)
	if err != nil || mode < 0 {
		http.Error(w, "configure expects a mode number or resume", http.StatusBadRequest)
		return
	}
	testSchedule.forced = &testSlot{Mode: mode}
	logW.Info("mode forced", "mode", mode)
}

func serveHandler(w http.ResponseWriter, r *http.Request) {

	if *remote && strings.HasPrefix(r.URL.Path, "/configure/") {
		serveConfigure(w, r)
		return
	}

	slot := getSlot()
	logW.Debug(fmt.Sprintf("serving mode %d", slot.Mode))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Mode int    `json:"mode"`
		Name string `json:"name,omitempty"`
	}{
		Mode: slot.Mode,
		Name: slot.Name,
	})
}
