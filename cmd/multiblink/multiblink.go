package main

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"
	"github.com/mgutz/logxi" // Using a forked copy of this package results in build issues

	"github.com/TeamNorCal/multiblink"
	"github.com/TeamNorCal/multiblink/version"

	"github.com/karlmutch/envflag" // Forked copy of https://github.com/GoBike/envflag
)

var (
	logger = logxi.New("multiblink")

	verbose = flag.Bool("v", false, "When enabled will print internal logging for this tool")

	tablesFile = flag.String("tables", "", "YAML file containing the program sets, the built in sets are used when empty")
	refresh    = flag.Duration("refresh", time.Duration(5*time.Millisecond), "Interval between iterations of the control loop")
	fadePolicy = flag.String("fade-policy", "retry", "Treatment of channels whose fade cannot be started, retry or disable")
	dryRun     = flag.Duration("dry-run", time.Duration(0), "Print the frames every program set would produce over this period and exit")

	opcServer   = flag.String("opc", "", "Address of an OPC server such as fcserver, for example localhost:7890")
	opcChannel  = flag.Uint("opc-channel", 0, "OPC channel to which pixels are sent")
	artnetNode  = flag.String("artnet", "", "Address of an Art-Net node to which DMX frames are sent")
	artnetUni   = flag.Uint("artnet-universe", 0, "Art-Net universe to which DMX frames are sent")
	artnetBase  = flag.Int("artnet-base", 1, "DMX address of the first channel, every channel occupies three slots")
	serialPort  = flag.String("serial", "", "Serial device of a moodstrip style LED controller")
	serialBaud  = flag.Int("baud", 115200, "Baud rate of the serial LED controller")
	terminal    = flag.Bool("term", false, "Render the channels as colored swatches on the terminal")
	button      = flag.String("button", "", "File sampled for a push button level, for example /sys/class/gpio/gpio17/value")
	debounce    = flag.Duration("debounce", time.Duration(30*time.Millisecond), "Time the button level must be stable before it counts as pressed")
	modeURL     = flag.String("mode-url", "", "URL polled for the program set that is to be run, the simulator can serve this")
	modeRefresh = flag.Duration("mode-poll", time.Duration(time.Second), "Interval between polls of the mode URL")
	monitor     = flag.Bool("monitor", false, "Print every frame sent to the outputs")
)

func usage() {
	fmt.Fprintln(os.Stderr, path.Base(os.Args[0]))
	fmt.Fprintln(os.Stderr, "usage: ", os.Args[0], "[options]       tables → FSM → OPC/Art-Net/serial (multiblink)      ", version.GitHash, "    ", version.BuildTime)
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "multiblink animates many independent LED channels from small declarative pattern tables")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Options:")
	fmt.Fprintln(os.Stderr, "")
	flag.PrintDefaults()
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Environment Variables:")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "options can also be extracted from environment variables by changing dashes '-' to underscores and using upper case.")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "sending SIGUSR1 to the process, or pressing the button, moves to the next program set.")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "log levels are handled by the LOGXI env variables, these are documented at https://github.com/mgutz/logxi")
}

func init() {
	flag.Usage = usage
}

func loadTables() (tables *multiblink.Tables, err errors.Error) {
	if len(*tablesFile) == 0 {
		return multiblink.DefaultTables(), nil
	}
	return multiblink.LoadTables(*tablesFile)
}

func parsePolicy(policy string) (fp multiblink.FadeFailurePolicy, err errors.Error) {
	switch strings.ToLower(policy) {
	case "retry":
		return multiblink.RetryFade, nil
	case "disable":
		return multiblink.DisableChannel, nil
	}
	return fp, errors.New("unknown fade policy").With("policy", policy).With("stack", stack.Trace().TrimRuntime())
}

// outputs assembles the backends selected on the command line, the terminal
// is used when nothing else was chosen
func outputs(channels int) (out multiblink.Output, err errors.Error) {
	outs := multiblink.Multi{}

	if len(*opcServer) != 0 {
		outs = append(outs, multiblink.NewFadeCandy(*opcServer, uint8(*opcChannel), channels))
	}
	if len(*artnetNode) != 0 {
		an, err := multiblink.NewArtNet(*artnetNode, uint16(*artnetUni), *artnetBase)
		if err != nil {
			outs.Close()
			return nil, err
		}
		outs = append(outs, an)
	}
	if len(*serialPort) != 0 {
		strip, err := multiblink.NewSerialStrip(*serialPort, *serialBaud, channels)
		if err != nil {
			outs.Close()
			return nil, err
		}
		outs = append(outs, strip)
	}
	if *terminal || len(outs) == 0 {
		outs = append(outs, multiblink.NewTerminal(os.Stdout, channels))
	}

	if len(outs) == 1 {
		return outs[0], nil
	}
	return outs, nil
}

// closeOutput releases the sockets and devices behind out once the control
// loop has been stopped
func closeOutput(out multiblink.Output) {
	closer, isCloser := out.(multiblink.Closer)
	if !isCloser {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn("output could not be closed", "error", err.Error())
	}
}

func edges(errorC chan<- errors.Error, quitC <-chan struct{}) (detector multiblink.EdgeDetector, err errors.Error) {
	if len(*modeURL) != 0 {
		u, errGo := url.Parse(*modeURL)
		if errGo != nil {
			return nil, errors.Wrap(errGo).With("url", *modeURL).With("stack", stack.Trace().TrimRuntime())
		}
		poller := multiblink.NewModePoller(*u, errorC)
		go poller.Run(*modeRefresh, quitC)
		return poller, nil
	}

	if len(*button) != 0 {
		// A sysfs GPIO value file reads 1 while the input is high
		pressed := func() bool {
			level, errGo := os.ReadFile(*button)
			return errGo == nil && strings.TrimSpace(string(level)) == "1"
		}
		return multiblink.NewDebouncer(pressed, *debounce), nil
	}

	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, syscall.SIGUSR1)
	return multiblink.NewSignalEdge(sigC), nil
}

func dry(tables *multiblink.Tables) (err errors.Error) {
	start := time.Time{}
	for _, set := range tables.Sets {
		frames, err := multiblink.Simulate(set, tables.Channels, start, *dryRun, time.Millisecond)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s\n", set.Name)
		for _, frame := range frames {
			for _, change := range frame.Changes {
				fmt.Fprintf(os.Stdout, "%8dms  %2d  %s\n", frame.At.Sub(start).Milliseconds(), change.Channel, change.Color)
			}
		}
	}
	return nil
}

func main() {

	// Parse the CLI flags
	if !flag.Parsed() {
		envflag.Parse()
	}

	// Logging stays at the logxi defaults unless verbose output was asked for,
	// stdout carries the frames and monitor output
	//
	if *verbose {
		logger.SetLevel(logxi.LevelDebug)
		multiblink.SetLogLevel(logxi.LevelDebug)
	}

	logger.Debug(fmt.Sprintf("%s built at %s, against commit id %s\n", os.Args[0], version.BuildTime, version.GitHash))

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(-1)
	}
}

func run() (err errors.Error) {
	tables, err := loadTables()
	if err != nil {
		return err
	}

	if *dryRun > 0 {
		return dry(tables)
	}

	policy, err := parsePolicy(*fadePolicy)
	if err != nil {
		return err
	}

	out, err := outputs(tables.Channels)
	if err != nil {
		return err
	}
	defer closeOutput(out)

	quitC := make(chan struct{})
	defer close(quitC)

	errorC := make(chan errors.Error, 5)
	msgC := make(chan string, 5)

	detector, err := edges(errorC, quitC)
	if err != nil {
		return err
	}

	ctrl, err := multiblink.NewController(tables.Sets, tables.Channels, out, detector, time.Now())
	if err != nil {
		return err
	}
	ctrl.SetFadePolicy(policy, nil)

	subscribeC := (&multiblink.Gateway{}).Start(ctrl, *refresh, errorC, quitC)

	if *monitor {
		go runMonitoring(subscribeC, msgC, quitC)
	}

	runTUI(msgC, errorC, quitC)

	stopC := make(chan os.Signal, 1)
	signal.Notify(stopC, os.Interrupt, syscall.SIGTERM)
	<-stopC

	logger.Debug("stopping")
	return nil
}
