package main

import (
	"fmt"
	"os"

	"github.com/karlmutch/errors"
)

var (
	msgV = os.Stdout
	errV = os.Stderr
)

// runTUI starts the printing of monitoring messages and errors gathered from
// the running components
func runTUI(msgC <-chan string, errC <-chan errors.Error, quitC <-chan struct{}) {
	go msgWatch(msgC, errC, quitC)
}

func msgWatch(msgsC <-chan string, errorC <-chan errors.Error, quitC <-chan struct{}) {
	for {
		select {
		case msg := <-msgsC:
			if msgV != nil {
				fmt.Fprint(msgV, msg)
			}
		case err := <-errorC:
			if errV != nil && err != nil {
				fmt.Fprintln(errV, err.Error())
			}
		case <-quitC:
			return
		}
	}
}
