package model

// This module defines the messages that describe the output after every
// flush, they are broadcast to monitors and renderers

import (
	"encoding/json"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"
)

// ChannelColor is a single output slot update
type ChannelColor struct {
	Channel int   `json:"channel"`
	Color   Color `json:"color"`
}

type FrameMsg struct {
	At      time.Time      `json:"at"`
	Set     string         `json:"set"`
	Changes []ChannelColor `json:"changes"`
}

// DeepCopy deepcopies a to b using json marshaling
func (msg *FrameMsg) DeepCopy() (cpy *FrameMsg, err errors.Error) {
	cpy = &FrameMsg{}

	byt, errGo := json.Marshal(msg)
	if errGo != nil {
		return nil, errors.Wrap(errGo).With("set", msg.Set).With("stack", stack.Trace().TrimRuntime())
	}
	if errGo = json.Unmarshal(byt, cpy); errGo != nil {
		return nil, errors.Wrap(errGo).With("set", msg.Set).With("stack", stack.Trace().TrimRuntime())
	}
	return cpy, nil
}
