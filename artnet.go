package multiblink

// This file contains an Output that drives DMX fixtures through an Art-Net
// node.  Every program channel occupies three consecutive DMX slots, red
// green and blue, starting at a 1 based base address.

import (
	"net"
	"strconv"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/multiblink/model"
)

const (
	artNetPort     = 6454
	dmxUniverseLen = 512
)

type ArtNet struct {
	target   string
	universe uint16
	base     int
	dmx      [dmxUniverseLen]byte
	seq      uint8
	conn     net.Conn
}

// NewArtNet opens a UDP socket to the Art-Net node at host, a port may be
// given but defaults to 6454
func NewArtNet(host string, universe uint16, base int) (an *ArtNet, err errors.Error) {
	if base < 1 || base > dmxUniverseLen {
		return nil, errors.New("DMX base address out of range").With("base", base).With("stack", stack.Trace().TrimRuntime())
	}
	target := host
	if _, _, errGo := net.SplitHostPort(host); errGo != nil {
		target = net.JoinHostPort(host, strconv.Itoa(artNetPort))
	}
	conn, errGo := net.Dial("udp", target)
	if errGo != nil {
		return nil, errors.Wrap(errGo).With("url", target).With("stack", stack.Trace().TrimRuntime())
	}
	return &ArtNet{
		target:   target,
		universe: universe,
		base:     base,
		seq:      1,
		conn:     conn,
	}, nil
}

func (an *ArtNet) WriteColor(channel int, c model.Color) {
	slot := an.base - 1 + channel*3
	if channel < 0 || slot+2 >= dmxUniverseLen {
		return
	}
	an.dmx[slot], an.dmx[slot+1], an.dmx[slot+2] = c.RGB()
}

func (an *ArtNet) Flush() (err errors.Error) {
	packet := buildArtDMX(an.seq, an.universe, an.dmx[:])

	// Sequence zero disables reordering on the node so it is skipped
	an.seq++
	if an.seq == 0 {
		an.seq = 1
	}

	if _, errGo := an.conn.Write(packet); errGo != nil {
		return errors.Wrap(errGo).With("url", an.target).With("stack", stack.Trace().TrimRuntime())
	}
	return nil
}

func (an *ArtNet) Close() (err errors.Error) {
	if errGo := an.conn.Close(); errGo != nil {
		return errors.Wrap(errGo).With("url", an.target).With("stack", stack.Trace().TrimRuntime())
	}
	return nil
}

// buildArtDMX constructs an ArtDMX packet for the given universe and payload
func buildArtDMX(seq uint8, universe uint16, dmx []byte) []byte {
	packet := make([]byte, 18+len(dmx))
	copy(packet[0:], []byte("Art-Net\x00"))
	packet[8], packet[9] = 0x00, 0x50                                       // OpCode ArtDMX, little endian
	packet[10], packet[11] = 0x00, 14                                       // Protocol version 14
	packet[12], packet[13] = seq, 0x00                                      // Sequence, physical port
	packet[14], packet[15] = byte(universe&0xFF), byte(universe>>8&0x7F)    // SubUni, Net
	packet[16], packet[17] = byte(len(dmx)>>8), byte(len(dmx))
	copy(packet[18:], dmx)
	return packet
}
