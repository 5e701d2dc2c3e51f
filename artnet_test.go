package multiblink

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TeamNorCal/multiblink/model"
)

func TestBuildArtDMX(t *testing.T) {
	dmx := make([]byte, dmxUniverseLen)
	dmx[0], dmx[511] = 0xAA, 0x55

	packet := buildArtDMX(7, 0x0123, dmx)
	require.Len(t, packet, 18+dmxUniverseLen)

	assert.Equal(t, []byte("Art-Net\x00"), packet[:8])
	assert.Equal(t, []byte{0x00, 0x50}, packet[8:10])
	assert.Equal(t, []byte{0x00, 14}, packet[10:12])
	assert.Equal(t, byte(7), packet[12])
	assert.Equal(t, byte(0x23), packet[14])
	assert.Equal(t, byte(0x01), packet[15])
	assert.Equal(t, []byte{0x02, 0x00}, packet[16:18])
	assert.Equal(t, byte(0xAA), packet[18])
	assert.Equal(t, byte(0x55), packet[len(packet)-1])
}

func TestArtNetSend(t *testing.T) {
	node, errGo := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, errGo)
	defer node.Close()

	_, err := NewArtNet(node.LocalAddr().String(), 0, 0)
	require.Error(t, err)

	an, err := NewArtNet(node.LocalAddr().String(), 2, 10)
	require.NoError(t, err)
	defer an.Close()

	an.WriteColor(0, model.RGB(1, 2, 3))
	an.WriteColor(1, model.RGB(4, 5, 6))
	// Off the end of the universe
	an.WriteColor(200, model.White)

	received := func() []byte {
		buf := make([]byte, 1024)
		require.NoError(t, node.SetReadDeadline(time.Now().Add(2*time.Second)))
		n, _, errGo := node.ReadFrom(buf)
		require.NoError(t, errGo)
		return buf[:n]
	}

	require.NoError(t, an.Flush())
	packet := received()
	require.Len(t, packet, 18+dmxUniverseLen)
	assert.Equal(t, byte(1), packet[12])
	assert.Equal(t, byte(2), packet[14])

	dmx := packet[18:]
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, dmx[9:15])
	assert.Equal(t, []byte{0, 0, 0}, dmx[6:9])

	require.NoError(t, an.Flush())
	assert.Equal(t, byte(2), received()[12])
}

func TestArtNetSequenceSkipsZero(t *testing.T) {
	node, errGo := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, errGo)
	defer node.Close()

	an, err := NewArtNet(node.LocalAddr().String(), 0, 1)
	require.NoError(t, err)
	defer an.Close()

	an.seq = 255
	require.NoError(t, an.Flush())
	assert.Equal(t, uint8(1), an.seq)
}
