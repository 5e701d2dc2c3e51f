package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorComponents(t *testing.T) {
	c := RGB(0x12, 0x34, 0x56)
	assert.Equal(t, Color(0x123456), c)

	r, g, b := c.RGB()
	assert.Equal(t, [3]uint8{0x12, 0x34, 0x56}, [3]uint8{r, g, b})
	assert.Equal(t, [3]int{0x12, 0x34, 0x56}, c.Components())

	assert.Equal(t, Color(0x808080), Grey(0x80))
	assert.Equal(t, "#123456", c.String())
}

func TestParseColor(t *testing.T) {
	cases := map[string]Color{
		"black":    Black,
		"OFF":      Black,
		" white ":  White,
		"on":       White,
		"blue":     Blue,
		"#ff8000":  RGB(0xff, 0x80, 0x00),
		"00ff7f":   RGB(0x00, 0xff, 0x7f),
		"#FFFFFF":  White,
		"magenta":  Magenta,
		"#0a0b0c":  RGB(0x0a, 0x0b, 0x0c),
		"#000000":  Black,
		"cyan":     Cyan,
		"yellow":   Yellow,
		"red":      Red,
		"green":    Green,
		"#010203 ": RGB(1, 2, 3),
	}
	for value, expected := range cases {
		c, err := ParseColor(value)
		require.NoError(t, err, value)
		assert.Equal(t, expected, c, value)
	}

	for _, value := range []string{"", "mauve", "#gggggg"} {
		_, err := ParseColor(value)
		assert.Error(t, err, value)
	}
}
