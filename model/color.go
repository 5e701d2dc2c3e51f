package model

// This module defines the packed color value that flows between the
// interpreter and the output backends

import (
	"fmt"
	"strings"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a 24 bit RGB value packed as 0x00RRGGBB
type Color uint32

const (
	Black   Color = 0x000000
	White   Color = 0xFFFFFF
	Red     Color = 0xFF0000
	Green   Color = 0x00FF00
	Blue    Color = 0x0000FF
	Yellow  Color = 0xFFFF00
	Cyan    Color = 0x00FFFF
	Magenta Color = 0xFF00FF
)

// Named colors accepted by the table loader in addition to #rrggbb values
var colorNames = map[string]Color{
	"off":       Black,
	"black":     Black,
	"white":     White,
	"on":        White,
	"red":       Red,
	"green":     Green,
	"blue":      Blue,
	"yellow":    Yellow,
	"cyan":      Cyan,
	"magenta":   Magenta,
	"amber":     0xFFBF00,
	"purple":    0x800080,
	"pink":      0xFF69B4,
	"orange":    0xFF4500,
	"warmwhite": 0xFFF4E5,
	"gold":      0xFFD700,
	"lime":      0xBFFF00,
	"turquoise": 0x40E0D0,
	"violet":    0xEE82EE,
}

func RGB(r, g, b uint8) Color {
	return Color(uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// Grey is the monochrome color used for PWM style brightness levels
func Grey(level uint8) Color {
	return RGB(level, level, level)
}

func (c Color) RGB() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// Components returns the color as a three element array, red first
func (c Color) Components() [3]int {
	r, g, b := c.RGB()
	return [3]int{int(r), int(g), int(b)}
}

func (c Color) Colorful() colorful.Color {
	r, g, b := c.RGB()
	return colorful.Color{R: float64(r) / 255.0, G: float64(g) / 255.0, B: float64(b) / 255.0}
}

func (c Color) String() string {
	return c.Colorful().Hex()
}

// ParseColor accepts either one of the well known color names or a
// hex triplet such as #36FF1F
func ParseColor(value string) (c Color, err errors.Error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if named, isPresent := colorNames[value]; isPresent {
		return named, nil
	}
	if !strings.HasPrefix(value, "#") {
		value = "#" + value
	}
	parsed, errGo := colorful.Hex(value)
	if errGo != nil {
		return Black, errors.Wrap(errGo).With("color", value).With("stack", stack.Trace().TrimRuntime())
	}
	if !parsed.IsValid() {
		return Black, errors.Wrap(fmt.Errorf("color %s is out of gamut", value)).With("stack", stack.Trace().TrimRuntime())
	}
	return RGB(parsed.RGB255()), nil
}
