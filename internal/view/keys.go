package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/conneroisu/facet/internal/environment"
)

// TextStyle is a semantic text style.
type TextStyle uint8

const (
	FontBody TextStyle = iota
	FontLargeTitle
	FontTitle
	FontHeadline
	FontSubheadline
	FontCaption
	FontMonospaced
)

// ListStyle selects list markers.
type ListStyle uint8

const (
	// ListStyleAutomatic picks bullets by nesting depth.
	ListStyleAutomatic ListStyle = iota
	ListStyleDecimal
	ListStyleNone
)

// Environment keys read by the catalog.
var (
	FontKey       = environment.NewKey("font", FontBody)
	ForegroundKey = environment.NewKey("foreground", Black)
	ListStyleKey  = environment.NewKey("list-style", ListStyleAutomatic)
	SpacingKey    = environment.NewKey("spacing", "0.5em")
)

// Color is an opaque sRGB color.
type Color struct {
	R, G, B uint8
}

// Common colors.
var (
	Black = Color{}
	White = Color{0xFF, 0xFF, 0xFF}
	Gray  = Color{0x80, 0x80, 0x80}
	Red   = Color{0xFF, 0x3B, 0x30}
	Green = Color{0x34, 0xC7, 0x59}
	Blue  = Color{0x00, 0x7A, 0xFF}
)

// RGB builds a color from its channels.
func RGB(r, g, b uint8) Color { return Color{r, g, b} }

// ParseHex parses "#RGB" or "#RRGGBB"; the '#' is optional.
func ParseHex(s string) (Color, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return Color{}, fmt.Errorf("color %q: want 3 or 6 hex digits", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	return Color{uint8(v >> 16), uint8(v >> 8), uint8(v)}, nil
}

// Hex is ParseHex for literals; it panics on malformed input.
func Hex(s string) Color {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String renders c as #RRGGBB in upper case.
func (c Color) String() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
