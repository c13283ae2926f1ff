package render

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is an sRGB color that remembers a well-known name, if it has one.
// Vector backends prefer the name (TikZ understands "black", SVG
// understands both).
type Color struct {
	colorful.Color
	name string
}

// Well-known colors.
var (
	Black = mustNamed("black", "#000000")
	White = mustNamed("white", "#ffffff")
	Blue  = mustNamed("blue", "#0000ff")
	Red   = mustNamed("red", "#ff0000")
	Gray  = mustNamed("gray", "#808080")
)

var knownNames = map[string]string{
	"#000000": "black",
	"#ffffff": "white",
	"#0000ff": "blue",
	"#ff0000": "red",
	"#808080": "gray",
}

// Hex parses a "#rrggbb" color. Colors matching a well-known value keep
// their name.
func Hex(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for hex, name := range knownNames {
		if s == name {
			s = hex
		}
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("parsing color %q: %w", s, err)
	}
	return Color{Color: c, name: knownNames[c.Hex()]}, nil
}

// MustHex is like Hex but panics on malformed input.
func MustHex(s string) Color {
	c, err := Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

func mustNamed(name, hex string) Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		panic(err)
	}
	return Color{Color: c, name: name}
}

// Name returns the color name, or its hex form.
func (c Color) Name() string {
	if c.name != "" {
		return c.name
	}
	return c.Hex()
}

// TikZ returns the color as a TikZ/xcolor option.
func (c Color) TikZ() string {
	if c.name != "" {
		return c.name
	}
	r, g, b := c.RGB255()
	return fmt.Sprintf("{rgb,255:red,%d;green,%d;blue,%d}", r, g, b)
}
