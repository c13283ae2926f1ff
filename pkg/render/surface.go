// Package render defines the drawing surface contract shared by every
// output format, and the backends that implement it.
//
// Diagram entities draw themselves through Surface only, so the same draw
// code produces a live raster image (PNGSurface), an SVG document
// (SVGSurface) or a LaTeX/TikZ picture (LaTeXSurface). Style is passed
// explicitly to every stroke, fill and text call; surfaces keep no ambient
// color state between calls.
package render

import "math"

// Surface is the set of vector primitives a backend must provide.
//
// Path construction follows the HTML canvas model: BeginPath discards the
// current path, Arc/MoveTo/LineTo extend it, and Stroke/Fill paint it
// without clearing it.
type Surface interface {
	BeginPath()
	// Arc adds a circular arc from startAngle to endAngle. When reversed is
	// true the arc is swept counter-clockwise (in screen coordinates).
	Arc(cx, cy, r, startAngle, endAngle float64, reversed bool)
	MoveTo(x, y float64)
	LineTo(x, y float64)
	Stroke(st Style)
	Fill(st Style)
	MeasureText(text string, f Font) float64
	// FillText paints a label already positioned by DrawText.
	FillText(run TextRun)
	Translate(x, y float64)
}

// Style carries the paint parameters for one stroke or fill.
type Style struct {
	Color     Color
	LineWidth float64
}

// TextRun is a positioned label handed to Surface.FillText.
type TextRun struct {
	Text   string  // display text, shortcuts expanded
	Source string  // text as stored in the document
	X, Y   float64 // left edge and vertical center after placement
	Width  float64 // measured width of Text
	Angle  float64 // placement angle, meaningful when Angled is set
	Angled bool
	Font   Font
	Color  Color
	Caret  bool // draw an insertion caret after the text
}

// CanvasSweep adjusts endAngle the way the HTML canvas arc() does so that
// interpolating from start to the returned end traces the intended arc.
func CanvasSweep(start, end float64, reversed bool) (float64, float64) {
	const tau = 2 * math.Pi
	if !reversed {
		if end-start >= tau {
			return start, start + tau
		}
		for end < start {
			end += tau
		}
		return start, end
	}
	if start-end >= tau {
		return start, start - tau
	}
	for end > start {
		end -= tau
	}
	return start, end
}

// isFullCircle reports whether an arc call describes a complete circle.
func isFullCircle(start, end float64) bool {
	return end-start == 2*math.Pi
}
