package render

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"
)

type svgArc struct {
	x, y, r    float64
	start, end float64
	reversed   bool
}

// SVGSurface records drawing calls as SVG elements. Path primitives are
// buffered between BeginPath and Stroke/Fill; arcs become <ellipse> or
// elliptical-arc <path> elements and line segments become <polygon>s.
type SVGSurface struct {
	width, height int
	body          bytes.Buffer
	canvas        *svg.SVG
	fonts         *Fonts

	arcs   []svgArc
	points []pointF
	tx, ty float64
}

type pointF struct{ x, y float64 }

// NewSVGSurface creates an SVG surface with the given document size.
func NewSVGSurface(width, height int) *SVGSurface {
	s := &SVGSurface{width: width, height: height, fonts: NewFonts()}
	s.canvas = svg.New(&s.body)
	return s
}

func (s *SVGSurface) BeginPath() {
	s.arcs = s.arcs[:0]
	s.points = s.points[:0]
}

func (s *SVGSurface) Arc(cx, cy, r, start, end float64, reversed bool) {
	s.arcs = append(s.arcs, svgArc{cx + s.tx, cy + s.ty, r, start, end, reversed})
}

func (s *SVGSurface) MoveTo(x, y float64) {
	s.points = append(s.points, pointF{x + s.tx, y + s.ty})
}

func (s *SVGSurface) LineTo(x, y float64) {
	s.MoveTo(x, y)
}

func (s *SVGSurface) Stroke(st Style) {
	style := fmt.Sprintf(`stroke=%q stroke-width="%s" fill="none"`, st.Color.Name(), fixed(lineWidth(st), 3))
	for _, a := range s.arcs {
		if isFullCircle(a.start, a.end) {
			fmt.Fprintf(s.canvas.Writer, "<ellipse %s cx=\"%s\" cy=\"%s\" rx=\"%s\" ry=\"%s\"/>\n",
				style, fixed(a.x, 3), fixed(a.y, 3), fixed(a.r, 3), fixed(a.r, 3))
			continue
		}
		s.canvas.Path(arcPath(a), style)
	}
	if len(s.points) > 0 {
		fmt.Fprintf(s.canvas.Writer, "<polygon %s points=\"%s\"/>\n", style, s.pointList())
	}
}

func (s *SVGSurface) Fill(st Style) {
	for _, a := range s.arcs {
		if isFullCircle(a.start, a.end) {
			fmt.Fprintf(s.canvas.Writer, "<circle fill=%q stroke=\"none\" cx=\"%s\" cy=\"%s\" r=\"%s\"/>\n",
				st.Color.Name(), fixed(a.x, 3), fixed(a.y, 3), fixed(a.r, 3))
		}
	}
	if len(s.points) > 0 {
		fmt.Fprintf(s.canvas.Writer, "<polygon fill=%q stroke-width=\"%s\" points=\"%s\"/>\n",
			st.Color.Name(), fixed(lineWidth(st), 3), s.pointList())
	}
}

func (s *SVGSurface) MeasureText(text string, f Font) float64 {
	return s.fonts.Measure(text, f)
}

func (s *SVGSurface) FillText(run TextRun) {
	if blank(run.Text) {
		return
	}
	x := math.Round(run.X) + s.tx
	y := math.Round(run.Y) + 6 + s.ty
	s.canvas.Text(int(math.Round(x)), int(math.Round(y)), run.Text,
		fmt.Sprintf(`font-family=%q font-size="%s" fill=%q`, run.Font.CSSFamily(), fixed(run.Font.Size, 3), run.Color.Name()))
}

func (s *SVGSurface) Translate(x, y float64) {
	s.tx += x
	s.ty += y
}

// WriteTo writes the complete standalone SVG document.
func (s *SVGSurface) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	doc := svg.New(cw)
	doc.Start(s.width, s.height)
	if _, err := cw.Write(s.body.Bytes()); err != nil {
		return cw.n, err
	}
	doc.End()
	return cw.n, cw.err
}

// String returns the SVG document.
func (s *SVGSurface) String() string {
	var b strings.Builder
	s.WriteTo(&b)
	return b.String()
}

func (s *SVGSurface) pointList() string {
	parts := make([]string, len(s.points))
	for i, p := range s.points {
		parts[i] = fixed(p.x, 3) + "," + fixed(p.y, 3)
	}
	return strings.Join(parts, " ")
}

// arcPath converts a canvas-style arc into an SVG path. SVG arcs are always
// drawn in the positive direction, so reversed arcs swap their endpoints.
func arcPath(a svgArc) string {
	start, end := a.start, a.end
	if a.reversed {
		start, end = end, start
	}
	if end < start {
		end += 2 * math.Pi
	}
	startX := a.x + a.r*math.Cos(start)
	startY := a.y + a.r*math.Sin(start)
	endX := a.x + a.r*math.Cos(end)
	endY := a.y + a.r*math.Sin(end)
	large := 0
	if math.Abs(end-start) > math.Pi {
		large = 1
	}
	return fmt.Sprintf("M %s,%s A %s,%s 0 %d 1 %s,%s",
		fixed(startX, 3), fixed(startY, 3),
		fixed(a.r, 3), fixed(a.r, 3),
		large,
		fixed(endX, 3), fixed(endY, 3))
}

// countingWriter remembers the first write error so svgo's
// error-less API can still report failures.
type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
