package render

import (
	"image"
	"io"
	"math"

	"github.com/fogleman/gg"
)

// PNGSurface is the live raster backend. It draws into an in-memory image
// that can be shown on screen or encoded as PNG.
type PNGSurface struct {
	dc    *gg.Context
	fonts *Fonts
}

// NewPNGSurface creates a width×height raster surface.
func NewPNGSurface(width, height int) *PNGSurface {
	return &PNGSurface{
		dc:    gg.NewContext(width, height),
		fonts: NewFonts(),
	}
}

// Clear fills the whole image with bg and resets the transform.
func (p *PNGSurface) Clear(bg Color) {
	p.dc.Identity()
	p.dc.ClearPath()
	p.dc.SetColor(bg)
	p.dc.Clear()
}

func (p *PNGSurface) BeginPath() {
	p.dc.ClearPath()
}

func (p *PNGSurface) Arc(cx, cy, r, start, end float64, reversed bool) {
	start, end = CanvasSweep(start, end, reversed)
	p.dc.DrawArc(cx, cy, r, start, end)
}

func (p *PNGSurface) MoveTo(x, y float64) {
	p.dc.MoveTo(x, y)
}

func (p *PNGSurface) LineTo(x, y float64) {
	p.dc.LineTo(x, y)
}

func (p *PNGSurface) Stroke(st Style) {
	p.dc.SetColor(st.Color)
	p.dc.SetLineWidth(lineWidth(st))
	p.dc.StrokePreserve()
}

func (p *PNGSurface) Fill(st Style) {
	p.dc.SetColor(st.Color)
	p.dc.FillPreserve()
}

func (p *PNGSurface) MeasureText(text string, f Font) float64 {
	return p.fonts.Measure(text, f)
}

func (p *PNGSurface) FillText(run TextRun) {
	// Whole pixels keep the caret crisp.
	x := math.Round(run.X)
	y := math.Round(run.Y)

	p.dc.SetFontFace(p.fonts.Face(run.Font))
	p.dc.SetColor(run.Color)
	p.dc.DrawString(run.Text, x, y+6)

	if run.Caret {
		x += run.Width
		p.dc.ClearPath()
		p.dc.MoveTo(x, y-10)
		p.dc.LineTo(x, y+10)
		p.dc.SetLineWidth(1)
		p.dc.Stroke()
	}
}

func (p *PNGSurface) Translate(x, y float64) {
	p.dc.Translate(x, y)
}

// Image returns the rendered image.
func (p *PNGSurface) Image() image.Image {
	return p.dc.Image()
}

// EncodePNG writes the image as PNG.
func (p *PNGSurface) EncodePNG(w io.Writer) error {
	return p.dc.EncodePNG(w)
}

func lineWidth(st Style) float64 {
	if st.LineWidth <= 0 {
		return 1
	}
	return st.LineWidth
}
