package render

import (
	"fmt"
	"math"
	"strings"
)

// DefaultLaTeXScale converts pixels to TikZ document units. TikZ misbehaves
// when coordinates grow past a few hundred.
const DefaultLaTeXScale = 0.1

// LaTeXSurface records drawing calls as TikZ commands. Coordinates are
// scaled and the Y axis is flipped. Text is emitted from its stored source
// form in math mode, so LaTeX itself renders \alpha and _0.
type LaTeXSurface struct {
	scale  float64
	fonts  *Fonts
	body   strings.Builder
	points []pointF
	arcs   []svgArc
}

// NewLaTeXSurface creates a TikZ surface. A scale of zero selects
// DefaultLaTeXScale.
func NewLaTeXSurface(scale float64) *LaTeXSurface {
	if scale <= 0 {
		scale = DefaultLaTeXScale
	}
	return &LaTeXSurface{scale: scale, fonts: NewFonts()}
}

func (l *LaTeXSurface) BeginPath() {
	l.points = l.points[:0]
	l.arcs = l.arcs[:0]
}

func (l *LaTeXSurface) Arc(cx, cy, r, start, end float64, reversed bool) {
	l.arcs = append(l.arcs, svgArc{cx * l.scale, cy * l.scale, r * l.scale, start, end, reversed})
}

func (l *LaTeXSurface) MoveTo(x, y float64) {
	l.points = append(l.points, pointF{x * l.scale, y * l.scale})
}

func (l *LaTeXSurface) LineTo(x, y float64) {
	l.MoveTo(x, y)
}

func (l *LaTeXSurface) Stroke(st Style) {
	for _, a := range l.arcs {
		l.body.WriteString(tikzArc(a, st.Color.TikZ()))
	}
	l.writePoints(`\draw`, st)
}

func (l *LaTeXSurface) Fill(st Style) {
	l.writePoints(`\fill`, st)
}

func (l *LaTeXSurface) writePoints(cmd string, st Style) {
	if len(l.points) == 0 {
		return
	}
	fmt.Fprintf(&l.body, "%s [%s]", cmd, st.Color.TikZ())
	for i, p := range l.points {
		if i > 0 {
			l.body.WriteString(" --")
		}
		fmt.Fprintf(&l.body, " (%s,%s)", fixed(p.x, 2), fixed(-p.y, 2))
	}
	l.body.WriteString(";\n")
}

func (l *LaTeXSurface) MeasureText(text string, f Font) float64 {
	return l.fonts.Measure(text, f)
}

// FillText places a TikZ node. Angled labels are anchored on the side of
// the box facing the curve instead of being offset by pixels.
func (l *LaTeXSurface) FillText(run TextRun) {
	if blank(run.Text) {
		return
	}
	x := run.X + run.Width/2
	y := run.Y
	params := ""
	if run.Angled {
		dx := math.Cos(run.Angle)
		dy := math.Sin(run.Angle)
		if math.Abs(dx) > math.Abs(dy) {
			if dx > 0 {
				params = "[right] "
				x -= run.Width / 2
			} else {
				params = "[left] "
				x += run.Width / 2
			}
		} else {
			if dy > 0 {
				params = "[below] "
				y -= 10
			} else {
				params = "[above] "
				y += 10
			}
		}
	}
	x *= l.scale
	y *= l.scale
	fmt.Fprintf(&l.body, "\\draw (%s,%s) node %s{$%s$};\n",
		fixed(x, 2), fixed(-y, 2), params, strings.ReplaceAll(run.Source, " ", `\mbox{ }`))
}

// Translate is a no-op; TikZ output has no half-pixel alignment.
func (l *LaTeXSurface) Translate(x, y float64) {}

// Body returns the tikzpicture contents without the document wrapper.
func (l *LaTeXSurface) Body() string {
	return l.body.String()
}

// Document returns a complete standalone LaTeX document.
func (l *LaTeXSurface) Document() string {
	var b strings.Builder
	b.WriteString("\\documentclass[12pt]{article}\n")
	b.WriteString("\\usepackage{tikz}\n\n")
	b.WriteString("\\begin{document}\n\n")
	b.WriteString("\\begin{center}\n")
	b.WriteString("\\begin{tikzpicture}[scale=0.2]\n")
	b.WriteString("\\tikzstyle{every node}+=[inner sep=0pt]\n")
	b.WriteString(l.body.String())
	b.WriteString("\\end{tikzpicture}\n")
	b.WriteString("\\end{center}\n\n")
	b.WriteString("\\end{document}\n")
	return b.String()
}

func tikzArc(a svgArc, color string) string {
	if isFullCircle(a.start, a.end) {
		return fmt.Sprintf("\\draw [%s] (%s,%s) circle (%s);\n",
			color, fixed(a.x, 3), fixed(-a.y, 3), fixed(a.r, 3))
	}
	start, end := a.start, a.end
	if a.reversed {
		start, end = end, start
	}
	if end < start {
		end += 2 * math.Pi
	}
	// TikZ rejects angles outside (-2π, 2π).
	if math.Min(start, end) < -2*math.Pi {
		start += 2 * math.Pi
		end += 2 * math.Pi
	} else if math.Max(start, end) > 2*math.Pi {
		start -= 2 * math.Pi
		end -= 2 * math.Pi
	}
	start, end = -start, -end
	return fmt.Sprintf("\\draw [%s] (%s,%s) arc (%s:%s:%s);\n",
		color,
		fixed(a.x+a.r*math.Cos(start), 3), fixed(-a.y+a.r*math.Sin(start), 3),
		fixed(start*180/math.Pi, 5), fixed(end*180/math.Pi, 5), fixed(a.r, 3))
}
