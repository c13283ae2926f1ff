package main

import (
	"math"
	"sort"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"

	"github.com/ha1tch/fsm-designer/pkg/geom"
	"github.com/ha1tch/fsm-designer/pkg/render"
)

// Each terminal cell stands for cellWidth x cellHeight diagram pixels and
// holds a 2x4 braille dot matrix.
const (
	cellWidth  = 8.0
	cellHeight = 16.0
	dotWidth   = cellWidth / 2
	dotHeight  = cellHeight / 4
)

// braille dot bits indexed by [row][column] within a cell.
var brailleBits = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

type cellPos struct{ x, y int }

type termLabel struct {
	x, y  int
	text  string
	color tcell.Color
	caret bool
}

// termSurface rasterizes diagram drawing calls into braille dots and
// character labels. Nothing reaches the screen until Flush.
type termSurface struct {
	fg, bg render.Color // theme colors drawn with the terminal defaults

	dots   map[cellPos]uint8
	ink    map[cellPos]tcell.Color
	labels []termLabel

	path   [][]geom.Point
	ox, oy float64
}

func newTermSurface(fg, bg render.Color) *termSurface {
	s := &termSurface{fg: fg, bg: bg}
	s.Reset()
	return s
}

// Reset discards everything drawn so far.
func (s *termSurface) Reset() {
	s.dots = make(map[cellPos]uint8)
	s.ink = make(map[cellPos]tcell.Color)
	s.labels = nil
	s.path = nil
	s.ox, s.oy = 0, 0
}

func (s *termSurface) BeginPath() {
	s.path = nil
}

func (s *termSurface) MoveTo(x, y float64) {
	s.path = append(s.path, []geom.Point{{X: x + s.ox, Y: y + s.oy}})
}

func (s *termSurface) LineTo(x, y float64) {
	if len(s.path) == 0 {
		s.MoveTo(x, y)
		return
	}
	last := len(s.path) - 1
	s.path[last] = append(s.path[last], geom.Point{X: x + s.ox, Y: y + s.oy})
}

func (s *termSurface) Arc(cx, cy, r, start, end float64, reversed bool) {
	start, end = render.CanvasSweep(start, end, reversed)
	steps := int(math.Abs(end-start)*r/dotWidth) + 1
	steps = max(steps, 8)
	for i := 0; i <= steps; i++ {
		a := start + (end-start)*float64(i)/float64(steps)
		s.LineTo(cx+r*math.Cos(a), cy+r*math.Sin(a))
	}
}

func (s *termSurface) Stroke(st render.Style) {
	color := s.color(st.Color)
	for _, sub := range s.path {
		if len(sub) == 1 {
			s.plot(dotOf(sub[0]), color)
		}
		for i := 1; i < len(sub); i++ {
			s.line(dotOf(sub[i-1]), dotOf(sub[i]), color)
		}
	}
}

// Fill paints the even-odd interior of the path. Filling with the
// background color erases dots instead.
func (s *termSurface) Fill(st render.Style) {
	erase := st.Color.Hex() == s.bg.Hex()
	color := s.color(st.Color)

	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, sub := range s.path {
		for _, p := range sub {
			minY = math.Min(minY, p.Y)
			maxY = math.Max(maxY, p.Y)
		}
	}
	if math.IsInf(minY, 0) {
		return
	}

	for dy := int(math.Floor(minY / dotHeight)); dy <= int(math.Floor(maxY/dotHeight)); dy++ {
		y := (float64(dy) + 0.5) * dotHeight
		xs := s.crossings(y)
		for i := 0; i+1 < len(xs); i += 2 {
			from := int(math.Ceil(xs[i]/dotWidth - 0.5))
			to := int(math.Floor(xs[i+1]/dotWidth - 0.5))
			for dx := from; dx <= to; dx++ {
				if erase {
					s.unplot(dx, dy)
				} else {
					s.plot([2]int{dx, dy}, color)
				}
			}
		}
	}
}

// crossings returns the sorted x positions where the closed subpaths
// cross the horizontal line at y.
func (s *termSurface) crossings(y float64) []float64 {
	var xs []float64
	for _, sub := range s.path {
		n := len(sub)
		for i := 0; i < n; i++ {
			a, b := sub[i], sub[(i+1)%n]
			if (a.Y <= y) == (b.Y <= y) {
				continue
			}
			xs = append(xs, a.X+(y-a.Y)*(b.X-a.X)/(b.Y-a.Y))
		}
	}
	sort.Float64s(xs)
	return xs
}

func (s *termSurface) MeasureText(text string, _ render.Font) float64 {
	return float64(utf8.RuneCountInString(text)) * cellWidth
}

func (s *termSurface) FillText(run render.TextRun) {
	s.labels = append(s.labels, termLabel{
		x:     int(math.Round((run.X + s.ox) / cellWidth)),
		y:     int(math.Floor((run.Y + s.oy) / cellHeight)),
		text:  run.Text,
		color: s.color(run.Color),
		caret: run.Caret,
	})
}

func (s *termSurface) Translate(x, y float64) {
	s.ox += x
	s.oy += y
}

// Flush writes the dots and labels into the w x h top-left region of
// screen. Labels are drawn over dots.
func (s *termSurface) Flush(screen tcell.Screen, w, h int) {
	for c, bits := range s.dots {
		if bits == 0 || c.x < 0 || c.y < 0 || c.x >= w || c.y >= h {
			continue
		}
		style := tcell.StyleDefault.Foreground(s.ink[c])
		screen.SetContent(c.x, c.y, rune(0x2800+int(bits)), nil, style)
	}

	for _, l := range s.labels {
		if l.y < 0 || l.y >= h {
			continue
		}
		style := tcell.StyleDefault.Foreground(l.color)
		x := l.x
		for _, r := range l.text {
			if x >= 0 && x < w {
				screen.SetContent(x, l.y, r, nil, style)
			}
			x++
		}
		if l.caret && x >= 0 && x < w {
			screen.SetContent(x, l.y, ' ', nil, style.Reverse(true))
		}
	}
}

// color maps a theme color onto the terminal palette.
func (s *termSurface) color(c render.Color) tcell.Color {
	if c.Hex() == s.fg.Hex() {
		return tcell.ColorDefault
	}
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

func (s *termSurface) plot(d [2]int, color tcell.Color) {
	c := cellPos{floorDiv(d[0], 2), floorDiv(d[1], 4)}
	s.dots[c] |= brailleBits[d[1]-c.y*4][d[0]-c.x*2]
	s.ink[c] = color
}

func (s *termSurface) unplot(dx, dy int) {
	c := cellPos{floorDiv(dx, 2), floorDiv(dy, 4)}
	s.dots[c] &^= brailleBits[dy-c.y*4][dx-c.x*2]
}

// line plots a Bresenham line between two dots.
func (s *termSurface) line(a, b [2]int, color tcell.Color) {
	dx := abs(b[0] - a[0])
	dy := -abs(b[1] - a[1])
	sx, sy := 1, 1
	if a[0] > b[0] {
		sx = -1
	}
	if a[1] > b[1] {
		sy = -1
	}
	err := dx + dy
	x, y := a[0], a[1]
	for {
		s.plot([2]int{x, y}, color)
		if x == b[0] && y == b[1] {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func dotOf(p geom.Point) [2]int {
	return [2]int{int(math.Floor(p.X / dotWidth)), int(math.Floor(p.Y / dotHeight))}
}

// cellCenter converts a terminal cell to diagram coordinates.
func cellCenter(x, y int) (float64, float64) {
	return (float64(x) + 0.5) * cellWidth, (float64(y) + 0.5) * cellHeight
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

var _ render.Surface = (*termSurface)(nil)
