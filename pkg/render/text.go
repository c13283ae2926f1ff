package render

import (
	"math"
	"strconv"
	"strings"
)

var greekLetterNames = []string{
	"Alpha", "Beta", "Gamma", "Delta", "Epsilon", "Zeta", "Eta", "Theta",
	"Iota", "Kappa", "Lambda", "Mu", "Nu", "Xi", "Omicron", "Pi", "Rho",
	"Sigma", "Tau", "Upsilon", "Phi", "Chi", "Psi", "Omega",
}

var shortcuts = newShortcutReplacer()

func newShortcutReplacer() *strings.Replacer {
	var pairs []string
	for i, name := range greekLetterNames {
		// U+03A2 is unassigned (final sigma only exists in lower case).
		skip := 0
		if i > 16 {
			skip = 1
		}
		pairs = append(pairs,
			`\`+name, string(rune(0x391+i+skip)),
			`\`+strings.ToLower(name), string(rune(0x3B1+i+skip)),
		)
	}
	for i := 0; i < 10; i++ {
		pairs = append(pairs, "_"+strconv.Itoa(i), string(rune(0x2080+i)))
	}
	return strings.NewReplacer(pairs...)
}

// ExpandShortcuts replaces LaTeX-style greek letter names (\alpha, \Omega)
// and digit subscripts (_0 … _9) with their Unicode glyphs.
func ExpandShortcuts(text string) string {
	return shortcuts.Replace(text)
}

// Label describes a piece of text to place on a surface.
type Label struct {
	Text   string // as stored; shortcuts are expanded at draw time
	X, Y   float64
	Angle  float64
	Angled bool // push the label away from the curve along Angle
	Font   Font
	Color  Color
	Caret  bool
}

// DrawText centers a label on (X, Y) and, when Angled is set, slides it
// off the curve on the side indicated by Angle. Every backend receives the
// same placement.
func DrawText(s Surface, l Label) {
	text := ExpandShortcuts(l.Text)
	width := s.MeasureText(text, l.Font)

	x := l.X - width/2
	y := l.Y

	if l.Angled {
		cos := math.Cos(l.Angle)
		sin := math.Sin(l.Angle)
		cornerX := (width/2 + 5) * sign(cos)
		cornerY := (10 + 5) * sign(sin)
		slide := sin*math.Pow(math.Abs(sin), 40)*cornerX - cos*math.Pow(math.Abs(cos), 10)*cornerY
		x += cornerX - sin*slide
		y += cornerY + cos*slide
	}

	s.FillText(TextRun{
		Text:   text,
		Source: l.Text,
		X:      x,
		Y:      y,
		Width:  width,
		Angle:  l.Angle,
		Angled: l.Angled,
		Font:   l.Font,
		Color:  l.Color,
		Caret:  l.Caret,
	})
}

func sign(v float64) float64 {
	if v > 0 {
		return 1
	}
	return -1
}

// DrawArrow fills an arrowhead whose tip is at (x, y), pointing along angle.
func DrawArrow(s Surface, x, y, angle float64, c Color) {
	dx := math.Cos(angle)
	dy := math.Sin(angle)
	s.BeginPath()
	s.MoveTo(x, y)
	s.LineTo(x-8*dx+5*dy, y-8*dy-5*dx)
	s.LineTo(x-8*dx-5*dy, y-8*dy+5*dx)
	s.Fill(Style{Color: c})
}

// fixed formats v with at most digits decimals, dropping trailing zeros.
func fixed(v float64, digits int) string {
	s := strconv.FormatFloat(v, 'f', digits, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}

// blank reports whether text has nothing but spaces.
func blank(text string) bool {
	return strings.ReplaceAll(text, " ", "") == ""
}
