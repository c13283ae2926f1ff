package render

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

func TestArcPath(t *testing.T) {
	tests := []struct {
		name string
		arc  svgArc
		want string
	}{
		{"quarter", svgArc{0, 0, 10, 0, math.Pi / 2, false}, "M 10,0 A 10,10 0 0 1 0,10"},
		{"reversed quarter takes the long way", svgArc{0, 0, 10, 0, math.Pi / 2, true}, "M 0,10 A 10,10 0 1 1 10,0"},
		{"wrapped", svgArc{0, 0, 10, math.Pi / 2, 0, false}, "M 0,10 A 10,10 0 1 1 10,0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := arcPath(tt.arc); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSVGSurface(t *testing.T) {
	s := NewSVGSurface(800, 600)

	s.BeginPath()
	s.Arc(100, 100, 55, 0, 2*math.Pi, false)
	s.Fill(Style{Color: White})
	s.Stroke(Style{Color: Black, LineWidth: 2})

	s.BeginPath()
	s.MoveTo(0, 0)
	s.LineTo(10, 20)
	s.Stroke(Style{Color: Blue})

	s.FillText(TextRun{Text: "a<b", X: 10, Y: 20, Font: Font{Family: Sans, Size: 16}, Color: Black})
	s.FillText(TextRun{Text: "  ", X: 10, Y: 20, Font: Font{Family: Sans, Size: 16}, Color: Black})

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		`<svg width="800" height="600"`,
		`<circle fill="white"`,
		`<ellipse stroke="black" stroke-width="2" fill="none" cx="100" cy="100" rx="55" ry="55"/>`,
		`<polygon stroke="blue" stroke-width="1" fill="none" points="0,0 10,20"/>`,
		`a&lt;b</text>`,
		`</svg>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if strings.Count(out, "<text") != 1 {
		t.Errorf("blank text should be skipped, got %d text elements", strings.Count(out, "<text"))
	}
}

func TestSVGTranslateAccumulates(t *testing.T) {
	s := NewSVGSurface(10, 10)
	s.Translate(0.5, 0.5)
	s.BeginPath()
	s.MoveTo(1, 1)
	s.Fill(Style{Color: Black})
	s.Translate(-0.5, -0.5)
	s.BeginPath()
	s.MoveTo(1, 1)
	s.Fill(Style{Color: Black})

	out := s.String()
	if !strings.Contains(out, `points="1.5,1.5"`) || !strings.Contains(out, `points="1,1"`) {
		t.Errorf("translation not applied as expected:\n%s", out)
	}
}

func TestLaTeXSurface(t *testing.T) {
	l := NewLaTeXSurface(0)

	l.BeginPath()
	l.Arc(10, 20, 5, 0, 2*math.Pi, false)
	l.Stroke(Style{Color: Black})

	l.BeginPath()
	l.MoveTo(10, 20)
	l.LineTo(30, 40)
	l.Stroke(Style{Color: Black})

	l.BeginPath()
	l.MoveTo(10, 20)
	l.Fill(Style{Color: Blue})

	l.FillText(TextRun{Text: "q₀ x", Source: `q_0 x`, X: 90, Y: 50, Width: 20})

	body := l.Body()
	for _, want := range []string{
		`\draw [black] (1,-2) circle (0.5);`,
		`\draw [black] (1,-2) -- (3,-4);`,
		`\fill [blue] (1,-2);`,
		`\draw (10,-5) node {$q_0\mbox{ }x$};`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q\n%s", want, body)
		}
	}

	doc := l.Document()
	if !strings.HasPrefix(doc, `\documentclass`) || !strings.Contains(doc, `\begin{tikzpicture}[scale=0.2]`) {
		t.Errorf("incomplete document:\n%s", doc)
	}
}

func TestLaTeXAngledAnchors(t *testing.T) {
	tests := []struct {
		angle float64
		want  string
	}{
		{0, "[right]"},
		{math.Pi, "[left]"},
		{math.Pi / 2, "[below]"},
		{-math.Pi / 2, "[above]"},
	}
	for _, tt := range tests {
		l := NewLaTeXSurface(0)
		l.FillText(TextRun{Text: "a", Source: "a", Angle: tt.angle, Angled: true, Width: 10})
		if !strings.Contains(l.Body(), tt.want) {
			t.Errorf("angle %.2f: got %q, want %s", tt.angle, l.Body(), tt.want)
		}
	}
}

func TestTikZArcStaysInRange(t *testing.T) {
	got := tikzArc(svgArc{0, 0, 1, 3 * math.Pi / 2, 5 * math.Pi / 2, false}, "black")
	// 3π/2..5π/2 is shifted down by 2π and negated: -(-90)..-(90).
	if !strings.Contains(got, "arc (90:-90:1)") {
		t.Errorf("got %q", got)
	}
}

func TestPNGSurface(t *testing.T) {
	p := NewPNGSurface(100, 100)
	p.Clear(White)

	p.BeginPath()
	p.Arc(50, 50, 20, 0, 2*math.Pi, false)
	p.Fill(Style{Color: Blue})
	p.Stroke(Style{Color: Black, LineWidth: 2})

	r, g, b, _ := p.Image().At(50, 50).RGBA()
	if r != 0 || g != 0 || b>>8 != 0xff {
		t.Errorf("center pixel = (%d, %d, %d), want blue", r>>8, g>>8, b>>8)
	}
	r, g, b, _ = p.Image().At(2, 2).RGBA()
	if r>>8 != 0xff || g>>8 != 0xff || b>>8 != 0xff {
		t.Errorf("corner pixel should stay white")
	}

	var buf bytes.Buffer
	if err := p.EncodePNG(&buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Errorf("output is not a PNG")
	}
}
