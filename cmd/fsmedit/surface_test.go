package main

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/ha1tch/fsm-designer/pkg/render"
)

func newSimScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	screen.SetSize(w, h)
	t.Cleanup(screen.Fini)
	return screen
}

func TestSurfaceStrokeLine(t *testing.T) {
	s := newTermSurface(render.Black, render.White)
	s.BeginPath()
	s.MoveTo(0, 0)
	s.LineTo(15, 0)
	s.Stroke(render.Style{Color: render.Black})

	screen := newSimScreen(t, 10, 5)
	s.Flush(screen, 10, 5)

	for x := 0; x < 2; x++ {
		r, _, style, _ := screen.GetContent(x, 0)
		if r != 0x2809 {
			t.Errorf("cell %d: got %U, want U+2809", x, r)
		}
		if fg, _, _ := style.Decompose(); fg != tcell.ColorDefault {
			t.Errorf("cell %d: foreground color should map to the terminal default", x)
		}
	}
	if r, _, _, _ := screen.GetContent(2, 0); r != ' ' {
		t.Errorf("cell 2: got %q, want blank", r)
	}
}

func TestSurfaceFill(t *testing.T) {
	square := func(s *termSurface) {
		s.BeginPath()
		s.MoveTo(0, 0)
		s.LineTo(16, 0)
		s.LineTo(16, 16)
		s.LineTo(0, 16)
	}

	s := newTermSurface(render.Black, render.White)
	square(s)
	s.Fill(render.Style{Color: render.Red})
	if got := s.dots[cellPos{0, 0}]; got != 0xff {
		t.Errorf("filled cell bits = %#x, want 0xff", got)
	}
	if got := s.ink[cellPos{0, 0}]; got != tcell.NewRGBColor(255, 0, 0) {
		t.Errorf("filled cell ink = %v, want red", got)
	}

	s.Reset()
	square(s)
	s.Stroke(render.Style{Color: render.Black})
	s.Fill(render.Style{Color: render.White})
	if got := s.dots[cellPos{0, 0}]; got != 0 {
		t.Errorf("background fill should erase, got bits %#x", got)
	}
	if s.dots[cellPos{2, 0}] == 0 {
		t.Errorf("dots outside the fill should survive")
	}
}

func TestSurfaceArcClosesCircle(t *testing.T) {
	s := newTermSurface(render.Black, render.White)
	s.BeginPath()
	s.Arc(40, 40, 20, 0, 6.283185307179586, false)
	if len(s.path) != 1 {
		t.Fatalf("got %d subpaths, want 1", len(s.path))
	}
	sub := s.path[0]
	first, last := sub[0], sub[len(sub)-1]
	if d := (first.X-last.X)*(first.X-last.X) + (first.Y-last.Y)*(first.Y-last.Y); d > 1e-9 {
		t.Errorf("full circle should end where it starts: %v vs %v", first, last)
	}
}

func TestSurfaceText(t *testing.T) {
	s := newTermSurface(render.Black, render.White)
	s.Translate(0.5, 0.5)
	if w := s.MeasureText("q₀", render.Font{}); w != 2*cellWidth {
		t.Errorf("measure = %v, want %v", w, 2*cellWidth)
	}
	s.FillText(render.TextRun{Text: "q₀", X: 16, Y: 40, Color: render.Black, Caret: true})

	screen := newSimScreen(t, 10, 5)
	s.Flush(screen, 10, 5)

	for i, want := range []rune{'q', '₀'} {
		if r, _, _, _ := screen.GetContent(2+i, 2); r != want {
			t.Errorf("cell %d: got %q, want %q", 2+i, r, want)
		}
	}
	_, _, style, _ := screen.GetContent(4, 2)
	if _, _, attr := style.Decompose(); attr&tcell.AttrReverse == 0 {
		t.Errorf("caret cell should be reversed")
	}
}

func TestFlushClips(t *testing.T) {
	s := newTermSurface(render.Black, render.White)
	s.BeginPath()
	s.MoveTo(-40, 8)
	s.LineTo(200, 8)
	s.Stroke(render.Style{Color: render.Black})
	s.FillText(render.TextRun{Text: "far away", X: 400, Y: 8})

	screen := newSimScreen(t, 10, 5)
	s.Flush(screen, 4, 5) // must not panic or write past column 3
	if r, _, _, _ := screen.GetContent(5, 0); r != ' ' {
		t.Errorf("column 5 should be clipped, got %q", r)
	}
}

func TestFloorDiv(t *testing.T) {
	tests := []struct {
		a, b, want int
	}{
		{7, 2, 3},
		{8, 4, 2},
		{-1, 2, -1},
		{-4, 4, -1},
		{-5, 4, -2},
		{0, 4, 0},
	}
	for _, tt := range tests {
		if got := floorDiv(tt.a, tt.b); got != tt.want {
			t.Errorf("floorDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
