package geom

import (
	"math"
	"testing"
)

func TestCircleFromThreePoints(t *testing.T) {
	tests := []struct {
		name       string
		p1, p2, p3 Point
		want       Circle
	}{
		{"unit circle", Point{1, 0}, Point{0, 1}, Point{-1, 0}, Circle{0, 0, 1}},
		{"offset", Point{110, 50}, Point{100, 60}, Point{90, 50}, Circle{100, 50, 10}},
		{"large", Point{0, 0}, Point{200, 0}, Point{100, 100}, Circle{100, 0, 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CircleFromThreePoints(tt.p1, tt.p2, tt.p3)
			if !ok {
				t.Fatalf("expected a circle")
			}
			if math.Abs(got.X-tt.want.X) > 1e-9 || math.Abs(got.Y-tt.want.Y) > 1e-9 {
				t.Errorf("center = (%.4f, %.4f), want (%.4f, %.4f)", got.X, got.Y, tt.want.X, tt.want.Y)
			}
			if math.Abs(got.Radius-tt.want.Radius) > 1e-9 {
				t.Errorf("radius = %.4f, want %.4f", got.Radius, tt.want.Radius)
			}
		})
	}
}

func TestCircleFromThreePointsCollinear(t *testing.T) {
	_, ok := CircleFromThreePoints(Point{0, 0}, Point{100, 0}, Point{50, 0})
	if ok {
		t.Errorf("collinear points should not produce a circle")
	}

	// Near-collinear input is accepted and yields a large radius.
	c, ok := CircleFromThreePoints(Point{0, 0}, Point{100, 0}, Point{50, 0.001})
	if !ok {
		t.Fatalf("near-collinear points should still produce a circle")
	}
	if c.Radius < 1e5 {
		t.Errorf("radius = %.2f, expected a very large radius", c.Radius)
	}
}

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
	}
	for _, tt := range tests {
		got := NormalizeAngle(tt.in)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("NormalizeAngle(%.4f) = %.4f, want %.4f", tt.in, got, tt.want)
		}
	}
}

func TestSnapAngle(t *testing.T) {
	step := math.Pi / 2
	if got := SnapAngle(math.Pi/2+0.05, step, 0.1); got != math.Pi/2 {
		t.Errorf("SnapAngle near π/2 = %v, want exactly π/2", got)
	}
	if got := SnapAngle(math.Pi/2+0.5, step, 0.1); got == math.Pi/2 {
		t.Errorf("SnapAngle 0.5 rad away should not snap")
	}
}

func TestDet3(t *testing.T) {
	if got := Det3(1, 0, 0, 0, 1, 0, 0, 0, 1); got != 1 {
		t.Errorf("identity determinant = %v, want 1", got)
	}
	if got := Det3(1, 2, 3, 4, 5, 6, 7, 8, 9); got != 0 {
		t.Errorf("singular determinant = %v, want 0", got)
	}
}
