// Package geom provides the closed-form geometry used to position, curve
// and hit-test diagram entities.
package geom

import "math"

// Point represents a 2D coordinate.
type Point struct {
	X, Y float64
}

// Circle is a center and a radius.
type Circle struct {
	X, Y   float64
	Radius float64
}

// Dist returns the euclidean distance between two points.
func Dist(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Det3 returns the determinant of the 3x3 matrix given in row-major order.
func Det3(a, b, c, d, e, f, g, h, i float64) float64 {
	return a*e*i + b*f*g + c*d*h - a*f*h - b*d*i - c*e*g
}

// CircleFromThreePoints solves the unique circle through three points.
//
// The second return value is false when the points are exactly collinear
// or the solution is not finite. Near-collinear points still produce a
// circle, possibly with a very large radius.
func CircleFromThreePoints(p1, p2, p3 Point) (Circle, bool) {
	s1 := p1.X*p1.X + p1.Y*p1.Y
	s2 := p2.X*p2.X + p2.Y*p2.Y
	s3 := p3.X*p3.X + p3.Y*p3.Y

	a := Det3(p1.X, p1.Y, 1, p2.X, p2.Y, 1, p3.X, p3.Y, 1)
	if a == 0 {
		return Circle{}, false
	}
	bx := -Det3(s1, p1.Y, 1, s2, p2.Y, 1, s3, p3.Y, 1)
	by := Det3(s1, p1.X, 1, s2, p2.X, 1, s3, p3.X, 1)
	c := -Det3(s1, p1.X, p1.Y, s2, p2.X, p2.Y, s3, p3.X, p3.Y)

	circle := Circle{
		X:      -bx / (2 * a),
		Y:      -by / (2 * a),
		Radius: math.Sqrt(bx*bx+by*by-4*a*c) / (2 * math.Abs(a)),
	}
	if !finite(circle.X) || !finite(circle.Y) || !finite(circle.Radius) {
		return Circle{}, false
	}
	return circle, true
}

// NormalizeAngle maps an angle into (-π, π].
func NormalizeAngle(a float64) float64 {
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// SnapAngle rounds a to the nearest multiple of step when it lies within
// tolerance of it, otherwise returns a unchanged.
func SnapAngle(a, step, tolerance float64) float64 {
	snap := math.Round(a/step) * step
	if math.Abs(a-snap) < tolerance {
		return snap
	}
	return a
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
