package diagram

import (
	"math"

	"github.com/ha1tch/fsm-designer/pkg/geom"
	"github.com/ha1tch/fsm-designer/pkg/render"
)

// LinkKind is the wire tag of a link record.
type LinkKind string

const (
	KindLink      LinkKind = "Link"
	KindSelfLink  LinkKind = "SelfLink"
	KindStartLink LinkKind = "StartLink"
	KindTransient LinkKind = "TransientLink"
)

// Edge is the closed set of link variants: *Link, *SelfLink, *StartLink
// and *TransientLink.
type Edge interface {
	Entity
	IsConnectedTo(n *Node) bool
	Draw(s render.Surface, st *DrawState)
	Kind() LinkKind
	edge()
}

// Link is a transition between two distinct nodes. The anchor point that
// bends it is stored relative to the A→B baseline so it follows the nodes
// when they move.
type Link struct {
	A, B *Node
	Text string

	ParallelPart      float64 // fraction along A→B
	PerpendicularPart float64 // pixels off the baseline; 0 means straight
	LineAngleAdjust   float64 // added to the label angle of a straight link
}

// NewLink creates a straight link from a to b.
func NewLink(a, b *Node) *Link {
	return &Link{A: a, B: b, ParallelPart: 0.5}
}

func (*Link) edge()          {}
func (*Link) Kind() LinkKind { return KindLink }

func (l *Link) IsConnectedTo(n *Node) bool {
	return l.A == n || l.B == n
}

// AnchorPoint converts the stored parts into an absolute point.
func (l *Link) AnchorPoint() geom.Point {
	dx := l.B.X - l.A.X
	dy := l.B.Y - l.A.Y
	scale := math.Hypot(dx, dy)
	if scale == 0 {
		return l.A.Center()
	}
	return geom.Point{
		X: l.A.X + dx*l.ParallelPart - dy*l.PerpendicularPart/scale,
		Y: l.A.Y + dy*l.ParallelPart + dx*l.PerpendicularPart/scale,
	}
}

// SetAnchorPoint stores (x, y) relative to the baseline. A point that
// projects between the endpoints and lies within snap of the baseline
// makes the link straight. Coincident endpoints leave the link unchanged.
func (l *Link) SetAnchorPoint(x, y, snap float64) {
	dx := l.B.X - l.A.X
	dy := l.B.Y - l.A.Y
	scale := math.Hypot(dx, dy)
	if scale == 0 {
		return
	}
	l.ParallelPart = (dx*(x-l.A.X) + dy*(y-l.A.Y)) / (scale * scale)
	l.PerpendicularPart = (dx*(y-l.A.Y) - dy*(x-l.A.X)) / scale

	if l.ParallelPart > 0 && l.ParallelPart < 1 && math.Abs(l.PerpendicularPart) < snap {
		l.LineAngleAdjust = 0
		if l.PerpendicularPart < 0 {
			l.LineAngleAdjust = math.Pi
		}
		l.PerpendicularPart = 0
	}
}

// Geometry describes how a link is laid out on the page.
type Geometry struct {
	HasCircle bool
	Start     geom.Point
	End       geom.Point

	// Valid when HasCircle is set.
	Circle       geom.Circle
	StartAngle   float64
	EndAngle     float64
	ReverseScale float64
	IsReversed   bool
}

// Geometry returns the endpoints on each node's rim and, for a curved link,
// the circle through both centers and the anchor point. A curved link whose
// circle cannot be solved is laid out straight.
func (l *Link) Geometry() Geometry {
	if l.PerpendicularPart != 0 {
		anchor := l.AnchorPoint()
		circle, ok := geom.CircleFromThreePoints(l.A.Center(), l.B.Center(), anchor)
		if ok {
			return l.curved(circle)
		}
	}

	midX := (l.A.X + l.B.X) / 2
	midY := (l.A.Y + l.B.Y) / 2
	return Geometry{
		Start: l.A.ClosestPointOnCircle(midX, midY),
		End:   l.B.ClosestPointOnCircle(midX, midY),
	}
}

func (l *Link) curved(c geom.Circle) Geometry {
	reversed := l.PerpendicularPart > 0
	reverseScale := -1.0
	if reversed {
		reverseScale = 1
	}
	// Offset each end by the node radius expressed as an angle on the
	// circle so the arc meets the rims instead of the centers.
	startAngle := math.Atan2(l.A.Y-c.Y, l.A.X-c.X) - reverseScale*l.A.Radius/c.Radius
	endAngle := math.Atan2(l.B.Y-c.Y, l.B.X-c.X) + reverseScale*l.B.Radius/c.Radius
	return Geometry{
		HasCircle:    true,
		Start:        pointOn(c, startAngle),
		End:          pointOn(c, endAngle),
		Circle:       c,
		StartAngle:   startAngle,
		EndAngle:     endAngle,
		ReverseScale: reverseScale,
		IsReversed:   reversed,
	}
}

func pointOn(c geom.Circle, angle float64) geom.Point {
	return geom.Point{
		X: c.X + c.Radius*math.Cos(angle),
		Y: c.Y + c.Radius*math.Sin(angle),
	}
}

func (l *Link) Draw(s render.Surface, st *DrawState) {
	g := l.Geometry()
	color := st.linkColor(l)
	th := st.theme()

	s.BeginPath()
	if g.HasCircle {
		s.Arc(g.Circle.X, g.Circle.Y, g.Circle.Radius, g.StartAngle, g.EndAngle, g.IsReversed)
	} else {
		s.MoveTo(g.Start.X, g.Start.Y)
		s.LineTo(g.End.X, g.End.Y)
	}
	s.Stroke(render.Style{Color: color, LineWidth: th.LinkWidth})

	if g.HasCircle {
		render.DrawArrow(s, g.End.X, g.End.Y, g.EndAngle-g.ReverseScale*(math.Pi/2), color)
	} else {
		render.DrawArrow(s, g.End.X, g.End.Y, math.Atan2(g.End.Y-g.Start.Y, g.End.X-g.Start.X), color)
	}

	label := render.Label{
		Text:   l.Text,
		Angled: true,
		Font:   th.LinkFont,
		Color:  color,
		Caret:  st.caretFor(l, false),
	}
	if g.HasCircle {
		start, end := g.StartAngle, g.EndAngle
		if end < start {
			end += 2 * math.Pi
		}
		label.Angle = (start + end) / 2
		if g.IsReversed {
			label.Angle += math.Pi
		}
		p := pointOn(g.Circle, label.Angle)
		label.X, label.Y = p.X, p.Y
	} else {
		label.X = (g.Start.X + g.End.X) / 2
		label.Y = (g.Start.Y + g.End.Y) / 2
		label.Angle = math.Atan2(g.End.X-g.Start.X, g.Start.Y-g.End.Y) + l.LineAngleAdjust
	}
	render.DrawText(s, label)
}

// ContainsPoint hit-tests the rendered arc or segment with a band of pad
// pixels on either side.
func (l *Link) ContainsPoint(x, y, pad float64) bool {
	g := l.Geometry()
	if !g.HasCircle {
		return segmentContains(g.Start, g.End, x, y, pad)
	}

	dx := x - g.Circle.X
	dy := y - g.Circle.Y
	if math.Abs(math.Hypot(dx, dy)-g.Circle.Radius) >= pad {
		return false
	}
	angle := math.Atan2(dy, dx)
	start, end := g.StartAngle, g.EndAngle
	if g.IsReversed {
		start, end = end, start
	}
	if end < start {
		end += 2 * math.Pi
	}
	if angle < start {
		angle += 2 * math.Pi
	} else if angle > end {
		angle -= 2 * math.Pi
	}
	return angle > start && angle < end
}

// segmentContains projects (x, y) onto the segment a→b. It hits when the
// projection falls strictly inside the segment and the perpendicular
// distance is under pad.
func segmentContains(a, b geom.Point, x, y, pad float64) bool {
	dx := b.X - a.X
	dy := b.Y - a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return false
	}
	percent := (dx*(x-a.X) + dy*(y-a.Y)) / (length * length)
	distance := (dx*(y-a.Y) - dy*(x-a.X)) / length
	return percent > 0 && percent < 1 && math.Abs(distance) < pad
}
