package diagram

import (
	"math"

	"github.com/ha1tch/fsm-designer/pkg/geom"
	"github.com/ha1tch/fsm-designer/pkg/render"
)

// SelfLink is a loop from a node back to itself.
type SelfLink struct {
	Node        *Node
	AnchorAngle float64 // in (-π, π]
	Text        string

	offsetAngle float64
}

// NewSelfLink creates a loop on n pointing right.
func NewSelfLink(n *Node) *SelfLink {
	return &SelfLink{Node: n}
}

func (*SelfLink) edge()          {}
func (*SelfLink) Kind() LinkKind { return KindSelfLink }

func (l *SelfLink) IsConnectedTo(n *Node) bool {
	return l.Node == n
}

// StartDrag remembers the angle between the cursor and the loop so that
// dragging rotates the loop relative to where it was grabbed.
func (l *SelfLink) StartDrag(x, y float64) {
	l.offsetAngle = l.AnchorAngle - math.Atan2(y-l.Node.Y, x-l.Node.X)
}

// SetAnchorPoint points the loop at (x, y), snapping to the nearest compass
// direction within 0.1 rad.
func (l *SelfLink) SetAnchorPoint(x, y, _ float64) {
	angle := math.Atan2(y-l.Node.Y, x-l.Node.X) + l.offsetAngle
	angle = geom.SnapAngle(angle, math.Pi/2, 0.1)
	l.AnchorAngle = geom.NormalizeAngle(angle)
}

// Loop returns the loop circle and the angles it is swept between.
func (l *SelfLink) Loop() (c geom.Circle, start, end float64) {
	c = geom.Circle{
		X:      l.Node.X + 1.5*l.Node.Radius*math.Cos(l.AnchorAngle),
		Y:      l.Node.Y + 1.5*l.Node.Radius*math.Sin(l.AnchorAngle),
		Radius: 0.75 * l.Node.Radius,
	}
	return c, l.AnchorAngle - math.Pi*0.8, l.AnchorAngle + math.Pi*0.8
}

func (l *SelfLink) Draw(s render.Surface, st *DrawState) {
	c, start, end := l.Loop()
	color := st.linkColor(l)
	th := st.theme()

	s.BeginPath()
	s.Arc(c.X, c.Y, c.Radius, start, end, false)
	s.Stroke(render.Style{Color: color, LineWidth: th.LinkWidth})

	// The label sits on the far side of the loop.
	p := pointOn(c, l.AnchorAngle)
	render.DrawText(s, render.Label{
		Text:   l.Text,
		X:      p.X,
		Y:      p.Y,
		Angle:  l.AnchorAngle,
		Angled: true,
		Font:   th.LinkFont,
		Color:  color,
		Caret:  st.caretFor(l, false),
	})

	tip := pointOn(c, end)
	render.DrawArrow(s, tip.X, tip.Y, end+math.Pi*0.4, color)
}

// ContainsPoint tests distance from the loop circle only. The loop is
// open toward the node, so the angle is not checked.
func (l *SelfLink) ContainsPoint(x, y, pad float64) bool {
	c, _, _ := l.Loop()
	return math.Abs(math.Hypot(x-c.X, y-c.Y)-c.Radius) < pad
}

// StartLink is the incoming arrow that marks the initial state. A StartLink
// without a node is inert.
type StartLink struct {
	Node           *Node
	DeltaX, DeltaY float64 // offset of the arrow tail from the node center
	Text           string
}

// NewStartLink creates a start arrow into n.
func NewStartLink(n *Node) *StartLink {
	return &StartLink{Node: n}
}

func (*StartLink) edge()          {}
func (*StartLink) Kind() LinkKind { return KindStartLink }

func (l *StartLink) IsConnectedTo(n *Node) bool {
	return l.Node == n
}

// SetAnchorPoint moves the arrow tail to (x, y). Each axis snaps to the
// node center when within snap pixels.
func (l *StartLink) SetAnchorPoint(x, y, snap float64) {
	if l.Node == nil {
		return
	}
	l.DeltaX = x - l.Node.X
	l.DeltaY = y - l.Node.Y
	if math.Abs(l.DeltaX) < snap {
		l.DeltaX = 0
	}
	if math.Abs(l.DeltaY) < snap {
		l.DeltaY = 0
	}
}

// EndPoints returns the arrow tail and the point where it meets the rim.
func (l *StartLink) EndPoints() (start, end geom.Point) {
	start = geom.Point{X: l.Node.X + l.DeltaX, Y: l.Node.Y + l.DeltaY}
	end = l.Node.ClosestPointOnCircle(start.X, start.Y)
	return start, end
}

func (l *StartLink) Draw(s render.Surface, st *DrawState) {
	if l.Node == nil {
		return
	}
	start, end := l.EndPoints()
	color := st.linkColor(l)
	th := st.theme()

	s.BeginPath()
	s.MoveTo(start.X, start.Y)
	s.LineTo(end.X, end.Y)
	s.Stroke(render.Style{Color: color, LineWidth: th.LinkWidth})

	render.DrawText(s, render.Label{
		Text:   l.Text,
		X:      start.X,
		Y:      start.Y,
		Angle:  math.Atan2(start.Y-end.Y, start.X-end.X),
		Angled: true,
		Font:   th.LinkFont,
		Color:  color,
		Caret:  st.caretFor(l, false),
	})

	render.DrawArrow(s, end.X, end.Y, math.Atan2(-l.DeltaY, -l.DeltaX), color)
}

func (l *StartLink) ContainsPoint(x, y, pad float64) bool {
	if l.Node == nil {
		return false
	}
	start, end := l.EndPoints()
	return segmentContains(start, end, x, y, pad)
}

// TransientLink is the arrow shown while a link is being dragged out to
// no target. It never enters a document.
type TransientLink struct {
	From, To geom.Point
}

func (*TransientLink) edge()          {}
func (*TransientLink) Kind() LinkKind { return KindTransient }

func (*TransientLink) IsConnectedTo(*Node) bool { return false }

func (*TransientLink) ContainsPoint(x, y, pad float64) bool { return false }

// SetAnchorPoint moves the arrow head.
func (l *TransientLink) SetAnchorPoint(x, y, _ float64) {
	l.To = geom.Point{X: x, Y: y}
}

func (l *TransientLink) Draw(s render.Surface, st *DrawState) {
	color := st.theme().Foreground
	s.BeginPath()
	s.MoveTo(l.To.X, l.To.Y)
	s.LineTo(l.From.X, l.From.Y)
	s.Stroke(render.Style{Color: color, LineWidth: st.theme().LinkWidth})

	render.DrawArrow(s, l.To.X, l.To.Y, math.Atan2(l.To.Y-l.From.Y, l.To.X-l.From.X), color)
}
