package diagram

import (
	"math"

	"github.com/ha1tch/fsm-designer/pkg/geom"
	"github.com/ha1tch/fsm-designer/pkg/render"
)

// Entity is anything that can be picked and dragged: a *Node or an Edge.
type Entity interface {
	ContainsPoint(x, y, pad float64) bool
	SetAnchorPoint(x, y, snap float64)
}

// Dragger is implemented by entities that remember where a drag began so
// that the grab point, not the entity origin, follows the cursor.
type Dragger interface {
	StartDrag(x, y float64)
}

// Node is a state.
type Node struct {
	X, Y          float64
	Radius        float64
	Text          string
	Outputs       string // Moore outputs, drawn below the circle
	IsAcceptState bool

	offsetX, offsetY float64
}

// NewNode creates a node of the default radius centered on (x, y).
func NewNode(x, y float64) *Node {
	return &Node{X: x, Y: y, Radius: DefaultRadius}
}

// StartDrag records the offset between the cursor and the node center.
func (n *Node) StartDrag(x, y float64) {
	n.offsetX = n.X - x
	n.offsetY = n.Y - y
}

// MoveTo moves the node so the point grabbed by StartDrag sits at (x, y).
func (n *Node) MoveTo(x, y float64) {
	n.X = x + n.offsetX
	n.Y = y + n.offsetY
}

// SetAnchorPoint is MoveTo; sibling snapping is done by Document.SnapNode.
func (n *Node) SetAnchorPoint(x, y, _ float64) {
	n.MoveTo(x, y)
}

// ClosestPointOnCircle projects (x, y) onto the node's rim along the ray
// from the center. The center itself projects to angle zero.
func (n *Node) ClosestPointOnCircle(x, y float64) geom.Point {
	dx := x - n.X
	dy := y - n.Y
	scale := math.Hypot(dx, dy)
	if scale == 0 {
		return geom.Point{X: n.X + n.Radius, Y: n.Y}
	}
	return geom.Point{
		X: n.X + dx*n.Radius/scale,
		Y: n.Y + dy*n.Radius/scale,
	}
}

// ContainsPoint reports whether (x, y) is strictly inside the circle.
// Nodes are hit-tested without padding.
func (n *Node) ContainsPoint(x, y, _ float64) bool {
	dx := x - n.X
	dy := y - n.Y
	return dx*dx+dy*dy < n.Radius*n.Radius
}

// Center returns the node position.
func (n *Node) Center() geom.Point {
	return geom.Point{X: n.X, Y: n.Y}
}

// Draw renders the circle, the name, the outputs and the accept ring.
func (n *Node) Draw(s render.Surface, st *DrawState) {
	th := st.theme()
	selected := st.isSelected(n)

	fg := th.Foreground
	if selected && !st.OutputMode {
		fg = th.Selected
	}
	outColor := th.Output
	if selected && st.OutputMode {
		outColor = th.Selected
	}

	s.BeginPath()
	s.Arc(n.X, n.Y, n.Radius, 0, 2*math.Pi, false)
	s.Fill(render.Style{Color: th.Background})
	s.Stroke(render.Style{Color: fg, LineWidth: th.NodeOutline})

	render.DrawText(s, render.Label{
		Text:  n.Text,
		X:     n.X,
		Y:     n.Y,
		Font:  th.NodeFont,
		Color: fg,
		Caret: st.caretFor(n, false),
	})
	render.DrawText(s, render.Label{
		Text:  n.Outputs,
		X:     n.X,
		Y:     n.Y + n.Radius + th.OutputPadding,
		Font:  th.OutputFont,
		Color: outColor,
		Caret: st.caretFor(n, true),
	})

	if n.IsAcceptState {
		s.BeginPath()
		s.Arc(n.X, n.Y, n.Radius-6, 0, 2*math.Pi, false)
		s.Stroke(render.Style{Color: fg, LineWidth: th.NodeOutline})
	}
}
