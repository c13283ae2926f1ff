// Package diagram holds the FSM diagram document: nodes, the link family,
// selection, hit-testing, and the plain snapshot format used for history,
// autosave and files.
package diagram

import (
	"math"

	"github.com/ha1tch/fsm-designer/pkg/geom"
	"github.com/ha1tch/fsm-designer/pkg/render"
)

// Document owns the nodes and links of one diagram. Slice order is the
// z-order for drawing and hit-testing.
//
// The selection and the current link are references into the document,
// never copies; removing an entity clears any reference to it. Undo
// commits are the caller's job, which lets a cascading delete be one step.
type Document struct {
	Nodes []*Node
	Links []Edge

	SnapPadding float64
	HitPadding  float64

	selected   Entity
	current    Edge
	outputMode bool
}

// New returns an empty document with default paddings.
func New() *Document {
	return &Document{
		SnapPadding: DefaultSnapPadding,
		HitPadding:  DefaultHitPadding,
	}
}

// PickAt returns the topmost entity at (x, y), or nil. Nodes win over
// links.
func (d *Document) PickAt(x, y float64) Entity {
	for _, n := range d.Nodes {
		if n.ContainsPoint(x, y, d.HitPadding) {
			return n
		}
	}
	for _, l := range d.Links {
		if l.ContainsPoint(x, y, d.HitPadding) {
			return l
		}
	}
	return nil
}

// NodeAt is PickAt restricted to nodes.
func (d *Document) NodeAt(x, y float64) *Node {
	if n, ok := d.PickAt(x, y).(*Node); ok {
		return n
	}
	return nil
}

// AddNode appends n on top of the existing nodes.
func (d *Document) AddNode(n *Node) {
	d.Nodes = append(d.Nodes, n)
}

// AddLink appends l. Transient links are never stored.
func (d *Document) AddLink(l Edge) {
	if _, ok := l.(*TransientLink); ok || l == nil {
		return
	}
	d.Links = append(d.Links, l)
}

// DeleteNode removes n and every link connected to it. It reports whether
// n was part of the document.
func (d *Document) DeleteNode(n *Node) bool {
	i := indexOf(d.Nodes, n)
	if i < 0 {
		return false
	}
	d.unref(n)
	d.Nodes = append(d.Nodes[:i], d.Nodes[i+1:]...)

	kept := d.Links[:0]
	for _, l := range d.Links {
		if l.IsConnectedTo(n) {
			d.unref(l)
			continue
		}
		kept = append(kept, l)
	}
	clear(d.Links[len(kept):])
	d.Links = kept
	return true
}

// DeleteLink removes l and reports whether it was part of the document.
func (d *Document) DeleteLink(l Edge) bool {
	i := indexOf(d.Links, l)
	if i < 0 {
		return false
	}
	d.unref(l)
	d.Links = append(d.Links[:i], d.Links[i+1:]...)
	return true
}

// Delete removes a node (with its links) or a link.
func (d *Document) Delete(e Entity) bool {
	switch v := e.(type) {
	case *Node:
		return d.DeleteNode(v)
	case Edge:
		return d.DeleteLink(v)
	}
	return false
}

func (d *Document) unref(e Entity) {
	if d.selected == e {
		d.selected = nil
		d.outputMode = false
	}
	if d.current == nil {
		return
	}
	if Entity(d.current) == e {
		d.current = nil
	} else if n, ok := e.(*Node); ok && d.current.IsConnectedTo(n) {
		d.current = nil
	}
}

// SnapNode aligns n with any other node whose x (or y) is within the snap
// padding.
func (d *Document) SnapNode(n *Node) {
	for _, other := range d.Nodes {
		if other == n {
			continue
		}
		if math.Abs(n.X-other.X) < d.SnapPadding {
			n.X = other.X
		}
		if math.Abs(n.Y-other.Y) < d.SnapPadding {
			n.Y = other.Y
		}
	}
}

// Select makes e the selected entity and leaves output mode.
func (d *Document) Select(e Entity) {
	d.selected = e
	d.outputMode = false
}

// Selected returns the selected entity, or nil.
func (d *Document) Selected() Entity { return d.selected }

// SetCurrent sets the in-progress link.
func (d *Document) SetCurrent(l Edge) { d.current = l }

// Current returns the in-progress link, or nil.
func (d *Document) Current() Edge { return d.current }

// SetOutputMode switches text entry to the selected node's outputs. It is
// ignored unless a node is selected.
func (d *Document) SetOutputMode(on bool) {
	if _, ok := d.selected.(*Node); !ok {
		on = false
	}
	d.outputMode = on
}

// OutputMode reports whether text entry targets the outputs field.
func (d *Document) OutputMode() bool { return d.outputMode }

// Clear removes everything.
func (d *Document) Clear() {
	d.Nodes = nil
	d.Links = nil
	d.selected = nil
	d.current = nil
	d.outputMode = false
}

// DrawOptions controls a single draw pass.
type DrawOptions struct {
	Theme         *Theme
	HideSelection bool // used by exports
	Caret         bool // caret blink phase
}

// Draw paints nodes, then links, then the in-progress link.
func (d *Document) Draw(s render.Surface, opts DrawOptions) {
	st := &DrawState{
		Theme:      opts.Theme,
		OutputMode: d.outputMode,
		Caret:      opts.Caret,
	}
	if st.Theme == nil {
		st.Theme = DefaultTheme()
	}
	if !opts.HideSelection {
		st.Selected = d.selected
	}

	s.Translate(0.5, 0.5)
	for _, n := range d.Nodes {
		n.Draw(s, st)
	}
	for _, l := range d.Links {
		l.Draw(s, st)
	}
	if d.current != nil {
		d.current.Draw(s, st)
	}
	s.Translate(-0.5, -0.5)
}

// Bounds returns the box enclosing every node circle, loop and start
// arrow tail. ok is false for an empty document.
func (d *Document) Bounds() (minP, maxP geom.Point, ok bool) {
	minP = geom.Point{X: math.Inf(1), Y: math.Inf(1)}
	maxP = geom.Point{X: math.Inf(-1), Y: math.Inf(-1)}
	grow := func(x, y, r float64) {
		minP.X = math.Min(minP.X, x-r)
		minP.Y = math.Min(minP.Y, y-r)
		maxP.X = math.Max(maxP.X, x+r)
		maxP.Y = math.Max(maxP.Y, y+r)
		ok = true
	}
	for _, n := range d.Nodes {
		grow(n.X, n.Y, n.Radius)
	}
	for _, l := range d.Links {
		switch v := l.(type) {
		case *SelfLink:
			c, _, _ := v.Loop()
			grow(c.X, c.Y, c.Radius)
		case *StartLink:
			if v.Node != nil {
				grow(v.Node.X+v.DeltaX, v.Node.Y+v.DeltaY, 0)
			}
		case *Link:
			p := v.AnchorPoint()
			grow(p.X, p.Y, 0)
		}
	}
	if !ok {
		return geom.Point{}, geom.Point{}, false
	}
	return minP, maxP, true
}

func indexOf[T comparable](s []T, v T) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
