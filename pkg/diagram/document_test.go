package diagram

import (
	"testing"
)

func TestPickAtPrefersNodes(t *testing.T) {
	d := New()
	n := NewNode(0, 0)
	d.AddNode(n)
	loop := NewSelfLink(n)
	d.AddLink(loop)

	// (41.25, 0) is on the loop circle and inside the node.
	if got := d.PickAt(41.25, 0); got != Entity(n) {
		t.Errorf("PickAt inside node = %T, want *Node", got)
	}
	if got := d.PickAt(82.5+41.25, 0); got != Entity(loop) {
		t.Errorf("PickAt on loop = %T, want *SelfLink", got)
	}
	if got := d.PickAt(500, 500); got != nil {
		t.Errorf("PickAt empty space = %T, want nil", got)
	}
	if d.NodeAt(82.5+41.25, 0) != nil {
		t.Errorf("NodeAt should ignore links")
	}
}

func TestPickAtTopmostFirst(t *testing.T) {
	d := New()
	first := NewNode(0, 0)
	second := NewNode(10, 0)
	d.AddNode(first)
	d.AddNode(second)
	if got := d.PickAt(5, 0); got != Entity(first) {
		t.Errorf("PickAt overlapping nodes should return the first in order")
	}
}

func TestDeleteNodeCascades(t *testing.T) {
	d := New()
	a, b, c := NewNode(0, 0), NewNode(200, 0), NewNode(400, 0)
	d.AddNode(a)
	d.AddNode(b)
	d.AddNode(c)
	ab := NewLink(a, b)
	bc := NewLink(b, c)
	d.AddLink(ab)
	d.AddLink(bc)
	d.Select(bc)

	if !d.DeleteNode(b) {
		t.Fatalf("DeleteNode reported node missing")
	}
	if len(d.Nodes) != 2 || d.Nodes[0] != a || d.Nodes[1] != c {
		t.Errorf("nodes after delete = %v", d.Nodes)
	}
	if len(d.Links) != 0 {
		t.Errorf("got %d links, want 0", len(d.Links))
	}
	if d.Selected() != nil {
		t.Errorf("selection should be cleared when the selected link is removed")
	}
	if d.DeleteNode(b) {
		t.Errorf("deleting twice should report false")
	}
}

func TestDeleteNodeDropsCurrentLink(t *testing.T) {
	tests := []struct {
		name    string
		current func(a, b *Node) Edge
		cleared bool
	}{
		{"link from deleted node", func(a, b *Node) Edge { return NewLink(a, b) }, true},
		{"link to deleted node", func(a, b *Node) Edge { return NewLink(b, a) }, true},
		{"self link", func(a, b *Node) Edge { return NewSelfLink(a) }, true},
		{"start link", func(a, b *Node) Edge { return NewStartLink(a) }, true},
		{"unrelated self link", func(a, b *Node) Edge { return NewSelfLink(b) }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New()
			a, b := NewNode(0, 0), NewNode(200, 0)
			d.AddNode(a)
			d.AddNode(b)
			d.SetCurrent(tt.current(a, b))

			d.DeleteNode(a)
			if got := d.Current() == nil; got != tt.cleared {
				t.Errorf("current cleared = %v, want %v", got, tt.cleared)
			}
		})
	}
}

func TestDeleteKeepsUnrelatedLinks(t *testing.T) {
	d := New()
	a, b, c := NewNode(0, 0), NewNode(200, 0), NewNode(400, 0)
	d.AddNode(a)
	d.AddNode(b)
	d.AddNode(c)
	ab := NewLink(a, b)
	start := NewStartLink(c)
	d.AddLink(ab)
	d.AddLink(start)
	d.Select(a)

	d.Delete(a)
	if len(d.Links) != 1 || d.Links[0] != Edge(start) {
		t.Errorf("links after delete = %v", d.Links)
	}
	if d.Selected() != nil {
		t.Errorf("selection should be cleared")
	}

	if !d.Delete(start) || len(d.Links) != 0 {
		t.Errorf("Delete(link) should remove it")
	}
}

func TestAddLinkIgnoresTransient(t *testing.T) {
	d := New()
	d.AddLink(&TransientLink{})
	if len(d.Links) != 0 {
		t.Errorf("transient links must not enter the document")
	}
}

func TestSnapNode(t *testing.T) {
	d := New()
	fixedNode := NewNode(100, 100)
	moving := NewNode(115, 300)
	d.AddNode(fixedNode)
	d.AddNode(moving)

	d.SnapNode(moving)
	if moving.X != 100 || moving.Y != 300 {
		t.Errorf("got (%v, %v), want (100, 300)", moving.X, moving.Y)
	}
}

func TestOutputModeNeedsNode(t *testing.T) {
	d := New()
	a, b := NewNode(0, 0), NewNode(200, 0)
	l := NewLink(a, b)
	d.AddNode(a)
	d.AddNode(b)
	d.AddLink(l)

	d.Select(l)
	d.SetOutputMode(true)
	if d.OutputMode() {
		t.Errorf("output mode should only apply to nodes")
	}
	d.Select(a)
	d.SetOutputMode(true)
	if !d.OutputMode() {
		t.Errorf("output mode should be on for a selected node")
	}
	d.Select(b)
	if d.OutputMode() {
		t.Errorf("changing selection should leave output mode")
	}
}

func TestBounds(t *testing.T) {
	d := New()
	if _, _, ok := d.Bounds(); ok {
		t.Errorf("empty document should have no bounds")
	}
	a := NewNode(100, 100)
	d.AddNode(a)
	start := NewStartLink(a)
	start.DeltaX = -200
	d.AddLink(start)

	minP, maxP, ok := d.Bounds()
	if !ok {
		t.Fatal("expected bounds")
	}
	if minP.X != -100 || minP.Y != 45 || maxP.X != 155 || maxP.Y != 155 {
		t.Errorf("bounds = %v %v", minP, maxP)
	}
}

func TestDrawHidesSelection(t *testing.T) {
	d := New()
	n := NewNode(0, 0)
	n.Text = "a"
	d.AddNode(n)
	d.Select(n)

	r := &recorder{}
	d.Draw(r, DrawOptions{Caret: true, HideSelection: true})
	for _, run := range r.runs {
		if run.Caret {
			t.Errorf("hidden selection should not draw a caret")
		}
	}
}
