package designer

import (
	"context"
	"testing"
	"time"

	"github.com/ha1tch/fsm-designer/pkg/config"
	"github.com/ha1tch/fsm-designer/pkg/diagram"
	"github.com/ha1tch/fsm-designer/pkg/render"
	"github.com/ha1tch/fsm-designer/pkg/store"
)

type clock struct{ t time.Time }

func newClock() *clock { return &clock{t: time.Unix(1000, 0)} }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

// twoNodes returns a designer with nodes at (100,100) and (300,100).
func twoNodes(t *testing.T, opts ...Option) *Designer {
	t.Helper()
	d := New(opts...)
	d.DoubleClick(100, 100)
	d.DoubleClick(300, 100)
	if n := len(d.Document().Nodes); n != 2 {
		t.Fatalf("got %d nodes, want 2", n)
	}
	return d
}

func TestDoubleClickCreatesNode(t *testing.T) {
	d := New()
	d.DoubleClick(50, 60)

	doc := d.Document()
	if len(doc.Nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(doc.Nodes))
	}
	if doc.Selected() != diagram.Entity(doc.Nodes[0]) {
		t.Errorf("new node should be selected")
	}
	if !d.Undo() || len(doc.Nodes) != 0 {
		t.Errorf("undo should remove the node")
	}
	if !d.Redo() || len(doc.Nodes) != 1 {
		t.Errorf("redo should bring the node back")
	}
}

func TestDoubleClickNodeEntersOutputMode(t *testing.T) {
	d := New()
	d.DoubleClick(50, 60)
	d.DoubleClick(50, 60)
	if !d.Document().OutputMode() {
		t.Fatal("expected output mode")
	}
	d.TypeRune('z')
	if got := d.Document().Nodes[0].Outputs; got != "z" {
		t.Errorf("outputs = %q, want z", got)
	}
	if got := d.Document().Nodes[0].Text; got != "" {
		t.Errorf("text = %q, want empty", got)
	}
}

func TestDrawLinkBetweenNodes(t *testing.T) {
	d := twoNodes(t)
	d.SetCreateMode(true)

	d.MouseDown(100, 100)
	if _, ok := d.Document().Current().(*diagram.SelfLink); !ok {
		t.Fatalf("press on a node in create mode: current = %T, want *SelfLink", d.Document().Current())
	}
	d.MouseMove(200, 300)
	if _, ok := d.Document().Current().(*diagram.TransientLink); !ok {
		t.Fatalf("over empty space: current = %T, want *TransientLink", d.Document().Current())
	}
	d.MouseMove(300, 100)
	if _, ok := d.Document().Current().(*diagram.Link); !ok {
		t.Fatalf("over another node: current = %T, want *Link", d.Document().Current())
	}
	d.MouseUp(300, 100)

	doc := d.Document()
	if len(doc.Links) != 1 {
		t.Fatalf("got %d links, want 1", len(doc.Links))
	}
	if doc.Current() != nil {
		t.Errorf("current link should be cleared")
	}
	if doc.Selected() != diagram.Entity(doc.Links[0]) {
		t.Errorf("new link should be selected")
	}

	d.Undo()
	if len(doc.Links) != 0 || len(doc.Nodes) != 2 {
		t.Errorf("undo: got %d nodes %d links, want 2 nodes 0 links", len(doc.Nodes), len(doc.Links))
	}
}

func TestDrawSelfLink(t *testing.T) {
	d := twoNodes(t)
	d.SetCreateMode(true)
	d.MouseDown(100, 100)
	d.MouseMove(100, 60) // still inside the node, above center
	d.MouseUp(100, 60)

	links := d.Document().Links
	if len(links) != 1 {
		t.Fatalf("got %d links, want 1", len(links))
	}
	sl, ok := links[0].(*diagram.SelfLink)
	if !ok {
		t.Fatalf("got %T, want *SelfLink", links[0])
	}
	if sl.AnchorAngle != -1.5707963267948966 {
		t.Errorf("anchor angle = %v, want -π/2", sl.AnchorAngle)
	}
}

func TestDrawStartLink(t *testing.T) {
	d := twoNodes(t)
	d.SetCreateMode(true)
	d.MouseDown(500, 500)
	if _, ok := d.Document().Current().(*diagram.TransientLink); !ok {
		t.Fatalf("press on empty space: current = %T, want *TransientLink", d.Document().Current())
	}
	d.MouseMove(100, 100)
	d.MouseUp(100, 100)

	links := d.Document().Links
	if len(links) != 1 {
		t.Fatalf("got %d links, want 1", len(links))
	}
	sl, ok := links[0].(*diagram.StartLink)
	if !ok {
		t.Fatalf("got %T, want *StartLink", links[0])
	}
	if sl.DeltaX != 400 || sl.DeltaY != 400 {
		t.Errorf("delta = (%v, %v), want (400, 400)", sl.DeltaX, sl.DeltaY)
	}
}

func TestDroppedTransientLinkIsDiscarded(t *testing.T) {
	d := twoNodes(t)
	d.SetCreateMode(true)
	d.MouseDown(100, 100)
	d.MouseMove(100, 400)
	d.MouseUp(100, 400)

	if n := len(d.Document().Links); n != 0 {
		t.Errorf("got %d links, want 0", n)
	}
	// The only recorded steps are the two node creations.
	d.Undo()
	d.Undo()
	if d.CanUndo() {
		t.Errorf("a discarded link should not add an undo step")
	}
}

func TestDragNodeSnaps(t *testing.T) {
	d := New()
	d.DoubleClick(100, 100)
	d.DoubleClick(300, 210)

	d.MouseDown(110, 100)
	if !d.Moving() {
		t.Fatal("expected a drag")
	}
	d.MouseMove(210, 205)
	d.MouseUp(210, 205)

	n := d.Document().Nodes[0]
	if n.X != 200 || n.Y != 210 {
		t.Errorf("node at (%v, %v), want (200, 210)", n.X, n.Y)
	}
	if d.Moving() {
		t.Errorf("mouse up should end the drag")
	}

	d.Undo()
	n = d.Document().Nodes[0]
	if n.X != 100 || n.Y != 100 {
		t.Errorf("after undo node at (%v, %v), want (100, 100)", n.X, n.Y)
	}
}

func TestCascadeDeleteIsOneUndoStep(t *testing.T) {
	d := twoNodes(t)
	d.SetCreateMode(true)
	d.MouseDown(100, 100)
	d.MouseMove(300, 100)
	d.MouseUp(300, 100)
	d.MouseDown(100, 100)
	d.MouseUp(100, 100)
	d.SetCreateMode(false)

	before, _ := d.Backup().JSON(false)

	d.MouseDown(100, 100)
	d.MouseUp(100, 100)
	if !d.DeleteSelected() {
		t.Fatal("delete reported nothing deleted")
	}
	doc := d.Document()
	if len(doc.Nodes) != 1 || len(doc.Links) != 0 {
		t.Fatalf("after delete: %d nodes %d links, want 1 and 0", len(doc.Nodes), len(doc.Links))
	}

	d.Undo()
	after, _ := d.Backup().JSON(false)
	if string(after) != string(before) {
		t.Errorf("one undo should restore the whole cascade:\n got %s\nwant %s", after, before)
	}
}

func TestTypingBurstIsOneUndoStep(t *testing.T) {
	c := newClock()
	d := New(WithClock(c.now))
	d.DoubleClick(100, 100)

	for _, r := range "q_0" {
		d.TypeRune(r)
		c.advance(500 * time.Millisecond)
	}
	n := d.Document().Nodes[0]
	if n.Text != "q_0" {
		t.Fatalf("text = %q, want q_0", n.Text)
	}

	c.advance(3 * time.Second)
	d.TypeRune('1')

	d.Undo()
	if got := d.Document().Nodes[0].Text; got != "q_0" {
		t.Errorf("first undo: text = %q, want q_0", got)
	}
	d.Undo()
	if got := d.Document().Nodes[0].Text; got != "" {
		t.Errorf("second undo: text = %q, want empty", got)
	}
}

func TestTypeRuneRejects(t *testing.T) {
	d := New()
	if d.TypeRune('a') {
		t.Errorf("typing without a selection should be rejected")
	}
	d.DoubleClick(0, 0)
	for _, r := range []rune{'\n', 0x7F, 'λ'} {
		if d.TypeRune(r) {
			t.Errorf("rune %q should be rejected", r)
		}
	}
}

func TestBackspace(t *testing.T) {
	d := New()
	d.DoubleClick(0, 0)
	d.TypeRune('a')
	d.TypeRune('b')
	d.Backspace()
	if got := d.Document().Nodes[0].Text; got != "a" {
		t.Errorf("text = %q, want a", got)
	}
	d.Backspace()
	d.Backspace()
	if got := d.Document().Nodes[0].Text; got != "" {
		t.Errorf("text = %q, want empty", got)
	}
}

func TestToggleAccept(t *testing.T) {
	d := New()
	if d.ToggleAccept() {
		t.Errorf("toggle without a node selected should do nothing")
	}
	d.DoubleClick(0, 0)
	d.ToggleAccept()
	if !d.Document().Nodes[0].IsAcceptState {
		t.Errorf("node should be an accept state")
	}
	d.Undo()
	if d.Document().Nodes[0].IsAcceptState {
		t.Errorf("undo should clear the accept flag")
	}
}

func TestClearAndLoad(t *testing.T) {
	d := twoNodes(t)
	d.Clear()
	if len(d.Document().Nodes) != 0 {
		t.Fatal("clear left nodes behind")
	}
	d.Undo()
	if len(d.Document().Nodes) != 2 {
		t.Errorf("undo after clear: got %d nodes, want 2", len(d.Document().Nodes))
	}

	if err := d.LoadJSON([]byte("not json")); err == nil {
		t.Errorf("expected a parse error")
	}
	if err := d.LoadJSON([]byte(`{"nodes":[{"x":1,"y":2,"text":"s","outputs":"","isAcceptState":false,"radius":30}],"links":[]}`)); err != nil {
		t.Fatal(err)
	}
	if n := d.Document().Nodes; len(n) != 1 || n[0].Radius != 30 {
		t.Errorf("load: got %+v", n)
	}
}

func TestAutosaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	d := twoNodes(t, WithStore(mem, "slot"))
	d.Draw(ctx, render.NewSVGSurface(800, 600))

	if _, err := mem.Get(ctx, "slot"); err != nil {
		t.Fatalf("autosave slot: %v", err)
	}

	restored := New(WithStore(mem, "slot"))
	restored.RestoreAutosave(ctx)
	if n := len(restored.Document().Nodes); n != 2 {
		t.Errorf("restored %d nodes, want 2", n)
	}
	if restored.CanUndo() {
		t.Errorf("restoring the autosave should not record an undo step")
	}
}

func TestRestoreMalformedAutosave(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	mem.Set(ctx, "fsm", []byte("{broken"))

	d := New(WithStore(mem, ""))
	d.RestoreAutosave(ctx)
	if n := len(d.Document().Nodes); n != 0 {
		t.Errorf("got %d nodes, want an empty document", n)
	}
}

func TestCaretBlink(t *testing.T) {
	c := newClock()
	d := New(WithClock(c.now))

	if d.Blink() {
		t.Errorf("blink before the interval elapsed")
	}
	c.advance(DefaultCaretBlink)
	if !d.Blink() || d.CaretVisible() {
		t.Errorf("caret should hide after one interval")
	}
	d.ResetCaret()
	if !d.CaretVisible() {
		t.Errorf("reset should show the caret")
	}
	c.advance(DefaultCaretBlink / 2)
	if d.Blink() {
		t.Errorf("reset should restart the interval")
	}
}

func TestWithConfig(t *testing.T) {
	cfg := config.Default().Designer
	cfg.NodeRadius = 30
	cfg.SnapPadding = 5
	cfg.UndoHistory = 2

	d := New(WithConfig(cfg))
	for i := 0; i < 5; i++ {
		d.DoubleClick(float64(i*200), 0)
	}
	if r := d.Document().Nodes[0].Radius; r != 30 {
		t.Errorf("radius = %v, want 30", r)
	}
	undos := 0
	for d.Undo() {
		undos++
	}
	if undos != 2 {
		t.Errorf("got %d undo steps, want 2", undos)
	}
}

func TestRegistry(t *testing.T) {
	redraws := 0
	count := OnRedraw(func(*Designer) { redraws++ })

	r := NewRegistry()
	a := r.Register(New(count))
	b := r.Register(New(count))
	if a == b {
		t.Fatal("ids should be unique")
	}
	r.RedrawAll()
	if redraws != 2 {
		t.Errorf("got %d redraws, want 2", redraws)
	}

	r.Unregister(a)
	if r.Len() != 1 {
		t.Errorf("len = %d, want 1", r.Len())
	}
	if _, ok := r.Get(a); ok {
		t.Errorf("unregistered designer still found")
	}
	if _, ok := r.Get(b); !ok {
		t.Errorf("registered designer not found")
	}
}
