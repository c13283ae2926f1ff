package diagram

import (
	"encoding/json"
	"errors"
	"reflect"
	"sort"
	"testing"

	"github.com/ha1tch/fsm-designer/pkg/render"
)

func sampleDocument() *Document {
	d := New()
	a := NewNode(123.456, 78.9)
	a.Text = `q_0`
	a.Outputs = "z=1"
	b := NewNode(400.25, 80)
	b.Text = `\alpha`
	b.IsAcceptState = true
	b.Radius = 40
	d.AddNode(a)
	d.AddNode(b)

	l := NewLink(a, b)
	l.Text = "x/1"
	l.SetAnchorPoint(260, 160.3, DefaultSnapPadding)
	d.AddLink(l)

	back := NewLink(b, a)
	back.LineAngleAdjust = 3.141592653589793
	d.AddLink(back)

	loop := NewSelfLink(b)
	loop.SetAnchorPoint(400, 0, DefaultSnapPadding)
	loop.Text = "y"
	d.AddLink(loop)

	start := NewStartLink(a)
	start.SetAnchorPoint(0, 78.9, DefaultSnapPadding)
	d.AddLink(start)
	return d
}

func TestBackupRoundTrip(t *testing.T) {
	d := sampleDocument()
	b := d.Backup()

	data, err := b.JSON(false)
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := ParseBackup(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(b, parsed) {
		t.Errorf("backup changed through JSON:\n got %+v\nwant %+v", parsed, b)
	}

	restored := FromBackup(parsed)
	if !reflect.DeepEqual(restored.Backup(), b) {
		t.Errorf("document changed through backup")
	}

	// Same drawing on the same backend.
	want := render.NewSVGSurface(800, 600)
	d.Draw(want, DrawOptions{HideSelection: true})
	got := render.NewSVGSurface(800, 600)
	restored.Draw(got, DrawOptions{HideSelection: true})
	if want.String() != got.String() {
		t.Errorf("restored document draws differently")
	}
}

func TestBackupTopology(t *testing.T) {
	d := sampleDocument()
	restored := FromBackup(d.Backup())

	if len(restored.Nodes) != 2 || len(restored.Links) != 4 {
		t.Fatalf("got %d nodes, %d links", len(restored.Nodes), len(restored.Links))
	}
	l := restored.Links[0].(*Link)
	if l.A != restored.Nodes[0] || l.B != restored.Nodes[1] {
		t.Errorf("link endpoints not resolved to the rebuilt nodes")
	}
	if restored.Links[2].(*SelfLink).Node != restored.Nodes[1] {
		t.Errorf("self link bound to wrong node")
	}
}

func TestLinkRecordJSONShape(t *testing.T) {
	tests := []struct {
		rec  LinkRecord
		keys []string
	}{
		{LinkRecord{Type: KindLink, NodeA: 0, NodeB: 1}, []string{"lineAngleAdjust", "nodeA", "nodeB", "parallelPart", "perpendicularPart", "text", "type"}},
		{LinkRecord{Type: KindSelfLink, Node: 1}, []string{"anchorAngle", "node", "text", "type"}},
		{LinkRecord{Type: KindStartLink, Node: 0}, []string{"deltaX", "deltaY", "node", "text", "type"}},
	}
	for _, tt := range tests {
		data, err := json.Marshal(tt.rec)
		if err != nil {
			t.Fatal(err)
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatal(err)
		}
		var keys []string
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if !reflect.DeepEqual(keys, tt.keys) {
			t.Errorf("%s keys = %v, want %v", tt.rec.Type, keys, tt.keys)
		}
	}
}

func TestRestoreSkipsBadLinks(t *testing.T) {
	data := []byte(`{
		"nodes": [{"x": 1, "y": 2, "text": "a", "outputs": "", "isAcceptState": false, "radius": 55}],
		"links": [
			{"type": "Bogus", "node": 0},
			{"type": "Link", "nodeA": 0, "nodeB": 5, "text": ""},
			{"type": "StartLink", "node": -1, "text": ""},
			{"type": "SelfLink", "node": 0, "text": "ok", "anchorAngle": 1}
		]
	}`)
	d := LoadBackup(data)
	if len(d.Nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(d.Nodes))
	}
	if len(d.Links) != 1 {
		t.Fatalf("got %d links, want 1", len(d.Links))
	}
	if l, ok := d.Links[0].(*SelfLink); !ok || l.Text != "ok" {
		t.Errorf("unexpected surviving link %+v", d.Links[0])
	}
}

func TestRestoreSkipsLinksWithoutIndices(t *testing.T) {
	data := []byte(`{
		"nodes": [{"x": 1, "y": 2, "radius": 55}, {"x": 200, "y": 2, "radius": 55}],
		"links": [
			{"type": "Link", "nodeB": 1, "text": "no a"},
			{"type": "Link", "nodeA": 0, "text": "no b"},
			{"type": "SelfLink", "text": "no node", "anchorAngle": 1},
			{"type": "StartLink", "text": "no node", "deltaX": -80, "deltaY": 0},
			{"type": "Link", "nodeA": 1, "nodeB": 0, "text": "ok"}
		]
	}`)
	d := LoadBackup(data)
	if len(d.Links) != 1 {
		t.Fatalf("got %d links, want 1", len(d.Links))
	}
	l, ok := d.Links[0].(*Link)
	if !ok || l.Text != "ok" || l.A != d.Nodes[1] || l.B != d.Nodes[0] {
		t.Errorf("unexpected surviving link %+v", d.Links[0])
	}
}

func TestRestoreDefaultsMissingRadius(t *testing.T) {
	d := LoadBackup([]byte(`{"nodes": [{"x": 1, "y": 2}], "links": []}`))
	if d.Nodes[0].Radius != DefaultRadius {
		t.Errorf("radius = %v, want %v", d.Nodes[0].Radius, DefaultRadius)
	}
}

func TestParseBackupErrors(t *testing.T) {
	for _, in := range []string{"", "{", "[1,2]", `{"nodes": 3}`} {
		_, err := ParseBackup([]byte(in))
		if !errors.Is(err, ErrBadBackup) {
			t.Errorf("ParseBackup(%q) error = %v, want ErrBadBackup", in, err)
		}
		d := LoadBackup([]byte(in))
		if len(d.Nodes) != 0 || len(d.Links) != 0 {
			t.Errorf("LoadBackup(%q) should give an empty document", in)
		}
	}
}

func TestBackupSkipsForeignNodes(t *testing.T) {
	d := New()
	a := NewNode(0, 0)
	d.AddNode(a)
	d.AddLink(NewLink(a, NewNode(100, 0)))
	if got := len(d.Backup().Links); got != 0 {
		t.Errorf("got %d link records, want 0", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	b := sampleDocument().Backup()
	c := b.Clone()
	c.Nodes[0].Text = "changed"
	if b.Nodes[0].Text == "changed" {
		t.Errorf("Clone shares node records")
	}
}
