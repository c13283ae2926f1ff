package diagram

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrBadBackup is returned when a snapshot cannot be decoded.
var ErrBadBackup = errors.New("malformed diagram backup")

// Backup is the plain snapshot of a document. Links refer to nodes by
// index, so two backups can be compared by value and sent over the wire.
type Backup struct {
	Nodes []NodeRecord `json:"nodes"`
	Links []LinkRecord `json:"links"`
}

// NodeRecord is one node in a Backup.
type NodeRecord struct {
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Text          string  `json:"text"`
	Outputs       string  `json:"outputs"`
	IsAcceptState bool    `json:"isAcceptState"`
	Radius        float64 `json:"radius"`
}

// LinkRecord is one link in a Backup. Which fields are meaningful depends
// on Type; JSON encoding writes only those.
type LinkRecord struct {
	Type LinkKind
	Text string

	Node         int // SelfLink, StartLink
	NodeA, NodeB int // Link

	LineAngleAdjust   float64
	ParallelPart      float64
	PerpendicularPart float64

	AnchorAngle float64

	DeltaX, DeltaY float64
}

type linkJSON struct {
	Type  LinkKind `json:"type"`
	NodeA int      `json:"nodeA"`
	NodeB int      `json:"nodeB"`
	Text  string   `json:"text"`

	LineAngleAdjust   float64 `json:"lineAngleAdjust"`
	ParallelPart      float64 `json:"parallelPart"`
	PerpendicularPart float64 `json:"perpendicularPart"`
}

type selfLinkJSON struct {
	Type        LinkKind `json:"type"`
	Node        int      `json:"node"`
	Text        string   `json:"text"`
	AnchorAngle float64  `json:"anchorAngle"`
}

type startLinkJSON struct {
	Type   LinkKind `json:"type"`
	Node   int      `json:"node"`
	Text   string   `json:"text"`
	DeltaX float64  `json:"deltaX"`
	DeltaY float64  `json:"deltaY"`
}

// anyLinkJSON accepts every field of every link shape.
type anyLinkJSON struct {
	Type              LinkKind `json:"type"`
	Node              int      `json:"node"`
	NodeA             int      `json:"nodeA"`
	NodeB             int      `json:"nodeB"`
	Text              string   `json:"text"`
	LineAngleAdjust   float64  `json:"lineAngleAdjust"`
	ParallelPart      float64  `json:"parallelPart"`
	PerpendicularPart float64  `json:"perpendicularPart"`
	AnchorAngle       float64  `json:"anchorAngle"`
	DeltaX            float64  `json:"deltaX"`
	DeltaY            float64  `json:"deltaY"`
}

func (r LinkRecord) MarshalJSON() ([]byte, error) {
	switch r.Type {
	case KindLink:
		return json.Marshal(linkJSON{
			Type:              r.Type,
			NodeA:             r.NodeA,
			NodeB:             r.NodeB,
			Text:              r.Text,
			LineAngleAdjust:   r.LineAngleAdjust,
			ParallelPart:      r.ParallelPart,
			PerpendicularPart: r.PerpendicularPart,
		})
	case KindSelfLink:
		return json.Marshal(selfLinkJSON{r.Type, r.Node, r.Text, r.AnchorAngle})
	case KindStartLink:
		return json.Marshal(startLinkJSON{r.Type, r.Node, r.Text, r.DeltaX, r.DeltaY})
	}
	return json.Marshal(r.wide())
}

// linkIndices tells a missing node index apart from index 0.
type linkIndices struct {
	Node  *int `json:"node"`
	NodeA *int `json:"nodeA"`
	NodeB *int `json:"nodeB"`
}

func (r *LinkRecord) UnmarshalJSON(data []byte) error {
	var a anyLinkJSON
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var idx linkIndices
	if err := json.Unmarshal(data, &idx); err != nil {
		return err
	}
	// A missing index becomes -1, which Restore skips as out of range.
	switch a.Type {
	case KindLink:
		a.NodeA = indexOr(idx.NodeA, -1)
		a.NodeB = indexOr(idx.NodeB, -1)
	case KindSelfLink, KindStartLink:
		a.Node = indexOr(idx.Node, -1)
	}
	*r = LinkRecord{
		Type:              a.Type,
		Text:              a.Text,
		Node:              a.Node,
		NodeA:             a.NodeA,
		NodeB:             a.NodeB,
		LineAngleAdjust:   a.LineAngleAdjust,
		ParallelPart:      a.ParallelPart,
		PerpendicularPart: a.PerpendicularPart,
		AnchorAngle:       a.AnchorAngle,
		DeltaX:            a.DeltaX,
		DeltaY:            a.DeltaY,
	}
	return nil
}

func indexOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func (r LinkRecord) wide() anyLinkJSON {
	return anyLinkJSON{
		Type:              r.Type,
		Node:              r.Node,
		NodeA:             r.NodeA,
		NodeB:             r.NodeB,
		Text:              r.Text,
		LineAngleAdjust:   r.LineAngleAdjust,
		ParallelPart:      r.ParallelPart,
		PerpendicularPart: r.PerpendicularPart,
		AnchorAngle:       r.AnchorAngle,
		DeltaX:            r.DeltaX,
		DeltaY:            r.DeltaY,
	}
}

// Backup captures the document as plain data. Links whose nodes are not
// in the document are left out.
func (d *Document) Backup() *Backup {
	b := &Backup{
		Nodes: make([]NodeRecord, 0, len(d.Nodes)),
		Links: make([]LinkRecord, 0, len(d.Links)),
	}
	index := make(map[*Node]int, len(d.Nodes))
	for i, n := range d.Nodes {
		index[n] = i
		b.Nodes = append(b.Nodes, NodeRecord{
			X:             n.X,
			Y:             n.Y,
			Text:          n.Text,
			Outputs:       n.Outputs,
			IsAcceptState: n.IsAcceptState,
			Radius:        n.Radius,
		})
	}
	lookup := func(n *Node) (int, bool) {
		i, ok := index[n]
		return i, ok
	}

	for _, l := range d.Links {
		switch v := l.(type) {
		case *Link:
			a, okA := lookup(v.A)
			bi, okB := lookup(v.B)
			if !okA || !okB {
				continue
			}
			b.Links = append(b.Links, LinkRecord{
				Type:              KindLink,
				NodeA:             a,
				NodeB:             bi,
				Text:              v.Text,
				LineAngleAdjust:   v.LineAngleAdjust,
				ParallelPart:      v.ParallelPart,
				PerpendicularPart: v.PerpendicularPart,
			})
		case *SelfLink:
			i, ok := lookup(v.Node)
			if !ok {
				continue
			}
			b.Links = append(b.Links, LinkRecord{
				Type:        KindSelfLink,
				Node:        i,
				Text:        v.Text,
				AnchorAngle: v.AnchorAngle,
			})
		case *StartLink:
			i, ok := lookup(v.Node)
			if !ok {
				continue
			}
			b.Links = append(b.Links, LinkRecord{
				Type:   KindStartLink,
				Node:   i,
				Text:   v.Text,
				DeltaX: v.DeltaX,
				DeltaY: v.DeltaY,
			})
		}
	}
	return b
}

// Restore replaces the document contents with b. Selection and the
// current link are cleared. Link records with an unknown type or a node
// index out of range are skipped.
func (d *Document) Restore(b *Backup) {
	d.Clear()
	if b == nil {
		return
	}
	for _, r := range b.Nodes {
		radius := r.Radius
		if radius <= 0 {
			radius = DefaultRadius
		}
		d.Nodes = append(d.Nodes, &Node{
			X:             r.X,
			Y:             r.Y,
			Radius:        radius,
			Text:          r.Text,
			Outputs:       r.Outputs,
			IsAcceptState: r.IsAcceptState,
		})
	}
	node := func(i int) *Node {
		if i < 0 || i >= len(d.Nodes) {
			return nil
		}
		return d.Nodes[i]
	}

	for _, r := range b.Links {
		switch r.Type {
		case KindLink:
			a, bn := node(r.NodeA), node(r.NodeB)
			if a == nil || bn == nil || a == bn {
				continue
			}
			d.Links = append(d.Links, &Link{
				A:                 a,
				B:                 bn,
				Text:              r.Text,
				ParallelPart:      r.ParallelPart,
				PerpendicularPart: r.PerpendicularPart,
				LineAngleAdjust:   r.LineAngleAdjust,
			})
		case KindSelfLink:
			n := node(r.Node)
			if n == nil {
				continue
			}
			d.Links = append(d.Links, &SelfLink{Node: n, AnchorAngle: r.AnchorAngle, Text: r.Text})
		case KindStartLink:
			n := node(r.Node)
			if n == nil {
				continue
			}
			d.Links = append(d.Links, &StartLink{Node: n, DeltaX: r.DeltaX, DeltaY: r.DeltaY, Text: r.Text})
		}
	}
}

// FromBackup builds a new document from b.
func FromBackup(b *Backup) *Document {
	d := New()
	d.Restore(b)
	return d
}

// ParseBackup decodes a JSON snapshot.
func ParseBackup(data []byte) (*Backup, error) {
	var b Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadBackup, err)
	}
	if b.Nodes == nil {
		b.Nodes = []NodeRecord{}
	}
	if b.Links == nil {
		b.Links = []LinkRecord{}
	}
	return &b, nil
}

// LoadBackup is ParseBackup followed by FromBackup. Malformed or empty
// input yields an empty document.
func LoadBackup(data []byte) *Document {
	b, err := ParseBackup(data)
	if err != nil {
		return New()
	}
	return FromBackup(b)
}

// JSON encodes the backup, indented when pretty is set.
func (b *Backup) JSON(pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(b, "", "  ")
	}
	return json.Marshal(b)
}

// Clone returns a deep copy of b.
func (b *Backup) Clone() *Backup {
	if b == nil {
		return nil
	}
	return &Backup{
		Nodes: append([]NodeRecord{}, b.Nodes...),
		Links: append([]LinkRecord{}, b.Links...),
	}
}
