package diagram

import (
	"fmt"
	"strings"

	"github.com/ha1tch/fsm-designer/pkg/render"
)

// GenerateDOT converts the diagram to Graphviz DOT. Node positions are
// pinned with pos attributes (points, Y up), so `neato -n` reproduces the
// drawn layout while `dot` lays it out afresh.
func GenerateDOT(d *Document, title string) string {
	var sb strings.Builder

	sb.WriteString("digraph FSM {\n")
	sb.WriteString("    rankdir=LR;\n")
	sb.WriteString("    node [fontname=\"Helvetica\", fontsize=11];\n")
	sb.WriteString("    edge [fontname=\"Helvetica\", fontsize=10];\n")
	sb.WriteString("\n")

	if title != "" {
		sb.WriteString("    labelloc=\"t\";\n")
		sb.WriteString(fmt.Sprintf("    label=\"%s\";\n", escapeDOT(title)))
		sb.WriteString("\n")
	}

	ids := make(map[*Node]string, len(d.Nodes))
	for i, n := range d.Nodes {
		id := fmt.Sprintf("n%d", i)
		ids[n] = id

		shape := "circle"
		if n.IsAcceptState {
			shape = "doublecircle"
		}
		label := escapeDOT(render.ExpandShortcuts(n.Text))
		if n.Outputs != "" {
			label += "\\n/" + escapeDOT(render.ExpandShortcuts(n.Outputs))
		}
		sb.WriteString(fmt.Sprintf("    %s [shape=%s, label=\"%s\", pos=\"%s,%s!\"];\n",
			id, shape, label, dotNum(n.X), dotNum(-n.Y)))
	}
	sb.WriteString("\n")

	starts := 0
	for _, l := range d.Links {
		switch v := l.(type) {
		case *Link:
			a, okA := ids[v.A]
			b, okB := ids[v.B]
			if !okA || !okB {
				continue
			}
			sb.WriteString(fmt.Sprintf("    %s -> %s%s;\n", a, b, edgeLabel(v.Text)))
		case *SelfLink:
			id, ok := ids[v.Node]
			if !ok {
				continue
			}
			sb.WriteString(fmt.Sprintf("    %s -> %s%s;\n", id, id, edgeLabel(v.Text)))
		case *StartLink:
			id, ok := ids[v.Node]
			if !ok {
				continue
			}
			start := fmt.Sprintf("__start%d", starts)
			starts++
			sb.WriteString(fmt.Sprintf("    %s [shape=none, label=\"\", width=0, height=0];\n", start))
			sb.WriteString(fmt.Sprintf("    %s -> %s%s;\n", start, id, edgeLabel(v.Text)))
		}
	}

	sb.WriteString("}\n")

	return sb.String()
}

func edgeLabel(text string) string {
	if text == "" {
		return ""
	}
	return fmt.Sprintf(" [label=\"%s\"]", escapeDOT(render.ExpandShortcuts(text)))
}

func dotNum(v float64) string {
	s := strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
	if s == "-0" {
		return "0"
	}
	return s
}

func escapeDOT(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "<", "\\<")
	s = strings.ReplaceAll(s, ">", "\\>")
	return s
}
