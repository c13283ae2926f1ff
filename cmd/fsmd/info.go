package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ha1tch/fsm-designer/pkg/diagram"
	"github.com/ha1tch/fsm-designer/pkg/render"
)

func (a *app) infoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info [file]",
		Short: "Show diagram information",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			b, err := a.loadInput(cmd.Context(), input)
			if err != nil {
				return err
			}
			printInfo(a.stdout, diagram.FromBackup(b))
			return nil
		},
	}
}

func printInfo(w io.Writer, d *diagram.Document) {
	var links, loops, starts int
	var initial []string
	for _, l := range d.Links {
		switch v := l.(type) {
		case *diagram.Link:
			links++
		case *diagram.SelfLink:
			loops++
		case *diagram.StartLink:
			starts++
			initial = append(initial, stateName(d, v.Node))
		}
	}
	var accepting []string
	for _, n := range d.Nodes {
		if n.IsAcceptState {
			accepting = append(accepting, stateName(d, n))
		}
	}

	fmt.Fprintf(w, "States:      %d\n", len(d.Nodes))
	fmt.Fprintf(w, "Transitions: %d\n", links+loops)
	if loops > 0 {
		fmt.Fprintf(w, "Self loops:  %d\n", loops)
	}
	if starts > 0 {
		fmt.Fprintf(w, "Initial:     %s\n", strings.Join(initial, ", "))
	}
	if len(accepting) > 0 {
		fmt.Fprintf(w, "Accepting:   %s\n", strings.Join(accepting, ", "))
	}
	if minP, maxP, ok := d.Bounds(); ok {
		fmt.Fprintf(w, "Bounds:      (%.0f, %.0f) - (%.0f, %.0f)\n", minP.X, minP.Y, maxP.X, maxP.Y)
	}
}

// stateName returns the node label with shortcuts expanded, or its index.
func stateName(d *diagram.Document, n *diagram.Node) string {
	if n.Text != "" {
		return render.ExpandShortcuts(n.Text)
	}
	for i, other := range d.Nodes {
		if other == n {
			return fmt.Sprintf("#%d", i)
		}
	}
	return "?"
}
