package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ha1tch/fsm-designer/pkg/diagram"
)

func (a *app) autosaveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autosave",
		Short: "Inspect or replace the autosave slot",
	}
	cmd.AddCommand(a.autosaveShowCommand())
	cmd.AddCommand(a.autosavePutCommand())
	cmd.AddCommand(a.autosaveClearCommand())
	return cmd
}

func (a *app) autosaveShowCommand() *cobra.Command {
	var pretty bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the autosave slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			data, err := st.Get(ctx, a.cfg.Store.Key)
			if err != nil {
				return fmt.Errorf("autosave slot %q: %w", a.cfg.Store.Key, err)
			}
			if pretty {
				var buf bytes.Buffer
				if err := json.Indent(&buf, data, "", "  "); err == nil {
					data = buf.Bytes()
				}
			}
			return a.writeOutput("", append(data, '\n'))
		},
	}

	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "indent the JSON")
	return cmd
}

func (a *app) autosavePutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "put <file>",
		Short: "Replace the autosave slot with a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := a.readBackup(args[0])
			if err != nil {
				return err
			}
			data, err := b.JSON(false)
			if err != nil {
				return err
			}

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Set(ctx, a.cfg.Store.Key, data); err != nil {
				return err
			}
			loggerFromContext(ctx).Info("autosave replaced", "key", a.cfg.Store.Key,
				"nodes", len(b.Nodes), "links", len(b.Links))
			return nil
		},
	}
}

func (a *app) autosaveClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the autosave slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			empty, _ := (&diagram.Backup{Nodes: []diagram.NodeRecord{}, Links: []diagram.LinkRecord{}}).JSON(false)
			return st.Set(ctx, a.cfg.Store.Key, empty)
		},
	}
}
