package main

import (
	"github.com/spf13/cobra"

	"github.com/ha1tch/fsm-designer/pkg/vhdl"
)

func (a *app) vhdlCommand() *cobra.Command {
	var (
		output string
		url    string
	)

	cmd := &cobra.Command{
		Use:   "vhdl [file]",
		Short: "Generate VHDL for a diagram through the generator service",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			b, err := a.loadInput(ctx, input)
			if err != nil {
				return err
			}
			if url == "" {
				url = a.cfg.VHDL.URL
			}

			client := vhdl.New(url, a.cfg.VHDL.Timeout(), vhdl.WithLogger(loggerFromContext(ctx)))
			out, err := client.Generate(ctx, b)
			if err != nil {
				return err
			}
			if output != "-" {
				loggerFromContext(ctx).Info("wrote", "file", output, "bytes", len(out))
			}
			return a.writeOutput(output, out)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", vhdl.Filename, `output file ("-" for stdout)`)
	cmd.Flags().StringVar(&url, "url", "", "generator endpoint (default from config)")
	return cmd
}
