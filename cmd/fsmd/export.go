package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ha1tch/fsm-designer/pkg/diagram"
)

type exportOpts struct {
	output  string
	formats string
	all     bool
	width   int
	height  int
	title   string
}

func (a *app) exportCommand() *cobra.Command {
	var opts exportOpts

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export a diagram to PNG, SVG, LaTeX, DOT or JSON",
		Long: `Export reads a diagram snapshot (a file, "-" for stdin, or the autosave
slot when no file is given) and writes it in one or more formats. With a
single format the output goes to --output or stdout; with several formats
(or --all) --output is a base path and each format gets its extension.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return a.runExport(cmd.Context(), input, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, or base path for several formats")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s), comma-separated: png, svg, tex, dot, json (default from --output extension, else svg)")
	cmd.Flags().BoolVar(&opts.all, "all", false, "export every format")
	cmd.Flags().IntVar(&opts.width, "width", 0, "image width (default from config)")
	cmd.Flags().IntVar(&opts.height, "height", 0, "image height (default from config)")
	cmd.Flags().StringVar(&opts.title, "title", "", "graph label for DOT output")
	return cmd
}

func (a *app) runExport(ctx context.Context, input string, opts exportOpts) error {
	logger := loggerFromContext(ctx)

	b, err := a.loadInput(ctx, input)
	if err != nil {
		return err
	}

	formats, err := a.exportFormats(opts)
	if err != nil {
		return err
	}

	exportOpts, err := a.cfg.ExportOptions()
	if err != nil {
		return err
	}
	if opts.width > 0 {
		exportOpts.Width = opts.width
	}
	if opts.height > 0 {
		exportOpts.Height = opts.height
	}
	exportOpts.Title = opts.title

	if len(formats) == 1 {
		var buf bytes.Buffer
		if err := diagram.FromBackup(b).Export(&buf, formats[0], exportOpts); err != nil {
			return err
		}
		return a.writeOutput(opts.output, buf.Bytes())
	}

	base := strings.TrimSuffix(opts.output, filepath.Ext(opts.output))
	if base == "" || base == "-" {
		base = "fsm"
	}

	start := time.Now()
	g, _ := errgroup.WithContext(ctx)
	for _, f := range formats {
		f := f
		g.Go(func() error {
			var buf bytes.Buffer
			if err := diagram.FromBackup(b).Export(&buf, f, exportOpts); err != nil {
				return fmt.Errorf("%s: %w", f, err)
			}
			path := base + f.Ext()
			if err := a.writeOutput(path, buf.Bytes()); err != nil {
				return err
			}
			logger.Info("wrote", "file", path, "bytes", buf.Len())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Debug("export finished", "formats", len(formats), "took", time.Since(start).Round(time.Millisecond))
	return nil
}

func (a *app) exportFormats(opts exportOpts) ([]diagram.Format, error) {
	if opts.all {
		return diagram.Formats, nil
	}
	if opts.formats != "" {
		formats, err := parseFormats(opts.formats)
		if err != nil {
			return nil, err
		}
		if len(formats) > 0 {
			return formats, nil
		}
	}
	if ext := filepath.Ext(opts.output); ext != "" {
		if f, err := diagram.ParseFormat(ext); err == nil {
			return []diagram.Format{f}, nil
		}
	}
	return []diagram.Format{diagram.FormatSVG}, nil
}
