package diagram

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ha1tch/fsm-designer/pkg/render"
)

// ErrUnknownFormat is returned for an export format this package does not
// produce.
var ErrUnknownFormat = errors.New("unknown export format")

// Format names an export format.
type Format string

const (
	FormatPNG   Format = "png"
	FormatSVG   Format = "svg"
	FormatLaTeX Format = "tex"
	FormatDOT   Format = "dot"
	FormatJSON  Format = "json"
)

// Formats lists every export format.
var Formats = []Format{FormatPNG, FormatSVG, FormatLaTeX, FormatDOT, FormatJSON}

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "png":
		return FormatPNG, nil
	case "svg":
		return FormatSVG, nil
	case "tex", "latex", "tikz":
		return FormatLaTeX, nil
	case "dot", "gv":
		return FormatDOT, nil
	case "json", "fsm":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Ext returns the usual file extension for the format, with the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatSVG:
		return "image/svg+xml"
	case FormatLaTeX:
		return "application/x-latex"
	case FormatDOT:
		return "text/vnd.graphviz"
	case FormatJSON:
		return "application/json"
	}
	return "application/octet-stream"
}

// ExportOptions sizes exported images.
type ExportOptions struct {
	Width, Height int
	LaTeXScale    float64
	Theme         *Theme
	Title         string // DOT graph label
}

// DefaultExportOptions returns an 800×600 canvas.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{Width: 800, Height: 600, LaTeXScale: render.DefaultLaTeXScale}
}

// Export writes the document in the given format. The selection is never
// highlighted in exports.
func (d *Document) Export(w io.Writer, f Format, opts ExportOptions) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		def := DefaultExportOptions()
		opts.Width, opts.Height = def.Width, def.Height
	}
	draw := DrawOptions{Theme: opts.Theme, HideSelection: true}

	switch f {
	case FormatPNG:
		s := render.NewPNGSurface(opts.Width, opts.Height)
		th := opts.Theme
		if th == nil {
			th = DefaultTheme()
		}
		s.Clear(th.Background)
		d.Draw(s, draw)
		if err := s.EncodePNG(w); err != nil {
			return fmt.Errorf("encoding png: %w", err)
		}
		return nil

	case FormatSVG:
		s := render.NewSVGSurface(opts.Width, opts.Height)
		d.Draw(s, draw)
		if _, err := s.WriteTo(w); err != nil {
			return fmt.Errorf("writing svg: %w", err)
		}
		return nil

	case FormatLaTeX:
		s := render.NewLaTeXSurface(opts.LaTeXScale)
		d.Draw(s, draw)
		if _, err := io.WriteString(w, s.Document()); err != nil {
			return fmt.Errorf("writing latex: %w", err)
		}
		return nil

	case FormatDOT:
		if _, err := io.WriteString(w, GenerateDOT(d, opts.Title)); err != nil {
			return fmt.Errorf("writing dot: %w", err)
		}
		return nil

	case FormatJSON:
		data, err := d.Backup().JSON(true)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("writing json: %w", err)
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}
