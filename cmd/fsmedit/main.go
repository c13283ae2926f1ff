// Command fsmedit is a terminal editor for FSM designer diagrams.
//
// Double-click empty space to add a state and type to name it. Hold Shift
// (or press Tab to lock create mode) and drag to draw transitions, self
// loops and start arrows. The diagram is autosaved after every redraw.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/ha1tch/fsm-designer/pkg/config"
	"github.com/ha1tch/fsm-designer/pkg/designer"
	"github.com/ha1tch/fsm-designer/pkg/diagram"
	"github.com/ha1tch/fsm-designer/pkg/store"
	"github.com/ha1tch/fsm-designer/pkg/vhdl"
)

// doubleClickTime is the longest gap between two presses on the same cell
// that still counts as a double click.
const doubleClickTime = 400 * time.Millisecond

// MessageType for status messages
type MessageType int

const (
	MsgInfo    MessageType = iota // Informative, no flash
	MsgError                      // Errors, flash
	MsgSuccess                    // State changes, flash
	MsgWarning                    // Warnings, flash
)

// Editor binds one designer to a tcell screen.
type Editor struct {
	ctx      context.Context
	screen   tcell.Screen
	designer *designer.Designer
	registry *designer.Registry
	surface  *termSurface
	logger   *log.Logger
	now      func() time.Time

	exportPath string
	exportOpts diagram.ExportOptions
	vhdlPath   string
	vhdl       *vhdl.Client

	dirty      bool
	createLock bool

	// Mouse state
	leftDown      bool
	pendingDouble bool
	lastPress     time.Time
	lastPressCell [2]int

	message           string
	messageType       MessageType
	messageFlashStart int64 // Unix milliseconds when message was shown
	flashLive         bool
}

// vhdlResult is delivered to the event loop when a generation request
// finishes.
type vhdlResult struct {
	path string
	err  error
}

type options struct {
	configPath string
	exportPath string
	vhdlPath   string
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts options
	cmd := &cobra.Command{
		Use:          "fsmedit [file.json]",
		Short:        "Edit an FSM diagram in the terminal",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var file string
			if len(args) == 1 {
				file = args[0]
			}
			return run(cmd.Context(), opts, file)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "config file (default "+config.DefaultPath()+")")
	cmd.Flags().StringVarP(&opts.exportPath, "output", "o", "fsm.svg", "export path for ctrl-s (format from extension)")
	cmd.Flags().StringVar(&opts.vhdlPath, "vhdl-output", vhdl.Filename, "output path for ctrl-g")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")

	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, file string) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	logFile, logger := openLog(cfg, opts.verbose)
	if logFile != nil {
		defer logFile.Close()
	}

	theme, err := cfg.Theme.Build()
	if err != nil {
		return err
	}
	exportOpts, err := cfg.ExportOptions()
	if err != nil {
		return err
	}

	ed := &Editor{
		ctx:        ctx,
		registry:   designer.NewRegistry(),
		surface:    newTermSurface(theme.Foreground, theme.Background),
		logger:     logger,
		now:        time.Now,
		exportPath: opts.exportPath,
		exportOpts: exportOpts,
		vhdlPath:   opts.vhdlPath,
		vhdl:       vhdl.New(cfg.VHDL.URL, cfg.VHDL.Timeout(), vhdl.WithLogger(logger)),
		dirty:      true,
	}

	dopts := []designer.Option{
		designer.WithConfig(cfg.Designer),
		designer.WithTheme(theme),
		designer.WithLogger(logger),
		designer.OnRedraw(func(*designer.Designer) { ed.dirty = true }),
	}
	st, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		logger.Warn("autosave disabled", "err", err)
	} else {
		defer st.Close()
		dopts = append(dopts, designer.WithStore(st, cfg.Store.Key))
	}
	ed.designer = designer.New(dopts...)
	id := ed.registry.Register(ed.designer)
	defer ed.registry.Unregister(id)

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		if err := ed.designer.LoadJSON(data); err != nil {
			return fmt.Errorf("loading %s: %w", file, err)
		}
	} else {
		ed.designer.RestoreAutosave(ctx)
	}

	// Initialize screen
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	screen.EnableMouse()
	screen.Clear()
	ed.screen = screen

	ed.run()

	screen.Fini()
	return nil
}

// openLog writes logs to fsmedit.log in the config directory.
func openLog(cfg *config.Config, verbose bool) (*os.File, *log.Logger) {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = log.InfoLevel
	}
	if verbose {
		level = log.DebugLevel
	}

	var w io.Writer = io.Discard
	path := filepath.Join(config.Dir(), "fsmedit.log")
	var f *os.File
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
		f, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			w = f
		}
	}
	return f, log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

func (ed *Editor) run() {
	done := make(chan struct{})
	defer close(done)

	// Caret blink and message flash
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				ed.screen.PostEvent(tcell.NewEventInterrupt(nil))
			}
		}
	}()

	for {
		if ed.dirty {
			ed.draw()
			ed.screen.Show()
			ed.dirty = false
		}

		ev := ed.screen.PollEvent()
		switch ev := ev.(type) {
		case nil:
			return
		case *tcell.EventResize:
			ed.screen.Sync()
			ed.registry.RedrawAll()
		case *tcell.EventKey:
			if ed.handleKey(ev) {
				return
			}
		case *tcell.EventMouse:
			ed.handleMouse(ev)
		case *tcell.EventInterrupt:
			ed.handleInterrupt(ev)
		}
	}
}

func (ed *Editor) handleInterrupt(ev *tcell.EventInterrupt) {
	if res, ok := ev.Data().(vhdlResult); ok {
		if res.err != nil {
			ed.showMessage("VHDL: "+res.err.Error(), MsgError)
		} else {
			ed.showMessage("Wrote "+res.path, MsgSuccess)
		}
		return
	}

	ed.registry.BlinkAll()

	// One more frame after the flash ends restores the normal style.
	live := ed.flashing()
	if live || ed.flashLive {
		ed.dirty = true
	}
	ed.flashLive = live
}

func (ed *Editor) handleKey(ev *tcell.EventKey) bool {
	// Global shortcuts (Ctrl or Cmd on macOS)
	mod := ev.Modifiers()
	isCtrlOrCmd := func(key tcell.Key, r rune) bool {
		if ev.Key() == key {
			return true
		}
		// Cmd+key is reported as Meta+rune on some terminals
		if mod&tcell.ModMeta != 0 && ev.Rune() == r {
			return true
		}
		// Alt+key as fallback
		if mod&tcell.ModAlt != 0 && ev.Rune() == r {
			return true
		}
		return false
	}

	ed.clearFlash()
	ed.dirty = true
	d := ed.designer

	switch {
	case isCtrlOrCmd(tcell.KeyCtrlQ, 'q'), ev.Key() == tcell.KeyCtrlC:
		return true
	case isCtrlOrCmd(tcell.KeyCtrlZ, 'z'):
		if !d.Undo() {
			ed.showMessage("Nothing to undo", MsgWarning)
		}
		return false
	case isCtrlOrCmd(tcell.KeyCtrlY, 'y'):
		if !d.Redo() {
			ed.showMessage("Nothing to redo", MsgWarning)
		}
		return false
	case isCtrlOrCmd(tcell.KeyCtrlS, 's'):
		ed.export()
		return false
	case isCtrlOrCmd(tcell.KeyCtrlA, 'a'):
		if !d.ToggleAccept() {
			ed.showMessage("Select a state first", MsgWarning)
		}
		return false
	case isCtrlOrCmd(tcell.KeyCtrlG, 'g'):
		ed.generateVHDL()
		return false
	case isCtrlOrCmd(tcell.KeyCtrlN, 'n'):
		d.Clear()
		ed.showMessage("Cleared", MsgSuccess)
		return false
	}

	switch ev.Key() {
	case tcell.KeyTab:
		ed.createLock = !ed.createLock
		d.SetCreateMode(ed.createLock)
	case tcell.KeyEscape:
		ed.createLock = false
		d.SetCreateMode(false)
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		d.Backspace()
	case tcell.KeyDelete:
		d.DeleteSelected()
	case tcell.KeyRune:
		if mod&(tcell.ModCtrl|tcell.ModAlt|tcell.ModMeta) == 0 {
			d.TypeRune(ev.Rune())
		}
	}
	return false
}

// handleMouse turns button 1 transitions into designer gestures. The
// second press of a double click is delivered as a normal press, and
// DoubleClick follows its release.
func (ed *Editor) handleMouse(ev *tcell.EventMouse) {
	cx, cy := ev.Position()
	x, y := cellCenter(cx, cy)
	down := ev.Buttons()&tcell.Button1 != 0
	d := ed.designer

	switch {
	case down && !ed.leftDown:
		ed.leftDown = true
		d.SetCreateMode(ed.createLock || ev.Modifiers()&tcell.ModShift != 0)

		now := ed.now()
		cell := [2]int{cx, cy}
		ed.pendingDouble = cell == ed.lastPressCell && now.Sub(ed.lastPress) < doubleClickTime
		if ed.pendingDouble {
			ed.lastPress = time.Time{}
		} else {
			ed.lastPress = now
			ed.lastPressCell = cell
		}
		d.MouseDown(x, y)
	case down:
		d.MouseMove(x, y)
	case ed.leftDown:
		ed.leftDown = false
		d.MouseUp(x, y)
		if ed.pendingDouble {
			ed.pendingDouble = false
			d.DoubleClick(x, y)
		}
		d.SetCreateMode(ed.createLock)
	default:
		d.MouseMove(x, y)
	}
}

// export writes the diagram to the export path, choosing the format from
// its extension.
func (ed *Editor) export() {
	f, err := diagram.ParseFormat(filepath.Ext(ed.exportPath))
	if err != nil {
		ed.showMessage(err.Error(), MsgError)
		return
	}
	out, err := os.Create(ed.exportPath)
	if err != nil {
		ed.showMessage(err.Error(), MsgError)
		return
	}
	err = ed.designer.Export(out, f, ed.exportOpts)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		ed.logger.Error("export failed", "path", ed.exportPath, "err", err)
		ed.showMessage("Export failed: "+err.Error(), MsgError)
		return
	}
	ed.logger.Info("exported", "path", ed.exportPath, "format", f)
	ed.showMessage("Exported to "+ed.exportPath, MsgSuccess)
}

// generateVHDL posts a snapshot to the generator in the background; the
// result arrives as an interrupt event.
func (ed *Editor) generateVHDL() {
	b := ed.designer.Backup()
	path := ed.vhdlPath
	ed.showMessage("Generating VHDL...", MsgInfo)

	go func() {
		src, err := ed.vhdl.Generate(ed.ctx, b)
		if err == nil {
			err = os.WriteFile(path, src, 0o644)
		}
		if err != nil {
			ed.logger.Error("vhdl generation failed", "err", err)
		}
		ed.screen.PostEvent(tcell.NewEventInterrupt(vhdlResult{path: path, err: err}))
	}()
}

func (ed *Editor) showMessage(msg string, msgType MessageType) {
	ed.message = msg
	ed.messageType = msgType
	ed.messageFlashStart = ed.now().UnixMilli()
	ed.dirty = true
}

func (ed *Editor) clearFlash() {
	ed.message = ""
	ed.messageFlashStart = 0
}
