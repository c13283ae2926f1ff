// Package designer turns pointer and keyboard gestures into edits of a
// diagram document, with undo, a blinking caret and autosave.
package designer

import (
	"context"
	"errors"
	"io"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/ha1tch/fsm-designer/pkg/config"
	"github.com/ha1tch/fsm-designer/pkg/diagram"
	"github.com/ha1tch/fsm-designer/pkg/geom"
	"github.com/ha1tch/fsm-designer/pkg/history"
	"github.com/ha1tch/fsm-designer/pkg/render"
	"github.com/ha1tch/fsm-designer/pkg/store"
)

// Mode is the pointer behavior.
type Mode int

const (
	// Pointer selects and drags.
	Pointer Mode = iota
	// Create draws links from a press-drag (shift held in most front ends).
	Create
)

func (m Mode) String() string {
	if m == Create {
		return "create"
	}
	return "pointer"
}

// DefaultCaretBlink is the caret blink interval.
const DefaultCaretBlink = 500 * time.Millisecond

// Designer owns one document and its editing state. It is not safe for
// concurrent use; front ends call it from their event loop.
type Designer struct {
	doc   *diagram.Document
	hist  *history.Engine[*diagram.Backup]
	burst *history.Burst

	mode          Mode
	moving        bool
	originalClick geom.Point

	theme      *diagram.Theme
	nodeRadius float64
	undoLimit  int

	caretOn    bool
	caretSince time.Time
	caretBlink time.Duration
	now        func() time.Time

	store  store.Store
	key    string
	logger *log.Logger

	onRedraw func(*Designer)
}

// Option configures a Designer.
type Option func(*Designer)

// WithConfig applies the designer section of the config file.
func WithConfig(c config.DesignerConfig) Option {
	return func(d *Designer) {
		if c.SnapPadding > 0 {
			d.doc.SnapPadding = c.SnapPadding
		}
		if c.HitPadding > 0 {
			d.doc.HitPadding = c.HitPadding
		}
		if c.NodeRadius > 0 {
			d.nodeRadius = c.NodeRadius
		}
		if c.UndoHistory > 0 {
			d.undoLimit = c.UndoHistory
		}
		if c.TextUndoDelayMS > 0 {
			d.burst.Delay = c.TextUndoDelay()
		}
		if c.CaretBlinkMS > 0 {
			d.caretBlink = c.CaretBlink()
		}
	}
}

// WithTheme sets the drawing theme.
func WithTheme(t *diagram.Theme) Option {
	return func(d *Designer) { d.theme = t }
}

// WithStore enables autosave into s under key.
func WithStore(s store.Store, key string) Option {
	return func(d *Designer) {
		d.store = s
		if key != "" {
			d.key = key
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(d *Designer) { d.logger = l }
}

// WithClock replaces the wall clock used by the caret and typing bursts.
func WithClock(now func() time.Time) Option {
	return func(d *Designer) {
		d.now = now
		d.burst.Now = now
	}
}

// OnRedraw registers a callback run whenever the document needs to be
// drawn again.
func OnRedraw(fn func(*Designer)) Option {
	return func(d *Designer) { d.onRedraw = fn }
}

// New creates a designer over an empty document.
func New(opts ...Option) *Designer {
	d := &Designer{
		doc:        diagram.New(),
		burst:      history.NewBurst(history.DefaultBurstDelay),
		theme:      diagram.DefaultTheme(),
		nodeRadius: diagram.DefaultRadius,
		undoLimit:  history.DefaultLimit,
		caretOn:    true,
		caretBlink: DefaultCaretBlink,
		now:        time.Now,
		key:        "fsm",
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.hist = history.New(d.doc.Backup, d.doc.Restore, history.WithLimit[*diagram.Backup](d.undoLimit))
	d.caretSince = d.now()
	return d
}

// Document returns the edited document.
func (d *Designer) Document() *diagram.Document { return d.doc }

// Theme returns the drawing theme.
func (d *Designer) Theme() *diagram.Theme { return d.theme }

// Mode returns the pointer mode.
func (d *Designer) Mode() Mode { return d.mode }

// SetCreateMode switches between Create and Pointer.
func (d *Designer) SetCreateMode(on bool) {
	if on {
		d.mode = Create
	} else {
		d.mode = Pointer
	}
}

// Moving reports whether a drag is in progress.
func (d *Designer) Moving() bool { return d.moving }

// CanUndo reports whether Undo would change anything.
func (d *Designer) CanUndo() bool { return d.hist.CanUndo() }

// CanRedo reports whether Redo would change anything.
func (d *Designer) CanRedo() bool { return d.hist.CanRedo() }

// MouseDown selects what is under the pointer. In create mode a press on
// a node starts a self link and a press on empty space starts a free
// arrow; otherwise a press on an entity starts dragging it.
func (d *Designer) MouseDown(x, y float64) {
	sel := d.doc.PickAt(x, y)
	d.doc.Select(sel)
	d.moving = false
	d.burst.Reset()
	d.originalClick = geom.Point{X: x, Y: y}

	if sel != nil {
		if n, ok := sel.(*diagram.Node); ok && d.mode == Create {
			d.doc.SetCurrent(d.selfLink(n, x, y))
		} else {
			d.hist.CommitIfChanged()
			d.moving = true
			if dr, ok := sel.(diagram.Dragger); ok {
				dr.StartDrag(x, y)
			}
		}
		d.ResetCaret()
	} else if d.mode == Create {
		p := geom.Point{X: x, Y: y}
		d.doc.SetCurrent(&diagram.TransientLink{From: p, To: p})
	}
	d.redraw()
}

// MouseMove retargets the link being drawn, or drags the selection.
func (d *Designer) MouseMove(x, y float64) {
	mouse := geom.Point{X: x, Y: y}

	if d.doc.Current() != nil {
		target := d.doc.NodeAt(x, y)
		from, _ := d.doc.Selected().(*diagram.Node)

		var next diagram.Edge
		switch {
		case from == nil && target != nil:
			sl := diagram.NewStartLink(target)
			sl.SetAnchorPoint(d.originalClick.X, d.originalClick.Y, d.doc.SnapPadding)
			next = sl
		case from == nil:
			next = &diagram.TransientLink{From: d.originalClick, To: mouse}
		case target == from:
			next = d.selfLink(from, x, y)
		case target != nil:
			next = diagram.NewLink(from, target)
		default:
			next = &diagram.TransientLink{From: from.ClosestPointOnCircle(x, y), To: mouse}
		}
		d.doc.SetCurrent(next)
		d.redraw()
	}

	if d.moving {
		sel := d.doc.Selected()
		if sel == nil {
			d.moving = false
			return
		}
		sel.SetAnchorPoint(x, y, d.doc.SnapPadding)
		if n, ok := sel.(*diagram.Node); ok {
			d.doc.SnapNode(n)
		}
		d.redraw()
	}
}

// MouseUp ends a drag. A link being drawn to a real target is added to the
// document as one undo step and selected.
func (d *Designer) MouseUp(x, y float64) {
	d.moving = false

	cur := d.doc.Current()
	if cur == nil {
		return
	}
	if cur.Kind() != diagram.KindTransient {
		d.hist.CommitIfChanged()
		d.doc.AddLink(cur)
		d.doc.Select(cur)
		d.burst.Reset()
		d.ResetCaret()
	}
	d.doc.SetCurrent(nil)
	d.redraw()
}

// DoubleClick creates a node on empty space, or switches a node to output
// entry.
func (d *Designer) DoubleClick(x, y float64) {
	sel := d.doc.PickAt(x, y)
	d.doc.Select(sel)
	d.burst.Reset()

	switch sel.(type) {
	case nil:
		d.hist.CommitIfChanged()
		n := diagram.NewNode(x, y)
		n.Radius = d.nodeRadius
		d.doc.AddNode(n)
		d.doc.Select(n)
		d.ResetCaret()
	case *diagram.Node:
		d.doc.SetOutputMode(true)
	}
	d.redraw()
}

// TypeRune appends a printable ASCII character to the selected entity's
// text, or to a node's outputs in output mode. It reports whether the rune
// was accepted.
func (d *Designer) TypeRune(r rune) bool {
	if r < 0x20 || r > 0x7E {
		return false
	}
	field := d.textField()
	if field == nil {
		return false
	}
	d.textUndoStep()
	*field += string(r)
	d.ResetCaret()
	d.redraw()
	return true
}

// Backspace removes the last character of the field being edited.
func (d *Designer) Backspace() bool {
	field := d.textField()
	if field == nil {
		return false
	}
	d.textUndoStep()
	if *field != "" {
		_, size := utf8.DecodeLastRuneInString(*field)
		*field = (*field)[:len(*field)-size]
	}
	d.ResetCaret()
	d.redraw()
	return true
}

func (d *Designer) textUndoStep() {
	if d.burst.Keystroke() {
		d.hist.CommitIfChanged()
	}
}

func (d *Designer) textField() *string {
	switch v := d.doc.Selected().(type) {
	case *diagram.Node:
		if d.doc.OutputMode() {
			return &v.Outputs
		}
		return &v.Text
	case *diagram.Link:
		return &v.Text
	case *diagram.SelfLink:
		return &v.Text
	case *diagram.StartLink:
		return &v.Text
	}
	return nil
}

// DeleteSelected removes the selection as a single undo step. Deleting a
// node takes its links with it.
func (d *Designer) DeleteSelected() bool {
	sel := d.doc.Selected()
	if sel == nil {
		return false
	}
	d.hist.CommitIfChanged()
	ok := d.doc.Delete(sel)
	d.redraw()
	return ok
}

// ToggleAccept flips the accept flag of the selected node.
func (d *Designer) ToggleAccept() bool {
	n, ok := d.doc.Selected().(*diagram.Node)
	if !ok {
		return false
	}
	d.hist.CommitIfChanged()
	n.IsAcceptState = !n.IsAcceptState
	d.redraw()
	return true
}

// Undo reverts the last committed change.
func (d *Designer) Undo() bool {
	d.burst.Reset()
	if !d.hist.Undo() {
		return false
	}
	d.moving = false
	d.redraw()
	return true
}

// Redo reapplies the last undone change.
func (d *Designer) Redo() bool {
	d.burst.Reset()
	if !d.hist.Redo() {
		return false
	}
	d.moving = false
	d.redraw()
	return true
}

// Clear empties the document as one undo step.
func (d *Designer) Clear() {
	d.hist.CommitIfChanged()
	d.doc.Clear()
	d.moving = false
	d.redraw()
}

// Load replaces the document with b as one undo step.
func (d *Designer) Load(b *diagram.Backup) {
	d.hist.CommitIfChanged()
	d.doc.Restore(b)
	d.moving = false
	d.redraw()
}

// LoadJSON parses a snapshot and loads it. Malformed input leaves the
// document untouched.
func (d *Designer) LoadJSON(data []byte) error {
	b, err := diagram.ParseBackup(data)
	if err != nil {
		return err
	}
	d.Load(b)
	return nil
}

// Backup returns a snapshot of the document.
func (d *Designer) Backup() *diagram.Backup { return d.doc.Backup() }

// RestoreAutosave loads the autosave slot without recording an undo step.
// A missing or malformed slot leaves an empty document.
func (d *Designer) RestoreAutosave(ctx context.Context) {
	if d.store == nil {
		return
	}
	data, err := d.store.Get(ctx, d.key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			d.logger.Debug("autosave restore failed", "key", d.key, "err", err)
		}
		return
	}
	b, err := diagram.ParseBackup(data)
	if err != nil {
		d.logger.Debug("autosave slot is malformed", "key", d.key, "err", err)
		d.doc.Clear()
		return
	}
	d.doc.Restore(b)
	d.logger.Debug("autosave restored", "nodes", len(b.Nodes), "links", len(b.Links))
}

// Autosave writes the document snapshot to the store. Failures are logged
// and otherwise ignored.
func (d *Designer) Autosave(ctx context.Context) {
	if d.store == nil {
		return
	}
	data, err := d.doc.Backup().JSON(false)
	if err == nil {
		err = d.store.Set(ctx, d.key, data)
	}
	if err != nil {
		d.logger.Debug("autosave failed", "key", d.key, "err", err)
	}
}

// Draw paints the document onto s, then autosaves.
func (d *Designer) Draw(ctx context.Context, s render.Surface) {
	d.doc.Draw(s, diagram.DrawOptions{Theme: d.theme, Caret: d.caretOn})
	d.Autosave(ctx)
}

// Export writes the document in format f with the selection hidden.
func (d *Designer) Export(w io.Writer, f diagram.Format, opts diagram.ExportOptions) error {
	if opts.Theme == nil {
		opts.Theme = d.theme
	}
	return d.doc.Export(w, f, opts)
}

// CaretVisible reports the caret blink phase.
func (d *Designer) CaretVisible() bool { return d.caretOn }

// ResetCaret shows the caret and restarts the blink interval.
func (d *Designer) ResetCaret() {
	d.caretOn = true
	d.caretSince = d.now()
}

// Blink toggles the caret if a blink interval has passed since the last
// toggle or reset. It reports whether the caret changed.
func (d *Designer) Blink() bool {
	now := d.now()
	if now.Sub(d.caretSince) < d.caretBlink {
		return false
	}
	d.caretOn = !d.caretOn
	d.caretSince = now
	d.redraw()
	return true
}

func (d *Designer) selfLink(n *diagram.Node, x, y float64) *diagram.SelfLink {
	l := diagram.NewSelfLink(n)
	l.SetAnchorPoint(x, y, d.doc.SnapPadding)
	return l
}

func (d *Designer) redraw() {
	if d.onRedraw != nil {
		d.onRedraw(d)
	}
}
