package main

import (
	"fmt"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"

	"github.com/ha1tch/fsm-designer/pkg/designer"
)

// Styles
var (
	styleDefault  = tcell.StyleDefault
	styleStatus   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
	styleCreate   = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow)
	styleMsgInfo  = tcell.StyleDefault.Foreground(tcell.ColorSilver).Background(tcell.ColorNavy)
	styleMsgError = tcell.StyleDefault.Foreground(tcell.ColorRed).Background(tcell.ColorNavy).Bold(true)
	styleMsgWarn  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Background(tcell.ColorNavy)
	styleHelp     = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// flashPeriod is how long a flashing message alternates, in milliseconds.
const flashPeriod = 500

func (ed *Editor) draw() {
	ed.screen.Clear()
	w, h := ed.screen.Size()

	ed.surface.Reset()
	ed.designer.Draw(ed.ctx, ed.surface)
	ed.surface.Flush(ed.screen, w, h-2)

	ed.drawStatusBar(w, h)
}

func (ed *Editor) drawStatusBar(w, h int) {
	y := h - 1

	for x := 0; x < w; x++ {
		ed.screen.SetContent(x, y, ' ', nil, styleStatus)
	}

	doc := ed.designer.Document()
	info := fmt.Sprintf("%d states, %d links", len(doc.Nodes), len(doc.Links))
	ed.drawString(1, y, info, styleStatus)

	modeStr := ed.modeString()
	modeStyle := styleStatus
	if ed.designer.Mode() == designer.Create {
		modeStyle = styleCreate
	}
	ed.drawString(w/2-len(modeStr)/2, y, modeStr, modeStyle)

	if ed.message != "" {
		style := styleMsgInfo
		switch ed.messageType {
		case MsgError:
			style = styleMsgError
		case MsgWarning:
			style = styleMsgWarn
		}
		if ed.flashing() && flashInverted(ed.now().UnixMilli()-ed.messageFlashStart) {
			style = style.Reverse(true)
		}
		ed.drawString(w-len(ed.message)-2, y, ed.message, style)
	}

	// Help bar
	y = h - 2
	for x := 0; x < w; x++ {
		ed.screen.SetContent(x, y, ' ', nil, styleDefault)
	}
	ed.drawString(1, y, ed.helpString(w-2), styleHelp)
}

// drawString writes s from column x, dropping what falls off screen.
func (ed *Editor) drawString(x, y int, s string, style tcell.Style) {
	w, _ := ed.screen.Size()
	for _, r := range s {
		if x >= w {
			return
		}
		if x >= 0 {
			ed.screen.SetContent(x, y, r, nil, style)
		}
		x++
	}
}

func (ed *Editor) modeString() string {
	mode := "POINTER"
	if ed.designer.Mode() == designer.Create {
		mode = "CREATE"
	}
	if ed.createLock {
		mode += " (locked)"
	}
	return mode
}

// helpKeys is ordered by priority; the help bar drops entries from the
// end until it fits.
var helpKeys = []string{
	"^Q quit",
	"^Z/^Y undo/redo",
	"dbl-click: state",
	"shift/tab+drag: arrow",
	"del: delete",
	"^A accept",
	"^S export",
	"^G vhdl",
	"^N clear",
}

// helpString returns the key help that fits in width columns.
func (ed *Editor) helpString(width int) string {
	if ed.designer.Document().OutputMode() {
		return "typing sets outputs | click elsewhere to leave"
	}
	help := ""
	for _, k := range helpKeys {
		next := k
		if help != "" {
			next = help + " | " + k
		}
		if utf8.RuneCountInString(next) > width {
			break
		}
		help = next
	}
	return help
}

// flashing reports whether the current message is inside its flash
// window.
func (ed *Editor) flashing() bool {
	if ed.message == "" || ed.messageFlashStart == 0 || !flashes(ed.messageType) {
		return false
	}
	elapsed := ed.now().UnixMilli() - ed.messageFlashStart
	return elapsed >= 0 && elapsed < flashPeriod
}

// flashes reports whether messages of type t flash when shown.
func flashes(t MessageType) bool {
	switch t {
	case MsgError, MsgSuccess, MsgWarning:
		return true
	}
	return false
}

// flashInverted gives the flash phase: normal, inverted, normal, inverted,
// in 125ms steps, then normal.
func flashInverted(elapsed int64) bool {
	if elapsed < 0 || elapsed >= flashPeriod {
		return false
	}
	phase := elapsed / (flashPeriod / 4)
	return phase == 1 || phase == 3
}
