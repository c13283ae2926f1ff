package diagram

import "github.com/ha1tch/fsm-designer/pkg/render"

// Default geometry, in pixels.
const (
	DefaultRadius      = 55
	DefaultSnapPadding = 20
	DefaultHitPadding  = 20
)

// Theme holds the colors and fonts entities draw with.
type Theme struct {
	Foreground render.Color
	Background render.Color
	Selected   render.Color
	Output     render.Color

	NodeFont   render.Font
	OutputFont render.Font
	LinkFont   render.Font

	NodeOutline   float64
	LinkWidth     float64
	OutputPadding float64
}

// DefaultTheme returns black-on-white with blue selection.
func DefaultTheme() *Theme {
	return &Theme{
		Foreground:    render.Black,
		Background:    render.White,
		Selected:      render.Blue,
		Output:        render.MustHex("#101010"),
		NodeFont:      render.Font{Family: render.Sans, Size: 16},
		OutputFont:    render.Font{Family: render.Mono, Size: 20},
		LinkFont:      render.Font{Family: render.Mono, Size: 16},
		NodeOutline:   2,
		LinkWidth:     1,
		OutputPadding: 14,
	}
}

// DrawState is threaded through every Draw call. It carries what the
// original canvas kept as ambient state: the theme, the selection, and
// whether the caret is currently shown.
type DrawState struct {
	Theme      *Theme
	Selected   Entity
	OutputMode bool
	Caret      bool
}

func (st *DrawState) theme() *Theme {
	if st == nil || st.Theme == nil {
		return DefaultTheme()
	}
	return st.Theme
}

func (st *DrawState) isSelected(e Entity) bool {
	return st != nil && st.Selected != nil && st.Selected == e
}

// linkColor returns the paint for a link-family entity.
func (st *DrawState) linkColor(e Entity) render.Color {
	if st.isSelected(e) {
		return st.theme().Selected
	}
	return st.theme().Foreground
}

func (st *DrawState) caretFor(e Entity, output bool) bool {
	return st.isSelected(e) && st.Caret && st.OutputMode == output
}
