package render

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Family selects one of the embedded Go fonts.
type Family int

const (
	Sans Family = iota // Go Regular
	Mono               // Go Mono
)

// Font is a family at a pixel size.
type Font struct {
	Family Family
	Size   float64
}

// CSSFamily returns a generic CSS font family for the font.
func (f Font) CSSFamily() string {
	if f.Family == Mono {
		return "monospace"
	}
	return "sans-serif"
}

func (f Font) String() string {
	return fmt.Sprintf("%gpx %s", f.Size, f.CSSFamily())
}

var (
	parseOnce sync.Once
	parsed    map[Family]*opentype.Font
)

func parsedFonts() map[Family]*opentype.Font {
	parseOnce.Do(func() {
		regular, err := opentype.Parse(goregular.TTF)
		if err != nil {
			panic(err) // should never happen with embedded font
		}
		mono, err := opentype.Parse(gomono.TTF)
		if err != nil {
			panic(err)
		}
		parsed = map[Family]*opentype.Font{Sans: regular, Mono: mono}
	})
	return parsed
}

// Fonts caches font faces per size. Faces are not safe for concurrent
// use, so every surface owns its own Fonts; the parsed font data is
// shared.
type Fonts struct {
	mu    sync.Mutex
	faces map[Font]font.Face
}

// NewFonts returns an empty face cache.
func NewFonts() *Fonts {
	return &Fonts{faces: make(map[Font]font.Face)}
}

// Face returns the face for f, creating it on first use.
func (fs *Fonts) Face(f Font) font.Face {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.faceLocked(f)
}

func (fs *Fonts) faceLocked(f Font) font.Face {
	if face, ok := fs.faces[f]; ok {
		return face
	}
	face, err := opentype.NewFace(parsedFonts()[f.Family], &opentype.FaceOptions{
		Size:    f.Size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		panic(err)
	}
	fs.faces[f] = face
	return face
}

// Measure returns the advance width of text in pixels.
func (fs *Fonts) Measure(text string, f Font) float64 {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	adv := font.MeasureString(fs.faceLocked(f), text)
	return float64(adv) / 64
}
