package tinypng

import (
	"image/color"

	"github.com/deepteams/tinypng/internal/container"
)

// MaxPaletteSize is the largest number of entries a PLTE chunk can hold.
const MaxPaletteSize = 256

// Color is one palette entry.
type Color struct {
	R, G, B uint8
}

// NewColor returns a palette entry, rejecting components outside 0-255.
func NewColor(r, g, b int) (Color, error) {
	for _, v := range [...]int{r, g, b} {
		if v < 0 || v > 255 {
			return Color{}, notValidf("tinypng: color component %d (must be 0-255)", v)
		}
	}
	return Color{R: uint8(r), G: uint8(g), B: uint8(b)}, nil
}

// Palette is an immutable list of up to 256 RGB colors referenced by the
// pixels of an indexed image. A *Palette may be shared freely.
type Palette struct {
	colors []Color
}

// NewPalette copies colors into a new Palette.
func NewPalette(colors []Color) (*Palette, error) {
	if len(colors) > MaxPaletteSize {
		return nil, notValidf("tinypng: palette of %d colors (at most %d)", len(colors), MaxPaletteSize)
	}
	return &Palette{colors: append([]Color(nil), colors...)}, nil
}

// PaletteFromColors builds a Palette from a standard-library palette.
// Alpha is discarded; colors are un-premultiplied first.
func PaletteFromColors(p color.Palette) (*Palette, error) {
	if len(p) > MaxPaletteSize {
		return nil, notValidf("tinypng: palette of %d colors (at most %d)", len(p), MaxPaletteSize)
	}
	colors := make([]Color, len(p))
	for i, c := range p {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		colors[i] = Color{R: n.R, G: n.G, B: n.B}
	}
	return NewPalette(colors)
}

// Len returns the number of entries.
func (p *Palette) Len() int {
	if p == nil {
		return 0
	}
	return len(p.colors)
}

// At returns entry i.
func (p *Palette) At(i int) (Color, error) {
	if i < 0 || i >= p.Len() {
		return Color{}, notValidf("tinypng: palette index %d of %d", i, p.Len())
	}
	return p.colors[i], nil
}

// Bytes returns the PLTE payload: R, G and B bytes per entry.
func (p *Palette) Bytes() []byte {
	if p == nil {
		return nil
	}
	out := make([]byte, 0, container.PaletteEntry*p.Len())
	for _, c := range p.colors {
		out = append(out, c.R, c.G, c.B)
	}
	return out
}

// Equal reports whether p and q hold the same colors in the same order.
// Two nil palettes are equal.
func (p *Palette) Equal(q *Palette) bool {
	if p == nil || q == nil {
		return p == q
	}
	if len(p.colors) != len(q.colors) {
		return false
	}
	for i := range p.colors {
		if p.colors[i] != q.colors[i] {
			return false
		}
	}
	return true
}
