package tinypng

import (
	"fmt"

	"github.com/juju/errors"
)

// BitDepth is the number of bits per sample, or per palette index for
// indexed images.
type BitDepth uint8

const (
	Depth1  BitDepth = 1
	Depth2  BitDepth = 2
	Depth4  BitDepth = 4
	Depth8  BitDepth = 8
	Depth16 BitDepth = 16
)

// BitDepths lists every bit depth PNG defines, in increasing order.
var BitDepths = [...]BitDepth{Depth1, Depth2, Depth4, Depth8, Depth16}

func (d BitDepth) index() int {
	switch d {
	case Depth1:
		return 0
	case Depth2:
		return 1
	case Depth4:
		return 2
	case Depth8:
		return 3
	case Depth16:
		return 4
	}
	return -1
}

// ColorType specifies how the samples of a pixel are arranged. The values
// are the color type codes stored in IHDR.
type ColorType uint8

const (
	Gray      ColorType = 0 // one gray sample
	RGB       ColorType = 2 // red, green, blue samples
	Indexed   ColorType = 3 // one palette index; a PLTE chunk is written
	GrayAlpha ColorType = 4 // gray sample followed by alpha
	RGBA      ColorType = 6 // red, green, blue followed by alpha
)

// ColorTypes lists every color type PNG defines, in code order.
var ColorTypes = [...]ColorType{Gray, RGB, Indexed, GrayAlpha, RGBA}

func (ct ColorType) index() int {
	switch ct {
	case Gray:
		return 0
	case RGB:
		return 1
	case Indexed:
		return 2
	case GrayAlpha:
		return 3
	case RGBA:
		return 4
	}
	return -1
}

// Samples returns the number of samples per pixel.
func (ct ColorType) Samples() int {
	switch ct {
	case Gray, Indexed:
		return 1
	case GrayAlpha:
		return 2
	case RGB:
		return 3
	case RGBA:
		return 4
	}
	return 0
}

// HasAlpha reports whether pixels of this color type carry an alpha sample.
func (ct ColorType) HasAlpha() bool {
	return ct == GrayAlpha || ct == RGBA
}

// String returns a human-readable color type name.
func (ct ColorType) String() string {
	switch ct {
	case Gray:
		return "gray"
	case RGB:
		return "rgb"
	case Indexed:
		return "indexed"
	case GrayAlpha:
		return "gray+alpha"
	case RGBA:
		return "rgba"
	default:
		return fmt.Sprintf("ColorType(%d)", uint8(ct))
	}
}

// legal[colorType][depth] reports whether PNG allows the combination. Rows
// follow ColorTypes, columns follow BitDepths.
var legal = [len(ColorTypes)][len(BitDepths)]bool{
	//         1      2      4      8      16
	/* gray */ {true, true, true, true, true},
	/* rgb  */ {false, false, false, true, true},
	/* idx  */ {true, true, true, true, false},
	/* ga   */ {false, false, false, true, true},
	/* rgba */ {false, false, false, true, true},
}

// Legal reports whether PNG allows samples of depth d with color type ct.
// Unknown depths and color types are never legal.
func Legal(ct ColorType, d BitDepth) bool {
	ci, di := ct.index(), d.index()
	if ci < 0 || di < 0 {
		return false
	}
	return legal[ci][di]
}

// notValidf returns a NotValid error whose message is exactly the formatted
// text.
func notValidf(format string, args ...interface{}) error {
	return errors.NewNotValid(nil, fmt.Sprintf(format, args...))
}

// Format describes the geometry and pixel layout of an image. A Format is
// immutable once constructed; the With methods return modified copies.
type Format struct {
	width     int
	height    int
	bitDepth  BitDepth
	colorType ColorType
	palette   *Palette // non-nil iff colorType == Indexed
}

// NewFormat returns a Format for a non-indexed image. Indexed images need a
// palette and are described with NewIndexedFormat.
func NewFormat(width, height int, depth BitDepth, ct ColorType) (Format, error) {
	if ct == Indexed {
		return Format{}, notValidf("tinypng: indexed color type without a palette")
	}
	return newFormat(width, height, depth, ct, nil)
}

// NewIndexedFormat returns a Format for an indexed image whose pixels are
// indices of depth bits into p.
func NewIndexedFormat(width, height int, depth BitDepth, p *Palette) (Format, error) {
	if p == nil {
		return Format{}, notValidf("tinypng: nil palette for indexed color type")
	}
	return newFormat(width, height, depth, Indexed, p)
}

func newFormat(width, height int, depth BitDepth, ct ColorType, p *Palette) (Format, error) {
	if width <= 0 {
		return Format{}, notValidf("tinypng: width %d (must be greater than 0)", width)
	}
	if height <= 0 {
		return Format{}, notValidf("tinypng: height %d (must be greater than 0)", height)
	}
	if depth.index() < 0 {
		return Format{}, notValidf("tinypng: bit depth %d", depth)
	}
	if ct.index() < 0 {
		return Format{}, notValidf("tinypng: color type %d", uint8(ct))
	}
	if !Legal(ct, depth) {
		return Format{}, notValidf("tinypng: bit depth %d for color type %s", depth, ct)
	}
	return Format{width: width, height: height, bitDepth: depth, colorType: ct, palette: p}, nil
}

// Width returns the image width in pixels.
func (f Format) Width() int { return f.width }

// Height returns the image height in pixels.
func (f Format) Height() int { return f.height }

// BitDepth returns the number of bits per sample.
func (f Format) BitDepth() BitDepth { return f.bitDepth }

// ColorType returns the pixel layout.
func (f Format) ColorType() ColorType { return f.colorType }

// Palette returns the palette of an indexed format. ok is false for every
// other color type.
func (f Format) Palette() (p *Palette, ok bool) {
	return f.palette, f.palette != nil
}

// SamplesPerPixel returns the number of samples in one pixel.
func (f Format) SamplesPerPixel() int {
	return f.colorType.Samples()
}

// BytesPerPixel returns the number of whole bytes needed to hold one pixel,
// rounded up. Sub-byte formats report 1.
func (f Format) BytesPerPixel() int {
	return (f.SamplesPerPixel()*int(f.bitDepth) + 7) >> 3
}

// BytesPerChannel returns the number of bytes of one sample: 2 at 16 bits,
// 1 otherwise.
func (f Format) BytesPerChannel() int {
	return (int(f.bitDepth) + 7) >> 3
}

// BytesPerRow returns the size of one packed scanline.
func (f Format) BytesPerRow() int {
	return (f.width*f.SamplesPerPixel()*int(f.bitDepth) + 7) >> 3
}

// BytesPerImage returns the size of the whole packed pixel buffer.
func (f Format) BytesPerImage() int {
	return f.BytesPerRow() * f.height
}

// WithBitDepth returns a copy of f with a different bit depth.
func (f Format) WithBitDepth(d BitDepth) (Format, error) {
	return newFormat(f.width, f.height, d, f.colorType, f.palette)
}

// WithColorType returns a copy of f with a different non-indexed color
// type. The palette is dropped.
func (f Format) WithColorType(ct ColorType) (Format, error) {
	return NewFormat(f.width, f.height, f.bitDepth, ct)
}

// Equal reports whether f and g describe the same image layout, comparing
// palettes by content.
func (f Format) Equal(g Format) bool {
	if f.width != g.width || f.height != g.height ||
		f.bitDepth != g.bitDepth || f.colorType != g.colorType {
		return false
	}
	return f.palette.Equal(g.palette)
}

// String returns a human-readable description of the format.
func (f Format) String() string {
	s := fmt.Sprintf("Format(width=%d, height=%d, colorType=%s, bitDepth=%d", f.width, f.height, f.colorType, f.bitDepth)
	if f.palette != nil {
		s += fmt.Sprintf(", palette=%d colors", f.palette.Len())
	}
	return s + ")"
}
