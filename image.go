package tinypng

import (
	"image"
	"image/color"
	"io"

	"github.com/juju/errors"

	"github.com/deepteams/tinypng/internal/bitio"
)

// FromImage converts img into a Format and a packed pixel buffer suitable
// for Encode:
//
//   - *image.Gray becomes 8-bit Gray and *image.Gray16 16-bit Gray.
//   - *image.Paletted becomes Indexed at the smallest bit depth that can
//     address its palette.
//   - *image.NRGBA becomes 8-bit RGBA; *image.NRGBA64 and *image.RGBA64
//     become 16-bit RGBA.
//   - Any other image becomes 8-bit RGBA through color.NRGBAModel.
func FromImage(img image.Image) (Format, []byte, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	switch m := img.(type) {
	case *image.Gray:
		f, err := NewFormat(w, h, Depth8, Gray)
		if err != nil {
			return Format{}, nil, err
		}
		return f, copyRows(f, m.Pix, m.Stride, m.PixOffset(b.Min.X, b.Min.Y)), nil

	case *image.Gray16:
		f, err := NewFormat(w, h, Depth16, Gray)
		if err != nil {
			return Format{}, nil, err
		}
		return f, copyRows(f, m.Pix, m.Stride, m.PixOffset(b.Min.X, b.Min.Y)), nil

	case *image.Paletted:
		return fromPaletted(m)

	case *image.NRGBA:
		f, err := NewFormat(w, h, Depth8, RGBA)
		if err != nil {
			return Format{}, nil, err
		}
		return f, copyRows(f, m.Pix, m.Stride, m.PixOffset(b.Min.X, b.Min.Y)), nil

	case *image.NRGBA64:
		f, err := NewFormat(w, h, Depth16, RGBA)
		if err != nil {
			return Format{}, nil, err
		}
		return f, copyRows(f, m.Pix, m.Stride, m.PixOffset(b.Min.X, b.Min.Y)), nil

	case *image.RGBA64:
		f, err := NewFormat(w, h, Depth16, RGBA)
		if err != nil {
			return Format{}, nil, err
		}
		pix := make([]byte, f.BytesPerImage())
		off := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBA64Model.Convert(m.RGBA64At(x, y)).(color.NRGBA64)
				for _, v := range [...]uint16{c.R, c.G, c.B, c.A} {
					pix[off] = byte(v >> 8)
					pix[off+1] = byte(v)
					off += 2
				}
			}
		}
		return f, pix, nil
	}

	f, err := NewFormat(w, h, Depth8, RGBA)
	if err != nil {
		return Format{}, nil, err
	}
	pix := make([]byte, f.BytesPerImage())
	off := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			pix[off+0] = c.R
			pix[off+1] = c.G
			pix[off+2] = c.B
			pix[off+3] = c.A
			off += 4
		}
	}
	return f, pix, nil
}

// copyRows copies the rows of an image whose in-memory layout already
// matches the PNG scanline layout of f, starting at byte start of src.
func copyRows(f Format, src []byte, stride, start int) []byte {
	bpr := f.BytesPerRow()
	pix := make([]byte, f.BytesPerImage())
	for y := 0; y < f.Height(); y++ {
		copy(pix[y*bpr:(y+1)*bpr], src[start+y*stride:])
	}
	return pix
}

func fromPaletted(m *image.Paletted) (Format, []byte, error) {
	if len(m.Palette) == 0 {
		return Format{}, nil, notValidf("tinypng: paletted image with an empty palette")
	}
	p, err := PaletteFromColors(m.Palette)
	if err != nil {
		return Format{}, nil, err
	}

	depth := Depth8
	switch n := p.Len(); {
	case n <= 2:
		depth = Depth1
	case n <= 4:
		depth = Depth2
	case n <= 16:
		depth = Depth4
	}

	b := m.Bounds()
	f, err := NewIndexedFormat(b.Dx(), b.Dy(), depth, p)
	if err != nil {
		return Format{}, nil, err
	}

	pix := make([]byte, f.BytesPerImage())
	sw := bitio.NewSampleWriter(pix, int(depth))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := m.Pix[m.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			idx := row[x]
			if int(idx) >= p.Len() {
				return Format{}, nil, notValidf("tinypng: palette index %d at (%d, %d) of %d colors", idx, b.Min.X+x, y, p.Len())
			}
			sw.WriteSample(uint16(idx))
		}
		sw.FlushRow()
	}
	return f, pix, nil
}

// EncodeImage converts img with FromImage and writes it to w with Encode.
func EncodeImage(w io.Writer, img image.Image, opts *Options) error {
	f, pix, err := FromImage(img)
	if err != nil {
		return errors.Trace(err)
	}
	return Encode(w, f, pix, opts)
}
