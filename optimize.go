package tinypng

import (
	"github.com/juju/errors"
	logging "github.com/op/go-logging"
)

var log = logging.MustGetLogger("tinypng")

// Library logs stay quiet until a program installs its own backend.
func init() {
	logging.SetLevel(logging.WARNING, "tinypng")
}

// OpaqueAlphaByte is the value every byte of an alpha sample must hold for
// the pixel to count as fully opaque: 255 at 8 bits, 65535 at 16 bits.
const OpaqueAlphaByte = 0xFF

// Optimize applies the lossless reductions PNG allows for pix under f and
// returns the possibly smaller format and buffer:
//
//   - 16-bit images whose samples all have identical high and low bytes are
//     reduced to 8 bits.
//   - GrayAlpha and RGBA images whose alpha is opaque everywhere lose their
//     alpha channel and become Gray and RGB.
//
// Each reduction is all-or-nothing over the whole buffer and they are tried
// in that order. pix is never modified; when no reduction applies f and pix
// are returned as given.
func Optimize(f Format, pix []byte) (Format, []byte, error) {
	if len(pix) != f.BytesPerImage() {
		return f, nil, notValidf("tinypng: pixel buffer of %d bytes for %s (want %d)", len(pix), f, f.BytesPerImage())
	}

	if f.BitDepth() == Depth16 && reducible16(pix) {
		nf, err := f.WithBitDepth(Depth8)
		if err != nil {
			return f, nil, errors.Trace(err)
		}
		out := make([]byte, len(pix)/2)
		for i := range out {
			out[i] = pix[2*i]
		}
		log.Debugf("reduced %s from 16 to 8 bits per sample", f)
		f, pix = nf, out
	}

	if f.ColorType().HasAlpha() && opaque(f, pix) {
		ct := Gray
		if f.ColorType() == RGBA {
			ct = RGB
		}
		nf, err := f.WithColorType(ct)
		if err != nil {
			return f, nil, errors.Trace(err)
		}
		log.Debugf("dropped opaque alpha channel of %s", f)
		f, pix = nf, stripAlpha(f, pix)
	}
	return f, pix, nil
}

// reducible16 reports whether every big-endian 16-bit sample in pix has
// equal high and low bytes.
func reducible16(pix []byte) bool {
	for i := 0; i+1 < len(pix); i += 2 {
		if pix[i] != pix[i+1] {
			return false
		}
	}
	return true
}

// opaque reports whether every alpha byte of every pixel equals
// OpaqueAlphaByte. f must have an alpha channel and a depth of 8 or 16.
func opaque(f Format, pix []byte) bool {
	bpp, bpc := f.BytesPerPixel(), f.BytesPerChannel()
	for p := bpp - bpc; p < len(pix); p += bpp {
		for _, b := range pix[p : p+bpc] {
			if b != OpaqueAlphaByte {
				return false
			}
		}
	}
	return true
}

// stripAlpha returns a copy of pix without the trailing alpha sample of each
// pixel.
func stripAlpha(f Format, pix []byte) []byte {
	bpp, bpc := f.BytesPerPixel(), f.BytesPerChannel()
	keep := bpp - bpc
	out := make([]byte, 0, len(pix)/bpp*keep)
	for p := 0; p < len(pix); p += bpp {
		out = append(out, pix[p:p+keep]...)
	}
	return out
}
