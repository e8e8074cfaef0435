// Package tinypng provides a pure Go encoder for the PNG image format.
//
// The encoder writes already-decoded pixel data: a flat buffer of packed
// scanlines described by a Format (geometry, bit depth, color type and, for
// indexed images, a palette). Every row is filtered with the cheapest of the
// five PNG predictors, compressed, and framed as IDAT chunks of at most
// 32 KiB.
//
// The package supports:
//   - Grayscale at 1, 2, 4, 8 and 16 bits
//   - Indexed color at 1, 2, 4 and 8 bits, with a palette of up to 256 colors
//   - RGB, gray+alpha and RGBA at 8 and 16 bits
//   - Lossless reduction of 16-bit samples to 8 bits and removal of fully
//     opaque alpha channels before encoding
//
// Only the critical chunks (IHDR, PLTE, IDAT, IEND) are written; images are
// never interlaced.
//
// Basic usage:
//
//	f, err := tinypng.NewFormat(w, h, tinypng.Depth8, tinypng.RGB)
//	err = tinypng.Encode(out, f, pix, nil)
//
// Step by step, with control over each stage:
//
//	enc, err := tinypng.NewEncoder(out, f, nil)
//	iw, err := enc.WriteHeader()
//	err = iw.WriteImage(pix)
//	err = enc.Close()
package tinypng
