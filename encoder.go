package tinypng

import (
	"io"

	"github.com/juju/errors"

	"github.com/deepteams/tinypng/internal/container"
	"github.com/deepteams/tinypng/internal/dsp"
)

var (
	// ErrHeaderWritten is returned by a second call to WriteHeader.
	ErrHeaderWritten = errors.New("tinypng: header already written")

	// ErrImageWritten is returned by a second call to WriteImage.
	ErrImageWritten = errors.New("tinypng: image already written")

	// ErrClosed is returned by operations on a closed Encoder.
	ErrClosed = errors.New("tinypng: encoder closed")
)

type encoderState int

const (
	stateCreated encoderState = iota
	stateHeaderWritten
	stateFinalized
)

// Encoder writes one PNG image to an underlying writer. Its stages run in a
// fixed order: NewEncoder writes the signature, WriteHeader writes IHDR and
// PLTE, and ImageWriter.WriteImage writes the pixel data and IEND. Close may
// be called at any point and always leaves the stream terminated by IEND.
//
// An Encoder is not safe for concurrent use.
type Encoder struct {
	w      io.Writer
	cw     *container.ChunkWriter
	format Format
	level  int

	state      encoderState
	endWritten bool
	closed     bool
}

// ImageWriter writes the pixel data of the image whose header has been
// written. It is returned by Encoder.WriteHeader.
type ImageWriter struct {
	e *Encoder
}

// NewEncoder returns an Encoder for one image of format f and writes the PNG
// signature to w. A nil opts means DefaultOptions; opts.Optimize is ignored
// since the pixels are not known yet. If the signature cannot be written and
// w is an io.Closer, w is closed before the error is returned.
func NewEncoder(w io.Writer, f Format, opts *Options) (*Encoder, error) {
	opts, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	if f.BytesPerImage() == 0 {
		return nil, notValidf("tinypng: zero format")
	}
	level, _ := opts.CompressionLevel.zlib()

	cw, err := container.NewChunkWriter(w)
	if err != nil {
		if c, ok := w.(io.Closer); ok {
			c.Close()
		}
		return nil, errors.Trace(err)
	}
	return &Encoder{w: w, cw: cw, format: f, level: level}, nil
}

// Format returns the format the Encoder writes.
func (e *Encoder) Format() Format {
	return e.format
}

// WriteHeader writes the IHDR chunk and, for indexed formats, the PLTE
// chunk. It returns the ImageWriter for the pixel data.
func (e *Encoder) WriteHeader() (*ImageWriter, error) {
	if e.closed {
		return nil, ErrClosed
	}
	if e.state != stateCreated {
		return nil, ErrHeaderWritten
	}

	f := e.format
	var ihdr [container.IHDRSize]byte
	container.PutBE32(ihdr[0:4], uint32(f.Width()))
	container.PutBE32(ihdr[4:8], uint32(f.Height()))
	ihdr[8] = byte(f.BitDepth())
	ihdr[9] = byte(f.ColorType())
	ihdr[10] = container.CompressionDeflate
	ihdr[11] = container.FilterAdaptive
	ihdr[12] = container.InterlaceNone
	if err := e.cw.WriteChunk(container.ChunkIHDR, ihdr[:]); err != nil {
		return nil, errors.Trace(err)
	}

	if p, ok := f.Palette(); ok {
		if err := e.cw.WriteChunk(container.ChunkPLTE, p.Bytes()); err != nil {
			return nil, errors.Trace(err)
		}
	}

	e.state = stateHeaderWritten
	log.Debugf("wrote header for %s", f)
	return &ImageWriter{e: e}, nil
}

// WriteImage filters, compresses and writes pix, the packed scanlines of the
// whole image from top to bottom, then writes IEND. len(pix) must equal
// Format.BytesPerImage.
//
// If an error occurs the output is left incomplete; the Encoder does not
// accept another image.
func (iw *ImageWriter) WriteImage(pix []byte) error {
	e := iw.e
	if e.closed {
		return ErrClosed
	}
	if e.state == stateFinalized {
		return ErrImageWritten
	}
	f := e.format
	if len(pix) != f.BytesPerImage() {
		return notValidf("tinypng: pixel buffer of %d bytes for %s (want %d)", len(pix), f, f.BytesPerImage())
	}
	e.state = stateFinalized

	zw, err := container.NewIDATWriter(e.cw, e.level)
	if err != nil {
		return errors.Trace(err)
	}
	defer zw.Abort()

	bpr := f.BytesPerRow()
	rf := dsp.NewRowFilter(f.BytesPerPixel(), bpr)
	defer rf.Release()

	for y := 0; y < f.Height(); y++ {
		tag, row := rf.Filter(pix[y*bpr : (y+1)*bpr])
		if err := zw.WriteByte(tag); err != nil {
			return errors.Annotatef(err, "row %d", y)
		}
		if _, err := zw.Write(row); err != nil {
			return errors.Annotatef(err, "row %d", y)
		}
	}
	if err := zw.Close(); err != nil {
		return errors.Trace(err)
	}
	log.Debugf("wrote %d rows in %d IDAT chunks", f.Height(), zw.Chunks())

	return e.writeEnd()
}

func (e *Encoder) writeEnd() error {
	if e.endWritten {
		return nil
	}
	e.endWritten = true
	return errors.Trace(e.cw.WriteChunk(container.ChunkIEND, nil))
}

// Written returns the number of bytes written so far.
func (e *Encoder) Written() int64 {
	return e.cw.Written()
}

// Close writes IEND if it has not been written yet and closes the
// underlying writer if it is an io.Closer. Close is safe to call from any
// state; calls after the first return nil.
//
// A stream closed before WriteImage is well formed but holds no image.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	err := e.writeEnd()
	if c, ok := e.w.(io.Closer); ok {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = errors.Annotate(cerr, "failed to close output")
		}
	}
	return err
}

// Encode writes the image pix of format f to w as a complete PNG stream.
// When opts.Optimize is set the lossless reductions of Optimize are applied
// first. A nil opts means DefaultOptions. Encode does not close w.
func Encode(w io.Writer, f Format, pix []byte, opts *Options) error {
	opts, err := resolveOptions(opts)
	if err != nil {
		return err
	}
	if opts.Optimize {
		if f, pix, err = Optimize(f, pix); err != nil {
			return err
		}
	} else if len(pix) != f.BytesPerImage() {
		return notValidf("tinypng: pixel buffer of %d bytes for %s (want %d)", len(pix), f, f.BytesPerImage())
	}

	e, err := NewEncoder(w, f, opts)
	if err != nil {
		return err
	}
	iw, err := e.WriteHeader()
	if err != nil {
		return err
	}
	return iw.WriteImage(pix)
}
