package container

import (
	"github.com/juju/errors"
	"github.com/klauspost/compress/zlib"

	"github.com/deepteams/tinypng/internal/pool"
)

// ErrClosed is returned by writes to an IDATWriter after Close or Abort.
var ErrClosed = errors.New("tinypng: IDAT stream already closed")

// IDATWriter compresses the filtered scanlines of one image and frames the
// compressed stream as IDAT chunks. Compressed bytes accumulate in a
// fixed-size buffer; a chunk is emitted each time the buffer fills, and once
// more on Close for whatever remains.
type IDATWriter struct {
	cw     *ChunkWriter
	zw     *zlib.Writer
	buf    []byte
	n      int // bytes pending in buf
	chunks int
	single [1]byte
	closed bool
}

// NewIDATWriter returns an IDATWriter that emits chunks through cw using the
// given zlib compression level.
func NewIDATWriter(cw *ChunkWriter, level int) (*IDATWriter, error) {
	w := &IDATWriter{
		cw:  cw,
		buf: pool.Get(IDATBufferSize),
	}
	zw, err := zlib.NewWriterLevel(sink{w}, level)
	if err != nil {
		pool.Put(w.buf)
		return nil, errors.Annotatef(err, "tinypng: compression level %d", level)
	}
	w.zw = zw
	return w, nil
}

// sink receives compressed output from the zlib writer.
type sink struct{ w *IDATWriter }

func (s sink) Write(p []byte) (int, error) {
	w := s.w
	written := 0
	for len(p) > 0 {
		k := copy(w.buf[w.n:], p)
		w.n += k
		written += k
		p = p[k:]
		if w.n == len(w.buf) {
			if err := w.flush(); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

// flush emits the pending bytes as one IDAT chunk.
func (w *IDATWriter) flush() error {
	if err := w.cw.WriteChunk(ChunkIDAT, w.buf[:w.n]); err != nil {
		return errors.Trace(err)
	}
	w.chunks++
	w.n = 0
	return nil
}

// Write feeds uncompressed bytes to the compressor.
func (w *IDATWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	n, err := w.zw.Write(p)
	return n, errors.Trace(err)
}

// WriteByte feeds a single uncompressed byte, such as a row's filter tag.
func (w *IDATWriter) WriteByte(c byte) error {
	w.single[0] = c
	_, err := w.Write(w.single[:])
	return err
}

// Close ends the compressed stream, drains it, and emits the final IDAT
// chunk. The final chunk is written even when empty, so a closed stream
// always contributes at least one IDAT. Closing twice is a no-op.
func (w *IDATWriter) Close() error {
	if w.closed {
		return nil
	}
	defer w.release()

	if err := w.zw.Close(); err != nil {
		return errors.Trace(err)
	}
	if err := w.flush(); err != nil {
		return err
	}
	log.Debugf("IDAT stream closed after %d chunks", w.chunks)
	return nil
}

// Abort releases the compressor and buffer without emitting anything. It is
// meant for error paths; calling it after Close is a no-op.
func (w *IDATWriter) Abort() {
	if w.closed {
		return
	}
	w.release()
}

func (w *IDATWriter) release() {
	w.closed = true
	w.zw = nil
	pool.Put(w.buf)
	w.buf = nil
	w.n = 0
}

// Chunks returns the number of IDAT chunks emitted so far.
func (w *IDATWriter) Chunks() int {
	return w.chunks
}
