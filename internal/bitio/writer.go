// Package bitio packs image samples into PNG scanline bytes.
package bitio

// SampleWriter packs samples of a fixed bit depth into a byte buffer,
// most significant bits first, the way PNG lays out sub-byte samples.
// 16-bit samples are written big-endian.
//
// Bits are accumulated in a small register and stored a byte at a time.
type SampleWriter struct {
	depth uint
	bits  uint32 // bit accumulator, low `used` bits are pending
	used  uint
	buf   []byte
	cur   int
}

// NewSampleWriter returns a SampleWriter that fills buf with samples of the
// given depth (1, 2, 4, 8 or 16).
func NewSampleWriter(buf []byte, depth int) *SampleWriter {
	return &SampleWriter{depth: uint(depth), buf: buf}
}

// WriteSample appends one sample. Only the low depth bits of v are used.
func (sw *SampleWriter) WriteSample(v uint16) {
	switch sw.depth {
	case 8:
		sw.buf[sw.cur] = byte(v)
		sw.cur++
		return
	case 16:
		sw.buf[sw.cur] = byte(v >> 8)
		sw.buf[sw.cur+1] = byte(v)
		sw.cur += 2
		return
	}
	mask := uint32(1)<<sw.depth - 1
	sw.bits = sw.bits<<sw.depth | uint32(v)&mask
	sw.used += sw.depth
	if sw.used == 8 {
		sw.buf[sw.cur] = byte(sw.bits)
		sw.cur++
		sw.bits = 0
		sw.used = 0
	}
}

// FlushRow pads a partially filled byte with zero bits and stores it, so
// the next sample starts on a byte boundary as every PNG scanline does.
func (sw *SampleWriter) FlushRow() {
	if sw.used == 0 {
		return
	}
	sw.buf[sw.cur] = byte(sw.bits << (8 - sw.used))
	sw.cur++
	sw.bits = 0
	sw.used = 0
}

// Len returns the number of complete bytes written.
func (sw *SampleWriter) Len() int {
	return sw.cur
}

// Bytes returns the written portion of the buffer.
func (sw *SampleWriter) Bytes() []byte {
	return sw.buf[:sw.cur]
}
