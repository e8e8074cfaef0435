package container

import (
	"hash"
	"hash/crc32"
	"io"

	"github.com/juju/errors"
	logging "github.com/op/go-logging"
)

var log = logging.MustGetLogger("tinypng/container")

func init() {
	logging.SetLevel(logging.WARNING, "tinypng/container")
}

// ErrChunkTooLarge is returned when a payload exceeds MaxChunkPayload.
var ErrChunkTooLarge = errors.New("tinypng: chunk payload too large")

// ChunkWriter frames chunks onto an underlying writer. The signature is
// written once, when the ChunkWriter is created.
type ChunkWriter struct {
	w   io.Writer
	crc hash.Hash32
	hdr [ChunkHeaderSize]byte
	ftr [CRCSize]byte
	n   int64 // bytes written so far, signature included
}

// NewChunkWriter writes the PNG signature to w and returns a writer for
// the chunks that follow it.
func NewChunkWriter(w io.Writer) (*ChunkWriter, error) {
	if _, err := w.Write(Signature[:]); err != nil {
		return nil, errors.Annotate(err, "failed to write magic")
	}
	return &ChunkWriter{
		w:   w,
		crc: crc32.NewIEEE(),
		n:   SignatureSize,
	}, nil
}

// WriteChunk writes one chunk: length (4, BE), tag, payload, and the CRC32
// of tag and payload (4, BE). A nil or empty payload writes an empty chunk.
func (cw *ChunkWriter) WriteChunk(t ChunkType, payload []byte) error {
	if len(payload) > MaxChunkPayload {
		return errors.Annotatef(ErrChunkTooLarge, "%s chunk of %d bytes", t, len(payload))
	}

	tag := t.Bytes()
	cw.crc.Reset()
	cw.crc.Write(tag[:])
	cw.crc.Write(payload)

	PutBE32(cw.hdr[0:4], uint32(len(payload)))
	copy(cw.hdr[4:8], tag[:])
	PutBE32(cw.ftr[:], cw.crc.Sum32())

	if _, err := cw.w.Write(cw.hdr[:]); err != nil {
		return errors.Annotate(err, "failed to write chunk")
	}
	if len(payload) > 0 {
		if _, err := cw.w.Write(payload); err != nil {
			return errors.Annotate(err, "failed to write chunk")
		}
	}
	if _, err := cw.w.Write(cw.ftr[:]); err != nil {
		return errors.Annotate(err, "failed to write chunk")
	}

	cw.n += int64(ChunkHeaderSize + len(payload) + CRCSize)
	log.Debugf("wrote %s chunk (%d bytes)", t, len(payload))
	return nil
}

// Written returns the number of bytes written to the underlying writer.
func (cw *ChunkWriter) Written() int64 {
	return cw.n
}
