// Package container defines constants and writers for the PNG container
// format: the file signature, chunk types, chunk framing, and the IDAT
// stream.
package container

import "encoding/binary"

// Signature is the fixed 8-byte magic that opens every PNG file.
var Signature = [SignatureSize]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// ChunkType is a chunk's 4-byte ASCII tag, stored big-endian so that the
// first letter is the most significant byte.
type ChunkType uint32

// FourCC creates a ChunkType from four bytes (big-endian).
func FourCC(a, b, c, d byte) ChunkType {
	return ChunkType(uint32(a)<<24 | uint32(b)<<16 | uint32(c)<<8 | uint32(d))
}

// Critical chunk types.
var (
	ChunkIHDR = FourCC('I', 'H', 'D', 'R')
	ChunkPLTE = FourCC('P', 'L', 'T', 'E')
	ChunkIDAT = FourCC('I', 'D', 'A', 'T')
	ChunkIEND = FourCC('I', 'E', 'N', 'D')
)

// Bytes returns the tag as it appears on the wire.
func (t ChunkType) Bytes() [TagSize]byte {
	var b [TagSize]byte
	binary.BigEndian.PutUint32(b[:], uint32(t))
	return b
}

// String returns the ASCII tag.
func (t ChunkType) String() string {
	b := t.Bytes()
	return string(b[:])
}

// Container structure sizes.
const (
	SignatureSize   = 8
	TagSize         = 4 // Size of a chunk tag (e.g. "IDAT")
	LengthSize      = 4 // Size of the chunk length field
	CRCSize         = 4 // Size of the trailing CRC32
	ChunkHeaderSize = LengthSize + TagSize
	IHDRSize        = 13 // IHDR payload size
	PaletteEntry    = 3  // bytes per PLTE entry (R, G, B)
)

// Limits.
const (
	MaxChunkPayload = 1<<31 - 1 // chunk lengths are limited to 2^31-1
	IDATBufferSize  = 32 * 1024 // IDAT payloads are emitted in 32 KiB pieces
)

// IHDR fields fixed by this encoder: deflate compression, adaptive
// filtering, no interlacing.
const (
	CompressionDeflate = 0
	FilterAdaptive     = 0
	InterlaceNone      = 0
)

// Filter types for per-row prediction.
const (
	FilterNone    = 0
	FilterSub     = 1
	FilterUp      = 2
	FilterAverage = 3
	FilterPaeth   = 4
	NumFilters    = 5
)

// PutBE32 writes a big-endian uint32 to data.
func PutBE32(data []byte, v uint32) {
	binary.BigEndian.PutUint32(data, v)
}

// ReadBE32 reads a big-endian uint32 from data.
func ReadBE32(data []byte) uint32 {
	return binary.BigEndian.Uint32(data)
}
