// Package pngtest is test tooling: it walks the chunks of an encoded PNG,
// verifies their framing, and reverses the IDAT stream back to raw
// scanlines so tests can compare output byte for byte.
package pngtest

import (
	"bytes"
	"hash/crc32"
	"io"

	"github.com/juju/errors"
	"github.com/klauspost/compress/zlib"

	"github.com/deepteams/tinypng/internal/container"
)

// Chunk is one parsed chunk.
type Chunk struct {
	Type    container.ChunkType
	Payload []byte
	CRC     uint32
}

// Header holds the decoded IHDR fields.
type Header struct {
	Width, Height int
	BitDepth      int
	ColorType     int
	Compression   int
	Filter        int
	Interlace     int
}

// File is a parsed PNG stream.
type File struct {
	Chunks []Chunk
	Header Header
}

// Parse checks the signature, then reads every chunk up to and including
// IEND. Each chunk's CRC is recomputed and must match. Trailing bytes after
// IEND are an error.
func Parse(data []byte) (*File, error) {
	if len(data) < container.SignatureSize || !bytes.Equal(data[:container.SignatureSize], container.Signature[:]) {
		return nil, errors.New("pngtest: bad signature")
	}
	buf := data[container.SignatureSize:]

	f := &File{}
	for len(buf) > 0 {
		if len(buf) < container.ChunkHeaderSize+container.CRCSize {
			return nil, errors.New("pngtest: truncated chunk header")
		}
		n := int(container.ReadBE32(buf[0:4]))
		t := container.ChunkType(container.ReadBE32(buf[4:8]))
		end := container.ChunkHeaderSize + n
		if end+container.CRCSize > len(buf) {
			return nil, errors.Errorf("pngtest: %s chunk declares %d bytes, %d available", t, n, len(buf)-end)
		}
		c := Chunk{
			Type:    t,
			Payload: buf[container.ChunkHeaderSize:end],
			CRC:     container.ReadBE32(buf[end:]),
		}
		if want := crc32.ChecksumIEEE(buf[4:end]); c.CRC != want {
			return nil, errors.Errorf("pngtest: %s chunk CRC %08x, want %08x", t, c.CRC, want)
		}
		f.Chunks = append(f.Chunks, c)
		buf = buf[end+container.CRCSize:]
		if t == container.ChunkIEND {
			break
		}
	}
	if len(buf) != 0 {
		return nil, errors.Errorf("pngtest: %d trailing bytes after IEND", len(buf))
	}
	if len(f.Chunks) == 0 || f.Chunks[0].Type != container.ChunkIHDR {
		return nil, errors.New("pngtest: first chunk is not IHDR")
	}
	if last := f.Chunks[len(f.Chunks)-1]; last.Type != container.ChunkIEND || len(last.Payload) != 0 {
		return nil, errors.New("pngtest: stream does not end with an empty IEND")
	}

	ihdr := f.Chunks[0].Payload
	if len(ihdr) != container.IHDRSize {
		return nil, errors.Errorf("pngtest: IHDR is %d bytes", len(ihdr))
	}
	f.Header = Header{
		Width:       int(container.ReadBE32(ihdr[0:4])),
		Height:      int(container.ReadBE32(ihdr[4:8])),
		BitDepth:    int(ihdr[8]),
		ColorType:   int(ihdr[9]),
		Compression: int(ihdr[10]),
		Filter:      int(ihdr[11]),
		Interlace:   int(ihdr[12]),
	}
	return f, nil
}

// ChunksOf returns every chunk of type t, in stream order.
func (f *File) ChunksOf(t container.ChunkType) []Chunk {
	var out []Chunk
	for _, c := range f.Chunks {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// Types returns the chunk tags in stream order.
func (f *File) Types() []string {
	out := make([]string, len(f.Chunks))
	for i, c := range f.Chunks {
		out[i] = c.Type.String()
	}
	return out
}

// Inflate concatenates the IDAT payloads and decompresses them.
func (f *File) Inflate() ([]byte, error) {
	var z bytes.Buffer
	for _, c := range f.ChunksOf(container.ChunkIDAT) {
		z.Write(c.Payload)
	}
	zr, err := zlib.NewReader(&z)
	if err != nil {
		return nil, errors.Annotate(err, "pngtest: zlib header")
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, errors.Annotate(err, "pngtest: inflate")
	}
	return out, nil
}

// Pixels inflates the IDAT stream and reverses the per-row filters,
// returning the raw image buffer along with each row's filter tag.
func (f *File) Pixels(bpp, bpr int) ([]byte, []byte, error) {
	data, err := f.Inflate()
	if err != nil {
		return nil, nil, err
	}
	h := f.Header.Height
	if len(data) != h*(bpr+1) {
		return nil, nil, errors.Errorf("pngtest: inflated %d bytes, want %d", len(data), h*(bpr+1))
	}
	pix := make([]byte, h*bpr)
	tags := make([]byte, h)
	prev := make([]byte, bpr)
	for y := 0; y < h; y++ {
		in := data[y*(bpr+1):]
		tags[y] = in[0]
		row := pix[y*bpr : (y+1)*bpr]
		copy(row, in[1:bpr+1])
		if err := Unfilter(tags[y], row, prev, bpp); err != nil {
			return nil, nil, errors.Annotatef(err, "row %d", y)
		}
		prev = row
	}
	return pix, tags, nil
}

// Unfilter reverses filter tag in place on row, given the reconstructed
// previous row.
func Unfilter(tag byte, row, prev []byte, bpp int) error {
	left := func(i int) int {
		if i < bpp {
			return 0
		}
		return int(row[i-bpp])
	}
	upLeft := func(i int) int {
		if i < bpp {
			return 0
		}
		return int(prev[i-bpp])
	}
	switch tag {
	case container.FilterNone:
	case container.FilterSub:
		for i := range row {
			row[i] += byte(left(i))
		}
	case container.FilterUp:
		for i := range row {
			row[i] += prev[i]
		}
	case container.FilterAverage:
		for i := range row {
			row[i] += byte((left(i) + int(prev[i])) / 2)
		}
	case container.FilterPaeth:
		for i := range row {
			row[i] += byte(paeth(left(i), int(prev[i]), upLeft(i)))
		}
	default:
		return errors.Errorf("pngtest: unknown filter %d", tag)
	}
	return nil
}

func paeth(a, b, c int) int {
	p := a + b - c
	pa, pb, pc := abs(p-a), abs(p-b), abs(p-c)
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
