package tinypng

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"testing"
)

func loadTestImage(b *testing.B) *image.NRGBA {
	b.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 640, 480))
	for y := 0; y < 480; y++ {
		for x := 0; x < 640; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x % 256),
				G: uint8(y % 256),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}
	return img
}

func BenchmarkEncode(b *testing.B) {
	f, pix, err := FromImage(loadTestImage(b))
	if err != nil {
		b.Fatal(err)
	}
	for _, level := range []CompressionLevel{BestSpeed, DefaultCompression, BestCompression} {
		b.Run(level.String(), func(b *testing.B) {
			buf := &bytes.Buffer{}
			opts := &Options{CompressionLevel: level}
			b.SetBytes(int64(len(pix)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				buf.Reset()
				if err := Encode(buf, f, pix, opts); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkEncodeImage_Optimize(b *testing.B) {
	img := loadTestImage(b)
	buf := &bytes.Buffer{}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		if err := EncodeImage(buf, img, &Options{Optimize: true}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkOptimize16(b *testing.B) {
	for _, size := range []int{64, 512} {
		b.Run(fmt.Sprintf("%dx%d", size, size), func(b *testing.B) {
			f := mustFormat(b, size, size, Depth16, RGBA)
			pix := bytes.Repeat([]byte{0xff}, f.BytesPerImage())
			b.SetBytes(int64(len(pix)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, _, err := Optimize(f, pix); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
