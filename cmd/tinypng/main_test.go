package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/bmp"
)

// binaryPath holds the path to the compiled tinypng binary. Set in TestMain.
var binaryPath string

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "tinypng-test-bin-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmp)

	binaryPath = filepath.Join(tmp, "tinypng")
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		// Mark binary as empty so tests skip gracefully.
		binaryPath = ""
	}

	os.Exit(m.Run())
}

// skipIfNoBinary skips the test when the binary was not built.
func skipIfNoBinary(t *testing.T) {
	t.Helper()
	if binaryPath == "" {
		t.Skip("tinypng binary not built; skipping")
	}
}

// runTinypng executes tinypng with the given arguments and optional stdin
// data. Returns stdout, stderr, and any error.
func runTinypng(t *testing.T, dir string, stdin []byte, args ...string) (stdout, stderr []byte, err error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = dir
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err = cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

// testImage returns an 8x8 gradient; alpha is opaque unless translucent is
// set.
func testImage(translucent bool) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			a := uint8(255)
			if translucent {
				a = uint8(255 - x*16)
			}
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 32), G: uint8(y * 32), B: 128, A: a})
		}
	}
	return img
}

func writeTestPNG(t *testing.T, dir string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, "input.png")
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test PNG: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("writing test PNG: %v", err)
	}
	return path
}

// ihdr returns the bit depth and color type stored in a PNG stream.
func ihdr(t *testing.T, data []byte) (depth, colorType byte) {
	t.Helper()
	if len(data) < 33 || string(data[1:4]) != "PNG" || string(data[12:16]) != "IHDR" {
		t.Fatalf("output is not a PNG stream (%d bytes)", len(data))
	}
	return data[24], data[25]
}

// assertSamePixels decodes data and compares it to want pixel by pixel.
func assertSamePixels(t *testing.T, data []byte, want image.Image) {
	t.Helper()
	got, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if got.Bounds() != want.Bounds() {
		t.Fatalf("bounds = %v, want %v", got.Bounds(), want.Bounds())
	}
	b := want.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.NRGBAModel.Convert(got.At(x, y))
			w := color.NRGBAModel.Convert(want.At(x, y))
			if g != w {
				t.Fatalf("(%d, %d) = %v, want %v", x, y, g, w)
			}
		}
	}
}

// --- enc tests ---

func TestEnc_PNG(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	img := testImage(true)
	in := writeTestPNG(t, dir, img)
	out := filepath.Join(dir, "out.png")

	_, stderr, err := runTinypng(t, dir, nil, "enc", "-o", out, in)
	if err != nil {
		t.Fatalf("enc failed: %v\nstderr: %s", err, stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if d, ct := ihdr(t, data); d != 8 || ct != 6 {
		t.Errorf("IHDR depth=%d color=%d, want 8/6", d, ct)
	}
	assertSamePixels(t, data, img)
	if !strings.Contains(string(stderr), "Encoded") {
		t.Errorf("stderr lacks summary line: %s", stderr)
	}
}

func TestEnc_Optimize(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	img := testImage(false)
	in := writeTestPNG(t, dir, img)

	stdout, stderr, err := runTinypng(t, dir, nil, "enc", "-optimize", "-o", "-", in)
	if err != nil {
		t.Fatalf("enc -optimize failed: %v\nstderr: %s", err, stderr)
	}
	if d, ct := ihdr(t, stdout); d != 8 || ct != 2 {
		t.Errorf("IHDR depth=%d color=%d, want 8/2", d, ct)
	}
	assertSamePixels(t, stdout, img)
}

func TestEnc_Levels(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	img := testImage(true)
	in := writeTestPNG(t, dir, img)

	for _, level := range []string{"speed", "default", "best", "none"} {
		stdout, stderr, err := runTinypng(t, dir, nil, "enc", "-level", level, "-o", "-", in)
		if err != nil {
			t.Fatalf("enc -level %s failed: %v\nstderr: %s", level, err, stderr)
		}
		assertSamePixels(t, stdout, img)
	}

	if _, _, err := runTinypng(t, dir, nil, "enc", "-level", "ultra", "-o", "-", in); err == nil {
		t.Error("expected non-zero exit for unknown level")
	}
}

func TestEnc_BMP(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	img := testImage(false)
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	stdout, stderr, err := runTinypng(t, dir, buf.Bytes(), "enc", "-o", "-", "-")
	if err != nil {
		t.Fatalf("enc stdin failed: %v\nstderr: %s", err, stderr)
	}
	assertSamePixels(t, stdout, img)
}

func TestEnc_DefaultOutputName(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "picture.png")
	if err := os.Rename(writeTestPNG(t, dir, testImage(false)), src); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "out")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	if _, stderr, err := runTinypng(t, sub, nil, "enc", src); err != nil {
		t.Fatalf("enc failed: %v\nstderr: %s", err, stderr)
	}
	if _, err := os.Stat(filepath.Join(sub, "picture.png")); err != nil {
		t.Errorf("expected default output: %v", err)
	}
}

func TestEnc_Verbose(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	in := writeTestPNG(t, dir, testImage(false))

	_, stderr, err := runTinypng(t, dir, nil, "enc", "-v", "-optimize", "-o", filepath.Join(dir, "v.png"), in)
	if err != nil {
		t.Fatalf("enc -v failed: %v\nstderr: %s", err, stderr)
	}
	for _, want := range []string{"DEBU", "IHDR", "dropped opaque alpha"} {
		if !strings.Contains(string(stderr), want) {
			t.Errorf("stderr lacks %q:\n%s", want, stderr)
		}
	}
}

func TestEnc_Errors(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.png")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := [][]string{
		{"enc"},
		{"enc", "/nonexistent/file.png"},
		{"enc", "-o", filepath.Join(dir, "x.png"), garbage},
	}
	for _, args := range tests {
		if _, _, err := runTinypng(t, dir, nil, args...); err == nil {
			t.Errorf("%v: expected non-zero exit", args)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "x.png")); err == nil {
		t.Error("output left behind after a failed decode")
	}
}

// --- raw tests ---

func TestRaw_Gray(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "gray.raw")
	pix := []byte{0, 64, 128, 255, 10, 20}
	if err := os.WriteFile(in, pix, 0o644); err != nil {
		t.Fatal(err)
	}

	_, stderr, err := runTinypng(t, dir, nil, "raw", "-w", "3", "-h", "2", "-color", "gray", in)
	if err != nil {
		t.Fatalf("raw failed: %v\nstderr: %s", err, stderr)
	}
	data, err := os.ReadFile(filepath.Join(dir, "gray.png"))
	if err != nil {
		t.Fatal(err)
	}
	want := image.NewGray(image.Rect(0, 0, 3, 2))
	copy(want.Pix, pix)
	assertSamePixels(t, data, want)
}

func TestRaw_Indexed(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	pal := filepath.Join(dir, "pal.rgb")
	if err := os.WriteFile(pal, []byte{255, 0, 0, 0, 255, 0, 0, 0, 255, 9, 9, 9}, 0o644); err != nil {
		t.Fatal(err)
	}

	// 4x1 at 2 bits: indices 0 1 2 3.
	stdout, stderr, err := runTinypng(t, dir, []byte{0x1b}, "raw", "-w", "4", "-h", "1", "-depth", "2",
		"-color", "indexed", "-palette", pal, "-o", "-", "-")
	if err != nil {
		t.Fatalf("raw indexed failed: %v\nstderr: %s", err, stderr)
	}
	if d, ct := ihdr(t, stdout); d != 2 || ct != 3 {
		t.Errorf("IHDR depth=%d color=%d, want 2/3", d, ct)
	}
	want := image.NewPaletted(image.Rect(0, 0, 4, 1), color.Palette{
		color.RGBA{255, 0, 0, 255}, color.RGBA{0, 255, 0, 255}, color.RGBA{0, 0, 255, 255}, color.RGBA{9, 9, 9, 255},
	})
	copy(want.Pix, []uint8{0, 1, 2, 3})
	assertSamePixels(t, stdout, want)
}

func TestRaw_Optimize16(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	// 2x1 RGBA 16-bit, every sample reducible and alpha opaque.
	pix := []byte{1, 1, 2, 2, 3, 3, 0xff, 0xff, 4, 4, 5, 5, 6, 6, 0xff, 0xff}
	stdout, stderr, err := runTinypng(t, dir, pix, "raw", "-w", "2", "-h", "1", "-depth", "16",
		"-color", "rgba", "-optimize", "-o", "-", "-")
	if err != nil {
		t.Fatalf("raw -optimize failed: %v\nstderr: %s", err, stderr)
	}
	if d, ct := ihdr(t, stdout); d != 8 || ct != 2 {
		t.Errorf("IHDR depth=%d color=%d, want 8/2", d, ct)
	}
}

func TestRaw_Errors(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "short.raw")
	if err := os.WriteFile(in, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"missing input", []string{"raw", "-w", "1", "-h", "1"}},
		{"short buffer", []string{"raw", "-w", "2", "-h", "2", "-color", "gray", in}},
		{"zero width", []string{"raw", "-w", "0", "-h", "1", "-color", "gray", in}},
		{"bad color", []string{"raw", "-w", "1", "-h", "1", "-color", "cmyk", in}},
		{"illegal depth", []string{"raw", "-w", "1", "-h", "1", "-depth", "4", "-color", "rgb", in}},
		{"indexed without palette", []string{"raw", "-w", "3", "-h", "1", "-color", "indexed", in}},
		{"palette on rgb", []string{"raw", "-w", "1", "-h", "1", "-palette", in, in}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := runTinypng(t, dir, nil, tt.args...); err == nil {
				t.Errorf("expected non-zero exit")
			}
		})
	}
	if _, err := os.Stat(filepath.Join(dir, "short.png")); err == nil {
		t.Error("output left behind after a failed encode")
	}
}

// --- misc ---

func TestUnknownCommand(t *testing.T) {
	skipIfNoBinary(t)
	_, stderr, err := runTinypng(t, "", nil, "frobnicate")
	if err == nil {
		t.Fatal("expected non-zero exit for unknown command")
	}
	if !strings.Contains(string(stderr), "unknown command") {
		t.Errorf("stderr = %s", stderr)
	}
}

func TestHelp(t *testing.T) {
	skipIfNoBinary(t)
	_, stderr, err := runTinypng(t, "", nil, "help")
	if err != nil {
		t.Fatalf("help failed: %v", err)
	}
	if !strings.Contains(string(stderr), "Usage:") {
		t.Errorf("stderr = %s", stderr)
	}
}
