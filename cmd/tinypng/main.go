// Command tinypng encodes images as PNG from the command line.
//
// Usage:
//
//	tinypng enc [options] <input>      PNG/JPEG/GIF/BMP/TIFF/WebP → PNG (use "-" for stdin)
//	tinypng raw [options] <input.raw>  raw packed scanlines → PNG
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/errors"
	logging "github.com/op/go-logging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/deepteams/tinypng"
)

var log = logging.MustGetLogger("tinypng/cmd")

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "enc":
		err = runEnc(os.Args[2:])
	case "raw":
		err = runRaw(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "tinypng: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "tinypng: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  tinypng enc [options] <input>      Encode PNG/JPEG/GIF/BMP/TIFF/WebP to PNG
  tinypng raw [options] <input.raw>  Encode raw packed scanlines to PNG

Use "-" as input to read from stdin, "-o -" to write to stdout.

Run "tinypng <command> -h" for command-specific options.
`)
}

// setupLogging routes library and command logs to stderr at INFO, or DEBUG
// when verbose is set.
func setupLogging(verbose bool) {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	format := logging.MustStringFormatter(`%{time:15:04:05.000} %{module} %{level:.4s} %{message}`)
	leveled := logging.AddModuleLevel(logging.NewBackendFormatter(backend, format))
	level := logging.INFO
	if verbose {
		level = logging.DEBUG
	}
	leveled.SetLevel(level, "")
	logging.SetBackend(leveled)
}

func notValidf(format string, args ...interface{}) error {
	return errors.NewNotValid(nil, fmt.Sprintf(format, args...))
}

// openInput returns an io.ReadCloser for the given path.
// If path is "-", stdin is returned (caller should not close).
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// outputPath returns the path to write to: explicit if set, otherwise the
// input's base name with a .png extension.
func outputPath(explicit, input string) string {
	if explicit != "" {
		return explicit
	}
	if input == "-" {
		return "output.png"
	}
	return strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ".png"
}

// --- enc ---

func runEnc(args []string) error {
	fs := flag.NewFlagSet("enc", flag.ContinueOnError)
	optimize := fs.Bool("optimize", false, "drop redundant 16-bit precision and opaque alpha")
	level := fs.String("level", "speed", "compression level: speed/default/best/none")
	verbose := fs.Bool("v", false, "verbose logging")
	output := fs.String("o", "", `output path (default: <input>.png, "-" for stdout)`)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("enc: missing input file\nUsage: tinypng enc [options] <input>")
	}
	setupLogging(*verbose)
	inputPath := fs.Arg(0)

	cl, err := tinypng.ParseCompressionLevel(strings.ToLower(*level))
	if err != nil {
		return errors.Annotate(err, "enc")
	}
	opts := &tinypng.Options{Optimize: *optimize, CompressionLevel: cl}

	in, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	img, kind, err := image.Decode(in)
	if err != nil {
		return errors.Annotate(err, "enc: decoding input")
	}
	log.Debugf("decoded %s input %v", kind, img.Bounds())

	if *output == "-" {
		return tinypng.EncodeImage(os.Stdout, img, opts)
	}

	path := outputPath(*output, inputPath)
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := tinypng.EncodeImage(out, img, opts); err != nil {
		out.Close()
		os.Remove(path)
		return errors.Annotate(err, "enc")
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return err
	}
	report(inputPath, path)
	return nil
}

func report(inputPath, path string) {
	if fi, err := os.Stat(path); err == nil {
		log.Infof("Encoded %s → %s (%d bytes)", inputPath, path, fi.Size())
	}
}

// --- raw ---

var colorTypes = map[string]tinypng.ColorType{
	"gray":    tinypng.Gray,
	"rgb":     tinypng.RGB,
	"indexed": tinypng.Indexed,
	"graya":   tinypng.GrayAlpha,
	"rgba":    tinypng.RGBA,
}

func runRaw(args []string) error {
	fs := flag.NewFlagSet("raw", flag.ContinueOnError)
	width := fs.Int("w", 0, "image width in pixels")
	height := fs.Int("h", 0, "image height in pixels")
	depth := fs.Int("depth", 8, "bits per sample: 1/2/4/8/16")
	colorName := fs.String("color", "rgb", "color type: gray/rgb/indexed/graya/rgba")
	palettePath := fs.String("palette", "", "palette file of raw RGB triples (indexed only)")
	optimize := fs.Bool("optimize", false, "drop redundant 16-bit precision and opaque alpha")
	level := fs.String("level", "speed", "compression level: speed/default/best/none")
	verbose := fs.Bool("v", false, "verbose logging")
	output := fs.String("o", "", `output path (default: <input>.png, "-" for stdout)`)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("raw: missing input file\nUsage: tinypng raw -w W -h H [options] <input.raw>")
	}
	setupLogging(*verbose)
	inputPath := fs.Arg(0)

	ct, ok := colorTypes[strings.ToLower(*colorName)]
	if !ok {
		return notValidf("raw: color type %q (use gray/rgb/indexed/graya/rgba)", *colorName)
	}
	cl, err := tinypng.ParseCompressionLevel(strings.ToLower(*level))
	if err != nil {
		return errors.Annotate(err, "raw")
	}

	f, err := rawFormat(*width, *height, tinypng.BitDepth(*depth), ct, *palettePath)
	if err != nil {
		return errors.Annotate(err, "raw")
	}

	in, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()
	pix, err := io.ReadAll(in)
	if err != nil {
		return errors.Annotate(err, "raw: reading input")
	}

	if *optimize {
		if f, pix, err = tinypng.Optimize(f, pix); err != nil {
			return errors.Annotate(err, "raw")
		}
	}

	if *output == "-" {
		return errors.Trace(encodeRaw(nopCloser{os.Stdout}, f, pix, cl))
	}
	path := outputPath(*output, inputPath)
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encodeRaw(out, f, pix, cl); err != nil {
		os.Remove(path)
		return errors.Annotate(err, "raw")
	}
	report(inputPath, path)
	return nil
}

func rawFormat(w, h int, d tinypng.BitDepth, ct tinypng.ColorType, palettePath string) (tinypng.Format, error) {
	if ct != tinypng.Indexed {
		if palettePath != "" {
			return tinypng.Format{}, notValidf("-palette with color type %s", ct)
		}
		return tinypng.NewFormat(w, h, d, ct)
	}
	if palettePath == "" {
		return tinypng.Format{}, notValidf("indexed color without -palette")
	}
	data, err := os.ReadFile(palettePath)
	if err != nil {
		return tinypng.Format{}, errors.Trace(err)
	}
	if len(data)%3 != 0 {
		return tinypng.Format{}, notValidf("palette file of %d bytes (not a multiple of 3)", len(data))
	}
	colors := make([]tinypng.Color, len(data)/3)
	for i := range colors {
		colors[i] = tinypng.Color{R: data[3*i], G: data[3*i+1], B: data[3*i+2]}
	}
	p, err := tinypng.NewPalette(colors)
	if err != nil {
		return tinypng.Format{}, err
	}
	return tinypng.NewIndexedFormat(w, h, d, p)
}

// encodeRaw runs the encoder stages one by one. Close is always called, so
// out is closed on every path.
func encodeRaw(out io.WriteCloser, f tinypng.Format, pix []byte, cl tinypng.CompressionLevel) (err error) {
	enc, err := tinypng.NewEncoder(out, f, &tinypng.Options{CompressionLevel: cl})
	if err != nil {
		out.Close()
		return err
	}
	defer func() {
		if cerr := enc.Close(); err == nil {
			err = cerr
		}
	}()

	iw, err := enc.WriteHeader()
	if err != nil {
		return err
	}
	return iw.WriteImage(pix)
}

// nopCloser keeps Encoder.Close from closing stdout.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
