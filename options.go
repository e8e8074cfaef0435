package tinypng

import "github.com/klauspost/compress/zlib"

// CompressionLevel trades encoding speed for output size.
type CompressionLevel int

const (
	BestSpeed          CompressionLevel = 0 // fastest deflate level (default)
	DefaultCompression CompressionLevel = 1
	BestCompression    CompressionLevel = 2
	NoCompression      CompressionLevel = 3 // stored deflate blocks
)

func (l CompressionLevel) zlib() (int, bool) {
	switch l {
	case BestSpeed:
		return zlib.BestSpeed, true
	case DefaultCompression:
		return zlib.DefaultCompression, true
	case BestCompression:
		return zlib.BestCompression, true
	case NoCompression:
		return zlib.NoCompression, true
	}
	return 0, false
}

// String returns the level name.
func (l CompressionLevel) String() string {
	switch l {
	case BestSpeed:
		return "speed"
	case DefaultCompression:
		return "default"
	case BestCompression:
		return "best"
	case NoCompression:
		return "none"
	}
	return "invalid"
}

// ParseCompressionLevel maps a level name ("speed", "default", "best",
// "none") to its CompressionLevel.
func ParseCompressionLevel(s string) (CompressionLevel, error) {
	for _, l := range [...]CompressionLevel{BestSpeed, DefaultCompression, BestCompression, NoCompression} {
		if l.String() == s {
			return l, nil
		}
	}
	return 0, notValidf("tinypng: compression level %q", s)
}

// Options controls PNG encoding.
type Options struct {
	// Optimize enables the lossless reductions of Optimize before encoding:
	// 16-bit samples whose two bytes match become 8-bit, and an alpha
	// channel that is opaque everywhere is dropped. The written Format may
	// then differ from the one passed in. Only used by Encode and
	// EncodeImage.
	Optimize bool

	// CompressionLevel selects the deflate effort. The zero value is
	// BestSpeed.
	CompressionLevel CompressionLevel
}

// DefaultOptions returns options for the fastest encode without
// optimization.
func DefaultOptions() *Options {
	return &Options{
		Optimize:         false,
		CompressionLevel: BestSpeed,
	}
}

// validateOptions returns an error describing the first invalid field of
// opts, or nil.
func validateOptions(opts *Options) error {
	if _, ok := opts.CompressionLevel.zlib(); !ok {
		return notValidf("tinypng: compression level %d", int(opts.CompressionLevel))
	}
	return nil
}

// resolveOptions substitutes defaults for nil and validates the result.
func resolveOptions(opts *Options) (*Options, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	return opts, nil
}
