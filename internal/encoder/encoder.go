package encoder

import (
	"image"
)

// Options carries the per-format encode parameters. Each format reads only
// the fields it supports: PNG takes Compression, JPEG/WebP take Quality +
// Progressive, AVIF/TIFF take Quality only, GIF takes nothing.
type Options struct {
	Quality     int  // 1-100, lossy formats
	Progressive bool // JPEG/WebP interlacing
	Compression int  // PNG compression level 0-9
}

// Encoder encodes an image to a specific format.
type Encoder interface {
	// Format returns the output format name (e.g. "jpeg", "webp", "avif").
	Format() string

	// Encode converts the image to bytes with the given options.
	Encode(img image.Image, opts Options) ([]byte, error)

	// Available returns true if the encoder is ready to use.
	Available() bool

	// Extension returns the file extension without dot.
	Extension() string

	// MIME returns the content type of encoded output.
	MIME() string
}
