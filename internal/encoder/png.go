package encoder

import (
	"bytes"
	"image"
	"image/png"
)

// PNGEncoder encodes images to PNG using Go's standard library. PNG is the
// lossless fallback and the forced format when rotation is applied without
// an explicit export format.
type PNGEncoder struct{}

func (e *PNGEncoder) Format() string    { return "png" }
func (e *PNGEncoder) Extension() string { return "png" }
func (e *PNGEncoder) MIME() string      { return "image/png" }
func (e *PNGEncoder) Available() bool   { return true }

func (e *PNGEncoder) Encode(img image.Image, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(512 * 1024) // pre-alloc 512KB

	enc := &png.Encoder{CompressionLevel: compressionLevel(opts.Compression)}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// compressionLevel maps the 0-9 zlib-style level from the descriptor onto
// the three levels the stdlib encoder distinguishes.
func compressionLevel(level int) png.CompressionLevel {
	switch {
	case level <= 0:
		return png.DefaultCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}
