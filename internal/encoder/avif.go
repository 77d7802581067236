package encoder

import (
	"bytes"
	"fmt"
	"image"

	"github.com/gen2brain/avif"
)

// AVIFEncoder encodes images to AVIF via a bundled wasm codec, so no
// external avifenc binary is required.
type AVIFEncoder struct{}

func (e *AVIFEncoder) Format() string    { return "avif" }
func (e *AVIFEncoder) Extension() string { return "avif" }
func (e *AVIFEncoder) MIME() string      { return "image/avif" }
func (e *AVIFEncoder) Available() bool   { return true }

func (e *AVIFEncoder) Encode(img image.Image, opts Options) ([]byte, error) {
	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = 80
	}

	var buf bytes.Buffer
	err := avif.Encode(&buf, img, avif.Options{
		Quality: quality,
		Speed:   6, // 0=slowest/best, 10=fastest
	})
	if err != nil {
		return nil, fmt.Errorf("avif encode: %w", err)
	}
	return buf.Bytes(), nil
}
