package encoder

import (
	"bytes"
	"fmt"
	"image"

	webpenc "github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// WebPEncoder encodes images to WebP in-process via libwebp bindings.
// WebP is the default export format, so this is the hottest encoder.
type WebPEncoder struct{}

func (e *WebPEncoder) Format() string    { return "webp" }
func (e *WebPEncoder) Extension() string { return "webp" }
func (e *WebPEncoder) MIME() string      { return "image/webp" }
func (e *WebPEncoder) Available() bool   { return true }

func (e *WebPEncoder) Encode(img image.Image, opts Options) ([]byte, error) {
	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = 80
	}

	wopts, err := webpenc.NewLossyEncoderOptions(webpenc.PresetDefault, float32(quality))
	if err != nil {
		return nil, fmt.Errorf("webp options: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(256 * 1024)
	if err := webp.Encode(&buf, img, wopts); err != nil {
		return nil, fmt.Errorf("webp encode: %w", err)
	}
	return buf.Bytes(), nil
}
