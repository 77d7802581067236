package encoder

import (
	"bytes"
	"image"
	"image/gif"
)

// GIFEncoder encodes images to GIF. GIF takes no quality parameter; the
// stdlib encoder quantizes to a 256-color palette.
type GIFEncoder struct{}

func (e *GIFEncoder) Format() string    { return "gif" }
func (e *GIFEncoder) Extension() string { return "gif" }
func (e *GIFEncoder) MIME() string      { return "image/gif" }
func (e *GIFEncoder) Available() bool   { return true }

func (e *GIFEncoder) Encode(img image.Image, _ Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := gif.Encode(&buf, img, &gif.Options{NumColors: 256}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
