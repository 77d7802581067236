package encoder

import (
	"bytes"
	"image"

	"golang.org/x/image/tiff"
)

// TIFFEncoder encodes images to deflate-compressed TIFF. The format's
// quality parameter only selects between compressed and uncompressed
// output here; TIFF is not eligible for target-size search.
type TIFFEncoder struct{}

func (e *TIFFEncoder) Format() string    { return "tiff" }
func (e *TIFFEncoder) Extension() string { return "tiff" }
func (e *TIFFEncoder) MIME() string      { return "image/tiff" }
func (e *TIFFEncoder) Available() bool   { return true }

func (e *TIFFEncoder) Encode(img image.Image, opts Options) ([]byte, error) {
	compression := tiff.Deflate
	if opts.Quality >= 100 {
		compression = tiff.Uncompressed
	}

	var buf bytes.Buffer
	err := tiff.Encode(&buf, img, &tiff.Options{
		Compression: compression,
		Predictor:   true,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
