package encoder

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

func solidImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 80, G: 120, B: 200, A: 255})
		}
	}
	return img
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	for _, f := range []string{"png", "jpeg", "gif", "tiff"} {
		if r.Get(f) == nil {
			t.Errorf("encoder for %s missing", f)
		}
	}
	if r.Get("heic") != nil {
		t.Error("unknown format should return nil")
	}
	// Lookup is case-insensitive.
	if r.Get("PNG") == nil {
		t.Error("lookup should be case-insensitive")
	}
}

func TestStdlibEncodersRoundTrip(t *testing.T) {
	r := NewRegistry()
	img := solidImage(16, 16)

	for _, f := range []string{"png", "jpeg", "gif", "tiff"} {
		enc := r.Get(f)
		data, err := enc.Encode(img, Options{Quality: 80})
		if err != nil {
			t.Errorf("%s encode: %v", f, err)
			continue
		}
		decoded, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			t.Errorf("%s decode back: %v", f, err)
			continue
		}
		b := decoded.Bounds()
		if b.Dx() != 16 || b.Dy() != 16 {
			t.Errorf("%s: got %dx%d, want 16x16", f, b.Dx(), b.Dy())
		}
	}
}

func TestPNGQualityIgnored(t *testing.T) {
	enc := &PNGEncoder{}
	img := solidImage(8, 8)
	a, err := enc.Encode(img, Options{Quality: 10})
	if err != nil {
		t.Fatal(err)
	}
	b, err := enc.Encode(img, Options{Quality: 90})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("PNG output should not depend on quality")
	}
}
