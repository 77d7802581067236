package encoder

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

// noiseImage produces an incompressible image via a small LCG so JPEG
// sizes vary meaningfully with quality.
func noiseImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	state := uint32(12345)
	next := func() uint8 {
		state = state*1664525 + 1013904223
		return uint8(state >> 24)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: next(), G: next(), B: next(), A: 255})
		}
	}
	return img
}

func TestEncodeToTargetReachable(t *testing.T) {
	enc := &JPEGEncoder{}
	img := noiseImage(256, 256)

	// A generous target is satisfied at the starting quality.
	data, quality, err := EncodeToTarget(enc, img, Options{Quality: 80}, 10*1024)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(data) > 10*1024*1024 {
		t.Errorf("size %d exceeds target", len(data))
	}
	if quality < targetFloorQuality || quality > targetStartQuality {
		t.Errorf("quality %d outside search range", quality)
	}
}

func TestEncodeToTargetUnreachableReturnsSmallest(t *testing.T) {
	enc := &JPEGEncoder{}
	img := noiseImage(256, 256)

	// 1 KB is below the floor-quality minimum for incompressible noise.
	data, quality, err := EncodeToTarget(enc, img, Options{Quality: 80}, 1)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if quality != targetFloorQuality {
		t.Errorf("unreachable target should land at the floor, got q%d", quality)
	}

	floor, err := enc.Encode(img, Options{Quality: targetFloorQuality})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, floor) {
		t.Error("result is not the floor-quality encode")
	}
}

func TestEncodeToTargetDeterministic(t *testing.T) {
	enc := &JPEGEncoder{}
	img := noiseImage(128, 128)

	a, qa, err := EncodeToTarget(enc, img, Options{Quality: 80}, 4)
	if err != nil {
		t.Fatal(err)
	}
	b, qb, err := EncodeToTarget(enc, img, Options{Quality: 80}, 4)
	if err != nil {
		t.Fatal(err)
	}
	if qa != qb || !bytes.Equal(a, b) {
		t.Error("target-size encoding is not deterministic")
	}
}

func TestEncodeToTargetIgnoredForQualitylessFormats(t *testing.T) {
	enc := &PNGEncoder{}
	img := noiseImage(64, 64)

	single, err := enc.Encode(img, Options{})
	if err != nil {
		t.Fatal(err)
	}
	data, _, err := EncodeToTarget(enc, img, Options{}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(single, data) {
		t.Error("PNG should encode once, ignoring the target")
	}
}

func TestCanTargetSize(t *testing.T) {
	for _, f := range []string{"jpeg", "webp", "avif"} {
		if !CanTargetSize(f) {
			t.Errorf("%s should be target-size capable", f)
		}
	}
	for _, f := range []string{"png", "gif", "tiff"} {
		if CanTargetSize(f) {
			t.Errorf("%s should not be target-size capable", f)
		}
	}
}
