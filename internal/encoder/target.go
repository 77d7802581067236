package encoder

import (
	"fmt"
	"image"
)

// Target-size search bounds. The quality range and step cap the loop at
// (startQuality-floorQuality)/step + 1 = 9 encodes.
const (
	targetStartQuality = 90
	targetFloorQuality = 10
	targetQualityStep  = 10
)

// CanTargetSize reports whether a format's quality knob moves its output
// size, making it eligible for target-size encoding.
func CanTargetSize(format string) bool {
	switch format {
	case "jpeg", "webp", "avif":
		return true
	}
	return false
}

// EncodeToTarget re-encodes img at decreasing quality until the output is
// at or under targetKB kilobytes or the quality floor is reached. It
// returns the best result found: closest under the target, else the
// smallest overall. Deterministic for fixed inputs; never more than nine
// encode passes.
//
// Formats without a usable quality parameter are encoded once with the
// given options.
func EncodeToTarget(enc Encoder, img image.Image, opts Options, targetKB int) ([]byte, int, error) {
	if targetKB <= 0 || !CanTargetSize(enc.Format()) {
		data, err := enc.Encode(img, opts)
		return data, opts.Quality, err
	}

	targetBytes := targetKB * 1024

	var best []byte
	bestQuality := 0

	for quality := targetStartQuality; quality >= targetFloorQuality; quality -= targetQualityStep {
		opts.Quality = quality
		data, err := enc.Encode(img, opts)
		if err != nil {
			return nil, 0, fmt.Errorf("encode %s at q%d: %w", enc.Format(), quality, err)
		}

		// Track the smallest result so an unreachable target still
		// returns the best the floor can do.
		if best == nil || len(data) < len(best) {
			best = data
			bestQuality = quality
		}

		if len(data) <= targetBytes {
			return data, quality, nil
		}
	}

	return best, bestQuality, nil
}
