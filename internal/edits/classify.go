package edits

import "time"

// Debounce intervals before the full pipeline re-runs. Live-only changes
// use the short interval so slider drags feel immediate; anything
// geometry- or kernel-touching waits longer to coalesce work.
const (
	LiveDebounce = 50 * time.Millisecond
	SlowDebounce = 300 * time.Millisecond
)

// IsLiveOnly reports whether every active operation is approximable by a
// cheap compositing filter over the unmodified base image: only the legacy
// brightness/contrast/saturation scalars and the grayscale toggle qualify,
// and no geometry-altering or pixel-kernel operation may be active.
//
// Classification is advisory only. It picks the debounce interval and
// whether a cheap preview may be shown; the full executor's output is the
// only save-eligible result.
func IsLiveOnly(e ImageEdits) bool {
	if e.Rotation != 0 || e.FlipHorizontal || e.FlipVertical {
		return false
	}
	if e.Width > 0 || e.Height > 0 || e.Crop.Enabled {
		return false
	}
	if e.Blur > 0 || e.Sharpen.Enabled || e.Median > 0 {
		return false
	}
	if e.Hue != 0 || e.Tint.Enabled || e.Negate ||
		e.Gamma != 1.0 || e.Normalize ||
		e.CLAHE.Enabled || e.Linear.Enabled || e.Threshold.Enabled ||
		e.Modulate.Enabled || e.Composite.Enabled || e.Extend.Enabled ||
		e.Trim.Enabled || e.Affine.Enabled || e.Convolve.Enabled {
		return false
	}
	return e.Brightness != 0 || e.Contrast != 0 || e.Saturation != 0 || e.Grayscale
}

// HasServerSideEdits reports whether the descriptor needs the full
// pipeline at all: anything a client-side compositing preview cannot
// produce on its own.
func HasServerSideEdits(e ImageEdits) bool {
	return e.HasEdits() && !IsLiveOnly(e)
}

// DebounceFor returns the delay before the executor should run for the
// given descriptor.
func DebounceFor(e ImageEdits) time.Duration {
	if IsLiveOnly(e) {
		return LiveDebounce
	}
	return SlowDebounce
}
