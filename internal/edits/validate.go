package edits

import "fmt"

// ValidationError marks a descriptor parameter outside its contract range.
// Structural problems are rejected here, before execution, never silently
// coerced.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

var resizeFits = map[string]bool{
	"cover": true, "contain": true, "fill": true, "inside": true, "outside": true,
}

var resizePositions = map[string]bool{
	"centre": true, "top": true, "right top": true, "right": true,
	"right bottom": true, "bottom": true, "left bottom": true, "left": true,
	"left top": true,
}

var resizeKernels = map[string]bool{
	"nearest": true, "linear": true, "cubic": true, "mitchell": true,
	"lanczos2": true, "lanczos3": true,
}

var exportFormats = map[string]bool{
	"png": true, "jpeg": true, "webp": true, "avif": true, "tiff": true,
	"gif": true, "original": true,
}

var blendModes = map[string]bool{
	"clear": true, "source": true, "over": true, "in": true, "out": true,
	"atop": true, "dest": true, "dest-over": true, "dest-in": true,
	"dest-out": true, "dest-atop": true, "xor": true, "add": true,
	"saturate": true, "multiply": true, "screen": true, "overlay": true,
	"darken": true, "lighten": true, "colour-dodge": true, "colour-burn": true,
	"hard-light": true, "soft-light": true, "difference": true, "exclusion": true,
}

var gravities = map[string]bool{
	"north": true, "northeast": true, "east": true, "southeast": true,
	"south": true, "southwest": true, "west": true, "northwest": true,
	"center": true, "centre": true,
}

var interpolators = map[string]bool{
	"nearest": true, "bilinear": true, "bicubic": true, "nohalo": true,
	"lbb": true, "vsqbs": true,
}

var colorspaces = map[string]bool{
	"srgb": true, "rgb": true, "b-w": true, "grey16": true,
}

// Validate checks every parameter against its contract range. The first
// violation is returned as a *ValidationError.
func (e ImageEdits) Validate() error {
	if e.Rotation%90 != 0 {
		// Free-angle rotation is disabled: only lossless 90-degree
		// transposes are supported.
		return invalid("rotation", "must be a multiple of 90, got %d", e.Rotation)
	}
	if e.Width < 0 || e.Height < 0 {
		return invalid("resize", "negative dimensions %dx%d", e.Width, e.Height)
	}
	if e.ResizeFit != "" && !resizeFits[e.ResizeFit] {
		return invalid("resizeFit", "unknown fit %q", e.ResizeFit)
	}
	if e.ResizePosition != "" && !resizePositions[e.ResizePosition] {
		return invalid("resizePosition", "unknown position %q", e.ResizePosition)
	}
	if e.ResizeKernel != "" && !resizeKernels[e.ResizeKernel] {
		return invalid("resizeKernel", "unknown kernel %q", e.ResizeKernel)
	}

	if c := e.Crop; c.Enabled {
		if c.Width < 0 || c.Height < 0 {
			return invalid("crop", "negative span %gx%g", c.Width, c.Height)
		}
		if c.X < 0 || c.Y < 0 || c.X > 1 || c.Y > 1 || c.Width > 1 || c.Height > 1 {
			return invalid("crop", "coordinates must be in [0,1]")
		}
		if c.X+c.Width > 1 || c.Y+c.Height > 1 {
			return invalid("crop", "rectangle exceeds image bounds")
		}
	}

	if e.Blur < 0 {
		return invalid("blur", "sigma must be >= 0, got %g", e.Blur)
	}
	if e.Median < 0 {
		return invalid("median", "kernel size must be >= 0, got %d", e.Median)
	}
	if e.Median > 0 && e.Median%2 == 0 {
		return invalid("median", "kernel size must be odd, got %d", e.Median)
	}
	if e.Gamma < 1.0 || e.Gamma > 3.0 {
		return invalid("gamma", "must be in [1.0, 3.0], got %g", e.Gamma)
	}
	if e.Sharpen.Enabled && e.Sharpen.Sigma <= 0 {
		return invalid("sharpen", "sigma must be > 0, got %g", e.Sharpen.Sigma)
	}
	if e.CLAHE.Enabled && (e.CLAHE.Width < 1 || e.CLAHE.Height < 1) {
		return invalid("clahe", "tile size must be >= 1")
	}
	if e.Threshold.Enabled && (e.Threshold.Value < 0 || e.Threshold.Value > 255) {
		return invalid("threshold", "value must be in [0,255], got %d", e.Threshold.Value)
	}

	if e.Composite.Enabled {
		if e.Composite.Blend != "" && !blendModes[e.Composite.Blend] {
			return invalid("composite.blend", "unknown mode %q", e.Composite.Blend)
		}
		if e.Composite.Gravity != "" && !gravities[e.Composite.Gravity] {
			return invalid("composite.gravity", "unknown gravity %q", e.Composite.Gravity)
		}
	}

	if x := e.Extend; x.Enabled {
		if x.Top < 0 || x.Bottom < 0 || x.Left < 0 || x.Right < 0 {
			return invalid("extend", "margins must be >= 0")
		}
	}

	if a := e.Affine; a.Enabled {
		if len(a.Matrix) != 4 {
			return invalid("affine.matrix", "need 4 elements, got %d", len(a.Matrix))
		}
		if a.Interpolator != "" && !interpolators[a.Interpolator] {
			return invalid("affine.interpolator", "unknown interpolator %q", a.Interpolator)
		}
	}

	if c := e.Convolve; c.Enabled {
		if c.Width < 1 || c.Height < 1 {
			return invalid("convolve", "kernel dimensions must be >= 1")
		}
		if len(c.Kernel) != c.Width*c.Height {
			return invalid("convolve.kernel", "need %d weights, got %d",
				c.Width*c.Height, len(c.Kernel))
		}
	}

	if e.Quality < 1 || e.Quality > 100 {
		return invalid("quality", "must be in [1,100], got %d", e.Quality)
	}
	if e.ExportFormat != "" && !exportFormats[e.ExportFormat] {
		return invalid("exportFormat", "unknown format %q", e.ExportFormat)
	}
	if e.DownloadTargetKB < 0 {
		return invalid("downloadTargetKB", "must be >= 0, got %d", e.DownloadTargetKB)
	}
	if e.ToColorspace != "" && !colorspaces[e.ToColorspace] {
		return invalid("toColorspace", "unsupported colorspace %q", e.ToColorspace)
	}

	return nil
}
