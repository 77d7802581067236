package executor

import (
	"image"
	"math"

	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"

	"github.com/AnyUserName/pixedit/internal/edits"
)

// applyColor runs the color portion of the pipeline in contract order:
// colorspace, gamma, normalize, CLAHE, linear, modulate (or the legacy
// scalar path), tint, threshold, negate, grayscale.
//
// The working space is 8-bit sRGB throughout, so pipelineColorspace has no
// observable effect and is accepted without acting on it.
func applyColor(img image.Image, e edits.ImageEdits) image.Image {
	switch e.ToColorspace {
	case "b-w", "grey16":
		img = imaging.Grayscale(img)
	}

	if e.Gamma != 1.0 {
		img = imaging.AdjustGamma(img, e.Gamma)
	}

	if e.Normalize {
		img = normalizeHistogram(img)
	}

	if e.CLAHE.Enabled {
		img = applyCLAHE(img, e.CLAHE)
	}

	if e.Linear.Enabled {
		img = applyLinear(img, e.Linear)
	}

	if e.Modulate.Enabled {
		img = applyModulate(img, e.Modulate)
	} else if e.Brightness != 0 || e.Contrast != 0 || e.Saturation != 0 || e.Hue != 0 {
		img = applyLegacyColor(img, e)
	}

	if e.Tint.Enabled {
		img = applyTint(img, e.Tint)
	}

	if e.Threshold.Enabled {
		img = applyThreshold(img, e.Threshold)
	}

	if e.Negate {
		img = imaging.Invert(img)
	}

	if e.Grayscale {
		img = imaging.Grayscale(img)
	}

	return img
}

func giftDraw(img image.Image, filters ...gift.Filter) image.Image {
	g := gift.New(filters...)
	dst := image.NewNRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst
}

// normalizeHistogram linearly stretches each channel so the darkest
// luminance maps to 0 and the brightest to 1.
func normalizeHistogram(img image.Image) image.Image {
	src := imaging.Clone(img)
	b := src.Bounds()

	lo, hi := 1.0, 0.0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			p := src.NRGBAAt(x, y)
			l := luminance(float64(p.R)/255, float64(p.G)/255, float64(p.B)/255)
			if l < lo {
				lo = l
			}
			if l > hi {
				hi = l
			}
		}
	}
	if hi-lo < 1e-6 {
		return img
	}

	scale := float32(1 / (hi - lo))
	offset := float32(lo)
	return giftDraw(src, gift.ColorFunc(func(r, g, bl, a float32) (float32, float32, float32, float32) {
		return clamp01((r - offset) * scale),
			clamp01((g - offset) * scale),
			clamp01((bl - offset) * scale),
			a
	}))
}

func applyLinear(img image.Image, l edits.Linear) image.Image {
	m := float32(l.Multiplier)
	// The offset is in 0-255 channel units on the wire.
	off := float32(l.Offset / 255)
	return giftDraw(img, gift.ColorFunc(func(r, g, b, a float32) (float32, float32, float32, float32) {
		return clamp01(r*m + off), clamp01(g*m + off), clamp01(b*m + off), a
	}))
}

// applyModulate adjusts brightness and saturation multiplicatively,
// rotates hue in degrees, and shifts lightness additively, all in HSL.
func applyModulate(img image.Image, m edits.Modulate) image.Image {
	hueShift := m.Hue / 360
	return giftDraw(img, gift.ColorFunc(func(r, g, b, a float32) (float32, float32, float32, float32) {
		h, s, l := rgbToHSL(float64(r), float64(g), float64(b))
		h = math.Mod(h+hueShift+1, 1)
		s = clampF(s*m.Saturation, 0, 1)
		l = clampF(l*m.Brightness+m.Lightness/100, 0, 1)
		nr, ng, nb := hslToRGB(h, s, l)
		return float32(nr), float32(ng), float32(nb), a
	}))
}

// applyLegacyColor converts the scalar brightness/contrast/saturation/hue
// sliders into pipeline operations: brightness and saturation become
// multiplicative modulate factors (1 + pct/100), hue passes through in
// degrees, and contrast is applied as a dedicated contrast adjustment.
func applyLegacyColor(img image.Image, e edits.ImageEdits) image.Image {
	if e.Brightness != 0 || e.Saturation != 0 || e.Hue != 0 {
		img = applyModulate(img, edits.Modulate{
			Brightness: 1 + float64(e.Brightness)/100,
			Saturation: 1 + float64(e.Saturation)/100,
			Hue:        float64(e.Hue),
		})
	}
	if e.Contrast != 0 {
		img = imaging.AdjustContrast(img, float64(e.Contrast))
	}
	return img
}

// applyTint scales each channel toward the tint color.
func applyTint(img image.Image, t edits.Tint) image.Image {
	tr := float32(t.R) / 255
	tg := float32(t.G) / 255
	tb := float32(t.B) / 255
	return giftDraw(img, gift.ColorFunc(func(r, g, b, a float32) (float32, float32, float32, float32) {
		return clamp01(r * tr), clamp01(g * tg), clamp01(b * tb), a
	}))
}

// applyThreshold binarizes at the given 0-255 cutoff: against luminance
// when the grayscale flag is set, per channel otherwise.
func applyThreshold(img image.Image, t edits.Threshold) image.Image {
	cut := float32(t.Value) / 255
	if t.Grayscale {
		return giftDraw(img, gift.ColorFunc(func(r, g, b, a float32) (float32, float32, float32, float32) {
			l := float32(luminance(float64(r), float64(g), float64(b)))
			v := step(l, cut)
			return v, v, v, a
		}))
	}
	return giftDraw(img, gift.ColorFunc(func(r, g, b, a float32) (float32, float32, float32, float32) {
		return step(r, cut), step(g, cut), step(b, cut), a
	}))
}

func step(v, cut float32) float32 {
	if v >= cut {
		return 1
	}
	return 0
}

func luminance(r, g, b float64) float64 {
	return 0.299*r + 0.587*g + 0.114*b
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// rgbToHSL and hslToRGB convert between sRGB in [0,1] and HSL with hue
// normalized to [0,1).
func rgbToHSL(r, g, b float64) (h, s, l float64) {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	l = (max + min) / 2

	if max == min {
		return 0, 0, l
	}

	d := max - min
	if l > 0.5 {
		s = d / (2 - max - min)
	} else {
		s = d / (max + min)
	}

	switch max {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	h /= 6
	return h, s, l
}

func hslToRGB(h, s, l float64) (r, g, b float64) {
	if s == 0 {
		return l, l, l
	}

	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q

	return hueToRGB(p, q, h+1.0/3), hueToRGB(p, q, h), hueToRGB(p, q, h-1.0/3)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	default:
		return p
	}
}
