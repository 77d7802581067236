package executor

import (
	"image/color"
	"math"
)

// blendChannel combines one source (overlay) and one backdrop channel,
// both in [0,1].
type blendChannel func(b, s float64) float64

// blendFunc maps a blend-mode name to its separable channel function.
// Modes with no separable channel form fall back to normal source-over.
func blendFunc(mode string) blendChannel {
	switch mode {
	case "add":
		return func(b, s float64) float64 { return clampF(b+s, 0, 1) }
	case "multiply":
		return func(b, s float64) float64 { return b * s }
	case "screen":
		return func(b, s float64) float64 { return b + s - b*s }
	case "overlay":
		return func(b, s float64) float64 {
			if b <= 0.5 {
				return 2 * b * s
			}
			return 1 - 2*(1-b)*(1-s)
		}
	case "darken":
		return math.Min
	case "lighten":
		return math.Max
	case "difference":
		return func(b, s float64) float64 { return math.Abs(b - s) }
	case "exclusion":
		return func(b, s float64) float64 { return b + s - 2*b*s }
	case "colour-dodge":
		return func(b, s float64) float64 {
			if s >= 1 {
				return 1
			}
			return clampF(b/(1-s), 0, 1)
		}
	case "colour-burn":
		return func(b, s float64) float64 {
			if s <= 0 {
				return 0
			}
			return 1 - clampF((1-b)/s, 0, 1)
		}
	case "hard-light":
		return func(b, s float64) float64 {
			if s <= 0.5 {
				return 2 * b * s
			}
			return 1 - 2*(1-b)*(1-s)
		}
	default: // over, source, dest-over and the rest
		return nil
	}
}

// blendPixel composites an overlay pixel onto a backdrop pixel: the mode's
// channel function mixes the colors, then standard source-over alpha
// compositing applies the overlay's coverage.
func blendPixel(backdrop, overlay color.NRGBA, mode blendChannel) color.NRGBA {
	sa := float64(overlay.A) / 255
	if sa == 0 {
		return backdrop
	}
	ba := float64(backdrop.A) / 255

	mix := func(b, s float64) float64 {
		if mode != nil {
			s = mode(b, s)
		}
		return s
	}

	br := float64(backdrop.R) / 255
	bg := float64(backdrop.G) / 255
	bb := float64(backdrop.B) / 255
	sr := mix(br, float64(overlay.R)/255)
	sg := mix(bg, float64(overlay.G)/255)
	sb := mix(bb, float64(overlay.B)/255)

	outA := sa + ba*(1-sa)
	if outA == 0 {
		return color.NRGBA{}
	}
	out := func(s, b float64) uint8 {
		v := (s*sa + b*ba*(1-sa)) / outA
		return uint8(clampF(v, 0, 1)*255 + 0.5)
	}
	return color.NRGBA{
		R: out(sr, br),
		G: out(sg, bg),
		B: out(sb, bb),
		A: uint8(clampF(outA, 0, 1)*255 + 0.5),
	}
}
