package executor

import (
	"image"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/AnyUserName/pixedit/internal/edits"
)

// applyAffine maps the source through the 2x2 matrix [a b; c d], sizing
// the output to the transformed bounding box and filling uncovered areas
// with the background color. A singular matrix is skipped.
func applyAffine(img image.Image, a edits.Affine) image.Image {
	m := a.Matrix
	if len(m) != 4 {
		return img
	}
	if m[0]*m[3]-m[1]*m[2] == 0 {
		return img
	}

	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())

	// Transformed corners give the output bounding box.
	xs := []float64{0, m[0] * w, m[1] * h, m[0]*w + m[1]*h}
	ys := []float64{0, m[2] * w, m[3] * h, m[2]*w + m[3]*h}
	minX, maxX := minMax(xs)
	minY, maxY := minMax(ys)

	outW := int(math.Ceil(maxX - minX))
	outH := int(math.Ceil(maxY - minY))
	if outW <= 0 || outH <= 0 {
		return img
	}

	dst := image.NewNRGBA(image.Rect(0, 0, outW, outH))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(nrgbaColor(a.Background)),
		image.Point{}, draw.Src)

	// f64.Aff3 is the source-to-destination transform; translate so the
	// transformed content lands at the origin.
	aff := f64.Aff3{
		m[0], m[1], -minX,
		m[2], m[3], -minY,
	}
	interpolatorFor(a.Interpolator).Transform(dst, aff, img, b, xdraw.Over, nil)
	return dst
}

func interpolatorFor(name string) xdraw.Transformer {
	switch name {
	case "nearest":
		return xdraw.NearestNeighbor
	case "bilinear":
		return xdraw.BiLinear
	default: // bicubic, nohalo, lbb, vsqbs
		return xdraw.CatmullRom
	}
}

func minMax(vs []float64) (lo, hi float64) {
	lo, hi = vs[0], vs[0]
	for _, v := range vs[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
