package executor

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/AnyUserName/pixedit/internal/edits"
)

// applyCLAHE performs contrast-limited adaptive histogram equalization on
// the luminance channel. The image is divided into tiles of the requested
// pixel size; each tile's histogram is clipped at maxSlope times the
// uniform bin height before equalization, and per-pixel mappings are
// bilinearly interpolated between the four surrounding tile centers to
// avoid visible tile seams.
func applyCLAHE(img image.Image, c edits.CLAHE) image.Image {
	src := imaging.Clone(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	if w == 0 || h == 0 {
		return img
	}

	tileW, tileH := c.Width, c.Height
	if tileW < 1 {
		tileW = 8
	}
	if tileH < 1 {
		tileH = 8
	}
	tilesX := (w + tileW - 1) / tileW
	tilesY := (h + tileH - 1) / tileH

	// Per-tile equalization lookup tables.
	luts := make([][256]float64, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1, y1 := min(x0+tileW, w), min(y0+tileH, h)

			var hist [256]int
			count := 0
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					p := src.NRGBAAt(x, y)
					l := luminance(float64(p.R)/255, float64(p.G)/255, float64(p.B)/255)
					hist[int(l*255+0.5)]++
					count++
				}
			}
			if count == 0 {
				continue
			}

			// Clip at maxSlope x uniform height, redistributing the
			// excess uniformly.
			limit := int(c.MaxSlope * float64(count) / 256)
			if limit < 1 {
				limit = 1
			}
			excess := 0
			for i := range hist {
				if hist[i] > limit {
					excess += hist[i] - limit
					hist[i] = limit
				}
			}
			share := excess / 256
			for i := range hist {
				hist[i] += share
			}

			cum := 0
			for i := range hist {
				cum += hist[i]
				luts[ty*tilesX+tx][i] = float64(cum) / float64(count)
			}
		}
	}

	lutAt := func(tx, ty, bin int) float64 {
		if tx < 0 {
			tx = 0
		}
		if tx >= tilesX {
			tx = tilesX - 1
		}
		if ty < 0 {
			ty = 0
		}
		if ty >= tilesY {
			ty = tilesY - 1
		}
		return luts[ty*tilesX+tx][bin]
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := src.NRGBAAt(x, y)
			r := float64(p.R) / 255
			g := float64(p.G) / 255
			b := float64(p.B) / 255
			l := luminance(r, g, b)
			bin := int(l*255 + 0.5)

			// Position relative to the surrounding tile centers.
			fx := (float64(x) - float64(tileW)/2) / float64(tileW)
			fy := (float64(y) - float64(tileH)/2) / float64(tileH)
			tx0 := int(math.Floor(fx))
			ty0 := int(math.Floor(fy))
			wx := fx - float64(tx0)
			wy := fy - float64(ty0)

			top := lutAt(tx0, ty0, bin)*(1-wx) + lutAt(tx0+1, ty0, bin)*wx
			bot := lutAt(tx0, ty0+1, bin)*(1-wx) + lutAt(tx0+1, ty0+1, bin)*wx
			newL := top*(1-wy) + bot*wy

			// Rescale channels to move luminance toward the equalized
			// value while keeping chroma ratios.
			var scale float64 = 1
			if l > 1e-6 {
				scale = newL / l
			}
			dst.SetNRGBA(x, y, src.NRGBAAt(x, y))
			q := dst.NRGBAAt(x, y)
			q.R = uint8(clampF(r*scale, 0, 1)*255 + 0.5)
			q.G = uint8(clampF(g*scale, 0, 1)*255 + 0.5)
			q.B = uint8(clampF(b*scale, 0, 1)*255 + 0.5)
			dst.SetNRGBA(x, y, q)
		}
	}
	return dst
}
