package executor

import (
	"image"

	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"

	"github.com/AnyUserName/pixedit/internal/edits"
)

// applyFilters runs the pixel-kernel steps in contract order: blur,
// median, sharpen, convolve.
func applyFilters(img image.Image, e edits.ImageEdits) image.Image {
	if e.Blur > 0 {
		img = imaging.Blur(img, e.Blur)
	}

	if e.Median > 0 {
		img = giftDraw(img, gift.Median(e.Median, true))
	}

	if s := e.Sharpen; s.Enabled && s.Sigma > 0 {
		// The m2 "jagged" multiplier maps onto the unsharp amount; the
		// x1 flat threshold keeps smooth areas untouched.
		img = giftDraw(img, gift.UnsharpMask(
			float32(s.Sigma),
			float32(s.M2),
			float32(s.X1/255),
		))
	}

	if c := e.Convolve; c.Enabled && len(c.Kernel) == c.Width*c.Height {
		img = applyConvolve(img, c)
	}

	return img
}

func applyConvolve(img image.Image, c edits.Convolve) image.Image {
	kernel := make([]float32, len(c.Kernel))
	scale := c.Scale
	if scale == 0 {
		scale = 1
	}
	for i, v := range c.Kernel {
		kernel[i] = float32(v / scale)
	}
	return giftDraw(img, gift.Convolution(
		kernel,
		false, // weights already scaled
		false, // leave alpha alone
		false,
		float32(c.Offset/255),
	))
}
