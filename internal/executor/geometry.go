package executor

import (
	"bytes"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/AnyUserName/pixedit/internal/edits"
)

// autoOrient applies the embedded EXIF orientation so all later spatial
// operations see an upright image. Missing or unreadable EXIF data is
// treated as orientation 1.
func autoOrient(img image.Image, src []byte) image.Image {
	meta, err := exif.Decode(bytes.NewReader(src))
	if err != nil {
		return img
	}
	tag, err := meta.Get(exif.Orientation)
	if err != nil {
		return img
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return img
	}

	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img) // 90 clockwise
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img) // 90 counter-clockwise
	}
	return img
}

// rotateQuarter applies a clockwise rotation in 90-degree steps via
// lossless, dimension-exact transposes. Validation already rejected
// anything that is not a multiple of 90.
func rotateQuarter(img image.Image, degrees int) image.Image {
	switch ((degrees % 360) + 360) % 360 {
	case 90:
		return imaging.Rotate270(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate90(img)
	}
	return img
}

func applyFlips(img image.Image, e edits.ImageEdits) image.Image {
	if e.FlipHorizontal {
		img = imaging.FlipH(img)
	}
	if e.FlipVertical {
		img = imaging.FlipV(img)
	}
	return img
}

// applyCrop resolves the normalized rectangle against the current pixel
// dimensions. A rectangle that rounds to zero area or falls outside the
// bounds is silently skipped rather than destroying the image.
func applyCrop(img image.Image, c edits.Crop) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	cropW := int(math.Round(float64(w) * c.Width))
	cropH := int(math.Round(float64(h) * c.Height))
	cropX := int(math.Round(float64(w) * c.X))
	cropY := int(math.Round(float64(h) * c.Y))

	if cropW <= 0 || cropH <= 0 || cropX < 0 || cropY < 0 ||
		cropX+cropW > w || cropY+cropH > h {
		return img
	}

	rect := image.Rect(b.Min.X+cropX, b.Min.Y+cropY,
		b.Min.X+cropX+cropW, b.Min.Y+cropY+cropH)
	return imaging.Crop(img, rect)
}

func applyExtend(img image.Image, x edits.Extend) image.Image {
	b := img.Bounds()
	bg := nrgbaColor(x.Background)
	canvas := imaging.New(b.Dx()+x.Left+x.Right, b.Dy()+x.Top+x.Bottom, bg)
	return imaging.Paste(canvas, img, image.Pt(x.Left, x.Top))
}

// applyTrim removes borders whose pixels stay within the per-channel
// threshold of the top-left corner color. Trimming everything degrades to
// a no-op.
func applyTrim(img image.Image, t edits.Trim) image.Image {
	src := imaging.Clone(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	if w == 0 || h == 0 {
		return img
	}

	ref := src.NRGBAAt(0, 0)
	within := func(x, y int) bool {
		p := src.NRGBAAt(x, y)
		return chanDelta(p.R, ref.R) <= t.Threshold &&
			chanDelta(p.G, ref.G) <= t.Threshold &&
			chanDelta(p.B, ref.B) <= t.Threshold
	}
	rowUniform := func(y int) bool {
		for x := 0; x < w; x++ {
			if !within(x, y) {
				return false
			}
		}
		return true
	}
	colUniform := func(x, top, bottom int) bool {
		for y := top; y < bottom; y++ {
			if !within(x, y) {
				return false
			}
		}
		return true
	}

	top, bottom := 0, h
	for top < bottom && rowUniform(top) {
		top++
	}
	for bottom > top && rowUniform(bottom-1) {
		bottom--
	}
	left, right := 0, w
	for left < right && colUniform(left, top, bottom) {
		left++
	}
	for right > left && colUniform(right-1, top, bottom) {
		right--
	}

	if top == 0 && left == 0 && bottom == h && right == w {
		return img
	}
	if right <= left || bottom <= top {
		return img
	}
	return imaging.Crop(src, image.Rect(left, top, right, bottom))
}

func chanDelta(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		d = -d
	}
	return d
}

// applyResize honors the descriptor's fit mode, anchor, and kernel. When
// the aspect ratio is unlocked the fit is forced to fill: an unlocked
// ratio means the user wants exact dimensions.
func applyResize(img image.Image, e edits.ImageEdits) image.Image {
	if e.Width <= 0 && e.Height <= 0 {
		return img
	}

	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()

	targetW, targetH := e.Width, e.Height
	if e.Unit == "%" {
		targetW = int(math.Round(float64(srcW) * float64(e.Width) / 100))
		targetH = int(math.Round(float64(srcH) * float64(e.Height) / 100))
	}

	// Resolve a zero axis proportionally before the guards so a
	// single-axis request still compares a full rectangle.
	guardW, guardH := targetW, targetH
	if guardW <= 0 && guardH > 0 {
		guardW = int(math.Round(float64(srcW) * float64(guardH) / float64(srcH)))
	}
	if guardH <= 0 && guardW > 0 {
		guardH = int(math.Round(float64(srcH) * float64(guardW) / float64(srcW)))
	}

	if e.WithoutEnlargement && guardW >= srcW && guardH >= srcH &&
		(guardW > srcW || guardH > srcH) {
		return img
	}
	if e.WithoutReduction && guardW <= srcW && guardH <= srcH &&
		(guardW < srcW || guardH < srcH) {
		return img
	}

	filter := resampleFilter(e.ResizeKernel)

	// One axis zero: plain proportional resize, fit mode is irrelevant.
	if targetW <= 0 || targetH <= 0 {
		if targetW < 0 {
			targetW = 0
		}
		if targetH < 0 {
			targetH = 0
		}
		return imaging.Resize(img, targetW, targetH, filter)
	}

	fit := e.ResizeFit
	if !e.AspectRatioLocked {
		fit = "fill"
	}

	switch fit {
	case "fill":
		return imaging.Resize(img, targetW, targetH, filter)
	case "contain", "inside":
		return imaging.Fit(img, targetW, targetH, filter)
	case "outside":
		// Scale so both axes cover the target, without cropping.
		scale := math.Max(float64(targetW)/float64(srcW), float64(targetH)/float64(srcH))
		w := int(math.Round(float64(srcW) * scale))
		h := int(math.Round(float64(srcH) * scale))
		return imaging.Resize(img, w, h, filter)
	default: // cover
		return imaging.Fill(img, targetW, targetH, anchorFor(e.ResizePosition), filter)
	}
}

func resampleFilter(kernel string) imaging.ResampleFilter {
	switch kernel {
	case "nearest":
		return imaging.NearestNeighbor
	case "linear":
		return imaging.Linear
	case "cubic":
		return imaging.CatmullRom
	case "mitchell":
		return imaging.MitchellNetravali
	default: // lanczos2, lanczos3
		return imaging.Lanczos
	}
}

func anchorFor(position string) imaging.Anchor {
	switch position {
	case "top":
		return imaging.Top
	case "right top":
		return imaging.TopRight
	case "right":
		return imaging.Right
	case "right bottom":
		return imaging.BottomRight
	case "bottom":
		return imaging.Bottom
	case "left bottom":
		return imaging.BottomLeft
	case "left":
		return imaging.Left
	case "left top":
		return imaging.TopLeft
	default:
		return imaging.Center
	}
}

func nrgbaColor(bg edits.Background) color.NRGBA {
	a := bg.Alpha
	if a < 0 {
		a = 0
	}
	if a > 1 {
		a = 1
	}
	return color.NRGBA{
		R: clampByte(bg.R),
		G: clampByte(bg.G),
		B: clampByte(bg.B),
		A: uint8(math.Round(a * 255)),
	}
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
