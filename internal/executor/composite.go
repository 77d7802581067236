package executor

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/AnyUserName/pixedit/internal/edits"
)

const maxOverlayBytes = 10 << 20

// applyComposite decodes the overlay input and blends it onto the image.
// Any fetch or decode failure returns a composite-kind error; the caller
// skips only this step and continues, because the rest of the edit is
// independently valid.
func (x *Executor) applyComposite(ctx context.Context, img image.Image, c edits.Composite) (image.Image, error) {
	overlayBytes, err := x.loadOverlay(ctx, c.Input)
	if err != nil {
		return nil, errKind(KindComposite, "composite", err)
	}

	overlay, _, err := image.Decode(bytes.NewReader(overlayBytes))
	if err != nil {
		return nil, errKind(KindComposite, "composite",
			fmt.Errorf("decode overlay: %w", err))
	}

	base := imaging.Clone(img)
	ov := imaging.Clone(overlay)

	pos := overlayOrigin(base.Bounds(), ov.Bounds(), c)
	blend := blendFunc(c.Blend)

	bb := base.Bounds()
	ob := ov.Bounds()
	for y := 0; y < ob.Dy(); y++ {
		by := pos.Y + y
		if by < 0 || by >= bb.Dy() {
			continue
		}
		for xx := 0; xx < ob.Dx(); xx++ {
			bx := pos.X + xx
			if bx < 0 || bx >= bb.Dx() {
				continue
			}
			base.SetNRGBA(bx, by, blendPixel(base.NRGBAAt(bx, by), ov.NRGBAAt(xx, y), blend))
		}
	}
	return base, nil
}

// loadOverlay resolves the composite input: an inline data URL or a
// fetchable http(s) reference.
func (x *Executor) loadOverlay(ctx context.Context, input string) ([]byte, error) {
	if strings.HasPrefix(input, "data:") {
		_, b64, ok := strings.Cut(input, ",")
		if !ok {
			return nil, fmt.Errorf("malformed data URL")
		}
		data, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, fmt.Errorf("decode data URL: %w", err)
		}
		return data, nil
	}

	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		return nil, fmt.Errorf("unsupported overlay reference %q", input)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, input, nil)
	if err != nil {
		return nil, fmt.Errorf("overlay request: %w", err)
	}
	resp, err := x.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch overlay: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch overlay: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxOverlayBytes))
	if err != nil {
		return nil, fmt.Errorf("read overlay: %w", err)
	}
	return data, nil
}

// overlayOrigin places the overlay by gravity, then applies the explicit
// left/top offsets.
func overlayOrigin(base, overlay image.Rectangle, c edits.Composite) image.Point {
	bw, bh := base.Dx(), base.Dy()
	ow, oh := overlay.Dx(), overlay.Dy()

	var x, y int
	switch c.Gravity {
	case "north":
		x, y = (bw-ow)/2, 0
	case "northeast":
		x, y = bw-ow, 0
	case "east":
		x, y = bw-ow, (bh-oh)/2
	case "southeast":
		x, y = bw-ow, bh-oh
	case "south":
		x, y = (bw-ow)/2, bh-oh
	case "southwest":
		x, y = 0, bh-oh
	case "west":
		x, y = 0, (bh-oh)/2
	case "northwest":
		x, y = 0, 0
	default: // center, centre
		x, y = (bw-ow)/2, (bh-oh)/2
	}
	return image.Pt(x+c.Left, y+c.Top)
}
