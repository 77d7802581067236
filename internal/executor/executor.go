// Package executor runs the ordered edit pipeline: given source image
// bytes and an edit descriptor it deterministically produces an encoded
// output image. The step order is fixed and part of the contract, because
// the operations are not commutative.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"time"

	_ "github.com/gen2brain/avif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/AnyUserName/pixedit/internal/edits"
	"github.com/AnyUserName/pixedit/internal/encoder"
)

// Result is the successful output of one pipeline invocation.
type Result struct {
	Bytes             []byte
	Format            string
	MIME              string
	Width             int
	Height            int
	SizeBytes         int
	OriginalSizeBytes int
	QualityUsed       int
	ProcessingTime    time.Duration

	// Warnings lists steps that degraded gracefully (composite skip).
	Warnings []string
}

// Executor runs edit pipelines. It is stateless per invocation: concurrent
// Execute calls with different inputs are safe and independent.
type Executor struct {
	registry *encoder.Registry
	client   *http.Client
}

// New creates an executor with the full encoder registry and a bounded
// HTTP client for composite overlay fetches.
func New() *Executor {
	return &Executor{
		registry: encoder.NewRegistry(),
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Registry exposes the encoder registry for availability reporting.
func (x *Executor) Registry() *encoder.Registry { return x.registry }

// Execute applies the descriptor to the source bytes and encodes the
// result. All failures come back as *Error; a composite overlay failure
// is not a failure of the invocation (the step is skipped and recorded in
// Result.Warnings).
func (x *Executor) Execute(ctx context.Context, src []byte, e edits.ImageEdits) (*Result, error) {
	start := time.Now()

	if err := e.Validate(); err != nil {
		return nil, errKind(KindValidation, "descriptor", err)
	}

	img, detected, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, errKind(KindDecode, "decode", err)
	}

	res := &Result{OriginalSizeBytes: len(src)}

	// 1. Auto-orient must precede all spatial operations.
	if e.AutoOrient {
		img = autoOrient(img, src)
	}

	// 90-degree-multiple rotation runs as a lossless transpose. Free
	// angles were rejected at validation.
	img = rotateQuarter(img, e.Rotation)

	// 2. Flips.
	img = applyFlips(img, e)

	if err := checkCtx(ctx, "flip"); err != nil {
		return nil, err
	}

	// 3. Affine transform.
	if e.Affine.Enabled {
		img = applyAffine(img, e.Affine)
	}

	// 4. Crop resolved against the dimensions at this point in the
	// pipeline; degenerate rectangles are silently skipped.
	if e.Crop.Enabled {
		img = applyCrop(img, e.Crop)
	}

	// 5-6. Extend, trim.
	if e.Extend.Enabled {
		img = applyExtend(img, e.Extend)
	}
	if e.Trim.Enabled {
		img = applyTrim(img, e.Trim)
	}

	// 7. Resize.
	img = applyResize(img, e)

	if err := checkCtx(ctx, "resize"); err != nil {
		return nil, err
	}

	// 8-18. Color chain.
	img = applyColor(img, e)

	if err := checkCtx(ctx, "color"); err != nil {
		return nil, err
	}

	// 19-22. Pixel-kernel filters.
	img = applyFilters(img, e)

	if err := checkCtx(ctx, "filters"); err != nil {
		return nil, err
	}

	// 23. Composite overlay: degrade gracefully on overlay failure, the
	// rest of the edit is independently valid.
	if e.Composite.Enabled && e.Composite.Input != "" {
		composed, err := x.applyComposite(ctx, img, e.Composite)
		if err != nil {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("composite skipped: %v", err))
		} else {
			img = composed
		}
	}

	// 24. Encode.
	format, opts := resolveFormat(e, detected)
	enc := x.registry.Get(format)
	if enc == nil {
		return nil, errKind(KindEncode, "encode",
			fmt.Errorf("no encoder for format %q", format))
	}

	data, quality, err := encoder.EncodeToTarget(enc, img, opts, e.DownloadTargetKB)
	if err != nil {
		return nil, errKind(KindEncode, "encode", err)
	}

	bounds := img.Bounds()
	res.Bytes = data
	res.Format = format
	res.MIME = enc.MIME()
	res.Width = bounds.Dx()
	res.Height = bounds.Dy()
	res.SizeBytes = len(data)
	res.QualityUsed = quality
	res.ProcessingTime = time.Since(start)
	return res, nil
}

// checkCtx converts context expiry into the pipeline's timeout error so a
// slow invocation surfaces a typed failure instead of hanging.
func checkCtx(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.Canceled) {
			return errKind(KindTimeout, op, fmt.Errorf("canceled: %w", err))
		}
		return errKind(KindTimeout, op, err)
	}
	return nil
}
