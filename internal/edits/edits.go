// Package edits defines the declarative edit descriptor applied by the
// pipeline executor. A descriptor is a pure value: it never owns image
// bytes and is always paired with an explicit source at execution time.
package edits

import (
	"encoding/json"
	"fmt"
)

// Crop is a rectangle in normalized [0,1] image-fraction coordinates.
// It is resolved against the current pixel dimensions at execution time,
// not the original upload's dimensions.
type Crop struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Enabled bool    `json:"enabled"`
}

// Tint multiplies each channel toward the given color.
type Tint struct {
	R       int  `json:"r"`
	G       int  `json:"g"`
	B       int  `json:"b"`
	Enabled bool `json:"enabled"`
}

// Sharpen holds unsharp-mask parameters. The wire format also accepts a
// bare number (legacy slider value); see UnmarshalJSON.
type Sharpen struct {
	Sigma   float64 `json:"sigma"`
	M1      float64 `json:"m1"`
	M2      float64 `json:"m2"`
	X1      float64 `json:"x1"`
	Y2      float64 `json:"y2"`
	Y3      float64 `json:"y3"`
	Enabled bool    `json:"enabled"`
}

// UnmarshalJSON accepts either the canonical object form or the legacy
// scalar form. The scalar n normalizes to {sigma: n/10, m1: 1, m2: 2},
// enabled when n > 0, so the executor only ever sees one shape.
func (s *Sharpen) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*s = Sharpen{Sigma: n / 10, M1: 1, M2: 2, Enabled: n > 0}
		return nil
	}
	type plain Sharpen
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("sharpen: %w", err)
	}
	*s = Sharpen(p)
	return nil
}

// CLAHE parameters: tile size in pixels plus the contrast slope limit.
type CLAHE struct {
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	MaxSlope float64 `json:"maxSlope"`
	Enabled  bool    `json:"enabled"`
}

// Linear applies out = multiplier*in + offset per channel.
type Linear struct {
	Multiplier float64 `json:"multiplier"`
	Offset     float64 `json:"offset"`
	Enabled    bool    `json:"enabled"`
}

// Threshold binarizes at the given 0-255 value.
type Threshold struct {
	Value     int  `json:"value"`
	Grayscale bool `json:"grayscale"`
	Enabled   bool `json:"enabled"`
}

// Modulate adjusts brightness/saturation multiplicatively, rotates hue in
// degrees, and shifts lightness additively. When enabled it supersedes the
// legacy scalar brightness/contrast/saturation/hue fields entirely.
type Modulate struct {
	Brightness float64 `json:"brightness"`
	Saturation float64 `json:"saturation"`
	Hue        float64 `json:"hue"`
	Lightness  float64 `json:"lightness"`
	Enabled    bool    `json:"enabled"`
}

// Composite blends an overlay input (data URL or fetchable URL) onto the
// image per the given blend mode and placement.
type Composite struct {
	Input   string `json:"input"`
	Blend   string `json:"blend"`
	Gravity string `json:"gravity"`
	Left    int    `json:"left"`
	Top     int    `json:"top"`
	Enabled bool   `json:"enabled"`
}

// Background is a solid fill color. Alpha is in [0,1].
type Background struct {
	R     int     `json:"r"`
	G     int     `json:"g"`
	B     int     `json:"b"`
	Alpha float64 `json:"alpha"`
}

// Extend pads the image with border pixels of a solid background.
type Extend struct {
	Top        int        `json:"top"`
	Bottom     int        `json:"bottom"`
	Left       int        `json:"left"`
	Right      int        `json:"right"`
	Background Background `json:"background"`
	Enabled    bool       `json:"enabled"`
}

// Trim removes uniform-color borders above a per-channel threshold.
type Trim struct {
	Threshold int  `json:"threshold"`
	Enabled   bool `json:"enabled"`
}

// Affine applies a 2x2 matrix transform with background fill.
type Affine struct {
	Matrix       []float64  `json:"matrix"`
	Background   Background `json:"background"`
	Interpolator string     `json:"interpolator"`
	Enabled      bool       `json:"enabled"`
}

// Convolve applies a custom kernel of Width x Height weights.
type Convolve struct {
	Width   int       `json:"width"`
	Height  int       `json:"height"`
	Kernel  []float64 `json:"kernel"`
	Scale   float64   `json:"scale"`
	Offset  float64   `json:"offset"`
	Enabled bool      `json:"enabled"`
}

// ImageEdits is the full declarative description of every transformation
// to apply. Groups without an Enabled flag are always active but carry a
// sentinel no-op value (rotation=0, blur=0, brightness=0, ...).
type ImageEdits struct {
	// Transform.
	Rotation       int  `json:"rotation"`
	FlipHorizontal bool `json:"flipHorizontal"`
	FlipVertical   bool `json:"flipVertical"`
	AutoOrient     bool `json:"autoOrient"`

	// Resize.
	Width              int    `json:"width"`
	Height             int    `json:"height"`
	Unit               string `json:"unit"`
	AspectRatioLocked  bool   `json:"aspectRatioLocked"`
	ResizeFit          string `json:"resizeFit"`
	ResizePosition     string `json:"resizePosition"`
	ResizeKernel       string `json:"resizeKernel"`
	WithoutEnlargement bool   `json:"withoutEnlargement"`
	WithoutReduction   bool   `json:"withoutReduction"`

	Crop Crop `json:"crop"`

	// Color (legacy scalars; Modulate supersedes them when enabled).
	Brightness int  `json:"brightness"`
	Contrast   int  `json:"contrast"`
	Saturation int  `json:"saturation"`
	Hue        int  `json:"hue"`
	Tint       Tint `json:"tint"`
	Grayscale  bool `json:"grayscale"`
	Negate     bool `json:"negate"`

	// Filters and effects.
	Blur      float64   `json:"blur"`
	Sharpen   Sharpen   `json:"sharpen"`
	Median    int       `json:"median"`
	Gamma     float64   `json:"gamma"`
	Normalize bool      `json:"normalize"`
	CLAHE     CLAHE     `json:"clahe"`
	Linear    Linear    `json:"linear"`
	Threshold Threshold `json:"threshold"`
	Modulate  Modulate  `json:"modulate"`
	Composite Composite `json:"composite"`
	Extend    Extend    `json:"extend"`
	Trim      Trim      `json:"trim"`
	Affine    Affine    `json:"affine"`
	Convolve  Convolve  `json:"convolve"`

	// Output.
	ExportFormat     string `json:"exportFormat"`
	Quality          int    `json:"quality"`
	Progressive      bool   `json:"progressive"`
	DownloadTargetKB int    `json:"downloadTargetKB"`
	OriginalMimeType string `json:"originalMimeType,omitempty"`

	// Color space.
	ToColorspace       string `json:"toColorspace"`
	PipelineColorspace string `json:"pipelineColorspace"`
}

// Defaults returns a descriptor where every group is at its no-op value.
func Defaults() ImageEdits {
	return ImageEdits{
		AutoOrient: false,

		Unit:              "px",
		AspectRatioLocked: true,
		ResizeFit:         "cover",
		ResizePosition:    "centre",
		ResizeKernel:      "lanczos3",

		Crop: Crop{X: 0, Y: 0, Width: 1, Height: 1},

		Tint: Tint{R: 255, G: 255, B: 255},

		Sharpen: Sharpen{Sigma: 1, M1: 1, M2: 2, X1: 2, Y2: 10, Y3: 20},
		Gamma:   1.0,
		CLAHE:   CLAHE{Width: 8, Height: 8, MaxSlope: 3},
		Linear:  Linear{Multiplier: 1.0},
		Threshold: Threshold{
			Value:     128,
			Grayscale: true,
		},
		Modulate: Modulate{Brightness: 1.0, Saturation: 1.0},
		Composite: Composite{
			Blend:   "over",
			Gravity: "centre",
		},
		Extend: Extend{Background: Background{Alpha: 1}},
		Trim:   Trim{Threshold: 10},
		Affine: Affine{
			Matrix:       []float64{1, 0, 0, 1},
			Background:   Background{Alpha: 1},
			Interpolator: "bicubic",
		},
		Convolve: Convolve{
			Width:  3,
			Height: 3,
			Kernel: []float64{-1, -1, -1, -1, 8, -1, -1, -1, -1},
			Scale:  1,
		},

		ExportFormat: "webp",
		Quality:      80,

		ToColorspace:       "srgb",
		PipelineColorspace: "scrgb",
	}
}

// Clone returns a deep copy (the affine matrix and convolve kernel are the
// only reference fields).
func (e ImageEdits) Clone() ImageEdits {
	c := e
	if e.Affine.Matrix != nil {
		c.Affine.Matrix = append([]float64(nil), e.Affine.Matrix...)
	}
	if e.Convolve.Kernel != nil {
		c.Convolve.Kernel = append([]float64(nil), e.Convolve.Kernel...)
	}
	return c
}

// Parse decodes a descriptor from JSON, filling absent fields from
// Defaults and normalizing legacy forms, then validates it.
func Parse(data []byte) (ImageEdits, error) {
	e := Defaults()
	if len(data) > 0 {
		if err := json.Unmarshal(data, &e); err != nil {
			return ImageEdits{}, fmt.Errorf("parse edits: %w", err)
		}
	}
	if err := e.Validate(); err != nil {
		return ImageEdits{}, err
	}
	return e, nil
}

// HasEdits reports whether the descriptor differs from the no-op defaults
// in any way the pipeline would act on.
func (e ImageEdits) HasEdits() bool {
	return e.Rotation != 0 ||
		e.FlipHorizontal || e.FlipVertical || e.AutoOrient ||
		e.Width > 0 || e.Height > 0 ||
		(e.Crop.Enabled && e.Crop.Width > 0 && e.Crop.Height > 0) ||
		e.Brightness != 0 || e.Contrast != 0 || e.Saturation != 0 || e.Hue != 0 ||
		e.Tint.Enabled || e.Grayscale || e.Negate ||
		e.Blur > 0 || e.Sharpen.Enabled || e.Median > 0 ||
		e.Gamma != 1.0 || e.Normalize || e.CLAHE.Enabled ||
		e.Linear.Enabled || e.Threshold.Enabled || e.Modulate.Enabled ||
		e.Composite.Enabled || e.Extend.Enabled || e.Trim.Enabled ||
		e.Affine.Enabled || e.Convolve.Enabled ||
		e.ToColorspace != "srgb"
}
