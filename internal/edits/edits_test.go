package edits

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestDefaultsAreNoOp(t *testing.T) {
	e := Defaults()
	if e.HasEdits() {
		t.Error("default descriptor should report no edits")
	}
	if err := e.Validate(); err != nil {
		t.Errorf("default descriptor should validate: %v", err)
	}
	if e.ExportFormat != "webp" || e.Quality != 80 {
		t.Errorf("default export: got %s/%d", e.ExportFormat, e.Quality)
	}
	if e.Crop.Width != 1 || e.Crop.Height != 1 || e.Crop.Enabled {
		t.Errorf("default crop: got %+v", e.Crop)
	}
}

func TestParseFillsDefaults(t *testing.T) {
	e, err := Parse([]byte(`{"rotation": 90, "exportFormat": "original"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if e.Rotation != 90 {
		t.Errorf("rotation: got %d", e.Rotation)
	}
	if e.ExportFormat != "original" {
		t.Errorf("exportFormat: got %q", e.ExportFormat)
	}
	// Untouched fields keep their defaults.
	if e.Quality != 80 || e.ResizeKernel != "lanczos3" || e.Gamma != 1.0 {
		t.Errorf("defaults not preserved: q=%d kernel=%q gamma=%g",
			e.Quality, e.ResizeKernel, e.Gamma)
	}
}

func TestParseEmpty(t *testing.T) {
	e, err := Parse(nil)
	if err != nil {
		t.Fatalf("parse empty: %v", err)
	}
	if !reflect.DeepEqual(e, Defaults()) {
		t.Error("empty input should yield defaults")
	}
}

func TestSharpenLegacyScalar(t *testing.T) {
	var e ImageEdits
	if err := json.Unmarshal([]byte(`{"sharpen": 30}`), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !e.Sharpen.Enabled {
		t.Error("scalar sharpen should enable the group")
	}
	if e.Sharpen.Sigma != 3 || e.Sharpen.M1 != 1 || e.Sharpen.M2 != 2 {
		t.Errorf("legacy normalization: got %+v", e.Sharpen)
	}

	if err := json.Unmarshal([]byte(`{"sharpen": 0}`), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.Sharpen.Enabled {
		t.Error("zero scalar sharpen should stay disabled")
	}
}

func TestSharpenObjectForm(t *testing.T) {
	var e ImageEdits
	raw := `{"sharpen": {"sigma": 2, "m1": 1.5, "m2": 3, "x1": 2, "y2": 10, "y3": 20, "enabled": true}}`
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !e.Sharpen.Enabled || e.Sharpen.Sigma != 2 || e.Sharpen.M1 != 1.5 {
		t.Errorf("object sharpen: got %+v", e.Sharpen)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ImageEdits)
	}{
		{"free-angle rotation", func(e *ImageEdits) { e.Rotation = 45 }},
		{"negative crop width", func(e *ImageEdits) { e.Crop = Crop{Width: -0.5, Height: 0.5, Enabled: true} }},
		{"crop out of bounds", func(e *ImageEdits) { e.Crop = Crop{X: 0.8, Width: 0.5, Height: 0.5, Enabled: true} }},
		{"negative blur", func(e *ImageEdits) { e.Blur = -1 }},
		{"even median", func(e *ImageEdits) { e.Median = 4 }},
		{"gamma out of range", func(e *ImageEdits) { e.Gamma = 0.5 }},
		{"quality zero", func(e *ImageEdits) { e.Quality = 0 }},
		{"quality over 100", func(e *ImageEdits) { e.Quality = 101 }},
		{"unknown format", func(e *ImageEdits) { e.ExportFormat = "heic" }},
		{"unknown fit", func(e *ImageEdits) { e.ResizeFit = "stretch" }},
		{"negative resize", func(e *ImageEdits) { e.Width = -10 }},
		{"short affine matrix", func(e *ImageEdits) { e.Affine.Matrix = []float64{1, 0}; e.Affine.Enabled = true }},
		{"kernel size mismatch", func(e *ImageEdits) {
			e.Convolve.Enabled = true
			e.Convolve.Kernel = []float64{1, 2, 3}
		}},
		{"negative extend", func(e *ImageEdits) { e.Extend.Top = -1; e.Extend.Enabled = true }},
		{"threshold range", func(e *ImageEdits) { e.Threshold.Value = 300; e.Threshold.Enabled = true }},
		{"unknown blend", func(e *ImageEdits) { e.Composite.Blend = "glow"; e.Composite.Enabled = true }},
		{"unsupported colorspace", func(e *ImageEdits) { e.ToColorspace = "cmyk" }},
	}

	for _, tc := range cases {
		e := Defaults()
		tc.mutate(&e)
		err := e.Validate()
		if err == nil {
			t.Errorf("%s: expected validation error", tc.name)
			continue
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: expected *ValidationError, got %T", tc.name, err)
		}
	}
}

func TestValidateAcceptsDisabledGroups(t *testing.T) {
	// An out-of-contract value inside a disabled group is not active and
	// must not be rejected.
	e := Defaults()
	e.Threshold.Value = 128
	e.Crop = Crop{X: 0, Y: 0, Width: 1, Height: 1, Enabled: true}
	e.Rotation = 270
	if err := e.Validate(); err != nil {
		t.Errorf("valid descriptor rejected: %v", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	e := Defaults()
	c := e.Clone()
	c.Affine.Matrix[0] = 42
	c.Convolve.Kernel[0] = 42
	if e.Affine.Matrix[0] == 42 || e.Convolve.Kernel[0] == 42 {
		t.Error("clone shares slice storage with the original")
	}
}
