package edits

import "testing"

func TestIsLiveOnly(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ImageEdits)
		want   bool
	}{
		{"no edits at all", func(e *ImageEdits) {}, false},
		{"brightness only", func(e *ImageEdits) { e.Brightness = 20 }, true},
		{"contrast only", func(e *ImageEdits) { e.Contrast = -10 }, true},
		{"saturation only", func(e *ImageEdits) { e.Saturation = 50 }, true},
		{"grayscale only", func(e *ImageEdits) { e.Grayscale = true }, true},
		{"all scalars", func(e *ImageEdits) {
			e.Brightness, e.Contrast, e.Saturation = 10, 10, 10
			e.Grayscale = true
		}, true},
		{"brightness plus crop", func(e *ImageEdits) {
			e.Brightness = 20
			e.Crop.Enabled = true
		}, false},
		{"brightness plus resize", func(e *ImageEdits) {
			e.Brightness = 20
			e.Width = 100
		}, false},
		{"brightness plus rotation", func(e *ImageEdits) {
			e.Brightness = 20
			e.Rotation = 90
		}, false},
		{"brightness plus blur", func(e *ImageEdits) {
			e.Brightness = 20
			e.Blur = 2
		}, false},
		{"brightness plus flip", func(e *ImageEdits) {
			e.Brightness = 20
			e.FlipHorizontal = true
		}, false},
		{"hue is not live", func(e *ImageEdits) { e.Hue = 90 }, false},
		{"modulate is not live", func(e *ImageEdits) {
			e.Modulate.Enabled = true
			e.Modulate.Brightness = 1.2
		}, false},
		{"sharpen is not live", func(e *ImageEdits) { e.Sharpen.Enabled = true }, false},
	}

	for _, tc := range cases {
		e := Defaults()
		tc.mutate(&e)
		if got := IsLiveOnly(e); got != tc.want {
			t.Errorf("%s: IsLiveOnly = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestDebounceFor(t *testing.T) {
	e := Defaults()
	e.Brightness = 10
	if d := DebounceFor(e); d != LiveDebounce {
		t.Errorf("live edit debounce: got %v", d)
	}
	e.Blur = 3
	if d := DebounceFor(e); d != SlowDebounce {
		t.Errorf("slow edit debounce: got %v", d)
	}
}

func TestHasServerSideEdits(t *testing.T) {
	e := Defaults()
	if HasServerSideEdits(e) {
		t.Error("defaults need no pipeline run")
	}
	e.Brightness = 10
	if HasServerSideEdits(e) {
		t.Error("a live-only scalar is previewable client-side")
	}
	e.Rotation = 90
	if !HasServerSideEdits(e) {
		t.Error("rotation requires the pipeline")
	}
}
