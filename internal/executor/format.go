package executor

import (
	"github.com/AnyUserName/pixedit/internal/edits"
	"github.com/AnyUserName/pixedit/internal/encoder"
)

// resolveFormat picks the output format and encode options for a
// descriptor and the format detected at decode time.
//
// Rotated content introduces background-fill edge pixels that compress
// poorly under lossy formats, so a nonzero rotation with no explicit
// export choice forces lossless PNG.
func resolveFormat(e edits.ImageEdits, detected string) (string, encoder.Options) {
	format := e.ExportFormat

	switch {
	case format == "" && e.Rotation != 0:
		format = "png"
	case format == "":
		format = "webp"
	case format == "original":
		format = normalizeFormat(detected)
	}

	opts := encoder.Options{
		Quality:     e.Quality,
		Progressive: e.Progressive,
		Compression: 6,
	}
	if opts.Quality <= 0 {
		opts.Quality = 80
	}
	return format, opts
}

// normalizeFormat maps decoder registration names onto encoder format
// names ("jpg" and "tif" aliases collapse).
func normalizeFormat(detected string) string {
	switch detected {
	case "jpg", "jpeg":
		return "jpeg"
	case "tif", "tiff":
		return "tiff"
	case "bmp":
		// No BMP encoder; fall back to lossless PNG.
		return "png"
	case "":
		return "png"
	}
	return detected
}
