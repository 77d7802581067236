package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/AnyUserName/pixedit/internal/edits"
	"github.com/AnyUserName/pixedit/internal/executor"
)

// allowedMIME is the upload allow-list. Validation happens before any
// bytes reach the executor.
var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
	"image/avif": true,
	"image/tiff": true,
}

// processResponse is the JSON envelope for /api/process.
type processResponse struct {
	Success  bool      `json:"success"`
	ImageURL string    `json:"imageUrl,omitempty"`
	Metadata *metadata `json:"metadata,omitempty"`
	Error    string    `json:"error,omitempty"`
	Details  string    `json:"details,omitempty"`
}

type metadata struct {
	Format           string   `json:"format"`
	Size             int      `json:"size"`
	OriginalSize     int      `json:"originalSize,omitempty"`
	Quality          int      `json:"quality,omitempty"`
	Width            int      `json:"width"`
	Height           int      `json:"height"`
	ProcessingTimeMs int64    `json:"processingTimeMs"`
	Warnings         []string `json:"warnings,omitempty"`
}

// handleProcess accepts a multipart form with an "image" file and an
// "edits" JSON field, runs the pipeline, and returns the result as a data
// URL.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	src, _, _, ok := s.readImageUpload(w, r)
	if !ok {
		return
	}

	e, err := edits.Parse([]byte(r.FormValue("edits")))
	if err != nil {
		s.fail(w, http.StatusUnprocessableEntity, "invalid edits", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.ExecTimeout())
	defer cancel()

	res, err := s.exec.Execute(ctx, src, e)
	if err != nil {
		s.log.Error("pipeline failed",
			"kind", string(executor.KindOf(err)), "err", err)
		s.fail(w, statusFor(err), "failed to process image", err)
		return
	}

	s.log.Info("processed image",
		"format", res.Format,
		"size", res.SizeBytes,
		"dims", fmt.Sprintf("%dx%d", res.Width, res.Height),
		"ms", res.ProcessingTime.Milliseconds(),
	)

	writeJSON(w, http.StatusOK, processResponse{
		Success:  true,
		ImageURL: DataURL(res.MIME, res.Bytes),
		Metadata: &metadata{
			Format:           res.Format,
			Size:             res.SizeBytes,
			OriginalSize:     res.OriginalSizeBytes,
			Quality:          res.QualityUsed,
			Width:            res.Width,
			Height:           res.Height,
			ProcessingTimeMs: res.ProcessingTime.Milliseconds(),
			Warnings:         res.Warnings,
		},
	})
}

// readImageUpload parses the multipart form and returns the validated
// image bytes, the original filename, and the declared content type. On
// failure it writes the error response and reports ok=false.
func (s *Server) readImageUpload(w http.ResponseWriter, r *http.Request) (src []byte, name, mime string, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes()+1<<20)

	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes()); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid multipart request", err)
		return nil, "", "", false
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.fail(w, http.StatusBadRequest, "no image file provided", err)
		return nil, "", "", false
	}
	defer file.Close()

	if header.Size > s.cfg.MaxUploadBytes() {
		s.fail(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("image exceeds %d MB limit", s.cfg.MaxUploadMB), nil)
		return nil, "", "", false
	}
	mime = header.Header.Get("Content-Type")
	if mime != "" && !allowedMIME[mime] {
		s.fail(w, http.StatusUnsupportedMediaType,
			fmt.Sprintf("unsupported content type %s", mime), nil)
		return nil, "", "", false
	}

	src, err = io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes()))
	if err != nil {
		s.fail(w, http.StatusBadRequest, "read upload", err)
		return nil, "", "", false
	}
	return src, header.Filename, mime, true
}

func (s *Server) handleFormats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"formats": s.exec.Registry().Available(),
	})
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch executor.KindOf(err) {
	case executor.KindValidation:
		return http.StatusUnprocessableEntity
	case executor.KindDecode:
		return http.StatusBadRequest
	case executor.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, status int, msg string, err error) {
	resp := processResponse{Success: false, Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// DataURL encodes bytes as a base64 data URL.
func DataURL(mime string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}

// DownloadFilename derives the download name from the original upload:
// the stem plus an "-edited" suffix and the resolved format's extension.
func DownloadFilename(original, format string) string {
	stem := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	if stem == "" || stem == "." {
		stem = "image"
	}
	ext := format
	if ext == "jpeg" {
		ext = "jpg"
	}
	return fmt.Sprintf("%s-edited.%s", stem, ext)
}
