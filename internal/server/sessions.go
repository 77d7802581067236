package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/AnyUserName/pixedit/internal/edits"
	"github.com/AnyUserName/pixedit/internal/session"
)

// editSession pairs a session with its scheduler and the metadata the
// HTTP layer needs but the state machine does not carry.
type editSession struct {
	sess  *session.Session
	sched *session.Scheduler
	name  string // original upload filename

	mu      sync.Mutex
	lastErr error // outcome of the most recent pipeline run
}

func (h *editSession) noteResult(_ session.State, err error) {
	h.mu.Lock()
	h.lastErr = err
	h.mu.Unlock()
}

func (h *editSession) runErr() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastErr
}

// sessionStateResponse is the JSON view of a session returned by every
// session endpoint.
type sessionStateResponse struct {
	SessionID    string           `json:"sessionId"`
	Edits        edits.ImageEdits `json:"edits"`
	CanUndo      bool             `json:"canUndo"`
	CanRedo      bool             `json:"canRedo"`
	History      []historyEntry   `json:"history"`
	ProcessedURL string           `json:"processedUrl,omitempty"`
}

type historyEntry struct {
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// handleSessionCreate accepts an image upload and opens an editing
// session for it. The response carries the session ID used by all other
// session endpoints.
func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	src, name, mime, ok := s.readImageUpload(w, r)
	if !ok {
		return
	}

	sess := session.New(session.NewRef(src, mime), s.cfg.HistoryLimit)
	sched := session.NewScheduler(sess, s.exec, s.cfg.ExecTimeout())
	sched.SetDebounce(s.cfg.LiveDebounce(), s.cfg.SlowDebounce())

	h := &editSession{sess: sess, sched: sched, name: name}
	sched.OnDone(h.noteResult)

	s.sessions.Add(sess)
	s.handlesMu.Lock()
	s.handles[sess.ID] = h
	s.handlesMu.Unlock()

	s.log.Info("session opened", "id", sess.ID, "bytes", len(src))
	s.writeSessionState(w, http.StatusCreated, h)
}

// lookupSession resolves the {id} path value; on a miss it writes 404.
func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*editSession, bool) {
	id := r.PathValue("id")
	if _, ok := s.sessions.Get(id); !ok {
		s.fail(w, http.StatusNotFound, "unknown session", nil)
		return nil, false
	}
	s.handlesMu.Lock()
	h, ok := s.handles[id]
	s.handlesMu.Unlock()
	if !ok {
		s.fail(w, http.StatusNotFound, "unknown session", nil)
		return nil, false
	}
	return h, true
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	s.writeSessionState(w, http.StatusOK, h)
}

// handleSessionEdit merges a partial descriptor from the request body
// over the current one, reruns the pipeline, and returns the new state.
// The merge is atomic: on validation failure nothing changes.
func (s *Server) handleSessionEdit(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var req struct {
		Action string          `json:"action"`
		Edits  json.RawMessage `json:"edits"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Action == "" {
		req.Action = "Edit"
	}

	next := h.sess.Edits()
	if len(req.Edits) > 0 {
		if err := json.Unmarshal(req.Edits, &next); err != nil {
			s.fail(w, http.StatusBadRequest, "invalid edits", err)
			return
		}
	}
	err := h.sess.ApplyEdit(func(e *edits.ImageEdits) { *e = next }, req.Action)
	if err != nil {
		s.fail(w, http.StatusUnprocessableEntity, "invalid edits", err)
		return
	}

	s.runPipeline(w, h)
}

func (s *Server) handleSessionUndo(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, func(h *editSession) error { return h.sess.Undo() })
}

func (s *Server) handleSessionRedo(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, func(h *editSession) error { return h.sess.Redo() })
}

func (s *Server) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, func(h *editSession) error { return h.sess.ResetAll() })
}

// transition applies an undo/redo/reset style state change, reruns the
// pipeline for the restored descriptor, and returns the new state.
func (s *Server) transition(w http.ResponseWriter, r *http.Request, apply func(*editSession) error) {
	h, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	if err := apply(h); err != nil {
		if errors.Is(err, session.ErrNothingToUndo) || errors.Is(err, session.ErrNothingToRedo) {
			s.fail(w, http.StatusConflict, err.Error(), nil)
			return
		}
		s.fail(w, http.StatusUnprocessableEntity, "transition failed", err)
		return
	}
	s.runPipeline(w, h)
}

// handleSessionSave promotes the current processed output to the new
// base. Requires a prior successful pipeline run.
func (s *Server) handleSessionSave(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	if err := h.sess.Save(); err != nil {
		if errors.Is(err, session.ErrNothingToSave) {
			s.fail(w, http.StatusConflict, err.Error(), nil)
			return
		}
		s.fail(w, http.StatusInternalServerError, "save failed", err)
		return
	}
	s.log.Info("session saved", "id", h.sess.ID)
	s.writeSessionState(w, http.StatusOK, h)
}

// handleSessionResult serves the processed image bytes as a download,
// rerunning the pipeline first if no processed output is cached.
func (s *Server) handleSessionResult(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	st := h.sess.State()
	if st.Processed.IsZero() {
		h.sched.Flush(h.sess.Edits())
		if err := h.runErr(); err != nil {
			s.fail(w, statusFor(err), "failed to process image", err)
			return
		}
		st = h.sess.State()
	}

	format := st.Edits.ExportFormat
	if format == "" || format == "original" {
		format = formatFromMIME(st.Processed.MIME)
	}
	w.Header().Set("Content-Type", st.Processed.MIME)
	w.Header().Set("Content-Disposition",
		`attachment; filename="`+DownloadFilename(h.name, format)+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(st.Processed.Bytes)
}

func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	h.sched.Stop()
	s.sessions.Remove(h.sess.ID)
	s.dropHandle(h.sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

// dropHandle releases the server-side handle for a session; also used as
// the manager's TTL eviction hook.
func (s *Server) dropHandle(id string) {
	s.handlesMu.Lock()
	h, ok := s.handles[id]
	delete(s.handles, id)
	s.handlesMu.Unlock()
	if ok {
		h.sched.Stop()
	}
}

// runPipeline executes the session's current descriptor synchronously
// and writes the resulting state. Pipeline failure falls back to the
// base image in the state machine but still reports the error here.
func (s *Server) runPipeline(w http.ResponseWriter, h *editSession) {
	h.sched.Flush(h.sess.Edits())
	if err := h.runErr(); err != nil {
		s.fail(w, statusFor(err), "failed to process image", err)
		return
	}
	s.writeSessionState(w, http.StatusOK, h)
}

func (s *Server) writeSessionState(w http.ResponseWriter, status int, h *editSession) {
	st := h.sess.State()
	entries, _ := h.sess.History()

	hist := make([]historyEntry, len(entries))
	for i, e := range entries {
		hist[i] = historyEntry{Action: e.Action, Timestamp: e.Timestamp}
	}

	resp := sessionStateResponse{
		SessionID: h.sess.ID,
		Edits:     st.Edits,
		CanUndo:   h.sess.CanUndo(),
		CanRedo:   h.sess.CanRedo(),
		History:   hist,
	}
	if !st.Processed.IsZero() {
		resp.ProcessedURL = DataURL(st.Processed.MIME, st.Processed.Bytes)
	}
	writeJSON(w, status, resp)
}

func formatFromMIME(mime string) string {
	switch mime {
	case "image/jpeg":
		return "jpeg"
	case "image/webp":
		return "webp"
	case "image/avif":
		return "avif"
	case "image/gif":
		return "gif"
	case "image/tiff":
		return "tiff"
	default:
		return "png"
	}
}
