package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func createSession(t *testing.T, srv *Server) sessionStateResponse {
	t.Helper()
	body, ct := multipartBody(t, testPNG(t, 40, 30), "image/png", "")
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: status %d: %s", rec.Code, rec.Body.String())
	}
	var st sessionStateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.SessionID == "" {
		t.Fatal("create session: empty id")
	}
	return st
}

func sessionPost(t *testing.T, srv *Server, path, body string) (*httptest.ResponseRecorder, sessionStateResponse) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(http.MethodPost, path, rd)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var st sessionStateResponse
	json.Unmarshal(rec.Body.Bytes(), &st)
	return rec, st
}

func TestSessionEditUndoRedo(t *testing.T) {
	srv := testServer(t)
	created := createSession(t, srv)
	base := "/api/sessions/" + created.SessionID

	if created.CanUndo || created.CanRedo {
		t.Error("fresh session should have no undo/redo")
	}

	rec, st := sessionPost(t, srv, base+"/edits",
		`{"action":"Rotate","edits":{"exportFormat":"png","rotation":90}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("edit: status %d: %s", rec.Code, rec.Body.String())
	}
	if !st.CanUndo {
		t.Error("edit should enable undo")
	}
	if !strings.HasPrefix(st.ProcessedURL, "data:image/png;base64,") {
		t.Errorf("processedUrl prefix: %.40s", st.ProcessedURL)
	}
	if len(st.History) != 2 || st.History[1].Action != "Rotate" {
		t.Errorf("history: %+v", st.History)
	}

	rec, st = sessionPost(t, srv, base+"/undo", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("undo: status %d: %s", rec.Code, rec.Body.String())
	}
	if st.CanUndo || !st.CanRedo {
		t.Error("after undo to start: want canUndo=false canRedo=true")
	}
	if st.Edits.Rotation != 0 {
		t.Errorf("undo should restore rotation 0, got %d", st.Edits.Rotation)
	}

	rec, _ = sessionPost(t, srv, base+"/undo", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("undo at start: status %d, want 409", rec.Code)
	}

	rec, st = sessionPost(t, srv, base+"/redo", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("redo: status %d", rec.Code)
	}
	if st.Edits.Rotation != 90 {
		t.Errorf("redo should restore rotation 90, got %d", st.Edits.Rotation)
	}
}

func TestSessionEditRejectsInvalidDescriptor(t *testing.T) {
	srv := testServer(t)
	created := createSession(t, srv)
	base := "/api/sessions/" + created.SessionID

	rec, _ := sessionPost(t, srv, base+"/edits", `{"edits":{"rotation":45}}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d, want 422", rec.Code)
	}

	// The rejected edit must not have touched the session.
	req := httptest.NewRequest(http.MethodGet, base, nil)
	rec2 := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec2, req)
	var st sessionStateResponse
	json.Unmarshal(rec2.Body.Bytes(), &st)
	if st.CanUndo {
		t.Error("rejected edit recorded in history")
	}
}

func TestSessionSaveFlattensHistory(t *testing.T) {
	srv := testServer(t)
	created := createSession(t, srv)
	base := "/api/sessions/" + created.SessionID

	rec, _ := sessionPost(t, srv, base+"/save", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("save before any run: status %d, want 409", rec.Code)
	}

	rec, _ = sessionPost(t, srv, base+"/edits",
		`{"edits":{"exportFormat":"png","grayscale":true}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("edit: status %d: %s", rec.Code, rec.Body.String())
	}

	rec, st := sessionPost(t, srv, base+"/save", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("save: status %d: %s", rec.Code, rec.Body.String())
	}
	if st.CanUndo || len(st.History) != 1 {
		t.Errorf("save should collapse history: %+v", st.History)
	}
	if st.Edits.Grayscale {
		t.Error("save should reset edits to defaults")
	}
	if st.Edits.ExportFormat != "png" {
		t.Error("save should preserve the export format")
	}
}

func TestSessionResultDownload(t *testing.T) {
	srv := testServer(t)
	created := createSession(t, srv)
	base := "/api/sessions/" + created.SessionID

	rec, _ := sessionPost(t, srv, base+"/edits", `{"edits":{"exportFormat":"png"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("edit: status %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, base+"/result", nil)
	rec2 := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Fatalf("result: status %d: %s", rec2.Code, rec2.Body.String())
	}
	if ct := rec2.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type %q", ct)
	}
	cd := rec2.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "photo-edited.png") {
		t.Errorf("disposition %q", cd)
	}
	if rec2.Body.Len() == 0 {
		t.Error("empty result body")
	}
}

func TestSessionResetIsUndoable(t *testing.T) {
	srv := testServer(t)
	created := createSession(t, srv)
	base := "/api/sessions/" + created.SessionID

	sessionPost(t, srv, base+"/edits", `{"edits":{"exportFormat":"png","brightness":30}}`)
	rec, st := sessionPost(t, srv, base+"/reset", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reset: status %d", rec.Code)
	}
	if st.Edits.Brightness != 0 {
		t.Error("reset should restore defaults")
	}

	rec, st = sessionPost(t, srv, base+"/undo", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("undo after reset: status %d", rec.Code)
	}
	if st.Edits.Brightness != 30 {
		t.Error("reset must be undoable")
	}
}

func TestSessionDeleteAndUnknownID(t *testing.T) {
	srv := testServer(t)
	created := createSession(t, srv)
	base := "/api/sessions/" + created.SessionID

	req := httptest.NewRequest(http.MethodDelete, base, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, base, nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("deleted session: status %d, want 404", rec.Code)
	}

	rec, _ = sessionPost(t, srv, "/api/sessions/nope/undo", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown session: status %d, want 404", rec.Code)
	}
}
