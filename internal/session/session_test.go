package session

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/AnyUserName/pixedit/internal/edits"
)

func upload() ImageRef {
	return NewRef([]byte("original-image-bytes"), "image/png")
}

func TestNewSessionInitialState(t *testing.T) {
	s := New(upload(), 0)

	st := s.State()
	if st.Base.Hash != st.Original.Hash {
		t.Error("base should equal original at session start")
	}
	if !reflect.DeepEqual(st.Edits, edits.Defaults()) {
		t.Error("initial descriptor should be defaults")
	}

	entries, cursor := s.History()
	if len(entries) != 1 || cursor != 0 {
		t.Fatalf("history: got %d entries at cursor %d", len(entries), cursor)
	}
	if entries[0].Action != "Initial image" {
		t.Errorf("initial action: got %q", entries[0].Action)
	}
	if s.CanUndo() || s.CanRedo() {
		t.Error("fresh session should have nothing to undo or redo")
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	s := New(upload(), 0)
	initial := s.Edits()

	const n = 5
	for i := 1; i <= n; i++ {
		v := i * 10
		err := s.ApplyEdit(func(e *edits.ImageEdits) { e.Brightness = v },
			fmt.Sprintf("Brightness %d", v))
		if err != nil {
			t.Fatalf("edit %d: %v", i, err)
		}
	}

	// N edits followed by N undos returns to the initial state.
	for i := 0; i < n; i++ {
		if err := s.Undo(); err != nil {
			t.Fatalf("undo %d: %v", i, err)
		}
	}
	if !reflect.DeepEqual(s.Edits(), initial) {
		t.Error("descriptor after full undo differs from initial")
	}
	if err := s.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("undo past start: got %v", err)
	}

	// U undos then R redos lands at edit N-U+R.
	for i := 0; i < 3; i++ {
		if err := s.Redo(); err != nil {
			t.Fatalf("redo %d: %v", i, err)
		}
	}
	if got := s.Edits().Brightness; got != 30 {
		t.Errorf("after 3 redos: brightness %d, want 30", got)
	}
}

func TestRedoAtTipIsReported(t *testing.T) {
	s := New(upload(), 0)
	if err := s.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("redo at tip: got %v", err)
	}
}

func TestNewEditTruncatesRedoEntries(t *testing.T) {
	s := New(upload(), 0)
	for i := 1; i <= 3; i++ {
		v := i
		s.ApplyEdit(func(e *edits.ImageEdits) { e.Brightness = v }, "edit")
	}
	s.Undo()
	s.Undo()

	if err := s.ApplyEdit(func(e *edits.ImageEdits) { e.Contrast = 7 }, "branch"); err != nil {
		t.Fatal(err)
	}
	if s.CanRedo() {
		t.Error("redo entries should be discarded after a new edit")
	}
	entries, cursor := s.History()
	if len(entries) != 3 || cursor != 2 {
		t.Errorf("history: %d entries at cursor %d, want 3 at 2", len(entries), cursor)
	}
}

func TestHistoryEviction(t *testing.T) {
	s := New(upload(), 5)
	for i := 0; i < 20; i++ {
		v := i
		s.ApplyEdit(func(e *edits.ImageEdits) { e.Brightness = v }, "edit")
	}

	entries, cursor := s.History()
	if len(entries) != 5 {
		t.Fatalf("history length: got %d, want 5", len(entries))
	}
	if cursor != len(entries)-1 {
		t.Errorf("cursor %d should sit at the tail", cursor)
	}
	// The cursor entry survived eviction and matches current state.
	if entries[cursor].Edits.Brightness != s.Edits().Brightness {
		t.Error("cursor entry does not match current descriptor")
	}
}

func TestApplyEditRejectsInvalid(t *testing.T) {
	s := New(upload(), 0)
	before, _ := s.History()

	err := s.ApplyEdit(func(e *edits.ImageEdits) { e.Rotation = 33 }, "bad rotation")
	if err == nil {
		t.Fatal("invalid edit should be rejected")
	}
	after, _ := s.History()
	if len(after) != len(before) {
		t.Error("rejected edit must not be recorded")
	}
	if s.Edits().Rotation != 0 {
		t.Error("rejected edit must not mutate the descriptor")
	}
}

func TestEditsComposeAgainstSavedBase(t *testing.T) {
	s := New(upload(), 0)
	s.SetProcessed(NewRef([]byte("transient-output"), "image/webp"))
	s.ApplyEdit(func(e *edits.ImageEdits) { e.Brightness = 10 }, "brighten")

	entries, cursor := s.History()
	if entries[cursor].Base.Hash != s.State().Original.Hash {
		t.Error("entry base must be the saved base, not the transient processed output")
	}
}

func TestSaveFlattensAndResets(t *testing.T) {
	s := New(upload(), 0)
	s.ApplyEdit(func(e *edits.ImageEdits) {
		e.Brightness = 25
		e.ExportFormat = "jpeg"
		e.Quality = 65
	}, "edit")

	if err := s.Save(); !errors.Is(err, ErrNothingToSave) {
		t.Fatalf("save without processed output: got %v", err)
	}

	processed := NewRef([]byte("processed-result"), "image/jpeg")
	s.SetProcessed(processed)
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	st := s.State()
	if st.Base.Hash != processed.Hash {
		t.Error("save should promote the processed output to base")
	}
	if st.Edits.Brightness != 0 {
		t.Error("save should reset edits to defaults")
	}
	if st.Edits.ExportFormat != "jpeg" || st.Edits.Quality != 65 {
		t.Error("save should preserve the export format preference")
	}
	entries, cursor := s.History()
	if len(entries) != 1 || cursor != 0 {
		t.Errorf("post-save history: %d entries at cursor %d", len(entries), cursor)
	}
	if s.CanUndo() {
		t.Error("save is a checkpoint, not an undoable entry")
	}
}

func TestResetAllIsUndoable(t *testing.T) {
	s := New(upload(), 0)
	s.ApplyEdit(func(e *edits.ImageEdits) { e.Brightness = 40 }, "brighten")
	if err := s.ResetAll(); err != nil {
		t.Fatal(err)
	}
	if s.Edits().Brightness != 0 {
		t.Error("reset should restore defaults")
	}
	if err := s.Undo(); err != nil {
		t.Fatalf("undo after reset: %v", err)
	}
	if s.Edits().Brightness != 40 {
		t.Error("reset must be undoable")
	}
}

func TestEditClearsProcessed(t *testing.T) {
	s := New(upload(), 0)
	s.SetProcessed(NewRef([]byte("stale"), "image/webp"))
	s.ApplyEdit(func(e *edits.ImageEdits) { e.Contrast = 5 }, "edit")
	if !s.State().Processed.IsZero() {
		t.Error("descriptor change must clear the processed output")
	}
}
