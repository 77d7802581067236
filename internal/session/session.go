// Package session owns all mutable editing state: the current descriptor,
// the base/original image references, and the undo/redo history. Every
// mutation flows through the transition operations here; there is no
// concurrent direct mutation of the descriptor anywhere else.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AnyUserName/pixedit/internal/edits"
	"github.com/AnyUserName/pixedit/internal/hasher"
)

// DefaultHistoryLimit bounds history memory; oldest entries are evicted
// beyond it.
const DefaultHistoryLimit = 50

// Reported no-op transitions and the save precondition.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
	ErrNothingToSave = errors.New("nothing to save")
)

// ImageRef is an immutable reference to encoded image bytes. Refs are
// identified by content hash so history entries stay comparable without
// comparing buffers.
type ImageRef struct {
	Bytes []byte
	MIME  string
	Hash  string
}

// NewRef wraps encoded bytes in a hashed reference.
func NewRef(data []byte, mime string) ImageRef {
	return ImageRef{Bytes: data, MIME: mime, Hash: hasher.RefHash(data, 16)}
}

// IsZero reports an empty reference.
func (r ImageRef) IsZero() bool { return len(r.Bytes) == 0 }

// Entry is one history record: the action description, a descriptor
// snapshot, and the base the edit composes against.
type Entry struct {
	Action    string
	Edits     edits.ImageEdits
	Base      ImageRef
	Timestamp time.Time
}

// State is a consistent snapshot of a session.
type State struct {
	Base      ImageRef // last checkpointed image; mutated only by Save
	Original  ImageRef // the very first upload; immutable for the session
	Edits     edits.ImageEdits
	Processed ImageRef // transient executor output for the live descriptor
}

// Session is the editing state machine for one uploaded image.
type Session struct {
	ID string

	mu        sync.Mutex
	base      ImageRef
	original  ImageRef
	current   edits.ImageEdits
	processed ImageRef
	history   []Entry
	cursor    int
	limit     int
	touched   time.Time
}

// New starts a session with base = original = upload and a single
// "Initial image" history entry at cursor 0.
func New(upload ImageRef, historyLimit int) *Session {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	s := &Session{
		ID:       uuid.NewString(),
		base:     upload,
		original: upload,
		current:  edits.Defaults(),
		limit:    historyLimit,
		touched:  time.Now(),
	}
	s.history = []Entry{{
		Action:    "Initial image",
		Edits:     s.current.Clone(),
		Base:      upload,
		Timestamp: s.touched,
	}}
	return s
}

// ApplyEdit mutates a copy of the current descriptor, validates it, and
// records the result atomically: a partially-applied descriptor is never
// observable. The entry's base is always the last-saved base, never the
// transient processed output, so undo/redo replays against a stable
// reference. Entries beyond the cursor are truncated.
func (s *Session) ApplyEdit(mutate func(*edits.ImageEdits), action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Clone()
	mutate(&next)
	if err := next.Validate(); err != nil {
		return err
	}

	s.current = next
	s.processed = ImageRef{} // force recomputation
	s.appendEntry(Entry{
		Action:    action,
		Edits:     next.Clone(),
		Base:      s.base,
		Timestamp: time.Now(),
	})
	s.touched = time.Now()
	return nil
}

// appendEntry truncates redo entries, appends, advances the cursor, and
// evicts the oldest entry past the capacity. Eviction never removes the
// entry the cursor points at: the cursor is at the tail right after an
// append, so dropping the head only shifts it.
func (s *Session) appendEntry(e Entry) {
	s.history = append(s.history[:s.cursor+1], e)
	s.cursor++
	if len(s.history) > s.limit {
		over := len(s.history) - s.limit
		s.history = append(s.history[:0:0], s.history[over:]...)
		s.cursor -= over
	}
}

// Undo moves the cursor back one entry and restores its descriptor and
// base. At the first entry it reports ErrNothingToUndo without changing
// state.
func (s *Session) Undo() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor == 0 {
		return ErrNothingToUndo
	}
	s.cursor--
	s.restore(s.history[s.cursor])
	return nil
}

// Redo is the inverse of Undo.
func (s *Session) Redo() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor >= len(s.history)-1 {
		return ErrNothingToRedo
	}
	s.cursor++
	s.restore(s.history[s.cursor])
	return nil
}

func (s *Session) restore(e Entry) {
	s.current = e.Edits.Clone()
	s.base = e.Base
	s.processed = ImageRef{}
	s.touched = time.Now()
}

// Save promotes the current processed output to the new base, resets the
// descriptor to defaults, and collapses history to a single fresh entry.
// The export format, quality, and progressive flags survive the reset: a
// chosen output format is a session preference, not an edit. Requires a
// non-empty processed result.
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.processed.IsZero() {
		return ErrNothingToSave
	}

	s.base = s.processed
	s.processed = ImageRef{}

	next := edits.Defaults()
	next.ExportFormat = s.current.ExportFormat
	next.Quality = s.current.Quality
	next.Progressive = s.current.Progressive
	s.current = next

	s.history = []Entry{{
		Action:    "Saved changes as new base",
		Edits:     next.Clone(),
		Base:      s.base,
		Timestamp: time.Now(),
	}}
	s.cursor = 0
	s.touched = time.Now()
	return nil
}

// ResetAll restores the descriptor to defaults against the last-saved
// base. Unlike Save this is an ordinary, undoable history entry.
func (s *Session) ResetAll() error {
	return s.ApplyEdit(func(e *edits.ImageEdits) {
		*e = edits.Defaults()
	}, "Reset all edits")
}

// SetProcessed installs an executor result as the current transient
// output. The scheduler calls this only for the newest generation.
func (s *Session) SetProcessed(ref ImageRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed = ref
	s.touched = time.Now()
}

// State returns a consistent snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Base:      s.base,
		Original:  s.original,
		Edits:     s.current.Clone(),
		Processed: s.processed,
	}
}

// Edits returns a copy of the current descriptor.
func (s *Session) Edits() edits.ImageEdits {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor > 0
}

func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor < len(s.history)-1
}

// History returns a copy of the history entries and the cursor position.
func (s *Session) History() ([]Entry, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.history...), s.cursor
}

// LastTouched reports the most recent transition time, for TTL sweeps.
func (s *Session) LastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}
