package session

import (
	"testing"
	"time"
)

func TestManagerAddGetRemove(t *testing.T) {
	m := NewManager(0)
	defer m.Close()

	s := New(upload(), 0)
	m.Add(s)

	got, ok := m.Get(s.ID)
	if !ok || got != s {
		t.Fatal("Get should return the registered session")
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d", m.Len())
	}

	m.Remove(s.ID)
	if _, ok := m.Get(s.ID); ok {
		t.Error("removed session still retrievable")
	}
	if m.Len() != 0 {
		t.Errorf("Len after remove = %d", m.Len())
	}
}

func TestManagerGetUnknownID(t *testing.T) {
	m := NewManager(0)
	defer m.Close()
	if _, ok := m.Get("no-such-session"); ok {
		t.Error("unknown ID should not resolve")
	}
}

func TestManagerCloseIsIdempotent(t *testing.T) {
	m := NewManager(time.Minute)
	m.Close()
	m.Close()
}
