package session

import (
	"sync"
	"time"
)

// Manager tracks live sessions by ID and sweeps out sessions idle past
// their TTL.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	onEvict  func(id string)
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a manager with the given idle TTL (0 disables the
// sweep) and starts its cleanup loop.
func NewManager(ttl time.Duration) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	if ttl > 0 {
		go m.sweep()
	}
	return m
}

// OnEvict registers a hook invoked with the ID of every session the TTL
// sweep removes, so callers can release per-session resources.
func (m *Manager) OnEvict(fn func(id string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEvict = fn
}

// Add registers a session.
func (m *Manager) Add(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Remove drops a session.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops the sweep loop.
func (m *Manager) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Manager) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-m.ttl)
			var evicted []string
			m.mu.Lock()
			for id, s := range m.sessions {
				if s.LastTouched().Before(cutoff) {
					delete(m.sessions, id)
					evicted = append(evicted, id)
				}
			}
			hook := m.onEvict
			m.mu.Unlock()
			if hook != nil {
				for _, id := range evicted {
					hook(id)
				}
			}
		}
	}
}
