package session

import (
	"context"
	"sync"
)

// Manager holds the single live session served over the API. Starting a
// new workout while one is loading or active is refused.
type Manager struct {
	mu      sync.Mutex
	store   Store
	opts    []Option
	current *Session
}

// NewManager returns a Manager that creates sessions with the given options.
func NewManager(store Store, opts ...Option) *Manager {
	return &Manager{store: store, opts: opts}
}

// Start loads a new session from routineID (empty for a blank workout).
func (m *Manager) Start(ctx context.Context, routineID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && m.current.Live() {
		return nil, ErrSessionInProgress
	}
	if m.current != nil {
		m.current.Close()
		m.current = nil
	}
	s, err := Start(ctx, m.store, routineID, m.opts...)
	if err != nil {
		return nil, err
	}
	m.current = s
	return s, nil
}

// Current returns the live session or ErrNoSession.
func (m *Manager) Current() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || !m.current.Live() {
		return nil, ErrNoSession
	}
	return m.current, nil
}

// Close stops the current session's clocks.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.Close()
		m.current = nil
	}
}
