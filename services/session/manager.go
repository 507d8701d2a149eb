package session

import (
	"errors"
	"sync"

	"nova/services/connmon"
	"nova/services/suggest"
)

var ErrSessionNotFound = errors.New("session not found")

// Manager gives sessions an explicit create/lookup/destroy lifecycle for
// the HTTP layer. Collaborators are shared; each controller owns its own
// transcript and busy state.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Controller

	asker   Asker
	ranker  *suggest.Ranker
	monitor *connmon.Monitor
}

func NewManager(asker Asker, ranker *suggest.Ranker, monitor *connmon.Monitor) *Manager {
	return &Manager{
		sessions: make(map[string]*Controller),
		asker:    asker,
		ranker:   ranker,
		monitor:  monitor,
	}
}

// Create provisions a controller. Per-session options (the sink in
// particular) come from the caller because the websocket route binds each
// session to its own connection.
func (m *Manager) Create(opts Options) *Controller {
	ctrl := NewController(m.asker, m.ranker, m.monitor, opts)
	m.mu.Lock()
	m.sessions[ctrl.ID] = ctrl
	m.mu.Unlock()
	return ctrl
}

func (m *Manager) Get(id string) (*Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ctrl, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ctrl, nil
}

// Destroy cancels any in-flight request and drops the session.
func (m *Manager) Destroy(id string) error {
	m.mu.Lock()
	ctrl, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	ctrl.Cancel()
	return nil
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
