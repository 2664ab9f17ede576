package dialog

import (
	"sync"
	"time"
)

// ManagerConfig configures a session Manager.
type ManagerConfig struct {
	TTL         time.Duration // How long a session context stays valid after its last update
	SweepPeriod time.Duration // How often expired sessions are removed
}

// Manager keeps one dialog context per session and removes contexts
// whose TTL has lapsed so abandoned sessions do not accumulate.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Context
	config   ManagerConfig
	now      func() time.Time
	onUpdate func(count int) // Optional callback when active count changes
	stopCh   chan struct{}
}

// NewManager creates a session manager and starts its sweeper.
//
// Example:
//
//	mgr := dialog.NewManager(dialog.ManagerConfig{
//	    TTL:         5 * time.Minute,
//	    SweepPeriod: time.Minute,
//	})
//	defer mgr.Stop()
func NewManager(cfg ManagerConfig) *Manager {
	m := &Manager{
		sessions: make(map[string]*Context),
		config:   cfg,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}

	go m.sweepLoop()

	return m
}

// OnUpdate sets a callback invoked with the active session count after
// each sweep.
func (m *Manager) OnUpdate(fn func(count int)) {
	m.onUpdate = fn
}

// Get returns the dialog context for sessionID, creating it if absent.
func (m *Manager) Get(sessionID string) *Context {
	m.mu.RLock()
	dctx, exists := m.sessions[sessionID]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		// Double-check after acquiring write lock
		dctx, exists = m.sessions[sessionID]
		if !exists {
			dctx = newContext(m.config.TTL, m.now)
			m.sessions[sessionID] = dctx
		}
		m.mu.Unlock()
	}

	return dctx
}

// ActiveCount returns the number of tracked sessions.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// sweepLoop periodically removes sessions whose context has expired.
func (m *Manager) sweepLoop() {
	ticker := time.NewTicker(m.config.SweepPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	m.mu.Lock()
	for id, dctx := range m.sessions {
		// Never-updated contexts are also swept; Get recreates on demand
		if !dctx.Valid() {
			delete(m.sessions, id)
		}
	}
	activeCount := len(m.sessions)
	m.mu.Unlock()

	if m.onUpdate != nil {
		m.onUpdate(activeCount)
	}
}

// Stop gracefully stops the sweeper goroutine.
// Safe to call multiple times.
func (m *Manager) Stop() {
	select {
	case <-m.stopCh:
		// Already stopped
	default:
		close(m.stopCh)
	}
}
