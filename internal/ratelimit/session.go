package ratelimit

import (
	"sync"
	"time"
)

// SessionLimiterConfig configures a SessionLimiter.
type SessionLimiterConfig struct {
	Burst         float64       // Maximum tokens per session
	PerSecond     float64       // Tokens refilled per second
	CleanupPeriod time.Duration // How often idle session buckets are reaped
}

// SessionLimiter keeps one token bucket per dialog session so a single
// chatty client cannot starve the knowledge graph. Idle buckets are
// reaped once they refill back to capacity.
type SessionLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*Limiter
	config   SessionLimiterConfig
	onDrop   func()          // called when a question is dropped
	onUpdate func(count int) // called when the active bucket count changes
	stopCh   chan struct{}
}

// NewSessionLimiter creates a per-session limiter and starts its
// cleanup loop. Call Stop when done.
func NewSessionLimiter(cfg SessionLimiterConfig) *SessionLimiter {
	sl := &SessionLimiter{
		limiters: make(map[string]*Limiter),
		config:   cfg,
		stopCh:   make(chan struct{}),
	}

	go sl.cleanupLoop()

	return sl
}

// OnDrop registers a callback invoked whenever a question is rejected.
func (sl *SessionLimiter) OnDrop(fn func()) {
	sl.onDrop = fn
}

// OnUpdate registers a callback invoked with the active bucket count
// after each cleanup pass.
func (sl *SessionLimiter) OnUpdate(fn func(count int)) {
	sl.onUpdate = fn
}

// Allow reports whether a question from the given session may proceed,
// consuming a token when it does. An empty session ID is never limited;
// the handler assigns IDs before limiting applies.
func (sl *SessionLimiter) Allow(sessionID string) bool {
	if sessionID == "" {
		return true
	}

	sl.mu.RLock()
	limiter, exists := sl.limiters[sessionID]
	sl.mu.RUnlock()

	if !exists {
		sl.mu.Lock()
		// Double-check after acquiring write lock
		limiter, exists = sl.limiters[sessionID]
		if !exists {
			limiter = New(sl.config.Burst, sl.config.PerSecond)
			sl.limiters[sessionID] = limiter
		}
		sl.mu.Unlock()
	}

	allowed := limiter.Allow()
	if !allowed && sl.onDrop != nil {
		sl.onDrop()
	}
	return allowed
}

// Available returns the tokens left for a session, or the full burst
// when the session has no bucket yet.
func (sl *SessionLimiter) Available(sessionID string) float64 {
	if sessionID == "" {
		return sl.config.Burst
	}

	sl.mu.RLock()
	limiter, exists := sl.limiters[sessionID]
	sl.mu.RUnlock()

	if !exists {
		return sl.config.Burst
	}

	return limiter.Available()
}

// ActiveCount returns the number of sessions with live buckets.
func (sl *SessionLimiter) ActiveCount() int {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	return len(sl.limiters)
}

func (sl *SessionLimiter) cleanupLoop() {
	ticker := time.NewTicker(sl.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-sl.stopCh:
			return
		case <-ticker.C:
			sl.mu.Lock()
			for sessionID, limiter := range sl.limiters {
				if limiter.IsFull() {
					delete(sl.limiters, sessionID)
				}
			}
			activeCount := len(sl.limiters)
			sl.mu.Unlock()

			if sl.onUpdate != nil {
				sl.onUpdate(activeCount)
			}
		}
	}
}

// Stop terminates the cleanup goroutine. Safe to call multiple times.
func (sl *SessionLimiter) Stop() {
	select {
	case <-sl.stopCh:
		// Already stopped
	default:
		close(sl.stopCh)
	}
}
