package dialog

import (
	"testing"
	"time"
)

func newTestManager(t *testing.T, ttl time.Duration) (*Manager, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	m := NewManager(ManagerConfig{TTL: ttl, SweepPeriod: time.Hour})
	m.now = clock.Now
	t.Cleanup(m.Stop)
	return m, clock
}

func TestManagerGetCreatesPerSession(t *testing.T) {
	m, _ := newTestManager(t, 5*time.Minute)

	a := m.Get("session-a")
	b := m.Get("session-b")
	if a == b {
		t.Error("distinct sessions share a context")
	}
	if got := m.Get("session-a"); got != a {
		t.Error("Get returned a new context for an existing session")
	}
	if m.ActiveCount() != 2 {
		t.Errorf("ActiveCount = %d, want 2", m.ActiveCount())
	}
}

func TestManagerSessionsAreIsolated(t *testing.T) {
	m, _ := newTestManager(t, 5*time.Minute)

	m.Get("a").Update("q", "a", []string{"张三"}, "Machine Learning")

	if got := m.Get("b").LastTopic(); got != "" {
		t.Errorf("session b LastTopic = %q, want empty", got)
	}
	if got := m.Get("a").LastTopic(); got != "Machine Learning" {
		t.Errorf("session a LastTopic = %q, want Machine Learning", got)
	}
}

func TestManagerSweepRemovesExpired(t *testing.T) {
	m, clock := newTestManager(t, 5*time.Minute)

	m.Get("stale").Update("q", "a", nil, "")
	clock.Advance(6 * time.Minute)
	m.Get("fresh").Update("q", "a", nil, "Deep Learning")

	m.sweep()

	if m.ActiveCount() != 1 {
		t.Errorf("ActiveCount after sweep = %d, want 1", m.ActiveCount())
	}
	// Stale session gets a fresh, empty context on next access
	if got := m.Get("stale").LastTopic(); got != "" {
		t.Errorf("recreated session LastTopic = %q, want empty", got)
	}
	if got := m.Get("fresh").LastTopic(); got != "Deep Learning" {
		t.Errorf("surviving session LastTopic = %q, want Deep Learning", got)
	}
}

func TestManagerOnUpdateReportsCount(t *testing.T) {
	m, clock := newTestManager(t, 5*time.Minute)

	var reported int
	m.OnUpdate(func(count int) { reported = count })

	m.Get("a").Update("q", "a", nil, "")
	m.Get("b").Update("q", "a", nil, "")
	clock.Advance(6 * time.Minute)

	m.sweep()

	if reported != 0 {
		t.Errorf("OnUpdate reported %d, want 0", reported)
	}
}

func TestManagerStopIdempotent(t *testing.T) {
	m := NewManager(ManagerConfig{TTL: time.Minute, SweepPeriod: time.Hour})
	m.Stop()
	m.Stop()
}
