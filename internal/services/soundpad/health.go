package soundpad

import (
	"context"
	"sync"
	"time"
)

const defaultCacheTTL = 2 * time.Second

// MonitorOption configures the health monitor.
type MonitorOption func(*Monitor)

// WithCacheTTL overrides the liveness cache validity window.
func WithCacheTTL(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		if d > 0 {
			m.ttl = d
		}
	}
}

// WithClock injects a time source (for tests).
func WithClock(now func() time.Time) MonitorOption {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// Monitor caches the soundboard's liveness. Reads within the validity window
// return the cached value without touching the control channel, so frequent
// status polling stays cheap even while the soundboard is down and probes
// would block for their full timeout.
type Monitor struct {
	client *Client
	ttl    time.Duration
	now    func() time.Time

	mu        sync.Mutex
	up        bool
	checkedAt time.Time
}

// NewMonitor wraps a client with a liveness cache.
func NewMonitor(client *Client, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		client: client,
		ttl:    defaultCacheTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Alive returns the cached liveness, probing only when the cache has
// expired.
func (m *Monitor) Alive(ctx context.Context) bool {
	m.mu.Lock()
	if !m.checkedAt.IsZero() && m.now().Sub(m.checkedAt) < m.ttl {
		up := m.up
		m.mu.Unlock()
		return up
	}
	m.mu.Unlock()
	return m.Check(ctx)
}

// Check probes the control channel directly, bypassing the cache, and stores
// the fresh result. The lifecycle coordinator polls this as its readiness
// predicate after relaunching the soundboard.
func (m *Monitor) Check(ctx context.Context) bool {
	up := m.client.Probe(ctx)
	m.mu.Lock()
	m.up = up
	m.checkedAt = m.now()
	m.mu.Unlock()
	return up
}

// Invalidate drops the cached reading. Called at the start of every restart
// cycle so a stale "up" never leaks through while the process restarts;
// Check's write-through repopulates the cache on the first successful
// readiness probe.
func (m *Monitor) Invalidate() {
	m.mu.Lock()
	m.up = false
	m.checkedAt = time.Time{}
	m.mu.Unlock()
}
