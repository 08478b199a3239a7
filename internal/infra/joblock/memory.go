package joblock

import (
	"context"
	"sync"
	"time"
)

type memoryLocker struct {
	mu     sync.Mutex
	now    func() time.Time
	leases map[string]memoryLease
}

type memoryLease struct {
	token     uint64
	expiresAt time.Time
}

// NewMemoryLocker is the single-instance fallback used when no redis address
// is configured.
func NewMemoryLocker(now func() time.Time) Locker {
	if now == nil {
		now = time.Now
	}
	return &memoryLocker{now: now, leases: make(map[string]memoryLease)}
}

func (m *memoryLocker) Acquire(_ context.Context, name string, ttl time.Duration) (func(), bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if lease, ok := m.leases[name]; ok && now.Before(lease.expiresAt) {
		return nil, false, nil
	}
	token := uint64(now.UnixNano())
	if prev, ok := m.leases[name]; ok {
		token = prev.token + 1
	}
	m.leases[name] = memoryLease{token: token, expiresAt: now.Add(ttl)}

	release := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if lease, ok := m.leases[name]; ok && lease.token == token {
			delete(m.leases, name)
		}
	}
	return release, true, nil
}
