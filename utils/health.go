package utils

import (
	"context"
	"sync"
	"time"
)

// HealthCheck probes one backing service.
type HealthCheck func(ctx context.Context) error

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Services  map[string]bool `json:"services"`
	CheckedAt time.Time       `json:"checkedAt"`
}

// HealthMonitor keeps the latest result of a set of checks.
type HealthMonitor struct {
	checks map[string]HealthCheck

	mu      sync.RWMutex
	current HealthStatus
	done    chan struct{}
}

func NewHealthMonitor(checks map[string]HealthCheck) *HealthMonitor {
	return &HealthMonitor{checks: checks, done: make(chan struct{})}
}

// Status returns latest stored health snapshot.
func (m *HealthMonitor) Status() HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Healthy reports whether every service passed its last check.
func (m *HealthMonitor) Healthy() bool {
	st := m.Status()
	for _, ok := range st.Services {
		if !ok {
			return false
		}
	}
	return true
}

// Check runs every probe once and stores the result.
func (m *HealthMonitor) Check(ctx context.Context) HealthStatus {
	results := make(map[string]bool, len(m.checks))
	for name, check := range m.checks {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		results[name] = check(cctx) == nil
		cancel()
	}
	st := HealthStatus{Services: results, CheckedAt: time.Now()}
	m.mu.Lock()
	m.current = st
	m.mu.Unlock()
	return st
}

// Start checks immediately and then every interval until ctx is done.
func (m *HealthMonitor) Start(ctx context.Context, interval time.Duration) {
	m.Check(ctx)
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Check(ctx)
			}
		}
	}()
}

// Wait blocks until a started monitor has stopped.
func (m *HealthMonitor) Wait() {
	<-m.done
}
