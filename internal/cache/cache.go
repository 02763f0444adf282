// Package cache holds the TTL'd, size-bounded store backing wizard sessions.
package cache

import (
	"log/slog"
	"time"
)

// Cleaner is implemented by caches that can drop their expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager runs one periodic expiry sweep across any number of caches.
type Manager struct {
	caches    []Cleaner
	stopSweep chan struct{}
	sweepDone chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		stopSweep: make(chan struct{}),
		sweepDone: make(chan struct{}),
	}
}

// Register adds a cache to the sweep. Not safe to call after StartCleanup.
func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// StartCleanup launches the sweep loop.
func (m *Manager) StartCleanup(interval time.Duration) {
	go m.sweep(interval)
}

func (m *Manager) sweep(interval time.Duration) {
	defer close(m.sweepDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := 0
			for _, c := range m.caches {
				removed += c.CleanExpired()
			}
			if removed > 0 {
				slog.Debug("Expired cache entries removed", "count", removed)
			}
		case <-m.stopSweep:
			return
		}
	}
}

// Stop ends the sweep loop and waits for it to exit.
func (m *Manager) Stop() {
	close(m.stopSweep)
	<-m.sweepDone
}
