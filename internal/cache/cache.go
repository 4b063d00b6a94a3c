// Package cache holds computed budget views between requests.
package cache

import (
	"sync"
	"time"

	"budget/internal/log"
)

// Cache is the surface the HTTP layer relies on.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	// Purge drops every entry. Called after any ledger mutation.
	Purge()
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager sweeps expired entries out of the registered caches on a timer.
// Register everything before StartCleanup.
type Manager struct {
	caches []Cleaner
	logger *log.Logger

	start sync.Once
	stop  sync.Once
	quit  chan struct{}
	done  chan struct{}
}

func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Discard()
	}
	return &Manager{
		logger: logger.WithComponent(log.ComponentCache),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// StartCleanup launches the sweep loop. Later calls are no-ops.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.start.Do(func() {
		go m.loop(interval)
	})
}

// Sweep runs one cleanup pass and returns the number of entries removed.
func (m *Manager) Sweep() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	if total > 0 {
		m.logger.Debug("Expired cache entries removed", log.FieldCount, total)
	}
	return total
}

func (m *Manager) loop(interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-m.quit:
			return
		}
	}
}

// Stop ends the sweep loop and waits for it. Safe to call more than once,
// and before StartCleanup.
func (m *Manager) Stop() {
	m.stop.Do(func() {
		close(m.quit)
		started := true
		m.start.Do(func() { started = false })
		if started {
			<-m.done
		}
	})
}
