package cache

import (
	"testing"
	"time"
)

func TestManager_Sweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	views := NewLRUCache[int](10, time.Minute)
	views.now = func() time.Time { return now }
	views.Set("a", 1)
	views.Set("b", 2)

	m := NewManager(nil)
	m.Register(views)

	if n := m.Sweep(); n != 0 {
		t.Errorf("Sweep() before expiry = %d, want 0", n)
	}
	now = now.Add(2 * time.Minute)
	if n := m.Sweep(); n != 2 {
		t.Errorf("Sweep() after expiry = %d, want 2", n)
	}
	if views.Size() != 0 {
		t.Errorf("Size() = %d, want 0", views.Size())
	}
}

func TestManager_StopIsIdempotent(t *testing.T) {
	m := NewManager(nil)
	m.StartCleanup(time.Hour)
	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()

	// Stopping a manager that never started must not block.
	idle := NewManager(nil)
	stopped := make(chan struct{})
	go func() {
		idle.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a manager that was never started")
	}
}
