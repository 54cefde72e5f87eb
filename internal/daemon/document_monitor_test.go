package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"soundbridge/internal/logging"
)

type staticCycle struct {
	inFlight atomic.Bool
}

func (s *staticCycle) InFlight() bool { return s.inFlight.Load() }

type countingCache struct {
	mu    sync.Mutex
	count int
}

func (c *countingCache) Invalidate() {
	c.mu.Lock()
	c.count++
	c.mu.Unlock()
}

func (c *countingCache) invalidations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestDocumentMonitorDetectsExternalWrite(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "soundlist.spl")
	if err := os.WriteFile(docPath, []byte("<Soundlist/>"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cycle := &staticCycle{}
	cache := &countingCache{}
	monitor, err := NewDocumentMonitor(docPath, cycle, cache, logging.NewNop())
	if err != nil {
		t.Fatalf("NewDocumentMonitor: %v", err)
	}
	var changes atomic.Int32
	monitor.SetOnChange(func() { changes.Add(1) })
	monitor.Start(context.Background())
	defer monitor.Stop()

	if err := os.WriteFile(docPath, []byte("<Soundlist version=\"2\"/>"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	if !waitFor(t, 2*time.Second, func() bool { return changes.Load() > 0 }) {
		t.Fatal("external write not detected")
	}
	if cache.invalidations() == 0 {
		t.Fatal("liveness cache should be invalidated")
	}
}

func TestDocumentMonitorIgnoresOwnWrites(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "soundlist.spl")
	if err := os.WriteFile(docPath, []byte("<Soundlist/>"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cycle := &staticCycle{}
	cycle.inFlight.Store(true)
	monitor, err := NewDocumentMonitor(docPath, cycle, &countingCache{}, logging.NewNop())
	if err != nil {
		t.Fatalf("NewDocumentMonitor: %v", err)
	}
	var changes atomic.Int32
	monitor.SetOnChange(func() { changes.Add(1) })
	monitor.Start(context.Background())
	defer monitor.Stop()

	if err := os.WriteFile(docPath, []byte("<Soundlist version=\"2\"/>"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	// Give the watcher time to deliver; the event must be dropped.
	time.Sleep(300 * time.Millisecond)
	if changes.Load() != 0 {
		t.Fatal("in-flight write must be ignored")
	}
}

func TestDocumentMonitorIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "soundlist.spl")
	if err := os.WriteFile(docPath, []byte("<Soundlist/>"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	monitor, err := NewDocumentMonitor(docPath, &staticCycle{}, &countingCache{}, logging.NewNop())
	if err != nil {
		t.Fatalf("NewDocumentMonitor: %v", err)
	}
	var changes atomic.Int32
	monitor.SetOnChange(func() { changes.Add(1) })
	monitor.Start(context.Background())
	defer monitor.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write sibling: %v", err)
	}

	time.Sleep(300 * time.Millisecond)
	if changes.Load() != 0 {
		t.Fatal("sibling file events must be ignored")
	}
}
