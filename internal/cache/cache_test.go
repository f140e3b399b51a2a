package cache

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestCache() *Cache {
	return New(zap.NewNop())
}

func TestSetGet(t *testing.T) {
	c := newTestCache()

	c.Set("key", "value", time.Minute)

	got, ok := c.Get("key")
	if !ok {
		t.Fatal("expected hit for fresh entry")
	}
	if got != "value" {
		t.Errorf("got %v, want value", got)
	}
}

func TestGetMissing(t *testing.T) {
	c := newTestCache()

	if _, ok := c.Get("absent"); ok {
		t.Error("expected miss for absent key")
	}
}

func TestExpiry(t *testing.T) {
	c := newTestCache()

	c.Set("short", 42, 10*time.Millisecond)

	if _, ok := c.Get("short"); !ok {
		t.Fatal("entry expired before its TTL")
	}

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("short"); ok {
		t.Error("expected expired entry to miss")
	}
	// Expired read evicts the entry.
	if c.Stats().Size != 0 {
		t.Errorf("expected eviction on expired read, size = %d", c.Stats().Size)
	}
}

func TestSetRefreshesTTL(t *testing.T) {
	c := newTestCache()

	c.Set("key", 1, 10*time.Millisecond)
	time.Sleep(8 * time.Millisecond)
	c.Set("key", 2, time.Minute)
	time.Sleep(10 * time.Millisecond)

	got, ok := c.Get("key")
	if !ok {
		t.Fatal("refreshed entry expired")
	}
	if got != 2 {
		t.Errorf("got %v, want refreshed value 2", got)
	}
}

func TestHas(t *testing.T) {
	c := newTestCache()

	c.Set("present", true, time.Minute)

	if !c.Has("present") {
		t.Error("expected Has to report present key")
	}
	if c.Has("absent") {
		t.Error("expected Has to report absent key as false")
	}
}

func TestDelete(t *testing.T) {
	c := newTestCache()

	c.Set("key", "value", time.Minute)
	c.Delete("key")

	if _, ok := c.Get("key"); ok {
		t.Error("expected deleted key to miss")
	}
	// Deleting an absent key is a no-op.
	c.Delete("absent")
}

func TestClear(t *testing.T) {
	c := newTestCache()

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)
	c.Clear()

	if got := c.Stats().Size; got != 0 {
		t.Errorf("size after Clear = %d, want 0", got)
	}
}

func TestStats(t *testing.T) {
	c := newTestCache()

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)

	stats := c.Stats()
	if stats.Size != 2 {
		t.Errorf("size = %d, want 2", stats.Size)
	}
	if len(stats.Keys) != 2 {
		t.Errorf("len(keys) = %d, want 2", len(stats.Keys))
	}
}

func TestSweepRemovesExpired(t *testing.T) {
	c := newTestCache()

	c.Set("stale", 1, time.Millisecond)
	c.Set("fresh", 2, time.Minute)
	time.Sleep(5 * time.Millisecond)

	c.sweep()

	stats := c.Stats()
	if stats.Size != 1 {
		t.Fatalf("size after sweep = %d, want 1", stats.Size)
	}
	if stats.Keys[0] != "fresh" {
		t.Errorf("surviving key = %q, want fresh", stats.Keys[0])
	}
}

func TestStopWithoutStart(t *testing.T) {
	c := newTestCache()
	// Must not panic or block.
	c.Stop()
}

func TestStartStop(t *testing.T) {
	c := newTestCache()
	c.Start(t.Context())

	done := make(chan struct{})
	go func() {
		c.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after Start")
	}
}
