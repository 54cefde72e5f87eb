package soundpad

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"
)

// switchableChannel simulates a soundboard whose real state can change
// between probes.
type switchableChannel struct {
	up atomic.Bool
}

func (s *switchableChannel) dial(ctx context.Context, address string) (net.Conn, error) {
	if !s.up.Load() {
		return nil, errors.New("connection refused")
	}
	client, server := net.Pipe()
	go func() {
		defer server.Close()
		if _, err := readCommand(server); err != nil {
			return
		}
		_, _ = server.Write([]byte("R-200\x00"))
	}()
	return client, nil
}

func newTestMonitor(t *testing.T, channel *switchableChannel, now *time.Time) *Monitor {
	t.Helper()
	client, err := New("test", WithDialer(channel.dial), WithProbeTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return NewMonitor(client, WithClock(func() time.Time { return *now }))
}

func TestAliveCachesWithinTTL(t *testing.T) {
	channel := &switchableChannel{}
	channel.up.Store(true)
	now := time.Now()
	monitor := newTestMonitor(t, channel, &now)

	if !monitor.Alive(context.Background()) {
		t.Fatal("first read should probe and report up")
	}

	// Real state changes, but the cache window has not elapsed: both reads
	// must return the identical cached value.
	channel.up.Store(false)
	now = now.Add(500 * time.Millisecond)
	if !monitor.Alive(context.Background()) {
		t.Fatal("cached read must not see the state change")
	}
	now = now.Add(1 * time.Second)
	if !monitor.Alive(context.Background()) {
		t.Fatal("second cached read must match the first")
	}

	// Past the TTL the live state shows through.
	now = now.Add(2 * time.Second)
	if monitor.Alive(context.Background()) {
		t.Fatal("expired cache must re-probe and report down")
	}
}

func TestCheckBypassesCache(t *testing.T) {
	channel := &switchableChannel{}
	channel.up.Store(true)
	now := time.Now()
	monitor := newTestMonitor(t, channel, &now)

	if !monitor.Alive(context.Background()) {
		t.Fatal("expected up")
	}
	channel.up.Store(false)
	if monitor.Check(context.Background()) {
		t.Fatal("Check must probe live state")
	}
	// Check refreshed the cache too.
	if monitor.Alive(context.Background()) {
		t.Fatal("cache should now hold the fresh down reading")
	}
}

func TestInvalidateForcesReprobe(t *testing.T) {
	channel := &switchableChannel{}
	channel.up.Store(true)
	now := time.Now()
	monitor := newTestMonitor(t, channel, &now)

	if !monitor.Alive(context.Background()) {
		t.Fatal("expected up")
	}
	channel.up.Store(false)
	monitor.Invalidate()
	if monitor.Alive(context.Background()) {
		t.Fatal("invalidated cache must re-probe immediately")
	}
}

func TestCheckSuccessRepopulatesInvalidatedCache(t *testing.T) {
	channel := &switchableChannel{}
	channel.up.Store(true)
	now := time.Now()
	monitor := newTestMonitor(t, channel, &now)

	monitor.Invalidate()
	if !monitor.Check(context.Background()) {
		t.Fatal("expected up")
	}
	// The fresh reading wrote through; within the TTL the cache answers
	// without probing again.
	channel.up.Store(false)
	if !monitor.Alive(context.Background()) {
		t.Fatal("successful check must repopulate the cache")
	}
}
