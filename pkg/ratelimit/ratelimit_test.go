package ratelimit

import (
	"fmt"
	"testing"
	"time"
)

// TestAllowWithinBurst verifies that a fresh key gets exactly burst
// requests before refill matters.
func TestAllowWithinBurst(t *testing.T) {
	l := New(60, 3)
	defer l.Close()

	for i := 0; i < 3; i++ {
		if !l.Allow("client") {
			t.Fatalf("request %d: expected allow within burst", i)
		}
	}
	if l.Allow("client") {
		t.Error("expected deny once burst is spent")
	}
}

// TestKeysIsolated verifies that one key exhausting its bucket does not
// affect another.
func TestKeysIsolated(t *testing.T) {
	l := New(60, 1)
	defer l.Close()

	if !l.Allow("a") {
		t.Fatal("expected first request for a")
	}
	if l.Allow("a") {
		t.Error("expected a to be exhausted")
	}
	if !l.Allow("b") {
		t.Error("expected b to have its own bucket")
	}
}

// TestRefillOverTime verifies tokens accrue at the configured rate and
// cap at the burst. The last-check timestamp is backdated instead of
// sleeping.
func TestRefillOverTime(t *testing.T) {
	l := New(60, 1)
	defer l.Close()

	l.Allow("client")
	if l.Allow("client") {
		t.Fatal("expected exhausted bucket")
	}

	l.mu.Lock()
	l.entries["client"].lastCheck = time.Now().Add(-2 * time.Second)
	l.mu.Unlock()

	if !l.Allow("client") {
		t.Error("expected allow after refill interval")
	}
	if l.Allow("client") {
		t.Error("expected refill capped at burst, not accumulated past it")
	}
}

// TestReset verifies that clearing a key restores its full burst.
func TestReset(t *testing.T) {
	l := New(60, 1)
	defer l.Close()

	l.Allow("client")
	if l.Allow("client") {
		t.Fatal("expected exhausted bucket")
	}
	l.Reset("client")
	if !l.Allow("client") {
		t.Error("expected allow after reset")
	}
}

// TestMinimumBurst verifies that a burst below 1 still admits the first
// request.
func TestMinimumBurst(t *testing.T) {
	l := New(60, 0)
	defer l.Close()

	if !l.Allow("client") {
		t.Error("expected first request to pass with clamped burst")
	}
}

// TestConcurrentAllow exercises the lock under contention; run with
// -race.
func TestConcurrentAllow(t *testing.T) {
	l := New(600000, 1000)
	defer l.Close()

	done := make(chan struct{})
	for g := 0; g < 8; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			key := fmt.Sprintf("client-%d", g%2)
			for i := 0; i < 100; i++ {
				l.Allow(key)
			}
		}(g)
	}
	for g := 0; g < 8; g++ {
		<-done
	}
}
