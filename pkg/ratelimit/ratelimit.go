// Package ratelimit implements an in-memory token-bucket rate limiter
// keyed by an arbitrary string (typically the client address).
package ratelimit

import (
	"sync"
	"time"
)

// entry tracks the token-bucket state for a single key.
type entry struct {
	tokens    float64
	lastCheck time.Time
}

// Limiter refills each key's bucket continuously at Rate tokens per
// minute up to a cap of Burst tokens.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	rate    float64
	burst   float64
	done    chan struct{}
}

// New creates a limiter allowing ratePerMinute sustained requests with
// bursts up to burst. A burst below 1 is raised to 1 so a fresh key can
// always make its first request.
func New(ratePerMinute, burst float64) *Limiter {
	if burst < 1 {
		burst = 1
	}
	l := &Limiter{
		entries: make(map[string]*entry),
		rate:    ratePerMinute / 60.0,
		burst:   burst,
		done:    make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// Allow consumes one token for key and reports whether capacity remained.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	e, exists := l.entries[key]
	if !exists {
		l.entries[key] = &entry{tokens: l.burst - 1, lastCheck: now}
		return true
	}

	elapsed := now.Sub(e.lastCheck)
	e.lastCheck = now

	e.tokens += elapsed.Seconds() * l.rate
	if e.tokens > l.burst {
		e.tokens = l.burst
	}

	if e.tokens < 1 {
		return false
	}
	e.tokens--
	return true
}

// Reset clears the state for a specific key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}

// Close stops the background cleanup goroutine.
func (l *Limiter) Close() {
	close(l.done)
}

// cleanup periodically removes keys idle long enough to have refilled
// completely.
func (l *Limiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
		}
		l.mu.Lock()
		cutoff := time.Now().Add(-10 * time.Minute)
		for key, e := range l.entries {
			if e.lastCheck.Before(cutoff) {
				delete(l.entries, key)
			}
		}
		l.mu.Unlock()
	}
}
