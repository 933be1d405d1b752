// Package tracing provides a lightweight span-based tracing system that
// propagates trace context through Go contexts. Spans form parent-child
// trees and are logged as structured JSON via slog.
package tracing

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

type spanKey struct{}

// Span represents a timed operation within a trace.
type Span struct {
	Name      string
	TraceID   string
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Children  []*Span
	Attrs     map[string]any
	sampled   bool
	mu        sync.Mutex
}

// Sampler decides which traces get logged. A zero-value Sampler logs
// nothing; rate 1 logs everything.
type Sampler struct {
	rate float64
}

// NewSampler creates a sampler keeping the given fraction of traces.
func NewSampler(rate float64) *Sampler {
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	return &Sampler{rate: rate}
}

// Sample reports whether the next trace should be recorded.
func (s *Sampler) Sample() bool {
	if s == nil || s.rate <= 0 {
		return false
	}
	return s.rate >= 1 || rand.Float64() < s.rate
}

// StartSpan creates a new root span and stores it in the returned
// context. Unsampled spans still time themselves and carry attributes;
// Log drops them.
func StartSpan(ctx context.Context, name, traceID string, sampled bool) (context.Context, *Span) {
	span := &Span{
		Name:      name,
		TraceID:   traceID,
		StartTime: time.Now(),
		Attrs:     make(map[string]any),
		sampled:   sampled,
	}
	return context.WithValue(ctx, spanKey{}, span), span
}

// StartChildSpan creates a child span linked to the parent in ctx.
func StartChildSpan(ctx context.Context, name string) (context.Context, *Span) {
	parent := SpanFromContext(ctx)
	child := &Span{
		Name:      name,
		StartTime: time.Now(),
		Attrs:     make(map[string]any),
	}

	if parent != nil {
		child.TraceID = parent.TraceID
		child.sampled = parent.sampled
		parent.mu.Lock()
		parent.Children = append(parent.Children, child)
		parent.mu.Unlock()
	}

	return context.WithValue(ctx, spanKey{}, child), child
}

// End records the span's end time and duration.
func (s *Span) End() {
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
}

// SetAttr attaches a key-value attribute to the span.
func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.Attrs[key] = value
	s.mu.Unlock()
}

// SpanFromContext extracts the current Span from ctx, or nil if none.
func SpanFromContext(ctx context.Context) *Span {
	if span, ok := ctx.Value(spanKey{}).(*Span); ok {
		return span
	}
	return nil
}

// Log writes the span tree to slog. Unsampled spans are dropped.
func (s *Span) Log() {
	if !s.sampled {
		return
	}
	s.logRecursive(0)
}

func (s *Span) logRecursive(depth int) {
	attrs := []any{
		"trace_id", s.TraceID,
		"span", s.Name,
		"duration_us", s.Duration.Microseconds(),
		"depth", depth,
	}
	s.mu.Lock()
	for k, v := range s.Attrs {
		attrs = append(attrs, k, v)
	}
	children := s.Children
	s.mu.Unlock()
	slog.Info("span", attrs...)

	for _, child := range children {
		child.logRecursive(depth + 1)
	}
}
