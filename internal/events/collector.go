// Package events ships operational events (searches, ingests, model
// builds) to Kafka without ever blocking the request path. Events are
// buffered in memory and dropped under backpressure.
package events

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/querylab/vectorrank/pkg/kafka"
	"github.com/querylab/vectorrank/pkg/logger"
	"github.com/querylab/vectorrank/pkg/proto"
)

// Publisher is the slice of the Kafka producer the collector needs.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

type envelope struct {
	pub   Publisher
	key   string
	value any
}

// Collector buffers events and publishes them from a single background
// goroutine. Track calls never block: when the buffer is full the event
// is dropped and counted.
type Collector struct {
	search  Publisher
	builds  Publisher
	ingest  Publisher
	eventCh chan envelope
	logger  *slog.Logger
	done    chan struct{}
	dropped atomic.Int64
}

// NewCollector creates a Collector. Any publisher may be nil, which
// disables that event stream.
func NewCollector(search, builds, ingest Publisher, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		search:  search,
		builds:  builds,
		ingest:  ingest,
		eventCh: make(chan envelope, bufferSize),
		logger:  logger.WithComponent("event-collector"),
		done:    make(chan struct{}),
	}
}

// Start launches the publish loop. It runs until ctx is cancelled or
// Close is called, then drains whatever is still buffered.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case env, ok := <-c.eventCh:
				if !ok {
					return
				}
				c.publish(ctx, env)
			case <-ctx.Done():
				c.drainRemaining()
				return
			}
		}
	}()
	c.logger.Info("event collector started", "buffer_size", cap(c.eventCh))
}

// TrackSearch records a completed search.
func (c *Collector) TrackSearch(event proto.SearchEvent) {
	c.track(c.search, "search", event)
}

// TrackBuild records a model build outcome.
func (c *Collector) TrackBuild(event proto.BuildEvent) {
	c.track(c.builds, "build", event)
}

// TrackIngest records an accepted document, keyed by document ID so all
// events for one document land on the same partition.
func (c *Collector) TrackIngest(event proto.IngestEvent) {
	c.track(c.ingest, event.DocumentID, event)
}

// Dropped returns how many events were discarded because the buffer was
// full.
func (c *Collector) Dropped() int64 {
	return c.dropped.Load()
}

// Close stops accepting events and waits for the buffer to flush.
func (c *Collector) Close() {
	close(c.eventCh)
	<-c.done
}

func (c *Collector) track(pub Publisher, key string, value any) {
	if pub == nil {
		return
	}
	select {
	case c.eventCh <- envelope{pub: pub, key: key, value: value}:
	default:
		c.dropped.Add(1)
		c.logger.Warn("event dropped (buffer full)")
	}
}

func (c *Collector) publish(ctx context.Context, env envelope) {
	if err := env.pub.Publish(ctx, kafka.Event{Key: env.key, Value: env.value}); err != nil {
		c.logger.Error("failed to publish event", "key", env.key, "error", err)
	}
}

// drainRemaining flushes whatever is still buffered, batched per
// stream so shutdown costs one write per topic instead of one per
// event.
func (c *Collector) drainRemaining() {
	batches := make(map[Publisher][]kafka.Event)
	for {
		select {
		case env, ok := <-c.eventCh:
			if !ok {
				c.flush(batches)
				return
			}
			batches[env.pub] = append(batches[env.pub], kafka.Event{Key: env.key, Value: env.value})
		default:
			c.flush(batches)
			return
		}
	}
}

func (c *Collector) flush(batches map[Publisher][]kafka.Event) {
	if len(batches) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for pub, events := range batches {
		if err := pub.PublishBatch(ctx, events); err != nil {
			c.logger.Error("shutdown flush failed", "count", len(events), "error", err)
		}
	}
}
