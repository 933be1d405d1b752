package events

import (
	"context"
	"sync"
	"testing"

	"github.com/querylab/vectorrank/pkg/kafka"
	"github.com/querylab/vectorrank/pkg/proto"
)

type capturePublisher struct {
	mu      sync.Mutex
	events  []kafka.Event
	batches int
}

func (p *capturePublisher) Publish(ctx context.Context, event kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) PublishBatch(ctx context.Context, events []kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	p.batches++
	return nil
}

func (p *capturePublisher) captured() []kafka.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]kafka.Event, len(p.events))
	copy(out, p.events)
	return out
}

func TestCollectorPublishesTrackedEvents(t *testing.T) {
	searchPub := &capturePublisher{}
	buildPub := &capturePublisher{}
	ingestPub := &capturePublisher{}

	c := NewCollector(searchPub, buildPub, ingestPub, 16)
	c.Start(context.Background())

	c.TrackSearch(proto.SearchEvent{Query: "cat", TotalHits: 2})
	c.TrackBuild(proto.BuildEvent{Documents: 3, Success: true})
	c.TrackIngest(proto.IngestEvent{DocumentID: "doc-1", Title: "t"})
	c.Close()

	if got := len(searchPub.captured()); got != 1 {
		t.Errorf("expected 1 search event, got %d", got)
	}
	if got := len(buildPub.captured()); got != 1 {
		t.Errorf("expected 1 build event, got %d", got)
	}

	ingested := ingestPub.captured()
	if len(ingested) != 1 {
		t.Fatalf("expected 1 ingest event, got %d", len(ingested))
	}
	// Ingest events are keyed by document so a document's history stays
	// on one partition.
	if ingested[0].Key != "doc-1" {
		t.Errorf("expected key doc-1, got %q", ingested[0].Key)
	}

	if c.Dropped() != 0 {
		t.Errorf("expected no drops, got %d", c.Dropped())
	}
}

func TestCollectorNilPublisherDisablesStream(t *testing.T) {
	buildPub := &capturePublisher{}

	c := NewCollector(nil, buildPub, nil, 16)
	c.Start(context.Background())

	c.TrackSearch(proto.SearchEvent{Query: "ignored"})
	c.TrackIngest(proto.IngestEvent{DocumentID: "ignored"})
	c.TrackBuild(proto.BuildEvent{Success: true})
	c.Close()

	if got := len(buildPub.captured()); got != 1 {
		t.Errorf("expected 1 build event, got %d", got)
	}
	if c.Dropped() != 0 {
		t.Errorf("expected disabled streams not to count as drops, got %d", c.Dropped())
	}
}

func TestCollectorDropsWhenFull(t *testing.T) {
	pub := &capturePublisher{}

	// Never started, so the buffer fills and the overflow is dropped.
	c := NewCollector(pub, nil, nil, 2)
	c.TrackSearch(proto.SearchEvent{Query: "a"})
	c.TrackSearch(proto.SearchEvent{Query: "b"})
	c.TrackSearch(proto.SearchEvent{Query: "c"})

	if c.Dropped() != 1 {
		t.Errorf("expected 1 dropped event, got %d", c.Dropped())
	}
}

func TestCollectorDrainsOnCancel(t *testing.T) {
	pub := &capturePublisher{}
	c := NewCollector(pub, nil, nil, 16)

	ctx, cancel := context.WithCancel(context.Background())
	c.TrackSearch(proto.SearchEvent{Query: "queued"})
	c.Start(ctx)
	cancel()

	// Close returns once the goroutine has drained and exited.
	c.Close()
	if got := len(pub.captured()); got != 1 {
		t.Errorf("expected the queued event to be drained, got %d", got)
	}
}

func TestCollectorDrainBatchesPerStream(t *testing.T) {
	searchPub := &capturePublisher{}
	buildPub := &capturePublisher{}
	c := NewCollector(searchPub, buildPub, nil, 16)

	c.TrackSearch(proto.SearchEvent{Query: "a"})
	c.TrackSearch(proto.SearchEvent{Query: "b"})
	c.TrackBuild(proto.BuildEvent{Success: true})
	c.drainRemaining()

	if got := len(searchPub.captured()); got != 2 {
		t.Errorf("expected 2 search events, got %d", got)
	}
	if searchPub.batches != 1 {
		t.Errorf("expected one batch write per stream, got %d", searchPub.batches)
	}
	if buildPub.batches != 1 {
		t.Errorf("expected one batch write per stream, got %d", buildPub.batches)
	}
}
