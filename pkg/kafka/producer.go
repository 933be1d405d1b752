package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/querylab/vectorrank/pkg/config"
)

// Event is one record bound for a topic. Key selects the partition via
// hashing; Value is JSON-encoded at publish time.
type Event struct {
	Key   string
	Value any
}

// Producer writes JSON events to a single topic. Writes are synchronous
// with full acks: the upstream collector already sheds load by dropping
// events when its buffer fills, so the writer never needs to trade
// durability for latency.
type Producer struct {
	writer *kafka.Writer
	topic  string
	logger *slog.Logger
}

// NewProducer returns a Producer for topic. Connections are established
// lazily on first write.
func NewProducer(cfg config.KafkaConfig, topic string) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              100,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           10 * time.Second,
		MaxAttempts:            3,
		RequiredAcks:           kafka.RequireAll,
		Compression:            kafka.Snappy,
		AllowAutoTopicCreation: true,
		Async:                  false,
	}
	return &Producer{
		writer: w,
		topic:  topic,
		logger: slog.Default().With("component", "kafka-producer", "topic", topic),
	}
}

// Publish encodes one event and writes it.
func (p *Producer) Publish(ctx context.Context, event Event) error {
	msg, err := toMessage(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("publish failed", "key", event.Key, "error", err)
		return fmt.Errorf("writing to %s: %w", p.topic, err)
	}
	p.logger.Debug("event published", "key", event.Key, "bytes", len(msg.Value))
	return nil
}

// PublishBatch writes several events in one round trip. Used on
// shutdown to flush whatever the event buffer still holds.
func (p *Producer) PublishBatch(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	messages := make([]kafka.Message, len(events))
	for i, event := range events {
		msg, err := toMessage(event)
		if err != nil {
			return err
		}
		messages[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		p.logger.Error("batch publish failed", "count", len(messages), "error", err)
		return fmt.Errorf("writing batch to %s: %w", p.topic, err)
	}
	p.logger.Debug("batch published", "count", len(messages))
	return nil
}

func toMessage(event Event) (kafka.Message, error) {
	value, err := json.Marshal(event.Value)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encoding event %q: %w", event.Key, err)
	}
	return kafka.Message{Key: []byte(event.Key), Value: value}, nil
}

// Close flushes buffered writes and releases the writer's connections.
func (p *Producer) Close() error {
	return p.writer.Close()
}
