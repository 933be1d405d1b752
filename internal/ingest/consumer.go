package ingest

import (
	"context"

	"github.com/querylab/vectorrank/pkg/config"
	"github.com/querylab/vectorrank/pkg/kafka"
	"github.com/querylab/vectorrank/pkg/logger"
	"github.com/querylab/vectorrank/pkg/proto"
)

// NewRebuildConsumer returns a Kafka consumer on the document-ingest
// topic that fires the rebuild trigger for every accepted document.
// Events from other service instances land here too, so every instance
// converges on the new corpus.
func NewRebuildConsumer(cfg config.KafkaConfig, trigger *Trigger) *kafka.Consumer {
	log := logger.WithComponent("rebuild-consumer")

	return kafka.NewConsumer(cfg, cfg.Topics.DocumentIngest, func(ctx context.Context, key, value []byte) error {
		event, err := kafka.DecodeJSON[proto.IngestEvent](value)
		if err != nil {
			// Commit malformed messages; redelivery cannot fix them.
			log.Error("dropping undecodable ingest event", "error", err)
			return nil
		}
		log.Debug("ingest event received", "document_id", event.DocumentID)
		trigger.Fire()
		return nil
	})
}
