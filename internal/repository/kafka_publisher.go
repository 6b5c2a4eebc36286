package repository

import (
	"context"

	"FundFlow/internal/domain/models"
	drepo "FundFlow/internal/domain/repository"
	pkgkafka "FundFlow/pkg/kafka"
)

// KafkaResultPublisher pushes computed flow results to the audit topic, keyed
// by date so per-date updates stay ordered within a partition.
type KafkaResultPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaResultPublisher creates the audit stream publisher.
func NewKafkaResultPublisher(producer *pkgkafka.Producer, topic string) drepo.ResultPublisher {
	return &KafkaResultPublisher{producer: producer, topic: topic}
}

func (p *KafkaResultPublisher) PublishResult(ctx context.Context, result *models.FlowResult) error {
	return p.producer.Publish(ctx, p.topic, []byte(result.DataDate.String()), result)
}

func (p *KafkaResultPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
