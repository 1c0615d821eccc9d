package repository

import (
	"context"
	"fmt"

	"VolScreen/internal/domain/models"
	"VolScreen/internal/domain/repository"
)

// Producer is the slice of pkg/kafka.Producer the publisher needs.
type Producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaResultPublisher implements ResultPublisher for Kafka. Each run is one
// JSON message keyed by run id.
type KafkaResultPublisher struct {
	producer Producer
	topic    string
}

// NewKafkaResultPublisher creates the publisher.
func NewKafkaResultPublisher(producer Producer, topic string) repository.ResultPublisher {
	return &KafkaResultPublisher{producer: producer, topic: topic}
}

func (p *KafkaResultPublisher) PublishResult(ctx context.Context, res *models.ScreenResult) error {
	if res == nil {
		return nil
	}
	if err := p.producer.Publish(ctx, p.topic, []byte(res.RunID), res); err != nil {
		return fmt.Errorf("publish run %s: %w", res.RunID, err)
	}
	return nil
}

func (p *KafkaResultPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
