package notifications

import (
	"context"
	"fmt"

	"slotwise/internal/shared/config"
	"slotwise/pkg/logger"

	"github.com/IBM/sarama"
)

// Dispatcher publishes domain events for asynchronous consumers. The booking
// saga and the payment reconciler both publish through this interface, so a
// broker outage can never fail a checkout or a webhook acknowledgement.
type Dispatcher interface {
	Publish(ctx context.Context, eventType string, payload map[string]interface{}) error
	Close() error
}

// KafkaEventDispatcher publishes events to the domain event topic using a
// synchronous producer so delivery failures surface to the caller's logs.
type KafkaEventDispatcher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *logger.Logger
}

func NewKafkaEventDispatcher(cfg *config.KafkaConfig, log *logger.Logger) (*KafkaEventDispatcher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &KafkaEventDispatcher{
		producer: producer,
		topic:    cfg.EventTopic,
		logger:   log,
	}, nil
}

func (d *KafkaEventDispatcher) Publish(ctx context.Context, eventType string, payload map[string]interface{}) error {
	event := NewDomainEvent(eventType, payload)

	value, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize event %s: %w", eventType, err)
	}

	msg := &sarama.ProducerMessage{
		Topic: d.topic,
		Key:   sarama.StringEncoder(event.PartitionKey()),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(eventType)},
		},
	}

	partition, offset, err := d.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to publish event %s: %w", eventType, err)
	}

	d.logger.InfoWithContext(ctx, "Domain event published", map[string]interface{}{
		"event_id":   event.ID.String(),
		"event_type": eventType,
		"partition":  partition,
		"offset":     offset,
	})
	return nil
}

func (d *KafkaEventDispatcher) Close() error {
	return d.producer.Close()
}

// NoopDispatcher is wired when Kafka is disabled. Events are logged and
// dropped so local development works without a broker.
type NoopDispatcher struct {
	logger *logger.Logger
}

func NewNoopDispatcher(log *logger.Logger) *NoopDispatcher {
	return &NoopDispatcher{logger: log}
}

func (d *NoopDispatcher) Publish(ctx context.Context, eventType string, payload map[string]interface{}) error {
	d.logger.InfoWithContext(ctx, "Domain event dropped (kafka disabled)", map[string]interface{}{
		"event_type": eventType,
	})
	return nil
}

func (d *NoopDispatcher) Close() error {
	return nil
}
