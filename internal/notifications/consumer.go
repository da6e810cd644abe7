package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"slotwise/internal/shared/config"
	"slotwise/pkg/logger"

	"github.com/IBM/sarama"
)

// EventHandler reacts to one domain event. Handlers must be idempotent:
// consumer group rebalances can redeliver events that were already handled.
type EventHandler interface {
	Handle(ctx context.Context, event *DomainEvent) error
}

const (
	maxHandlerRetries = 3
	baseRetryBackoff  = 500 * time.Millisecond
)

// Consumer runs a consumer group over the domain event topic and fans
// messages out to a fixed pool of workers.
type Consumer struct {
	group      sarama.ConsumerGroup
	deadLetter sarama.SyncProducer
	cfg        *config.KafkaConfig
	handler    EventHandler
	logger     *logger.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewConsumer(cfg *config.KafkaConfig, handler EventHandler, log *logger.Logger) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	saramaConfig.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.ConsumerGroup, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	producerConfig := sarama.NewConfig()
	producerConfig.Producer.Return.Successes = true
	producerConfig.Producer.RequiredAcks = sarama.WaitForAll

	deadLetter, err := sarama.NewSyncProducer(cfg.Brokers, producerConfig)
	if err != nil {
		group.Close()
		return nil, fmt.Errorf("failed to create dead letter producer: %w", err)
	}

	return &Consumer{
		group:      group,
		deadLetter: deadLetter,
		cfg:        cfg,
		handler:    handler,
		logger:     log,
		done:       make(chan struct{}),
	}, nil
}

// Start begins consuming until Stop is called
func (c *Consumer) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	go func() {
		for err := range c.group.Errors() {
			c.logger.ErrorWithContext(ctx, "Consumer group error", err, nil)
		}
	}()

	go func() {
		defer close(c.done)
		for {
			handler := &groupHandler{consumer: c}
			if err := c.group.Consume(ctx, []string{c.cfg.EventTopic}, handler); err != nil {
				c.logger.ErrorWithContext(ctx, "Consumer session ended", err, nil)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()
}

// Stop shuts the consumer down and waits for in-flight messages
func (c *Consumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	<-c.done
	if err := c.group.Close(); err != nil {
		return err
	}
	return c.deadLetter.Close()
}

// groupHandler implements sarama.ConsumerGroupHandler with a worker pool per
// session so slow handlers do not stall the whole claim.
type groupHandler struct {
	consumer *Consumer
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	workers := h.consumer.cfg.ConsumerWorkers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan *sarama.ConsumerMessage)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range jobs {
				h.consumer.processMessage(session, msg)
			}
		}()
	}

	for msg := range claim.Messages() {
		jobs <- msg
	}
	close(jobs)
	wg.Wait()
	return nil
}

// processMessage retries the handler with exponential backoff, then parks the
// event on the dead letter topic so one poison message cannot block the
// partition.
func (c *Consumer) processMessage(session sarama.ConsumerGroupSession, msg *sarama.ConsumerMessage) {
	ctx := session.Context()

	event, err := FromJSON(msg.Value)
	if err != nil {
		c.logger.ErrorWithContext(ctx, "Undecodable event sent to dead letter topic", err, map[string]interface{}{
			"partition": msg.Partition,
			"offset":    msg.Offset,
		})
		c.sendToDeadLetter(ctx, msg)
		session.MarkMessage(msg, "")
		return
	}

	var lastErr error
	for attempt := 1; attempt <= maxHandlerRetries; attempt++ {
		if lastErr = c.handler.Handle(ctx, event); lastErr == nil {
			session.MarkMessage(msg, "")
			return
		}

		c.logger.ErrorWithContext(ctx, "Event handler failed", lastErr, map[string]interface{}{
			"event_id":   event.ID.String(),
			"event_type": event.Type,
			"attempt":    attempt,
		})

		select {
		case <-ctx.Done():
			return
		case <-time.After(baseRetryBackoff * time.Duration(1<<(attempt-1))):
		}
	}

	c.logger.ErrorWithContext(ctx, "Event exhausted retries, sent to dead letter topic", lastErr, map[string]interface{}{
		"event_id":   event.ID.String(),
		"event_type": event.Type,
	})
	c.sendToDeadLetter(ctx, msg)
	session.MarkMessage(msg, "")
}

func (c *Consumer) sendToDeadLetter(ctx context.Context, msg *sarama.ConsumerMessage) {
	if c.cfg.DeadLetterTopic == "" {
		return
	}
	_, _, err := c.deadLetter.SendMessage(&sarama.ProducerMessage{
		Topic: c.cfg.DeadLetterTopic,
		Key:   sarama.ByteEncoder(msg.Key),
		Value: sarama.ByteEncoder(msg.Value),
	})
	if err != nil {
		c.logger.ErrorWithContext(ctx, "Dead letter publish failed", err, map[string]interface{}{
			"partition": msg.Partition,
			"offset":    msg.Offset,
		})
	}
}
