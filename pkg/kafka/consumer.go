package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	kafka_config "clinicops/pkg/kafka/config"
	"clinicops/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// Consumer reads messages from one topic within a consumer group and hands
// them to a MessageHandler. Transient handler errors are retried in place,
// permanent or exhausted ones are forwarded to the dead letter topic.
type Consumer struct {
	reader    *kafka.Reader
	dlqWriter *kafka.Writer
	handler   MessageHandler
	cfg       *kafka_config.Config
	topic     string
	log       *logger.Logger
	closed    bool
	mu        sync.RWMutex
	wg        sync.WaitGroup
}

func NewConsumer(cfg *kafka_config.Config, topic string, handler MessageHandler, log *logger.Logger) (*Consumer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	if handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          topic,
		GroupID:        cfg.ConsumerGroupID,
		MinBytes:       cfg.ConsumerMinBytes,
		MaxBytes:       cfg.ConsumerMaxBytes,
		MaxWait:        cfg.ConsumerMaxWait,
		CommitInterval: 0, // explicit commits only
		StartOffset:    kafka.FirstOffset,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			log.Error(fmt.Sprintf("kafka consumer: "+msg, args...))
		}),
	})

	var dlqWriter *kafka.Writer
	if cfg.DLQTopic != "" {
		dlqWriter = &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.DLQTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		}
	}

	return &Consumer{
		reader:    reader,
		dlqWriter: dlqWriter,
		handler:   handler,
		cfg:       cfg,
		topic:     topic,
		log:       log,
	}, nil
}

// Start blocks consuming messages until ctx is cancelled or Close is called.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrConsumerClosed
	}
	c.mu.RUnlock()

	c.log.Info("kafka consumer started",
		"topic", c.topic,
		"group_id", c.cfg.ConsumerGroupID,
	)

	for {
		kafkaMsg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.mu.RLock()
			closed := c.closed
			c.mu.RUnlock()
			if closed {
				return ErrConsumerClosed
			}
			c.log.Error("failed to fetch message", "topic", c.topic, "error", err)
			continue
		}

		c.wg.Add(1)
		c.processMessage(ctx, kafkaMsg)
		c.wg.Done()

		if err := c.reader.CommitMessages(ctx, kafkaMsg); err != nil {
			c.log.Error("failed to commit message",
				"topic", c.topic,
				"offset", kafkaMsg.Offset,
				"error", err,
			)
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, kafkaMsg kafka.Message) {
	msg := convertMessage(kafkaMsg)

	var lastErr error
	for attempt := 0; attempt <= c.cfg.ConsumerMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.cfg.ConsumerRetryBackoff * time.Duration(attempt)):
			}
		}

		lastErr = c.handler(ctx, msg)
		if lastErr == nil {
			return
		}

		if !ShouldRetry(lastErr, attempt, c.cfg.ConsumerMaxRetries) {
			break
		}

		c.log.Warn("message handling failed, retrying",
			"topic", c.topic,
			"key", msg.Key,
			"attempt", attempt+1,
			"error", lastErr,
		)
	}

	c.log.Error("message handling exhausted retries",
		"topic", c.topic,
		"key", msg.Key,
		"error", lastErr,
	)

	if c.dlqWriter != nil {
		c.sendToDLQ(ctx, kafkaMsg, lastErr)
	}
}

func (c *Consumer) sendToDLQ(ctx context.Context, kafkaMsg kafka.Message, handlerErr error) {
	headers := append(kafkaMsg.Headers,
		kafka.Header{Key: HeaderOriginalTopic, Value: []byte(c.topic)},
		kafka.Header{Key: "failure-reason", Value: []byte(handlerErr.Error())},
	)

	dlqMsg := kafka.Message{
		Key:     kafkaMsg.Key,
		Value:   kafkaMsg.Value,
		Headers: headers,
		Time:    time.Now().UTC(),
	}

	dlqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := c.dlqWriter.WriteMessages(dlqCtx, dlqMsg); err != nil {
		c.log.Error("failed to write to dead letter topic",
			"dlq_topic", c.cfg.DLQTopic,
			"key", string(kafkaMsg.Key),
			"error", err,
		)
		return
	}

	c.log.Info("message sent to dead letter topic",
		"dlq_topic", c.cfg.DLQTopic,
		"key", string(kafkaMsg.Key),
	)
}

func convertMessage(kafkaMsg kafka.Message) Message {
	headers := make(map[string]string, len(kafkaMsg.Headers))
	for _, h := range kafkaMsg.Headers {
		headers[h.Key] = string(h.Value)
	}

	return Message{
		Key:       string(kafkaMsg.Key),
		Value:     kafkaMsg.Value,
		Headers:   headers,
		Timestamp: kafkaMsg.Time,
	}
}

func (c *Consumer) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.wg.Wait()

	if c.dlqWriter != nil {
		if err := c.dlqWriter.Close(); err != nil {
			c.log.Error("failed to close dlq writer", "error", err)
		}
	}

	return c.reader.Close()
}
