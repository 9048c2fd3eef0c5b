package kafka

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads report requests from one topic and commits each message
// after its handler succeeds.
type Consumer struct {
	r   messageReader
	log *zap.Logger

	attempts   int
	retryDelay time.Duration
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	cfg := kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		MinBytes:          1,
		MaxBytes:          10e6,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	}
	if groupID != "" {
		cfg.GroupTopics = []string{topic}
	} else {
		cfg.Topic = topic
	}
	return newConsumerWithReader(kafka.NewReader(cfg))
}

func newConsumerWithReader(r messageReader) *Consumer {
	return &Consumer{
		r:          r,
		log:        zap.NewNop(),
		attempts:   3,
		retryDelay: time.Second,
	}
}

// WithRetry sets how many times a failing handler is run per message.
func (c *Consumer) WithRetry(attempts int, delay time.Duration) *Consumer {
	if attempts > 0 {
		c.attempts = attempts
	}
	if delay >= 0 {
		c.retryDelay = delay
	}
	return c
}

func (c *Consumer) WithLogger(log *zap.Logger) *Consumer {
	if log != nil {
		c.log = log
	}
	return c
}

func (c *Consumer) Close() error {
	return c.r.Close()
}

// Consume blocks until the context is done, fetching fails or a message
// still fails after all handler attempts. That message stays uncommitted.
func (c *Consumer) Consume(ctx context.Context, handler func(key, value []byte) error) error {
	for {
		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, "fetch message")
		}
		if err := c.handle(ctx, msg, handler); err != nil {
			// Важно: commit делаем только при успехе, иначе потеряем запрос.
			return err
		}
		if err := c.r.CommitMessages(ctx, msg); err != nil {
			return errors.Wrap(err, "commit message")
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message, handler func(key, value []byte) error) error {
	var err error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err = handler(msg.Key, msg.Value); err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || attempt == c.attempts {
			break
		}
		c.log.Warn("kafka handler failed, retrying",
			zap.String("topic", msg.Topic),
			zap.Int64("offset", msg.Offset),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
	return errors.Wrapf(err, "handle message at offset %d", msg.Offset)
}
