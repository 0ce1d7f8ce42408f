package kafka

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v3"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Reader is the part of *kafka.Reader the consumer relies on.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader     Reader
	log        *zap.Logger
	minBackoff time.Duration
	maxBackoff time.Duration
}

type ConsumerOption func(*Consumer)

// WithRetryBackoff bounds the delay between attempts at a failing message.
func WithRetryBackoff(initial, ceiling time.Duration) ConsumerOption {
	return func(c *Consumer) {
		c.minBackoff, c.maxBackoff = initial, ceiling
	}
}

func WithConsumerLogger(log *zap.Logger) ConsumerOption {
	return func(c *Consumer) {
		c.log = log
	}
}

func NewConsumer(brokers []string, groupID, topic string, opts ...ConsumerOption) *Consumer {
	return NewReaderConsumer(kafka.NewReader(kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		Topic:             topic,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	}), opts...)
}

func NewReaderConsumer(reader Reader, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		reader:     reader,
		log:        zap.NewNop(),
		minBackoff: time.Second,
		maxBackoff: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume hands each message to handler and commits it only after handler succeeds.
// A failing message stays uncommitted and is retried with exponential backoff until the
// handler accepts it or ctx is done. Fetch and commit errors stop consumption.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, kafka.Message) error) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}

		if err := c.handle(ctx, msg, handler); err != nil {
			return err
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return err
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message, handler func(context.Context, kafka.Message) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.minBackoff
	b.MaxInterval = c.maxBackoff
	b.MaxElapsedTime = 0

	return backoff.RetryNotify(func() error {
		return handler(ctx, msg)
	}, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
		c.log.Warn("kafka handler failed, retrying",
			zap.String("topic", msg.Topic),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Duration("retry_in", next),
			zap.Error(err))
	})
}

var _ Reader = (*kafka.Reader)(nil)
