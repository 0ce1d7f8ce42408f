package relay

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBridge shares broadcast frames between relay instances over a pub/sub channel.
type RedisBridge struct {
	client  *redis.Client
	channel string
	log     *zap.Logger
}

func NewRedisBridge(client *redis.Client, channel string, log *zap.Logger) *RedisBridge {
	return &RedisBridge{client: client, channel: channel, log: log}
}

func (b *RedisBridge) Publish(ctx context.Context, frame []byte) error {
	return b.client.Publish(ctx, b.channel, frame).Err()
}

// Run feeds frames published by any instance into hub until ctx is done.
func (b *RedisBridge) Run(ctx context.Context, hub *Hub) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	b.log.Info("relay bridge subscribed", zap.String("channel", b.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			hub.DeliverLocal([]byte(msg.Payload))
		}
	}
}

var _ Publisher = (*RedisBridge)(nil)
