package repository

import (
	"context"
	"encoding/json"

	"event_messaging_service/internal/messaging/domain"
	"event_messaging_service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// PubSub is the realtime transport: publish a message to a thread channel,
// or subscribe a handler until ctx is cancelled. Delivery is at-most-once,
// best-effort; missed events are reconciled by re-reading the page.
type PubSub interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string, handler func(msg domain.Message)) error
}

// RedisPubSub definition redis pub/sub
type RedisPubSub struct {
	client *redis.Client
}

// NewRedisPubSub create RedisPubSub
func NewRedisPubSub(client *redis.Client) *RedisPubSub {
	return &RedisPubSub{client: client}
}

// Publish serializes the message and publishes it on the channel.
func (r *RedisPubSub) Publish(ctx context.Context, channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, channel, data).Err()
}

// Subscribe opens the channel and dispatches each payload to handler on a
// background goroutine until ctx is cancelled.
func (r *RedisPubSub) Subscribe(ctx context.Context, channel string, handler func(msg domain.Message)) error {
	sub := r.client.Subscribe(ctx, channel)
	go func() {
		ch := sub.Channel()

		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}

				var result domain.Message
				if err := json.Unmarshal([]byte(m.Payload), &result); err != nil {
					logger.Log.Error("pubsub payload unmarshal failed", zap.String("channel", channel), zap.Error(err))
					continue
				}

				handler(result)
			case <-ctx.Done():
				logger.Log.Info("pubsub subscription closed", zap.String("channel", channel))
				sub.Close()
				return
			}
		}
	}()
	return nil
}
