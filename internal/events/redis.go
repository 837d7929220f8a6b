package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"yatube/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisChannel is the pub/sub channel events go to.
const DefaultRedisChannel = "yatube:events"

// RedisPublisher sends events with PUBLISH. A nil client makes it a no-op.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

// NewRedisPublisher creates a publisher for channel (DefaultRedisChannel when empty).
func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, evt Event) error {
	if p.rdb == nil {
		return nil
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", evt.Type, err)
	}
	err = p.rdb.Publish(ctx, p.channel, body).Err()
	record("redis", evt.Type, err)
	return err
}

// Close is a no-op: the Redis client is owned by the caller.
func (p *RedisPublisher) Close() error { return nil }

// Subscribe calls onEvent for each event received on the channel until ctx is cancelled.
// Undecodable messages are logged and skipped.
func (p *RedisPublisher) Subscribe(ctx context.Context, onEvent func(Event)) error {
	if p.rdb == nil {
		return nil
	}
	sub := p.rdb.Subscribe(ctx, p.channel)
	// Wait for the subscription to be confirmed so no early event is missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", p.channel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var evt Event
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					middleware.Logger.Warn("skipping malformed event", slog.String("error", err.Error()))
					continue
				}
				onEvent(evt)
			}
		}
	}()
	return nil
}
