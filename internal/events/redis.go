package events

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// Publisher is the part of the Redis client used to broadcast events
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
}

// RedisHandler forwards events to a Redis pub/sub channel so other
// processes can follow changes of the wrong-word collection.
type RedisHandler struct {
	rdb     Publisher
	channel string
}

// NewRedisHandler creates a handler publishing on channel
func NewRedisHandler(rdb Publisher, channel string) *RedisHandler {
	if channel == "" {
		channel = "wordreview:events"
	}
	return &RedisHandler{rdb: rdb, channel: channel}
}

func (h *RedisHandler) HandleEvent(ctx context.Context, event *Event) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.ID, err)
	}
	if err := h.rdb.Publish(ctx, h.channel, raw).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", h.channel, err)
	}
	return nil
}
