// Package notify publishes lifecycle events to Redis channels for
// downstream messaging collaborators. Delivery is fire-and-forget: publish
// failures are logged and never surface to the engine.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"medmatch/matching-service/internal/engine"
)

// RedisSink publishes each event to a channel named after the event type
// (application.submitted, application.transitioned, posting.transitioned).
type RedisSink struct {
	rdb *redis.Client
}

// NewRedisSink returns a Redis-backed sink.
func NewRedisSink(rdb *redis.Client) *RedisSink {
	return &RedisSink{rdb: rdb}
}

// OnTransition implements engine.NotificationSink.
func (s *RedisSink) OnTransition(ctx context.Context, ev engine.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("notify marshal failed", "type", ev.Type, "err", err)
		return
	}
	if err := s.rdb.Publish(ctx, ev.Type, payload).Err(); err != nil {
		slog.Warn("notify publish failed", "type", ev.Type, "err", err)
	}
}

// Fanout forwards each event to every sink in order.
func Fanout(sinks ...engine.NotificationSink) engine.NotificationSink {
	return fanout(sinks)
}

type fanout []engine.NotificationSink

func (f fanout) OnTransition(ctx context.Context, ev engine.Event) {
	for _, s := range f {
		if s != nil {
			s.OnTransition(ctx, ev)
		}
	}
}
