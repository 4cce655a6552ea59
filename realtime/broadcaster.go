package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"pairchatAPI/internal/types/chat"
)

// Broadcaster fans an event out to everyone subscribed to a channel. Publish
// is a single bounded attempt: the caller may log a failure but the message
// is already stored by the time publish runs, so a failure never travels
// further than that.
type Broadcaster interface {
	Publish(ctx context.Context, channel string, event *chat.Event) error
}

// PublishError keeps the fan-out failure distinct from store failures so the
// send path can recognize it as non-fatal.
type PublishError struct {
	Channel   string
	EventType string
	Err       error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s to %s: %v", e.EventType, e.Channel, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

var publishFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "realtime_publish_failures_total",
		Help: "Total number of failed realtime publish attempts",
	},
	[]string{"event_type"},
)

// InitMetrics registers the realtime metrics. Call this from main.go.
func InitMetrics() {
	prometheus.MustRegister(publishFailures)
	prometheus.MustRegister(connectedClients)
}

// RedisBroadcaster publishes events over Redis pub/sub so every hub
// instance, local or not, can deliver them to its own connections.
type RedisBroadcaster struct {
	rdb *redis.Client
}

func NewRedisBroadcaster(rdb *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{rdb: rdb}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, channel string, event *chat.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		publishFailures.WithLabelValues(event.Type).Inc()
		return &PublishError{Channel: channel, EventType: event.Type, Err: err}
	}

	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		publishFailures.WithLabelValues(event.Type).Inc()
		return &PublishError{Channel: channel, EventType: event.Type, Err: err}
	}
	return nil
}
