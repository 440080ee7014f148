package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	sharedredis "github.com/taskflow/platform/shared/redis"
)

// Publisher delivers domain events at most once. Publish never fails from the
// caller's point of view: delivery problems are logged and dropped.
type Publisher interface {
	Publish(ctx context.Context, channel string, data any)
}

// RedisPublisher sends events over Redis PUBLISH.
type RedisPublisher struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisPublisher(client *redis.Client, logger *slog.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, logger: logger}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, data any) {
	event := Event{
		Type:      channel,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal event", "channel", channel, "error", err)
		return
	}

	receivers, err := p.client.Publish(ctx, channel, eventJSON).Result()
	if err != nil {
		p.logger.Warn("failed to publish event", "channel", channel, "error", err)
		return
	}
	if receivers == 0 {
		p.logger.Debug("event published with no subscribers", "channel", channel)
	}
}

// NullPublisher drops every event.
type NullPublisher struct{}

func (NullPublisher) Publish(context.Context, string, any) {}

// NewPublisher picks the publisher variant once at startup, following the
// same rules as the cache: no URL or no reachable server means NullPublisher.
// The returned client is nil unless the live publisher was selected.
func NewPublisher(ctx context.Context, url string, logger *slog.Logger) (Publisher, *redis.Client) {
	if url == "" {
		logger.Warn("no redis url configured, using null publisher")
		return NullPublisher{}, nil
	}
	client, err := sharedredis.NewClient(ctx, url)
	if err != nil {
		logger.Error("redis unavailable, using null publisher", "error", err)
		return NullPublisher{}, nil
	}
	return NewRedisPublisher(client, logger), client
}
