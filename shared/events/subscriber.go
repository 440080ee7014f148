package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type Handler func(ctx context.Context, event Event) error

// Subscriber listens on one pub/sub channel. Pub/sub has no acknowledgement,
// so a message whose handler fails is logged and lost.
type Subscriber struct {
	client  *redis.Client
	channel string
	handler Handler
	logger  *slog.Logger
}

type SubscriberConfig struct {
	Channel string
	Handler Handler
	Logger  *slog.Logger
}

func NewSubscriber(client *redis.Client, config SubscriberConfig) *Subscriber {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Subscriber{
		client:  client,
		channel: config.Channel,
		handler: config.Handler,
		logger:  config.Logger,
	}
}

// Start blocks until ctx is cancelled or the subscription is closed.
func (s *Subscriber) Start(ctx context.Context) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	// Wait for the subscription to be confirmed before reading messages.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.channel, err)
	}

	s.logger.Info("subscriber started", "channel", s.channel)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("subscriber stopping", "channel", s.channel)
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			if err := s.processMessage(ctx, msg); err != nil {
				s.logger.Warn("failed to process message", "channel", s.channel, "error", err)
			}
		}
	}
}

func (s *Subscriber) processMessage(ctx context.Context, msg *redis.Message) error {
	var event Event
	if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return s.handler(ctx, event)
}
