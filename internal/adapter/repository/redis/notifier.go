package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/partyledger/internal/domain"
)

// EventPublisher publishes party events as JSON on a Redis pub/sub channel.
// It implements eventpublisher.Publisher.
type EventPublisher struct {
	client  *redis.Client
	channel string
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(client *redis.Client, channel string) *EventPublisher {
	return &EventPublisher{client: client, channel: channel}
}

// Publish sends event to the channel.
func (p *EventPublisher) Publish(ctx context.Context, event domain.PartyEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.client.Publish(ctx, p.channel, payload).Err()
}

// EventSubscriber reads party events from a Redis pub/sub channel.
type EventSubscriber struct {
	client  *redis.Client
	channel string
	logger  zerolog.Logger
}

// NewEventSubscriber creates a new EventSubscriber.
func NewEventSubscriber(client *redis.Client, channel string, logger zerolog.Logger) *EventSubscriber {
	return &EventSubscriber{client: client, channel: channel, logger: logger}
}

// Subscribe calls handle for every event until ctx is done or handle fails.
// Messages that are not valid events are logged and skipped.
func (s *EventSubscriber) Subscribe(ctx context.Context, handle func(domain.PartyEvent) error) error {
	sub := s.client.Subscribe(ctx, s.channel)
	defer sub.Close()

	// Wait for the subscription to be confirmed before reading messages.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.channel, err)
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}

			var event domain.PartyEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				s.logger.Warn().Err(err).Str("channel", msg.Channel).Msg("skipping malformed event")
				continue
			}

			if err := handle(event); err != nil {
				return err
			}
		}
	}
}
