package redis

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/iho/walletledger/internal/domain"
)

// DefaultNotifyChannel is the pub/sub channel notifications are relayed to.
const DefaultNotifyChannel = "wallet_notifications"

// Message is the JSON document published for each outbox event.
type Message struct {
	ID          string         `json:"id"`
	EventType   string         `json:"event_type"`
	AggregateID string         `json:"aggregate_id"`
	Payload     map[string]any `json:"payload"`
	CreatedAt   string         `json:"created_at"`
}

// Publisher relays outbox events to a Redis pub/sub channel.
type Publisher struct {
	client  *redis.Client
	channel string
}

// NewPublisher creates a Publisher for channel.
func NewPublisher(client *redis.Client, channel string) *Publisher {
	if channel == "" {
		channel = DefaultNotifyChannel
	}
	return &Publisher{client: client, channel: channel}
}

// Publish sends the event to the channel. Subscribers that are offline miss it.
func (p *Publisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	body, err := json.Marshal(Message{
		ID:          event.ID,
		EventType:   event.EventType,
		AggregateID: event.AggregateID,
		Payload:     event.Payload,
		CreatedAt:   event.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
	if err != nil {
		return err
	}

	return p.client.Publish(ctx, p.channel, body).Err()
}
