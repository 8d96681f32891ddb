package domain

import "time"

// Event types
const (
	EventTypeNotificationCreated = "notification.created"
)

// Aggregate types
const (
	AggregateTypeUser = "user"
)

// OutboxEvent represents an event waiting to be relayed to subscribers.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NotificationEvent wraps a notification for the outbox.
func NotificationEvent(id string, n Notification, at time.Time) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   n.UserID,
		AggregateType: AggregateTypeUser,
		EventType:     EventTypeNotificationCreated,
		Payload: map[string]any{
			"title":    n.Title,
			"body":     n.Body,
			"user_id":  n.UserID,
			"category": n.Category,
		},
		CreatedAt: at,
	}
}
