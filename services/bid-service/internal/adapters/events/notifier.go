package events

import (
	"context"
	"encoding/json"
	"fmt"

	pkgevents "github.com/gigflow/gigflow/pkg/events"
	"github.com/gigflow/gigflow/services/bid-service/internal/domain/bids"
)

// Publisher is the broker-facing surface the notifier needs.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body []byte) error
}

// RabbitMQNotifier implements bids.Notifier by publishing each notification
// to the notifications exchange, routed by notification type, e.g.
// "notification.bid-accepted". Delivery is best effort; the domain layer
// logs and moves on when publishing fails.
type RabbitMQNotifier struct {
	publisher Publisher
}

// NewRabbitMQNotifier creates a notifier on top of a publisher.
func NewRabbitMQNotifier(publisher Publisher) *RabbitMQNotifier {
	return &RabbitMQNotifier{publisher: publisher}
}

// Notify publishes the notification.
func (n *RabbitMQNotifier) Notify(ctx context.Context, notification bids.Notification) error {
	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	routingKey := "notification." + notification.Type
	if err := n.publisher.Publish(ctx, pkgevents.NotificationsExchange, routingKey, body); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}
