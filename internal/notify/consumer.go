package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/20bec4199/blissora/internal/event"
	pkgkafka "github.com/20bec4199/blissora/pkg/kafka"
)

// Notifier consumes domain events and turns them into notifications.
type Notifier struct {
	sender Sender
	logger *slog.Logger
}

// NewNotifier creates a notifier backed by the given sender.
func NewNotifier(sender Sender, logger *slog.Logger) *Notifier {
	return &Notifier{
		sender: sender,
		logger: logger,
	}
}

// Handle dispatches a Kafka event to the matching notification builder.
// Unknown event types are skipped without error so new producers never
// poison this consumer group.
func (n *Notifier) Handle(ctx context.Context, e *pkgkafka.Event) error {
	switch e.EventType {
	case event.TopicUserRegistered:
		return n.handleUserRegistered(ctx, e)
	case event.TopicOrderCreated:
		return n.handleOrderCreated(ctx, e)
	default:
		n.logger.DebugContext(ctx, "skipping unhandled event type",
			slog.String("event_type", e.EventType),
		)
		return nil
	}
}

func (n *Notifier) handleUserRegistered(ctx context.Context, e *pkgkafka.Event) error {
	var data event.UserRegisteredData
	if err := e.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal user.registered data: %w", err)
	}

	return n.sender.Send(ctx, Notification{
		Recipient: data.Email,
		Subject:   "Welcome to Blissora",
		Body:      fmt.Sprintf("Hi %s, your account is ready.", data.Name),
	})
}

func (n *Notifier) handleOrderCreated(ctx context.Context, e *pkgkafka.Event) error {
	var data event.OrderCreatedData
	if err := e.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal order.created data: %w", err)
	}

	return n.sender.Send(ctx, Notification{
		Recipient: data.UserID,
		Subject:   fmt.Sprintf("Order %s confirmed", data.OrderNumber),
		Body:      fmt.Sprintf("We received your order of %d item(s).", data.ItemCount),
	})
}
