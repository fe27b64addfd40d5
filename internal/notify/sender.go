package notify

import (
	"context"
	"log/slog"
)

// Notification is a single outbound message to a user.
type Notification struct {
	Recipient string
	Subject   string
	Body      string
}

// Sender delivers notifications over one channel (email, SMS, push).
type Sender interface {
	// Channel names the delivery channel for logs and metrics.
	Channel() string

	// Send delivers the notification.
	Send(ctx context.Context, n Notification) error
}

// LogSender writes notifications to the structured log. It stands in for an
// SMTP integration; outbound mail is delivered by an external system.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a log-backed notification sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Channel returns the channel name.
func (s *LogSender) Channel() string {
	return "log"
}

// Send writes the notification to the log.
func (s *LogSender) Send(ctx context.Context, n Notification) error {
	s.logger.InfoContext(ctx, "notification sent",
		slog.String("channel", s.Channel()),
		slog.String("recipient", n.Recipient),
		slog.String("subject", n.Subject),
	)
	return nil
}
