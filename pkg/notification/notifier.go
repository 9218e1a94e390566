package notification

import (
	"context"
	"log/slog"
)

type NotificationData struct {
	To      string // Recipient address
	Subject string
	Body    string
}

// Notifier delivers a rendered message to one recipient.
type Notifier interface {
	Send(ctx context.Context, notification NotificationData) error
}

// LogNotifier writes messages to the log instead of delivering them. It is
// used when no SMTP server is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, notification NotificationData) error {
	n.logger.InfoContext(ctx, "Notification",
		"to", notification.To,
		"subject", notification.Subject,
		"body", notification.Body)
	return nil
}
