package notify

import (
	"context"
	"log/slog"
)

// Sender delivers a message to the configured operator mailbox.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes notifications to the log instead of sending them. It is
// used when no mail provider is configured.
type LogSender struct{}

// Send logs the message subject.
func (LogSender) Send(_ context.Context, msg Message) error {
	slog.Info("notification", "subject", msg.Subject, "body_bytes", len(msg.HTMLBody))
	return nil
}

// Verify interface compliance.
var _ Sender = LogSender{}
