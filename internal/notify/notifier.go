// Package notify delivers budget alerts to users. Delivery is best-effort by
// contract: a transport failure is logged by the caller and never rolls back
// the expense or budget write that triggered the alert.
package notify

import (
	"context"
	"log/slog"
)

// Notifier sends a plaintext message to a recipient address.
type Notifier interface {
	Notify(ctx context.Context, recipient, subject, body string) error
}

// LogNotifier writes alerts to the log instead of sending them. It is the
// default when no mail relay or queue is configured, so local setups still
// surface threshold crossings.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Notify(ctx context.Context, recipient, subject, body string) error {
	slog.InfoContext(ctx, "Budget alert (log transport)",
		"recipient", recipient,
		"subject", subject,
		"body", body)
	return nil
}
