// Package worker delivers queued budget alerts to their final transport.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/notify"
)

// AlertWorker consumes budget alert messages and hands them to a delivery
// notifier, typically SMTP. Returning an error requeues the message.
type AlertWorker struct {
	notifier notify.Notifier
}

func NewAlertWorker(notifier notify.Notifier) *AlertWorker {
	if notifier == nil {
		notifier = notify.NewLogNotifier()
	}
	return &AlertWorker{notifier: notifier}
}

// HandleAlertMessage delivers a single queued alert.
func (w *AlertWorker) HandleAlertMessage(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	slog.InfoContext(ctx, "processing budget alert",
		"recipient", msg.Recipient,
		"subject", msg.Subject,
		"queued_at", msg.Timestamp)

	if err := w.notifier.Notify(ctx, msg.Recipient, msg.Subject, msg.Body); err != nil {
		return fmt.Errorf("deliver alert to %s: %w", msg.Recipient, err)
	}

	slog.InfoContext(ctx, "budget alert delivered", "recipient", msg.Recipient)
	return nil
}
