package notify

import (
	"context"
	"time"

	"bilancio/internal/amqp"
)

// AlertPublisher is the slice of the AMQP client the queue notifier needs.
type AlertPublisher interface {
	PublishBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error
}

// AMQPNotifier hands alerts to the queue for the alert worker to deliver.
// From the request's point of view this is fire-and-forget: once published
// (or failed and logged by the caller), the request proceeds.
type AMQPNotifier struct {
	publisher AlertPublisher
}

func NewAMQPNotifier(publisher AlertPublisher) *AMQPNotifier {
	return &AMQPNotifier{publisher: publisher}
}

func (n *AMQPNotifier) Notify(ctx context.Context, recipient, subject, body string) error {
	return n.publisher.PublishBudgetAlert(ctx, &amqp.BudgetAlertMessage{
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		Timestamp: time.Now(),
	})
}
