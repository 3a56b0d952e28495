package notify

import (
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
)

// Transport selects how alerts leave the process.
type Transport string

const (
	TransportLog  Transport = "log"
	TransportSMTP Transport = "smtp"
	TransportAMQP Transport = "amqp"
)

func (t Transport) IsValid() bool {
	switch t {
	case TransportLog, TransportSMTP, TransportAMQP:
		return true
	default:
		return false
	}
}

// Config holds everything the factory needs for any transport.
type Config struct {
	Transport Transport

	// SMTP transport
	SMTP SMTPConfig

	// AMQP transport
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// CleanupFunc releases transport resources at shutdown.
type CleanupFunc func() error

// New builds the configured Notifier. The returned cleanup is nil when the
// transport holds no connection.
func New(cfg Config, logger *slog.Logger) (Notifier, CleanupFunc, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Transport.IsValid() {
		return nil, nil, fmt.Errorf("invalid alert transport: %s", cfg.Transport)
	}

	switch cfg.Transport {
	case TransportSMTP:
		n, err := NewSMTPNotifier(cfg.SMTP)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize SMTP notifier: %w", err)
		}
		logger.Info("Initialized SMTP alert transport", "host", cfg.SMTP.Host, "port", cfg.SMTP.Port)
		return n, nil, nil

	case TransportAMQP:
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize AMQP client: %w", err)
		}
		logger.Info("Initialized AMQP alert transport",
			"exchange", cfg.AMQPExchange,
			"queue", cfg.AMQPQueue)
		return NewAMQPNotifier(client), client.Close, nil

	default:
		logger.Info("Initialized log alert transport")
		return NewLogNotifier(), nil, nil
	}
}
