// The alert worker drains the budget alert queue and delivers each message
// through the mail relay. Running it separately keeps slow SMTP round trips
// out of the web request path.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"bilancio/internal/amqp"
	"bilancio/internal/config"
	applog "bilancio/internal/log"
	"bilancio/internal/notify"
	"bilancio/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	applog.Setup(applog.Format(cfg.LogFormat))

	if err := cfg.Validate(); err != nil {
		slog.Error("configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		slog.Error("AMQP_URL is required for the alert worker")
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		slog.Error("failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// Deliver by SMTP when a relay is configured, otherwise log the alerts.
	var notifier notify.Notifier
	if cfg.MailHost != "" {
		notifier, err = notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.MailHost,
			Port:     cfg.MailPort,
			Username: cfg.MailUsername,
			Password: cfg.MailPassword,
			From:     cfg.MailFrom,
		})
		if err != nil {
			slog.Error("failed to initialize SMTP notifier", "error", err)
			os.Exit(1)
		}
		slog.Info("delivering alerts by SMTP", "host", cfg.MailHost, "port", cfg.MailPort)
	} else {
		notifier = notify.NewLogNotifier()
		slog.Info("no mail relay configured, logging alerts")
	}

	alertWorker := worker.NewAlertWorker(notifier)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("consuming budget alerts", "queue", cfg.AMQPQueue)
		return amqpClient.ConsumeBudgetAlerts(ctx, alertWorker.HandleAlertMessage)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("alert worker stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("alert worker stopped")
}
