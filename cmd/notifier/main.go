package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"venivici/internal/notifications"
	"venivici/pkg/config"
	"venivici/pkg/kafka"
	kafka_config "venivici/pkg/kafka/config"
	kafka_middleware "venivici/pkg/kafka/middleware"
)

const ServiceName = "notifier"

// The notifier drains the booking notification topic and delivers each event by email.
// Failed deliveries are retried by the consumer and parked on the DLQ after the last attempt.
func main() {
	cfg := config.Load(ServiceName)

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	mailer, err := notifications.NewSMTPMailer(cfg.Notifications)
	if err != nil {
		cfg.Log.Fatal("Failed to configure SMTP mailer", "error", err)
	}
	defer mailer.Close()

	sink := notifications.NewEmailSink(mailer, cfg.Notifications.From, cfg.Log)
	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.Notifications.Topic,
		cfg.Notifications.GroupID,
		cfg.Notifications.DLQTopic,
		notifications.Handler(sink),
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting notifier",
		"topic", cfg.Notifications.Topic,
		"group_id", cfg.Notifications.GroupID,
		"dlq_topic", cfg.Notifications.DLQTopic,
	)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Notifier stopped with error", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
	cfg.Log.Info("Notifier stopped")
}
