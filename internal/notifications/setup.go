package notifications

import (
	"fmt"
	"io"

	"venivici/pkg/config"
	"venivici/pkg/kafka"
	kafka_config "venivici/pkg/kafka/config"
	kafka_middleware "venivici/pkg/kafka/middleware"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewSinkFromConfig builds the sink selected by NOTIFICATION_MODE. The closer releases
// the SMTP connection or flushes the Kafka producer.
func NewSinkFromConfig(cfg *config.Config) (Sink, io.Closer, error) {
	switch cfg.Notifications.Mode {
	case config.NotificationModeSMTP:
		mailer, err := NewSMTPMailer(cfg.Notifications)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to configure SMTP mailer: %w", err)
		}
		cfg.Log.Info("Notifications delivered by email", "smtp_host", cfg.Notifications.SMTPHost)
		return NewEmailSink(mailer, cfg.Notifications.From, cfg.Log), mailer, nil

	case config.NotificationModeKafka:
		kafkaCfg, err := kafka_config.Load()
		if err != nil {
			return nil, nil, fmt.Errorf("invalid Kafka configuration: %w", err)
		}
		kafkaCfg.LogConfiguration(cfg.Log)

		producer, err := kafka.NewProducer(kafkaCfg, cfg.Notifications.Topic, cfg.Notifications.DLQTopic, cfg.Log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Kafka producer: %w", err)
		}
		if kafkaCfg.EnableMiddleware {
			producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		}
		cfg.Log.Info("Notifications queued on Kafka", "topic", cfg.Notifications.Topic)
		return NewKafkaSink(producer), producer, nil

	default:
		cfg.Log.Info("Notifications written to the log only")
		return NewLogSink(cfg.Log), nopCloser{}, nil
	}
}
