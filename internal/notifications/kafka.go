package notifications

import (
	"context"
	"errors"
	"fmt"

	"venivici/pkg/kafka"
	"venivici/pkg/middleware"
	"venivici/pkg/model"
)

const eventSource = "bookings"

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaSink queues notifications for the notifier worker, keyed by booking id.
type KafkaSink struct {
	publisher Publisher
}

func NewKafkaSink(publisher Publisher) *KafkaSink {
	return &KafkaSink{publisher: publisher}
}

func (s *KafkaSink) SendBookingConfirmation(ctx context.Context, email string, booking *model.Booking) error {
	return s.publish(ctx, Event{Kind: KindBookingConfirmation, Email: email, Booking: *booking})
}

func (s *KafkaSink) SendPaymentReceipt(ctx context.Context, email string, booking *model.Booking, receipt model.Receipt) error {
	return s.publish(ctx, Event{Kind: KindPaymentReceipt, Email: email, Booking: *booking, Receipt: &receipt})
}

func (s *KafkaSink) SendPendingPayment(ctx context.Context, email string, booking *model.Booking) error {
	return s.publish(ctx, Event{Kind: KindPendingPayment, Email: email, Booking: *booking})
}

func (s *KafkaSink) publish(ctx context.Context, event Event) error {
	msg, err := kafka.NewMessage().
		WithKey(event.Booking.ID).
		WithValue(event).
		WithEventType(event.Kind.EventType()).
		WithCorrelationID(correlationID(ctx)).
		WithSchemaVersion("1").
		WithSource(eventSource).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build %s event: %w", event.Kind, err)
	}

	if err := s.publisher.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Kind, err)
	}
	return nil
}

// Handler returns the notifier's consumer handler. Undecodable events are permanent failures,
// delivery failures are retried.
func Handler(sink Sink) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var event Event
		if err := msg.DecodeValue(&event); err != nil {
			return kafka.NewPermanentError("undecodable notification event", err)
		}
		if event.Kind.EventType() != msg.GetEventType() && msg.GetEventType() != "" {
			return kafka.NewPermanentError(fmt.Sprintf("event type %q does not match kind %q", msg.GetEventType(), event.Kind), nil)
		}

		err := Dispatch(ctx, sink, event)
		if err == nil {
			return nil
		}
		var kafkaErr *kafka.KafkaError
		if errors.As(err, &kafkaErr) {
			return err
		}
		if errors.Is(err, ErrDelivery) {
			return kafka.NewTransientError("notification delivery failed", err)
		}
		return kafka.NewPermanentError("notification rejected", err)
	}
}

func correlationID(ctx context.Context) string {
	return middleware.RequestIDFromContext(ctx)
}
