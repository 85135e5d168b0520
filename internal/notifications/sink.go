package notifications

import (
	"context"
	"fmt"

	"venivici/pkg/model"
)

// Kind names a customer notification. Values double as Kafka event type suffixes.
type Kind string

const (
	KindBookingConfirmation Kind = "booking_confirmation"
	KindPaymentReceipt      Kind = "payment_receipt"
	KindPendingPayment      Kind = "pending_payment"
)

const eventTypePrefix = "notification."

func (k Kind) EventType() string {
	return eventTypePrefix + string(k)
}

// Sink delivers customer notifications. Callers treat errors as non-fatal.
type Sink interface {
	SendBookingConfirmation(ctx context.Context, email string, booking *model.Booking) error
	SendPaymentReceipt(ctx context.Context, email string, booking *model.Booking, receipt model.Receipt) error
	SendPendingPayment(ctx context.Context, email string, booking *model.Booking) error
}

// Event is the serialized form of a notification when it travels through Kafka.
type Event struct {
	Kind    Kind           `json:"kind"`
	Email   string         `json:"email"`
	Booking model.Booking  `json:"booking"`
	Receipt *model.Receipt `json:"receipt,omitempty"`
}

// Dispatch hands a decoded event to the matching Sink method.
func Dispatch(ctx context.Context, sink Sink, event Event) error {
	if event.Email == "" {
		return fmt.Errorf("notification %s for booking %s has no recipient", event.Kind, event.Booking.ID)
	}

	switch event.Kind {
	case KindBookingConfirmation:
		return sink.SendBookingConfirmation(ctx, event.Email, &event.Booking)
	case KindPaymentReceipt:
		if event.Receipt == nil {
			return fmt.Errorf("payment receipt for booking %s has no receipt data", event.Booking.ID)
		}
		return sink.SendPaymentReceipt(ctx, event.Email, &event.Booking, *event.Receipt)
	case KindPendingPayment:
		return sink.SendPendingPayment(ctx, event.Email, &event.Booking)
	default:
		return fmt.Errorf("unknown notification kind %q", event.Kind)
	}
}
