package notifications

import (
	"context"

	"venivici/pkg/logger"
	"venivici/pkg/model"
)

// LogSink records notifications instead of sending them. Used in development.
type LogSink struct {
	log *logger.Logger
}

func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) SendBookingConfirmation(_ context.Context, email string, booking *model.Booking) error {
	s.record(KindBookingConfirmation, email, booking)
	return nil
}

func (s *LogSink) SendPaymentReceipt(_ context.Context, email string, booking *model.Booking, receipt model.Receipt) error {
	s.record(KindPaymentReceipt, email, booking, "reference", receipt.Reference, "amount_paid", receipt.AmountPaid)
	return nil
}

func (s *LogSink) SendPendingPayment(_ context.Context, email string, booking *model.Booking) error {
	s.record(KindPendingPayment, email, booking)
	return nil
}

func (s *LogSink) record(kind Kind, email string, booking *model.Booking, extra ...any) {
	attrs := append([]any{
		"kind", kind,
		"to", email,
		"booking_id", booking.ID,
		"subject", subjects[kind],
	}, extra...)
	s.log.Info("Notification", attrs...)
}
